package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Supplier is an external party business expenses are attributed to.
// Balance equals the sum of amounts of all currently-unpaid business expenses
// attributed to the supplier. It is maintained incrementally: every mutation
// path that changes attribution, amount, or paid status applies the matching
// delta inside the same transaction as the expense mutation.
type Supplier struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID       `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name           string          `gorm:"type:varchar(255);not null" json:"name"`
	ContactPerson  string          `gorm:"type:varchar(255)" json:"contact_person"`
	Phone          string          `gorm:"type:varchar(50)" json:"phone"`
	Email          string          `gorm:"type:varchar(255)" json:"email"`
	Balance        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"balance"`
	IsActive       bool            `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}
