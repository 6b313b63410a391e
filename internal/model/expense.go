package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseCategory is a tenant-defined classification. The three capability
// flags govern which association types expenses in this category may carry.
type ExpenseCategory struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index:idx_categories_org_name,unique" json:"organization_id"`
	Name           string    `gorm:"type:varchar(100);not null;index:idx_categories_org_name,unique" json:"name"`
	Description    string    `gorm:"type:text" json:"description"`
	Color          string    `gorm:"type:varchar(20)" json:"color"`
	IsTruck        bool      `gorm:"default:false" json:"is_truck"`
	IsTrip         bool      `gorm:"default:false" json:"is_trip"`
	IsDriver       bool      `gorm:"default:false" json:"is_driver"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Expense is a monetary outflow event. Business expenses are attributed to a
// supplier and never carry truck/trip/driver associations; operational
// expenses must carry at least one.
type Expense struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"organization_id"`
	CategoryID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"category_id"`
	SupplierID     *uuid.UUID `gorm:"type:uuid;index" json:"supplier_id"`

	Amount            decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Date              time.Time       `gorm:"not null;index" json:"date"`
	Notes             string          `gorm:"type:text" json:"notes"`
	IsBusinessExpense bool            `gorm:"default:false" json:"is_business_expense"`
	IsPaid            bool            `gorm:"default:false" json:"is_paid"`

	Category ExpenseCategory `gorm:"foreignKey:CategoryID" json:"category"`
	Supplier *Supplier       `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`

	Trucks  []Truck  `gorm:"many2many:truck_expenses;" json:"trucks,omitempty"`
	Trips   []Trip   `gorm:"many2many:trip_expenses;" json:"trips,omitempty"`
	Drivers []Driver `gorm:"many2many:driver_expenses;" json:"drivers,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TruckExpense is a join row linking one expense to one truck.
// Association rows are owned by the expense and replaced wholesale on update.
type TruckExpense struct {
	ExpenseID uuid.UUID `gorm:"type:uuid;primaryKey" json:"expense_id"`
	TruckID   uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"truck_id"`
	Expense   Expense   `gorm:"foreignKey:ExpenseID;constraint:OnDelete:CASCADE" json:"-"`
	Truck     Truck     `gorm:"foreignKey:TruckID;constraint:OnDelete:CASCADE" json:"-"`
}

// TripExpense is a join row linking one expense to one trip.
type TripExpense struct {
	ExpenseID uuid.UUID `gorm:"type:uuid;primaryKey" json:"expense_id"`
	TripID    uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"trip_id"`
	Expense   Expense   `gorm:"foreignKey:ExpenseID;constraint:OnDelete:CASCADE" json:"-"`
	Trip      Trip      `gorm:"foreignKey:TripID;constraint:OnDelete:CASCADE" json:"-"`
}

// DriverExpense is a join row linking one expense to one driver.
type DriverExpense struct {
	ExpenseID uuid.UUID `gorm:"type:uuid;primaryKey" json:"expense_id"`
	DriverID  uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"driver_id"`
	Expense   Expense   `gorm:"foreignKey:ExpenseID;constraint:OnDelete:CASCADE" json:"-"`
	Driver    Driver    `gorm:"foreignKey:DriverID;constraint:OnDelete:CASCADE" json:"-"`
}
