package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TripStatus enum constants
const (
	TripStatusScheduled = "SCHEDULED"
	TripStatusOngoing   = "ONGOING"
	TripStatusCompleted = "COMPLETED"
	TripStatusCancelled = "CANCELLED"
)

// Truck represents a vehicle owned by the organization
type Truck struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index:idx_trucks_org_registration,unique" json:"organization_id"`
	Registration   string         `gorm:"type:varchar(50);not null;index:idx_trucks_org_registration,unique" json:"registration"`
	Make           string         `gorm:"type:varchar(100)" json:"make"`
	Model          string         `gorm:"type:varchar(100)" json:"model"`
	Year           int            `json:"year"`
	IsActive       bool           `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// Driver represents a driver employed by the organization
type Driver struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"organization_id"`
	FirstName      string         `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName       string         `gorm:"type:varchar(100);not null" json:"last_name"`
	LicenseNumber  string         `gorm:"type:varchar(50)" json:"license_number"`
	Phone          string         `gorm:"type:varchar(50)" json:"phone"`
	IsActive       bool           `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// FullName returns the driver's display name used in reports
func (d Driver) FullName() string {
	return d.FirstName + " " + d.LastName
}

// Trip represents a scheduled or completed haul between two locations
type Trip struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"organization_id"`
	Origin         string         `gorm:"type:varchar(255);not null" json:"origin"`
	Destination    string         `gorm:"type:varchar(255);not null" json:"destination"`
	Date           time.Time      `gorm:"not null;index" json:"date"`
	Status         string         `gorm:"type:varchar(20);not null;default:'SCHEDULED'" json:"status"`
	TruckID        *uuid.UUID     `gorm:"type:uuid;index" json:"truck_id"`
	DriverID       *uuid.UUID     `gorm:"type:uuid;index" json:"driver_id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// Route returns the "origin → destination" label used in reports
func (t Trip) Route() string {
	return t.Origin + " → " + t.Destination
}
