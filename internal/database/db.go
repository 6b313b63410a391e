package database

import (
	"log"

	"fleetops/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Register explicit join models so association rows can be owned and
	// replaced wholesale by the expense service.
	if err := db.SetupJoinTable(&model.Expense{}, "Trucks", &model.TruckExpense{}); err != nil {
		return nil, err
	}
	if err := db.SetupJoinTable(&model.Expense{}, "Trips", &model.TripExpense{}); err != nil {
		return nil, err
	}
	if err := db.SetupJoinTable(&model.Expense{}, "Drivers", &model.DriverExpense{}); err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.Organization{},
		&model.User{},
		&model.RefreshToken{},
		&model.Truck{},
		&model.Driver{},
		&model.Trip{},
		&model.ExpenseCategory{},
		&model.Supplier{},
		&model.Expense{},
		&model.TruckExpense{},
		&model.TripExpense{},
		&model.DriverExpense{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
