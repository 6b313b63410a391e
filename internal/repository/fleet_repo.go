package repository

import (
	"context"

	"fleetops/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FleetRepository covers the three association referents: trucks, drivers
// and trips. They share identical access patterns so one repository holds
// all three rather than three near-duplicate files.
type FleetRepository interface {
	CreateTruck(ctx context.Context, truck *model.Truck) error
	FindTruckByID(ctx context.Context, orgID, id uuid.UUID) (*model.Truck, error)
	FindTruckByRegistration(ctx context.Context, orgID uuid.UUID, registration string) (*model.Truck, error)
	ListTrucks(ctx context.Context, orgID uuid.UUID, page, limit int) ([]model.Truck, int64, error)
	UpdateTruck(ctx context.Context, truck *model.Truck) error
	DeleteTruck(ctx context.Context, truck *model.Truck) error

	CreateDriver(ctx context.Context, driver *model.Driver) error
	FindDriverByID(ctx context.Context, orgID, id uuid.UUID) (*model.Driver, error)
	ListDrivers(ctx context.Context, orgID uuid.UUID, page, limit int) ([]model.Driver, int64, error)
	UpdateDriver(ctx context.Context, driver *model.Driver) error
	DeleteDriver(ctx context.Context, driver *model.Driver) error

	CreateTrip(ctx context.Context, trip *model.Trip) error
	FindTripByID(ctx context.Context, orgID, id uuid.UUID) (*model.Trip, error)
	ListTrips(ctx context.Context, orgID uuid.UUID, page, limit int) ([]model.Trip, int64, error)
	UpdateTrip(ctx context.Context, trip *model.Trip) error
	DeleteTrip(ctx context.Context, trip *model.Trip) error
}

type fleetRepository struct {
	db *gorm.DB
}

func NewFleetRepository(db *gorm.DB) FleetRepository {
	return &fleetRepository{db: db}
}

// --- Trucks ---

func (r *fleetRepository) CreateTruck(ctx context.Context, truck *model.Truck) error {
	return GetDB(ctx, r.db).Create(truck).Error
}

func (r *fleetRepository) FindTruckByID(ctx context.Context, orgID, id uuid.UUID) (*model.Truck, error) {
	var truck model.Truck
	if err := GetDB(ctx, r.db).First(&truck, "id = ? AND organization_id = ?", id, orgID).Error; err != nil {
		return nil, err
	}
	return &truck, nil
}

func (r *fleetRepository) FindTruckByRegistration(ctx context.Context, orgID uuid.UUID, registration string) (*model.Truck, error) {
	var truck model.Truck
	if err := GetDB(ctx, r.db).First(&truck, "organization_id = ? AND registration = ?", orgID, registration).Error; err != nil {
		return nil, err
	}
	return &truck, nil
}

func (r *fleetRepository) ListTrucks(ctx context.Context, orgID uuid.UUID, page, limit int) ([]model.Truck, int64, error) {
	var trucks []model.Truck
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Truck{}).Where("organization_id = ?", orgID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Where("organization_id = ?", orgID).Order("registration asc").Offset(offset).Limit(limit).Find(&trucks).Error; err != nil {
		return nil, 0, err
	}
	return trucks, total, nil
}

func (r *fleetRepository) UpdateTruck(ctx context.Context, truck *model.Truck) error {
	return GetDB(ctx, r.db).Save(truck).Error
}

func (r *fleetRepository) DeleteTruck(ctx context.Context, truck *model.Truck) error {
	return GetDB(ctx, r.db).Delete(truck).Error
}

// --- Drivers ---

func (r *fleetRepository) CreateDriver(ctx context.Context, driver *model.Driver) error {
	return GetDB(ctx, r.db).Create(driver).Error
}

func (r *fleetRepository) FindDriverByID(ctx context.Context, orgID, id uuid.UUID) (*model.Driver, error) {
	var driver model.Driver
	if err := GetDB(ctx, r.db).First(&driver, "id = ? AND organization_id = ?", id, orgID).Error; err != nil {
		return nil, err
	}
	return &driver, nil
}

func (r *fleetRepository) ListDrivers(ctx context.Context, orgID uuid.UUID, page, limit int) ([]model.Driver, int64, error) {
	var drivers []model.Driver
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Driver{}).Where("organization_id = ?", orgID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Where("organization_id = ?", orgID).Order("last_name asc, first_name asc").Offset(offset).Limit(limit).Find(&drivers).Error; err != nil {
		return nil, 0, err
	}
	return drivers, total, nil
}

func (r *fleetRepository) UpdateDriver(ctx context.Context, driver *model.Driver) error {
	return GetDB(ctx, r.db).Save(driver).Error
}

func (r *fleetRepository) DeleteDriver(ctx context.Context, driver *model.Driver) error {
	return GetDB(ctx, r.db).Delete(driver).Error
}

// --- Trips ---

func (r *fleetRepository) CreateTrip(ctx context.Context, trip *model.Trip) error {
	return GetDB(ctx, r.db).Create(trip).Error
}

func (r *fleetRepository) FindTripByID(ctx context.Context, orgID, id uuid.UUID) (*model.Trip, error) {
	var trip model.Trip
	if err := GetDB(ctx, r.db).First(&trip, "id = ? AND organization_id = ?", id, orgID).Error; err != nil {
		return nil, err
	}
	return &trip, nil
}

func (r *fleetRepository) ListTrips(ctx context.Context, orgID uuid.UUID, page, limit int) ([]model.Trip, int64, error) {
	var trips []model.Trip
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Trip{}).Where("organization_id = ?", orgID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Where("organization_id = ?", orgID).Order("date desc").Offset(offset).Limit(limit).Find(&trips).Error; err != nil {
		return nil, 0, err
	}
	return trips, total, nil
}

func (r *fleetRepository) UpdateTrip(ctx context.Context, trip *model.Trip) error {
	return GetDB(ctx, r.db).Save(trip).Error
}

func (r *fleetRepository) DeleteTrip(ctx context.Context, trip *model.Trip) error {
	return GetDB(ctx, r.db).Delete(trip).Error
}
