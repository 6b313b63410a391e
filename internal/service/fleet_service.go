package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleetops/internal/model"
	"fleetops/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- Truck DTOs ---

type TruckPayload struct {
	Registration string `json:"registration" binding:"required"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
}

type TruckResponse struct {
	ID           string `json:"id"`
	Registration string `json:"registration"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	IsActive     bool   `json:"is_active"`
	CreatedAt    string `json:"created_at"`
}

// --- Driver DTOs ---

type DriverPayload struct {
	FirstName     string `json:"first_name" binding:"required"`
	LastName      string `json:"last_name" binding:"required"`
	LicenseNumber string `json:"license_number"`
	Phone         string `json:"phone"`
}

type DriverResponse struct {
	ID            string `json:"id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	LicenseNumber string `json:"license_number"`
	Phone         string `json:"phone"`
	IsActive      bool   `json:"is_active"`
	CreatedAt     string `json:"created_at"`
}

// --- Trip DTOs ---

type TripPayload struct {
	Origin      string `json:"origin" binding:"required"`
	Destination string `json:"destination" binding:"required"`
	Date        string `json:"date" binding:"required"` // YYYY-MM-DD
	Status      string `json:"status"`
	TruckID     string `json:"truck_id"`
	DriverID    string `json:"driver_id"`
}

type TripResponse struct {
	ID          string  `json:"id"`
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	Date        string  `json:"date"`
	Status      string  `json:"status"`
	TruckID     *string `json:"truck_id"`
	DriverID    *string `json:"driver_id"`
	CreatedAt   string  `json:"created_at"`
}

// --- Interface ---

// FleetService manages the three association referents: trucks, drivers
// and trips.
type FleetService interface {
	CreateTruck(ctx context.Context, actor Actor, req TruckPayload) (TruckResponse, error)
	UpdateTruck(ctx context.Context, actor Actor, id string, req TruckPayload) (TruckResponse, error)
	DeleteTruck(ctx context.Context, actor Actor, id string) error
	GetTrucks(ctx context.Context, actor Actor, page, limit int) ([]TruckResponse, int64, error)

	CreateDriver(ctx context.Context, actor Actor, req DriverPayload) (DriverResponse, error)
	UpdateDriver(ctx context.Context, actor Actor, id string, req DriverPayload) (DriverResponse, error)
	DeleteDriver(ctx context.Context, actor Actor, id string) error
	GetDrivers(ctx context.Context, actor Actor, page, limit int) ([]DriverResponse, int64, error)

	CreateTrip(ctx context.Context, actor Actor, req TripPayload) (TripResponse, error)
	UpdateTrip(ctx context.Context, actor Actor, id string, req TripPayload) (TripResponse, error)
	DeleteTrip(ctx context.Context, actor Actor, id string) error
	GetTrips(ctx context.Context, actor Actor, page, limit int) ([]TripResponse, int64, error)
}

type fleetService struct {
	fleetRepo   repository.FleetRepository
	expenseRepo repository.ExpenseRepository
}

func NewFleetService(fleetRepo repository.FleetRepository, expenseRepo repository.ExpenseRepository) FleetService {
	return &fleetService{fleetRepo: fleetRepo, expenseRepo: expenseRepo}
}

var validTripStatuses = map[string]bool{
	model.TripStatusScheduled: true,
	model.TripStatusOngoing:   true,
	model.TripStatusCompleted: true,
	model.TripStatusCancelled: true,
}

// --- Trucks ---

func (s *fleetService) CreateTruck(ctx context.Context, actor Actor, req TruckPayload) (TruckResponse, error) {
	if _, err := s.fleetRepo.FindTruckByRegistration(ctx, actor.OrgID, req.Registration); err == nil {
		return TruckResponse{}, conflictErr(fmt.Sprintf("a truck with registration %q already exists", req.Registration))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return TruckResponse{}, storageErr("check registration", err)
	}

	truck := model.Truck{
		OrganizationID: actor.OrgID,
		Registration:   req.Registration,
		Make:           req.Make,
		Model:          req.Model,
		Year:           req.Year,
		IsActive:       true,
	}
	if err := s.fleetRepo.CreateTruck(ctx, &truck); err != nil {
		return TruckResponse{}, storageErr("create truck", err)
	}
	return toTruckResponse(truck), nil
}

func (s *fleetService) UpdateTruck(ctx context.Context, actor Actor, id string, req TruckPayload) (TruckResponse, error) {
	truckID, err := uuid.Parse(id)
	if err != nil {
		return TruckResponse{}, fmt.Errorf("invalid truck id: %w", err)
	}
	truck, err := s.fleetRepo.FindTruckByID(ctx, actor.OrgID, truckID)
	if err != nil {
		return TruckResponse{}, notFoundOr("truck", err)
	}

	if req.Registration != truck.Registration {
		if _, regErr := s.fleetRepo.FindTruckByRegistration(ctx, actor.OrgID, req.Registration); regErr == nil {
			return TruckResponse{}, conflictErr(fmt.Sprintf("a truck with registration %q already exists", req.Registration))
		} else if !errors.Is(regErr, gorm.ErrRecordNotFound) {
			return TruckResponse{}, storageErr("check registration", regErr)
		}
	}

	truck.Registration = req.Registration
	truck.Make = req.Make
	truck.Model = req.Model
	truck.Year = req.Year
	if err := s.fleetRepo.UpdateTruck(ctx, truck); err != nil {
		return TruckResponse{}, storageErr("update truck", err)
	}
	return toTruckResponse(*truck), nil
}

func (s *fleetService) DeleteTruck(ctx context.Context, actor Actor, id string) error {
	truckID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid truck id: %w", err)
	}
	truck, err := s.fleetRepo.FindTruckByID(ctx, actor.OrgID, truckID)
	if err != nil {
		return notFoundOr("truck", err)
	}
	count, err := s.expenseRepo.CountByTruck(ctx, truck.ID)
	if err != nil {
		return storageErr("count truck expenses", err)
	}
	if count > 0 {
		return conflictErr(fmt.Sprintf("truck %q is referenced by %d expense(s) and cannot be deleted", truck.Registration, count))
	}
	if err := s.fleetRepo.DeleteTruck(ctx, truck); err != nil {
		return storageErr("delete truck", err)
	}
	return nil
}

func (s *fleetService) GetTrucks(ctx context.Context, actor Actor, page, limit int) ([]TruckResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	trucks, total, err := s.fleetRepo.ListTrucks(ctx, actor.OrgID, page, limit)
	if err != nil {
		return nil, 0, storageErr("list trucks", err)
	}
	res := make([]TruckResponse, 0, len(trucks))
	for _, t := range trucks {
		res = append(res, toTruckResponse(t))
	}
	return res, total, nil
}

// --- Drivers ---

func (s *fleetService) CreateDriver(ctx context.Context, actor Actor, req DriverPayload) (DriverResponse, error) {
	driver := model.Driver{
		OrganizationID: actor.OrgID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		LicenseNumber:  req.LicenseNumber,
		Phone:          req.Phone,
		IsActive:       true,
	}
	if err := s.fleetRepo.CreateDriver(ctx, &driver); err != nil {
		return DriverResponse{}, storageErr("create driver", err)
	}
	return toDriverResponse(driver), nil
}

func (s *fleetService) UpdateDriver(ctx context.Context, actor Actor, id string, req DriverPayload) (DriverResponse, error) {
	driverID, err := uuid.Parse(id)
	if err != nil {
		return DriverResponse{}, fmt.Errorf("invalid driver id: %w", err)
	}
	driver, err := s.fleetRepo.FindDriverByID(ctx, actor.OrgID, driverID)
	if err != nil {
		return DriverResponse{}, notFoundOr("driver", err)
	}

	driver.FirstName = req.FirstName
	driver.LastName = req.LastName
	driver.LicenseNumber = req.LicenseNumber
	driver.Phone = req.Phone
	if err := s.fleetRepo.UpdateDriver(ctx, driver); err != nil {
		return DriverResponse{}, storageErr("update driver", err)
	}
	return toDriverResponse(*driver), nil
}

func (s *fleetService) DeleteDriver(ctx context.Context, actor Actor, id string) error {
	driverID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid driver id: %w", err)
	}
	driver, err := s.fleetRepo.FindDriverByID(ctx, actor.OrgID, driverID)
	if err != nil {
		return notFoundOr("driver", err)
	}
	count, err := s.expenseRepo.CountByDriver(ctx, driver.ID)
	if err != nil {
		return storageErr("count driver expenses", err)
	}
	if count > 0 {
		return conflictErr(fmt.Sprintf("driver %q is referenced by %d expense(s) and cannot be deleted", driver.FullName(), count))
	}
	if err := s.fleetRepo.DeleteDriver(ctx, driver); err != nil {
		return storageErr("delete driver", err)
	}
	return nil
}

func (s *fleetService) GetDrivers(ctx context.Context, actor Actor, page, limit int) ([]DriverResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	drivers, total, err := s.fleetRepo.ListDrivers(ctx, actor.OrgID, page, limit)
	if err != nil {
		return nil, 0, storageErr("list drivers", err)
	}
	res := make([]DriverResponse, 0, len(drivers))
	for _, d := range drivers {
		res = append(res, toDriverResponse(d))
	}
	return res, total, nil
}

// --- Trips ---

func (s *fleetService) CreateTrip(ctx context.Context, actor Actor, req TripPayload) (TripResponse, error) {
	trip, err := s.buildTrip(ctx, actor, req)
	if err != nil {
		return TripResponse{}, err
	}
	if err := s.fleetRepo.CreateTrip(ctx, trip); err != nil {
		return TripResponse{}, storageErr("create trip", err)
	}
	return toTripResponse(*trip), nil
}

func (s *fleetService) UpdateTrip(ctx context.Context, actor Actor, id string, req TripPayload) (TripResponse, error) {
	tripID, err := uuid.Parse(id)
	if err != nil {
		return TripResponse{}, fmt.Errorf("invalid trip id: %w", err)
	}
	existing, err := s.fleetRepo.FindTripByID(ctx, actor.OrgID, tripID)
	if err != nil {
		return TripResponse{}, notFoundOr("trip", err)
	}

	trip, err := s.buildTrip(ctx, actor, req)
	if err != nil {
		return TripResponse{}, err
	}
	existing.Origin = trip.Origin
	existing.Destination = trip.Destination
	existing.Date = trip.Date
	existing.Status = trip.Status
	existing.TruckID = trip.TruckID
	existing.DriverID = trip.DriverID
	if err := s.fleetRepo.UpdateTrip(ctx, existing); err != nil {
		return TripResponse{}, storageErr("update trip", err)
	}
	return toTripResponse(*existing), nil
}

func (s *fleetService) DeleteTrip(ctx context.Context, actor Actor, id string) error {
	tripID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid trip id: %w", err)
	}
	trip, err := s.fleetRepo.FindTripByID(ctx, actor.OrgID, tripID)
	if err != nil {
		return notFoundOr("trip", err)
	}
	count, err := s.expenseRepo.CountByTrip(ctx, trip.ID)
	if err != nil {
		return storageErr("count trip expenses", err)
	}
	if count > 0 {
		return conflictErr(fmt.Sprintf("trip %q is referenced by %d expense(s) and cannot be deleted", trip.Route(), count))
	}
	if err := s.fleetRepo.DeleteTrip(ctx, trip); err != nil {
		return storageErr("delete trip", err)
	}
	return nil
}

func (s *fleetService) GetTrips(ctx context.Context, actor Actor, page, limit int) ([]TripResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	trips, total, err := s.fleetRepo.ListTrips(ctx, actor.OrgID, page, limit)
	if err != nil {
		return nil, 0, storageErr("list trips", err)
	}
	res := make([]TripResponse, 0, len(trips))
	for _, t := range trips {
		res = append(res, toTripResponse(t))
	}
	return res, total, nil
}

// --- Helpers ---

func (s *fleetService) buildTrip(ctx context.Context, actor Actor, req TripPayload) (*model.Trip, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date format (expected YYYY-MM-DD): %w", err)
	}

	status := req.Status
	if status == "" {
		status = model.TripStatusScheduled
	}
	if !validTripStatuses[status] {
		return nil, fmt.Errorf("status must be one of: SCHEDULED, ONGOING, COMPLETED, CANCELLED")
	}

	trip := &model.Trip{
		OrganizationID: actor.OrgID,
		Origin:         req.Origin,
		Destination:    req.Destination,
		Date:           date,
		Status:         status,
	}

	if req.TruckID != "" {
		truckID, parseErr := uuid.Parse(req.TruckID)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid truck_id: %w", parseErr)
		}
		if _, truckErr := s.fleetRepo.FindTruckByID(ctx, actor.OrgID, truckID); truckErr != nil {
			return nil, notFoundOr("truck", truckErr)
		}
		trip.TruckID = &truckID
	}
	if req.DriverID != "" {
		driverID, parseErr := uuid.Parse(req.DriverID)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid driver_id: %w", parseErr)
		}
		if _, driverErr := s.fleetRepo.FindDriverByID(ctx, actor.OrgID, driverID); driverErr != nil {
			return nil, notFoundOr("driver", driverErr)
		}
		trip.DriverID = &driverID
	}

	return trip, nil
}

func toTruckResponse(t model.Truck) TruckResponse {
	return TruckResponse{
		ID:           t.ID.String(),
		Registration: t.Registration,
		Make:         t.Make,
		Model:        t.Model,
		Year:         t.Year,
		IsActive:     t.IsActive,
		CreatedAt:    t.CreatedAt.Format(time.RFC3339),
	}
}

func toDriverResponse(d model.Driver) DriverResponse {
	return DriverResponse{
		ID:            d.ID.String(),
		FirstName:     d.FirstName,
		LastName:      d.LastName,
		LicenseNumber: d.LicenseNumber,
		Phone:         d.Phone,
		IsActive:      d.IsActive,
		CreatedAt:     d.CreatedAt.Format(time.RFC3339),
	}
}

func toTripResponse(t model.Trip) TripResponse {
	resp := TripResponse{
		ID:          t.ID.String(),
		Origin:      t.Origin,
		Destination: t.Destination,
		Date:        t.Date.Format("2006-01-02"),
		Status:      t.Status,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
	if t.TruckID != nil {
		id := t.TruckID.String()
		resp.TruckID = &id
	}
	if t.DriverID != nil {
		id := t.DriverID.String()
		resp.DriverID = &id
	}
	return resp
}
