package repository

import (
	"context"
	"time"

	"fleetops/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExpenseFilter narrows List results. Zero values mean "no filter".
type ExpenseFilter struct {
	From       *time.Time
	To         *time.Time
	CategoryID *uuid.UUID
	SupplierID *uuid.UUID
	IsBusiness *bool
	IsPaid     *bool
}

type ExpenseRepository interface {
	Create(ctx context.Context, expense *model.Expense) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Expense, error)
	Update(ctx context.Context, expense *model.Expense) error
	Delete(ctx context.Context, expense *model.Expense) error
	List(ctx context.Context, orgID uuid.UUID, filter ExpenseFilter, page, limit int) ([]model.Expense, int64, error)
	ListAll(ctx context.Context, orgID uuid.UUID, filter ExpenseFilter) ([]model.Expense, error)

	ReplaceTrucks(ctx context.Context, expenseID uuid.UUID, truckIDs []uuid.UUID) error
	ReplaceTrips(ctx context.Context, expenseID uuid.UUID, tripIDs []uuid.UUID) error
	ReplaceDrivers(ctx context.Context, expenseID uuid.UUID, driverIDs []uuid.UUID) error
	ClearAssociations(ctx context.Context, expenseID uuid.UUID) error

	CountByCategory(ctx context.Context, orgID, categoryID uuid.UUID) (int64, error)
	CountBySupplier(ctx context.Context, orgID, supplierID uuid.UUID) (int64, error)
	CountByTruck(ctx context.Context, truckID uuid.UUID) (int64, error)
	CountByTrip(ctx context.Context, tripID uuid.UUID) (int64, error)
	CountByDriver(ctx context.Context, driverID uuid.UUID) (int64, error)
}

type expenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

func (r *expenseRepository) Create(ctx context.Context, expense *model.Expense) error {
	// Omit associations — join rows are written explicitly by ReplaceXxx so
	// empty sets never produce empty batch inserts.
	return GetDB(ctx, r.db).Omit("Trucks", "Trips", "Drivers", "Category", "Supplier").Create(expense).Error
}

func (r *expenseRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Expense, error) {
	var expense model.Expense
	err := GetDB(ctx, r.db).
		Preload("Category").
		Preload("Supplier").
		Preload("Trucks").
		Preload("Trips").
		Preload("Drivers").
		First(&expense, "id = ? AND organization_id = ?", id, orgID).Error
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *expenseRepository) Update(ctx context.Context, expense *model.Expense) error {
	return GetDB(ctx, r.db).Omit("Trucks", "Trips", "Drivers", "Category", "Supplier").Save(expense).Error
}

func (r *expenseRepository) Delete(ctx context.Context, expense *model.Expense) error {
	// Join rows cascade with the expense row.
	return GetDB(ctx, r.db).Delete(expense).Error
}

func applyFilter(db *gorm.DB, filter ExpenseFilter) *gorm.DB {
	if filter.From != nil {
		db = db.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("date <= ?", *filter.To)
	}
	if filter.CategoryID != nil {
		db = db.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.SupplierID != nil {
		db = db.Where("supplier_id = ?", *filter.SupplierID)
	}
	if filter.IsBusiness != nil {
		db = db.Where("is_business_expense = ?", *filter.IsBusiness)
	}
	if filter.IsPaid != nil {
		db = db.Where("is_paid = ?", *filter.IsPaid)
	}
	return db
}

func (r *expenseRepository) List(ctx context.Context, orgID uuid.UUID, filter ExpenseFilter, page, limit int) ([]model.Expense, int64, error) {
	var expenses []model.Expense
	var total int64

	db := applyFilter(GetDB(ctx, r.db).Model(&model.Expense{}).Where("organization_id = ?", orgID), filter)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := db.
		Preload("Category").
		Preload("Supplier").
		Preload("Trucks").
		Preload("Trips").
		Preload("Drivers").
		Order("date desc, created_at desc").
		Offset(offset).Limit(limit).
		Find(&expenses).Error
	if err != nil {
		return nil, 0, err
	}

	return expenses, total, nil
}

// ListAll returns the full filtered expense set with associations preloaded,
// for the aggregation engine.
func (r *expenseRepository) ListAll(ctx context.Context, orgID uuid.UUID, filter ExpenseFilter) ([]model.Expense, error) {
	var expenses []model.Expense
	db := applyFilter(GetDB(ctx, r.db).Where("organization_id = ?", orgID), filter)
	err := db.
		Preload("Category").
		Preload("Supplier").
		Preload("Trucks").
		Preload("Trips").
		Preload("Drivers").
		Order("date asc, created_at asc").
		Find(&expenses).Error
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

// --- Association replacement (delete-all-then-insert, per type) ---

func (r *expenseRepository) ReplaceTrucks(ctx context.Context, expenseID uuid.UUID, truckIDs []uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("expense_id = ?", expenseID).Delete(&model.TruckExpense{}).Error; err != nil {
		return err
	}
	if len(truckIDs) == 0 {
		return nil
	}
	rows := make([]model.TruckExpense, 0, len(truckIDs))
	for _, id := range truckIDs {
		rows = append(rows, model.TruckExpense{ExpenseID: expenseID, TruckID: id})
	}
	return db.Create(&rows).Error
}

func (r *expenseRepository) ReplaceTrips(ctx context.Context, expenseID uuid.UUID, tripIDs []uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("expense_id = ?", expenseID).Delete(&model.TripExpense{}).Error; err != nil {
		return err
	}
	if len(tripIDs) == 0 {
		return nil
	}
	rows := make([]model.TripExpense, 0, len(tripIDs))
	for _, id := range tripIDs {
		rows = append(rows, model.TripExpense{ExpenseID: expenseID, TripID: id})
	}
	return db.Create(&rows).Error
}

func (r *expenseRepository) ReplaceDrivers(ctx context.Context, expenseID uuid.UUID, driverIDs []uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("expense_id = ?", expenseID).Delete(&model.DriverExpense{}).Error; err != nil {
		return err
	}
	if len(driverIDs) == 0 {
		return nil
	}
	rows := make([]model.DriverExpense, 0, len(driverIDs))
	for _, id := range driverIDs {
		rows = append(rows, model.DriverExpense{ExpenseID: expenseID, DriverID: id})
	}
	return db.Create(&rows).Error
}

// ClearAssociations removes all three association types for an expense.
// Used when an expense becomes a business expense.
func (r *expenseRepository) ClearAssociations(ctx context.Context, expenseID uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("expense_id = ?", expenseID).Delete(&model.TruckExpense{}).Error; err != nil {
		return err
	}
	if err := db.Where("expense_id = ?", expenseID).Delete(&model.TripExpense{}).Error; err != nil {
		return err
	}
	return db.Where("expense_id = ?", expenseID).Delete(&model.DriverExpense{}).Error
}

// --- Reference counts for deletion guards ---

func (r *expenseRepository) CountByCategory(ctx context.Context, orgID, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Expense{}).
		Where("organization_id = ? AND category_id = ?", orgID, categoryID).
		Count(&count).Error
	return count, err
}

func (r *expenseRepository) CountBySupplier(ctx context.Context, orgID, supplierID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Expense{}).
		Where("organization_id = ? AND supplier_id = ?", orgID, supplierID).
		Count(&count).Error
	return count, err
}

func (r *expenseRepository) CountByTruck(ctx context.Context, truckID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.TruckExpense{}).Where("truck_id = ?", truckID).Count(&count).Error
	return count, err
}

func (r *expenseRepository) CountByTrip(ctx context.Context, tripID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.TripExpense{}).Where("trip_id = ?", tripID).Count(&count).Error
	return count, err
}

func (r *expenseRepository) CountByDriver(ctx context.Context, driverID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.DriverExpense{}).Where("driver_id = ?", driverID).Count(&count).Error
	return count, err
}
