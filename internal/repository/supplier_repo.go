package repository

import (
	"context"

	"fleetops/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SupplierRepository interface {
	Create(ctx context.Context, supplier *model.Supplier) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Supplier, error)
	List(ctx context.Context, orgID uuid.UUID, page, limit int) ([]model.Supplier, int64, error)
	Update(ctx context.Context, supplier *model.Supplier) error
	Delete(ctx context.Context, supplier *model.Supplier) error
	AdjustBalance(ctx context.Context, orgID, id uuid.UUID, delta decimal.Decimal) error
}

type supplierRepository struct {
	db *gorm.DB
}

func NewSupplierRepository(db *gorm.DB) SupplierRepository {
	return &supplierRepository{db: db}
}

func (r *supplierRepository) Create(ctx context.Context, supplier *model.Supplier) error {
	return GetDB(ctx, r.db).Create(supplier).Error
}

func (r *supplierRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := GetDB(ctx, r.db).First(&supplier, "id = ? AND organization_id = ?", id, orgID).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *supplierRepository) List(ctx context.Context, orgID uuid.UUID, page, limit int) ([]model.Supplier, int64, error) {
	var suppliers []model.Supplier
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Supplier{}).Where("organization_id = ?", orgID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Where("organization_id = ?", orgID).Order("name asc").Offset(offset).Limit(limit).Find(&suppliers).Error; err != nil {
		return nil, 0, err
	}

	return suppliers, total, nil
}

func (r *supplierRepository) Update(ctx context.Context, supplier *model.Supplier) error {
	return GetDB(ctx, r.db).Save(supplier).Error
}

func (r *supplierRepository) Delete(ctx context.Context, supplier *model.Supplier) error {
	return GetDB(ctx, r.db).Delete(supplier).Error
}

// AdjustBalance applies a signed delta to the supplier's running balance.
// The delta is always computed from the specific old/new expense state being
// transitioned, never from a recomputation, and is applied inside the same
// transaction as the expense mutation.
func (r *supplierRepository) AdjustBalance(ctx context.Context, orgID, id uuid.UUID, delta decimal.Decimal) error {
	return GetDB(ctx, r.db).Model(&model.Supplier{}).
		Where("id = ? AND organization_id = ?", id, orgID).
		UpdateColumn("balance", gorm.Expr("balance + ?", delta)).Error
}
