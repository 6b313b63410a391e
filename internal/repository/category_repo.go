package repository

import (
	"context"

	"fleetops/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *model.ExpenseCategory) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.ExpenseCategory, error)
	FindByName(ctx context.Context, orgID uuid.UUID, name string) (*model.ExpenseCategory, error)
	List(ctx context.Context, orgID uuid.UUID) ([]model.ExpenseCategory, error)
	Update(ctx context.Context, category *model.ExpenseCategory) error
	Delete(ctx context.Context, category *model.ExpenseCategory) error
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *model.ExpenseCategory) error {
	return GetDB(ctx, r.db).Create(category).Error
}

func (r *categoryRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.ExpenseCategory, error) {
	var category model.ExpenseCategory
	if err := GetDB(ctx, r.db).First(&category, "id = ? AND organization_id = ?", id, orgID).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindByName(ctx context.Context, orgID uuid.UUID, name string) (*model.ExpenseCategory, error) {
	var category model.ExpenseCategory
	if err := GetDB(ctx, r.db).First(&category, "organization_id = ? AND name = ?", orgID, name).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context, orgID uuid.UUID) ([]model.ExpenseCategory, error) {
	var categories []model.ExpenseCategory
	if err := GetDB(ctx, r.db).Where("organization_id = ?", orgID).Order("name asc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) Update(ctx context.Context, category *model.ExpenseCategory) error {
	return GetDB(ctx, r.db).Save(category).Error
}

func (r *categoryRepository) Delete(ctx context.Context, category *model.ExpenseCategory) error {
	return GetDB(ctx, r.db).Delete(category).Error
}
