package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"fleetops/internal/model"
	"fleetops/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Color       string `json:"color"`
	IsTruck     bool   `json:"is_truck"`
	IsTrip      bool   `json:"is_trip"`
	IsDriver    bool   `json:"is_driver"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	IsTruck     *bool   `json:"is_truck"`
	IsTrip      *bool   `json:"is_trip"`
	IsDriver    *bool   `json:"is_driver"`
}

type CategoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	IsTruck     bool   `json:"is_truck"`
	IsTrip      bool   `json:"is_trip"`
	IsDriver    bool   `json:"is_driver"`
	CanDelete   bool   `json:"can_delete"`
	CreatedAt   string `json:"created_at"`
}

// --- Interface ---

type CategoryService interface {
	CreateCategory(ctx context.Context, actor Actor, req CreateCategoryRequest) (CategoryResponse, error)
	UpdateCategory(ctx context.Context, actor Actor, id string, req UpdateCategoryRequest) (CategoryResponse, error)
	DeleteCategory(ctx context.Context, actor Actor, id string) error
	GetCategories(ctx context.Context, actor Actor) ([]CategoryResponse, error)
	CanDeleteCategory(ctx context.Context, actor Actor, id string) (bool, error)
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	expenseRepo  repository.ExpenseRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewCategoryService(
	categoryRepo repository.CategoryRepository,
	expenseRepo repository.ExpenseRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		expenseRepo:  expenseRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

// --- Implementation ---

func (s *categoryService) CreateCategory(ctx context.Context, actor Actor, req CreateCategoryRequest) (CategoryResponse, error) {
	if _, err := s.categoryRepo.FindByName(ctx, actor.OrgID, req.Name); err == nil {
		return CategoryResponse{}, conflictErr(fmt.Sprintf("a category named %q already exists", req.Name))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return CategoryResponse{}, storageErr("check category name", err)
	}

	category := model.ExpenseCategory{
		OrganizationID: actor.OrgID,
		Name:           req.Name,
		Description:    req.Description,
		Color:          req.Color,
		IsTruck:        req.IsTruck,
		IsTrip:         req.IsTrip,
		IsDriver:       req.IsDriver,
	}

	if err := s.categoryRepo.Create(ctx, &category); err != nil {
		return CategoryResponse{}, storageErr("create category", err)
	}

	s.writeAudit(ctx, actor, model.ActionCreateCategory, category.ID.String(), category.Name, req)
	return toCategoryResponse(category, true), nil
}

// UpdateCategory edits name, description, color and capability flags.
// Capability flags are not re-validated against existing expenses: an
// expense already linked to trucks keeps those links even if is_truck is
// flipped off here. The flags gate expense writes, not category edits.
func (s *categoryService) UpdateCategory(ctx context.Context, actor Actor, id string, req UpdateCategoryRequest) (CategoryResponse, error) {
	categoryID, err := uuid.Parse(id)
	if err != nil {
		return CategoryResponse{}, fmt.Errorf("invalid category id: %w", err)
	}

	category, err := s.categoryRepo.FindByID(ctx, actor.OrgID, categoryID)
	if err != nil {
		return CategoryResponse{}, notFoundOr("category", err)
	}

	if req.Name != nil && *req.Name != category.Name {
		if _, nameErr := s.categoryRepo.FindByName(ctx, actor.OrgID, *req.Name); nameErr == nil {
			return CategoryResponse{}, conflictErr(fmt.Sprintf("a category named %q already exists", *req.Name))
		} else if !errors.Is(nameErr, gorm.ErrRecordNotFound) {
			return CategoryResponse{}, storageErr("check category name", nameErr)
		}
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.Color != nil {
		category.Color = *req.Color
	}
	if req.IsTruck != nil {
		category.IsTruck = *req.IsTruck
	}
	if req.IsTrip != nil {
		category.IsTrip = *req.IsTrip
	}
	if req.IsDriver != nil {
		category.IsDriver = *req.IsDriver
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return CategoryResponse{}, storageErr("update category", err)
	}

	s.writeAudit(ctx, actor, model.ActionUpdateCategory, category.ID.String(), category.Name, req)

	count, err := s.expenseRepo.CountByCategory(ctx, actor.OrgID, category.ID)
	if err != nil {
		return CategoryResponse{}, storageErr("count category expenses", err)
	}
	return toCategoryResponse(*category, count == 0), nil
}

// DeleteCategory removes a category. A category with one or more expenses
// referencing it cannot be deleted; the guard runs inside the deletion
// transaction so the count and the delete observe the same state.
func (s *categoryService) DeleteCategory(ctx context.Context, actor Actor, id string) error {
	categoryID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid category id: %w", err)
	}

	category, err := s.categoryRepo.FindByID(ctx, actor.OrgID, categoryID)
	if err != nil {
		return notFoundOr("category", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		count, countErr := s.expenseRepo.CountByCategory(txCtx, actor.OrgID, category.ID)
		if countErr != nil {
			return storageErr("count category expenses", countErr)
		}
		if count > 0 {
			return conflictErr(fmt.Sprintf("category %q is referenced by %d expense(s) and cannot be deleted", category.Name, count))
		}
		if delErr := s.categoryRepo.Delete(txCtx, category); delErr != nil {
			return storageErr("delete category", delErr)
		}
		s.writeAudit(txCtx, actor, model.ActionDeleteCategory, category.ID.String(), category.Name, map[string]string{"deleted_id": id})
		return nil
	})
}

func (s *categoryService) GetCategories(ctx context.Context, actor Actor) ([]CategoryResponse, error) {
	categories, err := s.categoryRepo.List(ctx, actor.OrgID)
	if err != nil {
		return nil, storageErr("list categories", err)
	}

	res := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		count, countErr := s.expenseRepo.CountByCategory(ctx, actor.OrgID, c.ID)
		if countErr != nil {
			return nil, storageErr("count category expenses", countErr)
		}
		res = append(res, toCategoryResponse(c, count == 0))
	}
	return res, nil
}

func (s *categoryService) CanDeleteCategory(ctx context.Context, actor Actor, id string) (bool, error) {
	categoryID, err := uuid.Parse(id)
	if err != nil {
		return false, fmt.Errorf("invalid category id: %w", err)
	}
	category, err := s.categoryRepo.FindByID(ctx, actor.OrgID, categoryID)
	if err != nil {
		return false, notFoundOr("category", err)
	}
	count, err := s.expenseRepo.CountByCategory(ctx, actor.OrgID, category.ID)
	if err != nil {
		return false, storageErr("count category expenses", err)
	}
	return count == 0, nil
}

// --- Helpers ---

func toCategoryResponse(c model.ExpenseCategory, canDelete bool) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID.String(),
		Name:        c.Name,
		Description: c.Description,
		Color:       c.Color,
		IsTruck:     c.IsTruck,
		IsTrip:      c.IsTrip,
		IsDriver:    c.IsDriver,
		CanDelete:   canDelete,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
	}
}

func (s *categoryService) writeAudit(ctx context.Context, actor Actor, action, entityID, entityName string, details interface{}) {
	detailsJSON, _ := json.Marshal(details)
	entry := &model.AuditLog{
		OrganizationID: actor.OrgID,
		UserID:         actor.auditUserID(),
		Action:         action,
		EntityID:       entityID,
		EntityName:     entityName,
		Details:        string(detailsJSON),
	}
	// Best-effort audit log — don't fail the operation if logging fails
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		log.Printf("failed to write audit log: %v", err)
	}
}
