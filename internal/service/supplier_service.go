package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/mail"
	"time"

	"fleetops/internal/model"
	"fleetops/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateSupplierRequest struct {
	Name          string `json:"name" binding:"required"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
}

type UpdateSupplierRequest struct {
	Name          *string `json:"name"`
	ContactPerson *string `json:"contact_person"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
	IsActive      *bool   `json:"is_active"`
}

type SupplierResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Balance       string `json:"balance"`
	IsActive      bool   `json:"is_active"`
	CreatedAt     string `json:"created_at"`
}

// --- Interface ---

type SupplierService interface {
	CreateSupplier(ctx context.Context, actor Actor, req CreateSupplierRequest) (SupplierResponse, error)
	UpdateSupplier(ctx context.Context, actor Actor, id string, req UpdateSupplierRequest) (SupplierResponse, error)
	DeleteSupplier(ctx context.Context, actor Actor, id string) error
	GetSuppliers(ctx context.Context, actor Actor, page, limit int) ([]SupplierResponse, int64, error)
}

type supplierService struct {
	supplierRepo repository.SupplierRepository
	expenseRepo  repository.ExpenseRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewSupplierService(
	supplierRepo repository.SupplierRepository,
	expenseRepo repository.ExpenseRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) SupplierService {
	return &supplierService{
		supplierRepo: supplierRepo,
		expenseRepo:  expenseRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

// --- Implementation ---

func (s *supplierService) CreateSupplier(ctx context.Context, actor Actor, req CreateSupplierRequest) (SupplierResponse, error) {
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return SupplierResponse{}, fmt.Errorf("invalid email format")
		}
	}

	supplier := model.Supplier{
		OrganizationID: actor.OrgID,
		Name:           req.Name,
		ContactPerson:  req.ContactPerson,
		Phone:          req.Phone,
		Email:          req.Email,
		IsActive:       true,
	}

	if err := s.supplierRepo.Create(ctx, &supplier); err != nil {
		return SupplierResponse{}, storageErr("create supplier", err)
	}

	s.writeAudit(ctx, actor, model.ActionCreateSupplier, supplier.ID.String(), supplier.Name, req)
	return toSupplierResponse(supplier), nil
}

func (s *supplierService) UpdateSupplier(ctx context.Context, actor Actor, id string, req UpdateSupplierRequest) (SupplierResponse, error) {
	supplierID, err := uuid.Parse(id)
	if err != nil {
		return SupplierResponse{}, fmt.Errorf("invalid supplier id: %w", err)
	}

	supplier, err := s.supplierRepo.FindByID(ctx, actor.OrgID, supplierID)
	if err != nil {
		return SupplierResponse{}, notFoundOr("supplier", err)
	}

	if req.Name != nil {
		if *req.Name == "" {
			return SupplierResponse{}, fmt.Errorf("name cannot be empty")
		}
		supplier.Name = *req.Name
	}
	if req.ContactPerson != nil {
		supplier.ContactPerson = *req.ContactPerson
	}
	if req.Phone != nil {
		supplier.Phone = *req.Phone
	}
	if req.Email != nil && *req.Email != "" {
		if _, mailErr := mail.ParseAddress(*req.Email); mailErr != nil {
			return SupplierResponse{}, fmt.Errorf("invalid email format")
		}
		supplier.Email = *req.Email
	}
	if req.IsActive != nil {
		supplier.IsActive = *req.IsActive
	}

	if err := s.supplierRepo.Update(ctx, supplier); err != nil {
		return SupplierResponse{}, storageErr("update supplier", err)
	}

	s.writeAudit(ctx, actor, model.ActionUpdateSupplier, supplier.ID.String(), supplier.Name, req)
	return toSupplierResponse(*supplier), nil
}

// DeleteSupplier removes a supplier unless business expenses still reference
// it — the same in-use guard categories get.
func (s *supplierService) DeleteSupplier(ctx context.Context, actor Actor, id string) error {
	supplierID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid supplier id: %w", err)
	}

	supplier, err := s.supplierRepo.FindByID(ctx, actor.OrgID, supplierID)
	if err != nil {
		return notFoundOr("supplier", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		count, countErr := s.expenseRepo.CountBySupplier(txCtx, actor.OrgID, supplier.ID)
		if countErr != nil {
			return storageErr("count supplier expenses", countErr)
		}
		if count > 0 {
			return conflictErr(fmt.Sprintf("supplier %q is referenced by %d expense(s) and cannot be deleted", supplier.Name, count))
		}
		if delErr := s.supplierRepo.Delete(txCtx, supplier); delErr != nil {
			return storageErr("delete supplier", delErr)
		}
		s.writeAudit(txCtx, actor, model.ActionDeleteSupplier, supplier.ID.String(), supplier.Name, map[string]string{"deleted_id": id})
		return nil
	})
}

func (s *supplierService) GetSuppliers(ctx context.Context, actor Actor, page, limit int) ([]SupplierResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	suppliers, total, err := s.supplierRepo.List(ctx, actor.OrgID, page, limit)
	if err != nil {
		return nil, 0, storageErr("list suppliers", err)
	}

	res := make([]SupplierResponse, 0, len(suppliers))
	for _, supplier := range suppliers {
		res = append(res, toSupplierResponse(supplier))
	}
	return res, total, nil
}

// --- Helpers ---

func toSupplierResponse(s model.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:            s.ID.String(),
		Name:          s.Name,
		ContactPerson: s.ContactPerson,
		Phone:         s.Phone,
		Email:         s.Email,
		Balance:       s.Balance.StringFixed(2),
		IsActive:      s.IsActive,
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
	}
}

func (s *supplierService) writeAudit(ctx context.Context, actor Actor, action, entityID, entityName string, details interface{}) {
	detailsJSON, _ := json.Marshal(details)
	entry := &model.AuditLog{
		OrganizationID: actor.OrgID,
		UserID:         actor.auditUserID(),
		Action:         action,
		EntityID:       entityID,
		EntityName:     entityName,
		Details:        string(detailsJSON),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		log.Printf("failed to write audit log: %v", err)
	}
}
