package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"fleetops/internal/model"
	"fleetops/internal/notify"
	"fleetops/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateExpenseRequest struct {
	CategoryID        string   `json:"category_id" binding:"required"`
	Amount            string   `json:"amount" binding:"required"` // Decimal string
	Date              string   `json:"date" binding:"required"`   // YYYY-MM-DD
	Notes             string   `json:"notes"`
	IsBusinessExpense bool     `json:"is_business_expense"`
	IsPaid            bool     `json:"is_paid"`
	SupplierID        string   `json:"supplier_id"`
	TruckIDs          []string `json:"truck_ids"`
	TripIDs           []string `json:"trip_ids"`
	DriverIDs         []string `json:"driver_ids"`
}

// UpdateExpenseRequest uses pointers so nil means "not sent". For the three
// association lists an explicit empty list clears that type while nil leaves
// its existing rows untouched.
type UpdateExpenseRequest struct {
	CategoryID        *string   `json:"category_id"`
	Amount            *string   `json:"amount"`
	Date              *string   `json:"date"`
	Notes             *string   `json:"notes"`
	IsBusinessExpense *bool     `json:"is_business_expense"`
	IsPaid            *bool     `json:"is_paid"`
	SupplierID        *string   `json:"supplier_id"` // "" clears the supplier link
	TruckIDs          *[]string `json:"truck_ids"`
	TripIDs           *[]string `json:"trip_ids"`
	DriverIDs         *[]string `json:"driver_ids"`
}

type AssociationRef struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type ExpenseResponse struct {
	ID                string           `json:"id"`
	CategoryID        string           `json:"category_id"`
	CategoryName      string           `json:"category_name"`
	CategoryColor     string           `json:"category_color"`
	Amount            string           `json:"amount"`
	Date              string           `json:"date"`
	Notes             string           `json:"notes"`
	IsBusinessExpense bool             `json:"is_business_expense"`
	IsPaid            bool             `json:"is_paid"`
	SupplierID        *string          `json:"supplier_id"`
	SupplierName      string           `json:"supplier_name,omitempty"`
	Trucks            []AssociationRef `json:"trucks"`
	Trips             []AssociationRef `json:"trips"`
	Drivers           []AssociationRef `json:"drivers"`
	CreatedAt         string           `json:"created_at"`
}

// ExpenseListQuery narrows GetExpenses. Nil fields mean "no filter".
type ExpenseListQuery struct {
	From       *time.Time
	To         *time.Time
	CategoryID *uuid.UUID
	IsBusiness *bool
	IsPaid     *bool
}

// --- Interface ---

type ExpenseService interface {
	CreateExpense(ctx context.Context, actor Actor, req CreateExpenseRequest) (ExpenseResponse, error)
	UpdateExpense(ctx context.Context, actor Actor, id string, req UpdateExpenseRequest) (ExpenseResponse, error)
	DeleteExpense(ctx context.Context, actor Actor, id string) error
	GetExpense(ctx context.Context, actor Actor, id string) (ExpenseResponse, error)
	GetExpenses(ctx context.Context, actor Actor, query ExpenseListQuery, page, limit int) ([]ExpenseResponse, int64, error)
}

type expenseService struct {
	expenseRepo  repository.ExpenseRepository
	categoryRepo repository.CategoryRepository
	supplierRepo repository.SupplierRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	notifier     notify.Notifier
}

func NewExpenseService(
	expenseRepo repository.ExpenseRepository,
	categoryRepo repository.CategoryRepository,
	supplierRepo repository.SupplierRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier notify.Notifier,
) ExpenseService {
	return &expenseService{
		expenseRepo:  expenseRepo,
		categoryRepo: categoryRepo,
		supplierRepo: supplierRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		notifier:     notifier,
	}
}

// --- Implementation ---

func (s *expenseService) CreateExpense(ctx context.Context, actor Actor, req CreateExpenseRequest) (ExpenseResponse, error) {
	amount, date, err := parseAmountAndDate(req.Amount, req.Date)
	if err != nil {
		return ExpenseResponse{}, err
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return ExpenseResponse{}, fmt.Errorf("invalid category_id: %w", err)
	}

	var supplierID *uuid.UUID
	if req.SupplierID != "" {
		if !req.IsBusinessExpense {
			return ExpenseResponse{}, invalidAssociation("supplier_id",
				"a supplier can only be set on a business expense")
		}
		parsed, parseErr := uuid.Parse(req.SupplierID)
		if parseErr != nil {
			return ExpenseResponse{}, fmt.Errorf("invalid supplier_id: %w", parseErr)
		}
		supplierID = &parsed
	}

	truckIDs, err := parseIDList("truck_ids", req.TruckIDs)
	if err != nil {
		return ExpenseResponse{}, err
	}
	tripIDs, err := parseIDList("trip_ids", req.TripIDs)
	if err != nil {
		return ExpenseResponse{}, err
	}
	driverIDs, err := parseIDList("driver_ids", req.DriverIDs)
	if err != nil {
		return ExpenseResponse{}, err
	}

	category, err := s.categoryRepo.FindByID(ctx, actor.OrgID, categoryID)
	if err != nil {
		return ExpenseResponse{}, notFoundOr("category", err)
	}

	set, err := validateAssociations(category, req.IsBusinessExpense, truckIDs, tripIDs, driverIDs)
	if err != nil {
		return ExpenseResponse{}, err
	}

	if supplierID != nil {
		if _, err := s.supplierRepo.FindByID(ctx, actor.OrgID, *supplierID); err != nil {
			return ExpenseResponse{}, notFoundOr("supplier", err)
		}
	}

	expense := model.Expense{
		OrganizationID:    actor.OrgID,
		CategoryID:        category.ID,
		SupplierID:        supplierID,
		Amount:            amount,
		Date:              date,
		Notes:             req.Notes,
		IsBusinessExpense: req.IsBusinessExpense,
		IsPaid:            req.IsPaid,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.expenseRepo.Create(txCtx, &expense); createErr != nil {
			return storageErr("create expense", createErr)
		}

		// Association rows are written per type; empty sets are skipped
		// entirely rather than inserted as empty batches.
		if len(set.TruckIDs) > 0 {
			if assocErr := s.expenseRepo.ReplaceTrucks(txCtx, expense.ID, set.TruckIDs); assocErr != nil {
				return storageErr("link trucks", assocErr)
			}
		}
		if len(set.TripIDs) > 0 {
			if assocErr := s.expenseRepo.ReplaceTrips(txCtx, expense.ID, set.TripIDs); assocErr != nil {
				return storageErr("link trips", assocErr)
			}
		}
		if len(set.DriverIDs) > 0 {
			if assocErr := s.expenseRepo.ReplaceDrivers(txCtx, expense.ID, set.DriverIDs); assocErr != nil {
				return storageErr("link drivers", assocErr)
			}
		}

		// Unpaid business expenses accrue onto the supplier's balance.
		if expense.IsBusinessExpense && expense.SupplierID != nil && !expense.IsPaid {
			if balErr := s.supplierRepo.AdjustBalance(txCtx, actor.OrgID, *expense.SupplierID, expense.Amount); balErr != nil {
				return storageErr("adjust supplier balance", balErr)
			}
		}

		s.writeAudit(txCtx, actor, model.ActionCreateExpense, &expense, category.Name)
		return nil
	})
	if err != nil {
		return ExpenseResponse{}, err
	}

	s.dispatchEvent(actor, model.ActionCreateExpense, &expense, category.Name)

	created, err := s.expenseRepo.FindByID(ctx, actor.OrgID, expense.ID)
	if err != nil {
		return ExpenseResponse{}, notFoundOr("expense", err)
	}
	return toExpenseResponse(*created), nil
}

// UpdateExpense applies the non-nil request fields to an existing expense.
// Association lists follow pointer semantics: a nil list keeps the current
// rows of that type, an empty list clears them. The existing rows also stand
// in for validation, so flipping is_business_expense to true on an expense
// that still has associations is rejected; the caller must send empty lists
// in the same request to drop them. Business expenses never keep association
// rows past a successful update.
func (s *expenseService) UpdateExpense(ctx context.Context, actor Actor, id string, req UpdateExpenseRequest) (ExpenseResponse, error) {
	expenseID, err := uuid.Parse(id)
	if err != nil {
		return ExpenseResponse{}, fmt.Errorf("invalid expense id: %w", err)
	}

	existing, err := s.expenseRepo.FindByID(ctx, actor.OrgID, expenseID)
	if err != nil {
		return ExpenseResponse{}, notFoundOr("expense", err)
	}

	// Resolve the new scalar state, falling back to current values for
	// fields the request did not send.
	newAmount := existing.Amount
	if req.Amount != nil {
		newAmount, err = parseAmount(*req.Amount)
		if err != nil {
			return ExpenseResponse{}, err
		}
	}

	newDate := existing.Date
	if req.Date != nil {
		newDate, err = parseDate(*req.Date)
		if err != nil {
			return ExpenseResponse{}, err
		}
	}

	newNotes := existing.Notes
	if req.Notes != nil {
		newNotes = *req.Notes
	}

	newIsBusiness := existing.IsBusinessExpense
	if req.IsBusinessExpense != nil {
		newIsBusiness = *req.IsBusinessExpense
	}

	newIsPaid := existing.IsPaid
	if req.IsPaid != nil {
		newIsPaid = *req.IsPaid
	}

	category := &existing.Category
	if req.CategoryID != nil {
		categoryID, parseErr := uuid.Parse(*req.CategoryID)
		if parseErr != nil {
			return ExpenseResponse{}, fmt.Errorf("invalid category_id: %w", parseErr)
		}
		if categoryID != existing.CategoryID {
			category, err = s.categoryRepo.FindByID(ctx, actor.OrgID, categoryID)
			if err != nil {
				return ExpenseResponse{}, notFoundOr("category", err)
			}
		}
	}

	newSupplierID := existing.SupplierID
	if req.SupplierID != nil {
		if *req.SupplierID == "" {
			newSupplierID = nil
		} else {
			parsed, parseErr := uuid.Parse(*req.SupplierID)
			if parseErr != nil {
				return ExpenseResponse{}, fmt.Errorf("invalid supplier_id: %w", parseErr)
			}
			newSupplierID = &parsed
		}
	}
	if !newIsBusiness {
		if req.SupplierID != nil && *req.SupplierID != "" {
			return ExpenseResponse{}, invalidAssociation("supplier_id",
				"a supplier can only be set on a business expense")
		}
		// The supplier link is only meaningful on business expenses; it is
		// dropped when the flag is cleared.
		newSupplierID = nil
	}

	// Effective association sets for validation: a type the request did not
	// send keeps its existing rows.
	truckIDs := modelTruckIDs(existing.Trucks)
	if req.TruckIDs != nil {
		truckIDs, err = parseIDList("truck_ids", *req.TruckIDs)
		if err != nil {
			return ExpenseResponse{}, err
		}
	}
	tripIDs := modelTripIDs(existing.Trips)
	if req.TripIDs != nil {
		tripIDs, err = parseIDList("trip_ids", *req.TripIDs)
		if err != nil {
			return ExpenseResponse{}, err
		}
	}
	driverIDs := modelDriverIDs(existing.Drivers)
	if req.DriverIDs != nil {
		driverIDs, err = parseIDList("driver_ids", *req.DriverIDs)
		if err != nil {
			return ExpenseResponse{}, err
		}
	}

	set, err := validateAssociations(category, newIsBusiness, truckIDs, tripIDs, driverIDs)
	if err != nil {
		return ExpenseResponse{}, err
	}

	if newSupplierID != nil && (existing.SupplierID == nil || *newSupplierID != *existing.SupplierID) {
		if _, supplierErr := s.supplierRepo.FindByID(ctx, actor.OrgID, *newSupplierID); supplierErr != nil {
			return ExpenseResponse{}, notFoundOr("supplier", supplierErr)
		}
	}

	oldAmount := existing.Amount
	oldSupplierID := existing.SupplierID
	wasUnpaidBusiness := existing.IsBusinessExpense && !existing.IsPaid && oldSupplierID != nil

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// Balance transition: reverse the old attribution, then apply the
		// new one. Old and new supplier may be the same, different, or
		// absent — each side applies its own delta independently.
		if wasUnpaidBusiness {
			if balErr := s.supplierRepo.AdjustBalance(txCtx, actor.OrgID, *oldSupplierID, oldAmount.Neg()); balErr != nil {
				return storageErr("reverse supplier balance", balErr)
			}
		}
		if newIsBusiness && newSupplierID != nil && !newIsPaid {
			if balErr := s.supplierRepo.AdjustBalance(txCtx, actor.OrgID, *newSupplierID, newAmount); balErr != nil {
				return storageErr("apply supplier balance", balErr)
			}
		}

		existing.CategoryID = category.ID
		existing.SupplierID = newSupplierID
		existing.Amount = newAmount
		existing.Date = newDate
		existing.Notes = newNotes
		existing.IsBusinessExpense = newIsBusiness
		existing.IsPaid = newIsPaid
		if updateErr := s.expenseRepo.Update(txCtx, existing); updateErr != nil {
			return storageErr("update expense", updateErr)
		}

		if newIsBusiness {
			// Business expenses carry no operational associations; clear
			// any stale rows regardless of what was passed in.
			if assocErr := s.expenseRepo.ClearAssociations(txCtx, existing.ID); assocErr != nil {
				return storageErr("clear associations", assocErr)
			}
		} else {
			// Full replacement per type, only for types the request sent.
			if req.TruckIDs != nil {
				if assocErr := s.expenseRepo.ReplaceTrucks(txCtx, existing.ID, set.TruckIDs); assocErr != nil {
					return storageErr("replace trucks", assocErr)
				}
			}
			if req.TripIDs != nil {
				if assocErr := s.expenseRepo.ReplaceTrips(txCtx, existing.ID, set.TripIDs); assocErr != nil {
					return storageErr("replace trips", assocErr)
				}
			}
			if req.DriverIDs != nil {
				if assocErr := s.expenseRepo.ReplaceDrivers(txCtx, existing.ID, set.DriverIDs); assocErr != nil {
					return storageErr("replace drivers", assocErr)
				}
			}
		}

		s.writeAudit(txCtx, actor, model.ActionUpdateExpense, existing, category.Name)
		return nil
	})
	if err != nil {
		return ExpenseResponse{}, err
	}

	s.dispatchEvent(actor, model.ActionUpdateExpense, existing, category.Name)

	updated, err := s.expenseRepo.FindByID(ctx, actor.OrgID, existing.ID)
	if err != nil {
		return ExpenseResponse{}, notFoundOr("expense", err)
	}
	return toExpenseResponse(*updated), nil
}

func (s *expenseService) DeleteExpense(ctx context.Context, actor Actor, id string) error {
	expenseID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid expense id: %w", err)
	}

	existing, err := s.expenseRepo.FindByID(ctx, actor.OrgID, expenseID)
	if err != nil {
		return notFoundOr("expense", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// Reverse the original balance increment before removing the row.
		if existing.IsBusinessExpense && !existing.IsPaid && existing.SupplierID != nil {
			if balErr := s.supplierRepo.AdjustBalance(txCtx, actor.OrgID, *existing.SupplierID, existing.Amount.Neg()); balErr != nil {
				return storageErr("reverse supplier balance", balErr)
			}
		}
		// Association rows cascade with the expense.
		if delErr := s.expenseRepo.Delete(txCtx, existing); delErr != nil {
			return storageErr("delete expense", delErr)
		}
		s.writeAudit(txCtx, actor, model.ActionDeleteExpense, existing, existing.Category.Name)
		return nil
	})
	if err != nil {
		return err
	}

	s.dispatchEvent(actor, model.ActionDeleteExpense, existing, existing.Category.Name)
	return nil
}

func (s *expenseService) GetExpense(ctx context.Context, actor Actor, id string) (ExpenseResponse, error) {
	expenseID, err := uuid.Parse(id)
	if err != nil {
		return ExpenseResponse{}, fmt.Errorf("invalid expense id: %w", err)
	}
	expense, err := s.expenseRepo.FindByID(ctx, actor.OrgID, expenseID)
	if err != nil {
		return ExpenseResponse{}, notFoundOr("expense", err)
	}
	return toExpenseResponse(*expense), nil
}

func (s *expenseService) GetExpenses(ctx context.Context, actor Actor, query ExpenseListQuery, page, limit int) ([]ExpenseResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	filter := repository.ExpenseFilter{
		From:       query.From,
		To:         query.To,
		CategoryID: query.CategoryID,
		IsBusiness: query.IsBusiness,
		IsPaid:     query.IsPaid,
	}
	expenses, total, err := s.expenseRepo.List(ctx, actor.OrgID, filter, page, limit)
	if err != nil {
		return nil, 0, storageErr("list expenses", err)
	}

	result := make([]ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		result = append(result, toExpenseResponse(e))
	}
	return result, total, nil
}

// --- Helpers ---

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, invalidAmount("not a decimal number: " + raw)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, invalidAmount("must be greater than 0")
	}
	return amount, nil
}

func parseDate(raw string) (time.Time, error) {
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format (expected YYYY-MM-DD): %w", err)
	}
	return date, nil
}

func parseAmountAndDate(rawAmount, rawDate string) (decimal.Decimal, time.Time, error) {
	amount, err := parseAmount(rawAmount)
	if err != nil {
		return decimal.Zero, time.Time{}, err
	}
	date, err := parseDate(rawDate)
	if err != nil {
		return decimal.Zero, time.Time{}, err
	}
	return amount, date, nil
}

func modelTruckIDs(trucks []model.Truck) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(trucks))
	for _, t := range trucks {
		ids = append(ids, t.ID)
	}
	return ids
}

func modelTripIDs(trips []model.Trip) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(trips))
	for _, t := range trips {
		ids = append(ids, t.ID)
	}
	return ids
}

func modelDriverIDs(drivers []model.Driver) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(drivers))
	for _, d := range drivers {
		ids = append(ids, d.ID)
	}
	return ids
}

func (s *expenseService) writeAudit(ctx context.Context, actor Actor, action string, expense *model.Expense, categoryName string) {
	details, _ := json.Marshal(map[string]interface{}{
		"category":            categoryName,
		"amount":              expense.Amount.StringFixed(2),
		"date":                expense.Date.Format("2006-01-02"),
		"is_business_expense": expense.IsBusinessExpense,
		"is_paid":             expense.IsPaid,
		"notes":               expense.Notes,
	})
	entry := &model.AuditLog{
		OrganizationID: actor.OrgID,
		UserID:         actor.auditUserID(),
		Action:         action,
		EntityID:       expense.ID.String(),
		EntityName:     categoryName,
		Details:        string(details),
	}
	// Best-effort audit log — don't fail the operation if logging fails
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		log.Printf("failed to write audit log: %v", err)
	}
}

// dispatchEvent emits the mutation notification after commit. Delivery is
// best-effort: failures are logged, never propagated to the caller.
func (s *expenseService) dispatchEvent(actor Actor, action string, expense *model.Expense, categoryName string) {
	if s.notifier == nil {
		return
	}
	event := notify.Event{
		Action:    action,
		ExpenseID: expense.ID.String(),
		Notes:     expense.Notes,
		Category:  categoryName,
		Amount:    expense.Amount.StringFixed(2),
		Date:      expense.Date.Format("2006-01-02"),
		Actor: notify.Actor{
			Name:  actor.Name,
			Email: actor.Email,
			Role:  actor.Role,
		},
		Timestamp: time.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.Publish(ctx, event); err != nil {
			log.Printf("expense notification failed: %v", err)
		}
	}()
}

func toExpenseResponse(e model.Expense) ExpenseResponse {
	resp := ExpenseResponse{
		ID:                e.ID.String(),
		CategoryID:        e.CategoryID.String(),
		CategoryName:      e.Category.Name,
		CategoryColor:     e.Category.Color,
		Amount:            e.Amount.StringFixed(2),
		Date:              e.Date.Format("2006-01-02"),
		Notes:             e.Notes,
		IsBusinessExpense: e.IsBusinessExpense,
		IsPaid:            e.IsPaid,
		Trucks:            make([]AssociationRef, 0, len(e.Trucks)),
		Trips:             make([]AssociationRef, 0, len(e.Trips)),
		Drivers:           make([]AssociationRef, 0, len(e.Drivers)),
		CreatedAt:         e.CreatedAt.Format(time.RFC3339),
	}

	if e.SupplierID != nil {
		id := e.SupplierID.String()
		resp.SupplierID = &id
		if e.Supplier != nil {
			resp.SupplierName = e.Supplier.Name
		}
	}

	for _, t := range e.Trucks {
		resp.Trucks = append(resp.Trucks, AssociationRef{ID: t.ID.String(), Label: t.Registration})
	}
	for _, t := range e.Trips {
		resp.Trips = append(resp.Trips, AssociationRef{ID: t.ID.String(), Label: t.Route()})
	}
	for _, d := range e.Drivers {
		resp.Drivers = append(resp.Drivers, AssociationRef{ID: d.ID.String(), Label: d.FullName()})
	}

	return resp
}
