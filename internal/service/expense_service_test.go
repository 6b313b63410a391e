package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"fleetops/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type expenseFixture struct {
	store   *fakeStore
	service ExpenseService
	actor   Actor
}

func newExpenseFixture() *expenseFixture {
	store := newFakeStore()
	orgID := uuid.New()
	svc := NewExpenseService(
		&fakeExpenseRepo{store: store},
		&fakeCategoryRepo{store: store},
		&fakeSupplierRepo{store: store},
		&fakeAuditRepo{store: store},
		passthroughTx{},
		nil,
	)
	return &expenseFixture{
		store:   store,
		service: svc,
		actor:   Actor{UserID: uuid.New(), OrgID: orgID, Name: "Test User", Role: model.RoleAdmin},
	}
}

func strPtr(s string) *string    { return &s }
func boolPtr(b bool) *bool       { return &b }
func listPtr(s []string) *[]string { return &s }

func TestCreateExpenseOperational(t *testing.T) {
	f := newExpenseFixture()
	fuel := f.store.addCategory(f.actor.OrgID, "Fuel", true, true, false)
	truck := f.store.addTruck(f.actor.OrgID, "AB-123-CD")

	resp, err := f.service.CreateExpense(context.Background(), f.actor, CreateExpenseRequest{
		CategoryID: fuel.ID.String(),
		Amount:     "150.50",
		Date:       "2026-08-15",
		Notes:      "diesel",
		TruckIDs:   []string{truck.ID.String()},
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	if resp.Amount != "150.50" {
		t.Errorf("amount = %s, want 150.50", resp.Amount)
	}
	if resp.CategoryName != "Fuel" {
		t.Errorf("category name = %s, want Fuel", resp.CategoryName)
	}
	if len(resp.Trucks) != 1 || resp.Trucks[0].ID != truck.ID.String() {
		t.Errorf("trucks = %v, want one entry for %s", resp.Trucks, truck.ID)
	}
	if resp.Trucks[0].Label != "AB-123-CD" {
		t.Errorf("truck label = %s, want AB-123-CD", resp.Trucks[0].Label)
	}

	if len(f.store.auditLogs) != 1 || f.store.auditLogs[0].Action != model.ActionCreateExpense {
		t.Errorf("expected one CREATE_EXPENSE audit entry, got %v", f.store.auditLogs)
	}
}

func TestCreateExpenseDuplicateAssociationsCollapse(t *testing.T) {
	f := newExpenseFixture()
	fuel := f.store.addCategory(f.actor.OrgID, "Fuel", true, false, false)
	truck := f.store.addTruck(f.actor.OrgID, "AB-123-CD")

	resp, err := f.service.CreateExpense(context.Background(), f.actor, CreateExpenseRequest{
		CategoryID: fuel.ID.String(),
		Amount:     "80",
		Date:       "2026-08-15",
		TruckIDs:   []string{truck.ID.String(), truck.ID.String(), truck.ID.String()},
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if len(resp.Trucks) != 1 {
		t.Errorf("expected duplicates to collapse to one row, got %d", len(resp.Trucks))
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	f := newExpenseFixture()
	fuel := f.store.addCategory(f.actor.OrgID, "Fuel", true, false, false)
	supplier := f.store.addSupplier(f.actor.OrgID, "Parts Co")
	truck := f.store.addTruck(f.actor.OrgID, "AB-123-CD")

	tests := []struct {
		name     string
		req      CreateExpenseRequest
		wantCode string
	}{
		{
			name: "zero amount rejected",
			req: CreateExpenseRequest{
				CategoryID: fuel.ID.String(),
				Amount:     "0",
				Date:       "2026-08-15",
				TruckIDs:   []string{truck.ID.String()},
			},
			wantCode: CodeInvalidAmount,
		},
		{
			name: "negative amount rejected",
			req: CreateExpenseRequest{
				CategoryID: fuel.ID.String(),
				Amount:     "-5",
				Date:       "2026-08-15",
				TruckIDs:   []string{truck.ID.String()},
			},
			wantCode: CodeInvalidAmount,
		},
		{
			name: "supplier on operational expense rejected",
			req: CreateExpenseRequest{
				CategoryID: fuel.ID.String(),
				Amount:     "50",
				Date:       "2026-08-15",
				SupplierID: supplier.ID.String(),
				TruckIDs:   []string{truck.ID.String()},
			},
			wantCode: CodeInvalidAssociation,
		},
		{
			name: "operational expense without associations rejected",
			req: CreateExpenseRequest{
				CategoryID: fuel.ID.String(),
				Amount:     "50",
				Date:       "2026-08-15",
			},
			wantCode: CodeMissingAssociation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.CreateExpense(context.Background(), f.actor, tt.req)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if code := validationCode(t, err); code != tt.wantCode {
				t.Errorf("code = %s, want %s", code, tt.wantCode)
			}
		})
	}
}

func TestCreateExpenseCategoryFromOtherOrgNotFound(t *testing.T) {
	f := newExpenseFixture()
	otherOrg := uuid.New()
	foreign := f.store.addCategory(otherOrg, "Fuel", true, false, false)
	truck := f.store.addTruck(f.actor.OrgID, "AB-123-CD")

	_, err := f.service.CreateExpense(context.Background(), f.actor, CreateExpenseRequest{
		CategoryID: foreign.ID.String(),
		Amount:     "50",
		Date:       "2026-08-15",
		TruckIDs:   []string{truck.ID.String()},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for cross-tenant category, got %v", err)
	}
}

func TestSupplierBalanceLifecycle(t *testing.T) {
	f := newExpenseFixture()
	office := f.store.addCategory(f.actor.OrgID, "Office", false, false, false)
	supplier := f.store.addSupplier(f.actor.OrgID, "Parts Co")
	ctx := context.Background()

	// Unpaid business expense increments the balance.
	created, err := f.service.CreateExpense(ctx, f.actor, CreateExpenseRequest{
		CategoryID:        office.ID.String(),
		Amount:            "200.00",
		Date:              "2026-08-10",
		IsBusinessExpense: true,
		SupplierID:        supplier.ID.String(),
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if got := f.store.suppliers[supplier.ID].Balance; !got.Equal(decimal.RequireFromString("200")) {
		t.Fatalf("balance after create = %s, want 200", got)
	}

	// Changing the amount re-attributes the delta.
	if _, err := f.service.UpdateExpense(ctx, f.actor, created.ID, UpdateExpenseRequest{
		Amount: strPtr("150.00"),
	}); err != nil {
		t.Fatalf("UpdateExpense amount: %v", err)
	}
	if got := f.store.suppliers[supplier.ID].Balance; !got.Equal(decimal.RequireFromString("150")) {
		t.Fatalf("balance after amount change = %s, want 150", got)
	}

	// Marking paid releases the balance.
	if _, err := f.service.UpdateExpense(ctx, f.actor, created.ID, UpdateExpenseRequest{
		IsPaid: boolPtr(true),
	}); err != nil {
		t.Fatalf("UpdateExpense paid: %v", err)
	}
	if got := f.store.suppliers[supplier.ID].Balance; !got.IsZero() {
		t.Fatalf("balance after paying = %s, want 0", got)
	}

	// Marking unpaid again restores it.
	if _, err := f.service.UpdateExpense(ctx, f.actor, created.ID, UpdateExpenseRequest{
		IsPaid: boolPtr(false),
	}); err != nil {
		t.Fatalf("UpdateExpense unpaid: %v", err)
	}
	if got := f.store.suppliers[supplier.ID].Balance; !got.Equal(decimal.RequireFromString("150")) {
		t.Fatalf("balance after reopening = %s, want 150", got)
	}

	// Deleting the unpaid expense reverses the remaining attribution.
	if err := f.service.DeleteExpense(ctx, f.actor, created.ID); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	if got := f.store.suppliers[supplier.ID].Balance; !got.IsZero() {
		t.Fatalf("balance after delete = %s, want 0", got)
	}
}

func TestCreatePaidBusinessExpenseDoesNotTouchBalance(t *testing.T) {
	f := newExpenseFixture()
	office := f.store.addCategory(f.actor.OrgID, "Office", false, false, false)
	supplier := f.store.addSupplier(f.actor.OrgID, "Parts Co")

	_, err := f.service.CreateExpense(context.Background(), f.actor, CreateExpenseRequest{
		CategoryID:        office.ID.String(),
		Amount:            "99.99",
		Date:              "2026-08-10",
		IsBusinessExpense: true,
		IsPaid:            true,
		SupplierID:        supplier.ID.String(),
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if got := f.store.suppliers[supplier.ID].Balance; !got.IsZero() {
		t.Errorf("balance = %s, want 0 for an already-paid expense", got)
	}
}

func TestUpdateExpenseSupplierSwitch(t *testing.T) {
	f := newExpenseFixture()
	office := f.store.addCategory(f.actor.OrgID, "Office", false, false, false)
	first := f.store.addSupplier(f.actor.OrgID, "First Co")
	second := f.store.addSupplier(f.actor.OrgID, "Second Co")
	ctx := context.Background()

	created, err := f.service.CreateExpense(ctx, f.actor, CreateExpenseRequest{
		CategoryID:        office.ID.String(),
		Amount:            "100",
		Date:              "2026-08-10",
		IsBusinessExpense: true,
		SupplierID:        first.ID.String(),
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	if _, err := f.service.UpdateExpense(ctx, f.actor, created.ID, UpdateExpenseRequest{
		SupplierID: strPtr(second.ID.String()),
	}); err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}

	if got := f.store.suppliers[first.ID].Balance; !got.IsZero() {
		t.Errorf("old supplier balance = %s, want 0", got)
	}
	if got := f.store.suppliers[second.ID].Balance; !got.Equal(decimal.RequireFromString("100")) {
		t.Errorf("new supplier balance = %s, want 100", got)
	}
}

func TestUpdateExpensePartialAssociationInput(t *testing.T) {
	f := newExpenseFixture()
	fuel := f.store.addCategory(f.actor.OrgID, "Fuel", true, false, true)
	truck := f.store.addTruck(f.actor.OrgID, "AB-123-CD")
	driver := f.store.addDriver(f.actor.OrgID, "Jan", "Novak")
	ctx := context.Background()

	created, err := f.service.CreateExpense(ctx, f.actor, CreateExpenseRequest{
		CategoryID: fuel.ID.String(),
		Amount:     "60",
		Date:       "2026-08-12",
		TruckIDs:   []string{truck.ID.String()},
		DriverIDs:  []string{driver.ID.String()},
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	// Send only driver_ids: truck rows must survive untouched.
	otherDriver := f.store.addDriver(f.actor.OrgID, "Petr", "Svoboda")
	updated, err := f.service.UpdateExpense(ctx, f.actor, created.ID, UpdateExpenseRequest{
		DriverIDs: listPtr([]string{otherDriver.ID.String()}),
	})
	if err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}

	if len(updated.Trucks) != 1 || updated.Trucks[0].ID != truck.ID.String() {
		t.Errorf("trucks after partial update = %v, want original truck kept", updated.Trucks)
	}
	if len(updated.Drivers) != 1 || updated.Drivers[0].ID != otherDriver.ID.String() {
		t.Errorf("drivers after partial update = %v, want replacement only", updated.Drivers)
	}

	// An explicit empty list clears just that type. Clearing drivers while
	// trucks remain keeps the expense valid.
	updated, err = f.service.UpdateExpense(ctx, f.actor, created.ID, UpdateExpenseRequest{
		DriverIDs: listPtr([]string{}),
	})
	if err != nil {
		t.Fatalf("UpdateExpense clear drivers: %v", err)
	}
	if len(updated.Drivers) != 0 {
		t.Errorf("drivers = %v, want none after explicit clear", updated.Drivers)
	}
	if len(updated.Trucks) != 1 {
		t.Errorf("trucks = %v, want original truck kept", updated.Trucks)
	}

	// Clearing the last remaining type must fail, leaving state untouched.
	_, err = f.service.UpdateExpense(ctx, f.actor, created.ID, UpdateExpenseRequest{
		TruckIDs: listPtr([]string{}),
	})
	if err == nil {
		t.Fatal("expected error when clearing the last association")
	}
	if code := validationCode(t, err); code != CodeMissingAssociation {
		t.Errorf("code = %s, want %s", code, CodeMissingAssociation)
	}
	if got := len(f.store.truckJoins[uuid.MustParse(created.ID)]); got != 1 {
		t.Errorf("truck joins after failed update = %d, want 1", got)
	}
}

func TestUpdateExpenseBecomesBusiness(t *testing.T) {
	f := newExpenseFixture()
	fuel := f.store.addCategory(f.actor.OrgID, "Fuel", true, false, false)
	truck := f.store.addTruck(f.actor.OrgID, "AB-123-CD")
	ctx := context.Background()

	created, err := f.service.CreateExpense(ctx, f.actor, CreateExpenseRequest{
		CategoryID: fuel.ID.String(),
		Amount:     "60",
		Date:       "2026-08-12",
		TruckIDs:   []string{truck.ID.String()},
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	// Flipping the business flag while keeping associations is invalid.
	_, err = f.service.UpdateExpense(ctx, f.actor, created.ID, UpdateExpenseRequest{
		IsBusinessExpense: boolPtr(true),
	})
	if err == nil {
		t.Fatal("expected error for business flag with existing associations")
	}
	if code := validationCode(t, err); code != CodeInvalidAssociation {
		t.Errorf("code = %s, want %s", code, CodeInvalidAssociation)
	}

	// Flipping it while explicitly clearing every type succeeds and leaves
	// no join rows behind.
	updated, err := f.service.UpdateExpense(ctx, f.actor, created.ID, UpdateExpenseRequest{
		IsBusinessExpense: boolPtr(true),
		TruckIDs:          listPtr([]string{}),
	})
	if err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}
	if !updated.IsBusinessExpense {
		t.Error("expense should be a business expense now")
	}
	if len(updated.Trucks) != 0 {
		t.Errorf("trucks = %v, want none on a business expense", updated.Trucks)
	}
}

func TestUpdateExpenseClearingBusinessFlagDropsSupplier(t *testing.T) {
	f := newExpenseFixture()
	misc := f.store.addCategory(f.actor.OrgID, "Misc", true, false, false)
	supplier := f.store.addSupplier(f.actor.OrgID, "Parts Co")
	truck := f.store.addTruck(f.actor.OrgID, "AB-123-CD")
	ctx := context.Background()

	created, err := f.service.CreateExpense(ctx, f.actor, CreateExpenseRequest{
		CategoryID:        misc.ID.String(),
		Amount:            "40",
		Date:              "2026-08-12",
		IsBusinessExpense: true,
		SupplierID:        supplier.ID.String(),
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	updated, err := f.service.UpdateExpense(ctx, f.actor, created.ID, UpdateExpenseRequest{
		IsBusinessExpense: boolPtr(false),
		TruckIDs:          listPtr([]string{truck.ID.String()}),
	})
	if err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}

	if updated.SupplierID != nil {
		t.Errorf("supplier id = %v, want nil after clearing the business flag", *updated.SupplierID)
	}
	// The attribution is reversed along with the link.
	if got := f.store.suppliers[supplier.ID].Balance; !got.IsZero() {
		t.Errorf("supplier balance = %s, want 0", got)
	}
}

func TestExpenseCrossTenantAccessReportsNotFound(t *testing.T) {
	f := newExpenseFixture()
	fuel := f.store.addCategory(f.actor.OrgID, "Fuel", true, false, false)
	truck := f.store.addTruck(f.actor.OrgID, "AB-123-CD")
	ctx := context.Background()

	created, err := f.service.CreateExpense(ctx, f.actor, CreateExpenseRequest{
		CategoryID: fuel.ID.String(),
		Amount:     "60",
		Date:       "2026-08-12",
		TruckIDs:   []string{truck.ID.String()},
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	intruder := Actor{UserID: uuid.New(), OrgID: uuid.New(), Role: model.RoleAdmin}

	if _, err := f.service.GetExpense(ctx, intruder, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetExpense cross-tenant: got %v, want ErrNotFound", err)
	}
	if _, err := f.service.UpdateExpense(ctx, intruder, created.ID, UpdateExpenseRequest{
		Notes: strPtr("hijack"),
	}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateExpense cross-tenant: got %v, want ErrNotFound", err)
	}
	if err := f.service.DeleteExpense(ctx, intruder, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteExpense cross-tenant: got %v, want ErrNotFound", err)
	}
}

func TestDeleteExpenseRemovesJoinRows(t *testing.T) {
	f := newExpenseFixture()
	fuel := f.store.addCategory(f.actor.OrgID, "Fuel", true, false, false)
	truck := f.store.addTruck(f.actor.OrgID, "AB-123-CD")
	ctx := context.Background()

	created, err := f.service.CreateExpense(ctx, f.actor, CreateExpenseRequest{
		CategoryID: fuel.ID.String(),
		Amount:     "60",
		Date:       "2026-08-12",
		TruckIDs:   []string{truck.ID.String()},
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	if err := f.service.DeleteExpense(ctx, f.actor, created.ID); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}

	expenseID := uuid.MustParse(created.ID)
	if _, ok := f.store.expenses[expenseID]; ok {
		t.Error("expense row should be gone")
	}
	if joins := f.store.truckJoins[expenseID]; len(joins) != 0 {
		t.Errorf("truck joins should be gone, got %v", joins)
	}
}

// Drives the mutation service with a seeded random walk of creates, updates
// and deletes, then recomputes each supplier's expected balance from the
// surviving expense rows. The incremental deltas applied along the way must
// land on the same totals as a recomputation from scratch.
func TestSupplierBalanceRandomWalk(t *testing.T) {
	f := newExpenseFixture()
	ctx := context.Background()
	office := f.store.addCategory(f.actor.OrgID, "Office", false, false, false)
	suppliers := []*model.Supplier{
		f.store.addSupplier(f.actor.OrgID, "Parts Co"),
		f.store.addSupplier(f.actor.OrgID, "Tyre World"),
		f.store.addSupplier(f.actor.OrgID, "Fuel Depot"),
	}

	rng := rand.New(rand.NewSource(42))
	randomAmount := func() string {
		return fmt.Sprintf("%d.%02d", rng.Intn(900)+1, rng.Intn(100))
	}

	var ids []string
	for i := 0; i < 300; i++ {
		op := rng.Intn(10)
		switch {
		case op < 4 || len(ids) == 0:
			resp, err := f.service.CreateExpense(ctx, f.actor, CreateExpenseRequest{
				CategoryID:        office.ID.String(),
				Amount:            randomAmount(),
				Date:              "2026-08-01",
				IsBusinessExpense: true,
				IsPaid:            rng.Intn(2) == 0,
				SupplierID:        suppliers[rng.Intn(len(suppliers))].ID.String(),
			})
			if err != nil {
				t.Fatalf("step %d CreateExpense: %v", i, err)
			}
			ids = append(ids, resp.ID)
		case op < 8:
			id := ids[rng.Intn(len(ids))]
			var req UpdateExpenseRequest
			switch rng.Intn(3) {
			case 0:
				req.Amount = strPtr(randomAmount())
			case 1:
				req.IsPaid = boolPtr(rng.Intn(2) == 0)
			case 2:
				req.SupplierID = strPtr(suppliers[rng.Intn(len(suppliers))].ID.String())
			}
			if _, err := f.service.UpdateExpense(ctx, f.actor, id, req); err != nil {
				t.Fatalf("step %d UpdateExpense: %v", i, err)
			}
		default:
			n := rng.Intn(len(ids))
			if err := f.service.DeleteExpense(ctx, f.actor, ids[n]); err != nil {
				t.Fatalf("step %d DeleteExpense: %v", i, err)
			}
			ids = append(ids[:n], ids[n+1:]...)
		}
	}

	for _, sup := range suppliers {
		want := decimal.Zero
		for _, e := range f.store.expenses {
			if e.SupplierID != nil && *e.SupplierID == sup.ID && e.IsBusinessExpense && !e.IsPaid {
				want = want.Add(e.Amount)
			}
		}
		if got := f.store.suppliers[sup.ID].Balance; !got.Equal(want) {
			t.Errorf("%s balance = %s, want %s", sup.Name, got, want)
		}
	}
}
