package service

import (
	"context"
	"errors"
	"testing"

	"fleetops/internal/model"

	"github.com/google/uuid"
)

type supplierFixture struct {
	store   *fakeStore
	service SupplierService
	actor   Actor
}

func newSupplierFixture() *supplierFixture {
	store := newFakeStore()
	svc := NewSupplierService(
		&fakeSupplierRepo{store: store},
		&fakeExpenseRepo{store: store},
		&fakeAuditRepo{store: store},
		passthroughTx{},
	)
	return &supplierFixture{
		store:   store,
		service: svc,
		actor:   Actor{UserID: uuid.New(), OrgID: uuid.New(), Role: model.RoleAdmin},
	}
}

func TestCreateSupplier(t *testing.T) {
	f := newSupplierFixture()

	resp, err := f.service.CreateSupplier(context.Background(), f.actor, CreateSupplierRequest{
		Name:  "Parts Co",
		Email: "office@parts.example",
	})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}
	if resp.Balance != "0.00" {
		t.Errorf("new supplier balance = %s, want 0.00", resp.Balance)
	}
	if !resp.IsActive {
		t.Error("new supplier should be active")
	}
}

func TestCreateSupplierInvalidEmail(t *testing.T) {
	f := newSupplierFixture()

	if _, err := f.service.CreateSupplier(context.Background(), f.actor, CreateSupplierRequest{
		Name:  "Parts Co",
		Email: "not-an-email",
	}); err == nil {
		t.Fatal("expected error for malformed email")
	}
}

func TestUpdateSupplierPartialFields(t *testing.T) {
	f := newSupplierFixture()
	supplier := f.store.addSupplier(f.actor.OrgID, "Parts Co")

	phone := "+420123456789"
	resp, err := f.service.UpdateSupplier(context.Background(), f.actor, supplier.ID.String(), UpdateSupplierRequest{
		Phone: &phone,
	})
	if err != nil {
		t.Fatalf("UpdateSupplier: %v", err)
	}
	if resp.Phone != phone {
		t.Errorf("phone = %s, want %s", resp.Phone, phone)
	}
	if resp.Name != "Parts Co" {
		t.Errorf("name = %s, untouched fields must survive", resp.Name)
	}
}

func TestDeleteSupplierInUse(t *testing.T) {
	f := newSupplierFixture()
	supplier := f.store.addSupplier(f.actor.OrgID, "Parts Co")

	expenseID := uuid.New()
	supplierID := supplier.ID
	f.store.expenses[expenseID] = &model.Expense{
		ID:                expenseID,
		OrganizationID:    f.actor.OrgID,
		SupplierID:        &supplierID,
		IsBusinessExpense: true,
	}

	err := f.service.DeleteSupplier(context.Background(), f.actor, supplier.ID.String())
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for referenced supplier, got %v", err)
	}

	delete(f.store.expenses, expenseID)
	if err := f.service.DeleteSupplier(context.Background(), f.actor, supplier.ID.String()); err != nil {
		t.Fatalf("DeleteSupplier after removing expense: %v", err)
	}
}

func TestSupplierCrossTenant(t *testing.T) {
	f := newSupplierFixture()
	foreign := f.store.addSupplier(uuid.New(), "Parts Co")

	name := "Hijacked"
	if _, err := f.service.UpdateSupplier(context.Background(), f.actor, foreign.ID.String(), UpdateSupplierRequest{
		Name: &name,
	}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for cross-tenant update, got %v", err)
	}
}
