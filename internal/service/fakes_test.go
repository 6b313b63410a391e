package service

import (
	"context"
	"time"

	"fleetops/internal/model"
	"fleetops/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// fakeStore is a shared in-memory backing for the fake repositories so a
// test exercises the same data the service would see in one database.
type fakeStore struct {
	categories map[uuid.UUID]*model.ExpenseCategory
	suppliers  map[uuid.UUID]*model.Supplier
	expenses   map[uuid.UUID]*model.Expense
	trucks     map[uuid.UUID]*model.Truck
	trips      map[uuid.UUID]*model.Trip
	drivers    map[uuid.UUID]*model.Driver

	truckJoins  map[uuid.UUID][]uuid.UUID // expense id -> truck ids
	tripJoins   map[uuid.UUID][]uuid.UUID
	driverJoins map[uuid.UUID][]uuid.UUID

	auditLogs []model.AuditLog
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		categories:  map[uuid.UUID]*model.ExpenseCategory{},
		suppliers:   map[uuid.UUID]*model.Supplier{},
		expenses:    map[uuid.UUID]*model.Expense{},
		trucks:      map[uuid.UUID]*model.Truck{},
		trips:       map[uuid.UUID]*model.Trip{},
		drivers:     map[uuid.UUID]*model.Driver{},
		truckJoins:  map[uuid.UUID][]uuid.UUID{},
		tripJoins:   map[uuid.UUID][]uuid.UUID{},
		driverJoins: map[uuid.UUID][]uuid.UUID{},
	}
}

func (s *fakeStore) addCategory(orgID uuid.UUID, name string, isTruck, isTrip, isDriver bool) *model.ExpenseCategory {
	c := &model.ExpenseCategory{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           name,
		IsTruck:        isTruck,
		IsTrip:         isTrip,
		IsDriver:       isDriver,
	}
	s.categories[c.ID] = c
	return c
}

func (s *fakeStore) addSupplier(orgID uuid.UUID, name string) *model.Supplier {
	sup := &model.Supplier{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           name,
		Balance:        decimal.Zero,
		IsActive:       true,
	}
	s.suppliers[sup.ID] = sup
	return sup
}

func (s *fakeStore) addTruck(orgID uuid.UUID, registration string) *model.Truck {
	t := &model.Truck{ID: uuid.New(), OrganizationID: orgID, Registration: registration, IsActive: true}
	s.trucks[t.ID] = t
	return t
}

func (s *fakeStore) addDriver(orgID uuid.UUID, first, last string) *model.Driver {
	d := &model.Driver{ID: uuid.New(), OrganizationID: orgID, FirstName: first, LastName: last, IsActive: true}
	s.drivers[d.ID] = d
	return d
}

// --- Expense repository ---

type fakeExpenseRepo struct {
	store *fakeStore
}

func (r *fakeExpenseRepo) Create(_ context.Context, expense *model.Expense) error {
	if expense.ID == uuid.Nil {
		expense.ID = uuid.New()
	}
	expense.CreatedAt = time.Now()
	clone := *expense
	r.store.expenses[expense.ID] = &clone
	return nil
}

func (r *fakeExpenseRepo) FindByID(_ context.Context, orgID, id uuid.UUID) (*model.Expense, error) {
	stored, ok := r.store.expenses[id]
	if !ok || stored.OrganizationID != orgID {
		return nil, gorm.ErrRecordNotFound
	}

	expense := *stored
	if cat, ok := r.store.categories[expense.CategoryID]; ok {
		expense.Category = *cat
	}
	if expense.SupplierID != nil {
		if sup, ok := r.store.suppliers[*expense.SupplierID]; ok {
			clone := *sup
			expense.Supplier = &clone
		}
	}

	expense.Trucks = nil
	for _, truckID := range r.store.truckJoins[id] {
		if t, ok := r.store.trucks[truckID]; ok {
			expense.Trucks = append(expense.Trucks, *t)
		}
	}
	expense.Trips = nil
	for _, tripID := range r.store.tripJoins[id] {
		if t, ok := r.store.trips[tripID]; ok {
			expense.Trips = append(expense.Trips, *t)
		}
	}
	expense.Drivers = nil
	for _, driverID := range r.store.driverJoins[id] {
		if d, ok := r.store.drivers[driverID]; ok {
			expense.Drivers = append(expense.Drivers, *d)
		}
	}

	return &expense, nil
}

func (r *fakeExpenseRepo) Update(_ context.Context, expense *model.Expense) error {
	if _, ok := r.store.expenses[expense.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *expense
	clone.Trucks, clone.Trips, clone.Drivers = nil, nil, nil
	r.store.expenses[expense.ID] = &clone
	return nil
}

func (r *fakeExpenseRepo) Delete(_ context.Context, expense *model.Expense) error {
	delete(r.store.expenses, expense.ID)
	delete(r.store.truckJoins, expense.ID)
	delete(r.store.tripJoins, expense.ID)
	delete(r.store.driverJoins, expense.ID)
	return nil
}

func (r *fakeExpenseRepo) List(ctx context.Context, orgID uuid.UUID, _ repository.ExpenseFilter, _, _ int) ([]model.Expense, int64, error) {
	expenses, err := r.ListAll(ctx, orgID, repository.ExpenseFilter{})
	if err != nil {
		return nil, 0, err
	}
	return expenses, int64(len(expenses)), nil
}

func (r *fakeExpenseRepo) ListAll(ctx context.Context, orgID uuid.UUID, _ repository.ExpenseFilter) ([]model.Expense, error) {
	var out []model.Expense
	for id, e := range r.store.expenses {
		if e.OrganizationID != orgID {
			continue
		}
		loaded, err := r.FindByID(ctx, orgID, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *loaded)
	}
	return out, nil
}

func (r *fakeExpenseRepo) ReplaceTrucks(_ context.Context, expenseID uuid.UUID, truckIDs []uuid.UUID) error {
	delete(r.store.truckJoins, expenseID)
	if len(truckIDs) > 0 {
		r.store.truckJoins[expenseID] = append([]uuid.UUID(nil), truckIDs...)
	}
	return nil
}

func (r *fakeExpenseRepo) ReplaceTrips(_ context.Context, expenseID uuid.UUID, tripIDs []uuid.UUID) error {
	delete(r.store.tripJoins, expenseID)
	if len(tripIDs) > 0 {
		r.store.tripJoins[expenseID] = append([]uuid.UUID(nil), tripIDs...)
	}
	return nil
}

func (r *fakeExpenseRepo) ReplaceDrivers(_ context.Context, expenseID uuid.UUID, driverIDs []uuid.UUID) error {
	delete(r.store.driverJoins, expenseID)
	if len(driverIDs) > 0 {
		r.store.driverJoins[expenseID] = append([]uuid.UUID(nil), driverIDs...)
	}
	return nil
}

func (r *fakeExpenseRepo) ClearAssociations(_ context.Context, expenseID uuid.UUID) error {
	delete(r.store.truckJoins, expenseID)
	delete(r.store.tripJoins, expenseID)
	delete(r.store.driverJoins, expenseID)
	return nil
}

func (r *fakeExpenseRepo) CountByCategory(_ context.Context, orgID, categoryID uuid.UUID) (int64, error) {
	var count int64
	for _, e := range r.store.expenses {
		if e.OrganizationID == orgID && e.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

func (r *fakeExpenseRepo) CountBySupplier(_ context.Context, orgID, supplierID uuid.UUID) (int64, error) {
	var count int64
	for _, e := range r.store.expenses {
		if e.OrganizationID == orgID && e.SupplierID != nil && *e.SupplierID == supplierID {
			count++
		}
	}
	return count, nil
}

func (r *fakeExpenseRepo) CountByTruck(_ context.Context, truckID uuid.UUID) (int64, error) {
	return countJoins(r.store.truckJoins, truckID), nil
}

func (r *fakeExpenseRepo) CountByTrip(_ context.Context, tripID uuid.UUID) (int64, error) {
	return countJoins(r.store.tripJoins, tripID), nil
}

func (r *fakeExpenseRepo) CountByDriver(_ context.Context, driverID uuid.UUID) (int64, error) {
	return countJoins(r.store.driverJoins, driverID), nil
}

func countJoins(joins map[uuid.UUID][]uuid.UUID, target uuid.UUID) int64 {
	var count int64
	for _, ids := range joins {
		for _, id := range ids {
			if id == target {
				count++
			}
		}
	}
	return count
}

// --- Category repository ---

type fakeCategoryRepo struct {
	store *fakeStore
}

func (r *fakeCategoryRepo) Create(_ context.Context, category *model.ExpenseCategory) error {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	clone := *category
	r.store.categories[category.ID] = &clone
	return nil
}

func (r *fakeCategoryRepo) FindByID(_ context.Context, orgID, id uuid.UUID) (*model.ExpenseCategory, error) {
	c, ok := r.store.categories[id]
	if !ok || c.OrganizationID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *fakeCategoryRepo) FindByName(_ context.Context, orgID uuid.UUID, name string) (*model.ExpenseCategory, error) {
	for _, c := range r.store.categories {
		if c.OrganizationID == orgID && c.Name == name {
			clone := *c
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCategoryRepo) List(_ context.Context, orgID uuid.UUID) ([]model.ExpenseCategory, error) {
	var out []model.ExpenseCategory
	for _, c := range r.store.categories {
		if c.OrganizationID == orgID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCategoryRepo) Update(_ context.Context, category *model.ExpenseCategory) error {
	if _, ok := r.store.categories[category.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *category
	r.store.categories[category.ID] = &clone
	return nil
}

func (r *fakeCategoryRepo) Delete(_ context.Context, category *model.ExpenseCategory) error {
	delete(r.store.categories, category.ID)
	return nil
}

// --- Supplier repository ---

type fakeSupplierRepo struct {
	store *fakeStore
}

func (r *fakeSupplierRepo) Create(_ context.Context, supplier *model.Supplier) error {
	if supplier.ID == uuid.Nil {
		supplier.ID = uuid.New()
	}
	clone := *supplier
	r.store.suppliers[supplier.ID] = &clone
	return nil
}

func (r *fakeSupplierRepo) FindByID(_ context.Context, orgID, id uuid.UUID) (*model.Supplier, error) {
	s, ok := r.store.suppliers[id]
	if !ok || s.OrganizationID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *fakeSupplierRepo) List(_ context.Context, orgID uuid.UUID, _, _ int) ([]model.Supplier, int64, error) {
	var out []model.Supplier
	for _, s := range r.store.suppliers {
		if s.OrganizationID == orgID {
			out = append(out, *s)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeSupplierRepo) Update(_ context.Context, supplier *model.Supplier) error {
	if _, ok := r.store.suppliers[supplier.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *supplier
	r.store.suppliers[supplier.ID] = &clone
	return nil
}

func (r *fakeSupplierRepo) Delete(_ context.Context, supplier *model.Supplier) error {
	delete(r.store.suppliers, supplier.ID)
	return nil
}

func (r *fakeSupplierRepo) AdjustBalance(_ context.Context, orgID, id uuid.UUID, delta decimal.Decimal) error {
	s, ok := r.store.suppliers[id]
	if !ok || s.OrganizationID != orgID {
		return gorm.ErrRecordNotFound
	}
	s.Balance = s.Balance.Add(delta)
	return nil
}

// --- Audit repository ---

type fakeAuditRepo struct {
	store *fakeStore
}

func (r *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	r.store.auditLogs = append(r.store.auditLogs, *entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, orgID uuid.UUID, _, _ int) ([]model.AuditLog, int64, error) {
	var out []model.AuditLog
	for _, entry := range r.store.auditLogs {
		if entry.OrganizationID == orgID {
			out = append(out, entry)
		}
	}
	return out, int64(len(out)), nil
}

// --- Fleet repository ---

type fakeFleetRepo struct {
	store *fakeStore
}

func (r *fakeFleetRepo) CreateTruck(_ context.Context, truck *model.Truck) error {
	if truck.ID == uuid.Nil {
		truck.ID = uuid.New()
	}
	clone := *truck
	r.store.trucks[truck.ID] = &clone
	return nil
}

func (r *fakeFleetRepo) FindTruckByID(_ context.Context, orgID, id uuid.UUID) (*model.Truck, error) {
	t, ok := r.store.trucks[id]
	if !ok || t.OrganizationID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *fakeFleetRepo) FindTruckByRegistration(_ context.Context, orgID uuid.UUID, registration string) (*model.Truck, error) {
	for _, t := range r.store.trucks {
		if t.OrganizationID == orgID && t.Registration == registration {
			clone := *t
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeFleetRepo) ListTrucks(_ context.Context, orgID uuid.UUID, _, _ int) ([]model.Truck, int64, error) {
	var out []model.Truck
	for _, t := range r.store.trucks {
		if t.OrganizationID == orgID {
			out = append(out, *t)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeFleetRepo) UpdateTruck(_ context.Context, truck *model.Truck) error {
	if _, ok := r.store.trucks[truck.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *truck
	r.store.trucks[truck.ID] = &clone
	return nil
}

func (r *fakeFleetRepo) DeleteTruck(_ context.Context, truck *model.Truck) error {
	delete(r.store.trucks, truck.ID)
	return nil
}

func (r *fakeFleetRepo) CreateDriver(_ context.Context, driver *model.Driver) error {
	if driver.ID == uuid.Nil {
		driver.ID = uuid.New()
	}
	clone := *driver
	r.store.drivers[driver.ID] = &clone
	return nil
}

func (r *fakeFleetRepo) FindDriverByID(_ context.Context, orgID, id uuid.UUID) (*model.Driver, error) {
	d, ok := r.store.drivers[id]
	if !ok || d.OrganizationID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *d
	return &clone, nil
}

func (r *fakeFleetRepo) ListDrivers(_ context.Context, orgID uuid.UUID, _, _ int) ([]model.Driver, int64, error) {
	var out []model.Driver
	for _, d := range r.store.drivers {
		if d.OrganizationID == orgID {
			out = append(out, *d)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeFleetRepo) UpdateDriver(_ context.Context, driver *model.Driver) error {
	if _, ok := r.store.drivers[driver.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *driver
	r.store.drivers[driver.ID] = &clone
	return nil
}

func (r *fakeFleetRepo) DeleteDriver(_ context.Context, driver *model.Driver) error {
	delete(r.store.drivers, driver.ID)
	return nil
}

func (r *fakeFleetRepo) CreateTrip(_ context.Context, trip *model.Trip) error {
	if trip.ID == uuid.Nil {
		trip.ID = uuid.New()
	}
	clone := *trip
	r.store.trips[trip.ID] = &clone
	return nil
}

func (r *fakeFleetRepo) FindTripByID(_ context.Context, orgID, id uuid.UUID) (*model.Trip, error) {
	t, ok := r.store.trips[id]
	if !ok || t.OrganizationID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *fakeFleetRepo) ListTrips(_ context.Context, orgID uuid.UUID, _, _ int) ([]model.Trip, int64, error) {
	var out []model.Trip
	for _, t := range r.store.trips {
		if t.OrganizationID == orgID {
			out = append(out, *t)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeFleetRepo) UpdateTrip(_ context.Context, trip *model.Trip) error {
	if _, ok := r.store.trips[trip.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *trip
	r.store.trips[trip.ID] = &clone
	return nil
}

func (r *fakeFleetRepo) DeleteTrip(_ context.Context, trip *model.Trip) error {
	delete(r.store.trips, trip.ID)
	return nil
}

// --- Transaction manager ---

// passthroughTx runs the function against the same store with no
// transactional isolation; rollback behavior is not under test here.
type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}
