package report

import (
	"testing"
	"time"

	"fleetops/internal/model"

	"github.com/shopspring/decimal"
)

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func expense(categoryName, amt, day string) model.Expense {
	return model.Expense{
		Category: model.ExpenseCategory{Name: categoryName},
		Amount:   amount(amt),
		Date:     date(day),
	}
}

func TestByCategory(t *testing.T) {
	expenses := []model.Expense{
		expense("Fuel", "100", "2026-01-10"),
		expense("Tolls", "250", "2026-01-11"),
		expense("Fuel", "50", "2026-01-12"),
	}

	buckets := ByCategory(expenses)

	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	if buckets[0].Key != "Tolls" || !buckets[0].Total.Equal(amount("250")) {
		t.Errorf("first bucket = %s/%s, want Tolls/250", buckets[0].Key, buckets[0].Total)
	}
	if buckets[1].Key != "Fuel" || !buckets[1].Total.Equal(amount("150")) {
		t.Errorf("second bucket = %s/%s, want Fuel/150", buckets[1].Key, buckets[1].Total)
	}
	if buckets[1].Count != 2 {
		t.Errorf("Fuel count = %d, want 2", buckets[1].Count)
	}
}

func TestByCategoryTiesKeepInputOrder(t *testing.T) {
	expenses := []model.Expense{
		expense("Alpha", "100", "2026-01-10"),
		expense("Beta", "100", "2026-01-11"),
		expense("Gamma", "100", "2026-01-12"),
	}

	for i := 0; i < 10; i++ {
		buckets := ByCategory(expenses)
		if buckets[0].Key != "Alpha" || buckets[1].Key != "Beta" || buckets[2].Key != "Gamma" {
			t.Fatalf("run %d: tie order changed: %s, %s, %s", i, buckets[0].Key, buckets[1].Key, buckets[2].Key)
		}
	}
}

func TestByTruckFansOutFullAmount(t *testing.T) {
	truckA := model.Truck{Registration: "AAA-111"}
	truckB := model.Truck{Registration: "BBB-222"}

	shared := expense("Fuel", "100", "2026-01-10")
	shared.Trucks = []model.Truck{truckA, truckB}

	single := expense("Fuel", "30", "2026-01-11")
	single.Trucks = []model.Truck{truckA}

	business := expense("Office", "999", "2026-01-12") // no associations

	buckets := ByTruck([]model.Expense{shared, single, business})

	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	// The shared expense contributes its full 100 to each truck.
	if buckets[0].Key != "AAA-111" || !buckets[0].Total.Equal(amount("130")) {
		t.Errorf("first bucket = %s/%s, want AAA-111/130", buckets[0].Key, buckets[0].Total)
	}
	if buckets[1].Key != "BBB-222" || !buckets[1].Total.Equal(amount("100")) {
		t.Errorf("second bucket = %s/%s, want BBB-222/100", buckets[1].Key, buckets[1].Total)
	}
}

func TestByDriverUsesFullName(t *testing.T) {
	driver := model.Driver{FirstName: "Jan", LastName: "Novak"}
	e := expense("Salary", "1200", "2026-01-31")
	e.Drivers = []model.Driver{driver}

	buckets := ByDriver([]model.Expense{e})
	if len(buckets) != 1 || buckets[0].Key != "Jan Novak" {
		t.Fatalf("buckets = %v, want one keyed by full name", buckets)
	}
}

func TestByMonthSortsAscending(t *testing.T) {
	expenses := []model.Expense{
		expense("Fuel", "10", "2026-03-05"),
		expense("Fuel", "20", "2026-01-15"),
		expense("Fuel", "30", "2025-12-31"),
		expense("Fuel", "40", "2026-01-01"),
	}

	buckets := ByMonth(expenses)

	want := []string{"2025-12", "2026-01", "2026-03"}
	if len(buckets) != len(want) {
		t.Fatalf("expected %d buckets, got %d", len(want), len(buckets))
	}
	for i, key := range want {
		if buckets[i].Key != key {
			t.Errorf("bucket %d key = %s, want %s", i, buckets[i].Key, key)
		}
	}
	if !buckets[1].Total.Equal(amount("60")) {
		t.Errorf("2026-01 total = %s, want 60", buckets[1].Total)
	}
}

func TestCategoryTotalsConserveGrandTotal(t *testing.T) {
	expenses := []model.Expense{
		expense("Fuel", "100.25", "2026-01-10"),
		expense("Tolls", "50.50", "2026-01-11"),
		expense("Fuel", "25.25", "2026-02-01"),
		expense("Repairs", "310.99", "2026-02-14"),
	}

	grand := Total(expenses)

	var byCategory, byMonth decimal.Decimal
	for _, b := range ByCategory(expenses) {
		byCategory = byCategory.Add(b.Total)
	}
	for _, b := range ByMonth(expenses) {
		byMonth = byMonth.Add(b.Total)
	}

	if !byCategory.Equal(grand) {
		t.Errorf("category totals sum to %s, grand total is %s", byCategory, grand)
	}
	if !byMonth.Equal(grand) {
		t.Errorf("month totals sum to %s, grand total is %s", byMonth, grand)
	}
}

func TestWithShares(t *testing.T) {
	buckets := WithShares([]Bucket{
		{Key: "A", Total: amount("75")},
		{Key: "B", Total: amount("25")},
	})

	if !buckets[0].Share.Equal(amount("0.75")) {
		t.Errorf("share A = %s, want 0.75", buckets[0].Share)
	}
	if !buckets[1].Share.Equal(amount("0.25")) {
		t.Errorf("share B = %s, want 0.25", buckets[1].Share)
	}

	sum := buckets[0].Share.Add(buckets[1].Share)
	if !sum.Equal(amount("1")) {
		t.Errorf("shares sum to %s, want 1", sum)
	}
}

func TestWithSharesZeroTotal(t *testing.T) {
	in := []Bucket{{Key: "A", Total: decimal.Zero}}
	out := WithShares(in)
	if !out[0].Share.IsZero() {
		t.Errorf("share = %s, want 0 when the total is 0", out[0].Share)
	}
}

func TestEmptyInputYieldsEmptyBreakdowns(t *testing.T) {
	if buckets := ByCategory(nil); len(buckets) != 0 {
		t.Errorf("ByCategory(nil) = %v, want empty", buckets)
	}
	if buckets := ByMonth(nil); len(buckets) != 0 {
		t.Errorf("ByMonth(nil) = %v, want empty", buckets)
	}
	if total := Total(nil); !total.IsZero() {
		t.Errorf("Total(nil) = %s, want 0", total)
	}
}
