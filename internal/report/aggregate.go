// Package report derives grouped summaries from a filtered expense set.
// All functions are pure: inputs are never mutated and output order is
// deterministic for a given input, including tie-breaks.
package report

import (
	"fmt"
	"sort"

	"fleetops/internal/model"

	"github.com/shopspring/decimal"
)

// Bucket is one group in a breakdown
type Bucket struct {
	Key   string          // category name, registration, route, driver name, or month
	Color string          // set for category buckets only
	Total decimal.Decimal // sum of amounts attributed to this key
	Count int             // number of contributing expenses
	Share decimal.Decimal // fraction of this breakdown's own total, set by WithShares
}

// collector accumulates buckets preserving first-encounter order so ties
// sort stably.
type collector struct {
	index   map[string]int
	buckets []Bucket
}

func newCollector() *collector {
	return &collector{index: make(map[string]int)}
}

func (c *collector) add(key, color string, amount decimal.Decimal) {
	i, ok := c.index[key]
	if !ok {
		c.index[key] = len(c.buckets)
		c.buckets = append(c.buckets, Bucket{Key: key, Color: color, Total: decimal.Zero})
		i = len(c.buckets) - 1
	}
	c.buckets[i].Total = c.buckets[i].Total.Add(amount)
	c.buckets[i].Count++
}

// sortedByTotalDesc orders buckets by descending total; ties keep the
// first-encountered order.
func (c *collector) sortedByTotalDesc() []Bucket {
	out := c.buckets
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.GreaterThan(out[j].Total)
	})
	if out == nil {
		out = []Bucket{}
	}
	return out
}

// ByCategory groups expenses by category name, descending by total
func ByCategory(expenses []model.Expense) []Bucket {
	c := newCollector()
	for _, e := range expenses {
		c.add(e.Category.Name, e.Category.Color, e.Amount)
	}
	return c.sortedByTotalDesc()
}

// ByTruck groups expenses by truck registration. An expense linked to N
// trucks contributes its full amount to each of the N buckets — amounts are
// not split across associations.
func ByTruck(expenses []model.Expense) []Bucket {
	c := newCollector()
	for _, e := range expenses {
		for _, t := range e.Trucks {
			c.add(t.Registration, "", e.Amount)
		}
	}
	return c.sortedByTotalDesc()
}

// ByTrip groups expenses by trip route label, full-amount fan-out as ByTruck
func ByTrip(expenses []model.Expense) []Bucket {
	c := newCollector()
	for _, e := range expenses {
		for _, t := range e.Trips {
			c.add(t.Route(), "", e.Amount)
		}
	}
	return c.sortedByTotalDesc()
}

// ByDriver groups expenses by driver full name, full-amount fan-out as ByTruck
func ByDriver(expenses []model.Expense) []Bucket {
	c := newCollector()
	for _, e := range expenses {
		for _, d := range e.Drivers {
			c.add(d.FullName(), "", e.Amount)
		}
	}
	return c.sortedByTotalDesc()
}

// ByMonth groups expenses by calendar month of the expense date, sorted
// chronologically ascending — the only breakdown not ordered by amount.
func ByMonth(expenses []model.Expense) []Bucket {
	c := newCollector()
	for _, e := range expenses {
		key := fmt.Sprintf("%04d-%02d", e.Date.Year(), int(e.Date.Month()))
		c.add(key, "", e.Amount)
	}
	out := c.buckets
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Key < out[j].Key
	})
	if out == nil {
		out = []Bucket{}
	}
	return out
}

// Total sums the amounts of the expense set
func Total(expenses []model.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// WithShares fills each bucket's Share as its fraction of the breakdown's
// own total — a truck's share is of the truck breakdown total, not of the
// grand total. Buckets are returned unchanged when the total is zero.
func WithShares(buckets []Bucket) []Bucket {
	total := decimal.Zero
	for _, b := range buckets {
		total = total.Add(b.Total)
	}
	if total.IsZero() {
		return buckets
	}
	out := make([]Bucket, len(buckets))
	for i, b := range buckets {
		b.Share = b.Total.Div(total)
		out[i] = b
	}
	return out
}
