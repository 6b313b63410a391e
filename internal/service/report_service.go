package service

import (
	"context"
	"time"

	"fleetops/internal/report"
	"fleetops/internal/repository"
)

// --- DTOs ---

type BucketResponse struct {
	Key   string `json:"key"`
	Color string `json:"color,omitempty"`
	Total string `json:"total"`
	Count int    `json:"count"`
	Share string `json:"share"` // fraction of this breakdown's own total
}

type ExpenseReportResponse struct {
	From       string           `json:"from"`
	To         string           `json:"to"`
	Total      string           `json:"total"`
	ByCategory []BucketResponse `json:"by_category"`
	ByTruck    []BucketResponse `json:"by_truck"`
	ByTrip     []BucketResponse `json:"by_trip"`
	ByDriver   []BucketResponse `json:"by_driver"`
	ByMonth    []BucketResponse `json:"by_month"`
}

// --- Interface ---

type ReportService interface {
	GetExpenseReport(ctx context.Context, actor Actor, from, to time.Time) (ExpenseReportResponse, error)
}

type reportService struct {
	expenseRepo repository.ExpenseRepository
}

func NewReportService(expenseRepo repository.ExpenseRepository) ReportService {
	return &reportService{expenseRepo: expenseRepo}
}

// GetExpenseReport loads the org's expense set for the date range and derives
// every breakdown from it in one pass over the data.
func (s *reportService) GetExpenseReport(ctx context.Context, actor Actor, from, to time.Time) (ExpenseReportResponse, error) {
	filter := repository.ExpenseFilter{From: &from, To: &to}
	expenses, err := s.expenseRepo.ListAll(ctx, actor.OrgID, filter)
	if err != nil {
		return ExpenseReportResponse{}, storageErr("load expenses for report", err)
	}

	return ExpenseReportResponse{
		From:       from.Format("2006-01-02"),
		To:         to.Format("2006-01-02"),
		Total:      report.Total(expenses).StringFixed(2),
		ByCategory: toBucketResponses(report.WithShares(report.ByCategory(expenses))),
		ByTruck:    toBucketResponses(report.WithShares(report.ByTruck(expenses))),
		ByTrip:     toBucketResponses(report.WithShares(report.ByTrip(expenses))),
		ByDriver:   toBucketResponses(report.WithShares(report.ByDriver(expenses))),
		ByMonth:    toBucketResponses(report.WithShares(report.ByMonth(expenses))),
	}, nil
}

func toBucketResponses(buckets []report.Bucket) []BucketResponse {
	out := make([]BucketResponse, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, BucketResponse{
			Key:   b.Key,
			Color: b.Color,
			Total: b.Total.StringFixed(2),
			Count: b.Count,
			Share: b.Share.StringFixed(4),
		})
	}
	return out
}
