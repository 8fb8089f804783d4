package service

import (
	"context"
	"fmt"

	"gstbilling/internal/repository"
)

// --- DTOs ---

type GSTSummaryPoint struct {
	Period             string `json:"period"`
	InvoiceCount       int    `json:"invoice_count"`
	TaxableValue       string `json:"taxable_value"`
	CGSTCollected      string `json:"cgst_collected"`
	SGSTCollected      string `json:"sgst_collected"`
	IGSTCollected      string `json:"igst_collected"`
	TotalTax           string `json:"total_tax"`
	RoundingAdjustment string `json:"rounding_adjustment"`
}

type GSTSummaryFilter struct {
	GroupBy   string // week, month, quarter, year
	StartDate string // YYYY-MM-DD
	EndDate   string // YYYY-MM-DD
}

// --- Interface ---

type ReportService interface {
	GetGSTSummary(ctx context.Context, filter GSTSummaryFilter) ([]GSTSummaryPoint, error)
}

type reportService struct {
	reportRepo repository.ReportRepository
}

func NewReportService(reportRepo repository.ReportRepository) ReportService {
	return &reportService{reportRepo: reportRepo}
}

// --- Implementation ---

func (s *reportService) GetGSTSummary(ctx context.Context, filter GSTSummaryFilter) ([]GSTSummaryPoint, error) {
	// Validate group_by
	groupBy := filter.GroupBy
	switch groupBy {
	case "week", "month", "quarter", "year":
		// valid
	default:
		groupBy = "month" // default
	}

	if filter.StartDate == "" || filter.EndDate == "" {
		return nil, fmt.Errorf("start_date and end_date are required")
	}

	rows, err := s.reportRepo.GetGSTSummary(ctx, groupBy, filter.StartDate, filter.EndDate)
	if err != nil {
		return nil, err
	}

	result := make([]GSTSummaryPoint, 0, len(rows))
	for _, r := range rows {
		result = append(result, GSTSummaryPoint{
			Period:             r.Period,
			InvoiceCount:       r.InvoiceCount,
			TaxableValue:       fmt.Sprintf("%.2f", r.TaxableValue),
			CGSTCollected:      fmt.Sprintf("%.2f", r.CGSTCollected),
			SGSTCollected:      fmt.Sprintf("%.2f", r.SGSTCollected),
			IGSTCollected:      fmt.Sprintf("%.2f", r.IGSTCollected),
			TotalTax:           fmt.Sprintf("%.2f", r.TotalTax),
			RoundingAdjustment: fmt.Sprintf("%.2f", r.RoundingAdjustment),
		})
	}

	return result, nil
}
