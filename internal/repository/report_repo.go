package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// GSTSummaryRow is one aggregation bucket of submitted-invoice tax data.
type GSTSummaryRow struct {
	Period             string  `gorm:"column:period"`
	InvoiceCount       int     `gorm:"column:invoice_count"`
	TaxableValue       float64 `gorm:"column:taxable_value"`
	CGSTCollected      float64 `gorm:"column:cgst_collected"`
	SGSTCollected      float64 `gorm:"column:sgst_collected"`
	IGSTCollected      float64 `gorm:"column:igst_collected"`
	TotalTax           float64 `gorm:"column:total_tax"`
	RoundingAdjustment float64 `gorm:"column:rounding_adjustment"`
}

type ReportRepository interface {
	GetGSTSummary(ctx context.Context, groupBy, startDate, endDate string) ([]GSTSummaryRow, error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

// GetGSTSummary aggregates submitted invoices per period. Component splits use
// the same substring rules as the recalculation engine's classifier, with the
// account head as fallback when the tax type tag is empty.
func (r *reportRepository) GetGSTSummary(ctx context.Context, groupBy, startDate, endDate string) ([]GSTSummaryRow, error) {
	query := `
		SELECT
			TO_CHAR(DATE_TRUNC($1, i.posting_date), 'YYYY-MM-DD') AS period,
			COUNT(i.id) AS invoice_count,
			COALESCE(SUM(i.net_total), 0) AS taxable_value,
			COALESCE(SUM(c.cgst), 0) AS cgst_collected,
			COALESCE(SUM(c.sgst), 0) AS sgst_collected,
			COALESCE(SUM(c.igst), 0) AS igst_collected,
			COALESCE(SUM(i.total_taxes_and_charges), 0) AS total_tax,
			COALESCE(SUM(i.rounding_adjustment), 0) AS rounding_adjustment
		FROM sales_invoices i
		LEFT JOIN (
			SELECT
				t.invoice_id,
				SUM(CASE WHEN LOWER(COALESCE(NULLIF(t.gst_tax_type, ''), t.account_head)) LIKE '%cgst%'
					THEN t.tax_amount ELSE 0 END) AS cgst,
				SUM(CASE WHEN LOWER(COALESCE(NULLIF(t.gst_tax_type, ''), t.account_head)) NOT LIKE '%cgst%'
					AND (LOWER(COALESCE(NULLIF(t.gst_tax_type, ''), t.account_head)) LIKE '%sgst%'
						OR LOWER(COALESCE(NULLIF(t.gst_tax_type, ''), t.account_head)) LIKE '%utgst%')
					THEN t.tax_amount ELSE 0 END) AS sgst,
				SUM(CASE WHEN LOWER(COALESCE(NULLIF(t.gst_tax_type, ''), t.account_head)) NOT LIKE '%cgst%'
					AND LOWER(COALESCE(NULLIF(t.gst_tax_type, ''), t.account_head)) NOT LIKE '%sgst%'
					AND LOWER(COALESCE(NULLIF(t.gst_tax_type, ''), t.account_head)) NOT LIKE '%utgst%'
					AND LOWER(COALESCE(NULLIF(t.gst_tax_type, ''), t.account_head)) LIKE '%igst%'
					THEN t.tax_amount ELSE 0 END) AS igst
			FROM sales_tax_charges t
			GROUP BY t.invoice_id
		) c ON c.invoice_id = i.id
		WHERE i.doc_status = 1
		  AND i.posting_date >= $2::date
		  AND i.posting_date <= $3::date
		GROUP BY DATE_TRUNC($1, i.posting_date)
		ORDER BY period
	`

	var rows []GSTSummaryRow
	if err := r.db.WithContext(ctx).Raw(query, groupBy, startDate, endDate).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query GST summary: %w", err)
	}

	return rows, nil
}
