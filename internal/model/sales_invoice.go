package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocStatus enum constants — lifecycle of an accounting document
const (
	DocStatusDraft     = 0
	DocStatusSubmitted = 1
	DocStatusCancelled = 2
)

// GSTTaxType enum constants used on tax charge rows
const (
	GSTTaxTypeCGST  = "CGST"
	GSTTaxTypeSGST  = "SGST"
	GSTTaxTypeIGST  = "IGST"
	GSTTaxTypeUTGST = "UTGST"
)

// SalesInvoice is the invoice document. Net/base totals are produced by the
// standard tax pass; the Tally-style recalculation then rewrites tax amounts
// and document totals while the document is a draft and not a return.
type SalesInvoice struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceNo     string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"invoice_no"`
	CustomerID    uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer      *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	PostingDate   time.Time `gorm:"type:date;not null" json:"posting_date"`
	PlaceOfSupply string    `gorm:"type:varchar(5);not null" json:"place_of_supply"` // Buyer state code, e.g. "27"

	DocStatus     int        `gorm:"not null;default:0;index" json:"docstatus"` // 0 draft, 1 submitted, 2 cancelled
	IsReturn      bool       `gorm:"default:false" json:"is_return"`
	ReturnAgainst *uuid.UUID `gorm:"type:uuid;index" json:"return_against"` // Original invoice for credit notes

	Items []SalesInvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
	Taxes []SalesTaxCharge   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"taxes"`

	NetTotal                 decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"net_total"`
	BaseTotal                decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"base_total"`
	TotalTaxesAndCharges     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_taxes_and_charges"`
	BaseTotalTaxesAndCharges decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"base_total_taxes_and_charges"`
	GrandTotal               decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"grand_total"`
	BaseGrandTotal           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"base_grand_total"`
	RoundingAdjustment       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"rounding_adjustment"`
	RoundedTotal             decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"rounded_total"`
	BaseRoundedTotal         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"base_rounded_total"`
	OutstandingAmount        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"outstanding_amount"`

	Remarks   string    `gorm:"type:text" json:"remarks"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SalesInvoiceItem is one billed line. The per-type GST amounts are written by
// the recalculation engine (half-up rounded to 2 decimals, per item).
type SalesInvoiceItem struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceID   uuid.UUID `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Idx         int       `gorm:"not null" json:"idx"`
	ItemCode    string    `gorm:"type:varchar(100);not null" json:"item_code"`
	Description string    `gorm:"type:text" json:"description"`
	HSNCode     string    `gorm:"type:varchar(10)" json:"hsn_code"`

	Qty    decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"qty"`
	Rate   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"rate"`             // Unit price
	Amount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"amount"` // qty * rate

	CGSTRate decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"cgst_rate"` // Percentage, e.g. 9
	SGSTRate decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"sgst_rate"`
	IGSTRate decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"igst_rate"`

	CGSTAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"cgst_amount"`
	SGSTAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"sgst_amount"`
	IGSTAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"igst_amount"`
}

// SalesTaxCharge is one tax component row on an invoice. Exactly one row exists
// per applicable component (CGST+SGST intrastate, IGST interstate); the
// recalculation engine rewrites fields on existing rows and never adds rows.
type SalesTaxCharge struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceID   uuid.UUID `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Idx         int       `gorm:"not null" json:"idx"` // Row order: CGST before SGST by construction
	GSTTaxType  string    `gorm:"type:varchar(10)" json:"gst_tax_type"`
	AccountHead string    `gorm:"type:varchar(255);not null" json:"account_head"`

	Rate decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"rate"` // Percentage applied on net total

	TaxAmount                          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"tax_amount"`
	BaseTaxAmount                      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"base_tax_amount"`
	TaxAmountAfterDiscountAmount       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"tax_amount_after_discount_amount"`
	BaseTaxAmountAfterDiscountAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"base_tax_amount_after_discount_amount"`

	// Serialized mapping {item_code: [rate, amount]} used for tax breakup display
	ItemWiseTaxDetail string `gorm:"type:jsonb" json:"item_wise_tax_detail"`

	Total     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total"` // Cumulative running total
	BaseTotal decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"base_total"`
}
