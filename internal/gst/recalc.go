package gst

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"gstbilling/internal/model"
)

// ShouldRecalculate reports whether the Tally-style recalculation applies to
// the invoice: only drafts that are not returns are recalculated.
func ShouldRecalculate(inv *model.SalesInvoice) bool {
	return inv.DocStatus == model.DocStatusDraft && !inv.IsReturn
}

// Recalculate rewrites per-item tax amounts, tax row totals and document
// totals so the numbers match Tally Prime's rounding conventions, overriding
// whatever the standard pass produced. It reads item amounts/rates and the
// net/base totals, and it never creates or removes tax rows.
//
// Item amounts are half-up rounded to 2 decimals individually and the row
// totals sum those rounded values (sum-of-rounded, not round-of-sum — this is
// the whole point of the override and must not be "simplified" away).
//
// Callers gate on ShouldRecalculate; running it twice on unchanged input
// yields identical output.
func Recalculate(inv *model.SalesInvoice) {
	totalCGST := decimal.Zero
	totalSGST := decimal.Zero
	totalIGST := decimal.Zero

	// Breakup maps {item_code: [rate, amount]} per component. Items with a
	// zero rate for a component contribute no entry to that component's map.
	cgstDetail := make(map[string][2]float64)
	sgstDetail := make(map[string][2]float64)
	igstDetail := make(map[string][2]float64)

	for i := range inv.Items {
		item := &inv.Items[i]

		cgst := RoundHalfUp(item.Amount.Mul(item.CGSTRate).Shift(-2), 2)
		sgst := RoundHalfUp(item.Amount.Mul(item.SGSTRate).Shift(-2), 2)
		igst := RoundHalfUp(item.Amount.Mul(item.IGSTRate).Shift(-2), 2)

		item.CGSTAmount = cgst
		item.SGSTAmount = sgst
		item.IGSTAmount = igst

		if item.CGSTRate.IsPositive() {
			cgstDetail[item.ItemCode] = [2]float64{item.CGSTRate.InexactFloat64(), cgst.InexactFloat64()}
		}
		if item.SGSTRate.IsPositive() {
			sgstDetail[item.ItemCode] = [2]float64{item.SGSTRate.InexactFloat64(), sgst.InexactFloat64()}
		}
		if item.IGSTRate.IsPositive() {
			igstDetail[item.ItemCode] = [2]float64{item.IGSTRate.InexactFloat64(), igst.InexactFloat64()}
		}

		totalCGST = totalCGST.Add(cgst)
		totalSGST = totalSGST.Add(sgst)
		totalIGST = totalIGST.Add(igst)
	}

	totalTax := totalCGST.Add(totalSGST).Add(totalIGST)
	grandTotal := inv.NetTotal.Add(totalTax)
	baseGrandTotal := inv.BaseTotal.Add(totalTax)
	baseRoundedTotal := RoundHalfUpToInt(baseGrandTotal)

	componentTotal := func(c Component) decimal.Decimal {
		switch c {
		case ComponentCentral:
			return totalCGST
		case ComponentState:
			return totalSGST
		case ComponentIntegrated:
			return totalIGST
		}
		return decimal.Zero
	}

	for i := range inv.Taxes {
		tax := &inv.Taxes[i]
		switch c := Classify(rowLabel(tax)); c {
		case ComponentCentral:
			assignRow(tax, totalCGST, cgstDetail)
		case ComponentState:
			assignRow(tax, totalSGST, sgstDetail)
		case ComponentIntegrated:
			assignRow(tax, totalIGST, igstDetail)
		default:
			// Rows matching no GST component are left untouched.
		}
	}

	// Cumulative running totals exist only for the single-row (interstate) and
	// two-row (intrastate) layouts. The increment comes from each row's own
	// classification rather than its position, so a misordered CGST/SGST pair
	// still carries its own component amount. Any other row count keeps
	// whatever the standard pass left in total/base_total.
	if n := len(inv.Taxes); n == 1 || n == 2 {
		running := inv.BaseTotal
		for i := range inv.Taxes {
			tax := &inv.Taxes[i]
			running = running.Add(componentTotal(Classify(rowLabel(tax))))
			tax.Total = running
			tax.BaseTotal = running
		}
	}

	inv.TotalTaxesAndCharges = totalTax
	inv.BaseTotalTaxesAndCharges = totalTax
	inv.GrandTotal = grandTotal
	inv.BaseGrandTotal = baseGrandTotal
	inv.RoundingAdjustment = baseRoundedTotal.Sub(baseGrandTotal)
	inv.RoundedTotal = RoundHalfUpToInt(grandTotal)
	inv.BaseRoundedTotal = baseRoundedTotal
	inv.OutstandingAmount = baseRoundedTotal
}

// assignRow writes one component's total onto all four amount fields of a tax
// row and attaches the serialized item-wise breakup.
func assignRow(tax *model.SalesTaxCharge, amount decimal.Decimal, detail map[string][2]float64) {
	tax.TaxAmount = amount
	tax.BaseTaxAmount = amount
	tax.TaxAmountAfterDiscountAmount = amount
	tax.BaseTaxAmountAfterDiscountAmount = amount
	tax.ItemWiseTaxDetail = marshalDetail(detail)
}

func marshalDetail(detail map[string][2]float64) string {
	b, err := json.Marshal(detail)
	if err != nil {
		return "{}"
	}
	return string(b)
}
