package gst

import (
	"github.com/shopspring/decimal"

	"gstbilling/internal/model"
)

// ComputeTaxesAndTotals is the conventional pass that runs on every validation
// cycle before the Tally-style recalculation: item amounts from qty and unit
// rate, net/base totals, each tax row charged as rate-on-net-total with
// rounding applied after summation, running row totals and conventionally
// rounded document totals. Returns keep these numbers; drafts get them
// overridden by Recalculate.
func ComputeTaxesAndTotals(inv *model.SalesInvoice) {
	net := decimal.Zero
	for i := range inv.Items {
		item := &inv.Items[i]
		item.Amount = item.Qty.Mul(item.Rate).Round(2)
		net = net.Add(item.Amount)
	}

	// Single-currency books: base totals mirror transaction totals at parity.
	inv.NetTotal = net
	inv.BaseTotal = net

	totalTax := decimal.Zero
	running := net
	for i := range inv.Taxes {
		tax := &inv.Taxes[i]
		amount := net.Mul(tax.Rate).Shift(-2).Round(2)
		tax.TaxAmount = amount
		tax.BaseTaxAmount = amount
		tax.TaxAmountAfterDiscountAmount = amount
		tax.BaseTaxAmountAfterDiscountAmount = amount
		running = running.Add(amount)
		tax.Total = running
		tax.BaseTotal = running
		totalTax = totalTax.Add(amount)
	}

	inv.TotalTaxesAndCharges = totalTax
	inv.BaseTotalTaxesAndCharges = totalTax
	inv.GrandTotal = net.Add(totalTax)
	inv.BaseGrandTotal = inv.GrandTotal
	inv.RoundedTotal = inv.GrandTotal.Round(0)
	inv.BaseRoundedTotal = inv.RoundedTotal
	inv.RoundingAdjustment = inv.RoundedTotal.Sub(inv.GrandTotal)
	inv.OutstandingAmount = inv.RoundedTotal
}
