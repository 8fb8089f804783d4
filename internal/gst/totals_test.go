package gst_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gstbilling/internal/gst"
	"gstbilling/internal/model"
)

func TestComputeTaxesAndTotals(t *testing.T) {
	inv := &model.SalesInvoice{
		DocStatus: model.DocStatusDraft,
		Items: []model.SalesInvoiceItem{
			{ItemCode: "A", Qty: dec("2"), Rate: dec("5.025"), CGSTRate: dec("9"), SGSTRate: dec("9")},
			{ItemCode: "B", Qty: dec("1"), Rate: dec("10.05"), CGSTRate: dec("9"), SGSTRate: dec("9")},
		},
		Taxes: []model.SalesTaxCharge{
			{Idx: 1, GSTTaxType: model.GSTTaxTypeCGST, AccountHead: "Output Tax CGST - KF", Rate: dec("9")},
			{Idx: 2, GSTTaxType: model.GSTTaxTypeSGST, AccountHead: "Output Tax SGST - KF", Rate: dec("9")},
		},
	}

	gst.ComputeTaxesAndTotals(inv)

	assertDec(t, "10.05", inv.Items[0].Amount) // 2 * 5.025
	assertDec(t, "10.05", inv.Items[1].Amount)
	assertDec(t, "20.10", inv.NetTotal)
	assertDec(t, "20.10", inv.BaseTotal)

	// Round-of-sum: 20.10 * 9% = 1.809 -> 1.81 per row.
	assertDec(t, "1.81", inv.Taxes[0].TaxAmount)
	assertDec(t, "21.91", inv.Taxes[0].Total)
	assertDec(t, "1.81", inv.Taxes[1].TaxAmount)
	assertDec(t, "23.72", inv.Taxes[1].Total)
	assertDec(t, "3.62", inv.TotalTaxesAndCharges)
	assertDec(t, "23.72", inv.GrandTotal)
}

// The recalculation pass must override the conventional numbers: the same
// invoice yields 1.80 per row once item-level rounding is summed instead.
func TestRecalculateOverridesStandardPass(t *testing.T) {
	inv := &model.SalesInvoice{
		DocStatus: model.DocStatusDraft,
		Items: []model.SalesInvoiceItem{
			{ItemCode: "A", Qty: dec("1"), Rate: dec("10.05"), CGSTRate: dec("9"), SGSTRate: dec("9")},
			{ItemCode: "B", Qty: dec("1"), Rate: dec("10.05"), CGSTRate: dec("9"), SGSTRate: dec("9")},
		},
		Taxes: []model.SalesTaxCharge{
			{Idx: 1, GSTTaxType: model.GSTTaxTypeCGST, AccountHead: "Output Tax CGST - KF", Rate: dec("9")},
			{Idx: 2, GSTTaxType: model.GSTTaxTypeSGST, AccountHead: "Output Tax SGST - KF", Rate: dec("9")},
		},
	}

	gst.ComputeTaxesAndTotals(inv)
	assertDec(t, "1.81", inv.Taxes[0].TaxAmount)

	gst.Recalculate(inv)
	assertDec(t, "1.80", inv.Taxes[0].TaxAmount)
	assertDec(t, "1.80", inv.Taxes[1].TaxAmount)
	assertDec(t, "3.60", inv.TotalTaxesAndCharges)
	assertDec(t, "23.70", inv.GrandTotal)
	assertDec(t, "24", inv.RoundedTotal) // 0.70 >= 0.5 rounds up
}

func TestComputeTaxesAndTotals_Return(t *testing.T) {
	inv := &model.SalesInvoice{
		DocStatus: model.DocStatusDraft,
		IsReturn:  true,
		Items: []model.SalesInvoiceItem{
			{ItemCode: "A", Qty: dec("-1"), Rate: dec("1000"), CGSTRate: dec("9"), SGSTRate: dec("9")},
		},
		Taxes: []model.SalesTaxCharge{
			{Idx: 1, GSTTaxType: model.GSTTaxTypeCGST, AccountHead: "Output Tax CGST - KF", Rate: dec("9")},
			{Idx: 2, GSTTaxType: model.GSTTaxTypeSGST, AccountHead: "Output Tax SGST - KF", Rate: dec("9")},
		},
	}

	gst.ComputeTaxesAndTotals(inv)

	assertDec(t, "-1000", inv.NetTotal)
	assertDec(t, "-90", inv.Taxes[0].TaxAmount)
	assertDec(t, "-1180", inv.GrandTotal)
	assert.False(t, gst.ShouldRecalculate(inv))
}
