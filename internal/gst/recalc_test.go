package gst_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gstbilling/internal/gst"
	"gstbilling/internal/model"
)

// intrastateInvoice builds a draft with one item (amount 1000, 9% + 9%) and
// the CGST-then-SGST row pair the standard pass produces for in-state buyers.
func intrastateInvoice() *model.SalesInvoice {
	return &model.SalesInvoice{
		DocStatus: model.DocStatusDraft,
		NetTotal:  dec("1000"),
		BaseTotal: dec("1000"),
		Items: []model.SalesInvoiceItem{
			{
				ItemCode: "WIDGET-01",
				Amount:   dec("1000"),
				CGSTRate: dec("9"),
				SGSTRate: dec("9"),
			},
		},
		Taxes: []model.SalesTaxCharge{
			{Idx: 1, GSTTaxType: model.GSTTaxTypeCGST, AccountHead: "Output Tax CGST - KF"},
			{Idx: 2, GSTTaxType: model.GSTTaxTypeSGST, AccountHead: "Output Tax SGST - KF"},
		},
	}
}

// interstateInvoice builds a draft with one item (amount 1000, 18% IGST) and a
// single IGST row.
func interstateInvoice() *model.SalesInvoice {
	return &model.SalesInvoice{
		DocStatus: model.DocStatusDraft,
		NetTotal:  dec("1000"),
		BaseTotal: dec("1000"),
		Items: []model.SalesInvoiceItem{
			{
				ItemCode: "WIDGET-01",
				Amount:   dec("1000"),
				IGSTRate: dec("18"),
			},
		},
		Taxes: []model.SalesTaxCharge{
			{Idx: 1, GSTTaxType: model.GSTTaxTypeIGST, AccountHead: "Output Tax IGST - KF"},
		},
	}
}

func assertDec(t *testing.T, expected string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, got.Equal(dec(expected)), "got %s, want %s %v", got, expected, msgAndArgs)
}

func TestRecalculate_ItemAmounts(t *testing.T) {
	t.Run("whole_percentages", func(t *testing.T) {
		inv := intrastateInvoice()
		gst.Recalculate(inv)

		assertDec(t, "90", inv.Items[0].CGSTAmount)
		assertDec(t, "90", inv.Items[0].SGSTAmount)
		assertDec(t, "0", inv.Items[0].IGSTAmount)
	})

	t.Run("half_up_at_item_level", func(t *testing.T) {
		// 100.05 * 2.5 / 100 = 2.50125 -> 2.50
		inv := intrastateInvoice()
		inv.Items[0].Amount = dec("100.05")
		inv.Items[0].CGSTRate = dec("2.5")
		inv.Items[0].SGSTRate = dec("2.5")
		inv.NetTotal = dec("100.05")
		inv.BaseTotal = dec("100.05")
		gst.Recalculate(inv)

		assertDec(t, "2.50", inv.Items[0].CGSTAmount)
		assertDec(t, "2.50", inv.Items[0].SGSTAmount)
	})
}

func TestRecalculate_SumOfRoundedNotRoundOfSum(t *testing.T) {
	// Two items of 10.05 at 9%: each 0.9045 -> 0.90, summed 1.80.
	// Rounding the summed base instead (20.10 * 9% = 1.809) would give 1.81.
	inv := intrastateInvoice()
	inv.Items = []model.SalesInvoiceItem{
		{ItemCode: "A", Amount: dec("10.05"), CGSTRate: dec("9"), SGSTRate: dec("9")},
		{ItemCode: "B", Amount: dec("10.05"), CGSTRate: dec("9"), SGSTRate: dec("9")},
	}
	inv.NetTotal = dec("20.10")
	inv.BaseTotal = dec("20.10")
	gst.Recalculate(inv)

	assertDec(t, "1.80", inv.Taxes[0].TaxAmount)
	assertDec(t, "1.80", inv.Taxes[1].TaxAmount)
	assertDec(t, "3.60", inv.TotalTaxesAndCharges)
}

func TestRecalculate_TwoRowCumulativeTotals(t *testing.T) {
	// base_total=1000, cgst=45, sgst=45 -> row1 1045, row2 1090
	inv := intrastateInvoice()
	inv.Items[0].CGSTRate = dec("4.5")
	inv.Items[0].SGSTRate = dec("4.5")
	gst.Recalculate(inv)

	assertDec(t, "45", inv.Taxes[0].TaxAmount)
	assertDec(t, "1045", inv.Taxes[0].Total)
	assertDec(t, "1045", inv.Taxes[0].BaseTotal)
	assertDec(t, "45", inv.Taxes[1].TaxAmount)
	assertDec(t, "1090", inv.Taxes[1].Total)
	assertDec(t, "1090", inv.Taxes[1].BaseTotal)
}

func TestRecalculate_TwoRowsMisordered(t *testing.T) {
	// SGST supplied before CGST: each row still carries its own component
	// amount, cumulated in supplied order.
	inv := intrastateInvoice()
	inv.Items[0].CGSTRate = dec("4.5")
	inv.Items[0].SGSTRate = dec("4.5")
	inv.Taxes[0], inv.Taxes[1] = inv.Taxes[1], inv.Taxes[0]
	gst.Recalculate(inv)

	require.Equal(t, model.GSTTaxTypeSGST, inv.Taxes[0].GSTTaxType)
	assertDec(t, "1045", inv.Taxes[0].Total)
	assertDec(t, "1090", inv.Taxes[1].Total)
}

func TestRecalculate_SingleRowTotal(t *testing.T) {
	// base_total=1000, igst=90 -> row total 1090
	inv := interstateInvoice()
	inv.Items[0].IGSTRate = dec("9")
	gst.Recalculate(inv)

	assertDec(t, "90", inv.Taxes[0].TaxAmount)
	assertDec(t, "1090", inv.Taxes[0].Total)
	assertDec(t, "1090", inv.Taxes[0].BaseTotal)
}

func TestRecalculate_RowFieldAssignment(t *testing.T) {
	inv := interstateInvoice()
	gst.Recalculate(inv)

	row := inv.Taxes[0]
	assertDec(t, "180", row.TaxAmount)
	assertDec(t, "180", row.BaseTaxAmount)
	assertDec(t, "180", row.TaxAmountAfterDiscountAmount)
	assertDec(t, "180", row.BaseTaxAmountAfterDiscountAmount)

	var detail map[string][2]float64
	require.NoError(t, json.Unmarshal([]byte(row.ItemWiseTaxDetail), &detail))
	require.Contains(t, detail, "WIDGET-01")
	assert.Equal(t, [2]float64{18, 180}, detail["WIDGET-01"])
}

func TestRecalculate_BreakupOmitsZeroRateItems(t *testing.T) {
	inv := intrastateInvoice()
	inv.Items = append(inv.Items, model.SalesInvoiceItem{
		ItemCode: "EXEMPT-01",
		Amount:   dec("500"),
		// all rates zero
	})
	gst.Recalculate(inv)

	// The exempt item's amounts are computed and stored as zero...
	assertDec(t, "0", inv.Items[1].CGSTAmount)
	assertDec(t, "0", inv.Items[1].SGSTAmount)

	// ...but it contributes no breakup entry.
	var detail map[string][2]float64
	require.NoError(t, json.Unmarshal([]byte(inv.Taxes[0].ItemWiseTaxDetail), &detail))
	assert.Contains(t, detail, "WIDGET-01")
	assert.NotContains(t, detail, "EXEMPT-01")
}

func TestRecalculate_UnrecognizedRowUntouched(t *testing.T) {
	inv := intrastateInvoice()
	inv.Taxes = append(inv.Taxes, model.SalesTaxCharge{
		Idx:         3,
		AccountHead: "Freight and Forwarding Charges - KF",
		TaxAmount:   dec("75"),
		Total:       dec("2000"),
	})
	gst.Recalculate(inv)

	// Three rows: no cumulative assignment at all; the freight row keeps its
	// standard-pass values and the GST rows keep their standard-pass totals.
	freight := inv.Taxes[2]
	assertDec(t, "75", freight.TaxAmount)
	assertDec(t, "2000", freight.Total)
	assert.Empty(t, freight.ItemWiseTaxDetail)

	// Per-row amount assignment still happened for the recognized rows.
	assertDec(t, "90", inv.Taxes[0].TaxAmount)
	assertDec(t, "90", inv.Taxes[1].TaxAmount)
}

func TestRecalculate_DocumentTotals(t *testing.T) {
	// net=100.05, cgst=2.50, sgst=2.50 -> grand 105.05, rounded 105, adj -0.05
	inv := intrastateInvoice()
	inv.Items[0].Amount = dec("100.05")
	inv.Items[0].CGSTRate = dec("2.5")
	inv.Items[0].SGSTRate = dec("2.5")
	inv.NetTotal = dec("100.05")
	inv.BaseTotal = dec("100.05")
	gst.Recalculate(inv)

	assertDec(t, "5.00", inv.TotalTaxesAndCharges)
	assertDec(t, "5.00", inv.BaseTotalTaxesAndCharges)
	assertDec(t, "105.05", inv.GrandTotal)
	assertDec(t, "105.05", inv.BaseGrandTotal)
	assertDec(t, "105", inv.RoundedTotal)
	assertDec(t, "105", inv.BaseRoundedTotal)
	assertDec(t, "-0.05", inv.RoundingAdjustment)
	assertDec(t, "105", inv.OutstandingAmount)
}

func TestRecalculate_RoundingAdjustmentBounds(t *testing.T) {
	cases := []struct {
		amount string // single item amount, 18% IGST
	}{
		{"1000"}, {"999.99"}, {"123.45"}, {"0.01"}, {"55555.55"},
	}
	for _, tc := range cases {
		t.Run(tc.amount, func(t *testing.T) {
			inv := interstateInvoice()
			inv.Items[0].Amount = dec(tc.amount)
			inv.NetTotal = dec(tc.amount)
			inv.BaseTotal = dec(tc.amount)
			gst.Recalculate(inv)

			assert.True(t, inv.RoundingAdjustment.Abs().LessThan(dec("1")),
				"|adjustment| %s must be < 1", inv.RoundingAdjustment)
			assert.True(t, inv.BaseRoundedTotal.Equal(inv.BaseRoundedTotal.Truncate(0)),
				"base_rounded_total %s must be integral", inv.BaseRoundedTotal)
		})
	}
}

func TestRecalculate_SumInvariant(t *testing.T) {
	inv := intrastateInvoice()
	inv.Items = append(inv.Items,
		model.SalesInvoiceItem{ItemCode: "B", Amount: dec("333.33"), CGSTRate: dec("6"), SGSTRate: dec("6")},
		model.SalesInvoiceItem{ItemCode: "C", Amount: dec("17.99"), CGSTRate: dec("14"), SGSTRate: dec("14")},
	)
	gst.Recalculate(inv)

	var sumCGST, sumSGST decimal.Decimal
	for _, item := range inv.Items {
		sumCGST = sumCGST.Add(item.CGSTAmount)
		sumSGST = sumSGST.Add(item.SGSTAmount)
	}
	assert.True(t, inv.TotalTaxesAndCharges.Equal(sumCGST.Add(sumSGST)))
	assert.True(t, inv.Taxes[0].TaxAmount.Equal(sumCGST))
	assert.True(t, inv.Taxes[1].TaxAmount.Equal(sumSGST))
}

func TestRecalculate_Idempotent(t *testing.T) {
	first := intrastateInvoice()
	first.Items[0].Amount = dec("100.05")
	first.Items[0].CGSTRate = dec("2.5")
	first.Items[0].SGSTRate = dec("2.5")
	first.NetTotal = dec("100.05")
	first.BaseTotal = dec("100.05")

	gst.Recalculate(first)
	snapshot, err := json.Marshal(first)
	require.NoError(t, err)

	gst.Recalculate(first)
	again, err := json.Marshal(first)
	require.NoError(t, err)

	assert.JSONEq(t, string(snapshot), string(again))
}

func TestShouldRecalculate(t *testing.T) {
	inv := intrastateInvoice()
	assert.True(t, gst.ShouldRecalculate(inv))

	inv.DocStatus = model.DocStatusSubmitted
	assert.False(t, gst.ShouldRecalculate(inv))

	inv.DocStatus = model.DocStatusDraft
	inv.IsReturn = true
	assert.False(t, gst.ShouldRecalculate(inv))
}
