package gst

import (
	"strings"

	"gstbilling/internal/model"
)

// Component identifies which GST component a tax charge row carries.
type Component int

const (
	ComponentUnrecognized Component = iota
	ComponentCentral                // CGST
	ComponentState                  // SGST / UTGST
	ComponentIntegrated             // IGST
)

func (c Component) String() string {
	switch c {
	case ComponentCentral:
		return "CGST"
	case ComponentState:
		return "SGST"
	case ComponentIntegrated:
		return "IGST"
	default:
		return "UNRECOGNIZED"
	}
}

// Classify maps a tax row label to its GST component by case-insensitive
// substring, first match wins: "cgst" central, "sgst"/"utgst" state, "igst"
// integrated. Real account heads contain exactly one of these; a label with
// several can only come from a misconfigured chart of accounts.
func Classify(label string) Component {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "cgst"):
		return ComponentCentral
	case strings.Contains(l, "sgst"), strings.Contains(l, "utgst"):
		return ComponentState
	case strings.Contains(l, "igst"):
		return ComponentIntegrated
	default:
		return ComponentUnrecognized
	}
}

// rowLabel picks the classification label for a tax row: the explicit GST tax
// type tag when present, otherwise the account head.
func rowLabel(tax *model.SalesTaxCharge) string {
	if tax.GSTTaxType != "" {
		return tax.GSTTaxType
	}
	return tax.AccountHead
}
