package gst_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gstbilling/internal/gst"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		expected gst.Component
	}{
		{"plain_cgst_tag", "CGST", gst.ComponentCentral},
		{"plain_sgst_tag", "SGST", gst.ComponentState},
		{"plain_igst_tag", "IGST", gst.ComponentIntegrated},
		{"utgst_counts_as_state", "UTGST", gst.ComponentState},
		{"account_head_cgst", "Output Tax CGST - KF", gst.ComponentCentral},
		{"account_head_sgst", "Output Tax SGST - KF", gst.ComponentState},
		{"account_head_igst", "Output Tax IGST - KF", gst.ComponentIntegrated},
		{"lowercase_label", "output tax utgst - kf", gst.ComponentState},
		{"freight_row_unrecognized", "Freight and Forwarding Charges - KF", gst.ComponentUnrecognized},
		{"empty_label", "", gst.ComponentUnrecognized},
		// "sgst" contains no "cgst"; "cgst" wins only when literally present
		{"cgst_substring_precedence", "CGST/SGST combined - misconfigured", gst.ComponentCentral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, gst.Classify(tt.label))
		})
	}
}
