package gst_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"gstbilling/internal/gst"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		places   int32
		expected string
	}{
		{"midpoint_rounds_up", "10.125", 2, "10.13"},
		{"below_midpoint_rounds_down", "10.124", 2, "10.12"},
		{"above_midpoint_rounds_up", "10.126", 2, "10.13"},
		{"exact_two_decimals_unchanged", "90.00", 2, "90"},
		{"typical_tax_fraction", "2.50125", 2, "2.5"},
		{"zero", "0", 2, "0"},
		{"integer_midpoint", "10.5", 0, "11"},
		{"large_currency_magnitude", "1000000000.005", 2, "1000000000.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gst.RoundHalfUp(dec(tt.input), tt.places)
			assert.True(t, got.Equal(dec(tt.expected)), "RoundHalfUp(%s, %d) = %s, want %s", tt.input, tt.places, got, tt.expected)
		})
	}
}

func TestRoundHalfUpToInt(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"midpoint_rounds_up", "10.5", "11"},
		{"below_midpoint_truncates", "10.4", "10"},
		{"above_midpoint_rounds_up", "10.6", "11"},
		{"whole_number_unchanged", "10", "10"},
		{"just_under_midpoint", "10.4999", "10"},
		{"just_over_midpoint", "10.5001", "11"},
		{"large_currency_magnitude", "999999999.50", "1000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gst.RoundHalfUpToInt(dec(tt.input))
			assert.True(t, got.Equal(dec(tt.expected)), "RoundHalfUpToInt(%s) = %s, want %s", tt.input, got, tt.expected)
		})
	}
}

// Values exactly at the .5 boundary must round deterministically; the decimal
// representation cannot drift the way 10.125 does in binary floating point.
func TestRoundHalfUp_BoundaryStability(t *testing.T) {
	for i := 0; i < 1000; i++ {
		got := gst.RoundHalfUp(dec("10.125"), 2)
		assert.True(t, got.Equal(dec("10.13")))
	}
}
