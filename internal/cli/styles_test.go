package cli

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "0", want: "0"},
		{in: "999", want: "999"},
		{in: "1000", want: "1,000"},
		{in: "3000000", want: "3,000,000"},
		{in: "1234567.5", want: "1,234,567.50"},
		{in: "12.345", want: "12.35"},
		{in: "-2500", want: "-2,500"},
		{in: "330000.00", want: "330,000"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestFormatMessages(t *testing.T) {
	assert.Contains(t, FormatSuccess("saved"), "saved")
	assert.Contains(t, FormatSuccess("saved"), SuccessIcon)
	assert.Contains(t, FormatError("boom"), ErrorIcon)
	assert.Contains(t, FormatWarning("careful"), "careful")
	assert.Contains(t, FormatInfo("fyi"), "fyi")
	assert.Contains(t, FormatTitle("Summary"), "Summary")
	assert.Contains(t, RenderBox("Totals", "body"), "body")
}

func TestCategoryStyle(t *testing.T) {
	assert.Equal(t, UnknownStyle.GetForeground(), CategoryStyle("#123456", true, false).GetForeground())
	assert.Equal(t, TaxableStyle.GetForeground(), CategoryStyle("", true, true).GetForeground())
	assert.Equal(t, ExemptStyle.GetForeground(), CategoryStyle("", false, true).GetForeground())
	assert.Equal(t, lipgloss.Color("#123456"), CategoryStyle("#123456", false, true).GetForeground())
	assert.True(t, CategoryStyle("#123456", true, true).GetBold())
}
