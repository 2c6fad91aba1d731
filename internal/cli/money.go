package cli

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount renders an amount with thousands separators. Whole amounts print
// without a fraction; others print with two decimals.
func FormatAmount(d decimal.Decimal) string {
	text := d.StringFixed(2)
	if d.Equal(d.Truncate(0)) {
		text = d.StringFixed(0)
	}

	sign := ""
	if strings.HasPrefix(text, "-") {
		sign, text = "-", text[1:]
	}

	whole, frac, hasFrac := strings.Cut(text, ".")
	var b strings.Builder
	b.WriteString(sign)
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
