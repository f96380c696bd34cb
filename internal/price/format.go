package price

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Format renders an amount for display, e.g. 19999.5 as "$19,999.50".
func Format(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}

	integer, fraction, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, digit := range integer {
		if i > 0 && (len(integer)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}

	return sign + "$" + b.String() + "." + fraction
}
