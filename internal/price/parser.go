// Package price turns listing price text into exact decimal amounts.
package price

import (
	"fmt"
	"strings"

	apperrors "github.com/pricewatch/hardgamers-watcher/pkg/errors"

	"github.com/shopspring/decimal"
)

const component = "price"

// currencyMarks are stripped before any separator handling.
var currencyMarks = []string{"$", "ARS", "USD"}

// Parse converts a locale-formatted price such as "$19.999,50" into 19999.50.
//
// Separator policy:
//   - both ',' and '.': the text after the last ',' is the decimal part and every
//     '.' before it is a thousands separator
//   - only '.': a final group of at most two digits is decimal, otherwise every
//     '.' is a thousands separator
//   - anything else is handed to the decimal parser unchanged, so "999,50" fails
func Parse(raw string) (decimal.Decimal, error) {
	cleaned := strip(raw)
	if cleaned == "" {
		return decimal.Zero, apperrors.NewParsing(component, fmt.Sprintf("no amount in %q", raw), apperrors.ErrEmptyPrice)
	}

	normalized := normalizeSeparators(cleaned)

	amount, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, apperrors.NewParsing(component, fmt.Sprintf("cannot parse %q", raw), fmt.Errorf("%w: %v", apperrors.ErrInvalidNumeric, err))
	}
	if amount.IsNegative() {
		return decimal.Zero, apperrors.NewParsing(component, fmt.Sprintf("negative amount in %q", raw), apperrors.ErrInvalidNumeric)
	}

	return amount, nil
}

func strip(raw string) string {
	cleaned := raw
	for _, mark := range currencyMarks {
		cleaned = strings.ReplaceAll(cleaned, mark, "")
	}
	return strings.TrimSpace(cleaned)
}

func normalizeSeparators(s string) string {
	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")

	switch {
	case hasComma && hasDot:
		cut := strings.LastIndex(s, ",")
		integer := strings.ReplaceAll(s[:cut], ".", "")
		return integer + "." + s[cut+1:]
	case hasDot:
		last := s[strings.LastIndex(s, ".")+1:]
		if len(last) <= 2 {
			return s
		}
		return strings.ReplaceAll(s, ".", "")
	default:
		return s
	}
}
