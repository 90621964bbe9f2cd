package importer

import (
	"fmt"
	"strconv"
	"strings"
)

// parseAmount accepts both European ("1.234,56") and plain ("1234.56",
// "1,234.56") formats. Signs and surrounding currency symbols are common
// in exports, so everything but digits, separators and the sign is
// stripped first.
func parseAmount(s string) (float64, error) {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-', r == '+':
			return r
		default:
			return -1
		}
	}, s)

	if clean == "" {
		return 0, fmt.Errorf("missing amount")
	}

	lastComma := strings.LastIndex(clean, ",")
	lastDot := strings.LastIndex(clean, ".")

	if lastComma > lastDot {
		// European: dots group thousands, the comma is decimal.
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	} else {
		clean = strings.ReplaceAll(clean, ",", "")
	}

	amount, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	return amount, nil
}
