package currency

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// DefaultSuffix is appended by FormatAmount when no suffix is given
const DefaultSuffix = "F CFA"

// ParseAmount converts a formatted total such as "18 450 F CFA" into whole currency units.
// Every non-digit character is dropped, so separators, currency labels and signs are ignored.
// Empty, digit-free or overflowing input yields 0.
func ParseAmount(formatted string) int64 {
	var digits strings.Builder
	for _, r := range formatted {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}

	value, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0
	}
	return value
}

// FormatAmount renders an amount the way receipts print it, e.g. 18450 -> "18 450 F CFA"
func FormatAmount(amount int64, suffix string) string {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return humanize.FormatInteger("# ###.", int(amount)) + " " + suffix
}
