// Package pricing derives the acceptable offer interval from a listing's
// free-form price range string such as "$100-$200".
package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMalformedPriceRange is returned when a price range does not decompose
// into exactly two numbers.
var ErrMalformedPriceRange = errors.New("malformed price range")

// Range is a closed interval of acceptable offer amounts.
type Range struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// Contains reports whether amount lies in [Min, Max].
func (r Range) Contains(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(r.Min) && amount.LessThanOrEqual(r.Max)
}

func (r Range) String() string {
	return r.Min.String() + "-" + r.Max.String()
}

var currencyCleaner = strings.NewReplacer(
	"$", "", "€", "", "£", "", "৳", "", "₹", "",
	",", "", " ", "", "\t", "",
	"–", "-", "—", "-",
)

// ParseRange parses "<num>-<num>" with optional currency symbols, thousands
// separators and whitespace. Reversed bounds are normalized.
func ParseRange(raw string) (Range, error) {
	cleaned := currencyCleaner.Replace(strings.TrimSpace(raw))
	parts := strings.Split(cleaned, "-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Range{}, fmt.Errorf("%w: %q", ErrMalformedPriceRange, raw)
	}

	lo, err := decimal.NewFromString(parts[0])
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q", ErrMalformedPriceRange, raw)
	}
	hi, err := decimal.NewFromString(parts[1])
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q", ErrMalformedPriceRange, raw)
	}

	if lo.GreaterThan(hi) {
		lo, hi = hi, lo
	}
	return Range{Min: lo, Max: hi}, nil
}
