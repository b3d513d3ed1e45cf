package rmvc

import (
	"fmt"
	"math/big"
)

// Approx converts an exact value to float64 for display.
func Approx(r *big.Rat) float64 {
	if r == nil {
		return 0
	}
	f, _ := r.Float64()
	return f
}

// FormatRat renders r with a fixed number of decimals.
func FormatRat(r *big.Rat, precision int) string {
	if r == nil {
		return ""
	}
	if precision < 0 {
		precision = 0
	}
	return r.FloatString(precision)
}

// FormatExact renders r as "n/d", or "n" for integers.
func FormatExact(r *big.Rat) string {
	if r == nil {
		return ""
	}
	return r.RatString()
}

// ParseRat parses "5/9", "0.25" or "1".
func ParseRat(s string) (*big.Rat, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("not a rational number: %q", s)
	}
	return r, nil
}
