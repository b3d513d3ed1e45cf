package softset

import (
	"slices"
	"strings"
)

// CompareCandidates orders candidate identifiers naturally: digit-only
// identifiers compare by numeric value and sort before everything else,
// other identifiers compare lexically. Distinct strings never compare equal.
func CompareCandidates(a, b string) int {
	an, bn := isDigits(a), isDigits(b)
	switch {
	case an && bn:
		if c := compareNumeric(a, b); c != 0 {
			return c
		}
		return strings.Compare(a, b) // "01" vs "1"
	case an:
		return -1
	case bn:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// SortCandidates sorts ids in place by CompareCandidates.
func SortCandidates(ids []string) {
	slices.SortFunc(ids, CompareCandidates)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// compareNumeric compares two digit strings of arbitrary length by value.
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
