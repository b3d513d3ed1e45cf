package coercer

import (
	"math"
	"strconv"
	"strings"
)

// CellKind classifies a raw relation cell.
type CellKind int

const (
	CellMissing   CellKind = iota // blank cell
	CellNumeric                   // parsed to a finite number
	CellMalformed                 // non-blank and not a number
)

func (k CellKind) String() string {
	switch k {
	case CellMissing:
		return "missing"
	case CellNumeric:
		return "numeric"
	case CellMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Cell is the coerced value of one relation cell.
type Cell struct {
	Value float64
	Kind  CellKind
}

// Present reports whether the cell records a relation (strictly positive).
func (c Cell) Present() bool {
	return c.Kind == CellNumeric && c.Value > 0
}

// CellCoercer turns raw spreadsheet text into relation values
type CellCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines the coercion rules
type CoercionConfig struct {
	AcceptMarkers   bool     `json:"accept_markers"`    // opt-in: yes/no, true/false, x as 1/0
	MalformedWarnAt float64  `json:"malformed_warn_at"` // column malformed ratio that triggers a warning
	MissingTokens   []string `json:"missing_tokens"`    // treated like a blank cell
}

// DefaultCoercionConfig returns sensible defaults
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		AcceptMarkers:   false,
		MalformedWarnAt: 0.2,
		MissingTokens:   []string{"-", "—", "nan", "null", "none"},
	}
}

// NewCellCoercer creates a coercer with the given config
func NewCellCoercer(config CoercionConfig) *CellCoercer {
	return &CellCoercer{config: config}
}

// ParseCell deterministically converts raw cell text. It never fails:
// unparseable text is reported as CellMalformed with value 0.
func (c *CellCoercer) ParseCell(raw string) Cell {
	s := strings.TrimSpace(raw)
	if s == "" || c.isMissingToken(s) {
		return Cell{Kind: CellMissing}
	}
	if v, ok := parseNumeric(s); ok {
		return Cell{Value: v, Kind: CellNumeric}
	}
	if c.config.AcceptMarkers {
		if v, ok := parseMarker(s); ok {
			return Cell{Value: v, Kind: CellNumeric}
		}
	}
	return Cell{Kind: CellMalformed}
}

func (c *CellCoercer) isMissingToken(s string) bool {
	for _, tok := range c.config.MissingTokens {
		if strings.EqualFold(s, tok) {
			return true
		}
	}
	return false
}

// ColumnAnalysis summarizes the coercion of one column.
type ColumnAnalysis struct {
	TotalCount     int     `json:"total_count"`
	MissingCount   int     `json:"missing_count"`
	NumericCount   int     `json:"numeric_count"`
	MalformedCount int     `json:"malformed_count"`
	PresentCount   int     `json:"present_count"`
	MalformedRatio float64 `json:"malformed_ratio"`
}

// Suspicious reports whether so many cells are malformed that the column is
// probably not a relation column at all.
func (a ColumnAnalysis) Suspicious(threshold float64) bool {
	filled := a.TotalCount - a.MissingCount
	return filled > 0 && a.MalformedRatio >= threshold
}

// AnalyzeColumn coerces every value and counts the outcomes.
func (c *CellCoercer) AnalyzeColumn(values []string) ColumnAnalysis {
	analysis := ColumnAnalysis{TotalCount: len(values)}
	for _, v := range values {
		cell := c.ParseCell(v)
		switch cell.Kind {
		case CellMissing:
			analysis.MissingCount++
		case CellNumeric:
			analysis.NumericCount++
			if cell.Present() {
				analysis.PresentCount++
			}
		case CellMalformed:
			analysis.MalformedCount++
		}
	}
	if filled := analysis.TotalCount - analysis.MissingCount; filled > 0 {
		analysis.MalformedRatio = float64(analysis.MalformedCount) / float64(filled)
	}
	return analysis
}

// Config returns the coercion rules in use.
func (c *CellCoercer) Config() CoercionConfig { return c.config }

// parseNumeric handles international formats: parentheses for negatives,
// European decimals, currency symbols and percentages.
func parseNumeric(s string) (float64, bool) {
	cleanVal := s

	// (123) -> -123
	isNegative := false
	if strings.HasPrefix(cleanVal, "(") && strings.HasSuffix(cleanVal, ")") {
		cleanVal = strings.TrimSuffix(strings.TrimPrefix(cleanVal, "("), ")")
		isNegative = true
	}

	for _, symbol := range []string{"$", "€", "£", "¥", "USD", "EUR", "GBP", "JPY"} {
		cleanVal = strings.ReplaceAll(cleanVal, symbol, "")
	}
	cleanVal = strings.ReplaceAll(cleanVal, "%", "")
	cleanVal = strings.TrimSpace(cleanVal)

	hasComma := strings.Contains(cleanVal, ",")
	hasPeriod := strings.Contains(cleanVal, ".")
	hasSpace := strings.Contains(cleanVal, " ")

	switch {
	case hasComma && (hasPeriod || hasSpace):
		// 1.234,56 or 1 234,56 when the last comma is followed by few digits
		afterComma := cleanVal[strings.LastIndex(cleanVal, ",")+1:]
		if len(afterComma) <= 3 && isDigits(afterComma) && strings.LastIndex(cleanVal, ",") > strings.LastIndex(cleanVal, ".") {
			cleanVal = strings.ReplaceAll(cleanVal, ".", "")
			cleanVal = strings.ReplaceAll(cleanVal, " ", "")
			cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
		} else {
			cleanVal = strings.ReplaceAll(cleanVal, ",", "")
			cleanVal = strings.ReplaceAll(cleanVal, " ", "")
		}
	case hasComma:
		// 12,5 is a decimal; 1,250 and 1,250,000 are thousands
		if isThousandsGrouped(cleanVal) {
			cleanVal = strings.ReplaceAll(cleanVal, ",", "")
		} else {
			cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
		}
	default:
		cleanVal = strings.ReplaceAll(cleanVal, " ", "")
	}

	if isNegative {
		cleanVal = "-" + cleanVal
	}

	val, err := strconv.ParseFloat(cleanVal, 64)
	if err != nil || math.IsInf(val, 0) || math.IsNaN(val) {
		return 0, false
	}
	return val, true
}

func parseMarker(s string) (float64, bool) {
	switch strings.ToLower(s) {
	case "true", "yes", "y", "x", "on", "✓":
		return 1, true
	case "false", "no", "n", "off":
		return 0, true
	}
	return 0, false
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

// isThousandsGrouped matches 1,234 and 12,345,678 but not 12,5.
func isThousandsGrouped(s string) bool {
	s = strings.TrimPrefix(s, "-")
	groups := strings.Split(s, ",")
	if len(groups) < 2 || len(groups[0]) == 0 || len(groups[0]) > 3 || !isDigits(groups[0]) {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 || !isDigits(g) {
			return false
		}
	}
	return true
}
