package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"rmvc/domain/dataset"
	"rmvc/domain/softset"
)

// PurchaseGeneratorConfig configures the synthetic firm x product generator
type PurchaseGeneratorConfig struct {
	FirmCount     int     `json:"firm_count"`
	ProductCount  int     `json:"product_count"`
	Density       float64 `json:"density"`        // probability a firm bought a product
	MalformedRate float64 `json:"malformed_rate"` // probability a cell is unreadable
	MaxAmount     float64 `json:"max_amount"`
	Seed          int64   `json:"seed"`
}

// DefaultPurchaseConfig returns sensible defaults for purchase table generation
func DefaultPurchaseConfig() PurchaseGeneratorConfig {
	return PurchaseGeneratorConfig{
		FirmCount:     12,
		ProductCount:  8,
		Density:       0.35,
		MalformedRate: 0,
		MaxAmount:     50000,
		Seed:          42,
	}
}

// PurchaseGenerator produces deterministic relation tables for tests
type PurchaseGenerator struct {
	config PurchaseGeneratorConfig
	rng    *rand.Rand
}

// NewPurchaseGenerator creates a generator seeded from config
func NewPurchaseGenerator(config PurchaseGeneratorConfig) *PurchaseGenerator {
	return &PurchaseGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Table generates a table with firms as rows and products as columns.
// Malformed cells are left NaN and reported as issues.
func (g *PurchaseGenerator) Table() *dataset.Table {
	firms := make([]string, g.config.FirmCount)
	for i := range firms {
		firms[i] = fmt.Sprintf("%d", 1000+i*7)
	}
	products := make([]string, g.config.ProductCount)
	for j := range products {
		products[j] = fmt.Sprintf("P%02d", j+1)
	}

	tbl := dataset.NewTable("synthetic-purchases", firms, products)
	for i := range firms {
		for j := range products {
			if g.rng.Float64() < g.config.MalformedRate {
				tbl.Values[i][j] = math.NaN()
				tbl.Issues = append(tbl.Issues, dataset.CellIssue{Row: firms[i], Column: products[j], Raw: "n/a"})
				continue
			}
			if g.rng.Float64() < g.config.Density {
				tbl.Values[i][j] = math.Round(1 + g.rng.Float64()*g.config.MaxAmount)
			} else {
				tbl.Values[i][j] = 0
			}
		}
	}
	return tbl
}

// SoftSet generates a soft set directly, rows as candidates.
func (g *PurchaseGenerator) SoftSet() *softset.SoftSet {
	s, err := softset.Build(g.Table(), softset.BuildOptions{})
	if err != nil {
		panic(fmt.Sprintf("testkit: generated table is invalid: %v", err))
	}
	return s
}
