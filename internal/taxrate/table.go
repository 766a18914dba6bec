package taxrate

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"
)

// Table maps a category name to its tax percentage (7.5 means 7.5%).
// Lookups are case-sensitive; unknown categories are untaxed.
type Table struct {
	rates map[string]float64
}

// Load reads the rate table from a JSON object file. A missing file is
// not an error: it yields an empty table, leaving every category untaxed.
func Load(path string, logger *zap.Logger) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("Tax rate file not found, all categories untaxed",
				zap.String("path", path))
			return &Table{rates: map[string]float64{}}, nil
		}
		return nil, fmt.Errorf("failed to read tax rates: %w", err)
	}

	var rates map[string]float64
	if err := json.Unmarshal(data, &rates); err != nil {
		return nil, fmt.Errorf("failed to parse tax rates: %w", err)
	}

	logger.Info("Loaded tax rate table",
		zap.String("path", path),
		zap.Int("categories", len(rates)))

	return &Table{rates: rates}, nil
}

// New builds a table from an in-memory mapping.
func New(rates map[string]float64) *Table {
	if rates == nil {
		rates = map[string]float64{}
	}
	return &Table{rates: rates}
}

// Rate returns the percentage for a category, or 0 when the category is
// empty or not in the table.
func (t *Table) Rate(category string) float64 {
	if category == "" {
		return 0
	}
	return t.rates[category]
}

// Categories returns the category names in sorted order so prompts built
// from them are stable across runs.
func (t *Table) Categories() []string {
	names := make([]string, 0, len(t.rates))
	for name := range t.rates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of configured categories.
func (t *Table) Len() int {
	return len(t.rates)
}
