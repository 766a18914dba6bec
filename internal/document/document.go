package document

import (
	"path/filepath"
	"time"

	"github.com/garyjia/invoice-processor/internal/taxrate"
)

// LineItem is one priced entry on an invoice. TotalPrice is authoritative
// for totals computation; it is not reconciled against Quantity*UnitPrice.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
	Category    string  `json:"category,omitempty"`
}

// Document is the in-memory aggregate for one processed invoice PDF.
// An empty InvoiceID means the extractor could not determine one.
type Document struct {
	FilePath string
	Text     string

	InvoiceID          string
	Filename           string
	LineItems          []LineItem
	SpecialNotes       []string
	ProcessingDateTime time.Time
	AIPromptTokens     int
	AICompletionTokens int

	// Derived by ProcessTotals; never set directly.
	PreTaxTotal  float64
	TaxTotal     float64
	PostTaxTotal float64
}

// New creates an empty document for a file path. The filename defaults to
// the path's base name and can be overridden by the caller before storage.
func New(filePath string) *Document {
	return &Document{
		FilePath:     filePath,
		Filename:     filepath.Base(filePath),
		LineItems:    []LineItem{},
		SpecialNotes: []string{},
	}
}

// ProcessTotals recomputes the three totals from the current line items
// and the rate table. Rates are percentages and divided by 100 before
// use; a line item whose category misses the table is untaxed. The
// method is idempotent and safe to re-run after any line-item change.
func (d *Document) ProcessTotals(rates *taxrate.Table) {
	d.PreTaxTotal = 0
	d.TaxTotal = 0
	d.PostTaxTotal = 0

	for _, item := range d.LineItems {
		rate := rates.Rate(item.Category) / 100

		d.PreTaxTotal += item.TotalPrice
		d.TaxTotal += item.TotalPrice * rate
		d.PostTaxTotal += item.TotalPrice + item.TotalPrice*rate
	}
}
