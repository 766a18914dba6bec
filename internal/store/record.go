package store

import (
	"time"

	"github.com/garyjia/invoice-processor/internal/document"
)

// Record is the persisted form of a processed document. Field names
// match the on-disk store format; an empty InvoiceID means the record
// has no business identifier and never deduplicates.
type Record struct {
	InvoiceID          string              `json:"invoiceID"`
	Filename           string              `json:"Filename"`
	AIPromptTokens     int                 `json:"AIPromptTokens"`
	AICompletionTokens int                 `json:"AICompletionTokens"`
	ProcessingDateTime string              `json:"ProcessingDateTime"`
	PreTaxTotal        float64             `json:"PreTaxTotal"`
	TaxTotal           float64             `json:"TaxTotal"`
	PostTaxTotal       float64             `json:"PostTaxTotal"`
	LineItems          []document.LineItem `json:"LineItems"`
	SpecialNotes       []string            `json:"SpecialNotes"`
	SavedAt            string              `json:"_saved_at,omitempty"`
}

// NewRecord serializes a document into its storage form. Totals are
// copied as-is: the caller is responsible for having run ProcessTotals
// after the last line-item change.
func NewRecord(doc *document.Document) Record {
	processedAt := ""
	if !doc.ProcessingDateTime.IsZero() {
		processedAt = doc.ProcessingDateTime.Format(time.RFC3339)
	}

	lineItems := doc.LineItems
	if lineItems == nil {
		lineItems = []document.LineItem{}
	}
	notes := doc.SpecialNotes
	if notes == nil {
		notes = []string{}
	}

	return Record{
		InvoiceID:          doc.InvoiceID,
		Filename:           doc.Filename,
		AIPromptTokens:     doc.AIPromptTokens,
		AICompletionTokens: doc.AICompletionTokens,
		ProcessingDateTime: processedAt,
		PreTaxTotal:        doc.PreTaxTotal,
		TaxTotal:           doc.TaxTotal,
		PostTaxTotal:       doc.PostTaxTotal,
		LineItems:          lineItems,
		SpecialNotes:       notes,
	}
}

// HasCategory reports whether any line item carries the given category.
func (r Record) HasCategory(category string) bool {
	for _, item := range r.LineItems {
		if item.Category == category {
			return true
		}
	}
	return false
}
