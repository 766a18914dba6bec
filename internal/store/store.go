package store

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// fileFormat is the top-level shape of the store file.
type fileFormat struct {
	Documents []Record `json:"documents"`
}

// Store is a JSON-file-backed collection of invoice records. Every
// mutation rewrites the whole file; there is no locking, so concurrent
// writers race. That is acceptable for a single-operator tool.
type Store struct {
	path      string
	documents []Record
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a store for the given file and loads its current content.
// The parent directory is created if needed.
func New(path string, logger *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	s := &Store{path: path, logger: logger, now: time.Now}
	s.Load()
	return s, nil
}

// Load re-reads the store file. A missing file starts an empty
// collection; so does a corrupt one, deliberately: a damaged store must
// not block new processing.
func (s *Store) Load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Failed to read store file, starting empty",
				zap.String("path", s.path),
				zap.Error(err))
		}
		s.documents = []Record{}
		return
	}

	var content fileFormat
	if err := json.Unmarshal(data, &content); err != nil {
		s.logger.Warn("Store file is corrupt, starting empty",
			zap.String("path", s.path),
			zap.Error(err))
		s.documents = []Record{}
		return
	}

	s.documents = content.Documents
	if s.documents == nil {
		s.documents = []Record{}
	}
}

// save rewrites the full collection. I/O errors propagate to the caller.
func (s *Store) save() error {
	data, err := json.MarshalIndent(fileFormat{Documents: s.documents}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	return nil
}

// Upsert stamps the record and persists it. A record with a non-empty
// invoice ID replaces an existing record with the same ID in place,
// keeping its sequence position; records without an ID always append.
func (s *Store) Upsert(rec Record) error {
	rec.SavedAt = s.now().Format(time.RFC3339)

	replaced := false
	if rec.InvoiceID != "" {
		for i, existing := range s.documents {
			if existing.InvoiceID == rec.InvoiceID {
				s.documents[i] = rec
				replaced = true
				break
			}
		}
	}
	if !replaced {
		s.documents = append(s.documents, rec)
	}

	if err := s.save(); err != nil {
		return err
	}

	s.logger.Info("Record saved",
		zap.String("invoice_id", rec.InvoiceID),
		zap.String("filename", rec.Filename),
		zap.Bool("replaced", replaced),
		zap.Int("total", len(s.documents)))
	return nil
}

// Get returns the record with the given invoice ID, or false.
func (s *Store) Get(invoiceID string) (Record, bool) {
	if invoiceID == "" {
		return Record{}, false
	}
	for _, rec := range s.documents {
		if rec.InvoiceID == invoiceID {
			return rec, true
		}
	}
	return Record{}, false
}

// GetByFilename returns the first record with the given filename, or false.
func (s *Store) GetByFilename(filename string) (Record, bool) {
	if filename == "" {
		return Record{}, false
	}
	for _, rec := range s.documents {
		if rec.Filename == filename {
			return rec, true
		}
	}
	return Record{}, false
}

// IsProcessed reports whether a record matching either the filename or
// the invoice ID already exists. Empty arguments are skipped, so the two
// checks stay independently usable.
func (s *Store) IsProcessed(filename, invoiceID string) bool {
	if _, ok := s.GetByFilename(filename); ok {
		return true
	}
	if _, ok := s.Get(invoiceID); ok {
		return true
	}
	return false
}

// Delete removes every record with the given invoice ID and persists
// only when something was removed. It reports whether removal occurred.
func (s *Store) Delete(invoiceID string) (bool, error) {
	if invoiceID == "" {
		return false, nil
	}

	kept := s.documents[:0]
	for _, rec := range s.documents {
		if rec.InvoiceID != invoiceID {
			kept = append(kept, rec)
		}
	}

	removed := len(kept) < len(s.documents)
	s.documents = kept
	if !removed {
		return false, nil
	}
	if err := s.save(); err != nil {
		return true, err
	}

	s.logger.Info("Record deleted", zap.String("invoice_id", invoiceID))
	return true, nil
}

// ListAll returns the stored records in sequence order.
func (s *Store) ListAll() []Record {
	out := make([]Record, len(s.documents))
	copy(out, s.documents)
	return out
}

// Count returns the number of stored records.
func (s *Store) Count() int {
	return len(s.documents)
}

// SearchByCategory returns every record with at least one line item in
// the category. A record appears once regardless of how many of its
// line items match.
func (s *Store) SearchByCategory(category string) []Record {
	var results []Record
	for _, rec := range s.documents {
		if rec.HasCategory(category) {
			results = append(results, rec)
		}
	}
	return results
}

// Summary writes a human-readable listing of the store contents.
func (s *Store) Summary(w io.Writer) {
	fmt.Fprintf(w, "Store: %s\n", s.path)
	fmt.Fprintf(w, "Total documents: %d\n", len(s.documents))

	for i, rec := range s.documents {
		id := rec.InvoiceID
		if id == "" {
			id = "N/A"
		}
		fmt.Fprintf(w, "%d. Invoice ID: %s | File: %s | Items: %d | Pre-tax: %.2f | Post-tax: %.2f\n",
			i+1, id, rec.Filename, len(rec.LineItems), rec.PreTaxTotal, rec.PostTaxTotal)
	}
}

// WriteDocument writes the detail view of one record, reporting whether
// it was found.
func (s *Store) WriteDocument(w io.Writer, invoiceID string) bool {
	rec, ok := s.Get(invoiceID)
	if !ok {
		return false
	}

	fmt.Fprintf(w, "Invoice ID: %s\n", rec.InvoiceID)
	fmt.Fprintf(w, "Filename: %s\n", rec.Filename)
	fmt.Fprintf(w, "Processed: %s\n", rec.ProcessingDateTime)
	fmt.Fprintf(w, "Line items (%d):\n", len(rec.LineItems))
	for i, item := range rec.LineItems {
		category := item.Category
		if category == "" {
			category = "N/A"
		}
		fmt.Fprintf(w, "  %d. %s | Qty: %g | Unit: %.2f | Total: %.2f | Category: %s\n",
			i+1, item.Description, item.Quantity, item.UnitPrice, item.TotalPrice, category)
	}
	if len(rec.SpecialNotes) > 0 {
		fmt.Fprintln(w, "Special notes:")
		for _, note := range rec.SpecialNotes {
			fmt.Fprintf(w, "  - %s\n", note)
		}
	}
	fmt.Fprintf(w, "Totals: pre-tax %.2f, tax %.2f, post-tax %.2f\n",
		rec.PreTaxTotal, rec.TaxTotal, rec.PostTaxTotal)
	return true
}
