package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/invoice-processor/internal/document"
	"github.com/garyjia/invoice-processor/internal/extractor"
	"github.com/garyjia/invoice-processor/internal/store"
	"github.com/garyjia/invoice-processor/internal/taxrate"
)

// Status describes the outcome of processing one file.
type Status string

const (
	StatusProcessed Status = "processed"
	StatusSkipped   Status = "skipped"
)

// Result summarizes one processed document for the batch driver.
type Result struct {
	Status       Status
	Filename     string
	InvoiceID    string
	LineItems    int
	PreTaxTotal  float64
	PostTaxTotal float64
}

// TextAcquirer produces the raw text blob for a PDF.
type TextAcquirer interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// FieldExtractor converts acquired text into structured invoice fields.
type FieldExtractor interface {
	Extract(ctx context.Context, text string, categories []string) (*extractor.Result, error)
}

// Processor runs one document end to end: filename pre-check, text
// acquisition, structured extraction, totals, storage. Documents are
// handled strictly sequentially; a failure aborts only its own document.
type Processor struct {
	reader    TextAcquirer
	extractor FieldExtractor
	rates     *taxrate.Table
	store     *store.Store
	logger    *zap.Logger
	now       func() time.Time
}

// New wires the pipeline stages together.
func New(reader TextAcquirer, fields FieldExtractor, rates *taxrate.Table, recordStore *store.Store, logger *zap.Logger) *Processor {
	return &Processor{
		reader:    reader,
		extractor: fields,
		rates:     rates,
		store:     recordStore,
		logger:    logger,
		now:       time.Now,
	}
}

// ProcessFile processes a single PDF. A file whose name is already in
// the store is skipped before any acquisition happens; this filename
// check is deliberately separate from the store's upsert dedup by
// invoice ID.
func (p *Processor) ProcessFile(ctx context.Context, path string) (*Result, error) {
	filename := filepath.Base(path)

	if p.store.IsProcessed(filename, "") {
		p.logger.Info("File already processed, skipping",
			zap.String("filename", filename))
		return &Result{Status: StatusSkipped, Filename: filename}, nil
	}

	p.logger.Info("Processing invoice", zap.String("path", path))

	doc := document.New(path)

	text, err := p.reader.ExtractText(ctx, path)
	if err != nil {
		return nil, err
	}
	doc.Text = text

	extracted, err := p.extractor.Extract(ctx, text, p.rates.Categories())
	if err != nil {
		return nil, err
	}

	doc.InvoiceID = extracted.InvoiceID
	doc.LineItems = extracted.LineItems
	doc.SpecialNotes = extracted.SpecialNotes
	doc.AIPromptTokens = extracted.PromptTokens
	doc.AICompletionTokens = extracted.CompletionTokens
	doc.ProcessingDateTime = p.now()

	doc.ProcessTotals(p.rates)

	if err := p.store.Upsert(store.NewRecord(doc)); err != nil {
		return nil, err
	}

	p.logger.Info("Invoice processed",
		zap.String("filename", filename),
		zap.String("invoice_id", doc.InvoiceID),
		zap.Int("line_items", len(doc.LineItems)),
		zap.Float64("pre_tax_total", doc.PreTaxTotal),
		zap.Float64("post_tax_total", doc.PostTaxTotal))

	return &Result{
		Status:       StatusProcessed,
		Filename:     filename,
		InvoiceID:    doc.InvoiceID,
		LineItems:    len(doc.LineItems),
		PreTaxTotal:  doc.PreTaxTotal,
		PostTaxTotal: doc.PostTaxTotal,
	}, nil
}
