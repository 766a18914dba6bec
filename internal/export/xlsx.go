package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-processor/internal/store"
)

const sheetName = "Invoices"

// Service renders stored invoice records into an XLSX workbook.
type Service struct {
	logger *zap.Logger
}

func NewService(logger *zap.Logger) *Service {
	return &Service{logger: logger}
}

// ExportXLSX returns a workbook with one row per stored record.
func (s *Service) ExportXLSX(records []store.Record) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headers := []string{
		"Invoice ID",
		"Filename",
		"Processed",
		"Line Items",
		"Pre-Tax Total",
		"Tax Total",
		"Post-Tax Total",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for row, rec := range records {
		id := rec.InvoiceID
		if id == "" {
			id = "N/A"
		}
		values := []any{
			id,
			rec.Filename,
			rec.ProcessingDateTime,
			len(rec.LineItems),
			rec.PreTaxTotal,
			rec.TaxTotal,
			rec.PostTaxTotal,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", row+1, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}

	s.logger.Info("Exported records to XLSX",
		zap.Int("records", len(records)),
		zap.Int("bytes", buf.Len()))

	return buf.Bytes(), nil
}
