package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-processor/internal/document"
	"github.com/garyjia/invoice-processor/internal/store"
)

func TestService_ExportXLSX(t *testing.T) {
	svc := NewService(zap.NewNop())

	records := []store.Record{
		{
			InvoiceID:          "INV-1",
			Filename:           "a.pdf",
			ProcessingDateTime: "2026-08-29T10:00:00Z",
			LineItems: []document.LineItem{
				{Description: "Monitor", TotalPrice: 100, Category: "Electronics"},
			},
			PreTaxTotal:  100,
			TaxTotal:     10,
			PostTaxTotal: 110,
		},
		{Filename: "anon.pdf"},
	}

	data, err := svc.ExportXLSX(records)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Invoice ID", rows[0][0])
	assert.Equal(t, "INV-1", rows[1][0])
	assert.Equal(t, "a.pdf", rows[1][1])
	assert.Equal(t, "110", rows[1][6])
	assert.Equal(t, "N/A", rows[2][0], "records without an ID export as N/A")
}

func TestService_ExportXLSX_Empty(t *testing.T) {
	svc := NewService(zap.NewNop())

	data, err := svc.ExportXLSX(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}
