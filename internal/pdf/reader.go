package pdf

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// ocrDPI is the rasterization resolution for the OCR fallback. Scans at
// lower resolutions lose thin strokes that tesseract needs.
const ocrDPI = 400

// pageSource is the slice of a PDF document the reader needs; fitz
// satisfies it through fitzDocument, tests substitute a fake.
type pageSource interface {
	NumPage() int
	Text(pageNum int) (string, error)
	ImageDPI(pageNum int, dpi float64) (image.Image, error)
	Close() error
}

type fitzDocument struct {
	doc *fitz.Document
}

func (d fitzDocument) NumPage() int { return d.doc.NumPage() }

func (d fitzDocument) Text(pageNum int) (string, error) { return d.doc.Text(pageNum) }

func (d fitzDocument) ImageDPI(pageNum int, dpi float64) (image.Image, error) {
	return d.doc.ImageDPI(pageNum, dpi)
}

func (d fitzDocument) Close() error { return d.doc.Close() }

// Recognizer runs OCR over one rasterized page.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// Reader produces a single text blob for an invoice PDF, preferring
// embedded text and falling back to per-page OCR for scanned documents.
type Reader struct {
	open   func(path string) (pageSource, error)
	ocr    Recognizer
	logger *zap.Logger
}

// NewReader creates a reader whose OCR fallback uses the given recognizer.
func NewReader(ocr Recognizer, logger *zap.Logger) *Reader {
	return &Reader{
		open: func(path string) (pageSource, error) {
			doc, err := fitz.New(path)
			if err != nil {
				return nil, err
			}
			return fitzDocument{doc: doc}, nil
		},
		ocr:    ocr,
		logger: logger,
	}
}

// ExtractText concatenates the embedded text of every page. When the
// result is empty or whitespace-only the document is treated as a scan:
// each page is rasterized and OCRed, pages joined by newlines.
func (r *Reader) ExtractText(ctx context.Context, path string) (string, error) {
	doc, err := r.open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer doc.Close()

	var embedded strings.Builder
	for pageNum := 0; pageNum < doc.NumPage(); pageNum++ {
		pageText, err := doc.Text(pageNum)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d of %s: %w", pageNum, path, err)
		}
		embedded.WriteString(pageText)
	}

	if strings.TrimSpace(embedded.String()) != "" {
		r.logger.Info("Embedded text found, skipping OCR",
			zap.String("path", path),
			zap.Int("pages", doc.NumPage()))
		return embedded.String(), nil
	}

	r.logger.Info("No embedded text found, performing OCR",
		zap.String("path", path),
		zap.Int("pages", doc.NumPage()))

	var result strings.Builder
	for pageNum := 0; pageNum < doc.NumPage(); pageNum++ {
		img, err := doc.ImageDPI(pageNum, ocrDPI)
		if err != nil {
			return "", fmt.Errorf("failed to rasterize page %d of %s: %w", pageNum, path, err)
		}

		pageText, err := r.ocr.Recognize(ctx, img)
		if err != nil {
			return "", fmt.Errorf("OCR failed on page %d of %s: %w", pageNum, path, err)
		}
		result.WriteString(pageText)
		result.WriteString("\n")
	}

	return result.String(), nil
}
