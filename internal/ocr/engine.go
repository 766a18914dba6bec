package ocr

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

// charWhitelist restricts recognition to ASCII alphanumerics. Punctuation
// is intentionally sacrificed: a smaller alphabet produces fewer OCR
// misreads, and the downstream extraction step recovers numeric values
// from context.
const charWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9\s]`)

// Config holds tesseract invocation settings.
type Config struct {
	Binary   string // binary name or absolute path; empty means "tesseract"
	Language string // default "eng"
	PSM      int    // page segmentation mode, default 6 (uniform text block)
	OEM      int    // engine mode, default 3
}

// Engine recognizes text on rasterized invoice pages via tesseract.
type Engine struct {
	cfg    Config
	runner Runner
	logger *zap.Logger
}

// NewEngine creates an OCR engine. A nil runner defaults to os/exec.
func NewEngine(cfg Config, runner Runner, logger *zap.Logger) *Engine {
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.PSM == 0 {
		cfg.PSM = 6
	}
	if cfg.OEM == 0 {
		cfg.OEM = 3
	}
	if runner == nil {
		runner = NewExecRunner(logger)
	}
	return &Engine{cfg: cfg, runner: runner, logger: logger}
}

// Recognize preprocesses a page image and runs tesseract over it,
// returning text cleaned of any residual non-alphanumeric characters.
func (e *Engine) Recognize(ctx context.Context, img image.Image) (string, error) {
	prepared := preprocess(img)

	tmpDir, err := os.MkdirTemp("", "invoice-ocr-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	pagePath := filepath.Join(tmpDir, "page.png")
	if err := imaging.Save(prepared, pagePath); err != nil {
		return "", fmt.Errorf("failed to write page image: %w", err)
	}

	args := []string{
		pagePath, "stdout",
		"-l", e.cfg.Language,
		"--oem", strconv.Itoa(e.cfg.OEM),
		"--psm", strconv.Itoa(e.cfg.PSM),
		"-c", "tessedit_char_whitelist=" + charWhitelist,
	}

	out, errb, err := e.runner.Run(ctx, e.cfg.Binary, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract failed: %w (stderr: %s)", err, truncate(string(errb), 512))
	}

	text := nonAlnum.ReplaceAllString(string(out), "")
	e.logger.Debug("OCR page recognized", zap.Int("chars", len(text)))
	return text, nil
}

// preprocess converts the page to greyscale and boosts contrast and
// sharpness, the same enhancement chain the scanner path always used.
func preprocess(img image.Image) image.Image {
	out := imaging.Grayscale(img)
	out = imaging.AdjustContrast(out, 50)
	return imaging.Sharpen(out, 2.0)
}
