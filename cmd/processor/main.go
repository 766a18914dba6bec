package main

import (
	"context"
	"fmt"
	"os"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-processor/internal/config"
	"github.com/garyjia/invoice-processor/internal/extractor"
	"github.com/garyjia/invoice-processor/internal/ocr"
	"github.com/garyjia/invoice-processor/internal/pdf"
	"github.com/garyjia/invoice-processor/internal/pipeline"
	"github.com/garyjia/invoice-processor/internal/store"
	"github.com/garyjia/invoice-processor/internal/taxrate"
	"github.com/garyjia/invoice-processor/pkg/utils"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <invoice.pdf> [more.pdf ...]\n", os.Args[0])
		os.Exit(2)
	}

	// Credentials may live in a .env file next to the binary.
	_ = gotenv.Load()

	cfg, err := config.Load(defaultConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger, os.Args[1:]); err != nil {
		logger.Error("Processing finished with failures", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger, paths []string) error {
	rates, err := taxrate.Load(cfg.TaxRates.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to load tax rates: %w", err)
	}

	recordStore, err := store.New(cfg.Storage.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}

	fields, err := extractor.New(extractor.Config{
		APIKey:  cfg.OpenAI.APIKey,
		Model:   cfg.OpenAI.Model,
		BaseURL: cfg.OpenAI.BaseURL,
		Timeout: cfg.OpenAI.Timeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize extractor: %w", err)
	}

	engine := ocr.NewEngine(ocr.Config{
		Binary:   cfg.OCR.Binary,
		Language: cfg.OCR.Language,
	}, nil, logger)
	reader := pdf.NewReader(engine, logger)

	processor := pipeline.New(reader, fields, rates, recordStore, logger)

	// One document's failure must not stop the rest of the batch.
	ctx := context.Background()
	failed := 0
	for _, path := range paths {
		result, err := processor.ProcessFile(ctx, path)
		if err != nil {
			failed++
			logger.Error("Failed to process invoice",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		if result.Status == pipeline.StatusSkipped {
			logger.Warn("Skipped already-processed file",
				zap.String("filename", result.Filename))
		}
	}

	recordStore.Summary(os.Stdout)

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(paths))
	}
	return nil
}
