package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-processor/internal/config"
	"github.com/garyjia/invoice-processor/internal/export"
	"github.com/garyjia/invoice-processor/internal/store"
	"github.com/garyjia/invoice-processor/pkg/utils"
)

const defaultConfigPath = "configs/config.yaml"

// Writes an XLSX report of the record store next to the store file.
func main() {
	_ = gotenv.Load()

	cfg, err := config.Load(defaultConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
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

	recordStore, err := store.New(cfg.Storage.Path, logger)
	if err != nil {
		logger.Fatal("Failed to open record store", zap.Error(err))
	}

	data, err := export.NewService(logger).ExportXLSX(recordStore.ListAll())
	if err != nil {
		logger.Fatal("Failed to build workbook", zap.Error(err))
	}

	outPath := strings.TrimSuffix(cfg.Storage.Path, filepath.Ext(cfg.Storage.Path)) + ".xlsx"
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		logger.Fatal("Failed to write workbook", zap.Error(err))
	}

	logger.Info("Workbook written",
		zap.String("path", outPath),
		zap.Int("records", recordStore.Count()))
}
