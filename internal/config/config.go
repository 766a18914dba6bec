package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	TaxRates TaxRatesConfig `mapstructure:"tax_rates"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	OCR      OCRConfig      `mapstructure:"ocr"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// StorageConfig holds record store configuration.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// TaxRatesConfig points at the category→percentage table.
type TaxRatesConfig struct {
	Path string `mapstructure:"path"`
}

// OpenAIConfig holds OpenAI API configuration.
type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// OCRConfig holds tesseract configuration for the scan fallback.
type OCRConfig struct {
	Binary   string `mapstructure:"binary"`
	Language string `mapstructure:"language"`
}

// LoggerConfig holds logger configuration.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load reads configuration from an optional YAML file and the
// environment. A missing config file is fine; defaults plus env
// variables are a complete configuration.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.path", "storage/invoices.json")
	v.SetDefault("tax_rates.path", "tax_rates.json")

	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.timeout", 60*time.Second)

	v.SetDefault("ocr.binary", "tesseract")
	v.SetDefault("ocr.language", "eng")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "console")
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("storage.path", "INVOICE_STORE_PATH")
	v.BindEnv("tax_rates.path", "TAX_RATES_PATH")
}

// Validate checks the settings the processing pipeline cannot run
// without. Commands that only read the store skip this.
func (c *Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required: set OPENAI_API_KEY or openai.api_key in the config file")
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	return nil
}
