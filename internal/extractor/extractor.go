package extractor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-processor/internal/document"
)

var (
	// ErrEmptyText is returned when there is no acquired text to parse.
	ErrEmptyText = errors.New("no text to parse")

	// ErrMissingAPIKey is returned when no OpenAI credential is configured.
	ErrMissingAPIKey = errors.New("OpenAI API key not found")
)

// Config holds the OpenAI invocation settings.
type Config struct {
	APIKey  string
	Model   string        // default "gpt-4o-mini"
	BaseURL string        // override for tests; empty means the public API
	Timeout time.Duration // 0 means no client-side deadline
}

// Result is the structured outcome of one extraction call. An empty
// InvoiceID means the model could not determine an identifier.
type Result struct {
	InvoiceID        string
	LineItems        []document.LineItem
	SpecialNotes     []string
	PromptTokens     int
	CompletionTokens int
}

// Extractor turns acquired invoice text into typed fields via the
// OpenAI chat completions API.
type Extractor struct {
	client *openai.Client
	cfg    Config
	logger *zap.Logger
}

// New creates an extractor. The credential must already be resolved
// (explicitly or from the environment by the config layer).
func New(cfg Config, logger *zap.Logger) (*Extractor, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Extractor{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Extract sends the full text to the model and decodes the JSON reply.
// Fields missing from the reply default to empty values; transport,
// auth, and JSON-decode failures are wrapped into one extraction error.
func (e *Extractor) Extract(ctx context.Context, text string, categories []string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: call ExtractText first", ErrEmptyText)
	}

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	e.logger.Info("Parsing invoice text",
		zap.String("model", e.cfg.Model),
		zap.Int("text_chars", len(text)),
		zap.Int("categories", len(categories)))

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.cfg.Model,
		// The zero value would be dropped by omitempty; this pins
		// sampling to an effective temperature of zero.
		Temperature: math.SmallestNonzeroFloat32,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an expert at extracting structured data from invoices. Always return valid JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(text, categories),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		e.logger.Error("OpenAI call failed", zap.Error(err))
		return nil, fmt.Errorf("error parsing text with OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("error parsing text with OpenAI: empty response")
	}

	result, err := decodePayload([]byte(resp.Choices[0].Message.Content))
	if err != nil {
		e.logger.Error("Failed to decode model response",
			zap.Error(err),
			zap.String("content", resp.Choices[0].Message.Content))
		return nil, fmt.Errorf("error parsing text with OpenAI: %w", err)
	}

	result.PromptTokens = resp.Usage.PromptTokens
	result.CompletionTokens = resp.Usage.CompletionTokens

	e.logger.Info("Invoice text parsed",
		zap.String("invoice_id", result.InvoiceID),
		zap.Int("line_items", len(result.LineItems)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("completion_tokens", result.CompletionTokens))

	return result, nil
}

// buildPrompt embeds the fixed response schema, the category list, and
// the acquired text verbatim. No truncation: documents longer than the
// model's context window fail at the API.
func buildPrompt(text string, categories []string) string {
	return fmt.Sprintf(`Extract invoice information from the following text and return a JSON object with the following structure:
{
    "invoiceID": "invoice number or ID",
    "LineItems": [
        {
            "description": "item description",
            "quantity": quantity as float,
            "unit_price": unit price as float,
            "total_price": total price as float,
            "category": "one of the available categories below"
        }
    ],
    "SpecialNotes": ["any special notes or remarks as an array of strings"]
}

Available categories to choose from: %s

For each line item, assign the most appropriate category from the list above based on the item description.

Invoice text:
%s

Return only valid JSON, no additional text or explanation.`, strings.Join(categories, ", "), text)
}
