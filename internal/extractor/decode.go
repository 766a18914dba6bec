package extractor

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/garyjia/invoice-processor/internal/document"
)

// decodePayload converts the model's JSON reply into a Result. The model
// is treated as possibly-incomplete rather than possibly-malformed: any
// well-formed JSON object is accepted, and every missing or oddly-typed
// field falls back to an empty value instead of failing the document.
func decodePayload(raw []byte) (*Result, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("model returned invalid JSON: %w", err)
	}

	result := &Result{
		InvoiceID:    asString(payload["invoiceID"]),
		LineItems:    []document.LineItem{},
		SpecialNotes: []string{},
	}

	if items, ok := payload["LineItems"].([]any); ok {
		for _, entry := range items {
			fields, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			result.LineItems = append(result.LineItems, document.LineItem{
				Description: asString(fields["description"]),
				Quantity:    asFloat(fields["quantity"]),
				UnitPrice:   asFloat(fields["unit_price"]),
				TotalPrice:  asFloat(fields["total_price"]),
				Category:    asString(fields["category"]),
			})
		}
	}

	if notes, ok := payload["SpecialNotes"].([]any); ok {
		for _, note := range notes {
			if s := asString(note); s != "" {
				result.SpecialNotes = append(result.SpecialNotes, s)
			}
		}
	}

	return result, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asFloat accepts JSON numbers and numeric strings; anything else is 0.
func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
