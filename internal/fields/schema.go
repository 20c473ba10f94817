package fields

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildReceiptJSONSchema returns a JSON-Schema (draft 2020-12 subset) for a
// serialized ReceiptData record. Used to validate records before persistence.
func BuildReceiptJSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":          map[string]any{"type": "string", "minLength": 1},
			"store":          map[string]any{"type": "string", "minLength": 1},
			"price":          moneyProp(),
			"purchase_date":  map[string]any{"type": "string", "minLength": 10},
			"tax_amount":     moneyProp(),
			"total_amount":   moneyProp(),
			"payment_method": map[string]any{"type": "string", "minLength": 1},
			"warranty_info":  map[string]any{"type": "string"},
			"raw_text":       map[string]any{"type": "string", "minLength": 1},
		},
		"required": []string{"raw_text"},
	}
}

func moneyProp() map[string]any {
	return map[string]any{"type": "number", "minimum": 0.0}
}

var (
	schemaOnce    sync.Once
	receiptSchema *jsonschema.Schema
	schemaCompErr error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		raw, err := json.Marshal(BuildReceiptJSONSchema())
		if err != nil {
			schemaCompErr = err
			return
		}
		receiptSchema, schemaCompErr = jsonschema.CompileString("receipt.schema.json", string(raw))
	})
	return receiptSchema, schemaCompErr
}

// ValidateReceiptJSON checks a serialized receipt document against the schema.
func ValidateReceiptJSON(doc []byte) error {
	sch, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode receipt json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("receipt schema: %w", err)
	}
	return nil
}
