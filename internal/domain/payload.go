package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// structuredDataSchema is the minimum shape every extraction payload and
// correction must satisfy. Document-type specific validation happens upstream.
const structuredDataSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object"
}`

var structuredDataValidator = jsonschema.MustCompileString("structured_data.json", structuredDataSchema)

// ValidateStructuredData checks that data is a well-formed JSON object.
func ValidateStructuredData(data json.RawMessage) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return ErrInvalidStructuredData
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStructuredData, err)
	}
	if err := structuredDataValidator.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStructuredData, err)
	}
	return nil
}

// ValidateConfidence checks an optional confidence value.
func ValidateConfidence(c *float64) error {
	if c == nil {
		return nil
	}
	if *c < 0 || *c > 1 {
		return ErrInvalidConfidence
	}
	return nil
}
