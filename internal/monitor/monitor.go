// Package monitor validates incoming checkout requests against a JSON
// schema before they are bound into domain types.
package monitor

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ContractMonitor validates request bodies against a JSON schema.
type ContractMonitor struct {
	schemaLoader gojsonschema.JSONLoader
}

// NewContractMonitor creates a ContractMonitor from an inline schema
// document.
func NewContractMonitor(schema string) (*ContractMonitor, error) {
	schemaLoader := gojsonschema.NewStringLoader(schema)
	// Compile up front so a malformed schema fails at startup, not on
	// the first request.
	if _, err := gojsonschema.NewSchema(schemaLoader); err != nil {
		return nil, fmt.Errorf("error compiling schema: %w", err)
	}
	return &ContractMonitor{schemaLoader: schemaLoader}, nil
}

// Validate validates the given request body against the loaded schema.
// It returns true if valid, or false and a list of validation errors.
func (cm *ContractMonitor) Validate(requestBody []byte) (bool, []string, error) {
	documentLoader := gojsonschema.NewBytesLoader(requestBody)
	result, err := gojsonschema.Validate(cm.schemaLoader, documentLoader)
	if err != nil {
		return false, nil, fmt.Errorf("error during validation: %w", err)
	}

	if result.Valid() {
		return true, nil, nil
	}

	var errors []string
	for _, desc := range result.Errors() {
		errors = append(errors, desc.String())
	}
	return false, errors, nil
}

// FormatErrors formats a slice of validation error strings into a single string.
func FormatErrors(validationErrors []string) string {
	if len(validationErrors) == 0 {
		return ""
	}
	return "Validation errors: " + strings.Join(validationErrors, "; ")
}
