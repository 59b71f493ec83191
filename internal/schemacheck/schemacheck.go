// Package schemacheck verifies the machine-readable documents a profile
// points at: JSON Schemas for capabilities and the OpenAPI description of the
// REST transport.
//
// Checks here are structural. A schema must parse and compile; nothing is
// validated against sample data, and no state-mutating request is ever issued.
package schemacheck

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Fetcher retrieves a small HTTPS document. Satisfied by *fetch.Client.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// CheckJSONSchema fetches url and confirms the body is itself a syntactically
// valid JSON Schema: JSON that compiles under the metaschema. Returns nil on
// success; the error carries the failure cause for the step detail.
func CheckJSONSchema(ctx context.Context, f Fetcher, url string) error {
	body, err := f.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("fetching schema: %w", err)
	}
	return CompileSchema(url, body)
}

// CompileSchema checks raw bytes compile as a JSON Schema.
func CompileSchema(name string, body []byte) error {
	if !json.Valid(body) {
		return fmt.Errorf("schema is not valid JSON")
	}
	if _, err := jsonschema.CompileString(name, string(body)); err != nil {
		return fmt.Errorf("schema does not compile: %w", err)
	}
	return nil
}
