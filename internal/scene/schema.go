// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package scene

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/design.schema.json
var designSchema []byte

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

// SchemaError lists every violation found in a document.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return "design document invalid: " + strings.Join(e.Violations, "; ")
}

// Validate checks an encoded design document against the embedded JSON
// schema. It returns a *SchemaError when the document is well-formed JSON
// that violates the schema.
func Validate(data []byte) error {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(designSchema))
	})
	if schemaErr != nil {
		return fmt.Errorf("compile design schema: %w", schemaErr)
	}

	result, err := compiledSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate design document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	se := &SchemaError{}
	for _, desc := range result.Errors() {
		se.Violations = append(se.Violations, desc.String())
	}
	return se
}
