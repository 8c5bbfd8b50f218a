package annotation

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed annotations.schema.json
var envelopeSchemaJSON string

var (
	envelopeOnce   sync.Once
	envelopeSchema *jsonschema.Schema
	envelopeErr    error
)

func envelope() (*jsonschema.Schema, error) {
	envelopeOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("annotations.json", strings.NewReader(envelopeSchemaJSON)); err != nil {
			envelopeErr = fmt.Errorf("load annotation schema: %w", err)
			return
		}
		envelopeSchema, envelopeErr = compiler.Compile("annotations.json")
		if envelopeErr != nil {
			envelopeErr = fmt.Errorf("compile annotation schema: %w", envelopeErr)
		}
	})
	return envelopeSchema, envelopeErr
}

// Parse decodes a serialized annotation list. The list must be an array of
// {task, value} objects; anything else is a schema violation.
func Parse(raw []byte) ([]Node, error) {
	schema, err := envelope()
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, Errorf(ErrSchemaViolation, "", "", "annotations are not valid JSON: %v", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, Errorf(ErrSchemaViolation, "", "", "annotations envelope: %v", err)
	}

	var nodes []Node
	if err := json.Unmarshal(raw, &nodes); err != nil {
		return nil, Errorf(ErrSchemaViolation, "", "", "decode annotations: %v", err)
	}
	return nodes, nil
}
