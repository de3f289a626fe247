package inspect

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidationErrors lists every schema violation found in a document.
type ValidationErrors []string

func (ve ValidationErrors) Error() string {
	return "schema validation failed: " + strings.Join(ve, "; ")
}

// Validate checks body against a JSON Schema. It returns nil when the body is
// valid, ValidationErrors when it violates the schema, and a plain error when
// either document cannot be parsed.
func Validate(body, schema []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(schema)); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrNotJSON, err)
	}

	err = compiled.Validate(doc)
	if err == nil {
		return nil
	}
	if verr, ok := err.(*jsonschema.ValidationError); ok {
		if errs := collect(verr, nil); len(errs) > 0 {
			return errs
		}
		return ValidationErrors{verr.Error()}
	}
	return err
}

// collect flattens the cause tree, leaves last.
func collect(err *jsonschema.ValidationError, out ValidationErrors) ValidationErrors {
	if err.Message != "" && len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		out = append(out, fmt.Sprintf("%s: %s", loc, err.Message))
	}
	for _, cause := range err.Causes {
		out = collect(cause, out)
	}
	return out
}
