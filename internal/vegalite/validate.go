package vegalite

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON string

const schemaURL = "blob://vegalite-subset.json"

// Schema is the compiled subset of the Vega-Lite v5 schema that emitted
// documents must satisfy.
var Schema *jsonschema.Schema

func init() {
	compiler := jsonschema.NewCompiler()
	compiler.LoadURL = func(u string) (io.ReadCloser, error) {
		if u == schemaURL {
			return io.NopCloser(strings.NewReader(schemaJSON)), nil
		}
		return jsonschema.LoadURL(u)
	}
	Schema = compiler.MustCompile(schemaURL)
}

// Validate checks an encoded specification against Schema. Every violation
// is reported, keyed by its JSON pointer.
func Validate(doc []byte) error {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode spec: %w", err)
	}

	err := Schema.Validate(v)
	if err == nil {
		return nil
	}
	validationError, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err
	}

	var errs *multierror.Error
	var appendError func(err *jsonschema.ValidationError)
	appendError = func(err *jsonschema.ValidationError) {
		if len(err.Causes) == 0 && err.Message != "" {
			errs = multierror.Append(errs, fmt.Errorf("#%s: %s", err.InstanceLocation, err.Message))
		}
		for _, cause := range err.Causes {
			appendError(cause)
		}
	}
	appendError(validationError)

	if errs == nil {
		return validationError
	}
	return errs.ErrorOrNil()
}
