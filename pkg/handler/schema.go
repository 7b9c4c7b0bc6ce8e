package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/ohler55/ojg/oj"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/getmockd/httpseq/internal/matching"
	"github.com/getmockd/httpseq/pkg/failure"
)

// SchemaHandler checks response_json_schema: a mapping of JSONPath to a JSON
// Schema, given inline or as "<@file", that the value at the path must
// satisfy. "$" validates the whole body.
type SchemaHandler struct {
	paths pathCache
}

func (*SchemaHandler) Key() string  { return "response_json_schema" }
func (*SchemaHandler) Default() any { return map[string]any{} }

func (h *SchemaHandler) Action(t Test, item, value any) error {
	resolvedPath, err := t.Resolve(item)
	if err != nil {
		return err
	}
	path := matching.Stringify(resolvedPath)

	data := t.ResponseData()
	if data == nil {
		return failure.Assertf("unable to extract JSON from test results")
	}
	match, err := h.paths.extract(data, path)
	if err != nil {
		return failure.Assertf("left hand side json path %s cannot match %s", path, t.Excerpt())
	}

	schemaDoc, err := h.schemaSource(t, value)
	if err != nil {
		return err
	}
	schema, err := compileSchema(schemaDoc)
	if err != nil {
		return failure.Formatf("invalid json schema for %s: %v", path, err)
	}

	// Round trip so the validator sees json.Number rather than Go ints.
	raw, err := oj.Marshal(match)
	if err != nil {
		return failure.Assertf("unable to encode %s: %v", path, err)
	}
	instance, err := decodeInstance(raw)
	if err != nil {
		return failure.Assertf("unable to decode %s: %v", path, err)
	}
	if err := schema.Validate(instance); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return failure.Assertf("json schema validation failed for %s: %s", path, verr.Error())
		}
		return failure.Assertf("json schema validation failed for %s: %v", path, err)
	}
	return nil
}

// schemaSource returns the schema as JSON text.
func (h *SchemaHandler) schemaSource(t Test, value any) ([]byte, error) {
	if s, ok := value.(string); ok && strings.HasPrefix(s, "<@") {
		return t.LoadDataFile(s[2:])
	}
	resolved, err := t.Resolve(value)
	if err != nil {
		return nil, err
	}
	return oj.Marshal(resolved)
}

func compileSchema(doc []byte) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", bytes.NewReader(doc)); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}

// decodeInstance decodes raw with numbers kept as json.Number, the form the
// validator expects.
func decodeInstance(raw []byte) (any, error) {
	var instance any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&instance); err != nil {
		return nil, err
	}
	return instance, nil
}
