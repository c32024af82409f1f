package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/refcue/internal/common"
)

// Request body schemas. Field-level business rules live in the services;
// these pin down shape and types.
var schemaSources = map[string]string{
	"job_create.json": `{
  "type": "object",
  "additionalProperties": false,
  "required": ["company", "role"],
  "properties": {
    "company":  {"type": "string", "minLength": 1, "maxLength": 255},
    "role":     {"type": "string", "minLength": 1, "maxLength": 255},
    "job_id":   {"type": ["string", "null"], "maxLength": 255},
    "link":     {"type": ["string", "null"], "format": "uri"},
    "deadline": {"type": ["string", "null"], "format": "date"},
    "status":   {"enum": ["active", "applied", "closed"]}
  }
}`,
	"job_update.json": `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "company":  {"type": "string", "minLength": 1, "maxLength": 255},
    "role":     {"type": "string", "minLength": 1, "maxLength": 255},
    "job_id":   {"type": ["string", "null"], "maxLength": 255},
    "link":     {"type": ["string", "null"], "format": "uri"},
    "deadline": {"type": ["string", "null"], "format": "date"},
    "status":   {"enum": ["active", "applied", "closed"]}
  }
}`,
	"connection_create.json": `{
  "type": "object",
  "additionalProperties": false,
  "required": ["name"],
  "properties": {
    "name":          {"type": "string", "minLength": 1, "maxLength": 255},
    "company_guess": {"type": ["string", "null"], "maxLength": 255},
    "source":        {"type": ["string", "null"], "maxLength": 50}
  }
}`,
	"connection_update.json": `{
  "type": "object",
  "additionalProperties": false,
  "required": ["status"],
  "properties": {
    "status": {"enum": ["new", "processed"]}
  }
}`,
	"referral_create.json": `{
  "type": "object",
  "additionalProperties": false,
  "required": ["job_id", "connection_id"],
  "properties": {
    "job_id":        {"type": "string", "format": "uuid"},
    "connection_id": {"type": "string", "format": "uuid"},
    "note":          {"type": ["string", "null"]}
  }
}`,
	"referral_update.json": `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "status": {"enum": ["new", "contacted", "done", "ignored"]},
    "note":   {"type": ["string", "null"]}
  }
}`,
}

// Schemas holds the compiled request schemas.
type Schemas struct {
	byName map[string]*jsonschema.Schema
}

// CompileSchemas compiles every request schema once at startup.
func CompileSchemas() (*Schemas, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true
	for name, src := range schemaSources {
		if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
	}
	out := &Schemas{byName: make(map[string]*jsonschema.Schema, len(schemaSources))}
	for name := range schemaSources {
		s, err := compiler.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		out.byName[name] = s
	}
	return out, nil
}

// Decode validates body against the named schema and unmarshals it into dst.
// Failures are returned as common.ValidationErrors.
func (s *Schemas) Decode(name string, body []byte, dst any) error {
	schema, ok := s.byName[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return common.ValidationErrors{{Field: "body", Message: "must be valid JSON"}}
	}
	if err := schema.Validate(v); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return toValidationErrors(ve)
		}
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return common.ValidationErrors{{Field: "body", Message: err.Error()}}
	}
	return nil
}

// toValidationErrors flattens the leaf causes, one entry per field.
func toValidationErrors(ve *jsonschema.ValidationError) common.ValidationErrors {
	byField := map[string]string{}
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			field := strings.TrimPrefix(e.InstanceLocation, "/")
			if field == "" {
				field = "body"
			}
			if _, seen := byField[field]; !seen {
				byField[field] = e.Message
			}
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)

	fields := make([]string, 0, len(byField))
	for f := range byField {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	out := make(common.ValidationErrors, 0, len(fields))
	for _, f := range fields {
		out = append(out, common.ValidationError{Field: f, Message: byField[f]})
	}
	return out
}
