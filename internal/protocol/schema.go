package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Schema names, one per validated message type.
const (
	SchemaHello  = "hello.schema.json"
	SchemaAct    = "act.schema.json"
	SchemaDecide = "decide.schema.json"
	SchemaFrame  = "frame.schema.json"
)

var (
	schemaOnce sync.Once
	schemaErr  error
	schemas    map[string]*jsonschema.Schema
)

func loadSchemas() {
	c := jsonschema.NewCompiler()
	names := []string{SchemaHello, SchemaAct, SchemaDecide, SchemaFrame}
	for _, n := range names {
		b, err := schemaFS.ReadFile("schemas/" + n)
		if err != nil {
			schemaErr = err
			return
		}
		if err := c.AddResource(n, bytes.NewReader(b)); err != nil {
			schemaErr = fmt.Errorf("add %s: %w", n, err)
			return
		}
	}
	schemas = make(map[string]*jsonschema.Schema, len(names))
	for _, n := range names {
		s, err := c.Compile(n)
		if err != nil {
			schemaErr = fmt.Errorf("compile %s: %w", n, err)
			return
		}
		schemas[n] = s
	}
}

// Schema returns the compiled embedded schema with the given name.
func Schema(name string) (*jsonschema.Schema, error) {
	schemaOnce.Do(loadSchemas)
	if schemaErr != nil {
		return nil, schemaErr
	}
	s, ok := schemas[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}
	return s, nil
}

// Validate checks a raw JSON message against the named schema.
func Validate(name string, raw []byte) error {
	s, err := Schema(name)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return s.Validate(v)
}
