package canon

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrSchemaInvalid is returned when an intent fails its registered schema.
type ErrSchemaInvalid struct {
	Kind string
	Err  error
}

func (e *ErrSchemaInvalid) Error() string {
	return fmt.Sprintf("canon: intent kind %q failed schema validation: %v", e.Kind, e.Err)
}

func (e *ErrSchemaInvalid) Unwrap() error { return e.Err }

// SchemaGate validates intents against registered JSON Schemas before they
// are canonicalized for signing. It never alters the canonical bytes it
// produces; a kind with no registered schema passes through unchecked.
type SchemaGate struct {
	mu      sync.RWMutex
	schemas map[string]*jsonschema.Schema
}

// NewSchemaGate returns an empty gate.
func NewSchemaGate() *SchemaGate {
	return &SchemaGate{schemas: make(map[string]*jsonschema.Schema)}
}

// Register compiles and attaches a JSON Schema document to an intent kind.
func (g *SchemaGate) Register(kind string, schemaDoc string) error {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	url := fmt.Sprintf("https://atomic-core.local/schema/%s.json", kind)
	if err := c.AddResource(url, strings.NewReader(schemaDoc)); err != nil {
		return fmt.Errorf("canon: schema load for kind %q: %w", kind, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return fmt.Errorf("canon: schema compile for kind %q: %w", kind, err)
	}
	g.mu.Lock()
	g.schemas[kind] = compiled
	g.mu.Unlock()
	return nil
}

// Check validates v against the schema registered for kind, if any.
func (g *SchemaGate) Check(kind string, v interface{}) error {
	g.mu.RLock()
	schema, ok := g.schemas[kind]
	g.mu.RUnlock()
	if !ok || schema == nil {
		return nil
	}
	if err := schema.Validate(v); err != nil {
		return &ErrSchemaInvalid{Kind: kind, Err: err}
	}
	return nil
}

// GateAndCanonicalize validates v against kind's registered schema (if any)
// and, only on success, returns its canonical bytes.
func (g *SchemaGate) GateAndCanonicalize(kind string, v interface{}, opts Options) ([]byte, error) {
	if err := g.Check(kind, v); err != nil {
		return nil, err
	}
	return CanonicalizeWithOptions(v, opts)
}
