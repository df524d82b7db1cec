package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Record exposes named values to invariants. Implementations return a
// *NoInputData error for names they hold no value for.
type Record interface {
	Get(name string) (any, error)
}

// Invariant checks a rule spanning several fields of a schema.
type Invariant func(r Record) error

// Schema is an ordered set of named fields plus the invariants that hold
// between them. Schemas are static once built and shared across requests.
type Schema struct {
	Name        string
	Title       string
	Description string

	fields     []*Field
	byName     map[string]*Field
	invariants []Invariant

	// Adapter maps a content object to the object holding the schema
	// attributes. Nil means the content itself.
	Adapter func(content any) any
	// Implements reports whether a value provides the schema. Nil accepts
	// any non-nil value.
	Implements func(value any) bool
}

// New builds a schema from fields, rejecting empty and duplicate names.
func New(name string, fields ...*Field) (*Schema, error) {
	s := &Schema{Name: name, byName: make(map[string]*Field, len(fields))}
	for _, field := range fields {
		if err := s.add(field); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustNew is like New but panics on error.
func MustNew(name string, fields ...*Field) *Schema {
	s, err := New(name, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) add(field *Field) error {
	if field == nil {
		return fmt.Errorf("schema: %s: nil field", s.Name)
	}
	name := strings.TrimSpace(field.Name)
	if name == "" {
		return fmt.Errorf("schema: %s: field with empty name", s.Name)
	}
	if _, exists := s.byName[name]; exists {
		return fmt.Errorf("schema: %s: duplicate field %q", s.Name, name)
	}
	field.Name = name
	field.Owner = s
	s.fields = append(s.fields, field)
	s.byName[name] = field
	return nil
}

// WithInvariant registers an invariant and returns the schema for chaining.
func (s *Schema) WithInvariant(inv Invariant) *Schema {
	s.invariants = append(s.invariants, inv)
	return s
}

// Fields returns the fields in declaration order.
func (s *Schema) Fields() []*Field {
	if s == nil {
		return nil
	}
	out := make([]*Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field returns the named field.
func (s *Schema) Field(name string) (*Field, bool) {
	if s == nil {
		return nil, false
	}
	f, ok := s.byName[name]
	return f, ok
}

// Names lists field names in declaration order.
func (s *Schema) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// Invariants returns the registered invariants.
func (s *Schema) Invariants() []Invariant {
	if s == nil {
		return nil
	}
	return append([]Invariant(nil), s.invariants...)
}

// ValidateInvariants runs every invariant against r and returns all
// failures in registration order.
func (s *Schema) ValidateInvariants(r Record) []error {
	var errs []error
	for _, inv := range s.Invariants() {
		if err := inv(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Adapt returns the object carrying the schema attributes for content.
func (s *Schema) Adapt(content any) any {
	if s == nil || s.Adapter == nil {
		return content
	}
	return s.Adapter(content)
}

// Provides reports whether value can stand for an object of the schema.
func (s *Schema) Provides(value any) bool {
	if value == nil {
		return false
	}
	if s == nil || s.Implements == nil {
		return true
	}
	return s.Implements(value)
}

// Catalog indexes schemas by name.
type Catalog struct {
	schemas map[string]*Schema
}

// NewCatalog returns a catalog holding schemas.
func NewCatalog(schemas ...*Schema) (*Catalog, error) {
	c := &Catalog{schemas: make(map[string]*Schema, len(schemas))}
	for _, s := range schemas {
		if err := c.Add(s); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add registers s under its name.
func (c *Catalog) Add(s *Schema) error {
	if s == nil || s.Name == "" {
		return errors.New("schema: catalog entries need a name")
	}
	if _, exists := c.schemas[s.Name]; exists {
		return fmt.Errorf("schema: duplicate schema %q", s.Name)
	}
	c.schemas[s.Name] = s
	return nil
}

// Schema returns the named schema.
func (c *Catalog) Schema(name string) (*Schema, bool) {
	if c == nil {
		return nil, false
	}
	s, ok := c.schemas[name]
	return s, ok
}

// Names lists schema names sorted alphabetically.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.schemas))
	for name := range c.schemas {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of schemas.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.schemas)
}
