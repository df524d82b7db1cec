package form

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/goliatone/go-formkit/pkg/schema"
)

// Field wraps a schema field with per-form overrides. Fields are values:
// every Fields transformation copies them.
type Field struct {
	Def *schema.Field
	// Name is the short name: Prefix plus the schema field name.
	Name      string
	Prefix    string
	Interface *schema.Schema
	// Mode overrides the manager mode when set.
	Mode          Mode
	IgnoreContext *bool
	ShowDefault   *bool
	// WidgetFactory overrides widget resolution per mode.
	WidgetFactory map[Mode]WidgetFactory
}

// NewField wraps def. The interface defaults to the schema owning def.
func NewField(def *schema.Field, opts ...FieldsOption) *Field {
	cfg := fieldsConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg.field(def, def.Owner)
}

func (f *Field) clone() *Field {
	out := *f
	if f.WidgetFactory != nil {
		out.WidgetFactory = make(map[Mode]WidgetFactory, len(f.WidgetFactory))
		for mode, factory := range f.WidgetFactory {
			out.WidgetFactory[mode] = factory
		}
	}
	return &out
}

// FieldsOption configures the fields built by one NewFields call.
type FieldsOption func(*fieldsConfig)

type fieldsConfig struct {
	prefix        string
	mode          Mode
	ignoreContext *bool
	showDefault   *bool
	omitReadOnly  bool
	keepReadOnly  []string
}

// WithFieldPrefix prefixes the short names.
func WithFieldPrefix(prefix string) FieldsOption {
	return func(c *fieldsConfig) { c.prefix = prefix }
}

// WithFieldMode sets the mode override.
func WithFieldMode(mode Mode) FieldsOption {
	return func(c *fieldsConfig) { c.mode = mode }
}

// WithFieldIgnoreContext sets the ignore-context override.
func WithFieldIgnoreContext(ignore bool) FieldsOption {
	return func(c *fieldsConfig) { c.ignoreContext = &ignore }
}

// WithFieldShowDefault sets the show-default override.
func WithFieldShowDefault(show bool) FieldsOption {
	return func(c *fieldsConfig) { c.showDefault = &show }
}

// OmitReadOnly skips read only schema fields except the names kept.
func OmitReadOnly(keep ...string) FieldsOption {
	return func(c *fieldsConfig) {
		c.omitReadOnly = true
		c.keepReadOnly = keep
	}
}

func (c fieldsConfig) field(def *schema.Field, iface *schema.Schema) *Field {
	name := def.Name
	if c.prefix != "" {
		name = expandPrefix(c.prefix) + name
	}
	return &Field{
		Def:           def,
		Name:          name,
		Prefix:        c.prefix,
		Interface:     iface,
		Mode:          c.mode,
		IgnoreContext: c.ignoreContext,
		ShowDefault:   c.showDefault,
	}
}

func (c fieldsConfig) skip(def *schema.Field) bool {
	return c.omitReadOnly && def.ReadOnly && !lo.Contains(c.keepReadOnly, def.Name)
}

// Fields is an ordered mapping from short name to Field. Every operation
// returns a new Fields; a Fields is never changed in place.
type Fields struct {
	order  []string
	byName map[string]*Field
}

// NewFields collects fields from items, which may be *schema.Schema,
// *schema.Field, *Field, *Fields or FieldsOption values. Options apply to
// the schema fields of the same call. Short names must be unique.
func NewFields(items ...any) (*Fields, error) {
	cfg := fieldsConfig{}
	for _, item := range items {
		if opt, ok := item.(FieldsOption); ok && opt != nil {
			opt(&cfg)
		}
	}
	out := &Fields{byName: make(map[string]*Field)}
	for _, item := range items {
		switch typed := item.(type) {
		case FieldsOption:
		case *schema.Schema:
			for _, def := range typed.Fields() {
				if cfg.skip(def) {
					continue
				}
				if err := out.add(cfg.field(def, typed)); err != nil {
					return nil, err
				}
			}
		case *schema.Field:
			if typed == nil {
				return nil, fmt.Errorf("form: nil schema field")
			}
			if cfg.skip(typed) {
				continue
			}
			if err := out.add(cfg.field(typed, typed.Owner)); err != nil {
				return nil, err
			}
		case *Field:
			if err := out.add(typed.clone()); err != nil {
				return nil, err
			}
		case *Fields:
			for _, field := range typed.Values() {
				if err := out.add(field.clone()); err != nil {
					return nil, err
				}
			}
		default:
			return nil, fmt.Errorf("form: unsupported fields item %T", item)
		}
	}
	return out, nil
}

// MustFields is like NewFields but panics on error.
func MustFields(items ...any) *Fields {
	fields, err := NewFields(items...)
	if err != nil {
		panic(err)
	}
	return fields
}

func (f *Fields) add(field *Field) error {
	if field.Def == nil {
		return fmt.Errorf("form: field %q has no schema field", field.Name)
	}
	if _, exists := f.byName[field.Name]; exists {
		return fmt.Errorf("form: duplicate field name %q", field.Name)
	}
	f.order = append(f.order, field.Name)
	f.byName[field.Name] = field
	return nil
}

// Get returns the field with the short name.
func (f *Fields) Get(name string) (*Field, bool) {
	if f == nil {
		return nil, false
	}
	field, ok := f.byName[name]
	return field, ok
}

// Names lists the short names in order.
func (f *Fields) Names() []string {
	if f == nil {
		return nil
	}
	return append([]string(nil), f.order...)
}

// Values lists the fields in order.
func (f *Fields) Values() []*Field {
	if f == nil {
		return nil
	}
	return lo.Map(f.order, func(name string, _ int) *Field { return f.byName[name] })
}

// Len returns the number of fields.
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.order)
}

func (f *Fields) derive(names []string) *Fields {
	out := &Fields{byName: make(map[string]*Field, len(names))}
	for _, name := range names {
		field, ok := f.byName[name]
		if !ok {
			continue
		}
		if _, dup := out.byName[name]; dup {
			continue
		}
		out.order = append(out.order, name)
		out.byName[name] = field.clone()
	}
	return out
}

// Select returns the named fields in the order given. Unknown names are
// an error.
func (f *Fields) Select(names ...string) (*Fields, error) {
	for _, name := range names {
		if _, ok := f.byName[name]; !ok {
			return nil, fmt.Errorf("form: unknown field %q", name)
		}
	}
	return f.derive(names), nil
}

// MustSelect is Select panicking on unknown names.
func (f *Fields) MustSelect(names ...string) *Fields {
	out, err := f.Select(names...)
	if err != nil {
		panic(err)
	}
	return out
}

// SelectPrefixed is Select with prefix expanded onto every name.
func (f *Fields) SelectPrefixed(prefix string, names ...string) (*Fields, error) {
	expanded := expandPrefix(prefix)
	return f.Select(lo.Map(names, func(name string, _ int) string { return expanded + name })...)
}

// Omit returns every field except the named ones.
func (f *Fields) Omit(names ...string) *Fields {
	return f.derive(lo.Filter(f.order, func(name string, _ int) bool { return !lo.Contains(names, name) }))
}

// OmitReadOnly drops fields whose schema field is read only.
func (f *Fields) OmitReadOnly() *Fields {
	return f.derive(lo.Filter(f.order, func(name string, _ int) bool { return !f.byName[name].Def.ReadOnly }))
}

// Merge appends others. Duplicate names are an error.
func (f *Fields) Merge(others ...*Fields) (*Fields, error) {
	items := make([]any, 0, len(others)+1)
	items = append(items, f)
	for _, other := range others {
		items = append(items, other)
	}
	return NewFields(items...)
}

// Modify returns a copy where fn has adjusted the named field.
func (f *Fields) Modify(name string, fn func(*Field)) (*Fields, error) {
	if _, ok := f.byName[name]; !ok {
		return nil, fmt.Errorf("form: unknown field %q", name)
	}
	out := f.derive(f.order)
	fn(out.byName[name])
	if out.byName[name].Name != name {
		return nil, fmt.Errorf("form: renaming field %q is not supported", name)
	}
	return out, nil
}

// expandPrefix appends a '.' to non-empty prefixes lacking one.
func expandPrefix(prefix string) string {
	if prefix == "" || strings.HasSuffix(prefix, ".") {
		return prefix
	}
	return prefix + "."
}

func idFromName(name string) string {
	return strings.ReplaceAll(name, ".", "-")
}
