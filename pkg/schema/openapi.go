package schema

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

const (
	componentRefPrefix = "#/components/schemas/"
	orderExtensionKey  = "x-formkit-order"
	widgetExtensionKey = "x-formkit-widget"
)

// FromOpenAPI imports the component schemas of an OpenAPI 3 document as a
// catalog. Properties follow the x-formkit-order extension when present and
// alphabetical order otherwise.
func FromOpenAPI(ctx context.Context, data []byte) (*Catalog, error) {
	if len(data) == 0 {
		return nil, errors.New("schema: openapi document is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("schema: load openapi document: %w", err)
	}
	if doc.Components == nil || len(doc.Components.Schemas) == 0 {
		return nil, errors.New("schema: openapi document has no component schemas")
	}

	names := make([]string, 0, len(doc.Components.Schemas))
	for name := range doc.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	imp := &openapiImporter{pending: make(map[*Field]string)}
	catalog, _ := NewCatalog()
	for _, name := range names {
		ref := doc.Components.Schemas[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		s, err := imp.convertObject(name, ref.Value)
		if err != nil {
			return nil, err
		}
		if err := catalog.Add(s); err != nil {
			return nil, err
		}
	}
	for _, extra := range imp.inline {
		if err := catalog.Add(extra); err != nil {
			return nil, err
		}
	}
	for field, target := range imp.pending {
		s, ok := catalog.Schema(target)
		if !ok {
			return nil, fmt.Errorf("schema: field %q references unknown component %q", field.Name, target)
		}
		field.Schema = s
	}
	return catalog, nil
}

type openapiImporter struct {
	pending map[*Field]string
	inline  []*Schema
}

func (imp *openapiImporter) convertObject(name string, src *openapi3.Schema) (*Schema, error) {
	required := make(map[string]bool, len(src.Required))
	for _, r := range src.Required {
		required[r] = true
	}
	fields := make([]*Field, 0, len(src.Properties))
	for _, prop := range propertyOrder(src) {
		field, err := imp.convertField(name, prop, src.Properties[prop])
		if err != nil {
			return nil, err
		}
		field.Required = required[prop]
		fields = append(fields, field)
	}
	s, err := New(name, fields...)
	if err != nil {
		return nil, err
	}
	s.Title = src.Title
	s.Description = src.Description
	return s, nil
}

func propertyOrder(src *openapi3.Schema) []string {
	var out []string
	seen := make(map[string]bool, len(src.Properties))
	if raw, ok := src.Extensions[orderExtensionKey].([]any); ok {
		for _, entry := range raw {
			name, ok := entry.(string)
			if !ok || seen[name] {
				continue
			}
			if _, exists := src.Properties[name]; exists {
				out = append(out, name)
				seen[name] = true
			}
		}
	}
	rest := make([]string, 0, len(src.Properties))
	for name := range src.Properties {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func (imp *openapiImporter) convertField(owner, name string, ref *openapi3.SchemaRef) (*Field, error) {
	field := &Field{Name: name}
	if ref == nil {
		field.Kind = KindText
		return field, nil
	}
	if ref.Ref != "" && strings.HasPrefix(ref.Ref, componentRefPrefix) {
		if ref.Value == nil || firstSchemaType(ref.Value.Type) == "object" || len(ref.Value.Properties) > 0 {
			field.Kind = KindObject
			imp.pending[field] = strings.TrimPrefix(ref.Ref, componentRefPrefix)
			if ref.Value != nil {
				field.Title = ref.Value.Title
				field.Description = ref.Value.Description
			}
			return field, nil
		}
	}
	src := ref.Value
	if src == nil {
		field.Kind = KindText
		return field, nil
	}
	field.Title = src.Title
	field.Description = src.Description
	field.ReadOnly = src.ReadOnly
	field.Format = src.Format
	if widget, ok := src.Extensions[widgetExtensionKey].(string); ok {
		field.Widget = widget
	}

	switch firstSchemaType(src.Type) {
	case "integer":
		field.Kind = KindInt
		field.Min, field.Max = src.Min, src.Max
	case "number":
		field.Kind = KindFloat
		if src.Format == "decimal" {
			field.Kind = KindDecimal
		}
		field.Min, field.Max = src.Min, src.Max
	case "boolean":
		field.Kind = KindBool
	case "array":
		field.Kind = KindList
		if src.UniqueItems {
			field.Kind = KindSet
		}
		field.MinLength = int(src.MinItems)
		if src.MaxItems != nil {
			field.MaxLength = int(*src.MaxItems)
		}
		if src.Items != nil {
			inner, err := imp.convertField(owner, name, src.Items)
			if err != nil {
				return nil, err
			}
			inner.Name = ""
			field.ValueType = inner
		}
	case "object":
		if src.AdditionalProperties.Schema != nil {
			field.Kind = KindDict
			field.KeyType = &Field{Kind: KindText}
			inner, err := imp.convertField(owner, name, src.AdditionalProperties.Schema)
			if err != nil {
				return nil, err
			}
			inner.Name = ""
			field.ValueType = inner
			break
		}
		nested, err := imp.convertObject(owner+"."+name, src)
		if err != nil {
			return nil, err
		}
		imp.inline = append(imp.inline, nested)
		field.Kind = KindObject
		field.Schema = nested
	default:
		field.Kind = stringKind(src.Format)
		if field.Kind == KindText || field.Kind == KindBytes {
			field.MinLength = int(src.MinLength)
			if src.MaxLength != nil {
				field.MaxLength = int(*src.MaxLength)
			}
		}
	}

	if len(src.Enum) > 0 {
		terms := make([]Term, 0, len(src.Enum))
		for _, value := range src.Enum {
			terms = append(terms, Term{Value: normaliseScalar(value)})
		}
		vocab, err := NewVocabulary(terms...)
		if err != nil {
			return nil, fmt.Errorf("schema: %s.%s: %w", owner, name, err)
		}
		field.Kind = KindChoice
		field.Vocabulary = vocab
	}
	if src.Default != nil {
		value, err := coerceDefault(field, src.Default)
		if err != nil {
			return nil, fmt.Errorf("schema: %s.%s: default: %w", owner, name, err)
		}
		field.Default = value
	}
	return field, nil
}

func stringKind(format string) Kind {
	switch format {
	case "date":
		return KindDate
	case "date-time":
		return KindDatetime
	case "time":
		return KindTime
	case "duration":
		return KindTimedelta
	case "uuid":
		return KindUUID
	case "binary", "byte":
		return KindBytes
	default:
		return KindText
	}
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
