package schema

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadFS walks fsys and parses every JSON/YAML schema document into one
// catalog. Object fields may reference schemas declared in any file.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	docs := make(map[string]schemaFile)
	var order []string
	if fsys == nil {
		return NewCatalog()
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSchemaFile(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("schema: read %s: %w", path, err)
		}
		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}
		names := make([]string, 0, len(doc.Schemas))
		for name := range doc.Schemas {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			id := strings.TrimSpace(name)
			if id == "" {
				return fmt.Errorf("schema: file %s defines a schema with an empty name", path)
			}
			if _, exists := docs[id]; exists {
				return fmt.Errorf("schema: duplicate schema %q (file %s)", id, path)
			}
			docs[id] = doc.Schemas[name]
			order = append(order, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return buildCatalog(docs, order)
}

// Parse reads a single JSON or YAML schema document.
func Parse(data []byte, source string) (*Catalog, error) {
	doc, err := parseDocument(data, source)
	if err != nil {
		return nil, err
	}
	order := make([]string, 0, len(doc.Schemas))
	for name := range doc.Schemas {
		order = append(order, strings.TrimSpace(name))
	}
	sort.Strings(order)
	trimmed := make(map[string]schemaFile, len(doc.Schemas))
	for name, raw := range doc.Schemas {
		trimmed[strings.TrimSpace(name)] = raw
	}
	return buildCatalog(trimmed, order)
}

type documentFile struct {
	Schemas map[string]schemaFile `json:"schemas" yaml:"schemas"`
}

type schemaFile struct {
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description" yaml:"description"`
	Fields      []fieldFile `json:"fields" yaml:"fields"`
}

type fieldFile struct {
	Name        string     `json:"name" yaml:"name"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Kind        string     `json:"kind" yaml:"kind"`
	Required    bool       `json:"required" yaml:"required"`
	ReadOnly    bool       `json:"readOnly" yaml:"readOnly"`
	Default     any        `json:"default" yaml:"default"`
	MinLength   int        `json:"minLength" yaml:"minLength"`
	MaxLength   int        `json:"maxLength" yaml:"maxLength"`
	Min         *float64   `json:"min" yaml:"min"`
	Max         *float64   `json:"max" yaml:"max"`
	Unique      bool       `json:"unique" yaml:"unique"`
	Multiline   bool       `json:"multiline" yaml:"multiline"`
	Format      string     `json:"format" yaml:"format"`
	Widget      string     `json:"widget" yaml:"widget"`
	Forgiving   bool       `json:"forgiving" yaml:"forgiving"`
	Choices     []any      `json:"choices" yaml:"choices"`
	Terms       []termFile `json:"terms" yaml:"terms"`
	Vocabulary  string     `json:"vocabulary" yaml:"vocabulary"`
	ValueType   *fieldFile `json:"valueType" yaml:"valueType"`
	KeyType     *fieldFile `json:"keyType" yaml:"keyType"`
	Schema      string     `json:"schema" yaml:"schema"`
}

type termFile struct {
	Value any    `json:"value" yaml:"value"`
	Token string `json:"token" yaml:"token"`
	Title string `json:"title" yaml:"title"`
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("schema: file %s is empty", source)
	}
	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	doc = documentFile{}
	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	return documentFile{}, fmt.Errorf("schema: parse %s: invalid JSON or YAML", source)
}

func buildCatalog(docs map[string]schemaFile, order []string) (*Catalog, error) {
	catalog, _ := NewCatalog()
	pending := make(map[*Field]string)
	for _, name := range order {
		raw := docs[name]
		fields := make([]*Field, 0, len(raw.Fields))
		for _, rf := range raw.Fields {
			field, err := buildField(rf, name, pending)
			if err != nil {
				return nil, err
			}
			fields = append(fields, field)
		}
		s, err := New(name, fields...)
		if err != nil {
			return nil, err
		}
		s.Title = raw.Title
		s.Description = raw.Description
		if err := catalog.Add(s); err != nil {
			return nil, err
		}
	}
	for field, ref := range pending {
		target, ok := catalog.Schema(ref)
		if !ok {
			return nil, fmt.Errorf("schema: field %q references unknown schema %q", field.Name, ref)
		}
		field.Schema = target
	}
	return catalog, nil
}

func buildField(raw fieldFile, owner string, pending map[*Field]string) (*Field, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(raw.Kind)))
	if kind == "" {
		kind = KindText
	}
	if !knownKind(kind) {
		return nil, fmt.Errorf("schema: %s.%s: unknown kind %q", owner, raw.Name, raw.Kind)
	}
	field := &Field{
		Name:        raw.Name,
		Title:       raw.Title,
		Description: raw.Description,
		Kind:        kind,
		Required:    raw.Required,
		ReadOnly:    raw.ReadOnly,
		MinLength:   raw.MinLength,
		MaxLength:   raw.MaxLength,
		Min:         raw.Min,
		Max:         raw.Max,
		Unique:      raw.Unique,
		Multiline:   raw.Multiline,
		Format:      raw.Format,
		Widget:      raw.Widget,
		Forgiving:   raw.Forgiving,
	}
	if len(raw.Choices) > 0 || len(raw.Terms) > 0 {
		terms := make([]Term, 0, len(raw.Choices)+len(raw.Terms))
		for _, choice := range raw.Choices {
			terms = append(terms, Term{Value: normaliseScalar(choice)})
		}
		for _, t := range raw.Terms {
			terms = append(terms, Term{Value: normaliseScalar(t.Value), Token: t.Token, Title: t.Title})
		}
		vocab, err := NewVocabulary(terms...)
		if err != nil {
			return nil, fmt.Errorf("schema: %s.%s: %w", owner, raw.Name, err)
		}
		field.Vocabulary = vocab
	}
	if raw.Vocabulary != "" {
		if field.Vocabulary != nil {
			return nil, fmt.Errorf("schema: %s.%s: use either terms or a named vocabulary", owner, raw.Name)
		}
		source, ok := NamedVocabulary(raw.Vocabulary)
		if !ok {
			return nil, fmt.Errorf("schema: %s.%s: unknown vocabulary %q", owner, raw.Name, raw.Vocabulary)
		}
		field.VocabularyFunc = source
	}
	if raw.ValueType != nil {
		inner, err := buildField(*raw.ValueType, owner, pending)
		if err != nil {
			return nil, err
		}
		field.ValueType = inner
	}
	if raw.KeyType != nil {
		inner, err := buildField(*raw.KeyType, owner, pending)
		if err != nil {
			return nil, err
		}
		field.KeyType = inner
	}
	if kind == KindObject {
		if raw.Schema == "" {
			return nil, fmt.Errorf("schema: %s.%s: object field needs a schema reference", owner, raw.Name)
		}
		pending[field] = raw.Schema
	}
	if raw.Default != nil {
		value, err := coerceDefault(field, raw.Default)
		if err != nil {
			return nil, fmt.Errorf("schema: %s.%s: default: %w", owner, raw.Name, err)
		}
		field.Default = value
	}
	return field, nil
}

func knownKind(kind Kind) bool {
	switch kind {
	case KindText, KindInt, KindFloat, KindDecimal, KindBool, KindDate, KindTime,
		KindDatetime, KindTimedelta, KindBytes, KindUUID, KindChoice, KindList,
		KindTuple, KindSet, KindDict, KindObject:
		return true
	}
	return false
}

// Layouts used for calendar defaults in schema documents.
const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04:05"
	DatetimeLayout = time.RFC3339
)

func coerceDefault(field *Field, raw any) (any, error) {
	raw = normaliseScalar(raw)
	switch field.Kind {
	case KindChoice:
		return raw, nil
	case KindInt:
		if n, ok := AsInt(raw); ok {
			return n, nil
		}
	case KindFloat:
		if n, ok := AsFloat(raw); ok {
			return n, nil
		}
	case KindBool:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
	case KindDate:
		return parseTime(DateLayout, raw)
	case KindTime:
		return parseTime(TimeLayout, raw)
	case KindDatetime:
		return parseTime(DatetimeLayout, raw)
	case KindTimedelta:
		if s, ok := raw.(string); ok {
			return time.ParseDuration(s)
		}
	case KindList, KindTuple, KindSet:
		if items, ok := Elements(raw); ok {
			return field.NewCollection(items), nil
		}
	}
	if s, ok := raw.(string); ok {
		return field.FromString(s)
	}
	return nil, fmt.Errorf("unsupported default %v for kind %q", raw, field.Kind)
}

func parseTime(layout string, raw any) (any, error) {
	switch typed := raw.(type) {
	case time.Time:
		return typed, nil
	case string:
		return time.Parse(layout, typed)
	}
	return nil, fmt.Errorf("expected text for calendar default, got %T", raw)
}

func normaliseScalar(v any) any {
	if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int(f)
	}
	return v
}

func isSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
