package schema

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Kind names the native value type of a field.
type Kind string

const (
	KindText      Kind = "text"
	KindInt       Kind = "int"
	KindFloat     Kind = "float"
	KindDecimal   Kind = "decimal"
	KindBool      Kind = "bool"
	KindDate      Kind = "date"
	KindTime      Kind = "time"
	KindDatetime  Kind = "datetime"
	KindTimedelta Kind = "timedelta"
	KindBytes     Kind = "bytes"
	KindUUID      Kind = "uuid"
	KindChoice    Kind = "choice"
	KindList      Kind = "list"
	KindTuple     Kind = "tuple"
	KindSet       Kind = "set"
	KindDict      Kind = "dict"
	KindObject    Kind = "object"
)

// Decimal is a decimal literal kept as text to avoid binary rounding.
type Decimal string

// Field declares one typed, constrained value of a schema.
//
// A Field is treated as immutable once it belongs to a Schema; Bind returns
// a copy when context dependent parts need resolving.
type Field struct {
	Name         string
	Title        string
	Description  string
	Kind         Kind
	Required     bool
	ReadOnly     bool
	Default      any
	MissingValue any

	// MinLength and MaxLength bound text, bytes and collection lengths.
	// A zero MaxLength means unbounded.
	MinLength int
	MaxLength int
	Min       *float64
	Max       *float64

	Unique    bool
	Multiline bool
	// Format refines rendering; "html" marks rich text and "password"
	// hides the value.
	Format string
	// Widget names an explicit widget kind, bypassing resolution.
	Widget string
	// Forgiving keeps stored choice values that vanished from the
	// vocabulary selectable as missing terms.
	Forgiving bool

	Vocabulary     *Vocabulary
	VocabularyFunc func(context any) (*Vocabulary, error)

	ValueType *Field
	KeyType   *Field
	Schema    *Schema

	Constraint func(value any) error

	// Owner is the schema that declared the field.
	Owner *Schema
}

// Tags lists the capability tags of the field, most specific first.
func (f *Field) Tags() []string {
	if f == nil {
		return nil
	}
	kind := string(f.Kind)
	if kind == "" {
		kind = string(KindText)
	}
	switch f.Kind {
	case KindList, KindTuple, KindSet:
		return []string{kind, "collection", "field"}
	case KindInt, KindFloat, KindDecimal:
		return []string{kind, "number", "field"}
	case KindDatetime:
		return []string{kind, "date", "field"}
	default:
		return []string{kind, "field"}
	}
}

// Label returns the title or, when empty, the field name.
func (f *Field) Label() string {
	if f.Title != "" {
		return f.Title
	}
	return f.Name
}

// IsCollection reports whether the field holds a list, tuple or set.
func (f *Field) IsCollection() bool {
	switch f.Kind {
	case KindList, KindTuple, KindSet:
		return true
	}
	return false
}

// IsMissing reports whether v is the missing value of the field. A nil
// value is always missing.
func (f *Field) IsMissing(v any) bool {
	if v == nil {
		return true
	}
	if f.MissingValue == nil {
		return false
	}
	return reflect.DeepEqual(v, f.MissingValue)
}

// Bind resolves context dependent vocabularies and returns a copy of the
// field. Fields without a vocabulary source are returned unchanged.
func (f *Field) Bind(context any) (*Field, error) {
	if f == nil {
		return nil, nil
	}
	if f.VocabularyFunc == nil && f.ValueType == nil && f.KeyType == nil {
		return f, nil
	}
	out := *f
	if f.VocabularyFunc != nil {
		vocab, err := f.VocabularyFunc(context)
		if err != nil {
			return nil, fmt.Errorf("schema: bind vocabulary for %q: %w", f.Name, err)
		}
		out.Vocabulary = vocab
		out.VocabularyFunc = nil
	}
	if f.ValueType != nil {
		bound, err := f.ValueType.Bind(context)
		if err != nil {
			return nil, err
		}
		out.ValueType = bound
	}
	if f.KeyType != nil {
		bound, err := f.KeyType.Bind(context)
		if err != nil {
			return nil, err
		}
		out.KeyType = bound
	}
	return &out, nil
}

// Pending is a value staging changes to another one. Fields validate the
// target.
type Pending interface {
	Target() any
}

// Validate checks value against the constraints of the field.
func (f *Field) Validate(value any) error {
	if pending, ok := value.(Pending); ok {
		value = pending.Target()
	}
	if f.IsMissing(value) {
		if f.Required {
			return f.fail(RequiredMissing, value)
		}
		return nil
	}
	if err := f.validateKind(value); err != nil {
		return err
	}
	if f.Constraint != nil {
		if err := f.Constraint(value); err != nil {
			switch err.(type) {
			case *ValidationError, *Invalid:
				return err
			}
			return &ValidationError{Code: ConstraintNotSatisfied, Field: f.Name, Value: value, Message: err.Error()}
		}
	}
	return nil
}

func (f *Field) fail(code Code, value any) *ValidationError {
	return NewValidationError(code, f.Name, value)
}

func (f *Field) validateKind(value any) error {
	switch f.Kind {
	case KindText, "":
		s, ok := value.(string)
		if !ok {
			return f.fail(WrongType, value)
		}
		return f.validateLength(value, utf8.RuneCountInString(s))
	case KindBytes:
		b, ok := value.([]byte)
		if !ok {
			return f.fail(WrongType, value)
		}
		return f.validateLength(value, len(b))
	case KindInt:
		n, ok := AsInt(value)
		if !ok {
			return f.fail(WrongType, value)
		}
		return f.validateRange(value, float64(n))
	case KindFloat:
		n, ok := AsFloat(value)
		if !ok {
			return f.fail(WrongType, value)
		}
		return f.validateRange(value, n)
	case KindDecimal:
		d, ok := value.(Decimal)
		if !ok {
			return f.fail(WrongType, value)
		}
		r, ok := new(big.Rat).SetString(string(d))
		if !ok {
			return f.fail(WrongType, value)
		}
		n, _ := r.Float64()
		return f.validateRange(value, n)
	case KindBool:
		if _, ok := value.(bool); !ok {
			return f.fail(WrongType, value)
		}
	case KindDate, KindTime, KindDatetime:
		if _, ok := value.(time.Time); !ok {
			return f.fail(WrongType, value)
		}
	case KindTimedelta:
		if _, ok := value.(time.Duration); !ok {
			return f.fail(WrongType, value)
		}
	case KindUUID:
		if _, ok := value.(uuid.UUID); !ok {
			return f.fail(WrongType, value)
		}
	case KindChoice:
		if f.Vocabulary != nil && !f.Vocabulary.Contains(value) {
			return f.fail(NotInVocabulary, value)
		}
	case KindList, KindTuple, KindSet:
		return f.validateCollection(value)
	case KindDict:
		return f.validateDict(value)
	case KindObject:
		if !f.Schema.Provides(value) {
			return f.fail(WrongType, value)
		}
	default:
		return fmt.Errorf("schema: field %q has unknown kind %q", f.Name, f.Kind)
	}
	return nil
}

func (f *Field) validateLength(value any, n int) error {
	if n < f.MinLength {
		return f.fail(TooShort, value)
	}
	if f.MaxLength > 0 && n > f.MaxLength {
		return f.fail(TooLong, value)
	}
	return nil
}

func (f *Field) validateRange(value any, n float64) error {
	if f.Min != nil && n < *f.Min {
		return f.fail(TooSmall, value)
	}
	if f.Max != nil && n > *f.Max {
		return f.fail(TooBig, value)
	}
	return nil
}

func (f *Field) validateCollection(value any) error {
	items, ok := Elements(value)
	if !ok {
		return f.fail(WrongType, value)
	}
	if err := f.validateLength(value, len(items)); err != nil {
		return err
	}
	if f.ValueType != nil {
		var errs []error
		for _, item := range items {
			if err := f.ValueType.Validate(item); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			return &ValidationError{Code: WrongContainedType, Field: f.Name, Value: value, Errors: errs}
		}
	}
	if f.Unique || f.Kind == KindSet {
		seen := make(map[any]struct{}, len(items))
		for _, item := range items {
			key := HashKey(item)
			if _, dup := seen[key]; dup {
				return f.fail(NotUnique, value)
			}
			seen[key] = struct{}{}
		}
	}
	return nil
}

func (f *Field) validateDict(value any) error {
	pairs, ok := Pairs(value)
	if !ok {
		return f.fail(WrongType, value)
	}
	if err := f.validateLength(value, len(pairs)); err != nil {
		return err
	}
	var errs []error
	for _, pair := range pairs {
		if f.KeyType != nil {
			if err := f.KeyType.Validate(pair.Key); err != nil {
				errs = append(errs, err)
			}
		}
		if f.ValueType != nil {
			if err := f.ValueType.Validate(pair.Value); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Code: WrongContainedType, Field: f.Name, Value: value, Errors: errs}
	}
	return nil
}

// FromString parses s into the native value of the field and validates it.
// Only scalar kinds with a textual form support it.
func (f *Field) FromString(s string) (any, error) {
	var (
		value any
		err   error
	)
	switch f.Kind {
	case KindText, "":
		value = s
	case KindBytes:
		value = []byte(s)
	case KindInt:
		var n int64
		n, err = strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, NewValueError("The entered value is not a valid integer literal.", s, err)
		}
		value = int(n)
	case KindFloat:
		var n float64
		n, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, NewValueError("The entered value is not a valid decimal literal.", s, err)
		}
		value = n
	case KindDecimal:
		trimmed := strings.TrimSpace(s)
		if _, ok := new(big.Rat).SetString(trimmed); !ok {
			return nil, NewValueError("The entered value is not a valid decimal literal.", s, nil)
		}
		value = Decimal(trimmed)
	case KindBool:
		var b bool
		b, err = strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return nil, NewValueError("The entered value is not a valid boolean.", s, err)
		}
		value = b
	case KindUUID:
		var id uuid.UUID
		id, err = uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, NewValueError("The entered value is not a valid identifier.", s, err)
		}
		value = id
	default:
		return nil, fmt.Errorf("schema: field %q of kind %q cannot be parsed from text", f.Name, f.Kind)
	}
	if err := f.Validate(value); err != nil {
		return nil, err
	}
	return value, nil
}

// NewCollection builds the native collection value of a list, tuple or set
// field from items.
func (f *Field) NewCollection(items []any) any {
	switch f.Kind {
	case KindTuple:
		return Tuple(items)
	case KindSet:
		return NewSet(items...)
	default:
		if items == nil {
			items = []any{}
		}
		return items
	}
}

// AsInt converts any Go integer value to int.
func AsInt(v any) (int, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(rv.Uint()), true
	}
	return 0, false
}

// AsFloat converts any Go number to float64.
func AsFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	if n, ok := AsInt(v); ok {
		return float64(n), true
	}
	return 0, false
}
