// Package terms maps between the opaque tokens used in markup and requests
// and the values of choice-like fields.
package terms

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-formkit/pkg/schema"
)

// Terms is a token/value mapping scoped to one field and context binding.
// Lookups return an error wrapping schema.ErrNotFound on a miss; callers
// treat it as a selection that is no longer valid.
type Terms interface {
	Term(value any) (schema.Term, error)
	TermByToken(token string) (schema.Term, error)
	Value(token string) (any, error)
	Terms() []schema.Term
	Len() int
	Contains(value any) bool
}

// Vocabulary exposes a schema vocabulary as Terms.
type Vocabulary struct {
	vocab *schema.Vocabulary
}

// FromVocabulary wraps vocab.
func FromVocabulary(vocab *schema.Vocabulary) *Vocabulary {
	return &Vocabulary{vocab: vocab}
}

func (v *Vocabulary) Term(value any) (schema.Term, error) { return v.vocab.Term(value) }

func (v *Vocabulary) TermByToken(token string) (schema.Term, error) {
	return v.vocab.TermByToken(token)
}

func (v *Vocabulary) Value(token string) (any, error) {
	term, err := v.vocab.TermByToken(token)
	if err != nil {
		return nil, err
	}
	return term.Value, nil
}

func (v *Vocabulary) Terms() []schema.Term { return v.vocab.Terms() }

func (v *Vocabulary) Len() int { return v.vocab.Len() }

func (v *Vocabulary) Contains(value any) bool { return v.vocab.Contains(value) }

// Default labels of boolean terms.
const (
	TrueLabel  = "yes"
	FalseLabel = "no"
)

// Bool returns the two terms of a boolean field, tokens "true" and "false".
func Bool(trueLabel, falseLabel string) *Vocabulary {
	if trueLabel == "" {
		trueLabel = TrueLabel
	}
	if falseLabel == "" {
		falseLabel = FalseLabel
	}
	return FromVocabulary(schema.MustVocabulary(
		schema.Term{Value: true, Token: "true", Title: trueLabel},
		schema.Term{Value: false, Token: "false", Title: falseLabel},
	))
}

// ErrNoVocabulary reports a choice field without a vocabulary source.
var ErrNoVocabulary = errors.New("terms: field has no vocabulary")

// ForField returns the terms of field bound to context: the vocabulary of a
// choice field, of the value type of a collection, or the boolean terms.
func ForField(field *schema.Field, context any) (Terms, error) {
	if field == nil {
		return nil, ErrNoVocabulary
	}
	bound, err := field.Bind(context)
	if err != nil {
		return nil, err
	}
	switch {
	case bound.Kind == schema.KindBool:
		return Bool("", ""), nil
	case bound.Kind == schema.KindChoice && bound.Vocabulary != nil:
		return FromVocabulary(bound.Vocabulary), nil
	case bound.IsCollection() && bound.ValueType != nil:
		inner, err := ForField(bound.ValueType, context)
		if err != nil {
			return nil, fmt.Errorf("terms: %s: %w", field.Name, err)
		}
		return inner, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNoVocabulary, field.Name)
}
