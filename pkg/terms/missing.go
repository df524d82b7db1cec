package terms

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formkit/pkg/schema"
)

// MissingPrefix starts the title of terms for stored values that left the
// vocabulary.
const MissingPrefix = "Missing: "

// Missing wraps Terms so values still stored on the content object stay
// selectable after they vanished from the vocabulary.
type Missing struct {
	inner Terms
	// stored returns the value currently stored for the field. A
	// collection contributes each of its elements.
	stored func() (any, bool)
}

// WithMissing wraps inner. A nil stored func disables the fallback.
func WithMissing(inner Terms, stored func() (any, bool)) *Missing {
	return &Missing{inner: inner, stored: stored}
}

// Unwrap returns the wrapped terms.
func (m *Missing) Unwrap() Terms { return m.inner }

func (m *Missing) storedValues() []any {
	if m.stored == nil {
		return nil
	}
	value, ok := m.stored()
	if !ok || value == nil {
		return nil
	}
	if items, ok := schema.Elements(value); ok {
		return items
	}
	return []any{value}
}

func missingTerm(value any) schema.Term {
	return schema.Term{Value: value, Token: schema.Token(value), Title: fmt.Sprintf("%s%v", MissingPrefix, value)}
}

// IsMissingTerm reports whether t was synthesised for a vanished value.
func IsMissingTerm(t schema.Term) bool {
	return strings.HasPrefix(t.Title, MissingPrefix)
}

func (m *Missing) Term(value any) (schema.Term, error) {
	term, err := m.inner.Term(value)
	if err == nil || !errors.Is(err, schema.ErrNotFound) {
		return term, err
	}
	key := schema.HashKey(value)
	for _, stored := range m.storedValues() {
		if schema.HashKey(stored) == key {
			return missingTerm(stored), nil
		}
	}
	return schema.Term{}, err
}

func (m *Missing) TermByToken(token string) (schema.Term, error) {
	term, err := m.inner.TermByToken(token)
	if err == nil || !errors.Is(err, schema.ErrNotFound) {
		return term, err
	}
	for _, stored := range m.storedValues() {
		if m.inner.Contains(stored) {
			continue
		}
		if schema.Token(stored) == token {
			return missingTerm(stored), nil
		}
	}
	return schema.Term{}, err
}

func (m *Missing) Value(token string) (any, error) {
	term, err := m.TermByToken(token)
	if err != nil {
		return nil, err
	}
	return term.Value, nil
}

func (m *Missing) Contains(value any) bool {
	_, err := m.Term(value)
	return err == nil
}

// Terms lists the vocabulary terms followed by the missing ones.
func (m *Missing) Terms() []schema.Term {
	out := m.inner.Terms()
	for _, stored := range m.storedValues() {
		if !m.inner.Contains(stored) {
			out = append(out, missingTerm(stored))
		}
	}
	return out
}

func (m *Missing) Len() int { return len(m.Terms()) }
