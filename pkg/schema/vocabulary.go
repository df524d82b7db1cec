package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// Term pairs a value with the token used for it in markup and requests and
// the title shown to users.
type Term struct {
	Value any
	Token string
	Title string
}

// Vocabulary is an ordered, growable set of terms indexed by token and by
// value. It is safe for concurrent use.
type Vocabulary struct {
	mu      sync.RWMutex
	terms   []Term
	byToken map[string]int
	byValue map[any]int
}

// NewVocabulary builds a vocabulary from terms. Missing tokens are derived
// from the value and missing titles from its text form.
func NewVocabulary(terms ...Term) (*Vocabulary, error) {
	v := &Vocabulary{
		byToken: make(map[string]int, len(terms)),
		byValue: make(map[any]int, len(terms)),
	}
	for _, term := range terms {
		if err := v.Add(term); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// MustVocabulary is like NewVocabulary but panics on duplicate terms.
func MustVocabulary(terms ...Term) *Vocabulary {
	v, err := NewVocabulary(terms...)
	if err != nil {
		panic(err)
	}
	return v
}

// SimpleVocabulary builds a vocabulary whose terms use the values
// themselves for tokens and titles.
func SimpleVocabulary(values ...any) *Vocabulary {
	terms := make([]Term, len(values))
	for i, value := range values {
		terms[i] = Term{Value: value}
	}
	return MustVocabulary(terms...)
}

// Add appends a term. Tokens and values must stay unique.
func (v *Vocabulary) Add(term Term) error {
	if term.Token == "" {
		term.Token = Token(term.Value)
	}
	if term.Title == "" {
		term.Title = fmt.Sprint(term.Value)
	}
	key := HashKey(term.Value)

	v.mu.Lock()
	defer v.mu.Unlock()
	if _, exists := v.byToken[term.Token]; exists {
		return fmt.Errorf("schema: duplicate vocabulary token %q", term.Token)
	}
	if _, exists := v.byValue[key]; exists {
		return fmt.Errorf("schema: duplicate vocabulary value %v", term.Value)
	}
	v.byToken[term.Token] = len(v.terms)
	v.byValue[key] = len(v.terms)
	v.terms = append(v.terms, term)
	return nil
}

// Term returns the term for value.
func (v *Vocabulary) Term(value any) (Term, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	idx, ok := v.byValue[HashKey(value)]
	if !ok {
		return Term{}, fmt.Errorf("%w: value %v", ErrNotFound, value)
	}
	return v.terms[idx], nil
}

// TermByToken returns the term for token.
func (v *Vocabulary) TermByToken(token string) (Term, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	idx, ok := v.byToken[token]
	if !ok {
		return Term{}, fmt.Errorf("%w: token %q", ErrNotFound, token)
	}
	return v.terms[idx], nil
}

// Contains reports whether value has a term.
func (v *Vocabulary) Contains(value any) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.byValue[HashKey(value)]
	return ok
}

// Terms returns a snapshot of the terms in order.
func (v *Vocabulary) Terms() []Term {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]Term, len(v.terms))
	copy(out, v.terms)
	return out
}

// Len returns the number of terms.
func (v *Vocabulary) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.terms)
}

var safeToken = regexp.MustCompile(`^[A-Za-z0-9_.\-]{1,64}$`)

// Token derives an opaque token for value that is safe inside HTML
// attributes and request field names.
func Token(value any) string {
	switch typed := value.(type) {
	case string:
		if safeToken.MatchString(typed) {
			return typed
		}
	case bool:
		return strconv.FormatBool(typed)
	case uuid.UUID:
		return typed.String()
	}
	if n, ok := AsInt(value); ok {
		return strconv.Itoa(n)
	}
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%T:%#v", value, value)))
	return id.String()
}

// VocabularySource builds the vocabulary of a field for a context.
type VocabularySource func(context any) (*Vocabulary, error)

var namedVocabularies sync.Map

// RegisterVocabulary makes source available to schema documents through
// the "vocabulary" key of a field. Registering a name again replaces it.
func RegisterVocabulary(name string, source VocabularySource) {
	if name == "" || source == nil {
		return
	}
	namedVocabularies.Store(name, source)
}

// NamedVocabulary returns the source registered under name.
func NamedVocabulary(name string) (VocabularySource, bool) {
	value, ok := namedVocabularies.Load(name)
	if !ok {
		return nil, false
	}
	return value.(VocabularySource), true
}
