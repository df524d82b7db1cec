package form

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/goliatone/go-formkit/pkg/registry"
	"github.com/goliatone/go-formkit/pkg/request"
	"github.com/goliatone/go-formkit/pkg/schema"
	"github.com/goliatone/go-formkit/pkg/terms"
	"github.com/goliatone/go-formkit/pkg/widgets"
)

// NoValueToken is the token of the "no value" choice of a select.
const NoValueToken = "--NOVALUE--"

// Default messages of the no value item.
const (
	NoValueMessage = "No value"
	PromptMessage  = "Select a value ..."
)

// TermsFactory builds the terms of a sequence widget.
type TermsFactory func(vc ValueContext) (terms.Terms, error)

// RegisterTerms registers factory for the (context, request, form, field,
// widget) discriminators.
func RegisterTerms(reg *registry.Registry, factory TermsFactory, specs ...registry.Spec) error {
	return reg.Register(ComponentTerms, specs, factory)
}

// defaultTerms returns the field vocabulary bound to the context. Forgiving
// fields keep their stored value selectable after it left the vocabulary.
func defaultTerms(vc ValueContext) (terms.Terms, error) {
	field := vc.Field
	if vc.Widget != nil && vc.Widget.Common().Kind == widgets.WidgetSingleCheckbox {
		label := ""
		if field != nil {
			label = field.Label()
		}
		vocab, err := schema.NewVocabulary(schema.Term{Value: true, Token: SelectedToken, Title: label})
		if err != nil {
			return nil, err
		}
		return terms.FromVocabulary(vocab), nil
	}
	base, err := terms.ForField(field, vc.Context)
	if err != nil {
		return nil, err
	}
	forgiving := field.Forgiving || (field.ValueType != nil && field.ValueType.Forgiving)
	if !forgiving || vc.Context == nil || vc.Widget == nil {
		return base, nil
	}
	b := vc.Widget.Common()
	if b.IgnoreContext || b.env == nil {
		return base, nil
	}
	return terms.WithMissing(base, func() (any, bool) {
		stored, ok, err := b.queryContext()
		if err != nil || !ok {
			return nil, false
		}
		return stored, true
	}), nil
}

// Item is one rendered choice.
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Value    string `json:"value"`
	Content  string `json:"content"`
	Selected bool   `json:"selected"`
}

// SequenceWidget selects tokens from the terms of a field: select, radio,
// checkbox and single checkbox widgets. Its value is the list of selected
// tokens.
type SequenceWidget struct {
	Base
	// Prompt shows the prompt message as the no value item even for
	// required fields.
	Prompt         bool
	NoValueMessage string
	PromptMessage  string

	terms terms.Terms
}

// NewSequenceWidget returns a sequence widget of kind.
func NewSequenceWidget(kind string) *SequenceWidget {
	w := &SequenceWidget{NoValueMessage: NoValueMessage, PromptMessage: PromptMessage}
	w.init(kind, w)
	return w
}

func (w *SequenceWidget) Tags() []string { return []string{w.Kind, "sequence", "widget"} }

// Terms returns the terms, computing them on first use.
func (w *SequenceWidget) Terms() (terms.Terms, error) {
	if w.terms != nil {
		return w.terms, nil
	}
	if w.env == nil {
		return nil, fmt.Errorf("form: widget %q is not bound to an environment", w.Name)
	}
	factory, err := registry.Resolve[TermsFactory](w.env.Registry, ComponentTerms, w.Context, w.Request, w.Form, w.Field, w)
	if err != nil {
		return nil, fmt.Errorf("form: terms: %w", err)
	}
	t, err := factory(w.valueContext())
	if err != nil {
		return nil, err
	}
	w.terms = t
	return t, nil
}

// Update drops cached terms, resolves the value and reads the prompt
// attribute.
func (w *SequenceWidget) Update() error {
	w.terms = nil
	if err := updateWidget(w); err != nil {
		return err
	}
	if value, ok := w.attribute(AttrPrompt); ok {
		if prompt, isBool := value.(bool); isBool {
			w.Prompt = prompt
		}
	}
	return nil
}

// Extract returns the posted tokens. A posted empty marker without the
// field means nothing was selected. Unknown tokens count as no value.
func (w *SequenceWidget) Extract() (any, bool, error) {
	if w.Request == nil {
		return nil, false, nil
	}
	raw, ok := w.Request.Get(w.Name)
	if !ok {
		if w.Request.Has(w.EmptyMarkerName()) {
			return []string{}, true, nil
		}
		return nil, false, nil
	}
	tokens := request.Strings(raw)
	t, err := w.Terms()
	if err != nil {
		return nil, false, err
	}
	for _, token := range tokens {
		if token == NoValueToken {
			continue
		}
		if _, err := t.TermByToken(token); err != nil {
			if errors.Is(err, schema.ErrNotFound) {
				return nil, false, nil
			}
			return nil, false, err
		}
	}
	return tokens, true, nil
}

// EmptyMarkerName is posted with the widget so an empty selection can be
// told apart from a missing field.
func (w *SequenceWidget) EmptyMarkerName() string { return w.Name + "-empty-marker" }

// Tokens returns the selected tokens.
func (w *SequenceWidget) Tokens() []string {
	return request.Strings(w.Value())
}

// Multiple reports whether more than one token may be selected.
func (w *SequenceWidget) Multiple() bool {
	if w.Kind == widgets.WidgetCheckbox {
		return true
	}
	return w.Field != nil && w.Field.IsCollection()
}

// ShowNoValue reports whether a select offers the no value item.
func (w *SequenceWidget) ShowNoValue() bool {
	return w.Kind == widgets.WidgetSelect && !w.Multiple() && (!w.Required || w.Prompt)
}

// Items lists the choices in terms order, preceded by the no value item
// when the select offers one.
func (w *SequenceWidget) Items() ([]Item, error) {
	t, err := w.Terms()
	if err != nil {
		return nil, err
	}
	selected := w.Tokens()
	items := make([]Item, 0, t.Len()+1)
	if w.ShowNoValue() {
		message := w.NoValueMessage
		if w.Prompt {
			message = w.PromptMessage
		}
		items = append(items, Item{
			ID:       w.ID + "-novalue",
			Name:     w.Name,
			Value:    NoValueToken,
			Content:  message,
			Selected: len(selected) == 0 || lo.Contains(selected, NoValueToken),
		})
	}
	for idx, term := range t.Terms() {
		content := term.Title
		if content == "" {
			content = term.Token
		}
		items = append(items, Item{
			ID:       fmt.Sprintf("%s-%d", w.ID, idx),
			Name:     w.Name,
			Value:    term.Token,
			Content:  content,
			Selected: lo.Contains(selected, term.Token),
		})
	}
	return items, nil
}

// DisplayValue returns the titles of the selected terms.
func (w *SequenceWidget) DisplayValue() []string {
	t, err := w.Terms()
	if err != nil {
		return nil
	}
	out := []string{}
	for _, token := range w.Tokens() {
		if token == NoValueToken {
			continue
		}
		term, err := t.TermByToken(token)
		if err != nil {
			continue
		}
		title := term.Title
		if title == "" {
			title = term.Token
		}
		out = append(out, title)
	}
	return out
}

type termsSource interface {
	Terms() (terms.Terms, error)
}

func widgetTerms(field *schema.Field, w Widget) (terms.Terms, error) {
	if source, ok := w.(termsSource); ok {
		return source.Terms()
	}
	var context any
	if w != nil {
		context = w.Common().Context
	}
	return terms.ForField(field, context)
}

func notInVocabulary(field *schema.Field, token string) error {
	return schema.NewValidationError(schema.NotInVocabulary, field.Name, token)
}

// SequenceConverter maps a single valued field onto at most one token.
type SequenceConverter struct {
	field  *schema.Field
	widget Widget
}

func (c *SequenceConverter) ToWidgetValue(value any) (any, error) {
	if c.field.IsMissing(value) {
		return []string{}, nil
	}
	t, err := widgetTerms(c.field, c.widget)
	if err != nil {
		return nil, err
	}
	term, err := t.Term(value)
	if err != nil {
		if errors.Is(err, schema.ErrNotFound) {
			return []string{}, nil
		}
		return nil, err
	}
	return []string{term.Token}, nil
}

func (c *SequenceConverter) ToFieldValue(value any) (any, error) {
	tokens := request.Strings(value)
	if len(tokens) == 0 || tokens[0] == NoValueToken {
		return c.field.MissingValue, nil
	}
	t, err := widgetTerms(c.field, c.widget)
	if err != nil {
		return nil, err
	}
	term, err := t.TermByToken(tokens[0])
	if err != nil {
		if errors.Is(err, schema.ErrNotFound) {
			return nil, notInVocabulary(c.field, tokens[0])
		}
		return nil, err
	}
	return term.Value, nil
}

// CollectionSequenceConverter maps collection fields onto token lists.
type CollectionSequenceConverter struct {
	field  *schema.Field
	widget Widget
}

func (c *CollectionSequenceConverter) ToWidgetValue(value any) (any, error) {
	if c.field.IsMissing(value) {
		return []string{}, nil
	}
	items, ok := schema.Elements(value)
	if !ok {
		return []string{}, nil
	}
	t, err := widgetTerms(c.field, c.widget)
	if err != nil {
		return nil, err
	}
	tokens := make([]string, 0, len(items))
	for _, item := range items {
		term, err := t.Term(item)
		if err != nil {
			if errors.Is(err, schema.ErrNotFound) {
				continue
			}
			return nil, err
		}
		tokens = append(tokens, term.Token)
	}
	return tokens, nil
}

func (c *CollectionSequenceConverter) ToFieldValue(value any) (any, error) {
	tokens := lo.Without(request.Strings(value), NoValueToken)
	t, err := widgetTerms(c.field, c.widget)
	if err != nil {
		return nil, err
	}
	items := make([]any, 0, len(tokens))
	for _, token := range tokens {
		term, err := t.TermByToken(token)
		if err != nil {
			if errors.Is(err, schema.ErrNotFound) {
				return nil, notInVocabulary(c.field, token)
			}
			return nil, err
		}
		items = append(items, term.Value)
	}
	return c.field.NewCollection(items), nil
}
