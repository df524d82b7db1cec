package form

import (
	"errors"
	"strings"

	"github.com/goliatone/go-formkit/pkg/request"
	"github.com/goliatone/go-formkit/pkg/schema"
)

var (
	// ErrNoObjectFactory reports an object field whose schema has no
	// registered factory. It is a configuration error and never becomes an
	// error view.
	ErrNoObjectFactory = errors.New("form: no object factory registered")
	// ErrNoWidgetFactory reports a widget kind nothing can build.
	ErrNoWidgetFactory = errors.New("form: no widget factory registered")
	// ErrNoRenderer is returned by Render methods when the Env has no
	// renderer.
	ErrNoRenderer = errors.New("form: no renderer configured")
)

// ValueErrorMessage is shown for input that could not be parsed.
const ValueErrorMessage = "The system could not process the given value."

// MultipleErrors aggregates the error views of the children of a composite
// widget.
type MultipleErrors struct {
	Views []*ErrorView
}

func (e *MultipleErrors) Error() string {
	messages := make([]string, 0, len(e.Views))
	for _, view := range e.Views {
		messages = append(messages, view.Message)
	}
	return strings.Join(messages, "; ")
}

// Recoverable reports whether err is a user input failure that becomes an
// error view rather than aborting the cycle.
func Recoverable(err error) bool {
	var (
		validationErr *schema.ValidationError
		valueErr      *schema.ValueError
		invalid       *schema.Invalid
		multiple      *MultipleErrors
		view          *ErrorView
	)
	return errors.As(err, &validationErr) ||
		errors.As(err, &valueErr) ||
		errors.As(err, &invalid) ||
		errors.As(err, &multiple) ||
		errors.As(err, &view)
}

// ErrorView binds one failure to the widget, field, form and content it
// occurred on. Widget and Field are nil for invariant failures.
type ErrorView struct {
	Err     error
	Widget  Widget
	Field   *schema.Field
	Form    View
	Content any
	Request request.Request
	// Message is computed once when the view is built.
	Message string

	env *Env
}

// NewErrorView builds the view for err and computes its message.
func NewErrorView(env *Env, err error, w Widget, field *schema.Field, form View, content any, req request.Request) *ErrorView {
	view := &ErrorView{Err: err, Widget: w, Field: field, Form: form, Content: content, Request: req, env: env}
	view.update()
	return view
}

func (e *ErrorView) update() {
	if e.env != nil {
		vc := ValueContext{Context: e.Content, Request: e.Request, Form: e.Form, Field: e.Field, Widget: e.Widget, Error: e.Err}
		if msg, ok := lookupValue(e.env.Registry, AttrMessage, vc, e.Err, e.Request, e.Widget, e.Field, e.Form, e.Content); ok {
			if text, isText := msg.(string); isText {
				e.Message = text
				return
			}
		}
	}
	e.Message = messageFor(e.Err)
}

func messageFor(err error) string {
	var (
		multiple      *MultipleErrors
		validationErr *schema.ValidationError
		invalid       *schema.Invalid
		valueErr      *schema.ValueError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &multiple):
		return multiple.Error()
	case errors.As(err, &validationErr):
		return validationErr.Doc()
	case errors.As(err, &invalid):
		return invalid.Message
	case errors.As(err, &valueErr):
		return ValueErrorMessage
	}
	return err.Error()
}

func (e *ErrorView) Error() string { return e.Message }

func (e *ErrorView) Unwrap() error { return e.Err }

// Children returns the nested views of an aggregate failure.
func (e *ErrorView) Children() []*ErrorView {
	var multiple *MultipleErrors
	if errors.As(e.Err, &multiple) {
		return multiple.Views
	}
	return nil
}

// Render renders the view through the Env renderer.
func (e *ErrorView) Render() (string, error) {
	if e.env == nil || e.env.Renderer == nil {
		return "", ErrNoRenderer
	}
	return e.env.Renderer.RenderError(e)
}

// Errors is the ordered list of error views of an extraction.
type Errors []*ErrorView

// Messages lists the message of every view.
func (errs Errors) Messages() []string {
	out := make([]string, len(errs))
	for i, view := range errs {
		out[i] = view.Message
	}
	return out
}
