package render

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/goliatone/go-formkit/pkg/form"
	"github.com/goliatone/go-formkit/pkg/render/gotemplate"
	"github.com/goliatone/go-formkit/pkg/widgets"
)

//go:embed templates
var embedded embed.FS

// Templates returns the built-in widget, field, error and form templates.
func Templates() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Renderer turns widgets, error views and forms into markup. It is backed
// by a template engine and can be registered by name.
type Renderer interface {
	form.Renderer
	Name() string
	ContentType() string
}

// HTML renders through templates named after the widget kind and mode:
// "widgets/<kind>_input", "widgets/text_display", "widgets/hidden" and so
// on. Templates registered with form.RegisterTemplate take precedence.
type HTML struct {
	engine     Engine
	files      fs.FS
	hidden     map[string]string
	action     string
	method     string
	applyLabel string
	translator Translator
	locale     string
	onMissing  MissingTranslationHandler
	sanitizer  *Sanitizer
}

var _ Renderer = (*HTML)(nil)

// New returns an HTML renderer over the built-in templates unless
// WithEngine or WithTemplatesFS says otherwise.
func New(opts ...Option) (*HTML, error) {
	r := &HTML{
		method:     "post",
		applyLabel: "Apply",
		onMissing:  missingTranslationDefault,
		sanitizer:  NewSanitizer(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.engine == nil {
		files := r.files
		if files == nil {
			files = Templates()
		}
		engine, err := gotemplate.New(
			gotemplate.WithFS(files),
			gotemplate.WithTemplateFunc(TemplateI18nFuncs(r.translator, r.onMissing)),
			gotemplate.WithGlobalData(map[string]any{"locale": r.locale}),
		)
		if err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		r.engine = engine
	}
	return r, nil
}

// With returns a copy of r with opts applied. The copy shares the template
// engine, so per request settings such as the action or a version field
// cost no template parsing.
func (r *HTML) With(opts ...Option) *HTML {
	clone := *r
	clone.hidden = MergeHiddenFields(r.hidden)
	for _, opt := range opts {
		if opt != nil {
			opt(&clone)
		}
	}
	return &clone
}

func (r *HTML) Name() string { return "html" }

func (r *HTML) ContentType() string { return "text/html; charset=utf-8" }

// TemplateFor returns the template name rendering w in its current mode.
func TemplateFor(w form.Widget) string {
	b := w.Common()
	if name, ok := b.TemplateName(); ok {
		return name
	}
	switch w.(type) {
	case *form.MultiWidget:
		return "widgets/multi"
	case *form.ObjectWidget:
		return "widgets/object"
	case *form.SequenceWidget:
		switch b.Mode {
		case form.ModeDisplay:
			return "widgets/sequence_display"
		case form.ModeHidden:
			return "widgets/sequence_hidden"
		}
		switch b.Kind {
		case widgets.WidgetRadio, widgets.WidgetCheckbox, widgets.WidgetSingleCheckbox:
			return "widgets/" + b.Kind + "_input"
		}
		return "widgets/select_input"
	}
	switch b.Mode {
	case form.ModeDisplay:
		return "widgets/text_display"
	case form.ModeHidden:
		return "widgets/hidden"
	}
	switch b.Kind {
	case widgets.WidgetTextArea, widgets.WidgetPassword, widgets.WidgetFile, widgets.WidgetTextLines:
		return "widgets/" + b.Kind + "_input"
	}
	return "widgets/text_input"
}

// RenderWidget renders w without its label row.
func (r *HTML) RenderWidget(w form.Widget) (string, error) {
	data, err := r.widgetData(w)
	if err != nil {
		return "", err
	}
	name := TemplateFor(w)
	out, err := r.engine.RenderTemplate(name, data)
	if err != nil {
		return "", fmt.Errorf("render: widget %q: %w", w.Common().Name, err)
	}
	return strings.TrimSpace(out), nil
}

// RenderError renders one error view.
func (r *HTML) RenderError(e *form.ErrorView) (string, error) {
	data := map[string]any{"message": r.text(e.Message)}
	if e.Widget != nil {
		data["id"] = e.Widget.Common().ID
	}
	out, err := r.engine.RenderTemplate("error", data)
	if err != nil {
		return "", fmt.Errorf("render: error view: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// RenderField renders w inside its label row, with its error view.
func (r *HTML) RenderField(w form.Widget) (string, error) {
	b := w.Common()
	markup, err := r.RenderWidget(w)
	if err != nil {
		return "", err
	}
	data := map[string]any{
		"id":       b.ID,
		"label":    r.text(b.Label),
		"required": b.Required,
		"mode":     string(b.Mode),
		"widget":   markup,
		"error":    "",
	}
	if b.Err != nil {
		errMarkup, err := r.RenderError(b.Err)
		if err != nil {
			return "", err
		}
		data["error"] = errMarkup
	}
	out, err := r.engine.RenderTemplate("field", data)
	if err != nil {
		return "", fmt.Errorf("render: field %q: %w", b.Name, err)
	}
	return strings.TrimSpace(out), nil
}

// RenderForm renders the form, its groups, the form level errors and the
// configured hidden fields.
func (r *HTML) RenderForm(f *form.Form) (string, error) {
	if f.Widgets == nil {
		return "", fmt.Errorf("render: form %q has not been updated", f.Prefix())
	}
	fields, err := r.renderFields(f.Widgets.Widgets())
	if err != nil {
		return "", err
	}
	groups := make([]map[string]any, 0, len(f.Groups))
	for _, group := range f.Groups {
		if group.Widgets == nil {
			continue
		}
		groupFields, err := r.renderFields(group.Widgets.Widgets())
		if err != nil {
			return "", err
		}
		groups = append(groups, map[string]any{"label": r.text(group.Label), "fields": groupFields})
	}

	mapping := MapErrors(f)
	formErrors := make([]string, 0, len(mapping.Form))
	for _, message := range mapping.Form {
		formErrors = append(formErrors, r.text(message))
	}
	hidden := make([]map[string]any, 0, len(r.hidden))
	for _, field := range SortedHiddenFields(r.hidden) {
		hidden = append(hidden, map[string]any{"name": field.Name, "value": field.Value})
	}

	prefix := f.Prefix()
	data := map[string]any{
		"id":            strings.TrimSuffix(strings.ReplaceAll(prefix, ".", "-"), "-"),
		"action":        r.action,
		"method":        r.method,
		"label":         r.text(f.Label),
		"status":        r.text(f.Status),
		"has_errors":    len(f.Errors) > 0,
		"form_errors":   formErrors,
		"fields":        fields,
		"groups":        groups,
		"hidden_fields": hidden,
		"editable":      f.Mode != form.ModeDisplay,
		"apply_name":    ApplyButtonName(f),
		"apply_label":   r.text(r.applyLabel),
	}
	out, err := r.engine.RenderTemplate("form", data)
	if err != nil {
		return "", fmt.Errorf("render: form %q: %w", prefix, err)
	}
	return strings.TrimSpace(out), nil
}

// ApplyButtonName is the request name of the submit button of f.
func ApplyButtonName(f *form.Form) string { return f.Prefix() + "buttons.apply" }

func (r *HTML) renderFields(ws []form.Widget) ([]string, error) {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		markup, err := r.RenderField(w)
		if err != nil {
			return nil, err
		}
		out = append(out, markup)
	}
	return out, nil
}

func (r *HTML) widgetData(w form.Widget) (map[string]any, error) {
	b := w.Common()
	data := map[string]any{
		"id":          b.ID,
		"name":        b.Name,
		"kind":        b.Kind,
		"mode":        string(b.Mode),
		"label":       r.text(b.Label),
		"title":       b.Title,
		"placeholder": b.Placeholder,
		"required":    b.Required,
		"error":       b.Err != nil,
		"editable":    b.Mode == form.ModeInput,
	}
	switch typed := w.(type) {
	case *form.SequenceWidget:
		items, err := typed.Items()
		if err != nil {
			return nil, fmt.Errorf("render: widget %q: %w", b.Name, err)
		}
		rows := make([]map[string]any, 0, len(items))
		for _, item := range items {
			rows = append(rows, map[string]any{
				"id":       item.ID,
				"name":     item.Name,
				"value":    item.Value,
				"content":  r.translate(item.Content),
				"selected": item.Selected,
			})
		}
		data["items"] = rows
		data["multiple"] = typed.Multiple()
		data["tokens"] = typed.Tokens()
		data["display"] = typed.DisplayValue()
		data["marker"] = typed.EmptyMarkerName()
	case *form.MultiWidget:
		if err := r.multiData(typed, data); err != nil {
			return nil, err
		}
	case *form.ObjectWidget:
		children := make([]string, 0, len(typed.Widgets()))
		for _, child := range typed.Widgets() {
			markup, err := r.RenderField(child)
			if err != nil {
				return nil, err
			}
			children = append(children, markup)
		}
		data["children"] = children
		data["marker"] = typed.EmptyMarkerName()
	default:
		value := valueText(w.Value())
		if b.Kind == widgets.WidgetPassword && b.Mode != form.ModeDisplay {
			value = ""
		}
		data["value"] = value
		if b.Mode == form.ModeDisplay && b.Field != nil && b.Field.Format == "html" {
			data["rich"] = r.sanitizer.Rich(value)
		}
	}
	return data, nil
}

func (r *HTML) multiData(w *form.MultiWidget, data map[string]any) error {
	values := w.Widgets()
	keys := w.KeyWidgets()
	rows := make([]map[string]any, 0, len(values))
	for idx, child := range values {
		markup, err := r.RenderWidget(child)
		if err != nil {
			return err
		}
		if child.Common().Err != nil {
			errMarkup, err := r.RenderError(child.Common().Err)
			if err != nil {
				return err
			}
			markup = errMarkup + markup
		}
		row := map[string]any{
			"id":          child.Common().ID,
			"widget":      markup,
			"remove_name": form.RemoveName(child),
			"key":         "",
		}
		if idx < len(keys) && keys[idx] != nil {
			keyMarkup, err := r.RenderWidget(keys[idx])
			if err != nil {
				return err
			}
			if keys[idx].Common().Err != nil {
				errMarkup, err := r.RenderError(keys[idx].Common().Err)
				if err != nil {
					return err
				}
				keyMarkup = errMarkup + keyMarkup
			}
			row["key"] = keyMarkup
		}
		rows = append(rows, row)
	}
	data["rows"] = rows
	data["count"] = len(values)
	data["counter_name"] = w.CounterName()
	data["add_name"] = w.AddButtonName()
	data["remove_name"] = w.RemoveButtonName()
	data["allow_adding"] = w.AllowAdding
	data["allow_removing"] = w.AllowRemoving
	return nil
}

// text translates and sanitises user facing text for |safe output.
func (r *HTML) text(s string) string {
	return r.sanitizer.Text(r.translate(s))
}

func (r *HTML) translate(s string) string {
	if strings.TrimSpace(s) == "" {
		return s
	}
	if r.translator == nil {
		return s
	}
	return translate(r.locale, s, s, r.translator, r.onMissing)
}

func valueText(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	case []string:
		return strings.Join(typed, "\n")
	}
	return fmt.Sprint(v)
}
