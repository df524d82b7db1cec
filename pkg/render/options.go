package render

import (
	"io/fs"
	"strings"
)

// Option configures an HTML renderer.
type Option func(*HTML)

// WithEngine renders through engine instead of the built-in templates.
func WithEngine(engine Engine) Option {
	return func(r *HTML) {
		r.engine = engine
	}
}

// WithTemplatesFS loads templates from files. Every template name used by
// TemplateFor must be present.
func WithTemplatesFS(files fs.FS) Option {
	return func(r *HTML) {
		r.files = files
	}
}

// WithHiddenFields adds hidden inputs, such as CSRF tokens, to rendered
// forms.
func WithHiddenFields(fields ...HiddenField) Option {
	return func(r *HTML) {
		r.hidden = MergeHiddenFields(r.hidden, fields...)
	}
}

// WithTranslator translates labels, messages and terms into locale.
func WithTranslator(t Translator, locale string) Option {
	return func(r *HTML) {
		r.translator = t
		r.locale = strings.TrimSpace(locale)
	}
}

// WithMissingTranslation overrides the text used for missing translations.
func WithMissingTranslation(handler MissingTranslationHandler) Option {
	return func(r *HTML) {
		if handler != nil {
			r.onMissing = handler
		}
	}
}

// WithAction sets the form action URL.
func WithAction(action string) Option {
	return func(r *HTML) {
		r.action = strings.TrimSpace(action)
	}
}

// WithMethod sets the form method; "post" by default.
func WithMethod(method string) Option {
	return func(r *HTML) {
		if m := strings.ToLower(strings.TrimSpace(method)); m != "" {
			r.method = m
		}
	}
}

// WithApplyLabel sets the label of the submit button.
func WithApplyLabel(label string) Option {
	return func(r *HTML) {
		if strings.TrimSpace(label) != "" {
			r.applyLabel = label
		}
	}
}
