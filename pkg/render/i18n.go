package render

import (
	"errors"
	"fmt"
	"strings"
)

// Translator resolves a message key for a locale.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(locale, key string, args ...any) (string, error)

func (fn TranslatorFunc) Translate(locale, key string, args ...any) (string, error) {
	return fn(locale, key, args...)
}

// MapTranslator translates from a locale keyed catalogue.
type MapTranslator map[string]map[string]string

func (m MapTranslator) Translate(locale, key string, args ...any) (string, error) {
	catalogue, ok := m[locale]
	if !ok {
		return "", fmt.Errorf("render: unknown locale %q", locale)
	}
	msg, ok := catalogue[key]
	if !ok {
		return "", fmt.Errorf("render: no translation for %q in %q", key, locale)
	}
	if len(args) > 0 && strings.Contains(msg, "%") {
		return fmt.Sprintf(msg, args...), nil
	}
	return msg, nil
}

// MissingTranslationHandler returns the text used when key has no
// translation. err is ErrMissingTranslator when no translator is set.
type MissingTranslationHandler func(locale, key string, args []any, err error) string

// ErrMissingTranslator reports a translation attempt without a translator.
var ErrMissingTranslator = errors.New("render: no translator configured")

// missingTranslationDefault returns the "default" argument when present and
// the key otherwise.
func missingTranslationDefault(_ string, key string, args []any, _ error) string {
	for _, arg := range args {
		if values, ok := arg.(map[string]any); ok {
			if fallback, ok := values["default"].(string); ok && strings.TrimSpace(fallback) != "" {
				return fallback
			}
		}
	}
	return key
}

func translate(locale, key, fallback string, t Translator, onMissing MissingTranslationHandler) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	if t == nil {
		return onMissing(locale, key, []any{map[string]any{"default": fallback}}, ErrMissingTranslator)
	}
	result, err := t.Translate(locale, key)
	if err == nil && strings.TrimSpace(result) != "" {
		return result
	}
	return onMissing(locale, key, []any{map[string]any{"default": fallback}}, err)
}

// TemplateI18nFuncs returns template functions for engines built with
// gotemplate.WithTemplateFunc:
//
//	{{ translate(locale, "forms.apply") }}
//	{{ current_locale(data) }}
//
// The locale source is a locale string or a map holding it under "locale".
func TemplateI18nFuncs(t Translator, onMissing MissingTranslationHandler) map[string]any {
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	return map[string]any{
		"translate": func(localeSrc any, key string, params ...any) string {
			key = strings.TrimSpace(key)
			if key == "" {
				return ""
			}
			locale := resolveLocale(localeSrc)
			if t == nil {
				return onMissing(locale, key, params, ErrMissingTranslator)
			}
			msg, err := t.Translate(locale, key, params...)
			if err != nil || strings.TrimSpace(msg) == "" {
				return onMissing(locale, key, params, err)
			}
			return msg
		},
		"current_locale": func(localeSrc any) string {
			return resolveLocale(localeSrc)
		},
	}
}

func resolveLocale(src any) string {
	switch data := src.(type) {
	case nil:
		return ""
	case string:
		return data
	case map[string]any:
		if v, ok := data["locale"]; ok && v != nil {
			return strings.TrimSpace(fmt.Sprint(v))
		}
	case map[string]string:
		return data["locale"]
	}
	return ""
}
