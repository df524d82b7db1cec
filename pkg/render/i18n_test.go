package render_test

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-formkit/pkg/render"
	"github.com/goliatone/go-formkit/pkg/render/gotemplate"
)

type stubTranslator map[string]string

func (t stubTranslator) Translate(_ string, key string, _ ...any) (string, error) {
	if msg, ok := t[key]; ok {
		return msg, nil
	}
	return "", errors.New("missing translation")
}

func TestMapTranslator(t *testing.T) {
	catalogue := render.MapTranslator{"fr": {"hello": "bonjour %s"}}

	got, err := catalogue.Translate("fr", "hello", "Ada")
	if err != nil || got != "bonjour Ada" {
		t.Fatalf("unexpected translation %q (%v)", got, err)
	}
	if _, err := catalogue.Translate("de", "hello"); err == nil {
		t.Fatalf("expected an unknown locale to fail")
	}
	if _, err := catalogue.Translate("fr", "bye"); err == nil {
		t.Fatalf("expected an unknown key to fail")
	}
}

func TestTemplateI18nFuncs(t *testing.T) {
	var missing []string
	funcs := render.TemplateI18nFuncs(stubTranslator{"forms.apply": "Aplicar"}, func(locale, key string, _ []any, err error) string {
		missing = append(missing, locale+":"+key)
		return "?" + key
	})
	engine, err := gotemplate.New(
		gotemplate.WithFS(fstest.MapFS{
			"labels.tpl": {Data: []byte(`{{ translate(data, "forms.apply") }}|{{ translate(data, "forms.cancel") }}|{{ current_locale(data) }}`)},
		}),
		gotemplate.WithTemplateFunc(funcs),
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	got, err := engine.RenderTemplate("labels", map[string]any{"data": map[string]any{"locale": "es"}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Aplicar|?forms.cancel|es" {
		t.Fatalf("unexpected output %q", got)
	}
	if len(missing) != 1 || missing[0] != "es:forms.cancel" {
		t.Fatalf("unexpected missing calls %v", missing)
	}
}

func TestTemplateI18nFuncs_WithoutTranslator(t *testing.T) {
	funcs := render.TemplateI18nFuncs(nil, nil)
	translate, ok := funcs["translate"].(func(any, string, ...any) string)
	if !ok {
		t.Fatalf("unexpected translate signature %T", funcs["translate"])
	}
	if got := translate("en", "forms.apply"); got != "forms.apply" {
		t.Fatalf("expected the key as fallback, got %q", got)
	}
}
