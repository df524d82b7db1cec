package formkit

import (
	"io/fs"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formkit/pkg/form"
	"github.com/goliatone/go-formkit/pkg/request"
	"github.com/goliatone/go-formkit/pkg/schema"
	"github.com/goliatone/go-formkit/pkg/testsupport"
)

type note struct {
	Title string
	Body  string
}

func noteSchema() *schema.Schema {
	s := schema.MustNew("note",
		&schema.Field{Name: "title", Title: "Title", Kind: schema.KindText, Required: true},
		&schema.Field{Name: "body", Title: "Body", Kind: schema.KindText, Multiline: true},
	)
	s.Title = "Note"
	return s
}

func TestEmbeddedTemplatesContainForm(t *testing.T) {
	fsys := EmbeddedTemplates()
	for _, name := range []string{"form.tpl", "field.tpl", "error.tpl", "widgets/text_input.tpl"} {
		if _, err := fs.Stat(fsys, name); err != nil {
			t.Fatalf("expected %s to be embedded: %v", name, err)
		}
	}
}

func TestRenderHTML(t *testing.T) {
	markup, err := RenderHTML(noteSchema(), &note{Title: "Groceries"}, nil)
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	doc := testsupport.ParseHTML(t, markup)
	title := testsupport.MustFindByID(t, doc, "form-widgets-title")
	if got := testsupport.Attr(title, "value"); got != "Groceries" {
		t.Fatalf("expected the stored title, got %q", got)
	}
	if heading := testsupport.FindAll(doc, func(n *html.Node) bool { return n.Data == "h1" }); len(heading) != 1 || testsupport.Text(heading[0]) != "Note" {
		t.Fatalf("expected the schema title as heading")
	}
}

func TestRenderHTMLAppliesRequest(t *testing.T) {
	content := &note{Title: "Groceries"}
	req := request.NewValues(nil).Set("form.widgets.title", "").Set("form.widgets.body", "milk")
	markup, err := RenderHTML(noteSchema(), content, req)
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	if !strings.Contains(markup, form.StatusErrors) {
		t.Fatalf("expected the error status in %s", markup)
	}
	if content.Body != "" {
		t.Fatalf("expected content untouched on errors, got %q", content.Body)
	}
}

func TestKitRenderers(t *testing.T) {
	kit, err := NewKit(nil)
	if err != nil {
		t.Fatalf("NewKit: %v", err)
	}
	for contentType, want := range map[string]string{
		"application/json":      "json",
		"text/html":             "html",
		"application/xhtml+xml": "html",
	} {
		r, err := kit.Renderers.ForContentType(contentType)
		if err != nil {
			t.Fatalf("ForContentType(%q): %v", contentType, err)
		}
		if r.Name() != want {
			t.Fatalf("ForContentType(%q) = %s, want %s", contentType, r.Name(), want)
		}
	}

	f, err := kit.NewForm(noteSchema(), &note{}, nil)
	if err != nil {
		t.Fatalf("NewForm: %v", err)
	}
	if f.Label != "Note" || f.Env() != kit.Env {
		t.Fatalf("expected the kit env and the schema label")
	}
}

func TestRenderHTMLFromFixtures(t *testing.T) {
	catalog := testsupport.LoadCatalog(t, "testdata/note.yaml")
	s := testsupport.MustSchema(t, catalog, "Note")
	req := testsupport.MustLoadRequest(t, "testdata/note_update.json")

	content := map[string]any{}
	markup, err := RenderHTML(s, content, req)
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	if !strings.Contains(markup, form.StatusUpdated) {
		t.Fatalf("expected the updated status in %s", markup)
	}
	if content["title"] != "Weekly shop" || content["body"] != "eggs" {
		t.Fatalf("expected the submission applied, got %v", content)
	}
	doc := testsupport.ParseHTML(t, markup)
	if got := testsupport.Attr(testsupport.MustFindByID(t, doc, "form-widgets-labels-0"), "value"); got != "home" {
		t.Fatalf("expected the list entry redisplayed, got %q", got)
	}
}
