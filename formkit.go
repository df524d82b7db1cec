// Package formkit wires the schema, form and render packages together for
// callers that want a rendered form without assembling an environment by
// hand.
package formkit

import (
	"context"
	"fmt"
	"io/fs"

	"go.uber.org/zap"

	"github.com/goliatone/go-formkit/pkg/form"
	"github.com/goliatone/go-formkit/pkg/render"
	"github.com/goliatone/go-formkit/pkg/request"
	"github.com/goliatone/go-formkit/pkg/schema"
)

// Form aliases form.Form for callers that only import the root package.
type Form = form.Form

// Schema aliases schema.Schema.
type Schema = schema.Schema

// Catalog aliases schema.Catalog.
type Catalog = schema.Catalog

// Request aliases request.Request.
type Request = request.Request

// Kit bundles an environment with the renderers serving it. The HTML
// renderer is also the Env renderer, so Form.Render produces markup.
type Kit struct {
	Env       *form.Env
	HTML      *render.HTML
	Renderers *render.Registry
}

// NewKit builds an environment logging to logger (nil disables logging)
// and rendering through the built-in templates configured by opts. The
// renderer registry holds the HTML renderer, the fallback, and a JSON
// renderer.
func NewKit(logger *zap.Logger, opts ...render.Option) (*Kit, error) {
	html, err := render.New(opts...)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	renderers := render.NewRegistry()
	renderers.MustRegister(html)
	renderers.MustRegister(render.JSON{Indent: "  "})
	return &Kit{
		Env:       form.NewEnv(form.WithLogger(logger), form.WithRenderer(html)),
		HTML:      html,
		Renderers: renderers,
	}, nil
}

// NewForm returns a form over the fields of s editing content. The form
// still needs Update before it can be extracted or rendered.
func (k *Kit) NewForm(s *schema.Schema, content any, req request.Request, opts ...form.Option) (*form.Form, error) {
	fields, err := form.NewFields(s)
	if err != nil {
		return nil, fmt.Errorf("formkit: fields of %q: %w", s.Name, err)
	}
	opts = append([]form.Option{form.WithEnv(k.Env), form.WithLabel(schemaLabel(s))}, opts...)
	return form.New(content, req, fields, opts...), nil
}

// LoadSchemas parses every JSON and YAML schema document of fsys.
func LoadSchemas(fsys fs.FS) (*schema.Catalog, error) {
	return schema.LoadFS(fsys)
}

// LoadOpenAPI imports the component schemas of an OpenAPI 3 document.
func LoadOpenAPI(ctx context.Context, data []byte) (*schema.Catalog, error) {
	return schema.FromOpenAPI(ctx, data)
}

// RenderHTML updates a form for s over content with req and renders it.
// A non-nil req is applied first, so the markup carries its errors and
// status. It is the simplest entry point for callers that just want HTML.
func RenderHTML(s *schema.Schema, content any, req request.Request, opts ...render.Option) (string, error) {
	kit, err := NewKit(nil, opts...)
	if err != nil {
		return "", err
	}
	f, err := kit.NewForm(s, content, req)
	if err != nil {
		return "", err
	}
	if err := f.Update(); err != nil {
		return "", err
	}
	if req != nil {
		if _, err := f.Apply(); err != nil {
			return "", err
		}
	}
	return f.Render()
}

func schemaLabel(s *schema.Schema) string {
	if s.Title != "" {
		return s.Title
	}
	return s.Name
}
