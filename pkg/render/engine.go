package render

import (
	"io"

	"github.com/goliatone/go-formkit/pkg/render/gotemplate"
)

// Engine executes the named templates of an HTML renderer. The data of
// every call is a map built from the widget, field or form being
// rendered.
type Engine interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}

var _ Engine = (*gotemplate.Engine)(nil)
