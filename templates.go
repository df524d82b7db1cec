package formkit

import (
	"io/fs"

	"github.com/goliatone/go-formkit/pkg/render"
)

// EmbeddedTemplates exposes the built-in widget and form templates so
// callers can copy or extend them without importing the render package.
func EmbeddedTemplates() fs.FS {
	return render.Templates()
}
