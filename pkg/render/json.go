package render

import (
	"encoding/json"
	"fmt"
	"mime"
	"strings"

	"github.com/goliatone/go-formkit/pkg/form"
)

// JSON renders widgets and forms as their JSON state, for clients that
// draw the form themselves.
type JSON struct {
	Indent string
}

var _ Renderer = JSON{}

func (JSON) Name() string { return "json" }

func (JSON) ContentType() string { return "application/json" }

func (j JSON) RenderWidget(w form.Widget) (string, error) {
	return j.encode(form.StateOf(w))
}

func (j JSON) RenderError(e *form.ErrorView) (string, error) {
	payload := map[string]string{"message": e.Message}
	if e.Widget != nil {
		payload["name"] = e.Widget.Common().Name
	}
	return j.encode(payload)
}

func (j JSON) RenderForm(f *form.Form) (string, error) {
	return j.encode(f.State())
}

func (j JSON) encode(v any) (string, error) {
	var (
		raw []byte
		err error
	)
	if j.Indent != "" {
		raw, err = json.MarshalIndent(v, "", j.Indent)
	} else {
		raw, err = json.Marshal(v)
	}
	if err != nil {
		return "", fmt.Errorf("render: encode json: %w", err)
	}
	return string(raw), nil
}

func mediaType(contentType string) string {
	parsed, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return parsed
}
