package testsupport

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/goliatone/go-formkit/pkg/request"
	"github.com/goliatone/go-formkit/pkg/schema"
)

// LoadCatalog parses the schema document at path and fails the test when
// it cannot be read or parsed.
func LoadCatalog(t *testing.T, path string) *schema.Catalog {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read schema document: %v", err)
	}
	catalog, err := schema.Parse(data, path)
	if err != nil {
		t.Fatalf("parse schema document %s: %v", path, err)
	}
	return catalog
}

// MustSchema returns the schema name of catalog.
func MustSchema(t *testing.T, catalog *schema.Catalog, name string) *schema.Schema {
	t.Helper()

	s, ok := catalog.Schema(name)
	if !ok {
		t.Fatalf("schema %q not found in %v", name, catalog.Names())
	}
	return s
}

// MustLoadRequest reads a JSON submission fixture. Nested objects become
// dotted request names, so {"form": {"widgets": {"title": "x"}}} submits
// form.widgets.title.
func MustLoadRequest(t *testing.T, path string) *request.Values {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read request fixture: %v", err)
	}
	values, err := request.FromJSON(data)
	if err != nil {
		t.Fatalf("decode request fixture %s: %v", path, err)
	}
	return values
}

// CaptureTemplateOutput runs render with a buffer and returns the result
// alongside what was written, so callers can check both agree.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	return out, buf.String()
}
