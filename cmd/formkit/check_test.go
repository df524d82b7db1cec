package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-formkit/pkg/form"
)

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestCheckFiles(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		location string
		message  string
	}{
		{
			name: "valid",
			doc: `schemas:
  Task:
    fields:
      - name: title
        kind: text
        required: true
      - name: status
        kind: choice
        choices: [open, done]
`,
		},
		{
			name: "unknown widget",
			doc: `schemas:
  Task:
    fields:
      - name: title
        widget: slider
`,
			location: "Task > title",
			message:  `"slider"`,
		},
		{
			name: "choice without terms",
			doc: `schemas:
  Task:
    fields:
      - name: status
        kind: choice
`,
			location: "Task > status",
			message:  "choice field has no terms",
		},
		{
			name: "list without value type",
			doc: `schemas:
  Task:
    fields:
      - name: tags
        kind: list
`,
			location: "Task > tags",
			message:  "list field has no valueType",
		},
		{
			name: "invalid default",
			doc: `schemas:
  Task:
    fields:
      - name: title
        kind: text
        maxLength: 3
        default: toolong
`,
			location: "Task > title",
			message:  "default toolong is invalid",
		},
		{
			name:     "unparsable document",
			doc:      "schemas: [",
			location: "document",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeDoc(t, "task.yaml", tt.doc)
			violations, err := checkFiles(context.Background(), form.NewEnv(), []string{path})
			if err != nil {
				t.Fatalf("checkFiles: %v", err)
			}
			if tt.location == "" {
				if len(violations) != 0 {
					t.Fatalf("expected no violations, got %+v", violations)
				}
				return
			}
			for _, v := range violations {
				if v.file == path && v.location == tt.location && strings.Contains(v.message, tt.message) {
					return
				}
			}
			t.Fatalf("expected a violation at %q containing %q, got %+v", tt.location, tt.message, violations)
		})
	}
}

func TestCheckFilesMissingFile(t *testing.T) {
	if _, err := checkFiles(context.Background(), form.NewEnv(), []string{filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestPrintViolationsSorts(t *testing.T) {
	var buf bytes.Buffer
	printed := printViolations(&buf, []violation{
		{file: "b.yaml", location: "A > x", message: "second"},
		{file: "a.yaml", location: "B > y", message: "first"},
	})
	if !printed {
		t.Fatalf("expected violations to be printed")
	}
	want := "a.yaml: B > y -> first\nb.yaml: A > x -> second\n"
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
	if printViolations(&buf, nil) {
		t.Fatalf("expected nothing to print")
	}
}
