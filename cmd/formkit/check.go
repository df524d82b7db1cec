package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formkit/pkg/form"
	"github.com/goliatone/go-formkit/pkg/request"
	"github.com/goliatone/go-formkit/pkg/schema"
)

// errViolations makes check exit non-zero once every violation is printed.
var errViolations = errors.New("schema documents have violations")

type violation struct {
	file     string
	location string
	message  string
}

func runCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s check [paths...]\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(fs.Output(), "\nReport schema documents that cannot back a form.\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no schema documents given")
	}

	violations, err := checkFiles(context.Background(), form.NewEnv(), fs.Args())
	if err != nil {
		return err
	}
	if printViolations(os.Stderr, violations) {
		return errViolations
	}
	return nil
}

func checkFiles(ctx context.Context, env *form.Env, paths []string) ([]violation, error) {
	var violations []violation
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", path, err)
		}
		catalog, err := parseCatalog(ctx, path, data)
		if err != nil {
			violations = append(violations, violation{file: path, location: "document", message: err.Error()})
			continue
		}
		violations = append(violations, checkCatalog(env, path, catalog)...)
	}
	return violations, nil
}

// parseCatalog reads an OpenAPI document when the top level declares an
// openapi version and a schema document otherwise.
func parseCatalog(ctx context.Context, path string, data []byte) (*schema.Catalog, error) {
	var head struct {
		OpenAPI string `yaml:"openapi"`
	}
	if err := yaml.Unmarshal(data, &head); err == nil && head.OpenAPI != "" {
		return schema.FromOpenAPI(ctx, data)
	}
	return schema.Parse(data, path)
}

func checkCatalog(env *form.Env, file string, catalog *schema.Catalog) []violation {
	var out []violation
	for _, name := range catalog.Names() {
		s, _ := catalog.Schema(name)
		for _, field := range s.Fields() {
			out = append(out, checkField(env, file, []string{name, field.Name}, field)...)
		}
	}
	return out
}

func checkField(env *form.Env, file string, path []string, field *schema.Field) []violation {
	var out []violation
	add := func(format string, args ...any) {
		out = append(out, violation{file: file, location: strings.Join(path, " > "), message: fmt.Sprintf(format, args...)})
	}

	w, err := env.NewWidget(field, request.Empty)
	if err != nil {
		add("%v", err)
	} else if _, err := env.Converter(field, w); err != nil {
		add("%v", err)
	}
	if field.Kind == schema.KindChoice && field.Vocabulary == nil && field.VocabularyFunc == nil {
		add("choice field has no terms")
	}
	if field.IsCollection() && field.ValueType == nil {
		add("%s field has no valueType", field.Kind)
	}
	if field.Default != nil {
		if err := field.Validate(field.Default); err != nil {
			add("default %v is invalid: %v", field.Default, err)
		}
	}
	if field.ValueType != nil {
		out = append(out, checkField(env, file, appendPath(path, "valueType"), field.ValueType)...)
	}
	if field.KeyType != nil {
		out = append(out, checkField(env, file, appendPath(path, "keyType"), field.KeyType)...)
	}
	return out
}

func printViolations(w io.Writer, violations []violation) bool {
	if len(violations) == 0 {
		return false
	}
	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].file == violations[j].file {
			return violations[i].location < violations[j].location
		}
		return violations[i].file < violations[j].file
	})
	for _, v := range violations {
		fmt.Fprintf(w, "%s: %s -> %s\n", v.file, v.location, v.message)
	}
	return true
}

func appendPath(path []string, segment string) []string {
	next := append([]string(nil), path...)
	return append(next, segment)
}
