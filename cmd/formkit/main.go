package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formkit"
	"github.com/goliatone/go-formkit/components/timezones"
	"github.com/goliatone/go-formkit/pkg/schema"
)

const usage = `Usage: %s <command> [flags]

Commands:
  serve    edit stored records through HTML or JSON forms
  prompt   fill a form from the terminal and print the data as YAML
  check    report schema documents that cannot back a form
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, filepath.Base(os.Args[0]))
		os.Exit(2)
	}

	timezones.Register()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "serve":
		err = runServe(args)
	case "prompt":
		err = runPrompt(args)
	case "check":
		err = runCheck(args)
	case "-h", "-help", "--help", "help":
		fmt.Fprintf(os.Stdout, usage, filepath.Base(os.Args[0]))
	default:
		fmt.Fprintf(os.Stderr, usage, filepath.Base(os.Args[0]))
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("formkit: %v", err)
	}
}

// catalogFlags are shared by the commands that load schemas.
type catalogFlags struct {
	schemas string
	openapi string
	debug   bool
}

func (c *catalogFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.schemas, "schemas", "", "directory of YAML/JSON schema documents")
	fs.StringVar(&c.openapi, "openapi", "", "OpenAPI 3 document whose component schemas back the forms")
	fs.BoolVar(&c.debug, "debug", false, "log at debug level in development format")
}

func (c *catalogFlags) load(ctx context.Context) (*schema.Catalog, error) {
	switch {
	case c.schemas != "" && c.openapi != "":
		return nil, fmt.Errorf("use either -schemas or -openapi")
	case c.schemas != "":
		return formkit.LoadSchemas(os.DirFS(c.schemas))
	case c.openapi != "":
		data, err := os.ReadFile(c.openapi)
		if err != nil {
			return nil, err
		}
		return formkit.LoadOpenAPI(ctx, data)
	}
	return nil, fmt.Errorf("one of -schemas or -openapi is required")
}

func (c *catalogFlags) logger() (*zap.Logger, error) {
	if c.debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func lookupSchema(catalog *schema.Catalog, name string) (*schema.Schema, error) {
	names := catalog.Names()
	if name == "" {
		if len(names) != 1 {
			return nil, fmt.Errorf("-schema is required (available: %s)", strings.Join(names, ", "))
		}
		name = names[0]
	}
	s, ok := catalog.Schema(name)
	if !ok {
		return nil, fmt.Errorf("schema %q not found (available: %s)", name, strings.Join(names, ", "))
	}
	return s, nil
}
