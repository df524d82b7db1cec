package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formkit"
	"github.com/goliatone/go-formkit/internal/prompt"
	"github.com/goliatone/go-formkit/pkg/form"
	"github.com/goliatone/go-formkit/pkg/request"
)

func runPrompt(args []string) error {
	fs := flag.NewFlagSet("prompt", flag.ExitOnError)
	var cf catalogFlags
	cf.register(fs)
	name := fs.String("schema", "", "schema to fill (optional when the catalog holds one)")
	output := fs.String("output", "", "output file (stdout if empty)")
	rounds := fs.Int("rounds", 10, "give up after this many question rounds")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, err := cf.logger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()
	catalog, err := cf.load(ctx)
	if err != nil {
		return err
	}
	sch, err := lookupSchema(catalog, *name)
	if err != nil {
		return err
	}
	kit, err := formkit.NewKit(logger)
	if err != nil {
		return err
	}

	content := map[string]any{}
	filler := prompt.New(prompt.NewSurveyDriver(os.Stdout, survey.WithPageSize(12)), prompt.WithMaxRounds(*rounds))
	_, data, err := filler.Run(ctx, func(req request.Request) (*form.Form, error) {
		return kit.NewForm(sch, content, req, form.WithIgnoreContext(true))
	})
	if err != nil {
		return err
	}
	logger.Debug("prompt finished", zap.String("schema", sch.Name), zap.Int("fields", len(data)))

	var out io.Writer = os.Stdout
	if *output != "" {
		file, err := os.Create(*output)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}
	if err := writeYAML(out, data); err != nil {
		return err
	}
	if *output != "" {
		fmt.Printf("Data written to %s\n", *output)
	}
	return nil
}

func writeYAML(w io.Writer, data map[string]any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}
