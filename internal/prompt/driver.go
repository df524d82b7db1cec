package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/samber/lo"
)

// ErrAborted is returned when the user interrupts a question.
var ErrAborted = errors.New("prompt: aborted")

// InputConfig describes a single line question.
type InputConfig struct {
	Message string
	Default string
	Help    string
}

// ConfirmConfig describes a yes or no question.
type ConfirmConfig struct {
	Message string
	Default bool
	Help    string
}

// SelectConfig describes a question picking among Options. DefaultIndex
// preselects a single answer, Defaults the answers of a multi select.
type SelectConfig struct {
	Message      string
	Options      []string
	DefaultIndex int
	Defaults     []int
	Help         string
}

// TextAreaConfig describes a multi line question.
type TextAreaConfig struct {
	Message string
	Default string
	Help    string
}

// Driver asks the questions. Tests script it; the CLI uses survey.
type Driver interface {
	Input(ctx context.Context, cfg InputConfig) (string, error)
	Password(ctx context.Context, cfg InputConfig) (string, error)
	Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error)
	Select(ctx context.Context, cfg SelectConfig) (int, error)
	MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error)
	TextArea(ctx context.Context, cfg TextAreaConfig) (string, error)
	Info(ctx context.Context, msg string) error
}

// SurveyDriver asks on the terminal through survey.
type SurveyDriver struct {
	out  io.Writer
	opts []survey.AskOpt
}

var _ Driver = (*SurveyDriver)(nil)

// NewSurveyDriver returns a driver writing notices to out, stdout when
// nil. opts apply to every question, for example survey.WithPageSize.
func NewSurveyDriver(out io.Writer, opts ...survey.AskOpt) *SurveyDriver {
	if out == nil {
		out = os.Stdout
	}
	return &SurveyDriver{out: out, opts: opts}
}

func (d *SurveyDriver) ask(ctx context.Context, question survey.Prompt, answer any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := survey.AskOne(question, answer, slices.Clone(d.opts)...)
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}

func (d *SurveyDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	var answer string
	err := d.ask(ctx, &survey.Input{Message: cfg.Message, Default: cfg.Default, Help: cfg.Help}, &answer)
	return answer, err
}

// Password never echoes and never offers the stored value as default.
func (d *SurveyDriver) Password(ctx context.Context, cfg InputConfig) (string, error) {
	var answer string
	err := d.ask(ctx, &survey.Password{Message: cfg.Message, Help: cfg.Help}, &answer)
	return answer, err
}

func (d *SurveyDriver) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	var answer bool
	err := d.ask(ctx, &survey.Confirm{Message: cfg.Message, Default: cfg.Default, Help: cfg.Help}, &answer)
	return answer, err
}

// Select returns the index of the picked option, -1 when none matched.
func (d *SurveyDriver) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	question := &survey.Select{Message: cfg.Message, Options: cfg.Options, Help: cfg.Help}
	if cfg.DefaultIndex >= 0 && cfg.DefaultIndex < len(cfg.Options) {
		question.Default = cfg.Options[cfg.DefaultIndex]
	}
	var answer survey.OptionAnswer
	if err := d.ask(ctx, question, &answer); err != nil {
		return -1, err
	}
	return answer.Index, nil
}

func (d *SurveyDriver) MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error) {
	question := &survey.MultiSelect{Message: cfg.Message, Options: cfg.Options, Help: cfg.Help}
	if defaults := pick(cfg.Options, cfg.Defaults); len(defaults) > 0 {
		question.Default = defaults
	}
	var answers []survey.OptionAnswer
	if err := d.ask(ctx, question, &answers); err != nil {
		return nil, err
	}
	return lo.Map(answers, func(a survey.OptionAnswer, _ int) int { return a.Index }), nil
}

func (d *SurveyDriver) TextArea(ctx context.Context, cfg TextAreaConfig) (string, error) {
	var answer string
	err := d.ask(ctx, &survey.Multiline{Message: cfg.Message, Default: cfg.Default, Help: cfg.Help}, &answer)
	return answer, err
}

func (d *SurveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

// pick returns the options at indices, skipping those out of range.
func pick(options []string, indices []int) []string {
	return lo.FilterMap(indices, func(idx int, _ int) (string, bool) {
		if idx < 0 || idx >= len(options) {
			return "", false
		}
		return options[idx], true
	})
}
