// Package prompt fills forms from the terminal. Every editable widget
// becomes one question; the answers are posted back as request values so
// the form pipeline extracts and validates them like a browser submission.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formkit/pkg/form"
	"github.com/goliatone/go-formkit/pkg/request"
	"github.com/goliatone/go-formkit/pkg/widgets"
)

// ErrTooManyRounds is returned when the answers never validate.
var ErrTooManyRounds = errors.New("prompt: too many rounds")

// BuildFunc builds a request scoped form. req is nil on the first round.
type BuildFunc func(req request.Request) (*form.Form, error)

// Filler asks for the values of the widgets of a form.
type Filler struct {
	driver    Driver
	maxRounds int
}

// Option configures a Filler.
type Option func(*Filler)

// WithMaxRounds bounds the number of question rounds of Run.
func WithMaxRounds(n int) Option {
	return func(f *Filler) {
		if n > 0 {
			f.maxRounds = n
		}
	}
}

// New returns a Filler asking through driver.
func New(driver Driver, opts ...Option) *Filler {
	f := &Filler{driver: driver, maxRounds: 10}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Run asks until the answers extract without errors and returns the
// final form with its extracted data. Rounds that add or remove multi
// widget entries are not extracted.
func (f *Filler) Run(ctx context.Context, build BuildFunc) (*form.Form, map[string]any, error) {
	var (
		req     request.Request
		pending bool
	)
	for round := 0; round < f.maxRounds; round++ {
		view, err := build(req)
		if err != nil {
			return nil, nil, err
		}
		if err := view.Update(); err != nil {
			return nil, nil, err
		}
		if req != nil && !pending {
			data, errs, err := view.ExtractData()
			if err != nil {
				return nil, nil, err
			}
			if len(errs) == 0 {
				return view, data, nil
			}
			for _, e := range errs {
				if e.Widget == nil {
					if err := f.driver.Info(ctx, "! "+e.Message); err != nil {
						return nil, nil, err
					}
				}
			}
		}
		values := request.NewValues(nil)
		pending, err = f.Fill(ctx, view.Widgets.Widgets(), values)
		if err != nil {
			return nil, nil, err
		}
		for _, group := range view.Groups {
			if group.Widgets == nil {
				continue
			}
			more, err := f.Fill(ctx, group.Widgets.Widgets(), values)
			if err != nil {
				return nil, nil, err
			}
			pending = pending || more
		}
		req = values
	}
	return nil, nil, ErrTooManyRounds
}

// Fill asks for every widget and adds the answers to into. pending is
// true when an answer pressed a multi widget button, so the form must be
// updated before it is extracted.
func (f *Filler) Fill(ctx context.Context, ws []form.Widget, into *request.Values) (pending bool, err error) {
	for _, w := range ws {
		more, err := f.fill(ctx, w, into)
		if err != nil {
			return false, err
		}
		pending = pending || more
	}
	return pending, nil
}

func (f *Filler) fill(ctx context.Context, w form.Widget, into *request.Values) (bool, error) {
	b := w.Common()
	if b.Mode == form.ModeDisplay {
		return false, nil
	}
	if b.Err != nil {
		if err := f.driver.Info(ctx, fmt.Sprintf("! %s: %s", b.Label, b.Err.Message)); err != nil {
			return false, err
		}
	}
	switch typed := w.(type) {
	case *form.SequenceWidget:
		return false, f.fillSequence(ctx, typed, into)
	case *form.MultiWidget:
		return f.fillMulti(ctx, typed, into)
	case *form.ObjectWidget:
		into.Set(typed.EmptyMarkerName(), "1")
		return f.Fill(ctx, typed.Widgets(), into)
	}
	return false, f.fillText(ctx, b, w.Value(), into)
}

func (f *Filler) fillText(ctx context.Context, b *form.Base, value any, into *request.Values) error {
	current := valueText(value)
	if b.Mode == form.ModeHidden {
		into.Set(b.Name, current)
		return nil
	}
	message := question(b)
	var (
		answer string
		err    error
	)
	switch b.Kind {
	case widgets.WidgetFile:
		return nil
	case widgets.WidgetPassword:
		answer, err = f.driver.Password(ctx, InputConfig{Message: message, Help: b.Title})
	case widgets.WidgetTextArea, widgets.WidgetTextLines:
		answer, err = f.driver.TextArea(ctx, TextAreaConfig{Message: message, Default: current, Help: b.Title})
	default:
		answer, err = f.driver.Input(ctx, InputConfig{Message: message, Default: current, Help: b.Title})
	}
	if err != nil {
		return err
	}
	into.Set(b.Name, answer)
	return nil
}

func (f *Filler) fillSequence(ctx context.Context, w *form.SequenceWidget, into *request.Values) error {
	into.Set(w.EmptyMarkerName(), "1")
	if w.Mode == form.ModeHidden {
		if tokens := w.Tokens(); len(tokens) > 0 {
			into.Set(w.Name, tokens...)
		}
		return nil
	}
	items, err := w.Items()
	if err != nil {
		return err
	}
	options := make([]string, 0, len(items))
	var selected []int
	for idx, item := range items {
		options = append(options, item.Content)
		if item.Selected {
			selected = append(selected, idx)
		}
	}

	if w.Kind == widgets.WidgetSingleCheckbox && len(items) > 0 {
		ok, err := f.driver.Confirm(ctx, ConfirmConfig{Message: question(&w.Base), Default: len(selected) > 0, Help: w.Title})
		if err != nil {
			return err
		}
		if ok {
			into.Set(w.Name, items[0].Value)
		}
		return nil
	}

	cfg := SelectConfig{Message: question(&w.Base), Options: options, Defaults: selected, Help: w.Title}
	if w.Multiple() {
		picked, err := f.driver.MultiSelect(ctx, cfg)
		if err != nil {
			return err
		}
		tokens := make([]string, 0, len(picked))
		for _, idx := range picked {
			if idx >= 0 && idx < len(items) {
				tokens = append(tokens, items[idx].Value)
			}
		}
		if len(tokens) > 0 {
			into.Set(w.Name, tokens...)
		}
		return nil
	}
	cfg.DefaultIndex = -1
	if len(selected) > 0 {
		cfg.DefaultIndex = selected[0]
	}
	idx, err := f.driver.Select(ctx, cfg)
	if err != nil {
		return err
	}
	if idx >= 0 && idx < len(items) {
		into.Set(w.Name, items[idx].Value)
	}
	return nil
}

func (f *Filler) fillMulti(ctx context.Context, w *form.MultiWidget, into *request.Values) (bool, error) {
	children := w.Widgets()
	keys := w.KeyWidgets()
	into.Set(w.CounterName(), fmt.Sprint(len(children)))
	for idx, child := range children {
		if idx < len(keys) && keys[idx] != nil {
			if _, err := f.fill(ctx, keys[idx], into); err != nil {
				return false, err
			}
		}
		if _, err := f.fill(ctx, child, into); err != nil {
			return false, err
		}
	}
	if w.Mode != form.ModeInput {
		return false, nil
	}

	if w.AllowRemoving && len(children) > 0 {
		options := make([]string, 0, len(children))
		for idx, child := range children {
			options = append(options, fmt.Sprintf("%d: %s", idx+1, valueText(child.Value())))
		}
		picked, err := f.driver.MultiSelect(ctx, SelectConfig{Message: "Remove entries of " + w.Label + "?", Options: options})
		if err != nil {
			return false, err
		}
		if len(picked) > 0 {
			for _, idx := range picked {
				if idx >= 0 && idx < len(children) {
					into.Set(form.RemoveName(children[idx]), "on")
				}
			}
			into.Set(w.RemoveButtonName(), "1")
			return true, nil
		}
	}
	if w.AllowAdding {
		add, err := f.driver.Confirm(ctx, ConfirmConfig{Message: "Add an entry to " + w.Label + "?"})
		if err != nil {
			return false, err
		}
		if add {
			into.Set(w.AddButtonName(), "1")
			return true, nil
		}
	}
	return false, nil
}

func question(b *form.Base) string {
	label := b.Label
	if label == "" {
		label = b.Name
	}
	if b.Required {
		return label + " *"
	}
	return label
}

func valueText(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	case []string:
		return strings.Join(typed, "\n")
	}
	return fmt.Sprint(v)
}
