package form

import (
	"encoding/json"

	"github.com/goliatone/go-formkit/pkg/validation"
)

// WidgetState is the JSON view of one widget.
type WidgetState struct {
	Name     string        `json:"name"`
	ID       string        `json:"id"`
	Kind     string        `json:"kind"`
	Mode     Mode          `json:"mode"`
	Label    string        `json:"label,omitempty"`
	Required bool          `json:"required,omitempty"`
	Value    any           `json:"value,omitempty"`
	Error    string        `json:"error,omitempty"`
	Items    []Item        `json:"items,omitempty"`
	Widgets  []WidgetState `json:"widgets,omitempty"`
	Keys     []WidgetState `json:"keys,omitempty"`
}

// State is the JSON view of a form after update and extraction.
type State struct {
	Prefix  string             `json:"prefix"`
	Label   string             `json:"label,omitempty"`
	Status  string             `json:"status,omitempty"`
	Widgets []WidgetState      `json:"widgets"`
	Issues  []validation.Issue `json:"issues,omitempty"`
}

// StateOf describes w and its children.
func StateOf(w Widget) WidgetState {
	b := w.Common()
	state := WidgetState{
		Name:     b.Name,
		ID:       b.ID,
		Kind:     b.Kind,
		Mode:     b.Mode,
		Label:    b.Label,
		Required: b.Required,
	}
	if b.Err != nil {
		state.Error = b.Err.Message
	}
	switch typed := w.(type) {
	case *SequenceWidget:
		state.Value = typed.Tokens()
		if items, err := typed.Items(); err == nil {
			state.Items = items
		}
	case *MultiWidget:
		state.Widgets = statesOf(typed.Widgets())
		if typed.IsDict() {
			state.Keys = statesOf(typed.KeyWidgets())
		}
	case *ObjectWidget:
		state.Widgets = statesOf(typed.Widgets())
	default:
		state.Value = w.Value()
	}
	return state
}

func statesOf(widgets []Widget) []WidgetState {
	if len(widgets) == 0 {
		return nil
	}
	out := make([]WidgetState, 0, len(widgets))
	for _, w := range widgets {
		out = append(out, StateOf(w))
	}
	return out
}

// State describes the form, its group widgets and the issues of the last
// extraction.
func (f *Form) State() State {
	state := State{Prefix: f.prefix, Label: f.Label, Status: f.Status, Widgets: []WidgetState{}}
	if f.Widgets != nil {
		state.Widgets = append(state.Widgets, statesOf(f.Widgets.Widgets())...)
	}
	for _, group := range f.Groups {
		if group.Widgets != nil {
			state.Widgets = append(state.Widgets, statesOf(group.Widgets.Widgets())...)
		}
	}
	for _, view := range f.Errors {
		path := ""
		if view.Widget != nil {
			path = view.Widget.Common().Name
		}
		issue := validation.IssueFromError(path, view.Err)
		issue.Message = view.Message
		state.Issues = append(state.Issues, issue)
	}
	return state
}

// MarshalJSON encodes the form State.
func (f *Form) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.State())
}
