package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formkit/pkg/schema"
)

// Built-in widget kinds exposed by the registry.
const (
	WidgetText           = "text"
	WidgetTextArea       = "textarea"
	WidgetPassword       = "password"
	WidgetTextLines      = "textlines"
	WidgetFile           = "file"
	WidgetSelect         = "select"
	WidgetRadio          = "radio"
	WidgetCheckbox       = "checkbox"
	WidgetSingleCheckbox = "singlecheckbox"
	WidgetMulti          = "multi"
	WidgetObject         = "object"
)

// Matcher decides whether a widget kind should handle the supplied field.
type Matcher func(field *schema.Field) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects widget kinds for fields based on explicit hints or
// registered matchers. Higher priority wins; ties go to the most recent
// registration. An empty registry resolves every field to WidgetText.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs a registry with the built-in widget matchers
// registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a widget matcher with the provided name and priority. Higher
// priority values take precedence. Callers should avoid duplicate names; the
// latest registration wins during resolution.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the widget kind for a field. The explicit Widget hint on
// the field is honoured before matcher evaluation.
func (r *Registry) Resolve(field *schema.Field) string {
	if field == nil {
		return WidgetText
	}
	if explicit := strings.TrimSpace(field.Widget); explicit != "" {
		return explicit
	}
	if r == nil {
		return WidgetText
	}
	r.mu.RLock()
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order > rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(field) {
			return entry.name
		}
	}
	return WidgetText
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetObject, 100, func(field *schema.Field) bool {
		return field.Kind == schema.KindObject
	})

	r.Register(WidgetSelect, 90, func(field *schema.Field) bool {
		if field.Kind == schema.KindChoice {
			return true
		}
		return field.IsCollection() && field.ValueType != nil && field.ValueType.Kind == schema.KindChoice
	})

	r.Register(WidgetRadio, 85, func(field *schema.Field) bool {
		return field.Kind == schema.KindBool
	})

	r.Register(WidgetTextLines, 80, func(field *schema.Field) bool {
		if field.Kind != schema.KindSet || field.ValueType == nil {
			return false
		}
		switch field.ValueType.Kind {
		case schema.KindText, "":
			return true
		}
		return false
	})

	r.Register(WidgetMulti, 70, func(field *schema.Field) bool {
		return field.IsCollection() || field.Kind == schema.KindDict
	})

	r.Register(WidgetFile, 60, func(field *schema.Field) bool {
		return field.Kind == schema.KindBytes
	})

	r.Register(WidgetPassword, 50, func(field *schema.Field) bool {
		return strings.EqualFold(strings.TrimSpace(field.Format), "password")
	})

	r.Register(WidgetTextArea, 40, func(field *schema.Field) bool {
		return field.Multiline
	})
}
