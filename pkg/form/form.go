package form

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formkit/pkg/datamanager"
	"github.com/goliatone/go-formkit/pkg/request"
	"github.com/goliatone/go-formkit/pkg/schema"
)

// DefaultPrefix is the request name prefix of a form.
const DefaultPrefix = "form."

// Status messages set by the form handlers.
const (
	StatusErrors    = "There were some errors."
	StatusUpdated   = "Data successfully updated."
	StatusNoChanges = "No changes were applied."
	StatusAdded     = "Item added successfully."
)

var defaultEnv = sync.OnceValue(func() *Env { return NewEnv() })

// Option customises a form.
type Option func(*Form)

// WithPrefix sets the request name prefix.
func WithPrefix(prefix string) Option {
	return func(f *Form) {
		f.prefix = prefix
	}
}

// WithMode sets the mode of every widget without a field override.
func WithMode(mode Mode) Option {
	return func(f *Form) {
		f.Mode = mode
	}
}

// WithIgnoreContext stops widgets from reading the content.
func WithIgnoreContext(ignore bool) Option {
	return func(f *Form) {
		f.IgnoreContext = ignore
	}
}

// WithIgnoreRequest stops widgets from reading the request.
func WithIgnoreRequest(ignore bool) Option {
	return func(f *Form) {
		f.IgnoreRequest = ignore
	}
}

// WithIgnoreReadonly renders read only fields as input widgets.
func WithIgnoreReadonly(ignore bool) Option {
	return func(f *Form) {
		f.IgnoreReadonly = ignore
	}
}

// WithIgnoreRequiredOnExtract skips the required check while extracting.
func WithIgnoreRequiredOnExtract(ignore bool) Option {
	return func(f *Form) {
		f.IgnoreRequiredOnExtract = ignore
	}
}

// WithEnv sets the environment. Forms share a process wide default Env
// otherwise.
func WithEnv(env *Env) Option {
	return func(f *Form) {
		if env != nil {
			f.env = env
		}
	}
}

// WithLabel sets the form label.
func WithLabel(label string) Option {
	return func(f *Form) {
		f.Label = label
	}
}

// WithGroups adds field groups rendered and processed with the form.
func WithGroups(groups ...*Group) Option {
	return func(f *Form) {
		f.Groups = append(f.Groups, groups...)
	}
}

// Form edits content through the widgets of its fields. A form is request
// scoped: build one per request.
type Form struct {
	Label   string
	Mode    Mode
	Content any
	Request request.Request

	IgnoreContext           bool
	IgnoreRequest           bool
	IgnoreReadonly          bool
	IgnoreRequiredOnExtract bool

	Groups []*Group
	// Widgets is the widget manager, set by Update.
	Widgets *Manager
	// Errors holds the error views of the last extraction.
	Errors Errors
	// Status is the outcome message of the last handler run.
	Status string

	prefix string
	fields *Fields
	env    *Env
}

// New returns a form editing content with the request values of req.
func New(content any, req request.Request, fields *Fields, opts ...Option) *Form {
	if req == nil {
		req = request.Empty
	}
	if fields == nil {
		fields = &Fields{byName: map[string]*Field{}}
	}
	f := &Form{
		Mode:    ModeInput,
		Content: content,
		Request: req,
		prefix:  DefaultPrefix,
		fields:  fields,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.env == nil {
		f.env = defaultEnv()
	}
	for _, group := range f.Groups {
		group.parent = f
	}
	return f
}

// Prefix returns the request name prefix.
func (f *Form) Prefix() string { return f.prefix }

// Fields returns the form fields.
func (f *Form) Fields() *Fields { return f.fields }

// Env returns the environment of the form.
func (f *Form) Env() *Env { return f.env }

func (f *Form) newManager(view View, content any) *Manager {
	m := NewManager(f.env, view, f.Request, content)
	m.Mode = f.Mode
	m.IgnoreContext = f.IgnoreContext
	m.IgnoreRequest = f.IgnoreRequest
	m.IgnoreReadonly = f.IgnoreReadonly
	m.IgnoreRequiredOnExtract = f.IgnoreRequiredOnExtract
	return m
}

// Update builds the widgets of the form and its groups and resolves their
// values.
func (f *Form) Update() error {
	if f.Widgets == nil {
		f.Widgets = f.newManager(f, f.Content)
	}
	if err := f.Widgets.Update(); err != nil {
		return err
	}
	for _, group := range f.Groups {
		group.parent = f
		if err := group.update(); err != nil {
			return fmt.Errorf("form: group %q: %w", group.Label, err)
		}
	}
	return nil
}

// Widget returns the widget of the short field name, searching groups too.
func (f *Form) Widget(name string) (Widget, bool) {
	if f.Widgets != nil {
		if w, ok := f.Widgets.Get(name); ok {
			return w, true
		}
	}
	for _, group := range f.Groups {
		if group.Widgets == nil {
			continue
		}
		if w, ok := group.Widgets.Get(name); ok {
			return w, true
		}
	}
	return nil, false
}

// ExtractData extracts the form and group widgets. Data holds the fields
// that passed; the error is reserved for configuration failures.
func (f *Form) ExtractData() (map[string]any, Errors, error) {
	if f.Widgets == nil {
		return nil, nil, errors.New("form: extract before update")
	}
	data, errs, err := f.Widgets.Extract()
	if err != nil {
		return nil, nil, err
	}
	for _, group := range f.Groups {
		if group.Widgets == nil {
			continue
		}
		groupData, groupErrs, err := group.Widgets.Extract()
		if err != nil {
			return nil, nil, err
		}
		for name, value := range groupData {
			data[name] = value
		}
		errs = append(errs, groupErrs...)
	}
	f.Errors = errs
	f.env.logger().Debug("form extracted",
		zap.String("form", f.prefix),
		zap.Int("fields", len(data)),
		zap.Int("errors", len(errs)))
	return data, errs, nil
}

// Changes maps schema names to the short names of the fields changed.
type Changes map[string][]string

func (c Changes) merge(other Changes) {
	for iface, names := range other {
		c[iface] = append(c[iface], names...)
	}
}

// ApplyChanges stores data on the content of the form and of its groups
// and reports what changed.
func (f *Form) ApplyChanges(data map[string]any) (Changes, error) {
	changes, err := applyChanges(f.env, f.Widgets, f.fields, f.Content, data)
	if err != nil {
		return nil, err
	}
	for _, group := range f.Groups {
		groupChanges, err := applyChanges(f.env, group.Widgets, group.fields, group.content(), data)
		if err != nil {
			return nil, err
		}
		changes.merge(groupChanges)
	}
	return changes, nil
}

// applyChanges writes every value of data that differs from the stored
// one. Display widgets and absent names are skipped. Staged object changes
// are applied first and the object is always written.
func applyChanges(env *Env, m *Manager, fields *Fields, content any, data map[string]any) (Changes, error) {
	changes := Changes{}
	for _, field := range fields.Values() {
		value, ok := data[field.Name]
		if !ok {
			continue
		}
		if m != nil {
			if w, ok := m.Get(field.Name); ok && w.Common().Mode == ModeDisplay {
				continue
			}
		}
		target := content
		if field.Interface != nil {
			target = field.Interface.Adapt(content)
		}
		dm, err := env.DataManager(target, field.Def)
		if err != nil {
			return nil, fmt.Errorf("form: apply %q: %w", field.Name, err)
		}
		value, err = commit(value)
		if err != nil {
			return nil, fmt.Errorf("form: apply %q: %w", field.Name, err)
		}
		if !changed(dm, field.Def, value) {
			continue
		}
		if err := dm.Set(value); err != nil {
			return nil, fmt.Errorf("form: apply %q: %w", field.Name, err)
		}
		iface := ""
		if field.Interface != nil {
			iface = field.Interface.Name
		}
		changes[iface] = append(changes[iface], field.Name)
	}
	return changes, nil
}

func changed(dm datamanager.DataManager, field *schema.Field, value any) bool {
	if !dm.CanAccess() || field.Kind == schema.KindObject {
		return true
	}
	old, ok, err := dm.Query()
	if err != nil || !ok {
		return true
	}
	return !reflect.DeepEqual(old, value)
}

// Apply runs the edit handler: extract, then store the data when every
// field passed. Status reports the outcome.
func (f *Form) Apply() (Changes, error) {
	data, errs, err := f.ExtractData()
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		f.Status = StatusErrors
		return nil, nil
	}
	changes, err := f.ApplyChanges(data)
	if err != nil {
		return nil, err
	}
	if len(changes) > 0 {
		f.Status = StatusUpdated
	} else {
		f.Status = StatusNoChanges
	}
	return changes, nil
}

// Render renders the form through the Env renderer.
func (f *Form) Render() (string, error) {
	if f.env == nil || f.env.Renderer == nil {
		return "", ErrNoRenderer
	}
	return f.env.Renderer.RenderForm(f)
}

// Group is a labelled subset of fields rendered inside a form. It shares
// the prefix and request of the form and may edit its own content.
type Group struct {
	Label   string
	Content any
	Widgets *Manager

	fields *Fields
	parent *Form
}

// NewGroup returns a group of fields. A nil content edits the content of
// the form.
func NewGroup(label string, fields *Fields, content any) *Group {
	if fields == nil {
		fields = &Fields{byName: map[string]*Field{}}
	}
	return &Group{Label: label, Content: content, fields: fields}
}

// Prefix returns the prefix of the owning form.
func (g *Group) Prefix() string {
	if g.parent == nil {
		return DefaultPrefix
	}
	return g.parent.Prefix()
}

// Fields returns the group fields.
func (g *Group) Fields() *Fields { return g.fields }

func (g *Group) content() any {
	if g.Content != nil || g.parent == nil {
		return g.Content
	}
	return g.parent.Content
}

func (g *Group) update() error {
	if g.Widgets == nil {
		g.Widgets = g.parent.newManager(g, g.content())
	}
	return g.Widgets.Update()
}

// AddForm creates a new object from the extracted data instead of editing
// existing content. It never reads the context.
type AddForm struct {
	*Form
	// Factory creates the object to populate.
	Factory func(data map[string]any) (any, error)
	// Add stores the populated object.
	Add func(obj any) error
	// Created is the object added by the last successful Handle.
	Created any
}

// NewAddForm returns an add form over fields.
func NewAddForm(req request.Request, fields *Fields, factory func(map[string]any) (any, error), add func(any) error, opts ...Option) *AddForm {
	opts = append(opts, WithIgnoreContext(true))
	return &AddForm{Form: New(nil, req, fields, opts...), Factory: factory, Add: add}
}

// Handle extracts the data and, when every field passed, creates,
// populates and adds the object.
func (f *AddForm) Handle() (any, error) {
	data, errs, err := f.ExtractData()
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		f.Status = StatusErrors
		return nil, nil
	}
	if f.Factory == nil {
		return nil, errors.New("form: add form has no factory")
	}
	obj, err := f.Factory(data)
	if err != nil {
		return nil, err
	}
	if _, err := applyChanges(f.env, f.Widgets, f.fields, obj, data); err != nil {
		return nil, err
	}
	for _, group := range f.Groups {
		if _, err := applyChanges(f.env, group.Widgets, group.fields, obj, data); err != nil {
			return nil, err
		}
	}
	if f.Add != nil {
		if err := f.Add(obj); err != nil {
			return nil, err
		}
	}
	f.Created = obj
	f.Status = StatusAdded
	return obj, nil
}
