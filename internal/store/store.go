// Package store persists form content as schema tagged records in sqlite.
package store

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"xorm.io/xorm"
	"xorm.io/xorm/log"
	"xorm.io/xorm/names"

	"github.com/goliatone/go-formkit/pkg/schema"
)

var (
	// ErrNotFound is returned for unknown record ids.
	ErrNotFound = errors.New("store: record not found")
	// ErrConflict is returned when a record changed since it was read.
	ErrConflict = errors.New("store: record was modified concurrently")
)

// Record is the stored content of one form. Data holds the field values
// keyed by field name.
type Record struct {
	ID         int64          `xorm:"pk autoincr"`
	SchemaName string         `xorm:"index notnull"`
	Data       map[string]any `xorm:"json"`
	Version    int            `xorm:"version"`
	Created    time.Time      `xorm:"created"`
	Updated    time.Time      `xorm:"updated"`
}

// Store is a record store backed by xorm.
type Store struct {
	engine *xorm.Engine
}

// Option configures the store.
type Option func(*xorm.Engine)

// WithDebug logs the SQL statements.
func WithDebug(debug bool) Option {
	return func(engine *xorm.Engine) {
		engine.ShowSQL(debug)
		if debug {
			engine.Logger().SetLevel(log.LOG_DEBUG)
		}
	}
}

// Open returns a store for the sqlite db file at path, created when
// missing. ":memory:" keeps the data in memory.
func Open(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("store: path is required")
	}
	engine, err := xorm.NewEngine("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	engine.SetMapper(names.GonicMapper{})
	engine.Logger().SetLevel(log.LOG_WARNING)
	for _, opt := range opts {
		if opt != nil {
			opt(engine)
		}
	}
	if path == ":memory:" {
		// every pooled connection would open its own database
		engine.SetMaxOpenConns(1)
	}
	if err := engine.Sync(new(Record)); err != nil {
		_ = engine.Close()
		return nil, fmt.Errorf("store: sync: %w", err)
	}
	return &Store{engine: engine}, nil
}

// Close the database.
func (s *Store) Close() error {
	return s.engine.Close()
}

// Insert stores data as a new record of schemaName. Upon successful return
// the record has its id and version.
func (s *Store) Insert(schemaName string, data map[string]any) (*Record, error) {
	if data == nil {
		data = map[string]any{}
	}
	rec := &Record{SchemaName: schemaName, Data: data}
	if _, err := s.engine.Insert(rec); err != nil {
		return nil, fmt.Errorf("store: insert: %w", err)
	}
	return rec, nil
}

// Get retrieves a record by id.
func (s *Store) Get(id int64) (*Record, error) {
	rec := &Record{ID: id}
	has, err := s.engine.Get(rec)
	if err != nil {
		return nil, fmt.Errorf("store: get %d: %w", id, err)
	}
	if !has {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return rec, nil
}

// Update writes the data of rec. rec.Version must be the version that was
// read; rec is reloaded on success.
func (s *Store) Update(rec *Record) error {
	affected, err := s.engine.ID(rec.ID).MustCols("data").Update(rec)
	if err != nil {
		return fmt.Errorf("store: update %d: %w", rec.ID, err)
	}
	if affected == 0 {
		if _, err := s.Get(rec.ID); err != nil {
			return err
		}
		return fmt.Errorf("%w: %d", ErrConflict, rec.ID)
	}
	fresh, err := s.Get(rec.ID)
	if err != nil {
		return err
	}
	*rec = *fresh
	return nil
}

// List returns the records of schemaName by id.
func (s *Store) List(schemaName string) ([]Record, error) {
	var out []Record
	if err := s.engine.Where("schema_name = ?", schemaName).Asc("id").Find(&out); err != nil {
		return nil, fmt.Errorf("store: list %s: %w", schemaName, err)
	}
	return out, nil
}

// Content returns the data of rec with numbers restored to the kinds of
// the fields of s. JSON storage reads every number back as float64.
func (r *Record) Content(s *schema.Schema) map[string]any {
	out := make(map[string]any, len(r.Data))
	for name, value := range r.Data {
		out[name] = value
	}
	if s == nil {
		return out
	}
	for _, field := range s.Fields() {
		if value, ok := out[field.Name]; ok {
			out[field.Name] = restore(field, value)
		}
	}
	return out
}

func restore(field *schema.Field, value any) any {
	if field == nil {
		return value
	}
	switch typed := value.(type) {
	case float64:
		if field.Kind == schema.KindInt && typed == math.Trunc(typed) {
			return int(typed)
		}
	case []any:
		out := make([]any, len(typed))
		for idx, item := range typed {
			out[idx] = restore(field.ValueType, item)
		}
		return out
	case map[string]any:
		if field.Schema == nil {
			return typed
		}
		out := make(map[string]any, len(typed))
		for name, item := range typed {
			sub, _ := field.Schema.Field(name)
			out[name] = restore(sub, item)
		}
		return out
	}
	return value
}
