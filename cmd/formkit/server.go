package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/goliatone/go-formkit"
	"github.com/goliatone/go-formkit/components/timezones"
	"github.com/goliatone/go-formkit/internal/store"
	"github.com/goliatone/go-formkit/pkg/form"
	"github.com/goliatone/go-formkit/pkg/render"
	"github.com/goliatone/go-formkit/pkg/request"
	"github.com/goliatone/go-formkit/pkg/schema"
)

// versionField carries the record version a form was rendered from.
const versionField = "_version"

// Server edits the records of a store through forms built from a catalog.
type Server struct {
	*http.Server
	Router *mux.Router

	store   *store.Store
	catalog *schema.Catalog
	kit     *formkit.Kit
	log     *zap.Logger
}

// NewServer returns a server listening on addr. Handlers are registered on
// Router, so tests can serve requests without listening.
func NewServer(addr string, st *store.Store, catalog *schema.Catalog, kit *formkit.Kit, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &Server{
		Server: &http.Server{
			Addr:         addr,
			WriteTimeout: 15 * time.Second,
			ReadTimeout:  15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Router:  mux.NewRouter(),
		store:   st,
		catalog: catalog,
		kit:     kit,
		log:     logger,
	}
	srv.Handler = srv.Router
	srv.routes()
	return srv
}

func (s *Server) routes() {
	s.Router.Use(s.logRequests)
	s.Router.HandleFunc("/schemas", s.listSchemas).Methods(http.MethodGet)
	s.Router.HandleFunc("/schemas/{schema}/records", s.listRecords).Methods(http.MethodGet)
	s.Router.HandleFunc("/schemas/{schema}/new", s.addRecord).Methods(http.MethodGet, http.MethodPost)
	s.Router.HandleFunc("/records/{id:[0-9]+}", s.showRecord).Methods(http.MethodGet)
	s.Router.HandleFunc("/records/{id:[0-9]+}", s.editRecord).Methods(http.MethodPost)
	timezones.RegisterRoutes(s.Router, "")
}

// Start serves in the background.
func (s *Server) Start() {
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server stopped", zap.Error(err))
		}
	}()
	s.log.Info("listening", zap.String("addr", s.Addr))
}

// Stop shuts the server down, waiting up to 30 seconds for open requests.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)))
	})
}

func (s *Server) listSchemas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Names())
}

type recordSummary struct {
	ID      int64          `json:"id"`
	Version int            `json:"version"`
	Data    map[string]any `json:"data"`
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	sch, ok := s.schemaOf(w, mux.Vars(r)["schema"])
	if !ok {
		return
	}
	records, err := s.store.List(sch.Name)
	if err != nil {
		s.fail(w, err)
		return
	}
	out := make([]recordSummary, 0, len(records))
	for _, rec := range records {
		out = append(out, recordSummary{ID: rec.ID, Version: rec.Version, Data: rec.Content(sch)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) showRecord(w http.ResponseWriter, r *http.Request) {
	rec, sch, ok := s.recordOf(w, r)
	if !ok {
		return
	}
	f, err := s.kit.NewForm(sch, rec.Content(sch), nil)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := f.Update(); err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, r, http.StatusOK, f, render.VersionField(versionField, rec.Version))
}

func (s *Server) editRecord(w http.ResponseWriter, r *http.Request) {
	rec, sch, ok := s.recordOf(w, r)
	if !ok {
		return
	}
	req, err := readRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if submitted := firstValue(req, versionField); submitted != "" && submitted != strconv.Itoa(rec.Version) {
		http.Error(w, fmt.Sprintf("record %d changed since version %s", rec.ID, submitted), http.StatusConflict)
		return
	}

	content := rec.Content(sch)
	f, err := s.kit.NewForm(sch, content, req)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := f.Update(); err != nil {
		s.fail(w, err)
		return
	}
	changes, err := f.Apply()
	if err != nil {
		s.fail(w, err)
		return
	}
	if len(f.Errors) > 0 {
		s.respond(w, r, http.StatusUnprocessableEntity, f, render.VersionField(versionField, rec.Version))
		return
	}
	if len(changes) > 0 {
		rec.Data = content
		if err := s.store.Update(rec); err != nil {
			if errors.Is(err, store.ErrConflict) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			s.fail(w, err)
			return
		}
		s.log.Info("record updated",
			zap.Int64("id", rec.ID),
			zap.Int("version", rec.Version),
			zap.Strings("fields", changes[sch.Name]))
	}
	s.respond(w, r, http.StatusOK, f, render.VersionField(versionField, rec.Version))
}

func (s *Server) addRecord(w http.ResponseWriter, r *http.Request) {
	sch, ok := s.schemaOf(w, mux.Vars(r)["schema"])
	if !ok {
		return
	}
	fields, err := form.NewFields(sch)
	if err != nil {
		s.fail(w, err)
		return
	}

	var req request.Request
	if r.Method == http.MethodPost {
		values, err := readRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		req = values
	}
	var created *store.Record
	f := form.NewAddForm(req, fields,
		func(map[string]any) (any, error) { return map[string]any{}, nil },
		func(obj any) error {
			rec, err := s.store.Insert(sch.Name, obj.(map[string]any))
			created = rec
			return err
		},
		form.WithEnv(s.kit.Env),
		form.WithLabel("New "+sch.Name),
	)
	if err := f.Update(); err != nil {
		s.fail(w, err)
		return
	}
	if req == nil {
		s.respond(w, r, http.StatusOK, f.Form)
		return
	}
	if _, err := f.Handle(); err != nil {
		s.fail(w, err)
		return
	}
	if created == nil {
		s.respond(w, r, http.StatusUnprocessableEntity, f.Form)
		return
	}
	s.log.Info("record added", zap.Int64("id", created.ID), zap.String("schema", sch.Name))
	http.Redirect(w, r, fmt.Sprintf("/records/%d", created.ID), http.StatusSeeOther)
}

func (s *Server) schemaOf(w http.ResponseWriter, name string) (*schema.Schema, bool) {
	sch, ok := s.catalog.Schema(name)
	if !ok {
		http.Error(w, fmt.Sprintf("schema %q not found", name), http.StatusNotFound)
	}
	return sch, ok
}

func (s *Server) recordOf(w http.ResponseWriter, r *http.Request) (*store.Record, *schema.Schema, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid record id", http.StatusBadRequest)
		return nil, nil, false
	}
	rec, err := s.store.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return nil, nil, false
		}
		s.fail(w, err)
		return nil, nil, false
	}
	sch, ok := s.schemaOf(w, rec.SchemaName)
	if !ok {
		return nil, nil, false
	}
	return rec, sch, true
}

// respond renders f with the renderer the client accepts. HTML forms post
// back to the current path and carry hidden.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, code int, f *form.Form, hidden ...render.HiddenField) {
	renderer := s.negotiate(r.Header.Get("Accept"))
	if html, ok := renderer.(*render.HTML); ok {
		renderer = html.With(render.WithAction(r.URL.Path), render.WithHiddenFields(hidden...))
	}
	body, err := renderer.RenderForm(f)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", renderer.ContentType())
	w.WriteHeader(code)
	io.WriteString(w, body)
}

func (s *Server) negotiate(accept string) render.Renderer {
	for _, part := range strings.Split(accept, ",") {
		want, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		renderer, err := s.kit.Renderers.ForContentType(want)
		if err != nil {
			continue
		}
		if got, _, _ := mime.ParseMediaType(renderer.ContentType()); got == want {
			return renderer
		}
	}
	return s.kit.HTML
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.log.Error("request failed", zap.Error(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// readRequest collects the submitted values of a form post or a JSON body.
func readRequest(r *http.Request) (*request.Values, error) {
	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if contentType != "application/json" {
		return request.FromHTTP(r)
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, request.DefaultMaxMemory))
	if err != nil {
		return nil, err
	}
	return request.FromJSON(data)
}

func firstValue(req request.Request, name string) string {
	value, ok := req.Get(name)
	if !ok {
		return ""
	}
	if values := request.Strings(value); len(values) > 0 {
		return values[0]
	}
	return ""
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
