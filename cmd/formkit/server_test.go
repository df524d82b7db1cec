package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/goliatone/go-formkit"
	"github.com/goliatone/go-formkit/components/timezones"
	"github.com/goliatone/go-formkit/internal/store"
	"github.com/goliatone/go-formkit/pkg/form"
	"github.com/goliatone/go-formkit/pkg/schema"
	"github.com/goliatone/go-formkit/pkg/testsupport"
)

func taskSchema() *schema.Schema {
	return schema.MustNew("task",
		&schema.Field{Name: "title", Title: "Title", Kind: schema.KindText, Required: true},
		&schema.Field{Name: "priority", Title: "Priority", Kind: schema.KindInt},
		&schema.Field{Name: "status", Title: "Status", Kind: schema.KindChoice, Vocabulary: schema.SimpleVocabulary("open", "done")},
	)
}

func newTestServer(t *testing.T) (*Server, *store.Store, *store.Record) {
	t.Helper()

	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	catalog, err := schema.NewCatalog(taskSchema())
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	kit, err := formkit.NewKit(nil)
	if err != nil {
		t.Fatalf("NewKit: %v", err)
	}
	inserted, err := st.Insert("task", map[string]any{"title": "Write docs", "priority": 1, "status": "open"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	rec, err := st.Get(inserted.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	return NewServer(":0", st, catalog, kit, nil), st, rec
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Router.ServeHTTP(rr, req)
	return rr
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestServer_ShowRecord(t *testing.T) {
	srv, _, rec := newTestServer(t)
	path := fmt.Sprintf("/records/%d", rec.ID)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, path, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected html, got %q", ct)
	}
	doc := testsupport.ParseHTML(t, rr.Body.String())
	if got := testsupport.Attr(testsupport.MustFindByID(t, doc, "form-widgets-title"), "value"); got != "Write docs" {
		t.Fatalf("expected the stored title, got %q", got)
	}
	if got := testsupport.Attr(testsupport.MustFindByID(t, doc, "form-widgets-priority"), "value"); got != "1" {
		t.Fatalf("expected the stored priority, got %q", got)
	}
	version := testsupport.FindByName(doc, versionField)
	if len(version) != 1 || testsupport.Attr(version[0], "value") != strconv.Itoa(rec.Version) {
		t.Fatalf("expected the version hidden field")
	}
	forms := testsupport.FindAll(doc, func(n *html.Node) bool { return n.Data == "form" })
	if len(forms) != 1 || testsupport.Attr(forms[0], "action") != path {
		t.Fatalf("expected the form to post back to %s", path)
	}
}

func TestServer_ShowRecordJSON(t *testing.T) {
	srv, _, rec := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/records/%d", rec.ID), nil)
	req.Header.Set("Accept", "application/json, text/html;q=0.9")

	rr := serve(srv, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected json, got %q", ct)
	}
	if !json.Valid(rr.Body.Bytes()) {
		t.Fatalf("expected a JSON body, got %s", rr.Body.String())
	}
}

func TestServer_EditRecord(t *testing.T) {
	srv, st, rec := newTestServer(t)
	path := fmt.Sprintf("/records/%d", rec.ID)

	rr := serve(srv, postForm(path, url.Values{
		"form.widgets.title":    {"Ship it"},
		"form.widgets.priority": {"3"},
		versionField:            {strconv.Itoa(rec.Version)},
	}))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), form.StatusUpdated) {
		t.Fatalf("expected the updated status in %s", rr.Body.String())
	}

	stored, err := st.Get(rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Version != rec.Version+1 {
		t.Fatalf("expected version %d, got %d", rec.Version+1, stored.Version)
	}
	content := stored.Content(taskSchema())
	if diff := cmp.Diff(map[string]any{"title": "Ship it", "priority": 3}, map[string]any{"title": content["title"], "priority": content["priority"]}); diff != "" {
		t.Fatalf("stored data mismatch (-want +got):\n%s", diff)
	}
	doc := testsupport.ParseHTML(t, rr.Body.String())
	version := testsupport.FindByName(doc, versionField)
	if len(version) != 1 || testsupport.Attr(version[0], "value") != strconv.Itoa(stored.Version) {
		t.Fatalf("expected the new version in the re-rendered form")
	}
}

func TestServer_EditRecordErrors(t *testing.T) {
	srv, st, rec := newTestServer(t)
	path := fmt.Sprintf("/records/%d", rec.ID)

	rr := serve(srv, postForm(path, url.Values{
		"form.widgets.title":    {"Ship it"},
		"form.widgets.priority": {"soon"},
	}))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
	doc := testsupport.ParseHTML(t, rr.Body.String())
	testsupport.MustFindByID(t, doc, "form-widgets-priority-error")
	if got := testsupport.Attr(testsupport.MustFindByID(t, doc, "form-widgets-priority"), "value"); got != "soon" {
		t.Fatalf("expected the submitted value to be redisplayed, got %q", got)
	}

	stored, err := st.Get(rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Version != rec.Version || stored.Content(taskSchema())["title"] != "Write docs" {
		t.Fatalf("expected the record to be untouched")
	}
}

func TestServer_EditRecordStaleVersion(t *testing.T) {
	srv, _, rec := newTestServer(t)

	rr := serve(srv, postForm(fmt.Sprintf("/records/%d", rec.ID), url.Values{
		"form.widgets.title": {"Ship it"},
		versionField:         {strconv.Itoa(rec.Version + 5)},
	}))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestServer_EditRecordJSON(t *testing.T) {
	srv, st, rec := newTestServer(t)
	body := fmt.Sprintf(`{"form": {"widgets": {"title": "From JSON", "priority": 2}}, %q: %d}`, versionField, rec.Version)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/records/%d", rec.ID), strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept", "application/json")

	rr := serve(srv, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	stored, err := st.Get(rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := stored.Content(taskSchema())["title"]; got != "From JSON" {
		t.Fatalf("expected the JSON title to be stored, got %v", got)
	}
}

func TestServer_AddRecord(t *testing.T) {
	srv, st, _ := newTestServer(t)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/schemas/task/new", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	rr = serve(srv, postForm("/schemas/task/new", url.Values{"form.widgets.title": {""}}))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a missing title, got %d", rr.Code)
	}

	rr = serve(srv, postForm("/schemas/task/new", url.Values{
		"form.widgets.title":    {"Review"},
		"form.widgets.priority": {"2"},
	}))
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", rr.Code, rr.Body.String())
	}
	location := rr.Header().Get("Location")
	id, err := strconv.ParseInt(strings.TrimPrefix(location, "/records/"), 10, 64)
	if err != nil {
		t.Fatalf("unexpected location %q", location)
	}
	created, err := st.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	content := created.Content(taskSchema())
	if content["title"] != "Review" || content["priority"] != 2 {
		t.Fatalf("unexpected created content %v", content)
	}
}

func TestServer_Listing(t *testing.T) {
	srv, _, rec := newTestServer(t)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/schemas", nil))
	var names []string
	if err := json.Unmarshal(rr.Body.Bytes(), &names); err != nil {
		t.Fatalf("decode schemas: %v", err)
	}
	if diff := cmp.Diff([]string{"task"}, names); diff != "" {
		t.Fatalf("schemas mismatch (-want +got):\n%s", diff)
	}

	rr = serve(srv, httptest.NewRequest(http.MethodGet, "/schemas/task/records", nil))
	var records []recordSummary
	if err := json.Unmarshal(rr.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode records: %v", err)
	}
	if len(records) != 1 || records[0].ID != rec.ID {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestServer_NotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)
	for _, path := range []string{"/records/999", "/schemas/nope/new", "/schemas/nope/records"} {
		rr := serve(srv, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusNotFound {
			t.Fatalf("GET %s: expected 404, got %d", path, rr.Code)
		}
	}
}

func TestServer_TimezoneSearch(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/timezones?q=utc", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload struct {
		Data []timezones.Option `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Data) == 0 || payload.Data[0].Value != "UTC" {
		t.Fatalf("expected UTC first, got %+v", payload.Data)
	}
}
