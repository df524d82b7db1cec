package timezones

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
)

type handlerResponse struct {
	Data []Option `json:"data"`
}

func serveJSON(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, handlerResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var payload handlerResponse
	if rec.Code == http.StatusOK {
		if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return rec, payload
}

func TestNewHandler_EmptyQueryReturnsEmptyDataArray(t *testing.T) {
	h := NewHandler(WithZones([]string{"UTC"}), WithEmptySearchMode(EmptySearchNone))

	rec, payload := serveJSON(t, h, "/api/timezones")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected JSON content-type, got %q", ct)
	}
	if payload.Data == nil || len(payload.Data) != 0 {
		t.Fatalf("expected empty data array, got %#v", payload.Data)
	}
}

func TestNewHandler_SearchAndLimitClamped(t *testing.T) {
	zones := []string{"America/Chicago", "America/New_York", "Europe/Paris", "UTC"}
	h := NewHandler(WithZones(zones), WithMaxLimit(2))

	_, payload := serveJSON(t, h, "/api/timezones?q=America&limit=10")
	if len(payload.Data) != 2 {
		t.Fatalf("expected 2 results, got %#v", payload.Data)
	}
	vocab, err := Vocabulary(zones)
	if err != nil {
		t.Fatalf("Vocabulary: %v", err)
	}
	for idx, zone := range []string{"America/Chicago", "America/New_York"} {
		term, _ := vocab.Term(zone)
		if payload.Data[idx].Value != term.Token || payload.Data[idx].Label != term.Title {
			t.Fatalf("unexpected option %d: %#v", idx, payload.Data[idx])
		}
	}
}

func TestNewHandler_CustomQueryParams(t *testing.T) {
	h := NewHandler(WithZones([]string{"UTC", "Europe/Paris"}), WithSearchParam("search"), WithLimitParam("l"))

	_, payload := serveJSON(t, h, "/api/timezones?search=utc&l=5")
	if len(payload.Data) != 1 || payload.Data[0].Value != "UTC" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestNewHandler_GuardRejects(t *testing.T) {
	h := NewHandler(
		WithZones([]string{"UTC"}),
		WithGuard(func(r *http.Request) error {
			return StatusError{Code: http.StatusUnauthorized}
		}),
	)
	if rec, _ := serveJSON(t, h, "/api/timezones?q=utc"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestNewHandler_MethodNotAllowed(t *testing.T) {
	h := NewHandler(WithZones([]string{"UTC"}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/timezones?q=utc", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}
}

func TestNewHandler_NegativeLimitReturnsEmptyDataArray(t *testing.T) {
	h := NewHandler(WithZones([]string{"UTC"}))

	_, payload := serveJSON(t, h, "/api/timezones?q=utc&limit=-1")
	if payload.Data == nil || len(payload.Data) != 0 {
		t.Fatalf("expected empty data array, got %#v", payload.Data)
	}
}

func TestRegisterRoutes_RegistersHandler(t *testing.T) {
	router := mux.NewRouter()
	path := RegisterRoutes(router, "/admin", WithZones([]string{"UTC"}))
	if path != "/admin/api/timezones" {
		t.Fatalf("unexpected registered path: %q", path)
	}

	rec, payload := serveJSON(t, router, path+"?q=utc&limit=1")
	if rec.Code != http.StatusOK || len(payload.Data) != 1 {
		t.Fatalf("expected one result, got %d %#v", rec.Code, payload.Data)
	}
}
