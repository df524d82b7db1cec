package timezones

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/schema"
)

func TestLoadZones_DedupesSortsAndIgnoresComments(t *testing.T) {
	input := strings.NewReader(`
# Comment
America/New_York
Europe/Paris
America/New_York

UTC
`)
	zones, err := LoadZones(input)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if diff := cmp.Diff([]string{"America/New_York", "Europe/Paris", "UTC"}, zones); diff != "" {
		t.Fatalf("zones mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultZones_ContainsCommonEntries(t *testing.T) {
	zones, err := DefaultZones()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(zones) < 200 {
		t.Fatalf("expected a reasonably sized list, got %d", len(zones))
	}
	for _, expected := range []string{"America/New_York", "Europe/Paris", "UTC"} {
		if !containsString(zones, expected) {
			t.Fatalf("expected zone %q to be present", expected)
		}
	}
}

func TestVocabulary_TitlesAndTokens(t *testing.T) {
	vocab, err := Vocabulary([]string{"America/New_York", "UTC"})
	if err != nil {
		t.Fatalf("Vocabulary: %v", err)
	}
	term, err := vocab.Term("America/New_York")
	if err != nil {
		t.Fatalf("Term: %v", err)
	}
	if term.Title != "America/New York" {
		t.Fatalf("unexpected title %q", term.Title)
	}
	if strings.Contains(term.Token, "/") {
		t.Fatalf("expected a token safe for request names, got %q", term.Token)
	}
	byToken, err := vocab.TermByToken(term.Token)
	if err != nil || byToken.Value != "America/New_York" {
		t.Fatalf("expected the token to resolve back, got %v (%v)", byToken.Value, err)
	}
}

func TestRegister_MakesVocabularyNamed(t *testing.T) {
	Register(WithZones([]string{"UTC", "Europe/Paris"}))
	catalog, err := schema.Parse([]byte(`
schemas:
  Meeting:
    fields:
      - name: zone
        kind: choice
        vocabulary: timezones
`), "meeting.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	meeting, _ := catalog.Schema("Meeting")
	zone, _ := meeting.Field("zone")
	bound, err := zone.Bind(nil)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if bound.Vocabulary.Len() != 2 || !bound.Vocabulary.Contains("Europe/Paris") {
		t.Fatalf("expected the registered zones")
	}
}

func TestField_ValidatesZones(t *testing.T) {
	field := Field("zone", WithZones([]string{"UTC"}))
	bound, err := field.Bind(nil)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := bound.Validate("UTC"); err != nil {
		t.Fatalf("expected UTC to validate: %v", err)
	}
	if err := bound.Validate("Mars/Olympus"); err == nil {
		t.Fatalf("expected an unknown zone to fail")
	}
}

func testTerms(t *testing.T, zones ...string) []schema.Term {
	t.Helper()
	vocab, err := Vocabulary(zones)
	if err != nil {
		t.Fatalf("Vocabulary: %v", err)
	}
	return vocab.Terms()
}

func zonesOf(terms []schema.Term) []string {
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		out = append(out, term.Value.(string))
	}
	return out
}

func TestSearch_CaseInsensitiveContains(t *testing.T) {
	terms := testTerms(t, "Europe/Paris", "America/New_York", "UTC")
	results := Search(terms, "eUrOpE/p", 10, NewOptions())
	if diff := cmp.Diff([]string{"Europe/Paris"}, zonesOf(results)); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestSearch_MatchesTitles(t *testing.T) {
	terms := testTerms(t, "America/New_York", "UTC")
	results := Search(terms, "new york", 10, NewOptions())
	if diff := cmp.Diff([]string{"America/New_York"}, zonesOf(results)); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestSearch_PrefixBeforeContains(t *testing.T) {
	terms := testTerms(t, "x/a/b", "a/b", "a/b/c", "c/d")
	results := Search(terms, "a/b", 10, NewOptions())
	if diff := cmp.Diff([]string{"a/b", "a/b/c", "x/a/b"}, zonesOf(results)); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestSearch_LimitApplied(t *testing.T) {
	terms := testTerms(t, "a", "b", "c", "d")
	opts := NewOptions(WithDefaultLimit(2), WithMaxLimit(3), WithEmptySearchMode(EmptySearchTop))
	if results := Search(terms, "", 0, opts); len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results := Search(terms, "", 10, opts); len(results) != 3 {
		t.Fatalf("expected the max limit to clamp, got %d", len(results))
	}
}

func TestSearchOptions_UsesTokens(t *testing.T) {
	terms := testTerms(t, "UTC")
	results := SearchOptions(terms, "utc", 10, NewOptions())
	if diff := cmp.Diff([]Option{{Value: "UTC", Label: "UTC"}}, results); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestMountPath_JoinsBasePath(t *testing.T) {
	if got := MountPath("/admin"); got != "/admin/api/timezones" {
		t.Fatalf("unexpected mount path: %q", got)
	}
	if got := MountPath("admin"); got != "/admin/api/timezones" {
		t.Fatalf("unexpected mount path: %q", got)
	}
	if got := MountPath("/admin/", WithRoutePath("api/tz")); got != "/admin/api/tz" {
		t.Fatalf("unexpected mount path: %q", got)
	}
}

func containsString(haystack []string, needle string) bool {
	for _, item := range haystack {
		if item == needle {
			return true
		}
	}
	return false
}
