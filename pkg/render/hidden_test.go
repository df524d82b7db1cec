package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/render"
)

func TestMergeHiddenFields(t *testing.T) {
	tests := []struct {
		name   string
		base   map[string]string
		fields []render.HiddenField
		want   map[string]string
	}{
		{name: "empty", want: nil},
		{
			name:   "blank names dropped",
			base:   map[string]string{" ": "x"},
			fields: []render.HiddenField{render.Hidden("", "y")},
			want:   nil,
		},
		{
			name:   "trims base names",
			base:   map[string]string{" _csrf ": "tok"},
			fields: []render.HiddenField{render.VersionField("_version", 2)},
			want:   map[string]string{"_csrf": "tok", "_version": "2"},
		},
		{
			name:   "last value wins",
			base:   map[string]string{"_version": "1"},
			fields: []render.HiddenField{render.VersionField("_version", 2), render.VersionField(" _version", 5)},
			want:   map[string]string{"_version": "5"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := render.MergeHiddenFields(tt.base, tt.fields...)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("merged fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeHiddenFieldsCopiesBase(t *testing.T) {
	base := map[string]string{"_csrf": "tok"}
	merged := render.MergeHiddenFields(base, render.VersionField("_version", 1))
	if _, ok := base["_version"]; ok {
		t.Fatalf("expected base untouched, got %v", base)
	}
	if len(merged) != 2 {
		t.Fatalf("expected two fields, got %v", merged)
	}
}

func TestSortedHiddenFields(t *testing.T) {
	got := render.SortedHiddenFields(map[string]string{
		"_version": "3",
		" _csrf":   "tok",
		"":         "skip",
		"next":     "/records",
	})
	want := []render.HiddenField{
		{Name: "_csrf", Value: "tok"},
		{Name: "_version", Value: "3"},
		{Name: "next", Value: "/records"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sorted fields mismatch (-want +got):\n%s", diff)
	}
	if render.SortedHiddenFields(nil) != nil {
		t.Fatalf("expected nil for no fields")
	}
}
