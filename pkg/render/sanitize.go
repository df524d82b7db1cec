package render

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans text before it reaches templates marked |safe. Labels,
// messages and status lines keep no markup; rich display values keep the
// user generated content subset.
type Sanitizer struct {
	strict *bluemonday.Policy
	rich   *bluemonday.Policy
}

// NewSanitizer returns the default policies.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		strict: bluemonday.StrictPolicy(),
		rich:   bluemonday.UGCPolicy(),
	}
}

// Text strips all markup from s and escapes what is left.
func (s *Sanitizer) Text(in string) string {
	if in == "" {
		return ""
	}
	// StrictPolicy escapes the remaining text; unescape first so entities
	// written by callers are not escaped twice.
	return s.strict.Sanitize(html.UnescapeString(in))
}

// Rich keeps safe formatting markup of in.
func (s *Sanitizer) Rich(in string) string {
	if in == "" {
		return ""
	}
	return s.rich.Sanitize(in)
}
