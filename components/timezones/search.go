package timezones

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formkit/pkg/schema"
)

// Option is one search result. Value is the token a select submits for
// the zone.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Search returns up to limit terms whose zone or title contains query,
// ignoring case. Prefix matches come first, then zones in order.
func Search(terms []schema.Term, query string, limit int, opts Options) []schema.Term {
	limit = clampLimit(limit, opts)
	if limit == 0 {
		return nil
	}

	query = strings.TrimSpace(query)
	if query == "" {
		if opts.EmptySearchMode != EmptySearchTop {
			return nil
		}
		if len(terms) <= limit {
			return append([]schema.Term{}, terms...)
		}
		return append([]schema.Term{}, terms[:limit]...)
	}

	q := strings.ToLower(query)
	matches := make([]matchedTerm, 0, 32)
	for _, term := range terms {
		zone := strings.ToLower(fmt.Sprint(term.Value))
		label := strings.ToLower(term.Title)
		if !strings.Contains(zone, q) && !strings.Contains(label, q) {
			continue
		}
		matches = append(matches, matchedTerm{
			term:     term,
			zone:     zone,
			isPrefix: strings.HasPrefix(zone, q) || strings.HasPrefix(label, q),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].isPrefix != matches[j].isPrefix {
			return matches[i].isPrefix
		}
		return matches[i].zone < matches[j].zone
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]schema.Term, 0, len(matches))
	for _, match := range matches {
		out = append(out, match.term)
	}
	return out
}

// SearchOptions is Search mapped to options.
func SearchOptions(terms []schema.Term, query string, limit int, opts Options) []Option {
	results := Search(terms, query, limit, opts)
	out := make([]Option, 0, len(results))
	for _, term := range results {
		out = append(out, Option{Value: term.Token, Label: term.Title})
	}
	return out
}

type matchedTerm struct {
	term     schema.Term
	zone     string
	isPrefix bool
}
