package timezones

import (
	"strings"
	"sync"

	"github.com/goliatone/go-formkit/pkg/schema"
)

// Name is the vocabulary name Register uses.
const Name = "timezones"

// Vocabulary returns a vocabulary with one term per zone. Titles read
// "America/New York" for "America/New_York".
func Vocabulary(zones []string) (*schema.Vocabulary, error) {
	terms := make([]schema.Term, 0, len(zones))
	for _, zone := range zones {
		terms = append(terms, schema.Term{Value: zone, Title: title(zone)})
	}
	return schema.NewVocabulary(terms...)
}

// Source returns a vocabulary source over the configured zones, or the
// embedded list. The vocabulary is built once.
func Source(fns ...OptionFn) schema.VocabularySource {
	opts := NewOptions(fns...)
	build := sync.OnceValues(func() (*schema.Vocabulary, error) {
		return buildVocabulary(opts)
	})
	return func(any) (*schema.Vocabulary, error) {
		return build()
	}
}

// Register makes the timezone vocabulary available to schema documents
// under Name.
func Register(fns ...OptionFn) {
	schema.RegisterVocabulary(Name, Source(fns...))
}

// Field returns a choice field over the timezone vocabulary. Stored zones
// that left the list stay selectable.
func Field(name string, fns ...OptionFn) *schema.Field {
	return &schema.Field{
		Name:           name,
		Title:          "Timezone",
		Kind:           schema.KindChoice,
		Forgiving:      true,
		VocabularyFunc: Source(fns...),
	}
}

func buildVocabulary(opts Options) (*schema.Vocabulary, error) {
	zones, err := opts.zones()
	if err != nil {
		return nil, err
	}
	return Vocabulary(zones)
}

func title(zone string) string {
	return strings.ReplaceAll(zone, "_", " ")
}
