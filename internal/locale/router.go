// Package locale selects the right translated variant of a document for a
// requested locale, with a configured fallback.
package locale

import (
	"fmt"

	"golang.org/x/text/language"

	"git.home.luguber.info/inful/contentpress/internal/document"
)

// NoVariantError reports a routing miss: the requested locale has no variant
// and the fallback locale has none either.
type NoVariantError struct {
	ID       string
	Locale   string
	Fallback string
}

func (e *NoVariantError) Error() string {
	return fmt.Sprintf("no variant of document %q for locale %q (fallback %q)", e.ID, e.Locale, e.Fallback)
}

// Router routes (document id, requested locale) to a concrete variant.
// Routing is a pure lookup over an immutable corpus: same inputs always
// produce the same selection.
type Router struct {
	corpus   *document.Corpus
	fallback string
}

// NewRouter creates a router with the given fallback locale.
func NewRouter(corpus *document.Corpus, fallback string) (*Router, error) {
	if _, err := language.Parse(fallback); err != nil {
		return nil, fmt.Errorf("invalid fallback locale %q: %w", fallback, err)
	}
	return &Router{corpus: corpus, fallback: fallback}, nil
}

// Fallback returns the configured fallback locale.
func (r *Router) Fallback() string {
	return r.fallback
}

// Route returns the variant for the exact locale if present, otherwise the
// fallback locale's variant, otherwise NoVariantError. Locale tags are
// compared canonically, so "en-us" routes to an "en-US" variant.
func (r *Router) Route(id, locale string) (*document.Document, error) {
	if doc, ok := r.variant(id, locale); ok {
		return doc, nil
	}
	if doc, ok := r.variant(id, r.fallback); ok {
		return doc, nil
	}
	return nil, &NoVariantError{ID: id, Locale: locale, Fallback: r.fallback}
}

// variant finds a variant by exact locale string, then by canonical tag
// comparison. Both the requested and the fallback locale go through it, so a
// fallback configured as "en-us" still finds a stored "en-US" variant.
func (r *Router) variant(id, locale string) (*document.Document, bool) {
	if doc, ok := r.corpus.Get(id, locale); ok {
		return doc, true
	}
	if want, err := language.Parse(locale); err == nil {
		for _, v := range r.corpus.Variants(id) {
			if got, err := language.Parse(v.Locale); err == nil && got == want {
				return v, true
			}
		}
	}
	return nil, false
}

// Negotiate selects a variant from an Accept-Language header value. The
// matcher prefers the closest language match across available variants and
// degrades to the fallback variant; a document with no variants at all yields
// NoVariantError.
func (r *Router) Negotiate(id, acceptLanguage string) (*document.Document, error) {
	variants := r.corpus.Variants(id)
	if len(variants) == 0 {
		return nil, &NoVariantError{ID: id, Locale: acceptLanguage, Fallback: r.fallback}
	}

	// The first tag is the matcher's default, so the fallback variant goes
	// first when it exists.
	ordered := make([]*document.Document, 0, len(variants))
	for _, v := range variants {
		if v.Locale == r.fallback {
			ordered = append([]*document.Document{v}, ordered...)
			continue
		}
		ordered = append(ordered, v)
	}

	tags := make([]language.Tag, 0, len(ordered))
	docs := make([]*document.Document, 0, len(ordered))
	for _, v := range ordered {
		tag, err := language.Parse(v.Locale)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		docs = append(docs, v)
	}
	if len(tags) == 0 {
		return r.Route(id, r.fallback)
	}

	wanted, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil {
		wanted = nil
	}

	matcher := language.NewMatcher(tags)
	_, idx, _ := matcher.Match(wanted...)
	return docs[idx], nil
}
