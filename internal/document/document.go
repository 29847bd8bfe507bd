// Package document defines the core content model: locale-specific content
// units, the corpus that holds them, and the slug index used for reference
// resolution.
package document

import (
	"fmt"
	"sort"
	"strings"

	"git.home.luguber.info/inful/contentpress/internal/errors"
)

// Document represents one locale-specific content unit.
//
// ID is stable across locales; the (ID, Locale) pair is unique within a
// corpus. Body is the raw Markdown with front matter already removed.
type Document struct {
	ID          string            // Stable, locale-independent identifier
	Locale      string            // BCP 47 tag, e.g. "en-US"
	Title       string            // From front matter
	Description string            // From front matter
	Slug        string            // URL-safe path, e.g. "/questions/react-forms"
	Body        string            // Raw Markdown body
	SourcePath  string            // Absolute path of the source file, for diagnostics
	Metadata    map[string]string // Additional metadata from the loader
}

// Key identifies a document variant within a corpus.
type Key struct {
	ID     string
	Locale string
}

func (k Key) String() string {
	return k.ID + "@" + k.Locale
}

// Validate returns an error if the document is missing required fields.
func (d *Document) Validate() error {
	if d.ID == "" {
		return errors.ValidationError("document id required")
	}
	if d.Locale == "" {
		return errors.ValidationError("document locale required").WithContext("id", d.ID)
	}
	if d.Slug == "" {
		return errors.ValidationError("document slug required").WithContext("id", d.ID)
	}
	if !strings.HasPrefix(d.Slug, "/") {
		return errors.ValidationError("document slug must start with /").
			WithContext("id", d.ID).
			WithContext("slug", d.Slug)
	}
	return nil
}

// Corpus is the full, read-only document set for a build.
//
// Documents are added during ingest; after Freeze the corpus must not be
// mutated, so lookups may run concurrently without coordination.
type Corpus struct {
	byKey map[Key]*Document
	byID  map[string][]*Document
}

// NewCorpus creates an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{
		byKey: make(map[Key]*Document),
		byID:  make(map[string][]*Document),
	}
}

// Add inserts a document, enforcing (ID, Locale) uniqueness.
func (c *Corpus) Add(doc *Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	key := Key{ID: doc.ID, Locale: doc.Locale}
	if existing, ok := c.byKey[key]; ok {
		return errors.ValidationError("duplicate document variant").
			WithContext("key", key.String()).
			WithContext("existing_path", existing.SourcePath).
			WithContext("new_path", doc.SourcePath)
	}

	c.byKey[key] = doc
	c.byID[doc.ID] = append(c.byID[doc.ID], doc)
	return nil
}

// Get returns the variant for an exact (id, locale) pair.
func (c *Corpus) Get(id, locale string) (*Document, bool) {
	doc, ok := c.byKey[Key{ID: id, Locale: locale}]
	return doc, ok
}

// Variants returns all locale variants of a document id, sorted by locale.
func (c *Corpus) Variants(id string) []*Document {
	variants := make([]*Document, len(c.byID[id]))
	copy(variants, c.byID[id])
	sort.Slice(variants, func(i, j int) bool {
		return variants[i].Locale < variants[j].Locale
	})
	return variants
}

// Locales returns the locales available for a document id, sorted.
func (c *Corpus) Locales(id string) []string {
	locales := make([]string, 0, len(c.byID[id]))
	for _, doc := range c.byID[id] {
		locales = append(locales, doc.Locale)
	}
	sort.Strings(locales)
	return locales
}

// IDs returns all document ids, sorted for deterministic iteration.
func (c *Corpus) IDs() []string {
	ids := make([]string, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// All returns every document, sorted by (ID, Locale).
func (c *Corpus) All() []*Document {
	docs := make([]*Document, 0, len(c.byKey))
	for _, doc := range c.byKey {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].ID != docs[j].ID {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].Locale < docs[j].Locale
	})
	return docs
}

// Len returns the number of document variants.
func (c *Corpus) Len() int {
	return len(c.byKey)
}

// SlugIndex maps a slug to the document id it belongs to.
//
// The index is locale-independent: translated variants share a slug, so a
// reference resolves if any variant of the target exists.
type SlugIndex struct {
	bySlug map[string]string
}

// BuildSlugIndex constructs the slug index for a corpus.
//
// Two document ids claiming the same slug is a corpus defect and fails the
// build immediately rather than leaving reference resolution ambiguous.
func BuildSlugIndex(c *Corpus) (*SlugIndex, error) {
	idx := &SlugIndex{bySlug: make(map[string]string)}
	for _, doc := range c.All() {
		slug := normalizeSlug(doc.Slug)
		if owner, ok := idx.bySlug[slug]; ok && owner != doc.ID {
			return nil, errors.New(errors.CategoryValidation, errors.SeverityFatal,
				fmt.Sprintf("slug %q claimed by documents %q and %q", slug, owner, doc.ID))
		}
		idx.bySlug[slug] = doc.ID
	}
	return idx, nil
}

// Lookup returns the document id owning a slug.
func (idx *SlugIndex) Lookup(slug string) (string, bool) {
	id, ok := idx.bySlug[normalizeSlug(slug)]
	return id, ok
}

// Add registers a slug for a document id. Used by tests and incremental
// ingest; Lookup results can only move from absent to present.
func (idx *SlugIndex) Add(slug, id string) {
	idx.bySlug[normalizeSlug(slug)] = id
}

// Len returns the number of indexed slugs.
func (idx *SlugIndex) Len() int {
	return len(idx.bySlug)
}

// normalizeSlug strips a trailing slash so "/questions/x/" and "/questions/x"
// resolve identically, matching common site-framework routing.
func normalizeSlug(slug string) string {
	if len(slug) > 1 && strings.HasSuffix(slug, "/") {
		return strings.TrimSuffix(slug, "/")
	}
	return slug
}
