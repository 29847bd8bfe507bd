// Package store ingests raw content units from disk into a corpus and caches
// rendered output between builds.
//
// Content layout is one directory per locale:
//
//	content/
//	  en-US/
//	    questions/
//	      react-forms.md
//	  zh-CN/
//	    questions/
//	      react-forms.md
//
// The relative path below the locale directory is the document id; the slug
// defaults to "/" + id unless front matter overrides it.
package store

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/contentpress/internal/document"
	"git.home.luguber.info/inful/contentpress/internal/frontmatter"
	"git.home.luguber.info/inful/contentpress/internal/logfields"
)

// FileError records a per-file ingest failure. One broken file never aborts
// the rest of the ingest.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Loader reads content units from a content directory.
type Loader struct {
	dir     string
	locales map[string]struct{} // Restrict ingest; empty means all found
}

// NewLoader creates a loader rooted at dir. If locales is non-empty, only
// those locale directories are ingested.
func NewLoader(dir string, locales []string) *Loader {
	l := &Loader{dir: dir}
	if len(locales) > 0 {
		l.locales = make(map[string]struct{}, len(locales))
		for _, locale := range locales {
			l.locales[locale] = struct{}{}
		}
	}
	return l
}

// Load walks the content directory and builds the corpus. Files that fail to
// ingest are reported in fileErrors; only a missing or unreadable content
// root is a hard error.
func (l *Loader) Load() (*document.Corpus, []FileError, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read content directory %s: %w", l.dir, err)
	}

	corpus := document.NewCorpus()
	var fileErrors []FileError

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		locale := entry.Name()
		if l.locales != nil {
			if _, ok := l.locales[locale]; !ok {
				slog.Debug("Skipping locale directory not in configured locales", logfields.Locale(locale))
				continue
			}
		}

		localeDir := filepath.Join(l.dir, locale)
		walkErr := filepath.WalkDir(localeDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
				return nil
			}

			doc, loadErr := l.loadFile(path, localeDir, locale)
			if loadErr != nil {
				fileErrors = append(fileErrors, FileError{Path: path, Err: loadErr})
				slog.Warn("Skipping content unit", logfields.Locale(locale), logfields.Error(loadErr), slog.String("path", path))
				return nil
			}
			if addErr := corpus.Add(doc); addErr != nil {
				fileErrors = append(fileErrors, FileError{Path: path, Err: addErr})
				slog.Warn("Skipping content unit", logfields.DocID(doc.ID), logfields.Error(addErr))
			}
			return nil
		})
		if walkErr != nil {
			return nil, nil, fmt.Errorf("walk locale directory %s: %w", localeDir, walkErr)
		}
	}

	slog.Info("Content ingest complete",
		slog.Int("documents", corpus.Len()),
		slog.Int("skipped", len(fileErrors)))

	return corpus, fileErrors, nil
}

func (l *Loader) loadFile(path, localeDir, locale string) (*document.Document, error) {
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	fm, body, _, _, err := frontmatter.Split(content)
	if err != nil {
		return nil, fmt.Errorf("split front matter: %w", err)
	}
	fields, err := frontmatter.Decode(fm)
	if err != nil {
		return nil, fmt.Errorf("decode front matter: %w", err)
	}

	rel, err := filepath.Rel(localeDir, path)
	if err != nil {
		return nil, fmt.Errorf("relativize path: %w", err)
	}
	id := strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))

	slug := fields.Slug
	if slug == "" {
		slug = "/" + id
	} else if !strings.HasPrefix(slug, "/") {
		slug = "/" + slug
	}

	title := fields.Title
	if title == "" {
		title = fallbackTitle(id)
	}

	return &document.Document{
		ID:          id,
		Locale:      locale,
		Title:       title,
		Description: fields.Description,
		Slug:        slug,
		Body:        string(body),
		SourcePath:  path,
		Metadata:    metadataFrom(fields.Extra),
	}, nil
}

// metadataFrom flattens unknown front matter keys into string metadata.
// Nested structures have no meaning downstream and are skipped.
func metadataFrom(extra map[string]any) map[string]string {
	if len(extra) == 0 {
		return nil
	}
	meta := make(map[string]string, len(extra))
	for key, value := range extra {
		switch value.(type) {
		case map[string]any, []any:
			continue
		default:
			meta[key] = fmt.Sprintf("%v", value)
		}
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

// fallbackTitle derives a readable title from the last id segment when front
// matter omits one.
func fallbackTitle(id string) string {
	base := id
	if i := strings.LastIndex(id, "/"); i >= 0 {
		base = id[i+1:]
	}
	words := strings.FieldsFunc(base, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
