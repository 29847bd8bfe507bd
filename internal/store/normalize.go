package store

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/contentpress/internal/frontmatter"
	"git.home.luguber.info/inful/contentpress/internal/logfields"
)

// NormalizeReport summarizes a front matter normalization pass.
type NormalizeReport struct {
	Checked   int
	Rewritten int
	Errors    []FileError
}

// Normalize rewrites content units in place so that every file carries title
// and slug front matter keys. Files missing front matter entirely get a new
// block; existing keys, unknown keys, and the file's newline style are
// preserved. A file that already has both keys is left byte-identical, so the
// pass is idempotent.
func (l *Loader) Normalize() (NormalizeReport, error) {
	var report NormalizeReport

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return report, fmt.Errorf("read content directory %s: %w", l.dir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		locale := entry.Name()
		if l.locales != nil {
			if _, ok := l.locales[locale]; !ok {
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

			report.Checked++
			rewritten, normErr := normalizeFile(path, localeDir)
			if normErr != nil {
				report.Errors = append(report.Errors, FileError{Path: path, Err: normErr})
				slog.Warn("Skipping content unit", logfields.Locale(locale), logfields.Error(normErr))
				return nil
			}
			if rewritten {
				report.Rewritten++
				slog.Info("Normalized front matter", slog.String("path", path))
			}
			return nil
		})
		if walkErr != nil {
			return report, fmt.Errorf("walk locale directory %s: %w", localeDir, walkErr)
		}
	}

	return report, nil
}

func normalizeFile(path, localeDir string) (bool, error) {
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return false, fmt.Errorf("read file: %w", err)
	}

	fm, body, had, style, err := frontmatter.Split(content)
	if err != nil {
		return false, fmt.Errorf("split front matter: %w", err)
	}
	fields, err := frontmatter.DecodeMap(fm)
	if err != nil {
		return false, fmt.Errorf("decode front matter: %w", err)
	}

	rel, err := filepath.Rel(localeDir, path)
	if err != nil {
		return false, fmt.Errorf("relativize path: %w", err)
	}
	id := strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))

	changed := !had
	if _, ok := fields["title"]; !ok {
		fields["title"] = fallbackTitle(id)
		changed = true
	}
	if _, ok := fields["slug"]; !ok {
		fields["slug"] = "/" + id
		changed = true
	}
	if !changed {
		return false, nil
	}

	marshaled, err := yaml.Marshal(fields)
	if err != nil {
		return false, fmt.Errorf("encode front matter: %w", err)
	}
	if style.Newline == "\r\n" {
		marshaled = bytes.ReplaceAll(marshaled, []byte("\n"), []byte("\r\n"))
	}

	out := frontmatter.Join(marshaled, body, true, style)
	if bytes.Equal(out, content) {
		return false, nil
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return false, fmt.Errorf("write file: %w", err)
	}
	return true, nil
}
