package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/contentpress/internal/config"
)

// WriteSite materializes rendered pages under the output directory, one page
// per (locale, slug):
//
//	public/
//	  en-US/
//	    questions/
//	      react-forms/
//	        index.html
func WriteSite(result *Result, out config.OutputConfig) error {
	if out.Clean {
		if err := os.RemoveAll(out.Directory); err != nil {
			return fmt.Errorf("clean output directory: %w", err)
		}
	}

	for key, page := range result.Pages {
		doc, ok := result.Corpus.Get(key.ID, key.Locale)
		if !ok {
			continue
		}
		dir := filepath.Join(out.Directory, key.Locale, filepath.FromSlash(doc.Slug))
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create page directory: %w", err)
		}
		if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(page), 0o644); err != nil {
			return fmt.Errorf("write page %s: %w", key, err)
		}
	}

	return nil
}
