package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeContent(t *testing.T, root, locale, rel, content string) {
	t.Helper()
	path := filepath.Join(root, locale, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_TwoLocales_SharedID(t *testing.T) {
	root := t.TempDir()
	writeContent(t, root, "en-US", "questions/react-forms.md",
		"---\ntitle: Forms in React\ndescription: Controlled inputs\n---\n# Forms\n")
	writeContent(t, root, "zh-CN", "questions/react-forms.md",
		"---\ntitle: React 表单\n---\n# 表单\n")

	corpus, fileErrors, err := NewLoader(root, nil).Load()
	require.NoError(t, err)
	require.Empty(t, fileErrors)
	require.Equal(t, 2, corpus.Len())

	en, ok := corpus.Get("questions/react-forms", "en-US")
	require.True(t, ok)
	require.Equal(t, "Forms in React", en.Title)
	require.Equal(t, "Controlled inputs", en.Description)
	require.Equal(t, "/questions/react-forms", en.Slug)
	require.Equal(t, "# Forms\n", en.Body)

	zh, ok := corpus.Get("questions/react-forms", "zh-CN")
	require.True(t, ok)
	require.Equal(t, "React 表单", zh.Title)
}

func TestLoad_SlugOverrideFromFrontMatter(t *testing.T) {
	root := t.TempDir()
	writeContent(t, root, "en-US", "questions/forms.md",
		"---\ntitle: Forms\nslug: questions/react-forms\n---\nBody.\n")

	corpus, _, err := NewLoader(root, nil).Load()
	require.NoError(t, err)

	doc, ok := corpus.Get("questions/forms", "en-US")
	require.True(t, ok)
	require.Equal(t, "/questions/react-forms", doc.Slug)
}

func TestLoad_ExtraFrontMatterKeys_CarriedAsMetadata(t *testing.T) {
	root := t.TempDir()
	writeContent(t, root, "en-US", "questions/forms.md",
		"---\ntitle: Forms\nauthor: leia\nweight: 3\ntags:\n  - react\n---\nBody.\n")

	corpus, _, err := NewLoader(root, nil).Load()
	require.NoError(t, err)

	doc, ok := corpus.Get("questions/forms", "en-US")
	require.True(t, ok)
	require.Equal(t, "leia", doc.Metadata["author"])
	require.Equal(t, "3", doc.Metadata["weight"])
	require.NotContains(t, doc.Metadata, "tags")
}

func TestLoad_MissingTitle_DerivedFromID(t *testing.T) {
	root := t.TempDir()
	writeContent(t, root, "en-US", "questions/react-form-handling.md", "Body only.\n")

	corpus, _, err := NewLoader(root, nil).Load()
	require.NoError(t, err)

	doc, ok := corpus.Get("questions/react-form-handling", "en-US")
	require.True(t, ok)
	require.Equal(t, "React Form Handling", doc.Title)
}

func TestLoad_BrokenFrontMatter_IsolatedToThatFile(t *testing.T) {
	root := t.TempDir()
	writeContent(t, root, "en-US", "good.md", "---\ntitle: Good\n---\nFine.\n")
	writeContent(t, root, "en-US", "bad.md", "---\ntitle: Bad\nno closing delimiter\n")

	corpus, fileErrors, err := NewLoader(root, nil).Load()
	require.NoError(t, err)
	require.Equal(t, 1, corpus.Len())
	require.Len(t, fileErrors, 1)
	require.Contains(t, fileErrors[0].Path, "bad.md")
}

func TestLoad_LocaleFilter_SkipsOtherDirectories(t *testing.T) {
	root := t.TempDir()
	writeContent(t, root, "en-US", "a.md", "A.\n")
	writeContent(t, root, "zh-CN", "a.md", "甲。\n")

	corpus, _, err := NewLoader(root, []string{"en-US"}).Load()
	require.NoError(t, err)
	require.Equal(t, 1, corpus.Len())
	require.Equal(t, []string{"en-US"}, corpus.Locales("a"))
}

func TestLoad_NonMarkdownFiles_Ignored(t *testing.T) {
	root := t.TempDir()
	writeContent(t, root, "en-US", "a.md", "A.\n")
	writeContent(t, root, "en-US", "diagram.png", "not markdown")

	corpus, fileErrors, err := NewLoader(root, nil).Load()
	require.NoError(t, err)
	require.Empty(t, fileErrors)
	require.Equal(t, 1, corpus.Len())
}

func TestLoad_MissingContentDir_ReturnsError(t *testing.T) {
	_, _, err := NewLoader(filepath.Join(t.TempDir(), "nope"), nil).Load()
	require.Error(t, err)
}
