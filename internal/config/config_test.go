package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFile_ReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_MinimalConfig_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "site:\n  title: Test\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "./content", cfg.Content.Dir)
	require.Equal(t, "en-US", cfg.Content.DefaultLocale)
	require.Equal(t, "en-US", cfg.Content.FallbackLocale)
	require.Equal(t, LinkPolicyWarn, cfg.Links.Policy)
	require.Equal(t, "github", cfg.Render.HighlightTheme)
	require.Equal(t, "./public", cfg.Output.Directory)
	require.True(t, cfg.Output.Clean)
	require.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_FallbackDefaultsToDefaultLocale(t *testing.T) {
	path := writeConfig(t, "content:\n  default_locale: zh-CN\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "zh-CN", cfg.Content.FallbackLocale)
}

func TestLoad_InvalidLinkPolicy_ReturnsError(t *testing.T) {
	path := writeConfig(t, "links:\n  policy: explode\n")

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "links.policy")
}

func TestLoad_FallbackNotInLocales_ReturnsError(t *testing.T) {
	path := writeConfig(t, "content:\n  default_locale: en-US\n  locales: [zh-CN]\n")

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_EventsEnabledWithoutURL_ReturnsError(t *testing.T) {
	path := writeConfig(t, "links:\n  events:\n    enabled: true\n")

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_ExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("CP_TEST_CONTENT_DIR", "/srv/content")
	path := writeConfig(t, "content:\n  dir: ${CP_TEST_CONTENT_DIR}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/srv/content", cfg.Content.Dir)
}

func TestInit_ExistingFileWithoutForce_ReturnsError(t *testing.T) {
	path := writeConfig(t, "site:\n  title: Keep\n")

	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Interview Prep", cfg.Site.Title)
}
