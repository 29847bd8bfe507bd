package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/contentpress/internal/config"
	"git.home.luguber.info/inful/contentpress/internal/pipeline"
)

func writeContent(t *testing.T, root, locale, rel, content string) {
	t.Helper()
	path := filepath.Join(root, locale, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testServer(t *testing.T) *Server {
	t.Helper()
	root := t.TempDir()
	writeContent(t, root, "en-US", "questions/react-forms.md",
		"---\ntitle: Forms in React\n---\n# Forms\n\nControlled inputs.\n")
	writeContent(t, root, "zh-CN", "questions/react-forms.md",
		"---\ntitle: React 表单\n---\n# 表单\n")

	cfg := &config.Config{}
	cfg.Content.Dir = root
	cfg.Content.DefaultLocale = "en-US"
	cfg.Content.FallbackLocale = "en-US"
	cfg.Links.Policy = config.LinkPolicyWarn
	cfg.Server.Addr = ":0"

	builder := pipeline.New(cfg)
	srv := New(cfg, builder.Build, nil)
	require.NoError(t, srv.Rebuild(context.Background()))
	return srv
}

func get(t *testing.T, srv *Server, path string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandlePage_KnownSlug_ServesFallbackVariant(t *testing.T) {
	srv := testServer(t)

	rec := get(t, srv, "/questions/react-forms", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "en-US", rec.Header().Get("Content-Language"))
	require.Contains(t, rec.Body.String(), "Forms in React")
}

func TestHandlePage_AcceptLanguage_NegotiatesVariant(t *testing.T) {
	srv := testServer(t)

	rec := get(t, srv, "/questions/react-forms", map[string]string{
		"Accept-Language": "zh-CN,zh;q=0.9",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "zh-CN", rec.Header().Get("Content-Language"))
	require.Contains(t, rec.Body.String(), "React 表单")
}

func TestHandlePage_LocaleQueryParam_ExactRoute(t *testing.T) {
	srv := testServer(t)

	rec := get(t, srv, "/questions/react-forms?locale=zh-CN", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "zh-CN", rec.Header().Get("Content-Language"))
}

func TestHandlePage_UnknownLocaleParam_FallsBack(t *testing.T) {
	srv := testServer(t)

	rec := get(t, srv, "/questions/react-forms?locale=fr-FR", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "en-US", rec.Header().Get("Content-Language"))
}

func TestHandlePage_UnknownSlug_NotFound(t *testing.T) {
	srv := testServer(t)

	rec := get(t, srv, "/questions/does-not-exist", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlePage_TrailingSlash_Normalized(t *testing.T) {
	srv := testServer(t)

	rec := get(t, srv, "/questions/react-forms/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleStatus_ReportsBuild(t *testing.T) {
	srv := testServer(t)

	rec := get(t, srv, "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ready"`)
	require.Contains(t, rec.Body.String(), `"documents":2`)
	require.Contains(t, rec.Body.String(), `"fallback_locale":"en-US"`)
}

func TestHandleStatus_BeforeFirstBuild_Building(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Addr = ":0"
	srv := New(cfg, nil, nil)

	rec := get(t, srv, "/api/status", nil)
	require.Contains(t, rec.Body.String(), `"status":"building"`)
}

func TestHandlePage_BeforeFirstBuild_ServiceUnavailable(t *testing.T) {
	cfg := &config.Config{}
	srv := New(cfg, nil, nil)

	rec := get(t, srv, "/questions/react-forms", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleHealth_OK(t *testing.T) {
	srv := testServer(t)
	rec := get(t, srv, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRebuild_FailedBuild_KeepsPreviousState(t *testing.T) {
	srv := testServer(t)
	previous := srv.current()

	srv.build = func(context.Context) (*pipeline.Result, error) {
		return nil, os.ErrNotExist
	}
	require.Error(t, srv.Rebuild(context.Background()))
	require.Same(t, previous, srv.current())
}
