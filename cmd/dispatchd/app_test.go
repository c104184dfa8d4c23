package main

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch/core/dispatch"
	"github.com/dmitrymomot/dispatch/core/logger"
)

type testClient struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
}

func newTestClient(t *testing.T, checks ...func(context.Context) error) *testClient {
	t.Helper()

	readme := filepath.Join(t.TempDir(), "README.md")
	require.NoError(t, os.WriteFile(readme, []byte("# dispatch"), 0o600))

	cfg := Config{
		AppName:      "dispatchd-test",
		DownloadFile: readme,
		Dispatch:     dispatch.DefaultConfig(),
	}
	cfg.Dispatch.BodyDir = t.TempDir()

	srv := httptest.NewServer(newApp(cfg, logger.Discard(), checks))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testClient{
		t:   t,
		srv: srv,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *testClient) do(method, path, contentType string, body io.Reader) (*http.Response, string) {
	c.t.Helper()

	req, err := http.NewRequest(method, c.srv.URL+path, body)
	require.NoError(c.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	res, err := c.client.Do(req)
	require.NoError(c.t, err)
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	require.NoError(c.t, err)
	return res, string(raw)
}

func (c *testClient) get(path string) (*http.Response, string) {
	c.t.Helper()
	return c.do(http.MethodGet, path, "", nil)
}

func TestAppRoutes(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)

	tests := []struct {
		method string
		path   string
		status int
		body   string
	}{
		{http.MethodGet, "/live", http.StatusOK, "ALIVE"},
		{http.MethodGet, "/ready", http.StatusOK, "READY"},
		{http.MethodGet, "/missing", http.StatusNotFound, "file not found"},
		{http.MethodGet, "/error", http.StatusInternalServerError, "server error"},
		{http.MethodGet, "/any", http.StatusOK, "any method route test"},
		{http.MethodPost, "/any", http.StatusOK, "any method route test"},
		{http.MethodPut, "/any", http.StatusOK, "any method route test"},
		{http.MethodDelete, "/any", http.StatusOK, "any method route test"},
		{http.MethodGet, "/index?name=dispatch", http.StatusOK, "GET received dispatch and dispatch"},
		{http.MethodPost, "/override?_method=PUT", http.StatusOK, "PUT received via _method"},
		{http.MethodDelete, "/index/1", http.StatusOK, "DELETE route test"},
		{http.MethodGet, "/index/5", http.StatusOK, "id = 5"},
		{http.MethodGet, "/params?one=1&two=2", http.StatusOK, "one=1\ntwo=2\n"},
		{http.MethodGet, "/authors/noodlehaus/books/dispatch", http.StatusOK, "DISPATCH by NOODLEHAUS"},
		{http.MethodGet, "/list", http.StatusOK, "different list"},
		{http.MethodGet, "/admin/stats", http.StatusOK, "stats\n"},
		{http.MethodGet, "/component/%3Cgo%3E", http.StatusOK, "<p>hello &lt;go&gt;</p>"},
	}

	for _, tt := range tests {
		res, body := c.do(tt.method, tt.path, "", nil)
		assert.Equal(t, tt.status, res.StatusCode, "%s %s", tt.method, tt.path)
		assert.Equal(t, tt.body, body, "%s %s", tt.method, tt.path)
	}
}

func TestAppBindings(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)

	sum := md5.Sum([]byte("dispatch"))
	_, body := c.get("/md5/dispatch")
	digest := hex.EncodeToString(sum[:])
	assert.Equal(t, digest+"-"+digest, body)

	_, body = c.get("/authors/rob/books/go")
	assert.Equal(t, "GO by ROB", body)
}

func TestAppFilters(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)

	res, _ := c.get("/admin/stats")
	assert.Equal(t, "true", res.Header.Get("X-Admin-Before"))
	assert.Equal(t, "true", res.Header.Get("X-Admin-After"))

	res, _ = c.get("/list")
	assert.Empty(t, res.Header.Get("X-Admin-Before"))

	res, _ = c.get("/index/7")
	assert.Equal(t, "7", res.Header.Get("X-Id-Found"))
}

func TestAppRequestBodies(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	form := "application/x-www-form-urlencoded"

	_, body := c.do(http.MethodPost, "/index?name=query", form, strings.NewReader("name=form"))
	assert.Equal(t, "POST received form and form", body)

	_, body = c.do(http.MethodPut, "/index", form, strings.NewReader("name=dispatch"))
	assert.Equal(t, "PUT received dispatch", body)

	_, body = c.do(http.MethodPost, "/request-headers", "text/plain", strings.NewReader("x"))
	assert.Equal(t, "text/plain", body)

	_, body = c.do(http.MethodPost, "/request-body", "application/json", strings.NewReader(`{"name":"dispatch"}`))
	assert.Equal(t, "name=dispatch", body)

	_, body = c.do(http.MethodPost, "/request-body-file", "application/json", bytes.NewReader([]byte(`{"name":"dispatch"}`)))
	assert.Equal(t, "name=dispatch", body)
}

func TestAppJSON(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)

	res, body := c.get("/json")
	assert.Equal(t, "application/json; charset=utf-8", res.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"name":"noodlehaus","project":"dispatch"}`, body)

	_, body = c.get("/jsonp?callback=cb")
	assert.Equal(t, `cb({"name":"noodlehaus","project":"dispatch"});`, body)

	res, _ = c.get("/jsonp?callback=" + url.QueryEscape("alert(1)"))
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestAppRedirect(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)

	res, _ := c.get("/redirect/301")
	assert.Equal(t, http.StatusMovedPermanently, res.StatusCode)
	assert.Equal(t, "/index", res.Header.Get("Location"))

	res, _ = c.get("/redirect/200")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestAppCookiesFlashAndSession(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)

	_, body := c.get("/cookie-set")
	assert.Equal(t, "cookie set", body)
	_, body = c.get("/cookie-get")
	assert.Equal(t, "cookie=123", body)

	c.get("/flash-set")
	_, body = c.get("/flash-get")
	assert.Equal(t, "message=successflash-now is null", body)
	_, body = c.get("/flash-get")
	assert.Equal(t, "message=flash-now is null", body)

	c.get("/session/setup")
	_, body = c.get("/session/check")
	assert.Equal(t, "i am dispatch", body)
}

func TestAppViews(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)

	_, body := c.get("/partial/dispatch")
	assert.Equal(t, "<p>partial dispatch</p>", body)

	res, body := c.get("/template/dispatch")
	assert.Equal(t, "text/html; charset=utf-8", res.Header.Get("Content-Type"))
	assert.Contains(t, body, "<body>\n<h1>template dispatch</h1>\n</body>")
}

func TestAppDownload(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)

	res, body := c.get("/download")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "# dispatch", body)
	assert.Equal(t, `attachment; filename="readme.txt"`, res.Header.Get("Content-Disposition"))
	assert.Equal(t, "public, max-age=31536000", res.Header.Get("Cache-Control"))
}

func TestAppReadinessFailure(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(context.Context) error { return errors.New("down") })

	res, body := c.get("/ready")
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	assert.Equal(t, "service unavailable", body)
}
