package dispatch_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch/core/binder"
	"github.com/dmitrymomot/dispatch/core/dispatch"
	"github.com/dmitrymomot/dispatch/core/response"
	"github.com/dmitrymomot/dispatch/core/session"
	"github.com/dmitrymomot/dispatch/core/view"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestFlashRoundTrip(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t)
	d.Get("/flash-set", func(c *dispatch.Context, _ ...any) error {
		c.SetFlash("message", "flash message")
		return c.Redirect("/flash-get", http.StatusFound)
	})
	d.Get("/flash-get", func(c *dispatch.Context, _ ...any) error {
		if v, ok := c.Flash("message").(string); ok {
			c.Text(v)
			return nil
		}
		c.Text("none")
		return nil
	})

	cl := newClient(d)

	resp := cl.get("/flash-set")
	assert.Equal(t, http.StatusFound, resp.Status)
	assert.Contains(t, cl.jar, "_F")

	assert.Equal(t, "flash message", string(cl.get("/flash-get").Body))
	assert.Equal(t, "none", string(cl.get("/flash-get").Body))
}

func TestFlashReadOnce(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t)
	d.Get("/set", func(c *dispatch.Context, _ ...any) error {
		c.SetFlash("n", 1)
		return nil
	})
	d.Get("/read-twice", func(c *dispatch.Context, _ ...any) error {
		first := c.Flash("n")
		second := c.Flash("n")
		assert.Equal(t, 1, first)
		assert.Nil(t, second)
		return nil
	})

	cl := newClient(d)
	cl.get("/set")
	cl.get("/read-twice")
}

func TestFlashNotCarriedOver(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t)
	d.Get("/set", func(c *dispatch.Context, _ ...any) error {
		c.SetFlash("message", "hello")
		return nil
	})
	d.Get("/noop", text("noop"))
	d.Get("/get", func(c *dispatch.Context, _ ...any) error {
		assert.Nil(t, c.Flash("message"))
		return nil
	})

	cl := newClient(d)
	cl.get("/set")
	cl.get("/noop")
	cl.get("/get")
}

func TestFlashNow(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t)
	d.Before(func(c *dispatch.Context, _, _ string) error {
		c.FlashNow("name", "flash-now")
		return nil
	})
	d.Get("/flash-now", func(c *dispatch.Context, _ ...any) error {
		c.Text(c.Flash("name").(string))
		return nil
	})
	d.Get("/empty", func(c *dispatch.Context, _ ...any) error {
		c.Flash("name")
		return nil
	})

	cl := newClient(d)
	assert.Equal(t, "flash-now", string(cl.get("/flash-now").Body))

	// a now-value never creates a session
	cl.get("/empty")
	assert.NotContains(t, cl.jar, "_F")
}

func TestFlashErrorHandlerStillPersists(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t)
	d.Get("/fail", func(c *dispatch.Context, _ ...any) error {
		c.SetFlash("error", "something broke")
		c.Error(http.StatusBadRequest)
		return nil
	})
	d.Get("/show", func(c *dispatch.Context, _ ...any) error {
		c.Text(toString(c.Flash("error")))
		return nil
	})

	cl := newClient(d)
	assert.Equal(t, http.StatusBadRequest, cl.get("/fail").Status)
	assert.Equal(t, "something broke", string(cl.get("/show").Body))
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func TestCookies(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t)
	d.Get("/cookie-set", func(c *dispatch.Context, _ ...any) error {
		return c.SetCookie("cookie", "cookie value=1&2")
	})
	d.Get("/cookie-get", func(c *dispatch.Context, _ ...any) error {
		v, _ := c.Cookie("cookie")
		c.Text(v)
		return nil
	})
	d.Get("/cookie-delete", func(c *dispatch.Context, _ ...any) error {
		c.DeleteCookie("cookie")
		return nil
	})

	cl := newClient(d)
	resp := cl.get("/cookie-set")
	require.Len(t, resp.Cookies, 1)
	assert.Equal(t, "/", resp.Cookies[0].Path)
	assert.True(t, resp.Cookies[0].HttpOnly)

	assert.Equal(t, "cookie value=1&2", string(cl.get("/cookie-get").Body))

	cl.get("/cookie-delete")
	assert.NotContains(t, cl.jar, "cookie")
	assert.Empty(t, string(cl.get("/cookie-get").Body))
}

func TestCookiesSurviveHalt(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t)
	d.Get("/x", func(c *dispatch.Context, _ ...any) error {
		require.NoError(t, c.SetCookie("seen", "1"))
		c.Error(http.StatusForbidden)
		return nil
	})

	resp := dispatchOnce(d, http.MethodGet, "/x")
	assert.Equal(t, http.StatusForbidden, resp.Status)
	require.Len(t, resp.Cookies, 1)
	assert.Equal(t, "seen", resp.Cookies[0].Name)
}

func TestSession(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore()
	d := newDispatcher(t, dispatch.WithStore(store))
	d.Post("/session/:key/:value", func(c *dispatch.Context, a ...any) error {
		return c.SetSession(a[0].(string), a[1])
	})
	d.Delete("/session/:key", func(c *dispatch.Context, a ...any) error {
		return c.SetSession(a[0].(string), nil)
	})
	d.Get("/session/:key", func(c *dispatch.Context, a ...any) error {
		v, err := c.Session(a[0].(string))
		if err != nil {
			return err
		}
		c.Text(toString(v))
		return nil
	})
	d.Get("/reserved", func(c *dispatch.Context, _ ...any) error {
		err := c.SetSession("_flash", "x")
		assert.ErrorIs(t, err, dispatch.ErrReservedKey)
		return nil
	})

	cl := newClient(d)

	// clearing a key without a session does not mint one
	cl.do(http.MethodDelete, "/session/user", nil)
	assert.Empty(t, cl.jar)

	cl.do(http.MethodPost, "/session/user/alice", nil)
	sid := cl.jar["_F"]
	require.True(t, session.ValidID(sid))
	assert.Equal(t, 1, store.Len())

	assert.Equal(t, "alice", string(cl.get("/session/user").Body))

	cl.do(http.MethodDelete, "/session/user", nil)
	assert.Empty(t, string(cl.get("/session/user").Body))

	// another client sees nothing
	assert.Empty(t, string(newClient(d).get("/session/user").Body))

	cl.get("/reserved")
}

func TestSignedSession(t *testing.T) {
	t.Parallel()

	cfg := dispatch.DefaultConfig()
	cfg.CookieSecret = testSecret
	cfg.BodyDir = t.TempDir()
	d := dispatch.New(cfg)
	d.Get("/login", func(c *dispatch.Context, _ ...any) error {
		return c.SetSession("user", "bob")
	})
	d.Get("/me", func(c *dispatch.Context, _ ...any) error {
		v, err := c.Session("user")
		if err != nil {
			return err
		}
		c.Text(toString(v))
		return nil
	})

	cl := newClient(d)
	cl.get("/login")
	require.Contains(t, cl.jar, "_F")
	assert.Contains(t, cl.jar["_F"], "%7C")
	assert.Equal(t, "bob", string(cl.get("/me").Body))

	t.Run("tampered cookie is ignored", func(t *testing.T) {
		forged := newClient(d)
		raw, err := url.PathUnescape(cl.jar["_F"])
		require.NoError(t, err)
		value, sig, _ := strings.Cut(raw, "|")
		first := "A"
		if sig[0] == 'A' {
			first = "B"
		}
		forged.jar["_F"] = url.PathEscape(value + "|" + first + sig[1:])
		assert.Empty(t, string(forged.get("/me").Body))
	})

	t.Run("unsigned cookie is ignored", func(t *testing.T) {
		forged := newClient(d)
		forged.jar["_F"] = "plain-session-id"
		assert.Empty(t, string(forged.get("/me").Body))
	})
}

func TestSignedSessionRejectsShortSecret(t *testing.T) {
	t.Parallel()

	cfg := dispatch.DefaultConfig()
	cfg.CookieSecret = "short"
	assert.Panics(t, func() { dispatch.New(cfg) })
}

func TestResponseShaping(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t)
	d.Get("/json", func(c *dispatch.Context, _ ...any) error {
		return c.JSON(map[string]string{"name": "dispatch"})
	})
	d.Get("/jsonp", func(c *dispatch.Context, _ ...any) error {
		return c.JSONP(map[string]string{"name": "dispatch"}, c.Query("callback"))
	})
	d.Get("/created", func(c *dispatch.Context, _ ...any) error {
		c.Status(http.StatusCreated)
		c.SetHeader("X-Custom", "yes")
		c.HTML("<p>ok</p>")
		return nil
	})
	d.Get("/bad-redirect", func(c *dispatch.Context, _ ...any) error {
		err := c.Redirect("/x", http.StatusOK)
		assert.ErrorIs(t, err, response.ErrInvalidRedirectCode)
		c.Text("still here")
		return nil
	})

	resp := dispatchOnce(d, http.MethodGet, "/json")
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, response.ContentTypeJSON, resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"name":"dispatch"}`, string(resp.Body))

	resp = dispatchOnce(d, http.MethodGet, "/jsonp?callback=app.load")
	assert.Equal(t, response.ContentTypeJavaScript, resp.Header.Get("Content-Type"))
	assert.Equal(t, `app.load({"name":"dispatch"});`, string(resp.Body))

	resp = dispatchOnce(d, http.MethodGet, "/jsonp?callback=alert(1)")
	assert.Equal(t, http.StatusInternalServerError, resp.Status)

	resp = dispatchOnce(d, http.MethodGet, "/created")
	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.Equal(t, "yes", resp.Header.Get("X-Custom"))
	assert.Equal(t, "<p>ok</p>", string(resp.Body))

	resp = dispatchOnce(d, http.MethodGet, "/bad-redirect")
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "still here", string(resp.Body))
	assert.Empty(t, resp.Location)
}

func TestRedirectFirstDirectiveWins(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t)
	d.Get("/x", func(c *dispatch.Context, _ ...any) error {
		require.NoError(t, c.Redirect("/first", http.StatusFound))
		require.NoError(t, c.Redirect("/second", http.StatusMovedPermanently))
		c.Error(http.StatusInternalServerError)
		return nil
	})

	resp := dispatchOnce(d, http.MethodGet, "/x")
	assert.Equal(t, http.StatusFound, resp.Status)
	assert.Equal(t, "/first", resp.Location)
}

func TestParamsAndQuery(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t)
	d.Get("/users/:id", func(c *dispatch.Context, _ ...any) error {
		c.MergeParams(c.QueryValues())
		c.SetParam("extra", 42)
		assert.Equal(t, "7", c.Param("id"))
		assert.Equal(t, "asc", c.Param("sort"))
		assert.Equal(t, []string{"a", "b"}, c.Param("tag"))
		assert.Equal(t, "42", c.ParamString("extra"))
		assert.Empty(t, c.ParamString("missing"))
		assert.Equal(t, "text/plain", c.Header("accept"))
		assert.Equal(t, "GET /users/:id", c.Route())
		return nil
	})

	resp := newClient(d).do(http.MethodGet, "/users/7?sort=asc&tag=a&tag=b", nil, "Accept", "text/plain")
	assert.Equal(t, http.StatusOK, resp.Status)
}

func TestRequestBody(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t)
	d.Post("/body", func(c *dispatch.Context, _ ...any) error {
		body, err := c.RequestBody()
		if err != nil {
			return dispatch.NewError(http.StatusBadRequest, err.Error())
		}
		again, _ := c.RequestBody()
		assert.Equal(t, body, again)
		return c.JSON(body)
	})

	cl := newClient(d)

	resp := cl.do(http.MethodPost, "/body", strings.NewReader(`{"a":[1,2]}`), "Content-Type", "application/json")
	assert.JSONEq(t, `{"a":[1,2]}`, string(resp.Body))

	resp = cl.do(http.MethodPost, "/body", strings.NewReader("a=1&a=2&b=x"), "Content-Type", "application/x-www-form-urlencoded")
	assert.JSONEq(t, `{"a":["1","2"],"b":["x"]}`, string(resp.Body))

	resp = cl.do(http.MethodPost, "/body", strings.NewReader(`{"a":`), "Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.Status)
}

func TestRequestBodyTooLarge(t *testing.T) {
	t.Parallel()

	cfg := dispatch.DefaultConfig()
	cfg.MaxBodySize = 4
	cfg.BodyDir = t.TempDir()
	d := dispatch.New(cfg)
	d.Post("/body", func(c *dispatch.Context, _ ...any) error {
		_, err := c.RequestBody()
		return err
	})

	resp := newClient(d).do(http.MethodPost, "/body", strings.NewReader("0123456789"))
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
}

func TestRequestBodyRefAfterFailedLoad(t *testing.T) {
	t.Parallel()

	cfg := dispatch.DefaultConfig()
	cfg.MaxBodySize = 8
	cfg.BodyDir = t.TempDir()
	d := dispatch.New(cfg)

	var loadErr, refErr error
	var ref *dispatch.BodyRef
	d.Post("/body", func(c *dispatch.Context, _ ...any) error {
		_, loadErr = c.RequestBody()
		ref, refErr = c.RequestBodyRef()
		return refErr
	})

	resp := newClient(d).do(http.MethodPost, "/body", strings.NewReader(strings.Repeat("x", 100)))
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.ErrorIs(t, loadErr, binder.ErrBodyTooLarge)
	assert.ErrorIs(t, refErr, binder.ErrBodyTooLarge)
	assert.Nil(t, ref)

	entries, err := os.ReadDir(cfg.BodyDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRequestBodyRef(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := dispatch.DefaultConfig()
	cfg.BodyDir = dir
	d := dispatch.New(cfg)

	var location string
	d.Post("/upload", func(c *dispatch.Context, _ ...any) error {
		ref, err := c.RequestBodyRef()
		if err != nil {
			return err
		}
		location = ref.Location
		assert.FileExists(t, location)

		again, err := c.RequestBodyRef()
		require.NoError(t, err)
		assert.Same(t, ref, again)

		decoded, err := ref.Decode(c.Context())
		if err != nil {
			return err
		}
		loaded, err := c.RequestBody()
		if err != nil {
			return err
		}
		assert.Equal(t, loaded, decoded)

		rc, err := ref.Open(c.Context())
		require.NoError(t, err)
		defer rc.Close()
		raw, err := io.ReadAll(rc)
		require.NoError(t, err)
		c.Text(string(raw))
		return nil
	})

	body := `{"title":"dispatch","tags":["go"]}`
	resp := newClient(d).do(http.MethodPost, "/upload", strings.NewReader(body), "Content-Type", "application/json")
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, body, string(resp.Body))

	// spooled bodies are removed at the end of the dispatch
	assert.NoFileExists(t, location)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRequestBodyRefAfterLoad(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t)
	d.Post("/upload", func(c *dispatch.Context, _ ...any) error {
		loaded, err := c.RequestBody()
		require.NoError(t, err)

		ref, err := c.RequestBodyRef()
		require.NoError(t, err)
		assert.Equal(t, int64(len("a=1")), ref.Size)

		decoded, err := ref.Decode(c.Context())
		require.NoError(t, err)
		assert.Equal(t, loaded, decoded)
		assert.Equal(t, url.Values{"a": {"1"}}, decoded)
		return nil
	})

	resp := newClient(d).do(http.MethodPost, "/upload", strings.NewReader("a=1"), "Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusOK, resp.Status)
}

func TestSend(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(file, []byte("report body"), 0o600))

	d := newDispatcher(t)
	d.Get("/download", func(c *dispatch.Context, _ ...any) error {
		c.Send(file, "report.txt", 60)
		return nil
	})
	d.Get("/missing", func(c *dispatch.Context, _ ...any) error {
		c.Send(filepath.Join(t.TempDir(), "nope.txt"), "", 0)
		return nil
	})

	srv := httptest.NewServer(d)
	t.Cleanup(srv.Close)

	res, err := http.Get(srv.URL + "/download")
	require.NoError(t, err)
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "report body", string(raw))
	assert.Equal(t, `attachment; filename="report.txt"`, res.Header.Get("Content-Disposition"))
	assert.Equal(t, "public, max-age=60", res.Header.Get("Cache-Control"))

	res2, err := http.Get(srv.URL + "/missing")
	require.NoError(t, err)
	defer res2.Body.Close()
	assert.Equal(t, http.StatusNotFound, res2.StatusCode)
}

func TestRenderAndPartial(t *testing.T) {
	t.Parallel()

	views := view.NewFS(fstest.MapFS{
		"layout.html": {Data: []byte(`<main>{{ .Content }}</main>`)},
		"index.html":  {Data: []byte(`<h1>{{ .title }}</h1>`)},
		"item.html":   {Data: []byte(`<li>{{ .name }}</li>`)},
	}, view.WithLayout("layout"))

	d := newDispatcher(t, dispatch.WithRenderer(views))
	d.Get("/", func(c *dispatch.Context, _ ...any) error {
		return c.Render("index", map[string]any{"title": "home"})
	})
	d.Get("/item", func(c *dispatch.Context, _ ...any) error {
		out, err := c.Partial("item", map[string]any{"name": "<b>"})
		if err != nil {
			return err
		}
		c.HTML(out)
		return nil
	})
	d.Get("/missing", func(c *dispatch.Context, _ ...any) error {
		return c.Render("nope", nil)
	})

	resp := dispatchOnce(d, http.MethodGet, "/")
	assert.Equal(t, "<main><h1>home</h1></main>", string(resp.Body))
	assert.Equal(t, response.ContentTypeHTML, resp.Header.Get("Content-Type"))

	resp = dispatchOnce(d, http.MethodGet, "/item")
	assert.Equal(t, "<li>&lt;b&gt;</li>", string(resp.Body))

	resp = dispatchOnce(d, http.MethodGet, "/missing")
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
}

func TestRenderWithoutRenderer(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t)
	d.Get("/", func(c *dispatch.Context, _ ...any) error {
		err := c.Render("index", nil)
		assert.ErrorIs(t, err, dispatch.ErrNoRenderer)
		_, err = c.Partial("index", nil)
		assert.ErrorIs(t, err, dispatch.ErrNoRenderer)
		return nil
	})

	assert.Equal(t, http.StatusOK, dispatchOnce(d, http.MethodGet, "/").Status)
}

func TestServeHTTP(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t)
	d.Get("/hello/:name", func(c *dispatch.Context, a ...any) error {
		c.Text("hello " + a[0].(string))
		return nil
	})
	d.Get("/go", func(c *dispatch.Context, _ ...any) error {
		return c.Redirect("/hello/world", http.StatusFound)
	})

	w := httptest.NewRecorder()
	d.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/hello/gopher", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello gopher", w.Body.String())

	w = httptest.NewRecorder()
	d.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/go", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/hello/world", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/go", nil)
	r.Header.Set("HX-Request", "true")
	d.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/hello/world", w.Header().Get("HX-Location"))

	w = httptest.NewRecorder()
	d.ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/hello/gopher", bytes.NewReader(nil)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}
