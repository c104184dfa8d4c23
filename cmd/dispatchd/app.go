package main

import (
	"context"
	"crypto/md5"
	"embed"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/dispatch/core/dispatch"
	"github.com/dmitrymomot/dispatch/core/health"
	"github.com/dmitrymomot/dispatch/core/logger"
	"github.com/dmitrymomot/dispatch/core/view"
)

//go:embed views/*.html
var viewsFS embed.FS

// defaultRenderer serves the embedded demo templates.
func defaultRenderer(layout string) view.Renderer {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}
	if layout == "" {
		layout = "layout"
	}
	return view.NewFS(sub, view.WithLayout(layout))
}

// newApp builds the demo dispatcher. checks feed the readiness endpoint.
func newApp(cfg Config, log *slog.Logger, checks []func(context.Context) error, opts ...dispatch.Option) *dispatch.Dispatcher {
	if cfg.Dispatch.ViewsDirectory == "" {
		opts = append([]dispatch.Option{dispatch.WithRenderer(defaultRenderer(cfg.Dispatch.DefaultLayout))}, opts...)
	}
	d := dispatch.New(cfg.Dispatch, append([]dispatch.Option{dispatch.WithLogger(log)}, opts...)...)

	d.Before(func(c *dispatch.Context, method, path string) error {
		c.Logger().DebugContext(c.Context(), "before", logger.Method(method), logger.Path(path))
		c.MergeParams(c.QueryValues())
		return nil
	})
	d.BeforeScope(dispatch.Regexp(`^/admin/`), func(c *dispatch.Context, _, _ string) error {
		c.SetHeader("X-Admin-Before", "true")
		return nil
	})
	d.After(func(c *dispatch.Context, method, path string) error {
		c.Logger().DebugContext(c.Context(), "after", logger.Method(method), logger.Path(path))
		return nil
	})
	d.AfterScope(dispatch.Regexp(`^/admin/`), func(c *dispatch.Context, _, _ string) error {
		c.SetHeader("X-Admin-After", "true")
		return nil
	})

	d.ErrorHandler(http.StatusNotFound, func(c *dispatch.Context, _ int, _ string) error {
		c.Text("file not found")
		return nil
	})

	d.Get("/live", health.Liveness)
	d.Get("/ready", health.Readiness(log, checks...))

	d.Get("/error", func(c *dispatch.Context, _ ...any) error {
		c.Error(http.StatusInternalServerError)
		return nil
	})

	d.Any("/any", func(c *dispatch.Context, _ ...any) error {
		c.Text("any method route test")
		return nil
	})

	d.Get("/index", func(c *dispatch.Context, _ ...any) error {
		c.Text(fmt.Sprintf("GET received %s and %s", c.ParamString("name"), c.Query("name")))
		return nil
	})

	d.Post("/index", func(c *dispatch.Context, _ ...any) error {
		body, err := c.RequestBody()
		if err != nil {
			return dispatch.NewError(http.StatusBadRequest, err.Error())
		}
		if form, ok := body.(url.Values); ok {
			c.MergeParams(form)
		}
		c.Text(fmt.Sprintf("POST received %s and %s", c.ParamString("name"), bodyValue(body, "name")))
		return nil
	})

	d.Put("/index", func(c *dispatch.Context, _ ...any) error {
		body, err := c.RequestBody()
		if err != nil {
			return dispatch.NewError(http.StatusBadRequest, err.Error())
		}
		c.Text("PUT received " + bodyValue(body, "name"))
		return nil
	})

	d.Put("/override", func(c *dispatch.Context, _ ...any) error {
		c.Text("PUT received via _method")
		return nil
	})

	d.Delete("/index/:id", func(c *dispatch.Context, _ ...any) error {
		c.Text("DELETE route test")
		return nil
	})

	project := map[string]string{"name": "noodlehaus", "project": "dispatch"}
	d.Get("/json", func(c *dispatch.Context, _ ...any) error {
		return c.JSON(project)
	})
	d.Get("/jsonp", func(c *dispatch.Context, _ ...any) error {
		callback := c.Query("callback")
		if callback == "" {
			callback = "callback"
		}
		if err := c.JSONP(project, callback); err != nil {
			return dispatch.NewError(http.StatusBadRequest, "invalid callback")
		}
		return nil
	})

	d.Get("/redirect/:code", func(c *dispatch.Context, args ...any) error {
		code, err := strconv.Atoi(args[0].(string))
		if err != nil {
			return dispatch.NewError(http.StatusBadRequest, "invalid redirect code")
		}
		if err := c.Redirect("/index", code); err != nil {
			return dispatch.NewError(http.StatusBadRequest, err.Error())
		}
		return nil
	})

	d.Filter("id", func(c *dispatch.Context, value any) error {
		c.SetHeader("X-Id-Found", fmt.Sprint(value))
		return nil
	})
	d.Get("/index/:id", func(c *dispatch.Context, args ...any) error {
		c.Text(fmt.Sprintf("id = %v", args[0]))
		return nil
	})

	d.Get("/cookie-set", func(c *dispatch.Context, _ ...any) error {
		if err := c.SetCookie("cookie", "123"); err != nil {
			return err
		}
		c.Text("cookie set")
		return nil
	})
	d.Get("/cookie-get", func(c *dispatch.Context, _ ...any) error {
		value, _ := c.Cookie("cookie")
		c.Text("cookie=" + value)
		return nil
	})

	d.Post("/request-headers", func(c *dispatch.Context, _ ...any) error {
		c.Text(c.Header("content-type"))
		return nil
	})
	d.Post("/request-body", func(c *dispatch.Context, _ ...any) error {
		body, err := c.RequestBody()
		if err != nil {
			return dispatch.NewError(http.StatusBadRequest, err.Error())
		}
		c.Text("name=" + bodyValue(body, "name"))
		return nil
	})
	d.Post("/request-body-file", func(c *dispatch.Context, _ ...any) error {
		ref, err := c.RequestBodyRef()
		if err != nil {
			return err
		}
		body, err := ref.Decode(c.Context())
		if err != nil {
			return dispatch.NewError(http.StatusBadRequest, err.Error())
		}
		c.Text("name=" + bodyValue(body, "name"))
		return nil
	})

	d.Get("/params", func(c *dispatch.Context, _ ...any) error {
		c.Text(fmt.Sprintf("one=%s\ntwo=%s\n", c.ParamString("one"), c.ParamString("two")))
		return nil
	})

	d.Get("/flash-set", func(c *dispatch.Context, _ ...any) error {
		c.SetFlash("message", "success")
		c.FlashNow("now", time.Now().Unix())
		return nil
	})
	d.Get("/flash-get", func(c *dispatch.Context, _ ...any) error {
		var sb strings.Builder
		fmt.Fprintf(&sb, "message=%v", orEmpty(c.Flash("message")))
		if c.Flash("now") == nil {
			sb.WriteString("flash-now is null")
		} else {
			sb.WriteString("flash-now exists")
		}
		c.Text(sb.String())
		return nil
	})

	d.Get("/partial/:name", func(c *dispatch.Context, args ...any) error {
		out, err := c.Partial("partial", map[string]any{"name": args[0]})
		if err != nil {
			return err
		}
		c.HTML(out)
		return nil
	})
	d.Get("/template/:name", func(c *dispatch.Context, args ...any) error {
		return c.Render("template", map[string]any{"name": args[0]})
	})
	d.Get("/component/:name", func(c *dispatch.Context, args ...any) error {
		return c.Component(greeting(args[0].(string)))
	})

	d.Get("/session/setup", func(c *dispatch.Context, _ ...any) error {
		if err := c.SetSession("name", "i am dispatch"); err != nil {
			return err
		}
		return c.SetSession("type", "php framework")
	})
	d.Get("/session/check", func(c *dispatch.Context, _ ...any) error {
		if err := c.SetSession("type", nil); err != nil {
			return err
		}
		var sb strings.Builder
		typ, err := c.Session("type")
		if err != nil {
			return err
		}
		if typ != nil {
			sb.WriteString("type is still set")
		}
		name, err := c.Session("name")
		if err != nil {
			return err
		}
		fmt.Fprint(&sb, orEmpty(name))
		c.Text(sb.String())
		return nil
	})

	d.Get("/download", func(c *dispatch.Context, _ ...any) error {
		c.Send(cfg.DownloadFile, "readme.txt", 60*60*24*365)
		return nil
	})

	d.Bind("hashable", func(raw string, _ dispatch.Lookup) (any, error) {
		sum := md5.Sum([]byte(raw))
		return hex.EncodeToString(sum[:]), nil
	})
	d.Get("/md5/:hashable", func(c *dispatch.Context, args ...any) error {
		c.Text(fmt.Sprintf("%v-%s", args[0], c.ParamString("hashable")))
		return nil
	})

	d.Bind("author", func(raw string, _ dispatch.Lookup) (any, error) {
		return strings.ToUpper(raw), nil
	})
	d.Bind("title", func(raw string, lookup dispatch.Lookup) (any, error) {
		author, err := lookup("author")
		if err != nil {
			return nil, err
		}
		return fmt.Sprintf("%s by %v", strings.ToUpper(raw), author), nil
	}, "author")
	d.Get("/authors/:author/books/:title", func(c *dispatch.Context, args ...any) error {
		c.Text(fmt.Sprint(args[1]))
		return nil
	})

	d.Get("/list", func(c *dispatch.Context, _ ...any) error {
		c.Text("different list")
		return nil
	})
	d.Get("/admin/:stub", func(c *dispatch.Context, args ...any) error {
		c.Text(fmt.Sprintf("%v\n", args[0]))
		return nil
	})

	return d
}

// greeting is a templ component written without the templ code generator.
func greeting(name string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>hello "+templ.EscapeString(name)+"</p>")
		return err
	})
}

// bodyValue extracts key from a parsed form or JSON object body.
func bodyValue(body any, key string) string {
	switch b := body.(type) {
	case url.Values:
		return b.Get(key)
	case map[string]any:
		if v, ok := b[key]; ok && v != nil {
			return fmt.Sprint(v)
		}
	}
	return ""
}

func orEmpty(v any) any {
	if v == nil {
		return ""
	}
	return v
}
