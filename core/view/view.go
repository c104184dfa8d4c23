package view

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/a-h/templ"
)

// Renderer renders named views. Render wraps the output in the default layout,
// Partial does not.
type Renderer interface {
	Render(w io.Writer, name string, locals any) error
	Partial(name string, locals any) (string, error)
}

// LayoutData is passed to the layout template.
type LayoutData struct {
	// Content is the rendered view, already escaped.
	Content template.HTML
	// Locals are the locals passed to Render.
	Locals any
}

// Templates renders html/template files from a views directory.
// A view named "books/show" is read from <dir>/books/show<ext>.
type Templates struct {
	fsys   fs.FS
	layout string
	ext    string
	funcs  template.FuncMap
	reload bool

	mu    sync.RWMutex
	cache map[string]*template.Template
}

var _ Renderer = (*Templates)(nil)

// Option configures Templates.
type Option func(*Templates)

// WithLayout sets the default layout view. Empty disables layouts.
func WithLayout(name string) Option {
	return func(t *Templates) {
		t.layout = name
	}
}

// WithExtension sets the template file extension (default ".html").
func WithExtension(ext string) Option {
	return func(t *Templates) {
		t.ext = ext
	}
}

// WithFuncs adds template functions.
func WithFuncs(funcs template.FuncMap) Option {
	return func(t *Templates) {
		for k, v := range funcs {
			t.funcs[k] = v
		}
	}
}

// WithReload disables the parsed template cache so edits show up without restart.
func WithReload(reload bool) Option {
	return func(t *Templates) {
		t.reload = reload
	}
}

// New creates a renderer reading views from dir.
func New(dir string, opts ...Option) *Templates {
	return NewFS(os.DirFS(dir), opts...)
}

// NewFS creates a renderer reading views from fsys, e.g. an embed.FS.
func NewFS(fsys fs.FS, opts ...Option) *Templates {
	t := &Templates{
		fsys:  fsys,
		ext:   ".html",
		funcs: template.FuncMap{},
		cache: make(map[string]*template.Template),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Render executes the view and, when a layout is configured, wraps it in the
// layout. Output is buffered so a failing template writes nothing.
func (t *Templates) Render(w io.Writer, name string, locals any) error {
	content, err := t.execute(name, locals)
	if err != nil {
		return err
	}

	if t.layout != "" {
		content, err = t.execute(t.layout, LayoutData{
			Content: template.HTML(content),
			Locals:  locals,
		})
		if err != nil {
			return err
		}
	}

	_, err = io.WriteString(w, content)
	return err
}

// Partial executes the view without a layout.
func (t *Templates) Partial(name string, locals any) (string, error) {
	return t.execute(name, locals)
}

func (t *Templates) execute(name string, data any) (string, error) {
	tmpl, err := t.lookup(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrRenderFailed, name, err)
	}
	return buf.String(), nil
}

func (t *Templates) lookup(name string) (*template.Template, error) {
	file := name + t.ext
	if name == "" || !fs.ValidPath(file) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	if !t.reload {
		t.mu.RLock()
		tmpl, ok := t.cache[name]
		t.mu.RUnlock()
		if ok {
			return tmpl, nil
		}
	}

	src, err := fs.ReadFile(t.fsys, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
		}
		return nil, err
	}

	tmpl, err := template.New(filepath.Base(file)).Funcs(t.funcs).Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRenderFailed, name, err)
	}

	if !t.reload {
		t.mu.Lock()
		t.cache[name] = tmpl
		t.mu.Unlock()
	}
	return tmpl, nil
}

// Component renders a templ component into a buffer using ctx, so a failing
// component produces no partial output.
func Component(ctx context.Context, c templ.Component) ([]byte, error) {
	if c == nil {
		return nil, ErrNilComponent
	}

	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}
	return buf.Bytes(), nil
}
