package view_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch/core/view"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"layout.html":     {Data: []byte(`<main>{{ .Content }}</main>`)},
		"template.html":   {Data: []byte(`<h1>hello {{ .name }}</h1>`)},
		"partial.html":    {Data: []byte(`<b>{{ .name }}</b>`)},
		"books/show.html": {Data: []byte(`{{ upper .title }}`)},
		"broken.html":     {Data: []byte(`{{ .missing.field }}`)},
		"bad-syntax.html": {Data: []byte(`{{ if }}`)},
	}
}

func TestTemplatesRender(t *testing.T) {
	t.Parallel()

	r := view.NewFS(testFS(), view.WithLayout("layout"))

	var sb strings.Builder
	require.NoError(t, r.Render(&sb, "template", map[string]any{"name": "<dispatch>"}))
	assert.Equal(t, "<main><h1>hello &lt;dispatch&gt;</h1></main>", sb.String())
}

func TestTemplatesRenderWithoutLayout(t *testing.T) {
	t.Parallel()

	r := view.NewFS(testFS())

	var sb strings.Builder
	require.NoError(t, r.Render(&sb, "template", map[string]any{"name": "x"}))
	assert.Equal(t, "<h1>hello x</h1>", sb.String())
}

func TestTemplatesPartial(t *testing.T) {
	t.Parallel()

	r := view.NewFS(testFS(), view.WithLayout("layout"))

	out, err := r.Partial("partial", map[string]any{"name": "dispatch"})
	require.NoError(t, err)
	assert.Equal(t, "<b>dispatch</b>", out)
}

func TestTemplatesFuncsAndNested(t *testing.T) {
	t.Parallel()

	r := view.NewFS(testFS(), view.WithFuncs(map[string]any{"upper": strings.ToUpper}))

	out, err := r.Partial("books/show", map[string]any{"title": "dispatch"})
	require.NoError(t, err)
	assert.Equal(t, "DISPATCH", out)
}

func TestTemplatesErrors(t *testing.T) {
	t.Parallel()

	r := view.NewFS(testFS())

	_, err := r.Partial("missing", nil)
	assert.ErrorIs(t, err, view.ErrTemplateNotFound)

	_, err = r.Partial("../secret", nil)
	assert.ErrorIs(t, err, view.ErrInvalidName)

	_, err = r.Partial("", nil)
	assert.ErrorIs(t, err, view.ErrInvalidName)

	_, err = r.Partial("bad-syntax", nil)
	assert.ErrorIs(t, err, view.ErrRenderFailed)

	var sb strings.Builder
	err = r.Render(&sb, "broken", map[string]any{"missing": 1})
	assert.ErrorIs(t, err, view.ErrRenderFailed)
	assert.Empty(t, sb.String())
}

func TestTemplatesFromDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "page.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o600))

	cached := view.New(dir, view.WithExtension(".tmpl"))
	reloading := view.New(dir, view.WithExtension(".tmpl"), view.WithReload(true))

	out, err := cached.Partial("page", nil)
	require.NoError(t, err)
	assert.Equal(t, "v1", out)
	out, err = reloading.Partial("page", nil)
	require.NoError(t, err)
	assert.Equal(t, "v1", out)

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o600))

	out, err = cached.Partial("page", nil)
	require.NoError(t, err)
	assert.Equal(t, "v1", out)
	out, err = reloading.Partial("page", nil)
	require.NoError(t, err)
	assert.Equal(t, "v2", out)
}

func TestComponent(t *testing.T) {
	t.Parallel()

	ok := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>templ</p>")
		return err
	})
	body, err := view.Component(context.Background(), ok)
	require.NoError(t, err)
	assert.Equal(t, "<p>templ</p>", string(body))

	failing := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return errors.New("boom")
	})
	_, err = view.Component(context.Background(), failing)
	assert.ErrorIs(t, err, view.ErrRenderFailed)

	_, err = view.Component(context.Background(), nil)
	assert.ErrorIs(t, err, view.ErrNilComponent)
}
