// Package view renders html/template views and templ components for handlers.
//
// Templates reads views from a directory (or any fs.FS) by name, caches parsed
// templates and optionally wraps Render output in a default layout. The layout
// receives LayoutData with the rendered view in .Content:
//
//	// views/layout.html
//	<html><body>{{ .Content }}</body></html>
//
//	r := view.New("./views", view.WithLayout("layout"))
//	err := r.Render(w, "template", map[string]any{"name": "dispatch"})
//	s, err := r.Partial("partial", map[string]any{"name": "dispatch"})
//
// Component renders a templ.Component into memory:
//
//	body, err := view.Component(ctx, pages.Home(user))
package view
