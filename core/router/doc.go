// Package router compiles route path templates and resolves requests against an
// ordered route table.
//
// Templates are "/"-delimited; a segment starting with ":" is a named capture:
//
//	t := router.NewTable[http.HandlerFunc]()
//	t.Register(http.MethodGet, "/authors/:author/books/:title", h)
//	t.Register("*", "/any", h)
//	t.Seal()
//
//	route, values, err := t.Resolve(http.MethodGet, "/authors/noodlehaus/books/dispatch")
//	// route.Pattern.Names() == ["author", "title"], values == ["noodlehaus", "dispatch"]
//
// Resolution walks routes in registration order and the first structural match
// wins, so specific templates must be registered before general ones. Routes
// bound to an explicit method always take precedence over "*" routes.
package router
