// Package dispatch is a request dispatch engine: it matches a request to a
// registered route, binds the captured parameters, runs the handler between
// before and after filters and produces a response.Response.
//
// # Registration
//
// Routes, parameter bindings, filters and error handlers are registered at
// startup. The dispatcher seals on the first dispatch, or explicitly with Seal,
// and is read-only afterwards. Misconfiguration (bad template, duplicate capture,
// unknown method, registration after seal) panics; declared binding cycles are
// reported by Seal.
//
//	d := dispatch.New(dispatch.DefaultConfig(), dispatch.WithLogger(log))
//
//	d.Bind("author", func(raw string, _ dispatch.Lookup) (any, error) {
//		return strings.ToUpper(raw), nil
//	})
//	d.Bind("title", func(raw string, lookup dispatch.Lookup) (any, error) {
//		author, err := lookup("author")
//		if err != nil {
//			return nil, err
//		}
//		return fmt.Sprintf("%s by %s", strings.ToUpper(raw), author), nil
//	}, "author")
//
//	d.Get("/authors/:author/books/:title", func(c *dispatch.Context, args ...any) error {
//		c.Text(args[1].(string)) // "DISPATCH by NOODLEHAUS"
//		return nil
//	})
//
//	if err := d.Seal(); err != nil {
//		return err
//	}
//	http.ListenAndServe(":8080", d)
//
// # Matching
//
// Routes bound to a method are tried in registration order before "*" routes,
// and the first structural match wins. HEAD requests fall back to GET routes.
// POST requests may override their method with the X-HTTP-Method-Override
// header or a _method query parameter.
//
// # Pipeline
//
// For a matched route the dispatcher binds every parameter once in declaration
// order, runs parameter filters and before-filters, calls the handler with the
// bound values and runs after-filters. Error and Redirect halt the pipeline:
// in a before-filter they skip the handler and all after-filters; in the
// handler the after-filters still run; in an after-filter they stop the
// remaining after-filters. A returned error or a panic becomes a 500, or the
// status of a *StatusError.
//
// # Request state
//
// Context exposes parameters, query, headers, the body (parsed with RequestBody
// or spooled with RequestBodyRef), cookies, session values and flash messages.
// Session and flash state live in a session.Store keyed by an id carried in the
// Config.FlashCookieName cookie, signed when Config.CookieSecret is set. The id
// is minted on the first write.
package dispatch
