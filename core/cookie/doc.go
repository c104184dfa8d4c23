// Package cookie builds outgoing HTTP cookies and reads incoming ones with
// secure defaults (Path "/", HttpOnly, SameSite=Lax) and optional HMAC-SHA256
// signing with key rotation.
//
//	m, err := cookie.New([]string{"your-32-char-secret-key-here!!!!"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	c, err := m.Cookie("theme", "dark mode", cookie.WithMaxAge(3600))
//	http.SetCookie(w, c)
//
//	value, ok := m.Value(r.Cookies(), "theme") // "dark mode", true
//
//	signed, err := m.SignedCookie("_F", sessionID, cookie.WithHTTPOnly(true))
//	id, err := m.SignedValue(r.Cookies(), "_F")
//	if errors.Is(err, cookie.ErrInvalidSignature) {
//		// tampered
//	}
//
// Values are URL-escaped when written and unescaped when read, so arbitrary
// strings survive the round trip. Cookies larger than MaxCookieSize are rejected
// with ErrCookieTooLarge.
package cookie
