package dispatch

// Config holds dispatcher settings with environment variable support.
type Config struct {
	// FlashCookieName names the cookie carrying the session id used for session and flash state.
	FlashCookieName string `env:"DISPATCH_FLASH_COOKIE" envDefault:"_F"`
	// ViewsDirectory is the base directory for Render and Partial. Empty disables templates.
	ViewsDirectory string `env:"DISPATCH_VIEWS" envDefault:""`
	// DefaultLayout wraps Render output. Empty disables layouts.
	DefaultLayout string `env:"DISPATCH_LAYOUT" envDefault:""`
	// BasePath is a URL prefix stripped before matching and prepended to root-relative redirects.
	BasePath string `env:"DISPATCH_URL" envDefault:""`
	// CookieSecret signs the session cookie when set (at least 32 characters).
	CookieSecret string `env:"DISPATCH_COOKIE_SECRET" envDefault:""`
	// BodyDir is the directory for spooled request bodies. Empty uses the system temp dir.
	BodyDir string `env:"DISPATCH_BODY_DIR" envDefault:""`
	// MaxBodySize limits bodies loaded into memory by RequestBody.
	MaxBodySize int64 `env:"DISPATCH_MAX_BODY_SIZE" envDefault:"10485760"`
	// MaxSpoolSize limits spooled bodies. Zero means unlimited.
	MaxSpoolSize int64 `env:"DISPATCH_MAX_SPOOL_SIZE" envDefault:"0"`
	// MethodOverride enables POST method override via header or _method query parameter.
	MethodOverride bool `env:"DISPATCH_METHOD_OVERRIDE" envDefault:"true"`
}

// DefaultConfig returns a Config with the same defaults as the env tags.
func DefaultConfig() Config {
	return Config{
		FlashCookieName: "_F",
		MaxBodySize:     10 << 20,
		MethodOverride:  true,
	}
}
