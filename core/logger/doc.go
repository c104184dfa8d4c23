// Package logger provides slog logger construction and attribute helpers.
//
// Create loggers with New and environment presets:
//
//	log := logger.New(logger.WithDevelopment("dispatchd"))
//
//	log := logger.New(
//		logger.WithProduction("dispatchd"),
//		logger.WithOutput(os.Stderr),
//	)
//
// Attribute helpers give dispatch logs consistent keys and return an empty
// attribute for zero values:
//
//	log.Error("handler failed",
//		logger.Method(c.Method()),
//		logger.Path(c.Path()),
//		logger.Route("GET /books/:id"),
//		logger.SessionID(c.SessionID()),
//		logger.Error(err),
//	)
//
// Discard returns a logger that drops everything; components use it as their
// default so they stay silent unless a logger is injected.
package logger
