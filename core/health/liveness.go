package health

import (
	"net/http"

	"github.com/dmitrymomot/dispatch/core/dispatch"
)

// Liveness indicates if the service process is running.
// Always responds "ALIVE" with 200 OK. No dependency checks.
func Liveness(c *dispatch.Context, _ ...any) error {
	c.Text("ALIVE")
	return nil
}

// NoContent responds 204 without body. Ideal for high-frequency checks.
func NoContent(c *dispatch.Context, _ ...any) error {
	c.Status(http.StatusNoContent)
	return nil
}
