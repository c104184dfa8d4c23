package dispatch

import "time"

// Outcome summarizes a finished dispatch.
type Outcome struct {
	Method string
	Path   string
	// Route is "METHOD template" of the matched route, empty when nothing matched.
	Route    string
	Status   int
	Duration time.Duration
	// Err is the failure that produced a 5xx, if any.
	Err error
}

// Observer is notified after each dispatch is finalized. Implementations must
// be safe for concurrent use.
type Observer interface {
	ObserveDispatch(Outcome)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Outcome)

// ObserveDispatch calls f(o).
func (f ObserverFunc) ObserveDispatch(o Outcome) {
	f(o)
}
