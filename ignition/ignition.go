// Package ignition delivers rising edges of the ignition signal.
//
// Debouncing is left to the platform: the GPIO character device applies a
// debounce period in the kernel, and gpio-keys input devices debounce in
// their driver.
package ignition

import (
	"io"
	"time"
)

// Event is one ignition-on edge.
type Event struct {
	Pin  int
	Time time.Time
}

// Handler is invoked once per edge, on the source's goroutine.
type Handler func(Event)

// Subscription is an armed edge watch. Closing it detaches the handler.
type Subscription interface {
	io.Closer
	// Err reports at most one error if the watch stops on its own.
	Err() <-chan error
}

// Source subscribes handlers to rising edges on a pin.
type Source interface {
	Subscribe(pin int, h Handler) (Subscription, error)
}
