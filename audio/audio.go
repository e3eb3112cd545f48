// Package audio drives a serial-attached audio module that plays tracks
// from its own storage.
package audio

import (
	"errors"
	"fmt"
)

var (
	// ErrLinkUnavailable is returned when the serial link cannot be opened
	// or the module never answers the readiness handshake.
	ErrLinkUnavailable = errors.New("audio: link unavailable")
	// ErrHandshakeTimeout is returned when the readiness handshake runs out
	// of attempts or time. It matches ErrLinkUnavailable.
	ErrHandshakeTimeout = fmt.Errorf("%w: handshake timed out", ErrLinkUnavailable)
	// ErrNoResponse is returned when the module stays silent after a
	// command. Playback may still have happened.
	ErrNoResponse = errors.New("audio: no response")
)
