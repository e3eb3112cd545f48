package ignition

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gvalkov/golang-evdev"
	log "github.com/sirupsen/logrus"
)

// EvdevSource watches key presses on an input device, as produced by a
// gpio-keys overlay wired to the ignition line. Device is either a path
// under /dev/input or a device name.
type EvdevSource struct {
	Device string
	// Key restricts events to one key code; zero accepts any key.
	Key int
}

// eventReader is the part of *evdev.InputDevice the watch reads from.
type eventReader interface {
	ReadOne() (*evdev.InputEvent, error)
}

type evdevWatch struct {
	in    eventReader
	file  io.Closer
	errc  chan error
	donec chan struct{}

	mu     sync.Mutex
	closed bool
}

func (s *EvdevSource) Subscribe(pin int, h Handler) (Subscription, error) {
	dev, err := openInput(s.Device)
	if err != nil {
		return nil, fmt.Errorf("ignition: open input %q: %w", s.Device, err)
	}
	log.Infof("reading ignition from %q (%s)", dev.Name, dev.Fn)
	return watchEvents(dev, dev.File, pin, s.Key, h), nil
}

func watchEvents(in eventReader, file io.Closer, pin, key int, h Handler) *evdevWatch {
	w := &evdevWatch{
		in:    in,
		file:  file,
		errc:  make(chan error, 1),
		donec: make(chan struct{}),
	}
	go w.read(pin, key, h)
	return w
}

func (w *evdevWatch) Err() <-chan error { return w.errc }

func (w *evdevWatch) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()
	err := w.file.Close()
	<-w.donec
	return err
}

func (w *evdevWatch) read(pin, key int, h Handler) {
	defer close(w.donec)
	for {
		ev, err := w.in.ReadOne()
		if err != nil {
			w.mu.Lock()
			closed := w.closed
			w.mu.Unlock()
			if !closed {
				w.errc <- fmt.Errorf("ignition: input: %w", err)
			}
			return
		}
		if ev.Type != evdev.EV_KEY || ev.Value != 1 {
			continue
		}
		if key != 0 && int(ev.Code) != key {
			continue
		}
		h(Event{Pin: pin, Time: time.Now()})
	}
}

func openInput(dev string) (*evdev.InputDevice, error) {
	if strings.HasPrefix(dev, "/") {
		return evdev.Open(dev)
	}
	devices, err := evdev.ListInputDevices()
	if err != nil {
		return nil, err
	}
	var found *evdev.InputDevice
	for _, d := range devices {
		if found == nil && strings.TrimSpace(d.Name) == dev {
			found = d
			continue
		}
		d.File.Close()
	}
	if found == nil {
		return nil, fmt.Errorf("no input device named %q", dev)
	}
	return found, nil
}
