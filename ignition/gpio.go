package ignition

import (
	"fmt"
	"time"

	gpiod "github.com/warthog618/go-gpiocdev"
)

// GPIOSource watches a line of a GPIO character device. The line is an
// active-high input biased low.
type GPIOSource struct {
	Chip     string
	Debounce time.Duration
	Consumer string
}

type gpioWatch struct {
	line *gpiod.Line
	errc chan error
}

func (w *gpioWatch) Close() error      { return w.line.Close() }
func (w *gpioWatch) Err() <-chan error { return w.errc }

func (s *GPIOSource) Subscribe(pin int, h Handler) (Subscription, error) {
	consumer := s.Consumer
	if consumer == "" {
		consumer = "talkingcar"
	}
	opts := []gpiod.LineReqOption{
		gpiod.WithConsumer(consumer),
		gpiod.AsInput,
		gpiod.WithPullDown,
		gpiod.WithRisingEdge,
		gpiod.WithEventHandler(func(evt gpiod.LineEvent) {
			if evt.Type != gpiod.LineEventRisingEdge {
				return
			}
			h(Event{Pin: evt.Offset, Time: time.Now()})
		}),
	}
	if s.Debounce > 0 {
		opts = append(opts, gpiod.WithDebounce(s.Debounce))
	}
	line, err := gpiod.RequestLine(s.Chip, pin, opts...)
	if err != nil {
		return nil, fmt.Errorf("ignition: request %s line %d: %w", s.Chip, pin, err)
	}
	// the kernel keeps the line; the event goroutine never fails on its own
	return &gpioWatch{line: line, errc: make(chan error)}, nil
}
