package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

// Link is the byte stream to the module. serial.Port satisfies it.
type Link interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// Config describes how to reach the module and how long to wait for it.
type Config struct {
	Port        string
	Baud        int
	ReadTimeout time.Duration

	// HandshakeInterval is the idle time between two status queries.
	HandshakeInterval time.Duration
	// HandshakeTimeout and HandshakeAttempts bound AwaitReady. Zero
	// disables the respective bound.
	HandshakeTimeout  time.Duration
	HandshakeAttempts int
}

func (c Config) withDefaults() Config {
	if c.Baud == 0 {
		c.Baud = 9600
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = time.Second
	}
	if c.HandshakeInterval == 0 {
		c.HandshakeInterval = 100 * time.Millisecond
	}
	return c
}

// Channel is an opened command link to the audio module.
type Channel struct {
	cfg  Config
	link Link
	log  log.FieldLogger

	closeOnce sync.Once
	closeErr  error
}

// Open opens the serial port. It does not wait for the module; see Dial.
func Open(cfg Config, logger log.FieldLogger) (*Channel, error) {
	cfg = cfg.withDefaults()
	mode := &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(cfg.Port, mode)
	if err != nil {
		logger.WithError(err).WithField("port", cfg.Port).Error("cannot open serial port")
		return nil, fmt.Errorf("%w: %s: %w", ErrLinkUnavailable, cfg.Port, err)
	}
	c, err := newChannel(p, cfg, logger)
	if err != nil {
		p.Close()
		return nil, err
	}
	return c, nil
}

// Dial opens the port and blocks until the module answers the handshake.
func Dial(ctx context.Context, cfg Config, logger log.FieldLogger) (*Channel, error) {
	c, err := Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := c.AwaitReady(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func newChannel(l Link, cfg Config, logger log.FieldLogger) (*Channel, error) {
	cfg = cfg.withDefaults()
	if err := l.SetReadTimeout(cfg.ReadTimeout); err != nil {
		return nil, fmt.Errorf("%w: %s: set read timeout: %w", ErrLinkUnavailable, cfg.Port, err)
	}
	return &Channel{
		cfg:  cfg,
		link: l,
		log:  logger.WithField("port", cfg.Port),
	}, nil
}

// AwaitReady sends status queries until the module answers with anything.
func (c *Channel) AwaitReady(ctx context.Context) error {
	if c.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
		defer cancel()
	}
	status := StatusFrame()
	for attempt := 1; ; attempt++ {
		resp, err := c.Query(status)
		if err != nil {
			c.log.WithError(err).Error("handshake failed")
			return fmt.Errorf("%w: %w", ErrLinkUnavailable, err)
		}
		if len(resp) > 0 {
			c.log.WithFields(log.Fields{
				"attempts": attempt,
				"response": resp,
			}).Info("audio module ready")
			return nil
		}
		if c.cfg.HandshakeAttempts > 0 && attempt >= c.cfg.HandshakeAttempts {
			c.log.WithField("attempts", attempt).Error("audio module did not answer")
			return fmt.Errorf("%w after %d attempts", ErrHandshakeTimeout, attempt)
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				c.log.WithField("attempts", attempt).Error("audio module did not answer")
				return fmt.Errorf("%w after %v", ErrHandshakeTimeout, c.cfg.HandshakeTimeout)
			}
			return ctx.Err()
		case <-time.After(c.cfg.HandshakeInterval):
		}
	}
}

// Play asks the module to play t. A silent module yields ErrNoResponse.
func (c *Channel) Play(t Track) (Response, error) {
	f := PlayFrame(t)
	l := c.log.WithFields(log.Fields{"track": int(t), "frame": f})
	l.Info("playing track")
	resp, err := c.Query(f)
	if err != nil {
		l.WithError(err).Error("play failed")
		return nil, err
	}
	if len(resp) == 0 {
		l.Error("no response from audio module after play")
		return nil, ErrNoResponse
	}
	l.WithField("response", resp).Info("play acknowledged")
	return resp, nil
}

// Query writes f and returns whatever the module sends back within the
// read timeout, up to MaxResponse bytes.
func (c *Channel) Query(f Frame) (Response, error) {
	if _, err := c.link.Write(f.Bytes()); err != nil {
		return nil, fmt.Errorf("audio: write %s: %w", f, err)
	}
	return c.readResponse()
}

func (c *Channel) readResponse() (Response, error) {
	buf := make([]byte, MaxResponse)
	n := 0
	for n < len(buf) {
		m, err := c.link.Read(buf[n:])
		n += m
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Response(buf[:n]), fmt.Errorf("audio: read: %w", err)
		}
		if m == 0 {
			// read timeout
			break
		}
	}
	return Response(buf[:n]), nil
}

// Close releases the link. Subsequent calls return the first result.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.link.Close()
		c.log.Info("serial link closed")
	})
	return c.closeErr
}
