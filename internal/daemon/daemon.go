package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/KacperPiotrowski/talkingcar/audio"
	"github.com/KacperPiotrowski/talkingcar/ignition"
	"github.com/KacperPiotrowski/talkingcar/internal/config"
)

// ErrRuntimeFault is returned by Run when the main loop stops on a failure
// rather than on a signal.
var ErrRuntimeFault = errors.New("runtime fault")

type channel interface {
	Player
	io.Closer
}

type daemon struct {
	cfg    *config.Config
	log    *log.Logger
	dial   func(ctx context.Context) (channel, error)
	source ignition.Source
	now    func() time.Time
	ctrl   *Controller

	wg    sync.WaitGroup
	errc  chan error
	donec chan struct{}
}

// Run opens the audio module, arms the ignition watcher and blocks until
// SIGINT/SIGTERM or a runtime fault. Entries go to the standard logger; see
// OpenLog.
func Run(cfg *config.Config) error {
	logger := log.StandardLogger()
	dc := newDaemonCtx(logger)
	defer dc.Stop()

	d := newDaemon(cfg, logger)
	d.dial = d.startAudio
	d.source = newSource(cfg)
	err := d.run(dc.ctx)
	if err != nil {
		logger.WithError(err).Error("daemon stopped")
	}
	logger.Info("talkingcar stopped")
	return err
}

func newDaemon(cfg *config.Config, logger *log.Logger) *daemon {
	return &daemon{
		cfg:   cfg,
		log:   logger,
		now:   time.Now,
		errc:  make(chan error),
		donec: make(chan struct{}),
	}
}

func (d *daemon) run(ctx context.Context) (err error) {
	defer func() {
		close(d.donec)
		d.wg.Wait()
	}()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrRuntimeFault, r)
		}
	}()

	d.log.WithFields(log.Fields{
		"pin":  d.cfg.IgnitionPin,
		"port": d.cfg.SerialPort,
	}).Info("talkingcar starting")

	ch, err := d.dial(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			d.log.Info("interrupted while waiting for the audio module")
			return nil
		}
		return err
	}
	defer ch.Close()

	ctrl := newController(ch, audio.Track(d.cfg.Track), d.now, d.log)
	d.ctrl = ctrl
	sub, err := d.source.Subscribe(d.cfg.IgnitionPin, ctrl.HandleEdge)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sub.Close(); cerr != nil {
			d.log.WithError(cerr).Warn("detaching ignition watcher")
		}
		d.log.Info("ignition watcher detached")
	}()
	d.log.WithField("pin", d.cfg.IgnitionPin).Info("ignition watcher armed")

	d.worker(func() error { return d.watch(sub) })
	if d.cfg.ResetInterval > 0 {
		d.worker(func() error { return d.rearm(ctrl) })
	}

	select {
	case <-ctx.Done():
		return nil
	case werr := <-d.errc:
		return fmt.Errorf("%w: %w", ErrRuntimeFault, werr)
	}
}

func (d *daemon) worker(f func() error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		select {
		case d.errc <- f():
		case <-d.donec:
		}
	}()
}

func (d *daemon) watch(sub ignition.Subscription) error {
	select {
	case err := <-sub.Err():
		return err
	case <-d.donec:
		return nil
	}
}

// rearm runs the midnight check on a ticker so the gate also resets on days
// without an edge right after midnight.
func (d *daemon) rearm(ctrl *Controller) error {
	t := time.NewTicker(d.cfg.ResetInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			ctrl.ResetDailyPlay()
		case <-d.donec:
			return nil
		}
	}
}
