package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
)

// daemonCtx is cancelled by SIGINT, SIGTERM or Stop.
type daemonCtx struct {
	ctx    context.Context
	cancel context.CancelFunc
	sigc   chan os.Signal
}

func (dc *daemonCtx) Stop() {
	signal.Stop(dc.sigc)
	dc.cancel()
}

func newDaemonCtx(logger log.FieldLogger) *daemonCtx {
	ctx, cancel := context.WithCancel(context.Background())
	dc := &daemonCtx{
		ctx:    ctx,
		cancel: cancel,
		sigc:   make(chan os.Signal, 1),
	}
	signal.Notify(dc.sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-dc.sigc:
			logger.WithField("signal", sig).Info("stopped by signal")
			cancel()
		case <-ctx.Done():
		}
	}()
	return dc
}
