package daemon

import (
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/KacperPiotrowski/talkingcar/audio"
	"github.com/KacperPiotrowski/talkingcar/ignition"
)

// State of the daily-play gate.
type State int

const (
	Armed State = iota
	Played
)

func (s State) String() string {
	if s == Played {
		return "played"
	}
	return "armed"
}

// Player plays a track on the audio module.
type Player interface {
	Play(t audio.Track) (audio.Response, error)
}

// midnightWindow is how long after local midnight every edge re-arms.
const midnightWindow = time.Minute

// Controller plays the message on the first ignition edge of each day.
type Controller struct {
	player Player
	track  audio.Track
	now    func() time.Time
	log    log.FieldLogger

	mu             sync.Mutex
	hasPlayedToday bool
	lastResetCheck time.Time
}

func NewController(p Player, track audio.Track, logger log.FieldLogger) *Controller {
	return newController(p, track, time.Now, logger)
}

func newController(p Player, track audio.Track, now func() time.Time, logger log.FieldLogger) *Controller {
	return &Controller{
		player:         p,
		track:          track,
		now:            now,
		log:            logger,
		lastResetCheck: now(),
	}
}

// State reports whether today's message is still pending.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hasPlayedToday {
		return Played
	}
	return Armed
}

// HandleEdge is the ignition.Handler. A failing invocation is logged and
// contained so later edges are still processed.
func (c *Controller) HandleEdge(ev ignition.Event) {
	defer func() {
		if r := recover(); r != nil {
			c.log.WithFields(log.Fields{"pin": ev.Pin, "panic": r}).Error("ignition handler failed")
		}
	}()
	c.log.WithField("pin", ev.Pin).Debug("ignition edge")
	c.OnIgnitionEdge()
}

// OnIgnitionEdge plays the message unless it already played today. A failed
// play still counts; it is not retried until the next day.
func (c *Controller) OnIgnitionEdge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetDailyPlay()
	if c.hasPlayedToday {
		c.log.Debug("ignition on, message already played today")
		return
	}
	c.hasPlayedToday = true
	_, err := c.player.Play(c.track)
	switch {
	case errors.Is(err, audio.ErrNoResponse):
		c.log.WithField("track", int(c.track)).Warn("ignition on, message sent without acknowledgement")
	case err != nil:
		c.log.WithError(err).WithField("track", int(c.track)).Error("ignition on, message not played")
	default:
		c.log.WithField("track", int(c.track)).Info("ignition on, message played")
	}
}

// ResetDailyPlay re-arms the gate after midnight.
func (c *Controller) ResetDailyPlay() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetDailyPlay()
}

func (c *Controller) resetDailyPlay() {
	now := c.now()
	last := c.lastResetCheck
	c.lastResetCheck = now
	if !c.hasPlayedToday {
		return
	}
	if now.Sub(startOfDay(now)) < midnightWindow || !sameDay(last, now) {
		c.hasPlayedToday = false
		c.log.WithField("last_check", last.Format(time.RFC3339)).Info("daily play flag reset after midnight")
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
