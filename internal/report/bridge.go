// Package report bridges session events to the server-side playback
// reporting endpoints: a start report when a play session first reaches
// playing, periodic progress heartbeats while it stays there, nothing
// while paused or buffering. The final stop report is owned by the
// session teardown, not by this bridge.
package report

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/avrillon/cadenza/internal/catalog"
	"github.com/avrillon/cadenza/internal/session"
)

// DefaultInterval is the progress heartbeat cadence.
const DefaultInterval = 10 * time.Second

const reportTimeout = 5 * time.Second

// Bridge consumes a session subscription and forwards playback reports.
// All reports are fire and forget: failures are logged and playback is
// never disturbed.
type Bridge struct {
	svc      session.Service
	sub      *session.Subscription
	reporter catalog.Reporter
	interval time.Duration
	log      zerolog.Logger

	mu        sync.Mutex
	info      catalog.PlaybackInfo
	playing   bool
	started   string // play session id already start-reported
	position  catalog.Ticks
	stop      chan struct{}
	stopOnce  sync.Once
	done      chan struct{}
}

// New creates a bridge on svc and subscribes immediately so no state
// change is missed before Run starts. interval <= 0 selects
// DefaultInterval.
func New(svc session.Service, reporter catalog.Reporter, interval time.Duration, log zerolog.Logger) *Bridge {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Bridge{
		svc:      svc,
		sub:      svc.Subscribe(),
		reporter: reporter,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run processes events until Close or the subscription ends. Call it on
// its own goroutine.
func (b *Bridge) Run() {
	defer close(b.done)
	sub := b.sub
	defer b.svc.Unsubscribe(sub)

	tick := time.NewTicker(b.interval)
	defer tick.Stop()

	for {
		select {
		case e, ok := <-sub.StateChanged:
			if !ok {
				return
			}
			if b.onState(e) {
				// Fresh play session: re-phase the heartbeat so the first
				// progress report lands one full interval after the start
				// report.
				tick.Reset(b.interval)
			}
		case e, ok := <-sub.PositionChanged:
			if !ok {
				return
			}
			b.mu.Lock()
			b.position = e.Position
			b.mu.Unlock()
		case <-tick.C:
			b.heartbeat()
		case <-sub.Done:
			return
		case <-b.stop:
			return
		}
	}
}

// Close stops the bridge and waits for Run to return.
func (b *Bridge) Close() {
	b.stopOnce.Do(func() { close(b.stop) })
	<-b.done
}

// onState reports whether the change started a new play session.
func (b *Bridge) onState(e session.StateChange) bool {
	b.mu.Lock()
	b.info = e.Info
	b.playing = e.Current.Reportable()
	needStart := b.playing && e.Info.PlaySessionID != "" && b.started != e.Info.PlaySessionID
	if needStart {
		b.started = e.Info.PlaySessionID
	}
	info := b.info
	b.mu.Unlock()

	if needStart {
		ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
		defer cancel()
		if err := b.reporter.ReportStart(ctx, info); err != nil {
			b.log.Warn().Err(err).Str("item", info.ItemID).Msg("start report failed")
		}
	}
	return needStart
}

func (b *Bridge) heartbeat() {
	b.mu.Lock()
	if !b.playing || b.info.PlaySessionID == "" {
		b.mu.Unlock()
		return
	}
	info := b.info
	pos := b.position
	b.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()
	if err := b.reporter.ReportProgress(ctx, info, pos); err != nil {
		b.log.Warn().Err(err).Str("item", info.ItemID).Msg("progress report failed")
	}
}
