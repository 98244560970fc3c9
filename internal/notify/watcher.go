package notify

import (
	"github.com/rs/zerolog"

	"github.com/avrillon/cadenza/internal/catalog"
	"github.com/avrillon/cadenza/internal/session"
)

const nowPlayingTimeout = 5000 // ms

// Watcher sends a now-playing notification whenever the session moves to a
// new item. Successive notifications replace each other so the desktop only
// ever shows one.
type Watcher struct {
	svc      session.Service
	sub      *session.Subscription
	notifier Notifier
	log      zerolog.Logger

	lastID uint32

	stop chan struct{}
	done chan struct{}
}

// NewWatcher subscribes to svc. Call Run to start delivering notifications.
func NewWatcher(svc session.Service, notifier Notifier, log zerolog.Logger) *Watcher {
	return &Watcher{
		svc:      svc,
		sub:      svc.Subscribe(),
		notifier: notifier,
		log:      log.With().Str("component", "notify").Logger(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run blocks until Close is called or the session shuts down.
func (w *Watcher) Run() {
	defer close(w.done)
	defer w.svc.Unsubscribe(w.sub)

	for {
		select {
		case e := <-w.sub.ItemChanged:
			if e.Current != nil {
				w.announce(*e.Current)
			}
		case <-w.sub.Done:
			return
		case <-w.stop:
			return
		}
	}
}

// Close stops the watcher and waits for Run to return.
func (w *Watcher) Close() {
	close(w.stop)
	<-w.done
}

func (w *Watcher) announce(item catalog.PlayableItem) {
	id, err := w.notifier.Notify(Notification{
		Title:      item.DisplayTitle(),
		Body:       notificationBody(item),
		Timeout:    nowPlayingTimeout,
		ReplacesID: w.lastID,
		Urgency:    UrgencyLow,
	})
	if err != nil {
		w.log.Debug().Err(err).Msg("now-playing notification failed")
		return
	}
	if id != 0 {
		w.lastID = id
	}
}

// notificationBody renders the secondary line, "Artist · Album" when both
// are known.
func notificationBody(item catalog.PlayableItem) string {
	switch {
	case item.Artist != "" && item.Album != "":
		return item.Artist + " · " + item.Album
	case item.Artist != "":
		return item.Artist
	case item.Album != "":
		return item.Album
	default:
		return ""
	}
}
