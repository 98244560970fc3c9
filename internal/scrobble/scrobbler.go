// Package scrobble submits played audio tracks to Last.fm. It follows
// the standard rules: a track scrobbles after half its duration or four
// minutes, whichever comes first, and only when at least 30 seconds
// long. Failed submissions queue in local state for a later flush.
package scrobble

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/avrillon/cadenza/internal/catalog"
	"github.com/avrillon/cadenza/internal/lastfm"
	"github.com/avrillon/cadenza/internal/session"
	"github.com/avrillon/cadenza/internal/state"
)

const (
	minTrackLength  = 30 * time.Second
	maxScrobbleWait = 4 * time.Minute
	pendingMaxAge   = 14 * 24 * time.Hour
)

// API is the Last.fm surface the scrobbler needs.
type API interface {
	IsAuthenticated() bool
	UpdateNowPlaying(track lastfm.ScrobbleTrack) error
	Scrobble(track lastfm.ScrobbleTrack) error
	ScrobbleBatch(tracks []lastfm.ScrobbleTrack) error
}

// Store persists scrobbles that could not be submitted.
type Store interface {
	AddPendingScrobble(s state.PendingScrobble) error
	GetPendingScrobbles() ([]state.PendingScrobble, error)
	DeletePendingScrobble(id int64) error
	UpdatePendingScrobbleAttempt(id int64, errMsg string) error
	DeleteOldPendingScrobbles(maxAge time.Duration) error
}

// Scrobbler consumes session events and submits plays.
type Scrobbler struct {
	svc   session.Service
	sub   *session.Subscription
	api   API
	store Store
	log   zerolog.Logger

	cur       *catalog.PlayableItem
	startedAt time.Time
	scrobbled bool
	announced bool

	stop chan struct{}
	done chan struct{}
}

func New(svc session.Service, api API, store Store, log zerolog.Logger) *Scrobbler {
	return &Scrobbler{
		svc:   svc,
		sub:   svc.Subscribe(),
		api:   api,
		store: store,
		log:   log,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Run processes events until Close. Call it on its own goroutine.
func (s *Scrobbler) Run() {
	defer close(s.done)
	defer s.svc.Unsubscribe(s.sub)

	s.flushPending()

	for {
		select {
		case e := <-s.sub.ItemChanged:
			s.onItem(e.Current)
		case e := <-s.sub.PositionChanged:
			s.onPosition(e.Position, e.Duration)
		case e := <-s.sub.StateChanged:
			if e.Current == session.Playing && !s.announced {
				s.announce()
			}
		case <-s.sub.Done:
			return
		case <-s.stop:
			return
		}
	}
}

func (s *Scrobbler) Close() {
	close(s.stop)
	<-s.done
}

// onItem resets tracking for a new track.
func (s *Scrobbler) onItem(item *catalog.PlayableItem) {
	if item == nil || item.Kind != catalog.KindAudio {
		s.cur = nil
		return
	}
	s.cur = item
	s.startedAt = time.Now()
	s.scrobbled = false
	s.announced = false
}

func (s *Scrobbler) announce() {
	if s.cur == nil || !s.api.IsAuthenticated() {
		return
	}
	s.announced = true
	track := s.track(*s.cur)
	go func() {
		if err := s.api.UpdateNowPlaying(track); err != nil {
			s.log.Warn().Err(err).Str("track", track.Track).Msg("now playing update failed")
		}
	}()
}

func (s *Scrobbler) onPosition(pos, duration catalog.Ticks) {
	if s.cur == nil || s.scrobbled || !s.api.IsAuthenticated() {
		return
	}
	if duration.Duration() < minTrackLength {
		return
	}
	played := pos.Duration()
	if played < duration.Duration()/2 && played < maxScrobbleWait {
		return
	}

	s.scrobbled = true
	track := s.track(*s.cur)
	track.Timestamp = s.startedAt
	go s.submit(track)
}

func (s *Scrobbler) submit(track lastfm.ScrobbleTrack) {
	if err := s.api.Scrobble(track); err != nil {
		s.log.Warn().Err(err).Str("track", track.Track).Msg("scrobble failed, queueing")
		pErr := s.store.AddPendingScrobble(state.PendingScrobble{
			Artist:       track.Artist,
			Track:        track.Track,
			Album:        track.Album,
			DurationSecs: int(track.Duration.Seconds()),
			Timestamp:    track.Timestamp,
		})
		if pErr != nil {
			s.log.Error().Err(pErr).Msg("queue pending scrobble failed")
		}
	}
}

// flushPending retries scrobbles that failed in earlier runs.
func (s *Scrobbler) flushPending() {
	if !s.api.IsAuthenticated() {
		return
	}
	_ = s.store.DeleteOldPendingScrobbles(pendingMaxAge)

	pending, err := s.store.GetPendingScrobbles()
	if err != nil || len(pending) == 0 {
		return
	}

	tracks := make([]lastfm.ScrobbleTrack, 0, len(pending))
	for _, p := range pending {
		tracks = append(tracks, lastfm.ScrobbleTrack{
			Artist:    p.Artist,
			Track:     p.Track,
			Album:     p.Album,
			Duration:  time.Duration(p.DurationSecs) * time.Second,
			Timestamp: p.Timestamp,
		})
	}

	if err := s.api.ScrobbleBatch(tracks); err != nil {
		for _, p := range pending {
			_ = s.store.UpdatePendingScrobbleAttempt(p.ID, err.Error())
		}
		s.log.Warn().Err(err).Int("count", len(pending)).Msg("pending scrobble flush failed")
		return
	}
	for _, p := range pending {
		_ = s.store.DeletePendingScrobble(p.ID)
	}
	s.log.Info().Int("count", len(pending)).Msg("flushed pending scrobbles")
}

func (s *Scrobbler) track(item catalog.PlayableItem) lastfm.ScrobbleTrack {
	return lastfm.ScrobbleTrack{
		Artist:   item.Artist,
		Track:    item.Name,
		Album:    item.Album,
		Duration: item.RuntimeTicks.Duration(),
	}
}
