// Package render abstracts the native render primitive: the thing that
// actually decodes and plays a negotiated stream. The session state machine
// owns exactly one primitive at a time and replaces it wholesale on every
// track change or queue advance; primitives are never reconfigured in place.
package render

import (
	"github.com/avrillon/cadenza/internal/catalog"
)

// EventKind enumerates the asynchronous signals a primitive emits.
type EventKind int

const (
	EventPlaying EventKind = iota
	EventPaused
	EventTimeUpdate
	EventWaiting // buffering started
	EventSeeking
	EventSeeked
	EventEnded
	EventError
)

// String returns the event name for diagnostics.
func (k EventKind) String() string {
	switch k {
	case EventPlaying:
		return "playing"
	case EventPaused:
		return "paused"
	case EventTimeUpdate:
		return "timeupdate"
	case EventWaiting:
		return "waiting"
	case EventSeeking:
		return "seeking"
	case EventSeeked:
		return "seeked"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one asynchronous signal from a primitive. Position is set for
// time-update and seeked events; Err only for error events.
type Event struct {
	Kind     EventKind
	Position catalog.Ticks
	Err      error
}

// Primitive is the render contract the session drives. Implementations run
// their own goroutines and deliver events on the channel returned by
// Events; after Close the channel is closed and no further events arrive.
type Primitive interface {
	// Load prepares the stream at url for playback. It does not start
	// rendering; Play does.
	Load(url string) error

	Play()
	Pause()
	SeekTo(pos catalog.Ticks)

	Position() catalog.Ticks
	Duration() catalog.Ticks

	SetVolume(v float64)
	SetMuted(muted bool)

	Events() <-chan Event

	// Close tears the primitive down and releases the output device.
	Close()
}

// Factory builds a fresh primitive for a negotiated source. The session
// calls it once per attach; the container hints at the decode path.
type Factory func(container string) (Primitive, error)
