// Package session owns the playback session state machine: it turns a
// "play this queue entry" intent into a negotiated, track-selected,
// continuously reported media session wrapping one native render
// primitive.
package session

import (
	"github.com/avrillon/cadenza/internal/catalog"
)

// Service is the playback session contract. One service drives one player
// surface; it owns the queue pointer, the active render primitive and all
// state transitions.
type Service interface {
	// Queue control. All queue mutation goes through these; the queue is
	// never handed out for direct writes.
	SetQueue(items []catalog.PlayableItem, startIndex int) error
	QueueItems() []catalog.PlayableItem
	QueueIndex() int
	QueueLen() int
	RemoveAt(index int) error
	Reorder(from, to int) error
	ShuffleUpcoming()
	ClearQueue()
	Loop() bool
	SetLoop(loop bool)

	// Playback control
	PlayQueueItem(index int) error
	Next() error
	Previous() error
	Pause() error
	Resume() error
	Toggle() error
	Stop() error

	// Position control
	SeekTo(pos catalog.Ticks) error
	SeekBy(delta catalog.Ticks) error

	// Track selection; re-negotiates the current item with carry-over.
	TrackSelection() catalog.TrackSelection
	SetTrackSelection(sel catalog.TrackSelection) error

	// Segment skipping
	ActiveSegmentIndex() int
	UpNextVisible() bool
	SkipSegment() error

	// Volume
	Volume() float64
	SetVolume(v float64)
	Muted() bool
	SetMuted(muted bool)

	// State queries
	State() State
	CurrentItem() *catalog.PlayableItem
	MediaSource() *catalog.MediaSource
	Position() catalog.Ticks
	Duration() catalog.Ticks
	LastError() error

	// Event subscription
	Subscribe() *Subscription
	Unsubscribe(sub *Subscription)

	// Lifecycle
	Close() error
}
