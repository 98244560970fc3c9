package session

import "github.com/avrillon/cadenza/internal/catalog"

// StateChange is emitted when the session state changes.
type StateChange struct {
	Previous State
	Current  State

	// Info identifies the playback the change belongs to; zero value
	// while no media source is bound.
	Info catalog.PlaybackInfo
}

// ItemChange is emitted when the session binds a different item.
//
// Emitted once per successful negotiation apply, which means a track
// change on the same logical item emits with Previous.ID == Current.ID
// but a fresh play session id.
type ItemChange struct {
	Previous *catalog.PlayableItem
	Current  *catalog.PlayableItem
	Index    int
}

// PositionChange is emitted on time updates and completed seeks.
type PositionChange struct {
	Position catalog.Ticks
	Duration catalog.Ticks
}

// QueueChange is emitted when queue contents or the pointer change.
type QueueChange struct {
	Items []catalog.PlayableItem
	Index int
}

// UpNextChange is emitted when the up-next affordance visibility flips.
type UpNextChange struct {
	Visible bool
	Next    *catalog.PlayableItem // nil at the end of the queue
}

// ErrorEvent is emitted when an operation fails.
type ErrorEvent struct {
	Operation string // e.g. "negotiate", "render"
	ItemID    string
	Err       error
}
