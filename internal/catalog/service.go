package catalog

import (
	"context"
	"errors"
	"fmt"
)

// Service is the remote catalog and negotiation collaborator. The engine
// treats it as opaque: implementations own transport, auth and timeouts
// beyond the per-call context deadline.
type Service interface {
	// ExpandContainer resolves a container item into its flat, ordered
	// list of leaf items. Non-container items are returned as a single
	// element list.
	ExpandContainer(ctx context.Context, item PlayableItem) ([]PlayableItem, error)

	// Negotiate resolves an item plus track selection into a playable
	// MediaSource. resumeTicks is a hint for servers that pre-seek
	// transcodes. Failures are *NegotiationError values.
	Negotiate(ctx context.Context, item PlayableItem, sel TrackSelection, resumeTicks Ticks) (*MediaSource, error)

	// Segments fetches the skippable ranges for an item, sorted ascending
	// by start. An empty list is not an error.
	Segments(ctx context.Context, itemID string) ([]Segment, error)
}

// NegotiationReason classifies why a negotiation failed.
type NegotiationReason string

const (
	ReasonUnreachable  NegotiationReason = "unreachable"
	ReasonNoSource     NegotiationReason = "no compatible source"
	ReasonInvalidTrack NegotiationReason = "invalid track index"
	ReasonEmptyItem    NegotiationReason = "nothing to play"
)

// NegotiationError is the failure a negotiation surfaces to the caller.
// The queue position is left untouched so the user can retry or skip.
type NegotiationError struct {
	Reason NegotiationReason
	ItemID string
	Err    error
}

func (e *NegotiationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("negotiate %s: %s: %v", e.ItemID, e.Reason, e.Err)
	}
	return fmt.Sprintf("negotiate %s: %s", e.ItemID, e.Reason)
}

func (e *NegotiationError) Unwrap() error { return e.Err }

// IsNegotiationError extracts a NegotiationError from an error chain.
func IsNegotiationError(err error) (*NegotiationError, bool) {
	var ne *NegotiationError
	if errors.As(err, &ne) {
		return ne, true
	}
	return nil, false
}
