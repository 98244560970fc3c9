// Package negotiate resolves a playable item plus track selection into a
// concrete media source via the catalog collaborator.
//
// Every request is tagged with a strictly increasing sequence number taken
// at submit time. A result is applied to the session only when its sequence
// is the highest seen so far; results of superseded requests are discarded.
// That discard is the engine's cancellation mechanism: there is no
// network-level abort, the stale response is simply never applied.
package negotiate

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/avrillon/cadenza/internal/catalog"
)

// DefaultTimeout bounds a single negotiation call. The collaborator owns
// retry and fine-grained timeout policy; this only prevents a session from
// sitting in Negotiating forever when a call never resolves.
const DefaultTimeout = 30 * time.Second

// Request describes one negotiation.
type Request struct {
	Item      catalog.PlayableItem
	Selection catalog.TrackSelection

	// LeafID selects a leaf by id after container expansion; LeafIndex
	// selects by position when LeafID is empty. Both ignored for
	// non-container items.
	LeafID    string
	LeafIndex int

	// ResumeTicks is the position hint passed to the server.
	ResumeTicks catalog.Ticks
}

// Result is a completed negotiation. Source is nil for photo items, which
// render directly without stream negotiation.
type Result struct {
	Seq      uint64
	Item     catalog.PlayableItem
	Leaves   []catalog.PlayableItem // full expansion, playback order
	Index    int                    // position of Item within Leaves
	Source   *catalog.MediaSource
	Segments []catalog.Segment
	Resume   catalog.Ticks
}

// Negotiator issues sequence-tagged negotiations against the catalog.
type Negotiator struct {
	svc     catalog.Service
	timeout time.Duration
	log     zerolog.Logger

	seq     atomic.Uint64
	applied atomic.Uint64
}

// New creates a negotiator. A timeout of 0 uses DefaultTimeout.
func New(svc catalog.Service, timeout time.Duration, log zerolog.Logger) *Negotiator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Negotiator{svc: svc, timeout: timeout, log: log}
}

// Resolve runs one negotiation. The sequence number is assigned before any
// network traffic, so two overlapping calls are ordered by submission even
// when their responses arrive out of order. Resolve never retries; the
// caller re-invokes after a failure.
func (n *Negotiator) Resolve(ctx context.Context, req Request) (*Result, error) {
	seq := n.seq.Add(1)

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	leaves, index, err := n.expand(ctx, req)
	if err != nil {
		return nil, err
	}
	leaf := leaves[index]

	res := &Result{
		Seq:    seq,
		Item:   leaf,
		Leaves: leaves,
		Index:  index,
		Resume: req.ResumeTicks,
	}
	if res.Resume == 0 {
		res.Resume = leaf.ResumeTicks
	}

	// Photos render directly; no stream negotiation, no media source.
	if leaf.Kind == catalog.KindPhoto {
		return res, nil
	}

	sel := req.Selection.Resolve(leaf)
	if err := validateSelection(leaf, sel); err != nil {
		return nil, err
	}

	src, err := n.svc.Negotiate(ctx, leaf, sel, res.Resume)
	if err != nil {
		return nil, err
	}
	res.Source = src

	// Segment metadata is best effort; an item without segments plays
	// exactly like one whose fetch failed.
	segs, err := n.svc.Segments(ctx, leaf.ID)
	if err != nil {
		n.log.Warn().Err(err).Str("item", leaf.ID).Msg("segment fetch failed")
	} else {
		res.Segments = segs
	}

	return res, nil
}

// Apply records res as the newest applied negotiation. It returns false
// when a higher sequence has already been applied, in which case the
// caller must discard res.
func (n *Negotiator) Apply(res *Result) bool {
	for {
		cur := n.applied.Load()
		if res.Seq <= cur {
			n.log.Debug().
				Uint64("seq", res.Seq).
				Uint64("applied", cur).
				Str("item", res.Item.ID).
				Msg("stale negotiation discarded")
			return false
		}
		if n.applied.CompareAndSwap(cur, res.Seq) {
			return true
		}
	}
}

// Supersede bumps the applied sequence past every request issued so far,
// invalidating all in-flight negotiations without issuing a new one. Used
// on stop and teardown.
func (n *Negotiator) Supersede() {
	for {
		cur := n.applied.Load()
		top := n.seq.Load()
		if top <= cur || n.applied.CompareAndSwap(cur, top) {
			return
		}
	}
}

// expand resolves the request to a flat leaf list and the index to play.
func (n *Negotiator) expand(ctx context.Context, req Request) ([]catalog.PlayableItem, int, error) {
	if !req.Item.Kind.IsContainer() {
		return []catalog.PlayableItem{req.Item}, 0, nil
	}

	leaves, err := n.svc.ExpandContainer(ctx, req.Item)
	if err != nil {
		return nil, 0, err
	}
	if len(leaves) == 0 {
		return nil, 0, &catalog.NegotiationError{
			Reason: catalog.ReasonEmptyItem,
			ItemID: req.Item.ID,
		}
	}

	index := req.LeafIndex
	if req.LeafID != "" {
		index = 0
		for i, leaf := range leaves {
			if leaf.ID == req.LeafID {
				index = i
				break
			}
		}
	}
	if index < 0 || index >= len(leaves) {
		index = 0
	}
	return leaves, index, nil
}

// validateSelection rejects explicit track indices the item does not
// declare. Auto sentinels are resolved before this runs.
func validateSelection(item catalog.PlayableItem, sel catalog.TrackSelection) error {
	check := func(idx int, st catalog.StreamType) error {
		if idx < 0 {
			return nil
		}
		if !item.HasStream(idx, st) {
			return &catalog.NegotiationError{
				Reason: catalog.ReasonInvalidTrack,
				ItemID: item.ID,
				Err:    fmt.Errorf("no %s stream with index %d", st, idx),
			}
		}
		return nil
	}
	if err := check(sel.Audio, catalog.StreamAudio); err != nil {
		return err
	}
	if err := check(sel.Subtitle, catalog.StreamSubtitle); err != nil {
		return err
	}
	return check(sel.Video, catalog.StreamVideo)
}
