// Package segments tracks skippable time ranges (intro, outro, recap) for
// the item bound to a playback session.
package segments

import (
	"sort"

	"github.com/avrillon/cadenza/internal/catalog"
)

// UpNextFallbackThreshold is how close to the end of an item the up-next
// affordance appears when no outro segment is authored.
var UpNextFallbackThreshold = catalog.TicksFromSeconds(30)

// Table holds the sorted segment list for one item.
type Table struct {
	segments []catalog.Segment
	duration catalog.Ticks
}

// NewTable builds a table from the collaborator's segment list. The list is
// sorted defensively; servers are expected to deliver it ascending already.
func NewTable(segs []catalog.Segment, duration catalog.Ticks) *Table {
	out := make([]catalog.Segment, len(segs))
	copy(out, segs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTicks < out[j].StartTicks
	})
	return &Table{segments: out, duration: duration}
}

// Segments returns the sorted segment list.
func (t *Table) Segments() []catalog.Segment {
	return t.segments
}

// Active returns the index of the first segment whose [start, end) range
// contains pos, or -1.
func (t *Table) Active(pos catalog.Ticks) int {
	for i, s := range t.segments {
		if s.Contains(pos) {
			return i
		}
		if s.StartTicks > pos {
			break
		}
	}
	return -1
}

// Segment returns the segment at index, or nil when out of range.
func (t *Table) Segment(index int) *catalog.Segment {
	if index < 0 || index >= len(t.segments) {
		return nil
	}
	s := t.segments[index]
	return &s
}

// IsLast reports whether index is the final segment of the item.
func (t *Table) IsLast(index int) bool {
	return len(t.segments) > 0 && index == len(t.segments)-1
}

// HasOutro reports whether the item declares any outro segment.
func (t *Table) HasOutro() bool {
	for _, s := range t.segments {
		if s.Type == catalog.SegmentOutro {
			return true
		}
	}
	return false
}

// UpNextVisible decides whether the up-next affordance should show at pos:
// either the active segment is an outro, or the item has no authored outro
// and the remaining runtime is at or below the fallback threshold.
func (t *Table) UpNextVisible(pos catalog.Ticks) bool {
	if idx := t.Active(pos); idx >= 0 && t.segments[idx].Type == catalog.SegmentOutro {
		return true
	}
	if t.HasOutro() || t.duration <= 0 {
		return false
	}
	return t.duration-pos <= UpNextFallbackThreshold
}
