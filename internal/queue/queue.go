// Package queue holds the ordered playlist driving what plays next.
// Insertion order is playback order; the queue tracks which entry is
// currently bound to the playback session.
package queue

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/avrillon/cadenza/internal/catalog"
)

// ErrExhausted signals Next() at the last entry of a non-looping queue.
// It is an end-of-queue notification, not a failure.
var ErrExhausted = errors.New("end of queue")

// Queue is an ordered sequence of playable items plus the current position.
// It is not safe for concurrent use; the owning session serializes access.
type Queue struct {
	items        []catalog.PlayableItem
	currentIndex int // -1 when empty
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{currentIndex: -1}
}

// SetQueue replaces the whole playlist and sets the position pointer.
// startIndex must be in range when items is non-empty.
func (q *Queue) SetQueue(items []catalog.PlayableItem, startIndex int) error {
	if len(items) == 0 {
		q.items = nil
		q.currentIndex = -1
		return nil
	}
	if startIndex < 0 || startIndex >= len(items) {
		return fmt.Errorf("start index %d out of range [0,%d)", startIndex, len(items))
	}
	q.items = make([]catalog.PlayableItem, len(items))
	copy(q.items, items)
	q.currentIndex = startIndex
	return nil
}

// Current returns the item the pointer identifies, or nil when empty.
func (q *Queue) Current() *catalog.PlayableItem {
	if q.currentIndex < 0 || q.currentIndex >= len(q.items) {
		return nil
	}
	it := q.items[q.currentIndex]
	return &it
}

// CurrentIndex returns the position pointer (-1 when empty).
func (q *Queue) CurrentIndex() int {
	return q.currentIndex
}

// Next advances the pointer by one. At the last entry it is a no-op
// returning ErrExhausted, unless loop wraps back to the start.
func (q *Queue) Next(loop bool) (*catalog.PlayableItem, error) {
	if len(q.items) == 0 {
		return nil, ErrExhausted
	}
	if q.currentIndex >= len(q.items)-1 {
		if !loop {
			return nil, ErrExhausted
		}
		q.currentIndex = 0
		return q.Current(), nil
	}
	q.currentIndex++
	return q.Current(), nil
}

// Previous moves the pointer back by one, clamped at the first entry.
func (q *Queue) Previous() *catalog.PlayableItem {
	if len(q.items) == 0 {
		return nil
	}
	if q.currentIndex > 0 {
		q.currentIndex--
	}
	return q.Current()
}

// JumpTo sets the pointer to index. Returns the item there, or an error
// when index is out of range.
func (q *Queue) JumpTo(index int) (*catalog.PlayableItem, error) {
	if index < 0 || index >= len(q.items) {
		return nil, fmt.Errorf("index %d out of range [0,%d)", index, len(q.items))
	}
	q.currentIndex = index
	return q.Current(), nil
}

// HasNext reports whether an entry follows the current one.
func (q *Queue) HasNext() bool {
	return q.currentIndex >= 0 && q.currentIndex < len(q.items)-1
}

// RemoveAt removes the entry at index. Removing the current entry leaves
// the pointer on the following item, or the previous one when the removed
// entry was last. Removing the only entry empties the queue.
func (q *Queue) RemoveAt(index int) bool {
	if index < 0 || index >= len(q.items) {
		return false
	}
	q.items = append(q.items[:index], q.items[index+1:]...)

	switch {
	case len(q.items) == 0:
		q.currentIndex = -1
	case q.currentIndex > index:
		q.currentIndex--
	case q.currentIndex == index && q.currentIndex >= len(q.items):
		q.currentIndex = len(q.items) - 1
	}
	return true
}

// Reorder moves the entry at from so it sits immediately before the entry
// that occupied slot to. The pointer is recomputed so it keeps identifying
// the same item, not the same slot.
func (q *Queue) Reorder(from, to int) error {
	n := len(q.items)
	if from < 0 || from >= n {
		return fmt.Errorf("from index %d out of range [0,%d)", from, n)
	}
	if to < 0 || to >= n {
		return fmt.Errorf("to index %d out of range [0,%d)", to, n)
	}
	if from == to {
		return nil
	}

	moved := q.items[from]
	q.items = append(q.items[:from], q.items[from+1:]...)
	pos := to
	if from < to {
		// Removal shifted everything after from down a slot.
		pos = to - 1
	}
	rest := make([]catalog.PlayableItem, 0, n)
	rest = append(rest, q.items[:pos]...)
	rest = append(rest, moved)
	rest = append(rest, q.items[pos:]...)
	q.items = rest

	switch {
	case q.currentIndex == from:
		q.currentIndex = pos
	case from < q.currentIndex && pos >= q.currentIndex:
		q.currentIndex--
	case from > q.currentIndex && pos <= q.currentIndex:
		q.currentIndex++
	}
	return nil
}

// ShuffleUpcoming randomly permutes all entries strictly after the current
// one. The current entry and everything before it stay untouched.
func (q *Queue) ShuffleUpcoming() {
	start := q.currentIndex + 1
	upcoming := q.items[start:]
	rand.Shuffle(len(upcoming), func(i, j int) {
		upcoming[i], upcoming[j] = upcoming[j], upcoming[i]
	})
}

// Clear empties the queue. The owning session tears itself down in
// response.
func (q *Queue) Clear() {
	q.items = nil
	q.currentIndex = -1
}

// Items returns a copy of all entries in playback order.
func (q *Queue) Items() []catalog.PlayableItem {
	out := make([]catalog.PlayableItem, len(q.items))
	copy(out, q.items)
	return out
}

// Len returns the number of entries.
func (q *Queue) Len() int {
	return len(q.items)
}

// IsEmpty reports whether the queue has no entries.
func (q *Queue) IsEmpty() bool {
	return len(q.items) == 0
}
