package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/avrillon/cadenza/internal/catalog"
	"github.com/avrillon/cadenza/internal/negotiate"
	"github.com/avrillon/cadenza/internal/queue"
	"github.com/avrillon/cadenza/internal/render"
	"github.com/avrillon/cadenza/internal/segments"
)

// stopReportTimeout bounds the synchronous final stop report sent during
// teardown. Best effort: on expiry the position is lost, not the teardown.
const stopReportTimeout = 3 * time.Second

// ErrClosed is returned by operations on a closed service.
var ErrClosed = errors.New("session service closed")

// Verify serviceImpl implements Service at compile time.
var _ Service = (*serviceImpl)(nil)

// carryOver is position and play-state captured from a session about to be
// torn down, applied to its replacement when the item stays the same.
type carryOver struct {
	pos    catalog.Ticks
	paused bool
}

type serviceImpl struct {
	mu sync.Mutex

	queue    *queue.Queue
	neg      *negotiate.Negotiator
	factory  render.Factory
	reporter catalog.Reporter
	log      zerolog.Logger

	state         State
	item          *catalog.PlayableItem
	source        *catalog.MediaSource
	table         *segments.Table
	position      catalog.Ticks
	duration      catalog.Ticks
	activeSegment int
	upNext        bool
	resumeAfter   State // state restored after Buffering/Seeking
	lastErr       error

	sel    catalog.TrackSelection
	volume float64
	muted  bool
	loop   bool

	// epoch invalidates in-flight negotiations; gen invalidates events
	// from already-replaced render primitives.
	epoch uint64
	gen   uint64
	prim  render.Primitive

	subs   []*Subscription
	subsMu sync.RWMutex
	closed bool
}

// New creates a playback session service. The service owns q exclusively
// from this point on.
func New(q *queue.Queue, neg *negotiate.Negotiator, factory render.Factory, reporter catalog.Reporter, log zerolog.Logger) Service {
	if reporter == nil {
		reporter = catalog.NopReporter{}
	}
	return &serviceImpl{
		queue:         q,
		neg:           neg,
		factory:       factory,
		reporter:      reporter,
		log:           log,
		state:         Idle,
		activeSegment: -1,
		sel:           catalog.DefaultSelection(),
		volume:        1.0,
	}
}

// --- Queue control ---

func (s *serviceImpl) SetQueue(items []catalog.PlayableItem, startIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.queue.SetQueue(items, startIndex); err != nil {
		return err
	}
	s.publishQueueLocked()
	return nil
}

func (s *serviceImpl) QueueItems() []catalog.PlayableItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Items()
}

func (s *serviceImpl) QueueIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.CurrentIndex()
}

func (s *serviceImpl) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

func (s *serviceImpl) RemoveAt(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.queue.RemoveAt(index) {
		return fmt.Errorf("remove: index %d out of range", index)
	}
	s.publishQueueLocked()
	return nil
}

func (s *serviceImpl) Reorder(from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.queue.Reorder(from, to); err != nil {
		return err
	}
	s.publishQueueLocked()
	return nil
}

func (s *serviceImpl) ShuffleUpcoming() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.ShuffleUpcoming()
	s.publishQueueLocked()
}

// ClearQueue empties the queue and tears the session down.
func (s *serviceImpl) ClearQueue() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.Clear()
	s.publishQueueLocked()
	s.stopLocked()
}

func (s *serviceImpl) Loop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loop
}

func (s *serviceImpl) SetLoop(loop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loop = loop
}

// --- Playback control ---

// PlayQueueItem moves the queue pointer to index and starts a fresh
// session for the item there.
func (s *serviceImpl) PlayQueueItem(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	item, err := s.queue.JumpTo(index)
	if err != nil {
		return err
	}
	s.publishQueueLocked()
	s.startLocked(*item, s.sel, false)
	return nil
}

// Next advances the queue. At the end of a non-looping queue it signals
// end-of-queue, tears the session down, and returns nil: exhaustion is not
// a failure.
func (s *serviceImpl) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	item, err := s.queue.Next(s.loop)
	if errors.Is(err, queue.ErrExhausted) {
		s.publishQueueEndedLocked()
		s.stopLocked()
		return nil
	}
	if err != nil {
		return err
	}
	s.publishQueueLocked()
	s.startLocked(*item, s.sel, false)
	return nil
}

func (s *serviceImpl) Previous() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	item := s.queue.Previous()
	if item == nil {
		return nil
	}
	s.publishQueueLocked()
	s.startLocked(*item, s.sel, false)
	return nil
}

func (s *serviceImpl) Pause() error {
	s.mu.Lock()
	prim := s.prim
	if prim == nil && s.state == Playing {
		// Photo sessions have no primitive; transition directly.
		s.setStateLocked(Paused)
	}
	s.mu.Unlock()
	if prim != nil {
		prim.Pause()
	}
	return nil
}

func (s *serviceImpl) Resume() error {
	s.mu.Lock()
	prim := s.prim
	if prim == nil && s.state == Paused {
		s.setStateLocked(Playing)
	}
	s.mu.Unlock()
	if prim != nil {
		prim.Play()
	}
	return nil
}

func (s *serviceImpl) Toggle() error {
	s.mu.Lock()
	st := s.state
	s.mu.Unlock()
	switch st {
	case Playing:
		return s.Pause()
	case Paused, Ready:
		return s.Resume()
	default:
		return nil
	}
}

// Stop tears the session down: final position report, primitive released,
// state back to Idle. The queue is left intact.
func (s *serviceImpl) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	return nil
}

// --- Position control ---

func (s *serviceImpl) SeekTo(pos catalog.Ticks) error {
	s.mu.Lock()
	if !s.state.IsActive() {
		s.mu.Unlock()
		return fmt.Errorf("seek: no active session")
	}
	if pos < 0 {
		pos = 0
	}
	if s.duration > 0 && pos > s.duration {
		pos = s.duration
	}
	prim := s.prim
	if prim == nil {
		s.position = pos
		s.publishPositionLocked()
	}
	s.mu.Unlock()
	if prim != nil {
		prim.SeekTo(pos)
	}
	return nil
}

func (s *serviceImpl) SeekBy(delta catalog.Ticks) error {
	s.mu.Lock()
	pos := s.position + delta
	s.mu.Unlock()
	return s.SeekTo(pos)
}

// --- Track selection ---

func (s *serviceImpl) TrackSelection() catalog.TrackSelection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

// SetTrackSelection re-negotiates the current item with the new selection.
// Position and play-state carry over to the replacement session; the render
// primitive is rebuilt, never mutated in place.
func (s *serviceImpl) SetTrackSelection(sel catalog.TrackSelection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.sel = sel
	if s.item == nil || !s.state.IsActive() {
		return nil
	}
	s.startLocked(*s.item, sel, s.state == Paused)
	return nil
}

// --- Segments ---

func (s *serviceImpl) ActiveSegmentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeSegment
}

func (s *serviceImpl) UpNextVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upNext
}

// SkipSegment jumps past the active segment. Skipping a final outro
// advances the queue instead of merely seeking.
func (s *serviceImpl) SkipSegment() error {
	s.mu.Lock()
	if s.table == nil {
		s.mu.Unlock()
		return nil
	}
	idx := s.table.Active(s.position)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	seg := s.table.Segment(idx)
	s.position = seg.EndTicks
	if seg.Type == catalog.SegmentOutro && s.table.IsLast(idx) {
		s.mu.Unlock()
		return s.Next()
	}
	prim := s.prim
	s.mu.Unlock()
	if prim != nil {
		prim.SeekTo(seg.EndTicks)
	}
	return nil
}

// --- Volume ---

func (s *serviceImpl) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func (s *serviceImpl) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	s.mu.Lock()
	s.volume = v
	prim := s.prim
	s.mu.Unlock()
	if prim != nil {
		prim.SetVolume(v)
	}
}

func (s *serviceImpl) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

func (s *serviceImpl) SetMuted(muted bool) {
	s.mu.Lock()
	s.muted = muted
	prim := s.prim
	s.mu.Unlock()
	if prim != nil {
		prim.SetMuted(muted)
	}
}

// --- State queries ---

func (s *serviceImpl) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *serviceImpl) CurrentItem() *catalog.PlayableItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.item == nil {
		return nil
	}
	it := *s.item
	return &it
}

func (s *serviceImpl) MediaSource() *catalog.MediaSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == nil {
		return nil
	}
	src := *s.source
	return &src
}

func (s *serviceImpl) Position() catalog.Ticks {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

func (s *serviceImpl) Duration() catalog.Ticks {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

// LastError returns the most recent failure. It stays inspectable until
// the next successful start.
func (s *serviceImpl) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// --- Subscription ---

func (s *serviceImpl) Subscribe() *Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	sub := newSubscription()
	s.subs = append(s.subs, sub)
	return sub
}

// Unsubscribe removes sub and closes its Done channel. Safe to call
// after Close.
func (s *serviceImpl) Unsubscribe(sub *Subscription) {
	s.subsMu.Lock()
	for i, candidate := range s.subs {
		if candidate == sub {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			break
		}
	}
	s.subsMu.Unlock()
	sub.close()
}

// Close stops playback and shuts the service down.
func (s *serviceImpl) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.stopLocked()
	s.closed = true
	s.mu.Unlock()

	s.subsMu.Lock()
	for _, sub := range s.subs {
		sub.close()
	}
	s.subs = nil
	s.subsMu.Unlock()
	return nil
}

// --- Internals ---

// startLocked begins a fresh session for item. Any existing session is
// torn down first (with its final stop report); when the new item is the
// same logical item, position and play-state carry over.
func (s *serviceImpl) startLocked(item catalog.PlayableItem, sel catalog.TrackSelection, startPaused bool) {
	var carry *carryOver
	if s.item != nil && s.item.ID == item.ID && s.prim != nil {
		carry = &carryOver{pos: s.position, paused: s.state == Paused}
	}
	s.teardownLocked()

	s.item = &item
	s.lastErr = nil
	s.position = 0
	s.duration = item.RuntimeTicks
	s.activeSegment = -1
	s.upNext = false
	s.setStateLocked(Negotiating)

	s.epoch++
	epoch := s.epoch

	req := negotiate.Request{Item: item, Selection: sel}
	if carry != nil {
		req.ResumeTicks = carry.pos
		startPaused = startPaused || carry.paused
	}
	go s.negotiateAndAttach(epoch, req, startPaused)
}

// negotiateAndAttach runs off the lock: the negotiation network call and
// the primitive load both block. Results apply only if no newer start or
// stop superseded this epoch, and only if the negotiator confirms the
// sequence is the newest.
func (s *serviceImpl) negotiateAndAttach(epoch uint64, req negotiate.Request, startPaused bool) {
	res, err := s.neg.Resolve(context.Background(), req)

	s.mu.Lock()
	if s.closed || s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.failLocked("negotiate", req.Item.ID, err)
		s.mu.Unlock()
		return
	}
	if !s.neg.Apply(res) {
		s.mu.Unlock()
		return
	}

	prev := s.item
	it := res.Item
	s.item = &it
	s.source = res.Source
	s.table = segments.NewTable(res.Segments, it.RuntimeTicks)
	if it.RuntimeTicks > 0 {
		s.duration = it.RuntimeTicks
	}
	s.position = res.Resume
	s.setStateLocked(Ready)
	s.publishItemLocked(prev)

	if res.Source == nil {
		// Photo: rendered directly, no primitive, no reporting.
		s.setStateLocked(Playing)
		s.mu.Unlock()
		return
	}
	src := *res.Source
	resume := s.position
	s.mu.Unlock()

	prim, err := s.factory(src.Container)
	if err == nil {
		err = prim.Load(src.StreamURL)
	}

	s.mu.Lock()
	if s.closed || s.epoch != epoch {
		s.mu.Unlock()
		if prim != nil {
			prim.Close()
		}
		return
	}
	if err != nil {
		s.failLocked("render", src.ItemID, err)
		s.mu.Unlock()
		if prim != nil {
			prim.Close()
		}
		return
	}

	s.gen++
	gen := s.gen
	s.prim = prim
	prim.SetVolume(s.volume)
	prim.SetMuted(s.muted)
	if resume > 0 {
		prim.SeekTo(resume)
	}
	if startPaused {
		s.setStateLocked(Paused)
	}
	s.mu.Unlock()

	go s.pump(prim, gen)
	if !startPaused {
		prim.Play()
	}
}

// pump forwards primitive events into the state machine until the
// primitive's channel closes on teardown.
func (s *serviceImpl) pump(prim render.Primitive, gen uint64) {
	for e := range prim.Events() {
		s.handleEvent(gen, e)
	}
}

// handleEvent applies one primitive event. Events from a replaced
// primitive (stale generation) are ignored: the session has moved on.
func (s *serviceImpl) handleEvent(gen uint64, e render.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		return
	}

	switch e.Kind {
	case render.EventPlaying:
		s.setStateLocked(Playing)
	case render.EventPaused:
		if s.state == Playing || s.state == Buffering {
			s.setStateLocked(Paused)
		}
	case render.EventTimeUpdate:
		s.position = e.Position
		if s.duration == 0 && s.prim != nil {
			s.duration = s.prim.Duration()
		}
		s.publishPositionLocked()
		s.updateSegmentsLocked()
	case render.EventWaiting:
		if s.state == Playing || s.state == Paused {
			s.resumeAfter = s.state
			s.setStateLocked(Buffering)
		}
	case render.EventSeeking:
		if s.state == Playing || s.state == Paused {
			s.resumeAfter = s.state
			s.setStateLocked(Seeking)
		}
	case render.EventSeeked:
		s.position = e.Position
		s.publishPositionLocked()
		s.updateSegmentsLocked()
		if s.state == Seeking || s.state == Buffering {
			restored := s.resumeAfter
			if restored != Playing && restored != Paused {
				restored = Playing
			}
			s.setStateLocked(restored)
		}
	case render.EventEnded:
		s.setStateLocked(Ended)
	case render.EventError:
		s.failLocked("render", s.itemIDLocked(), e.Err)
	}
}

// stopLocked is the common teardown path for Stop, queue exhaustion and
// queue clear: supersede in-flight negotiations, send the final report,
// release the primitive, return to Idle.
func (s *serviceImpl) stopLocked() {
	if s.state == Idle {
		return
	}
	s.epoch++
	s.neg.Supersede()
	s.teardownLocked()
	s.item = nil
	s.source = nil
	s.table = nil
	s.position = 0
	s.duration = 0
	s.activeSegment = -1
	s.upNext = false
	s.setStateLocked(Idle)
}

// teardownLocked sends the final stop report and releases the primitive.
// The report is synchronous and precedes the release so the last position
// is not lost to a teardown race; it is still best effort.
func (s *serviceImpl) teardownLocked() {
	if s.source != nil {
		ctx, cancel := context.WithTimeout(context.Background(), stopReportTimeout)
		if err := s.reporter.ReportStop(ctx, s.infoLocked(), s.position); err != nil {
			s.log.Warn().Err(err).Str("item", s.itemIDLocked()).Msg("stop report failed")
		}
		cancel()
	}
	if s.prim != nil {
		s.gen++
		prim := s.prim
		s.prim = nil
		prim.Close()
	}
	s.source = nil
}

func (s *serviceImpl) failLocked(op, itemID string, err error) {
	s.lastErr = err
	s.log.Error().Err(err).Str("op", op).Str("item", itemID).Msg("playback failure")
	s.publishErrorLocked(ErrorEvent{Operation: op, ItemID: itemID, Err: err})
	s.setStateLocked(Error)
}

func (s *serviceImpl) updateSegmentsLocked() {
	if s.table == nil {
		return
	}
	s.activeSegment = s.table.Active(s.position)
	visible := s.table.UpNextVisible(s.position)
	if visible != s.upNext {
		s.upNext = visible
		var next *catalog.PlayableItem
		if s.queue.HasNext() {
			items := s.queue.Items()
			n := items[s.queue.CurrentIndex()+1]
			next = &n
		}
		s.publishUpNextLocked(UpNextChange{Visible: visible, Next: next})
	}
}

func (s *serviceImpl) itemIDLocked() string {
	if s.item == nil {
		return ""
	}
	return s.item.ID
}

func (s *serviceImpl) infoLocked() catalog.PlaybackInfo {
	info := catalog.PlaybackInfo{ItemID: s.itemIDLocked()}
	if s.source != nil {
		info.MediaSourceID = s.source.ID
		info.PlaySessionID = s.source.PlaySessionID
	}
	return info
}

// --- Publishing ---

func (s *serviceImpl) setStateLocked(next State) {
	if next == s.state {
		return
	}
	prev := s.state
	s.state = next
	e := StateChange{Previous: prev, Current: next, Info: s.infoLocked()}
	s.subsMu.RLock()
	for _, sub := range s.subs {
		sub.sendState(e)
	}
	s.subsMu.RUnlock()
}

func (s *serviceImpl) publishItemLocked(prev *catalog.PlayableItem) {
	cur := s.item
	e := ItemChange{Previous: prev, Current: cur, Index: s.queue.CurrentIndex()}
	s.subsMu.RLock()
	for _, sub := range s.subs {
		sub.sendItem(e)
	}
	s.subsMu.RUnlock()
}

func (s *serviceImpl) publishPositionLocked() {
	e := PositionChange{Position: s.position, Duration: s.duration}
	s.subsMu.RLock()
	for _, sub := range s.subs {
		sub.sendPosition(e)
	}
	s.subsMu.RUnlock()
}

func (s *serviceImpl) publishQueueLocked() {
	e := QueueChange{Items: s.queue.Items(), Index: s.queue.CurrentIndex()}
	s.subsMu.RLock()
	for _, sub := range s.subs {
		sub.sendQueue(e)
	}
	s.subsMu.RUnlock()
}

func (s *serviceImpl) publishUpNextLocked(e UpNextChange) {
	s.subsMu.RLock()
	for _, sub := range s.subs {
		sub.sendUpNext(e)
	}
	s.subsMu.RUnlock()
}

func (s *serviceImpl) publishQueueEndedLocked() {
	s.subsMu.RLock()
	for _, sub := range s.subs {
		sub.sendQueueEnded()
	}
	s.subsMu.RUnlock()
}

func (s *serviceImpl) publishErrorLocked(e ErrorEvent) {
	s.subsMu.RLock()
	for _, sub := range s.subs {
		sub.sendError(e)
	}
	s.subsMu.RUnlock()
}
