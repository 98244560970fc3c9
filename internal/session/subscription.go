package session

import "sync"

const eventBufferSize = 16

// Subscription provides event channels for one subscriber. Channels are
// buffered; a slow subscriber drops events rather than blocking the
// session.
type Subscription struct {
	StateChanged    <-chan StateChange
	ItemChanged     <-chan ItemChange
	PositionChanged <-chan PositionChange
	QueueChanged    <-chan QueueChange
	UpNextChanged   <-chan UpNextChange
	QueueEnded      <-chan struct{}
	Error           <-chan ErrorEvent
	Done            <-chan struct{}

	// Internal write channels
	stateCh    chan StateChange
	itemCh     chan ItemChange
	positionCh chan PositionChange
	queueCh    chan QueueChange
	upNextCh   chan UpNextChange
	endedCh    chan struct{}
	errorCh    chan ErrorEvent
	doneCh     chan struct{}
	closeOnce  sync.Once
}

func newSubscription() *Subscription {
	s := &Subscription{
		stateCh:    make(chan StateChange, eventBufferSize),
		itemCh:     make(chan ItemChange, eventBufferSize),
		positionCh: make(chan PositionChange, eventBufferSize),
		queueCh:    make(chan QueueChange, eventBufferSize),
		upNextCh:   make(chan UpNextChange, eventBufferSize),
		endedCh:    make(chan struct{}, 1),
		errorCh:    make(chan ErrorEvent, eventBufferSize),
		doneCh:     make(chan struct{}),
	}
	s.StateChanged = s.stateCh
	s.ItemChanged = s.itemCh
	s.PositionChanged = s.positionCh
	s.QueueChanged = s.queueCh
	s.UpNextChanged = s.upNextCh
	s.QueueEnded = s.endedCh
	s.Error = s.errorCh
	s.Done = s.doneCh
	return s
}

// close signals subscribers to stop by closing doneCh.
func (s *Subscription) close() {
	s.closeOnce.Do(func() { close(s.doneCh) })
}

func (s *Subscription) sendState(e StateChange) {
	select {
	case s.stateCh <- e:
	default:
		// Drop if buffer full
	}
}

func (s *Subscription) sendItem(e ItemChange) {
	select {
	case s.itemCh <- e:
	default:
	}
}

func (s *Subscription) sendPosition(e PositionChange) {
	select {
	case s.positionCh <- e:
	default:
	}
}

func (s *Subscription) sendQueue(e QueueChange) {
	select {
	case s.queueCh <- e:
	default:
	}
}

func (s *Subscription) sendUpNext(e UpNextChange) {
	select {
	case s.upNextCh <- e:
	default:
	}
}

func (s *Subscription) sendQueueEnded() {
	select {
	case s.endedCh <- struct{}{}:
	default:
	}
}

func (s *Subscription) sendError(e ErrorEvent) {
	select {
	case s.errorCh <- e:
	default:
	}
}
