package engine

const eventBufferSize = 16

// Subscription provides event channels for one consumer. Sends never
// block: events are dropped when a consumer lags.
type Subscription struct {
	StateChanged      <-chan StateChange
	LocalChanged      <-chan LocalChange
	QueueChanged      <-chan QueueChange
	ConnectionChanged <-chan ConnectionChange
	Error             <-chan ErrorEvent
	Done              <-chan struct{}

	// Internal write channels
	stateCh chan StateChange
	localCh chan LocalChange
	queueCh chan QueueChange
	connCh  chan ConnectionChange
	errorCh chan ErrorEvent
	doneCh  chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		stateCh: make(chan StateChange, eventBufferSize),
		localCh: make(chan LocalChange, eventBufferSize),
		queueCh: make(chan QueueChange, eventBufferSize),
		connCh:  make(chan ConnectionChange, eventBufferSize),
		errorCh: make(chan ErrorEvent, eventBufferSize),
		doneCh:  make(chan struct{}),
	}
	s.StateChanged = s.stateCh
	s.LocalChanged = s.localCh
	s.QueueChanged = s.queueCh
	s.ConnectionChanged = s.connCh
	s.Error = s.errorCh
	s.Done = s.doneCh
	return s
}

// close signals subscribers to stop by closing doneCh.
func (s *Subscription) close() {
	close(s.doneCh)
}

func (s *Subscription) sendState(e StateChange) {
	select {
	case s.stateCh <- e:
	default:
		// Drop if buffer full
	}
}

func (s *Subscription) sendLocal(e LocalChange) {
	select {
	case s.localCh <- e:
	default:
	}
}

func (s *Subscription) sendQueue(e QueueChange) {
	select {
	case s.queueCh <- e:
	default:
	}
}

func (s *Subscription) sendConnection(e ConnectionChange) {
	select {
	case s.connCh <- e:
	default:
	}
}

func (s *Subscription) sendError(e ErrorEvent) {
	select {
	case s.errorCh <- e:
	default:
	}
}
