package sg

import (
	"strconv"
	"sync"

	"github.com/scidb-go/arraydb/internal/coord"
)

// streamState tracks one (attribute, source instance) flow's outstanding
// request count and cached FIFO of received messages (§4.4).
type streamState struct {
	mu sync.Mutex

	key         streamKey
	cached      []Message
	outstanding int
	eof         bool
	lastErr     error
	knownNext   coord.Coordinates
	hasNext     bool
}

func newStreamState(key streamKey) *streamState {
	return &streamState{key: key}
}

// push appends a received message to the cache, absorbing piggy-backed
// position hints even on data messages.
func (s *streamState) push(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch m.Kind {
	case KindEOF:
		s.eof = true
	case KindError:
		s.lastErr = m.Err
	}
	if m.HasNextPos {
		s.knownNext = m.NextPos
		s.hasNext = true
	}
	if m.Kind == KindData || m.Kind == KindEOF || m.Kind == KindError {
		s.outstanding--
		if s.outstanding < 0 {
			s.outstanding = 0
		}
	}
	s.cached = append(s.cached, m)
	s.reportMetrics()
}

// popReady returns and removes the head message if one is cached.
func (s *streamState) popReady() (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.cached) == 0 {
		return Message{}, false
	}
	m := s.cached[0]
	s.cached = s.cached[1:]
	s.reportMetrics()
	return m, true
}

func (s *streamState) isEOF() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eof && len(s.cached) == 0
}

func (s *streamState) takeErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.lastErr
	s.lastErr = nil
	return err
}

// peekNext returns the known next position if this stream has ever
// piggy-backed one, avoiding a position-only round trip (§4.4).
func (s *streamState) peekNext() (coord.Coordinates, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.knownNext, s.hasNext
}

// canRequest reports whether this stream has room in its prefetch window
// for another outstanding data-bearing request.
func (s *streamState) canRequest(window int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.eof && s.outstanding < window
}

func (s *streamState) markRequested() {
	s.mu.Lock()
	s.outstanding++
	s.mu.Unlock()
	s.reportMetrics()
}

// reportMetrics must be called with s.mu held (or from a context where the
// read is a harmless snapshot, as in the callers above).
func (s *streamState) reportMetrics() {
	attr := strconv.Itoa(s.key.attrID)
	src := strconv.Itoa(s.key.sourceInstance)
	cachedDepthGauge.WithLabelValues(attr, src).Set(float64(len(s.cached)))
	outstandingGauge.WithLabelValues(attr, src).Set(float64(s.outstanding))
}
