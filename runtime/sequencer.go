package runtime

import "sync"

// sequencer hands out numbered turns and lets their holders through one at a time,
// in the order the turns were taken.
type sequencer struct {
	mu      sync.Mutex
	cond    *sync.Cond
	next    uint64
	serving uint64
}

func newSequencer() *sequencer {
	s := &sequencer{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *sequencer) take() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	turn := s.next
	s.next++
	return turn
}

// wait blocks until every earlier turn is done.
func (s *sequencer) wait(turn uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.serving != turn {
		s.cond.Wait()
	}
}

// done must be called exactly once by the holder of the current turn.
func (s *sequencer) done() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.serving++
	s.cond.Broadcast()
}
