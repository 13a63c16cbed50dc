package timer

import (
	"sync"
	"time"
)

// ID identifies a timer created through a Set. The zero ID is never issued.
type ID uint64

// Set owns a group of timers so they can be cancelled individually or all
// at once. Once stopped, a Set schedules nothing new.
type Set struct {
	clock Clock

	mu      sync.Mutex
	next    ID
	live    map[ID]Stopper
	created []ID
	stopped bool
}

func NewSet(clock Clock) *Set {
	return &Set{clock: clock, live: make(map[ID]Stopper)}
}

// After runs f once after d.
func (s *Set) After(d time.Duration, f func()) ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return 0
	}
	id := s.issue()
	s.live[id] = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		_, ok := s.live[id]
		delete(s.live, id)
		s.mu.Unlock()
		if ok {
			f()
		}
	})
	return id
}

// Every runs f after delay and then every period until the timer is
// cancelled. f receives the timer's own ID so it can cancel itself.
func (s *Set) Every(delay, period time.Duration, f func(ID)) ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return 0
	}
	id := s.issue()
	var fire func()
	fire = func() {
		s.mu.Lock()
		_, ok := s.live[id]
		s.mu.Unlock()
		if !ok {
			return
		}
		f(id)
		s.mu.Lock()
		if _, ok := s.live[id]; ok {
			s.live[id] = s.clock.AfterFunc(period, fire)
		}
		s.mu.Unlock()
	}
	s.live[id] = s.clock.AfterFunc(delay, fire)
	return id
}

// Cancel stops the timer. Cancelling an unknown, fired or already cancelled
// timer is a no-op and returns false.
func (s *Set) Cancel(id ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.live[id]
	if !ok {
		return false
	}
	delete(s.live, id)
	st.Stop()
	return true
}

// Stop cancels every live timer and closes the set. It returns how many
// timers were still live. Safe to call repeatedly.
func (s *Set) Stop() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	n := len(s.live)
	for id, st := range s.live {
		st.Stop()
		delete(s.live, id)
	}
	return n
}

// Active returns the number of live timers.
func (s *Set) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Live reports whether id is still scheduled.
func (s *Set) Live(id ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.live[id]
	return ok
}

// IDs returns every ID the set has issued, in creation order.
func (s *Set) IDs() []ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ID, len(s.created))
	copy(out, s.created)
	return out
}

func (s *Set) issue() ID {
	s.next++
	s.created = append(s.created, s.next)
	return s.next
}
