// internal/handoff/store.go
package handoff

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrEmpty is returned by Take when no payload is pending.
var ErrEmpty = errors.New("no credential data available")

// Store holds at most one pending payload for the auxiliary window.
// The payload is opaque; the store never parses it.
type Store struct {
	mu      sync.Mutex
	payload *string
}

// New returns an empty store. One store lives for the whole process.
func New() *Store {
	return &Store{}
}

// Set overwrites any pending payload (last write wins).
func (s *Store) Set(payload string) {
	s.withLock(func() {
		p := payload
		s.payload = &p
	})
}

// Take returns the pending payload and empties the slot.
// A payload is handed out at most once.
func (s *Store) Take() (string, error) {
	var (
		out string
		ok  bool
	)
	s.withLock(func() {
		if s.payload == nil {
			return
		}
		out, ok = *s.payload, true
		s.payload = nil
	})
	if !ok {
		return "", ErrEmpty
	}
	return out, nil
}

// Clear drops any pending payload without returning it.
func (s *Store) Clear() {
	s.withLock(func() {
		s.payload = nil
	})
}

// Pending reports whether a payload is waiting to be taken.
func (s *Store) Pending() bool {
	var ok bool
	s.withLock(func() {
		ok = s.payload != nil
	})
	return ok
}

// withLock runs fn with the slot locked. A panic inside fn leaves the slot
// empty and is swallowed: losing one hand-off is preferable to taking the
// UI down with it.
func (s *Store) withLock(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			s.payload = nil
			logrus.WithField("panic", r).Warn("handoff: slot reset after panic")
		}
	}()
	fn()
}
