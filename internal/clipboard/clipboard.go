// Package clipboard copies credential fields to the system clipboard and
// wipes them again after a while.
package clipboard

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-vgo/robotgo"
	"github.com/sirupsen/logrus"
)

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// System is the desktop clipboard. A copied value is overwritten with an
// empty string after clearAfter, unless something else was copied since.
type System struct {
	clearAfter time.Duration
	write      func(string) error
	read       func() (string, error)

	mu    sync.Mutex
	last  string
	timer *time.Timer
}

// NewSystem returns the desktop clipboard; clearAfter <= 0 disables clearing.
func NewSystem(clearAfter time.Duration) *System {
	return &System{
		clearAfter: clearAfter,
		write:      writeAll,
		read:       robotgo.ReadAll,
	}
}

// writeAll prefers robotgo and falls back to the platform tool.
func writeAll(text string) error {
	err := robotgo.WriteAll(text)
	if err == nil {
		return nil
	}
	logrus.WithError(err).Debug("robotgo clipboard failed; trying platform tool")
	if err2 := trySetClipboard(text); err2 != nil {
		return fmt.Errorf("clipboard: %v; fallback: %w", err, err2)
	}
	return nil
}

func (s *System) Copy(text string) error {
	if text == "" {
		return ErrNothingToCopy
	}
	if err := s.write(text); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = text
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.clearAfter > 0 {
		s.timer = time.AfterFunc(s.clearAfter, s.Clear)
	}
	return nil
}

// Clear empties the clipboard if it still holds the last value copied
// through s.
func (s *System) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.last == "" {
		return
	}
	cur, err := s.read()
	if err == nil && cur == s.last {
		if err := s.write(""); err != nil {
			logrus.WithError(err).Warn("clearing clipboard failed")
		}
	}
	s.last = ""
}

var _ Copier = (*System)(nil)
