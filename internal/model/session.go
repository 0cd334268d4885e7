package model

import (
	"fmt"
	"sync"

	"github.com/mediamorph/mediamorph/internal/mediatypes"
)

// SessionState enumerates the states of a conversion session
type SessionState int

const (
	// SessionEmpty means no file is acquired
	SessionEmpty SessionState = iota

	// SessionPreviewing means a file is accepted and its preview is being generated
	SessionPreviewing

	// SessionReady means a file is accepted and a conversion may start
	SessionReady

	// SessionConverting means a conversion is in progress
	SessionConverting
)

// String returns the string representation of SessionState
func (ss SessionState) String() string {
	switch ss {
	case SessionEmpty:
		return "Empty"
	case SessionPreviewing:
		return "Previewing"
	case SessionReady:
		return "Ready"
	case SessionConverting:
		return "Converting"
	default:
		return "Unknown"
	}
}

// Session is the explicit state machine of one conversion session. Exactly
// one source file is live per session. Every state-mutating completion of
// asynchronous work carries the generation it was issued for; results tagged
// with a stale generation are discarded, so a rapid file swap can never
// overwrite fresher state.
type Session struct {
	mu         sync.Mutex
	state      SessionState
	generation uint64
	source     *SourceFile
	format     string
	percent    int
}

// NewSession creates an empty session
func NewSession() *Session {
	return &Session{state: SessionEmpty}
}

// State returns the current session state
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Generation returns the current session generation
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Source returns the live source file, or nil when the session is empty
func (s *Session) Source() *SourceFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Format returns the selected target format token, empty when unset
func (s *Session) Format() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.format
}

// Percent returns the current conversion progress, 0 outside of Converting
func (s *Session) Percent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.percent
}

// Acquire accepts a new source file from any state. It supersedes the
// previous source, clears the format selection, resets progress, and bumps
// the generation so in-flight work issued for the old source becomes stale.
// It returns the new generation.
func (s *Session) Acquire(src *SourceFile) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.state = SessionPreviewing
	s.source = src
	s.format = ""
	s.percent = 0
	return s.generation
}

// PreviewReady moves the session from Previewing to Ready. It returns false
// when the generation is stale or the session has moved on.
func (s *Session) PreviewReady(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.state != SessionPreviewing {
		return false
	}
	s.state = SessionReady
	return true
}

// PreviewFailed moves the session to Ready without a preview. The file stays
// accepted; preview failure is not fatal.
func (s *Session) PreviewFailed(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.state != SessionPreviewing {
		return false
	}
	s.state = SessionReady
	return true
}

// SelectFormat records the target format. The token must belong to the
// capability table for the session's media kind.
func (s *Session) SelectFormat(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.source == nil {
		return fmt.Errorf("no file acquired")
	}
	if _, ok := mediatypes.LookupFormat(s.source.Kind, token); !ok {
		return fmt.Errorf("format %q is not valid for %s sources", token, s.source.Kind)
	}
	s.format = token
	return nil
}

// BeginConversion moves the session to Converting and resets progress to 0.
// It returns the generation the conversion runs under, and false when the
// preconditions (file acquired, format set, not already converting) do not
// hold.
func (s *Session) BeginConversion() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.source == nil || s.format == "" || s.state == SessionConverting || s.state == SessionPreviewing {
		return 0, false
	}
	s.state = SessionConverting
	s.percent = 0
	return s.generation, true
}

// SetPercent updates progress during Converting. Values are clamped to
// 0-100 and never decrease within one conversion. Stale generations are
// discarded.
func (s *Session) SetPercent(gen uint64, percent int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.state != SessionConverting {
		return false
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if percent < s.percent {
		return true // monotonic: ignore regressions
	}
	s.percent = percent
	return true
}

// FinishConversion returns the session to Ready on success or failure so
// the user may retry with a different format. Progress is cleared; it only
// exists inside Converting. Stale generations are discarded.
func (s *Session) FinishConversion(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.state != SessionConverting {
		return false
	}
	s.state = SessionReady
	s.percent = 0
	return true
}

// Reset clears the session from any state and bumps the generation so every
// in-flight result becomes stale. It returns the new generation.
func (s *Session) Reset() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.state = SessionEmpty
	s.source = nil
	s.format = ""
	s.percent = 0
	return s.generation
}
