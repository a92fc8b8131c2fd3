package tasks

import (
	"sync"

	"github.com/desertthunder/imgmatch/internal/models"
)

// Snapshot is a consistent copy of the session state for rendering.
type Snapshot struct {
	Reference  models.ImageReference // empty when the reference slot is unset
	Matches    []models.ImageReference
	State      models.WorkflowState
	Error      string
	ElapsedMS  float64
	HasElapsed bool
}

// Loading reports whether a match request is in flight.
func (s Snapshot) Loading() bool { return s.State == models.StateInFlight }

// HasReference reports whether the reference slot is set.
func (s Snapshot) HasReference() bool { return s.Reference != "" }

// Session holds the transient per-session state: the reference slot, the last match result and the
// workflow fields. Nothing here is persisted.
type Session struct {
	mu         sync.RWMutex
	reference  models.ImageReference
	matches    []models.ImageReference
	state      models.WorkflowState
	errMsg     string
	elapsedMS  float64
	hasElapsed bool
}

// NewSession creates an idle session with no reference and no matches.
func NewSession() *Session {
	return &Session{matches: []models.ImageReference{}}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		Reference:  s.reference,
		Matches:    append([]models.ImageReference{}, s.matches...),
		State:      s.state,
		Error:      s.errMsg,
		ElapsedMS:  s.elapsedMS,
		HasElapsed: s.hasElapsed,
	}
}

// Reference returns the reference slot value.
func (s *Session) Reference() models.ImageReference {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reference
}

// SetReference overwrites the reference slot.
func (s *Session) SetReference(ref models.ImageReference) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reference = ref
}

// SetError sets the user-visible error line.
func (s *Session) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = msg
}

// update runs fn with the write lock held and returns the resulting snapshot.
func (s *Session) update(fn func(s *Session)) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
	return s.snapshot()
}
