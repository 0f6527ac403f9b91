// Package session holds in-memory chat session state: per-session turn
// history, a busy flag guarding one in-flight reply at a time, and TTL
// based expiry.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// State tracks whether a session is waiting on the model.
type State string

const (
	StateIdle     State = "idle"
	StateAwaiting State = "awaiting_reply"
)

// DefaultIdleTTL is how long an idle session survives without traffic.
const DefaultIdleTTL = 30 * time.Minute

// Turn is one message in a conversation.
type Turn struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Session is a single conversation. History is append-only; retention
// trims from the front once maxTurns is exceeded.
type Session struct {
	ID        string
	CreatedAt time.Time
	LastSeen  time.Time
	Turns     []Turn
	state     State
}

// Store is a concurrency-safe in-memory session registry.
type Store struct {
	mu sync.RWMutex

	sessions map[string]*Session

	// retention configuration
	maxTurns int           // max turns kept per session
	idleTTL  time.Duration // idle age after which Sweep drops a session
}

// NewStore creates a Store with optional limits. If maxTurns is <= 0 it is
// treated as unlimited; if idleTTL is <= 0 the default applies.
func NewStore(maxTurns int, idleTTL time.Duration) *Store {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Store{
		sessions: make(map[string]*Session),
		maxTurns: maxTurns,
		idleTTL:  idleTTL,
	}
}

// GetOrCreate returns the id of a live session. An empty or unknown id
// starts a fresh session; unknown covers ids already swept by expiry.
func (s *Store) GetOrCreate(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if sess, ok := s.sessions[id]; ok {
			sess.LastSeen = time.Now()
			return id
		}
	}

	now := time.Now()
	fresh := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		LastSeen:  now,
		state:     StateIdle,
	}
	s.sessions[fresh.ID] = fresh
	return fresh.ID
}

// Append adds a turn to a session and enforces retention by count.
// Appending to an unknown session is a no-op.
func (s *Store) Append(id string, t Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return
	}

	sess.Turns = append(sess.Turns, t)
	sess.LastSeen = time.Now()

	if s.maxTurns > 0 && len(sess.Turns) > s.maxTurns {
		over := len(sess.Turns) - s.maxTurns
		sess.Turns = sess.Turns[over:]
	}
}

// History returns a copy of the session's turns. The second return is
// false for unknown sessions.
func (s *Store) History(id string) ([]Turn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}

	out := make([]Turn, len(sess.Turns))
	copy(out, sess.Turns)
	return out, true
}

// TryBegin flips an idle session to awaiting. It returns false when the
// session is unknown or a reply is already in flight.
func (s *Store) TryBegin(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || sess.state == StateAwaiting {
		return false
	}
	sess.state = StateAwaiting
	sess.LastSeen = time.Now()
	return true
}

// Finish returns a session to idle. Unknown ids are ignored.
func (s *Store) Finish(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		sess.state = StateIdle
		sess.LastSeen = time.Now()
	}
}

// State reports a session's current state, or idle for unknown ids.
func (s *Store) State(id string) State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sess, ok := s.sessions[id]; ok {
		return sess.state
	}
	return StateIdle
}

// Sweep drops idle sessions not seen within the TTL and reports how many
// were removed. Sessions awaiting a reply are never swept.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.idleTTL)
	removed := 0
	for id, sess := range s.sessions {
		if sess.state == StateAwaiting {
			continue
		}
		if sess.LastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len reports how many sessions are live.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
