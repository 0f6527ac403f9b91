package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citypulse-labs/bengaluru-climate/internal/logger"
)

func TestGetOrCreateIssuesFreshIDForUnknown(t *testing.T) {
	s := NewStore(0, time.Minute)

	id := s.GetOrCreate("")
	require.NotEmpty(t, id)
	assert.Equal(t, id, s.GetOrCreate(id), "known id should be reused")

	other := s.GetOrCreate("11111111-2222-3333-4444-555555555555")
	assert.NotEqual(t, "11111111-2222-3333-4444-555555555555", other,
		"unknown id should not be adopted")
	assert.Equal(t, 2, s.Len())
}

func TestAppendTrimsFromFront(t *testing.T) {
	s := NewStore(3, time.Minute)
	id := s.GetOrCreate("")

	for _, text := range []string{"a", "b", "c", "d", "e"} {
		s.Append(id, Turn{Role: RoleUser, Text: text, At: time.Now()})
	}

	turns, ok := s.History(id)
	require.True(t, ok)
	require.Len(t, turns, 3)
	assert.Equal(t, "c", turns[0].Text)
	assert.Equal(t, "e", turns[2].Text)
}

func TestHistoryReturnsCopy(t *testing.T) {
	s := NewStore(0, time.Minute)
	id := s.GetOrCreate("")
	s.Append(id, Turn{Role: RoleUser, Text: "original", At: time.Now()})

	turns, ok := s.History(id)
	require.True(t, ok)
	turns[0].Text = "mutated"

	again, _ := s.History(id)
	assert.Equal(t, "original", again[0].Text)
}

func TestTryBeginGuardsOneReplyInFlight(t *testing.T) {
	s := NewStore(0, time.Minute)
	id := s.GetOrCreate("")

	require.True(t, s.TryBegin(id))
	assert.Equal(t, StateAwaiting, s.State(id))
	assert.False(t, s.TryBegin(id), "second begin must fail while awaiting")

	s.Finish(id)
	assert.Equal(t, StateIdle, s.State(id))
	assert.True(t, s.TryBegin(id))
}

func TestTryBeginUnknownSession(t *testing.T) {
	s := NewStore(0, time.Minute)
	assert.False(t, s.TryBegin("nope"))
}

func TestSweepDropsExpiredIdleSessions(t *testing.T) {
	s := NewStore(0, 10*time.Millisecond)

	expired := s.GetOrCreate("")
	busy := s.GetOrCreate("")
	require.True(t, s.TryBegin(busy))

	time.Sleep(25 * time.Millisecond)
	fresh := s.GetOrCreate("")

	removed := s.Sweep()
	assert.Equal(t, 1, removed)

	_, ok := s.History(expired)
	assert.False(t, ok, "expired idle session should be gone")
	_, ok = s.History(busy)
	assert.True(t, ok, "awaiting session must survive sweeps")
	_, ok = s.History(fresh)
	assert.True(t, ok)
}

func TestSweeperStartAndStop(t *testing.T) {
	s := NewStore(0, time.Millisecond)
	s.GetOrCreate("")

	sw := NewSweeper(s, 10*time.Millisecond, logger.Discard())
	require.NoError(t, sw.Start())
	defer sw.Stop()

	assert.Eventually(t, func() bool { return s.Len() == 0 },
		2*time.Second, 20*time.Millisecond)
}
