package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/duelforge/duel-server-go/internal/game"
)

type fakeStore struct {
	mu      sync.Mutex
	results []MatchResult
	saved   chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: make(chan struct{}, 4)}
}

func (s *fakeStore) SaveResult(_ context.Context, result MatchResult) error {
	s.mu.Lock()
	s.results = append(s.results, result)
	s.mu.Unlock()
	s.saved <- struct{}{}
	return nil
}

func TestRecorder_PersistsMatchEnded(t *testing.T) {
	store := newFakeStore()
	rec := NewRecorder(store, zap.NewNop())
	bus := game.NewEventBus()
	rec.Attach(bus)

	bus.Publish(game.NewMatchEndedEvent("match-1", "alice", 10, 7, 4))

	select {
	case <-store.saved:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for result save")
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.results, 1)
	got := store.results[0]
	assert.Equal(t, "match-1", got.MatchID)
	assert.Equal(t, "alice", got.WinnerID)
	assert.Equal(t, 7, got.WinnerScore)
	assert.Equal(t, 4, got.LoserScore)
	assert.Equal(t, 10, got.TurnsPlayed)
	assert.False(t, got.FinishedAt.IsZero())
}

func TestRecorder_IgnoresOtherEvents(t *testing.T) {
	store := newFakeStore()
	rec := NewRecorder(store, zap.NewNop())
	bus := game.NewEventBus()
	rec.Attach(bus)

	bus.Publish(game.NewTurnStartedEvent("match-1", 1))
	bus.Publish(game.NewMatchAbortedEvent("match-1", 1))

	select {
	case <-store.saved:
		t.Fatal("only match ended events should be persisted")
	case <-time.After(50 * time.Millisecond):
	}
}
