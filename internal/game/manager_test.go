package game

import (
	"context"
	"testing"
	"time"

	"github.com/duelforge/duel-server-go/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestManager_CreateAndLookup(t *testing.T) {
	mgr := NewManager(zap.NewNop())
	registry := newTestRegistry(catalog.Card{ID: 1, Name: "Scout", Cost: 1, Power: 1})

	engine, err := mgr.CreateMatch([]string{"alice", "bob"}, registry, testConfig(), NewEventBus())
	require.NoError(t, err)
	require.NotEmpty(t, engine.ID())
	assert.Equal(t, 1, mgr.MatchCount())

	found, err := mgr.GetMatch(engine.ID())
	require.NoError(t, err)
	assert.Same(t, engine, found)

	_, err = mgr.GetMatch("nope")
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestManager_CreateMatchPropagatesEngineErrors(t *testing.T) {
	mgr := NewManager(zap.NewNop())
	registry := newTestRegistry(catalog.Card{ID: 1, Name: "Scout", Cost: 1, Power: 1})

	_, err := mgr.CreateMatch([]string{"alice"}, registry, testConfig(), NewEventBus())
	assert.ErrorIs(t, err, ErrWrongPlayerCount)
	assert.Equal(t, 0, mgr.MatchCount())
}

func TestManager_RunMatchRemovesFromTable(t *testing.T) {
	mgr := NewManager(zap.NewNop())
	registry := newTestRegistry(catalog.Card{ID: 1, Name: "Scout", Cost: 1, Power: 1})

	engine, err := mgr.CreateMatch([]string{"alice", "bob"}, registry, testConfig(), NewEventBus())
	require.NoError(t, err)

	require.NoError(t, mgr.RunMatch(context.Background(), engine))
	assert.Equal(t, 0, mgr.MatchCount())
	_, err = mgr.GetMatch(engine.ID())
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestManager_AbortAll(t *testing.T) {
	mgr := NewManager(zap.NewNop())
	registry := newTestRegistry(catalog.Card{ID: 1, Name: "Scout", Cost: 1, Power: 1})
	cfg := testConfig()
	cfg.TurnDuration = 10 * time.Second

	engine, err := mgr.CreateMatch([]string{"alice", "bob"}, registry, cfg, NewEventBus())
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- mgr.RunMatch(context.Background(), engine) }()

	// Let the turn loop open its first window before tearing everything down.
	require.Eventually(t, func() bool {
		return engine.Phase() == PhaseCollectingSubmissions
	}, time.Second, 5*time.Millisecond)

	mgr.AbortAll()
	assert.ErrorIs(t, <-errCh, ErrMatchAborted)
	assert.Equal(t, 0, mgr.MatchCount())
}
