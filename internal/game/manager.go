package game

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrMatchNotFound is returned when looking up an unknown match id.
var ErrMatchNotFound = errors.New("match not found")

// Manager tracks live match engines by id and owns their run goroutines.
type Manager struct {
	logger *zap.Logger

	mu      sync.RWMutex
	matches map[string]*MatchEngine
}

// NewManager creates a new match manager.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		logger:  logger,
		matches: make(map[string]*MatchEngine),
	}
}

// CreateMatch constructs an engine for the given players and registers it
// under a fresh match id.
func (mgr *Manager) CreateMatch(playerIDs []string, registry CardRegistry, cfg Config, bus *EventBus) (*MatchEngine, error) {
	matchID := uuid.New().String()
	engine, err := NewMatchEngine(matchID, playerIDs, registry, cfg, bus, mgr.logger)
	if err != nil {
		return nil, err
	}

	mgr.mu.Lock()
	mgr.matches[matchID] = engine
	mgr.mu.Unlock()

	mgr.logger.Info("match created",
		zap.String("match_id", matchID),
		zap.Strings("players", playerIDs),
	)
	return engine, nil
}

// GetMatch returns the engine for the given match id.
func (mgr *Manager) GetMatch(matchID string) (*MatchEngine, error) {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	engine, ok := mgr.matches[matchID]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return engine, nil
}

// RunMatch drives the engine's turn loop and removes it from the live table
// when it finishes or aborts.
func (mgr *Manager) RunMatch(ctx context.Context, engine *MatchEngine) error {
	err := engine.Run(ctx)
	if err != nil && !errors.Is(err, ErrMatchAborted) {
		mgr.logger.Error("match run failed",
			zap.String("match_id", engine.ID()),
			zap.Error(err),
		)
	}

	mgr.mu.Lock()
	delete(mgr.matches, engine.ID())
	mgr.mu.Unlock()
	return err
}

// AbortAll aborts every live match. Used during server shutdown.
func (mgr *Manager) AbortAll() {
	mgr.mu.RLock()
	engines := make([]*MatchEngine, 0, len(mgr.matches))
	for _, engine := range mgr.matches {
		engines = append(engines, engine)
	}
	mgr.mu.RUnlock()

	for _, engine := range engines {
		engine.Abort()
	}
}

// MatchCount returns the number of live matches.
func (mgr *Manager) MatchCount() int {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	return len(mgr.matches)
}
