package repository

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/duelforge/duel-server-go/internal/game"
)

// ResultStore is the subset of the result repository the recorder needs.
type ResultStore interface {
	SaveResult(ctx context.Context, result MatchResult) error
}

// Recorder subscribes to a match event bus and persists finished matches.
type Recorder struct {
	store   ResultStore
	logger  *zap.Logger
	timeout time.Duration
}

// NewRecorder creates a recorder writing to store.
func NewRecorder(store ResultStore, logger *zap.Logger) *Recorder {
	return &Recorder{
		store:   store,
		logger:  logger,
		timeout: 5 * time.Second,
	}
}

// Attach registers the recorder on the bus and returns the subscription
// handle. Writes happen off the publisher's goroutine so a slow database
// never stalls match resolution.
func (rec *Recorder) Attach(bus *game.EventBus) int {
	return bus.SubscribeTyped(game.EventMatchEnded, func(evt game.Event) {
		go rec.record(evt)
	})
}

func (rec *Recorder) record(evt game.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), rec.timeout)
	defer cancel()

	err := rec.store.SaveResult(ctx, MatchResult{
		MatchID:     evt.MatchID,
		WinnerID:    evt.WinnerID,
		WinnerScore: evt.WinnerScore,
		LoserScore:  evt.LoserScore,
		TurnsPlayed: evt.Turn,
		FinishedAt:  evt.Timestamp,
	})
	if err != nil {
		rec.logger.Error("failed to persist match result",
			zap.String("match_id", evt.MatchID),
			zap.Error(err),
		)
		return
	}
	rec.logger.Debug("match result persisted",
		zap.String("match_id", evt.MatchID),
		zap.String("winner_id", evt.WinnerID),
	)
}
