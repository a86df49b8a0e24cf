package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const matchResultsSchema = `
CREATE TABLE IF NOT EXISTS match_results (
	id           BIGSERIAL PRIMARY KEY,
	match_id     TEXT NOT NULL UNIQUE,
	winner_id    TEXT NOT NULL,
	winner_score INT  NOT NULL,
	loser_score  INT  NOT NULL,
	turns_played INT  NOT NULL,
	finished_at  TIMESTAMPTZ NOT NULL
)`

// MatchResult is one finished match's outcome row.
type MatchResult struct {
	MatchID     string
	WinnerID    string
	WinnerScore int
	LoserScore  int
	TurnsPlayed int
	FinishedAt  time.Time
}

// MatchResultRepository stores finished match outcomes.
type MatchResultRepository struct {
	pool *pgxpool.Pool
}

// NewMatchResultRepository creates a match result repository.
func NewMatchResultRepository(pool *pgxpool.Pool) *MatchResultRepository {
	return &MatchResultRepository{pool: pool}
}

// EnsureSchema creates the match_results table if it does not exist.
func (r *MatchResultRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, matchResultsSchema); err != nil {
		return fmt.Errorf("create match_results table: %w", err)
	}
	return nil
}

// SaveResult inserts one finished match outcome. Saving the same match id
// twice is a no-op.
func (r *MatchResultRepository) SaveResult(ctx context.Context, result MatchResult) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO match_results (match_id, winner_id, winner_score, loser_score, turns_played, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (match_id) DO NOTHING`,
		result.MatchID,
		result.WinnerID,
		result.WinnerScore,
		result.LoserScore,
		result.TurnsPlayed,
		result.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert match result: %w", err)
	}
	return nil
}

// RecentResults returns the most recently finished matches, newest first.
func (r *MatchResultRepository) RecentResults(ctx context.Context, limit int) ([]MatchResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT match_id, winner_id, winner_score, loser_score, turns_played, finished_at
		 FROM match_results
		 ORDER BY finished_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query match results: %w", err)
	}
	defer rows.Close()

	var results []MatchResult
	for rows.Next() {
		var res MatchResult
		if err := rows.Scan(&res.MatchID, &res.WinnerID, &res.WinnerScore, &res.LoserScore, &res.TurnsPlayed, &res.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan match result: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
