package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AffinityRepo reads and replaces the per-user materialized affinity view.
type AffinityRepo struct {
	db *sql.DB
}

func NewAffinityRepo(db *sql.DB) *AffinityRepo { return &AffinityRepo{db: db} }

func (r *AffinityRepo) GetProfile(ctx context.Context, userID string) (map[string]float64, error) {
	rows, err := r.db.QueryContext(ctx, getProfileSQL, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profile := make(map[string]float64)
	for rows.Next() {
		var tag string
		var score float64
		if err := rows.Scan(&tag, &score); err != nil {
			return nil, err
		}
		profile[tag] = score
	}
	return profile, rows.Err()
}

// ReplaceScores swaps the user's entire row set in one transaction:
// delete everything, insert the new profile. A concurrent reader sees
// the old set or the new set, never a mix; concurrent writers resolve
// to last-writer-wins.
func (r *AffinityRepo) ReplaceScores(ctx context.Context, userID string, scores map[string]float64, updatedAt time.Time) (int, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return 0, err
	}

	defer func() {
		// Safety: in case of panic, rollback to avoid a leaked tx.
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if _, err := tx.ExecContext(ctx, deleteScoresSQL, userID); err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	written := 0
	for tag, score := range scores {
		if _, err := tx.ExecContext(ctx, insertScoreSQL, userID, tag, score, updatedAt); err != nil {
			_ = tx.Rollback()
			return 0, err
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit affinity replace: %w", err)
	}
	return written, nil
}
