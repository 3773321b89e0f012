package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PreferenceRepository is a string key-value store over the preferences table.
type PreferenceRepository struct {
	q Querier
}

// NewPreferenceRepository constructs a PreferenceRepository backed by the given pool.
func NewPreferenceRepository(pool *pgxpool.Pool) *PreferenceRepository {
	return &PreferenceRepository{q: pool}
}

// NewPreferenceRepositoryWithQuerier constructs a PreferenceRepository with a custom Querier (for tests).
func NewPreferenceRepositoryWithQuerier(q Querier) *PreferenceRepository {
	return &PreferenceRepository{q: q}
}

// Get returns the value stored under key. ok is false when the key is absent.
func (r *PreferenceRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.q.QueryRow(ctx, `SELECT value FROM preferences WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("querying preference %s: %w", key, err)
	}
	return value, true, nil
}

// Set inserts or replaces the value under key.
func (r *PreferenceRepository) Set(ctx context.Context, key, value string) error {
	const q = `
		INSERT INTO preferences (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value      = EXCLUDED.value,
		    updated_at = EXCLUDED.updated_at
	`

	if _, err := r.q.Exec(ctx, q, key, value); err != nil {
		return fmt.Errorf("upserting preference %s: %w", key, err)
	}
	return nil
}
