// Package pgwatermark is a Postgres-backed models.WatermarkStore, adapted
// from the teacher's internal/db pgx connection/schema pattern.
package pgwatermark

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists a single named watermark row in Postgres via pgx.
type Store struct {
	pool *pgxpool.Pool
	name string
}

// Connect opens a pgx connection pool and pings it. name scopes the
// watermark row, so multiple Subscriber instances can share one database.
func Connect(ctx context.Context, connStr, name string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("pgwatermark: unable to connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("pgwatermark: ping failed: %w", err)
	}
	log.Printf("[pgwatermark] connected, watermark name %q", name)
	return &Store{pool: pool, name: name}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema creates the watermark table if it does not already exist.
func (s *Store) InitSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS subscriber_watermark (
			name  TEXT PRIMARY KEY,
			round BIGINT NOT NULL
		);
	`
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("pgwatermark: init schema: %w", err)
	}
	return nil
}

// Get returns the persisted watermark round, or 0 if no row exists yet.
func (s *Store) Get(ctx context.Context) (uint64, error) {
	var round int64
	err := s.pool.QueryRow(ctx, `SELECT round FROM subscriber_watermark WHERE name = $1`, s.name).Scan(&round)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("pgwatermark: get: %w", err)
	}
	return uint64(round), nil
}

// Set upserts the watermark round.
func (s *Store) Set(ctx context.Context, round uint64) error {
	const sql = `
		INSERT INTO subscriber_watermark (name, round)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET round = EXCLUDED.round;
	`
	if _, err := s.pool.Exec(ctx, sql, s.name, int64(round)); err != nil {
		return fmt.Errorf("pgwatermark: set: %w", err)
	}
	return nil
}
