// Package store is an optional persistence adapter for a driver run's
// player posteriors and event history: a pgx-backed snapshot keyed by a
// run id, never imported by internal/driver or internal/systems
// themselves. A caller that wants durability constructs a DB, runs a
// driver loop in memory, and calls SaveSnapshot/LoadSnapshot around it.
package store

import (
	"context"
	"embed"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"ratingcore/internal/driver"
	"ratingcore/internal/player"
	"ratingcore/internal/rating"
)

//go:embed schema.sql
var schema embed.FS

// DB wraps a pgx connection pool.
type DB struct{ *pgxpool.Pool }

// Open connects to dsn.
func Open(dsn string) (*DB, error) {
	p, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connecting: %w", err)
	}
	return &DB{p}, nil
}

// Close releases the pool.
func (db *DB) Close() { db.Pool.Close() }

// Migrate applies schema.sql, idempotently.
func Migrate(ctx context.Context, db *DB) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("store: reading schema: %w", err)
	}
	if _, err := db.Exec(ctx, string(sqlBytes)); err != nil {
		return fmt.Errorf("store: applying schema: %w", err)
	}
	return nil
}

// NewRun registers a fresh run and returns its id.
func NewRun(ctx context.Context, db *DB, system string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := db.Exec(ctx, `INSERT INTO runs(id, system) VALUES ($1, $2)`, id, system)
	if err != nil {
		return uuid.Nil, fmt.Errorf("store: creating run: %w", err)
	}
	return id, nil
}

// SaveSnapshot upserts every player's current posterior and inserts any
// event-history rows not already recorded for this run (contest_index is
// the natural per-player idempotency key: a handle's row set only ever
// grows). LogisticFactors are not persisted — a reloaded player replays
// as the Gaussian-only equivalent of its logistic history, which is
// sufficient for the leaderboard and audit-trail uses this package
// exists for.
func SaveSnapshot(ctx context.Context, db *DB, runID uuid.UUID, players driver.PlayersByName) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: beginning snapshot transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for handle, p := range players {
		_, err := tx.Exec(ctx, `
			INSERT INTO players(run_id, handle, normal_mu, normal_sigma, approx_mu, approx_sigma, update_time, delta_time)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (run_id, handle) DO UPDATE
			  SET normal_mu = EXCLUDED.normal_mu,
			      normal_sigma = EXCLUDED.normal_sigma,
			      approx_mu = EXCLUDED.approx_mu,
			      approx_sigma = EXCLUDED.approx_sigma,
			      update_time = EXCLUDED.update_time,
			      delta_time = EXCLUDED.delta_time
		`, runID, handle, p.NormalFactor.Mu, p.NormalFactor.Sigma, p.ApproxPosterior.Mu, p.ApproxPosterior.Sigma, p.UpdateTime, p.DeltaTime)
		if err != nil {
			return fmt.Errorf("store: upserting player %q: %w", handle, err)
		}

		for _, ev := range p.EventHistory {
			_, err := tx.Exec(ctx, `
				INSERT INTO player_events(run_id, handle, contest_index, rating_mu, rating_sigma, perf_score, place)
				VALUES ($1,$2,$3,$4,$5,$6,$7)
				ON CONFLICT (run_id, handle, contest_index) DO NOTHING
			`, runID, handle, ev.ContestIndex, ev.RatingMu, ev.RatingSigma, ev.PerfScore, ev.Place)
			if err != nil {
				return fmt.Errorf("store: inserting event for %q: %w", handle, err)
			}
		}
	}

	return tx.Commit(ctx)
}

// LoadSnapshot reconstructs a PlayersByName roster from a prior run's
// persisted rows.
func LoadSnapshot(ctx context.Context, db *DB, runID uuid.UUID, log *logrus.Logger) (driver.PlayersByName, error) {
	rows, err := db.Query(ctx, `
		SELECT handle, normal_mu, normal_sigma, approx_mu, approx_sigma, update_time, delta_time
		  FROM players WHERE run_id = $1
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: querying players: %w", err)
	}
	defer rows.Close()

	players := make(driver.PlayersByName)
	type row struct {
		handle                 string
		normalMu, normalSigma  float64
		approxMu, approxSigma  float64
		updateTime, deltaTime  uint64
	}
	var pending []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.handle, &r.normalMu, &r.normalSigma, &r.approxMu, &r.approxSigma, &r.updateTime, &r.deltaTime); err != nil {
			return nil, fmt.Errorf("store: scanning player row: %w", err)
		}
		pending = append(pending, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterating players: %w", err)
	}

	for _, r := range pending {
		p := player.New(rating.Rating{Mu: r.normalMu, Sigma: r.normalSigma}, r.updateTime, log)
		p.ApproxPosterior = rating.Rating{Mu: r.approxMu, Sigma: r.approxSigma}
		p.DeltaTime = r.deltaTime

		evRows, err := db.Query(ctx, `
			SELECT contest_index, rating_mu, rating_sigma, perf_score, place
			  FROM player_events WHERE run_id = $1 AND handle = $2
			 ORDER BY contest_index
		`, runID, r.handle)
		if err != nil {
			return nil, fmt.Errorf("store: querying events for %q: %w", r.handle, err)
		}
		for evRows.Next() {
			var ev player.PlayerEvent
			if err := evRows.Scan(&ev.ContestIndex, &ev.RatingMu, &ev.RatingSigma, &ev.PerfScore, &ev.Place); err != nil {
				evRows.Close()
				return nil, fmt.Errorf("store: scanning event row for %q: %w", r.handle, err)
			}
			p.EventHistory = append(p.EventHistory, ev)
		}
		evRows.Close()
		if err := evRows.Err(); err != nil {
			return nil, fmt.Errorf("store: iterating events for %q: %w", r.handle, err)
		}

		players[r.handle] = p
	}

	return players, nil
}
