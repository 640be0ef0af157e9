// Package repo contains the PostgreSQL adapters for persistent state. The
// only table the service owns is the generation history; live queue state is
// in-memory by design.
package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mapforge/internal/domain"
)

// GenerationRepositoryPG persists generation runs to PostgreSQL.
type GenerationRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewGenerationRepository creates a history repository backed by PostgreSQL.
func NewGenerationRepository(pool *pgxpool.Pool) *GenerationRepositoryPG {
	return &GenerationRepositoryPG{pool: pool}
}

// RecordStart inserts a new run record when a request is accepted.
func (r *GenerationRepositoryPG) RecordStart(ctx context.Context, run *domain.GenerationRun) error {
	query := `
INSERT INTO generation_runs (session, game, lat, lon, size, rotation, status)
VALUES ($1, $2, $3, $4, $5, $6, $7);
`
	_, err := r.pool.Exec(ctx, query,
		run.Session,
		run.Game,
		run.Coordinates.Lat,
		run.Coordinates.Lon,
		int(run.Size),
		run.Rotation,
		run.Status,
	)
	return err
}

// RecordFinish updates the terminal state of a run.
func (r *GenerationRepositoryPG) RecordFinish(ctx context.Context, run *domain.GenerationRun) error {
	query := `
UPDATE generation_runs
SET status = $2,
    error_message = NULLIF($3, ''),
    elapsed_seconds = $4,
    archive_path = NULLIF($5, ''),
    updated_at = NOW()
WHERE session = $1;
`
	_, err := r.pool.Exec(ctx, query,
		run.Session,
		run.Status,
		run.Error,
		run.ElapsedSec,
		run.ArchivePath,
	)
	return err
}

// GetBySession fetches a run by its session identifier.
func (r *GenerationRepositoryPG) GetBySession(ctx context.Context, session string) (*domain.GenerationRun, error) {
	query := `
SELECT session, game, lat, lon, size, rotation, status,
       COALESCE(error_message, ''), COALESCE(elapsed_seconds, 0),
       COALESCE(archive_path, ''), created_at, updated_at
FROM generation_runs
WHERE session = $1;
`
	row := r.pool.QueryRow(ctx, query, session)
	var run domain.GenerationRun
	var size int
	if err := row.Scan(
		&run.Session,
		&run.Game,
		&run.Coordinates.Lat,
		&run.Coordinates.Lon,
		&size,
		&run.Rotation,
		&run.Status,
		&run.Error,
		&run.ElapsedSec,
		&run.ArchivePath,
		&run.CreatedAt,
		&run.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	run.Size = domain.MapSize(size)
	return &run, nil
}

// Stats summarizes generation activity.
type Stats struct {
	Total         int64   `json:"total"`
	Succeeded     int64   `json:"succeeded"`
	Failed        int64   `json:"failed"`
	Last24h       int64   `json:"last_24h"`
	AvgElapsedSec float64 `json:"avg_elapsed_seconds"`
}

// Summary aggregates run counts and the average duration of successful runs.
func (r *GenerationRepositoryPG) Summary(ctx context.Context) (*Stats, error) {
	query := `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE status = 'done'),
       COUNT(*) FILTER (WHERE status = 'failed'),
       COUNT(*) FILTER (WHERE created_at > NOW() - INTERVAL '24 hours'),
       COALESCE(AVG(elapsed_seconds) FILTER (WHERE status = 'done'), 0)
FROM generation_runs;
`
	row := r.pool.QueryRow(ctx, query)
	var stats Stats
	if err := row.Scan(&stats.Total, &stats.Succeeded, &stats.Failed, &stats.Last24h, &stats.AvgElapsedSec); err != nil {
		return nil, err
	}
	return &stats, nil
}
