package generator

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"mapforge/internal/domain"
	"mapforge/internal/infra"
	"mapforge/internal/queue"
)

// ArtifactRegistrar schedules deferred cleanup of a packed archive once it
// has become downloadable.
type ArtifactRegistrar interface {
	Register(path string)
}

// HistoryRecorder persists generation runs. Implementations must tolerate
// being called from concurrent orchestrations.
type HistoryRecorder interface {
	RecordStart(ctx context.Context, run *domain.GenerationRun) error
	RecordFinish(ctx context.Context, run *domain.GenerationRun) error
}

// Orchestrator sequences one generation request: enqueue, wait for a slot,
// drive the engine's staged pipeline, collect previews, pack the archive,
// and release the queue slot exactly once regardless of the exit path.
type Orchestrator struct {
	store       *queue.Store
	waiter      *queue.Waiter
	engine      Engine
	artifacts   ArtifactRegistrar
	history     HistoryRecorder
	logger      infra.Logger
	limited     bool
	archivesDir string
}

// Config wires the orchestrator's collaborators. History and Artifacts may
// be nil; Limited enables queue admission (public deployments).
type Config struct {
	Store       *queue.Store
	Waiter      *queue.Waiter
	Engine      Engine
	Artifacts   ArtifactRegistrar
	History     HistoryRecorder
	Logger      infra.Logger
	Limited     bool
	ArchivesDir string
}

// New creates an Orchestrator.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		store:       cfg.Store,
		waiter:      cfg.Waiter,
		engine:      cfg.Engine,
		artifacts:   cfg.Artifacts,
		history:     cfg.History,
		logger:      cfg.Logger,
		limited:     cfg.Limited,
		archivesDir: cfg.ArchivesDir,
	}
}

// Run executes the request until Done or Failed. It never panics and never
// returns an error to the caller: every failure is logged and forwarded to
// the sink as a single user-facing message. The job must already be
// validated; Run performs no input checks and therefore needs no cleanup on
// the paths where nothing was reserved yet.
func (o *Orchestrator) Run(ctx context.Context, job *Job, sink ProgressSink) {
	defer func() {
		if rec := recover(); rec != nil {
			o.logger.Error().Str("session", job.Session).Interface("panic", rec).Msg("generation panicked")
			sink.Fail(fmt.Sprintf("An error occurred while generating the map: %v", rec))
		}
	}()

	o.recordStart(ctx, job)

	if o.limited {
		if err := o.store.Enqueue(job.Session); err != nil {
			// Session names are timestamp-derived, so a duplicate
			// means something is badly wrong; reject rather than
			// corrupt the queue. The existing entry is not ours to
			// release.
			o.logger.Error().Err(err).Str("session", job.Session).Msg("queue admission failed")
			o.fail(ctx, job, sink, err)
			return
		}
		defer o.store.Dequeue(job.Session)

		for position := range o.waiter.Wait(ctx, job.Session) {
			sink.QueuePosition(position)
		}
		if ctx.Err() != nil {
			o.fail(ctx, job, sink, ctx.Err())
			return
		}
	}

	startedAt := time.Now()
	step := 100 / (o.engine.StageCount(job.Game) + 2)
	completed := 0

	for event := range o.engine.Stages(ctx, job) {
		if event.Err != nil {
			o.fail(ctx, job, sink, event.Err)
			return
		}
		sink.Progress(completed, fmt.Sprintf("Generating %s...", event.Name))
		completed += step
	}
	if ctx.Err() != nil {
		o.fail(ctx, job, sink, ctx.Err())
		return
	}

	completed += step
	sink.Progress(completed, "Creating previews...")
	sink.Previews(o.engine.Previews(job))

	completed += step
	sink.Progress(completed, "Packing the map...")
	archivePath, err := o.engine.Pack(job, filepath.Join(o.archivesDir, job.Session))
	if err != nil {
		o.fail(ctx, job, sink, err)
		return
	}

	if o.artifacts != nil {
		o.artifacts.Register(archivePath)
	}

	elapsed := time.Since(startedAt)
	o.logger.Info().
		Str("session", job.Session).
		Float64("elapsed_seconds", elapsed.Seconds()).
		Msg("map generated")
	sink.Done(archivePath, elapsed)
	o.recordFinish(ctx, job, domain.JobStatusDone, "", elapsed, archivePath)
}

func (o *Orchestrator) fail(ctx context.Context, job *Job, sink ProgressSink, cause error) {
	o.logger.Error().Err(cause).Str("session", job.Session).Msg("map generation failed")
	sink.Fail(fmt.Sprintf("An error occurred while generating the map: %v", cause))
	o.recordFinish(ctx, job, domain.JobStatusFailed, cause.Error(), 0, "")
}

func (o *Orchestrator) recordStart(ctx context.Context, job *Job) {
	if o.history == nil {
		return
	}
	run := &domain.GenerationRun{
		Session:     job.Session,
		Game:        job.Game,
		Coordinates: job.Coordinates,
		Size:        job.Size,
		Rotation:    job.Rotation,
		Status:      domain.JobStatusQueued,
	}
	if err := o.history.RecordStart(ctx, run); err != nil {
		o.logger.Warn().Err(err).Str("session", job.Session).Msg("history record start failed")
	}
}

func (o *Orchestrator) recordFinish(ctx context.Context, job *Job, status domain.JobStatus, errMsg string, elapsed time.Duration, archivePath string) {
	if o.history == nil {
		return
	}
	run := &domain.GenerationRun{
		Session:     job.Session,
		Status:      status,
		Error:       errMsg,
		ElapsedSec:  elapsed.Seconds(),
		ArchivePath: archivePath,
	}
	if err := o.history.RecordFinish(ctx, run); err != nil {
		o.logger.Warn().Err(err).Str("session", job.Session).Msg("history record finish failed")
	}
}
