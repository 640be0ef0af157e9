// Package generator drives one map generation request end to end: queue
// admission, waiting for a free slot, running the engine's staged pipeline,
// collecting previews, packing the archive, and releasing the slot on every
// exit path.
package generator

import (
	"context"

	"mapforge/internal/domain"
	"mapforge/internal/settings"
)

// Job carries everything the engine needs for one generation request. It is
// owned by the orchestrator for the lifetime of the request.
type Job struct {
	Session     string
	Game        domain.Game
	Coordinates domain.Coordinates
	Size        domain.MapSize
	Rotation    int
	Settings    settings.Generation
	CustomOSM   string
	Directory   string
}

// StageEvent is one element of the engine's stage sequence. A non-nil Err
// terminates the sequence; no further events follow it.
type StageEvent struct {
	Name string
	Err  error
}

// Engine is the generation pipeline collaborator. Stages returns a finite
// sequence of completed stage names, one per stage, in an order that is
// stable for a given input; the sequence is not restartable. Previews and
// Pack may only be called after the stage sequence completed without error.
type Engine interface {
	StageCount(game domain.Game) int
	Stages(ctx context.Context, job *Job) <-chan StageEvent
	Previews(job *Job) []string
	Pack(job *Job, destinationPrefix string) (string, error)
}
