package domain

import "time"

// JobStatus enumerates the generation lifecycle states.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusWaiting    JobStatus = "waiting"
	JobStatusRunning    JobStatus = "running"
	JobStatusFinalizing JobStatus = "finalizing"
	JobStatusDone       JobStatus = "done"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions can occur.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusFailed
}

// GenerationRun is the persisted record of one generation request. Runs are
// written to the history repository when one is configured; the live state
// of an in-flight request is tracked separately by the task registry.
type GenerationRun struct {
	Session     string
	Game        Game
	Coordinates Coordinates
	Size        MapSize
	Rotation    int
	Status      JobStatus
	Error       string
	ElapsedSec  float64
	ArchivePath string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
