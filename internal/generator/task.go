package generator

import (
	"sync"
	"time"

	"mapforge/internal/domain"
)

// ProgressSink receives the externally observable events of one generation
// run, in order: queue positions while waiting, stage progress while running,
// then exactly one of Done or Fail.
type ProgressSink interface {
	QueuePosition(position int)
	Progress(percent int, label string)
	Previews(paths []string)
	Done(archivePath string, elapsed time.Duration)
	Fail(message string)
}

// Snapshot is a point-in-time copy of a task's state, safe to serialize.
type Snapshot struct {
	Session       string           `json:"session"`
	Status        domain.JobStatus `json:"status"`
	QueuePosition int              `json:"queue_position"`
	Percent       int              `json:"percent"`
	Label         string           `json:"label,omitempty"`
	Previews      []string         `json:"previews,omitempty"`
	Error         string           `json:"error,omitempty"`
	ElapsedSec    float64          `json:"elapsed_seconds,omitempty"`
	ArchivePath   string           `json:"-"`
	ArchiveReady  bool             `json:"archive_ready"`
	CreatedAt     time.Time        `json:"created_at"`
}

// Task tracks the live state of one in-flight request. It implements
// ProgressSink; the orchestrator goroutine writes, HTTP handlers read.
type Task struct {
	mu   sync.Mutex
	snap Snapshot
}

func newTask(session string, now time.Time) *Task {
	return &Task{snap: Snapshot{
		Session:   session,
		Status:    domain.JobStatusQueued,
		CreatedAt: now,
	}}
}

// Snapshot returns a copy of the current state.
func (t *Task) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := t.snap
	snap.Previews = append([]string(nil), t.snap.Previews...)
	return snap
}

// QueuePosition records the rank reported by the wait scheduler.
func (t *Task) QueuePosition(position int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Status = domain.JobStatusWaiting
	t.snap.QueuePosition = position
}

// Progress records a stage progress update.
func (t *Task) Progress(percent int, label string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.snap.Status != domain.JobStatusFinalizing {
		t.snap.Status = domain.JobStatusRunning
	}
	t.snap.QueuePosition = 0
	t.snap.Percent = percent
	t.snap.Label = label
}

// Previews records the preview files produced by the engine.
func (t *Task) Previews(paths []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Status = domain.JobStatusFinalizing
	t.snap.Previews = append([]string(nil), paths...)
}

// Done marks the task as finished with a downloadable archive.
func (t *Task) Done(archivePath string, elapsed time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Status = domain.JobStatusDone
	t.snap.Percent = 100
	t.snap.Label = ""
	t.snap.ArchivePath = archivePath
	t.snap.ArchiveReady = true
	t.snap.ElapsedSec = elapsed.Seconds()
}

// Fail marks the task as failed with a user-facing message.
func (t *Task) Fail(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Status = domain.JobStatusFailed
	t.snap.Error = message
}

// Registry holds the tasks of in-flight and recently finished requests.
type Registry struct {
	mu        sync.Mutex
	tasks     map[string]*Task
	retention time.Duration
}

// NewRegistry creates a task registry. Terminal tasks older than retention
// are pruned on the next Create call; zero retention keeps them for an hour.
func NewRegistry(retention time.Duration) *Registry {
	if retention <= 0 {
		retention = time.Hour
	}
	return &Registry{tasks: make(map[string]*Task), retention: retention}
}

// Create registers a task for the session and returns it.
func (r *Registry) Create(session string) *Task {
	now := time.Now()
	task := newTask(session, now)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked(now)
	r.tasks[session] = task
	return task
}

// Get returns the task for the session, or domain.ErrNotFound.
func (r *Registry) Get(session string) (*Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[session]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return task, nil
}

func (r *Registry) pruneLocked(now time.Time) {
	for session, task := range r.tasks {
		snap := task.Snapshot()
		if snap.Status.Terminal() && now.Sub(snap.CreatedAt) > r.retention {
			delete(r.tasks, session)
		}
	}
}
