// Package artifacts tracks packed archives after hand-off and removes them
// once they are no longer needed, without ever blocking the generation flow.
package artifacts

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"mapforge/internal/infra"
)

// Manager schedules deferred deletion of downloadable archives. Deletion
// failures are logged and swallowed: by the time a removal fires the user
// has already been offered the download.
type Manager struct {
	delay  time.Duration
	logger infra.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewManager creates a Manager removing registered files after delay.
func NewManager(delay time.Duration, logger infra.Logger) *Manager {
	return &Manager{
		delay:   delay,
		logger:  logger,
		pending: make(map[string]*time.Timer),
	}
}

// Register schedules the file for deletion after the configured delay and
// returns immediately. Registering the same path again resets its timer.
func (m *Manager) Register(path string) {
	m.ScheduleDelete(path, m.delay)
}

// ScheduleDelete arranges removal of path after delay without blocking the
// caller.
func (m *Manager) ScheduleDelete(path string, delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if timer, ok := m.pending[path]; ok {
		timer.Stop()
	}
	m.pending[path] = time.AfterFunc(delay, func() { m.remove(path) })
	m.logger.Debug().Str("path", path).Dur("delay", delay).Msg("artifact removal scheduled")
}

func (m *Manager) remove(path string) {
	m.mu.Lock()
	delete(m.pending, path)
	m.mu.Unlock()

	if err := os.Remove(path); err != nil {
		if !os.IsNotExist(err) {
			m.logger.Warn().Err(err).Str("path", path).Msg("artifact removal failed")
		}
		return
	}
	m.logger.Info().Str("path", path).Msg("artifact removed")
}

// PendingCount returns how many removals are currently scheduled.
func (m *Manager) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// SweepDir removes regular files under dir whose modification time is older
// than maxAge and empty leftover directories. It returns the number of
// entries removed. Used by the sweeper command to reclaim archives and map
// directories whose owning session was abandoned.
func SweepDir(dir string, maxAge time.Duration, logger infra.Logger) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("sweep removal failed")
			continue
		}
		logger.Info().Str("path", path).Msg("stale entry removed")
		removed++
	}
	return removed, nil
}
