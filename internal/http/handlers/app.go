// Package handlers exposes the generation service over HTTP: submission,
// progress polling, previews, downloads and service metadata.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"mapforge/internal/adapter/repo"
	"mapforge/internal/domain"
	"mapforge/internal/generator"
	"mapforge/internal/infra"
	"mapforge/internal/infra/geoip"
	"mapforge/internal/queue"
	"mapforge/internal/storage"
)

// HistoryStore is the read side of the generation history, available only
// when a database is configured.
type HistoryStore interface {
	Summary(ctx context.Context) (*repo.Stats, error)
	GetBySession(ctx context.Context, session string) (*domain.GenerationRun, error)
}

// App bundles the dependencies of the HTTP handlers.
type App struct {
	Logger   infra.Logger
	Cfg      *infra.Config
	Queue    *queue.Store
	Registry *generator.Registry
	Orch     *generator.Orchestrator
	GeoIP    geoip.LocationResolver
	Uploads  *storage.FileStore
	History  HistoryStore

	// BaseCtx outlives individual requests; orchestrations run on it so an
	// HTTP disconnect does not abort a job mid-generation.
	BaseCtx context.Context

	validate *validator.Validate
}

// NewApp creates the handler container.
func NewApp(cfg *infra.Config, logger infra.Logger, store *queue.Store, registry *generator.Registry, orch *generator.Orchestrator) *App {
	return &App{
		Logger:   logger,
		Cfg:      cfg,
		Queue:    store,
		Registry: registry,
		Orch:     orch,
		BaseCtx:  context.Background(),
		validate: validator.New(),
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]string{"error": errCode, "message": message})
}
