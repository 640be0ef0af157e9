package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"mapforge/internal/domain"
	"mapforge/internal/generator"
	"mapforge/internal/queue"
	"mapforge/internal/settings"
)

type generateRequest struct {
	Game        string               `json:"game" validate:"required"`
	Coordinates string               `json:"coordinates" validate:"required"`
	Size        string               `json:"size" validate:"required"`
	Rotation    int                  `json:"rotation" validate:"gte=-180,lte=180"`
	Settings    *settings.Generation `json:"settings"`
	RawConfig   json.RawMessage      `json:"raw_config"`
	CustomOSM   string               `json:"custom_osm"`
}

type generateResponse struct {
	Session     string `json:"session"`
	Status      string `json:"status"`
	QueueLength int    `json:"queue_length"`
}

// MapsGenerate validates a submission, checks admission, and launches the
// generation orchestration for a new session. The admission check is
// advisory: it is not atomic with the enqueue performed by the orchestrator,
// so a burst can transiently exceed the ceiling.
func (a *App) MapsGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := a.validate.Struct(req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	game, err := domain.GameFromCode(req.Game)
	if err != nil {
		a.inputError(w, err)
		return
	}
	coords, err := domain.ParseCoordinates(req.Coordinates)
	if err != nil {
		a.inputError(w, err)
		return
	}
	size, err := domain.ParseMapSize(req.Size)
	if err != nil {
		a.inputError(w, err)
		return
	}
	if a.Cfg.PublicMode && int(size) > a.Cfg.PublicMaxMapSize {
		a.error(w, http.StatusBadRequest, "bad_request",
			fmt.Sprintf("map size is limited to %d on this server", a.Cfg.PublicMaxMapSize))
		return
	}

	gen, err := a.resolveSettings(&req)
	if err != nil {
		a.inputError(w, err)
		return
	}

	customOSM, err := a.resolveCustomOSM(req.CustomOSM)
	if err != nil {
		a.inputError(w, err)
		return
	}

	if a.Cfg.PublicMode && !queue.Admit(a.Queue.Len(), a.Cfg.QueueLimit) {
		a.error(w, http.StatusTooManyRequests, "overloaded",
			"The server is overloaded, please try again later")
		return
	}

	session := domain.SessionName(game, coords, time.Now())
	directory := filepath.Join(a.Cfg.MapsDirectory, session)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		a.Logger.Error().Err(err).Str("session", session).Msg("map directory creation failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to prepare map directory")
		return
	}

	job := &generator.Job{
		Session:     session,
		Game:        game,
		Coordinates: coords,
		Size:        size,
		Rotation:    req.Rotation,
		Settings:    gen,
		CustomOSM:   customOSM,
		Directory:   directory,
	}
	task := a.Registry.Create(session)
	go a.Orch.Run(a.BaseCtx, job, task)

	a.json(w, http.StatusAccepted, generateResponse{
		Session:     session,
		Status:      string(domain.JobStatusQueued),
		QueueLength: a.Queue.Len(),
	})
}

func (a *App) resolveSettings(req *generateRequest) (settings.Generation, error) {
	var gen settings.Generation
	switch {
	case len(req.RawConfig) > 0:
		parsed, err := settings.FromRawJSON(req.RawConfig)
		if err != nil {
			return settings.Generation{}, err
		}
		gen = parsed
	case req.Settings != nil:
		gen = *req.Settings
	default:
		gen = settings.Default()
	}
	if a.Cfg.PublicMode {
		gen = gen.LimitForPublic()
	}
	return gen, nil
}

// resolveCustomOSM maps an upload token from POST /v1/osm back to a file
// under the input directory.
func (a *App) resolveCustomOSM(name string) (string, error) {
	if name == "" {
		return "", nil
	}
	if a.Uploads == nil {
		return "", domain.NewInputError("custom_osm", "custom OSM uploads are not enabled")
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return "", domain.NewInputError("custom_osm", "invalid upload name")
	}
	path := filepath.Join(a.Uploads.BasePath(), name)
	if _, err := os.Stat(path); err != nil {
		return "", domain.NewInputError("custom_osm", "unknown upload")
	}
	return path, nil
}

func (a *App) inputError(w http.ResponseWriter, err error) {
	a.error(w, http.StatusBadRequest, "invalid_input", err.Error())
}

// MapStatus reports the live progress snapshot for a session. Sessions that
// already aged out of the in-memory registry fall back to the persisted
// history when one is configured.
func (a *App) MapStatus(w http.ResponseWriter, r *http.Request) {
	session := chi.URLParam(r, "session")
	if session == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "session required")
		return
	}
	task, err := a.Registry.Get(session)
	if err != nil {
		if a.History != nil {
			if run, histErr := a.History.GetBySession(r.Context(), session); histErr == nil {
				a.json(w, http.StatusOK, historyStatusResponse(run))
				return
			}
		}
		a.error(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	a.json(w, http.StatusOK, statusResponse(task.Snapshot()))
}

func historyStatusResponse(run *domain.GenerationRun) map[string]any {
	resp := map[string]any{
		"session":       run.Session,
		"status":        run.Status,
		"archive_ready": false,
		"created_at":    run.CreatedAt,
	}
	if run.Error != "" {
		resp["error"] = run.Error
	}
	if run.Status == domain.JobStatusDone {
		resp["elapsed_seconds"] = run.ElapsedSec
	}
	return resp
}

func statusResponse(snap generator.Snapshot) map[string]any {
	resp := map[string]any{
		"session":       snap.Session,
		"status":        snap.Status,
		"percent":       snap.Percent,
		"archive_ready": snap.ArchiveReady,
		"created_at":    snap.CreatedAt,
	}
	if snap.Status == domain.JobStatusWaiting {
		resp["queue_position"] = snap.QueuePosition
		resp["message"] = fmt.Sprintf("Your position in the queue: %d. Please wait...", snap.QueuePosition)
	}
	if snap.Label != "" {
		resp["label"] = snap.Label
	}
	if snap.Error != "" {
		resp["error"] = snap.Error
	}
	if snap.Status == domain.JobStatusDone {
		resp["elapsed_seconds"] = snap.ElapsedSec
		resp["message"] = fmt.Sprintf("Map generated in %.3f seconds.", snap.ElapsedSec)
	}
	return resp
}

// MapDownload streams the packed archive once the session is done.
func (a *App) MapDownload(w http.ResponseWriter, r *http.Request) {
	task, ok := a.taskFor(w, r)
	if !ok {
		return
	}
	snap := task.Snapshot()
	if !snap.ArchiveReady {
		a.error(w, http.StatusConflict, "not_ready", "map is not generated yet")
		return
	}
	file, err := os.Open(snap.ArchivePath)
	if err != nil {
		// Most likely the deferred cleanup already removed it.
		a.error(w, http.StatusGone, "gone", "archive is no longer available")
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s", filepath.Base(snap.ArchivePath)))
	http.ServeContent(w, r, filepath.Base(snap.ArchivePath), snap.CreatedAt, file)
}

// MapPreviews lists the preview files produced for a session.
func (a *App) MapPreviews(w http.ResponseWriter, r *http.Request) {
	task, ok := a.taskFor(w, r)
	if !ok {
		return
	}
	snap := task.Snapshot()
	items := make([]map[string]string, 0, len(snap.Previews))
	for _, path := range snap.Previews {
		name := filepath.Base(path)
		items = append(items, map[string]string{
			"name": name,
			"kind": previewKind(name),
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func previewKind(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image"
	case ".stl":
		return "mesh"
	default:
		return "file"
	}
}

// MapPreviewFile serves a single preview by name.
func (a *App) MapPreviewFile(w http.ResponseWriter, r *http.Request) {
	task, ok := a.taskFor(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	snap := task.Snapshot()
	for _, path := range snap.Previews {
		if filepath.Base(path) == name {
			http.ServeFile(w, r, path)
			return
		}
	}
	a.error(w, http.StatusNotFound, "not_found", "preview not found")
}

func (a *App) taskFor(w http.ResponseWriter, r *http.Request) (*generator.Task, bool) {
	session := chi.URLParam(r, "session")
	if session == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "session required")
		return nil, false
	}
	task, err := a.Registry.Get(session)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "session not found")
		return nil, false
	}
	return task, true
}
