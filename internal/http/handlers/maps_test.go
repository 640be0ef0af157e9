package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"mapforge/internal/domain"
	"mapforge/internal/generator"
	"mapforge/internal/http/handlers"
	"mapforge/internal/http/httpapi"
	"mapforge/internal/infra"
	"mapforge/internal/queue"
)

type generateResponse struct {
	Session string `json:"session"`
	Status  string `json:"status"`
}

type stubEngine struct {
	stages []string
	fail   bool
}

func (e *stubEngine) StageCount(domain.Game) int { return len(e.stages) }

func (e *stubEngine) Stages(ctx context.Context, job *generator.Job) <-chan generator.StageEvent {
	out := make(chan generator.StageEvent)
	go func() {
		defer close(out)
		for _, name := range e.stages {
			out <- generator.StageEvent{Name: name}
		}
		if e.fail {
			out <- generator.StageEvent{Err: context.DeadlineExceeded}
		}
	}()
	return out
}

func (e *stubEngine) Previews(job *generator.Job) []string { return nil }

func (e *stubEngine) Pack(job *generator.Job, destinationPrefix string) (string, error) {
	return destinationPrefix + ".zip", nil
}

func newTestApp(t *testing.T, public bool, engine generator.Engine) (*handlers.App, http.Handler) {
	t.Helper()
	cfg := &infra.Config{
		AppEnv:        "test",
		PublicMode:    public,
		QueueLimit:    2,
		MapsDirectory: t.TempDir(),
		ArchivesDir:   t.TempDir(),

		PublicMaxMapSize: 8192,
	}
	store := queue.NewStore()
	if engine == nil {
		engine = &stubEngine{stages: []string{"texture", "dem"}}
	}
	orch := generator.New(generator.Config{
		Store:       store,
		Waiter:      queue.NewWaiter(store, time.Millisecond),
		Engine:      engine,
		Logger:      zerolog.Nop(),
		Limited:     public,
		ArchivesDir: cfg.ArchivesDir,
	})
	app := handlers.NewApp(cfg, zerolog.Nop(), store, generator.NewRegistry(time.Hour), orch)
	return app, httpapi.NewRouter(app)
}

func postJSON(t *testing.T, handler http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func validPayload() map[string]any {
	return map[string]any{
		"game":        "FS25",
		"coordinates": "45.28571409289627, 20.237433441210115",
		"size":        "2048x2048",
		"rotation":    0,
	}
}

func TestMapsGenerateAccepted(t *testing.T) {
	app, handler := newTestApp(t, false, nil)

	rec := postJSON(t, handler, "/v1/maps", validPayload())
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202; body=%s", rec.Code, rec.Body.String())
	}
	var resp generateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if resp.Session == "" || resp.Status != "queued" {
		t.Fatalf("response = %+v", resp)
	}

	// The orchestration runs asynchronously; poll until terminal.
	deadline := time.After(5 * time.Second)
	for {
		task, err := app.Registry.Get(resp.Session)
		if err != nil {
			t.Fatalf("Registry.Get returned error: %v", err)
		}
		snap := task.Snapshot()
		if snap.Status.Terminal() {
			if snap.Status != domain.JobStatusDone {
				t.Fatalf("final status = %s, error = %s", snap.Status, snap.Error)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("orchestration never finished")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestMapsGenerateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{name: "invalid latitude", mutate: func(p map[string]any) { p["coordinates"] = "91,0" }},
		{name: "odd size", mutate: func(p map[string]any) { p["size"] = "2047x2047" }},
		{name: "not square", mutate: func(p map[string]any) { p["size"] = "2048x4096" }},
		{name: "unknown game", mutate: func(p map[string]any) { p["game"] = "FS11" }},
		{name: "rotation out of range", mutate: func(p map[string]any) { p["rotation"] = 270 }},
		{name: "missing coordinates", mutate: func(p map[string]any) { delete(p, "coordinates") }},
		{name: "malformed raw config", mutate: func(p map[string]any) { p["raw_config"] = json.RawMessage(`{"DEMSettings":"broken"}`) }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app, handler := newTestApp(t, false, nil)
			payload := validPayload()
			tc.mutate(payload)

			rec := postJSON(t, handler, "/v1/maps", payload)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body=%s", rec.Code, rec.Body.String())
			}
			if got := app.Queue.Len(); got != 0 {
				t.Fatalf("queue length after rejected submission = %d, want 0", got)
			}
		})
	}
}

func TestMapsGenerateOverloadedPublic(t *testing.T) {
	app, handler := newTestApp(t, true, nil)

	// Fill the queue to the ceiling; the admission gate must refuse.
	if err := app.Queue.Enqueue("held-1"); err != nil {
		t.Fatalf("Enqueue returned error: %v", err)
	}
	if err := app.Queue.Enqueue("held-2"); err != nil {
		t.Fatalf("Enqueue returned error: %v", err)
	}

	rec := postJSON(t, handler, "/v1/maps", validPayload())
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429; body=%s", rec.Code, rec.Body.String())
	}
}

func TestMapStatusUnknownSession(t *testing.T) {
	_, handler := newTestApp(t, false, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/maps/unknown-session", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestMapDownloadBeforeReady(t *testing.T) {
	app, handler := newTestApp(t, false, nil)
	app.Registry.Create("pending-session")

	req := httptest.NewRequest(http.MethodGet, "/v1/maps/pending-session/download", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestMapsGenerateFailureSurfacesMessage(t *testing.T) {
	app, handler := newTestApp(t, false, &stubEngine{stages: []string{"texture"}, fail: true})

	rec := postJSON(t, handler, "/v1/maps", validPayload())
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	var resp generateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		task, err := app.Registry.Get(resp.Session)
		if err != nil {
			t.Fatalf("Registry.Get returned error: %v", err)
		}
		snap := task.Snapshot()
		if snap.Status.Terminal() {
			if snap.Status != domain.JobStatusFailed || snap.Error == "" {
				t.Fatalf("final snapshot = %+v, want failed with message", snap)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("orchestration never finished")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestQueueStatus(t *testing.T) {
	app, handler := newTestApp(t, true, nil)
	if err := app.Queue.Enqueue("s1"); err != nil {
		t.Fatalf("Enqueue returned error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/queue", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Length    int  `json:"length"`
		Limit     int  `json:"limit"`
		Accepting bool `json:"accepting"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if resp.Length != 1 || resp.Limit != 2 || !resp.Accepting {
		t.Fatalf("queue status = %+v", resp)
	}
}

func TestDefaultsFallback(t *testing.T) {
	_, handler := newTestApp(t, true, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/defaults", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Lat         float64  `json:"lat"`
		Lon         float64  `json:"lon"`
		Located     bool     `json:"located"`
		SizeOptions []string `json:"size_options"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if resp.Lat != handlers.DefaultLat || resp.Lon != handlers.DefaultLon || resp.Located {
		t.Fatalf("defaults = %+v", resp)
	}
	// Public deployments hide the largest size.
	if len(resp.SizeOptions) != 3 {
		t.Fatalf("size options = %v, want 3 entries", resp.SizeOptions)
	}
}

func TestSettingsSchema(t *testing.T) {
	_, handler := newTestApp(t, false, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/settings/schema", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Categories []struct {
			Name  string `json:"name"`
			Label string `json:"label"`
		} `json:"categories"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if len(resp.Categories) != 6 {
		t.Fatalf("categories = %d, want 6", len(resp.Categories))
	}
}
