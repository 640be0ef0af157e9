// Package mapgen provides the built-in map generation engine. It stands in
// for a full terrain pipeline: every stage materializes a manifest under the
// map directory so the orchestration, preview and packing paths behave like
// production, without the heavy DEM and satellite processing.
package mapgen

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"mapforge/internal/domain"
	"mapforge/internal/generator"
	"mapforge/internal/infra"
	"mapforge/pkg/zip"
)

var stagesByGame = map[domain.Game][]string{
	domain.GameFS22: {"texture", "dem", "i3d", "background"},
	domain.GameFS25: {"texture", "background", "dem", "grle", "i3d", "splines"},
}

// Engine implements generator.Engine on the local filesystem.
type Engine struct {
	logger infra.Logger
}

// NewEngine creates the built-in engine.
func NewEngine(logger infra.Logger) *Engine {
	return &Engine{logger: logger}
}

// StageCount returns the number of stages for the game variant.
func (e *Engine) StageCount(game domain.Game) int {
	return len(stagesByGame[game])
}

// Stages runs the pipeline for the job, emitting one event per completed
// stage. The sequence stops early with an error event if a stage fails or
// ctx is done.
func (e *Engine) Stages(ctx context.Context, job *generator.Job) <-chan generator.StageEvent {
	out := make(chan generator.StageEvent)
	go func() {
		defer close(out)
		for _, stage := range stagesByGame[job.Game] {
			if err := ctx.Err(); err != nil {
				out <- generator.StageEvent{Err: err}
				return
			}
			if err := e.runStage(job, stage); err != nil {
				out <- generator.StageEvent{Err: fmt.Errorf("stage %s: %w", stage, err)}
				return
			}
			e.logger.Debug().Str("session", job.Session).Str("stage", stage).Msg("stage completed")
			out <- generator.StageEvent{Name: stage}
		}
	}()
	return out
}

type stageManifest struct {
	Stage       string  `json:"stage"`
	Game        string  `json:"game"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Size        int     `json:"size"`
	Rotation    int     `json:"rotation"`
	CustomOSM   string  `json:"custom_osm,omitempty"`
	SettingsRaw any     `json:"settings"`
}

func (e *Engine) runStage(job *generator.Job, stage string) error {
	if err := os.MkdirAll(job.Directory, 0o755); err != nil {
		return err
	}
	manifest := stageManifest{
		Stage:       stage,
		Game:        string(job.Game),
		Lat:         job.Coordinates.Lat,
		Lon:         job.Coordinates.Lon,
		Size:        int(job.Size),
		Rotation:    job.Rotation,
		CustomOSM:   job.CustomOSM,
		SettingsRaw: stageSettings(job, stage),
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(job.Directory, stage+".json"), data, 0o644)
}

func stageSettings(job *generator.Job, stage string) any {
	switch stage {
	case "dem":
		return job.Settings.DEM
	case "background":
		return job.Settings.Background
	case "grle":
		return job.Settings.GRLE
	case "i3d":
		return job.Settings.I3D
	case "texture":
		return job.Settings.Texture
	case "splines":
		return job.Settings.Spline
	default:
		return nil
	}
}

// Previews writes and lists the preview files for a generated map: a PNG of
// the covered area and an STL of the background mesh when one was produced.
// A missing preview is skipped, never an error.
func (e *Engine) Previews(job *generator.Job) []string {
	previewDir := filepath.Join(job.Directory, "previews")
	if err := os.MkdirAll(previewDir, 0o755); err != nil {
		e.logger.Warn().Err(err).Str("session", job.Session).Msg("preview directory creation failed")
		return nil
	}

	var paths []string
	png := filepath.Join(previewDir, "overview.png")
	if err := os.WriteFile(png, pngStub, 0o644); err == nil {
		paths = append(paths, png)
	}
	if job.Settings.Background.GenerateBackground {
		stl := filepath.Join(previewDir, "background.stl")
		if err := os.WriteFile(stl, []byte("solid background\nendsolid background\n"), 0o644); err == nil {
			paths = append(paths, stl)
		}
	}
	return paths
}

// Pack zips the map directory into destinationPrefix + ".zip" and returns
// the archive path.
func (e *Engine) Pack(job *generator.Job, destinationPrefix string) (string, error) {
	archivePath := destinationPrefix + ".zip"
	if err := zip.ArchiveDirectory(job.Directory, archivePath); err != nil {
		return "", fmt.Errorf("pack map: %w", err)
	}
	return archivePath, nil
}

// Minimal valid 1x1 transparent PNG.
var pngStub = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x62, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}
