package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"mapforge/internal/storage"
)

// maxOSMUploadBytes caps custom OSM uploads.
const maxOSMUploadBytes = 50 << 20

// OSMUpload stores a custom OSM file and returns the token to reference it
// in a generation request.
func (a *App) OSMUpload(w http.ResponseWriter, r *http.Request) {
	if a.Uploads == nil {
		a.error(w, http.StatusNotFound, "not_found", "custom OSM uploads are not enabled")
		return
	}
	if err := r.ParseMultipartForm(maxOSMUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "file field is required")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".osm") {
		a.error(w, http.StatusBadRequest, "bad_request", "only .osm files are accepted")
		return
	}

	name := fmt.Sprintf("custom_osm_%s.osm", time.Now().Format("2006-01-02_15-04-05.000"))
	if _, err := a.Uploads.Save(r.Context(), name, file, maxOSMUploadBytes); err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "too_large", "uploaded file is too large")
			return
		}
		a.Logger.Error().Err(err).Msg("osm upload failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to store upload")
		return
	}

	a.json(w, http.StatusCreated, map[string]string{"custom_osm": name})
}
