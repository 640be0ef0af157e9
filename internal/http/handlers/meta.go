package handlers

import (
	"net/http"

	"mapforge/internal/middleware"
	"mapforge/internal/settings"
)

// Default map center used when the client's location cannot be resolved.
const (
	DefaultLat = 45.28571409289627
	DefaultLon = 20.237433441210115
)

var sizeOptions = []string{"2048x2048", "4096x4096", "8192x8192", "16384x16384"}

// QueueStatus reports the queue length and the admission ceiling.
func (a *App) QueueStatus(w http.ResponseWriter, r *http.Request) {
	length := a.Queue.Len()
	a.json(w, http.StatusOK, map[string]any{
		"length":    length,
		"limit":     a.Cfg.QueueLimit,
		"accepting": !a.Cfg.PublicMode || length < a.Cfg.QueueLimit,
	})
}

// Defaults suggests a map center and the supported size options. The center
// follows the client's IP when a GeoIP database is configured.
func (a *App) Defaults(w http.ResponseWriter, r *http.Request) {
	lat, lon := DefaultLat, DefaultLon
	located := false
	if a.GeoIP != nil {
		if ip := middleware.ClientIP(r); ip != "" {
			if glat, glon, err := a.GeoIP.Location(ip); err == nil {
				lat, lon = glat, glon
				located = true
			}
		}
	}

	sizes := sizeOptions
	if a.Cfg.PublicMode {
		sizes = sizeOptions[:3]
	}
	a.json(w, http.StatusOK, map[string]any{
		"lat":          lat,
		"lon":          lon,
		"located":      located,
		"size_options": sizes,
		"games":        []string{"FS25", "FS22"},
		"public":       a.Cfg.PublicMode,
	})
}

// SettingsSchema describes the settings form for clients.
func (a *App) SettingsSchema(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, settings.BuildSchema())
}
