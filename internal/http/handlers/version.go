package handlers

import "net/http"

// Version is injected at build time via -ldflags.
var Version = "dev"

func (a *App) Version(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"version": Version})
}
