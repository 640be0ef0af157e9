package handlers

import "net/http"

// StatsSummary aggregates the persisted generation history.
func (a *App) StatsSummary(w http.ResponseWriter, r *http.Request) {
	if a.History == nil {
		a.error(w, http.StatusNotFound, "not_found", "history is not enabled")
		return
	}
	stats, err := a.History.Summary(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("stats summary failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load stats")
		return
	}
	a.json(w, http.StatusOK, stats)
}
