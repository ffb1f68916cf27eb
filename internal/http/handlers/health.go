package handlers

import "net/http"

// HandleHealthz processes GET /healthz: a liveness probe that never
// touches dependencies.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleReadyz processes GET /readyz: a readiness probe confirming the
// database connection is usable.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	if h.Pool == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	var ok int
	if err := h.Pool.QueryRow(r.Context(), "SELECT 1").Scan(&ok); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
