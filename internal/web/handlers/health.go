package handlers

import (
	"net/http"

	"github.com/jkatariy/infinity-leadsync/internal/health"
)

// HealthHandler returns the aggregate health snapshot. Always 200: the
// classification travels in the body and is advisory only.
func HealthHandler(reporter *health.Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := reporter.Snapshot()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}
