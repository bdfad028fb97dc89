package handlers

import (
	"net/http"
	"strconv"

	"github.com/jkatariy/infinity-leadsync/internal/leads"
)

// DispatchHandler triggers a manual dispatch pass. The response always
// carries the aggregate result; an unauthenticated pipeline is reported in
// the body rather than as an HTTP failure, since the caller may be a
// scheduler with nobody watching the status code.
func DispatchHandler(dispatcher *leads.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
				return
			}
			limit = n
		}

		result, err := dispatcher.ProcessPending(r.Context(), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "dispatch_failed", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
