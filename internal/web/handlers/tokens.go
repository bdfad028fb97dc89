package handlers

import (
	"log"
	"net/http"

	"github.com/jkatariy/infinity-leadsync/internal/auth/token"
)

// TokenStatusHandler returns the diagnostic token projection.
func TokenStatusHandler(store *token.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := store.GetStatus()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// ClearTokensHandler deletes the stored token record so the operator can
// re-run the OAuth flow from scratch. Safe to call repeatedly.
func ClearTokensHandler(store *token.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Clear(); err != nil {
			writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
			return
		}
		log.Printf("🧹 Stored Zoho tokens cleared by operator")
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"message": "stored tokens cleared, re-authentication required",
		})
	}
}
