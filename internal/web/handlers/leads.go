package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/jkatariy/infinity-leadsync/internal/db/models"
	"github.com/jkatariy/infinity-leadsync/internal/leads"
	"gorm.io/gorm"
)

// SubmitLeadHandler accepts a lead submission and queues it for CRM sync.
// Queuing always succeeds or fails locally; the CRM is never involved here.
func SubmitLeadHandler(intake *leads.Intake) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req leads.SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
			return
		}

		id, err := intake.Submit(r.Context(), req)
		if err != nil {
			var valErr *leads.ValidationError
			if errors.As(err, &valErr) {
				writeError(w, http.StatusBadRequest, "validation_failed", valErr.Error())
				return
			}
			var capErr *leads.CaptchaError
			if errors.As(err, &capErr) {
				writeError(w, http.StatusForbidden, "captcha_failed", capErr.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "storage_error", "could not save the lead, please retry")
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{
			"id":     id,
			"status": models.StatusPending,
		})
	}
}

// ListLeadsHandler returns leads for operators, newest first, optionally
// filtered by ?status=. Leads are never deleted, so this is the audit view.
func ListLeadsHandler(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := db.Order("created_at DESC").Limit(listLimit(r))
		if status := r.URL.Query().Get("status"); status != "" {
			query = query.Where("status = ?", status)
		}

		var rows []models.Lead
		if err := query.Find(&rows).Error; err != nil {
			writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"count": len(rows),
			"leads": rows,
		})
	}
}

func listLimit(r *http.Request) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			return n
		}
	}
	return 100
}
