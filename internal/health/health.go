// Package health aggregates token, queue and configuration state into one
// advisory snapshot. The dispatcher does its own pre-flight checks; this
// classification only informs operators and the scheduler's guard.
package health

import (
	"github.com/jkatariy/infinity-leadsync/internal/auth/token"
	"github.com/jkatariy/infinity-leadsync/internal/config"
	"github.com/jkatariy/infinity-leadsync/internal/db"
	"github.com/jkatariy/infinity-leadsync/internal/db/models"
	"github.com/jkatariy/infinity-leadsync/internal/version"
	"gorm.io/gorm"
)

// Overall status classifications.
const (
	StatusHealthy  = "healthy"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

const (
	// pendingBacklogWarn is the queue depth that flags a backlog warning.
	pendingBacklogWarn = 25
	// minAttemptsForRate is the minimum sent+failed before the success rate
	// is meaningful enough to warn on.
	minAttemptsForRate = 10
)

// EnvironmentCheck reports required configuration presence.
type EnvironmentCheck struct {
	Complete bool     `json:"complete"`
	Missing  []string `json:"missing,omitempty"`
}

// Snapshot is the aggregate health view.
type Snapshot struct {
	Status      string           `json:"status"`
	Token       token.Status     `json:"token_status"`
	Leads       models.LeadStats `json:"lead_processing_stats"`
	Environment EnvironmentCheck `json:"environment_check"`
	Version     string           `json:"version"`
}

// Reporter builds health snapshots.
type Reporter struct {
	db    *gorm.DB
	store *token.Store
	cfg   *config.Config
}

// NewReporter creates a health reporter.
func NewReporter(gdb *gorm.DB, store *token.Store, cfg *config.Config) *Reporter {
	return &Reporter{db: gdb, store: store, cfg: cfg}
}

// Snapshot gathers token status, lead counts and the environment check, and
// classifies the overall state.
func (r *Reporter) Snapshot() (Snapshot, error) {
	tokenStatus, err := r.store.GetStatus()
	if err != nil {
		return Snapshot{}, err
	}

	stats, err := r.leadStats()
	if err != nil {
		return Snapshot{}, err
	}

	missing := r.cfg.MissingKeys()
	snap := Snapshot{
		Token: tokenStatus,
		Leads: stats,
		Environment: EnvironmentCheck{
			Complete: len(missing) == 0,
			Missing:  missing,
		},
		Version: version.Version,
	}
	snap.Status = classify(snap)
	return snap, nil
}

func (r *Reporter) leadStats() (models.LeadStats, error) {
	var stats models.LeadStats
	counts := []struct {
		status string
		dst    *int64
	}{
		{models.StatusPending, &stats.Pending},
		{models.StatusSent, &stats.Sent},
		{models.StatusFailed, &stats.Failed},
	}
	for _, c := range counts {
		if err := r.db.Model(&models.Lead{}).Where("status = ?", c.status).Count(c.dst).Error; err != nil {
			return stats, &db.StorageError{Op: "count leads", Err: err}
		}
	}
	return stats, nil
}

func classify(snap Snapshot) string {
	if !snap.Environment.Complete {
		return StatusCritical
	}
	if !snap.Token.HasAccessToken && !snap.Token.HasRefreshToken {
		return StatusCritical
	}
	if snap.Token.IsExpired && !snap.Token.HasRefreshToken {
		return StatusCritical
	}

	if snap.Token.IsExpired {
		return StatusWarning // refreshable, next dispatch will recover
	}
	if snap.Leads.Pending > pendingBacklogWarn {
		return StatusWarning
	}
	attempts := snap.Leads.Sent + snap.Leads.Failed
	if attempts >= minAttemptsForRate && snap.Leads.Failed*10 > attempts {
		return StatusWarning // more than 10% of attempts failing
	}
	return StatusHealthy
}
