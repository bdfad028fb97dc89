// Package scheduler runs the periodic dispatch pass.
package scheduler

import (
	"context"
	"log"

	"github.com/jkatariy/infinity-leadsync/internal/health"
	"github.com/jkatariy/infinity-leadsync/internal/leads"
	"github.com/robfig/cron/v3"
)

// Scheduler triggers lead dispatch on a cron cadence, guarded by a health
// pre-flight so a known-broken pipeline is not hammered on schedule.
type Scheduler struct {
	cron       *cron.Cron
	dispatcher *leads.Dispatcher
	reporter   *health.Reporter
	limit      int
}

// New builds a scheduler from a cron spec like "0 3 * * *".
func New(dispatcher *leads.Dispatcher, reporter *health.Reporter, spec string, limit int) (*Scheduler, error) {
	s := &Scheduler{
		cron:       cron.New(),
		dispatcher: dispatcher,
		reporter:   reporter,
		limit:      limit,
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins scheduled dispatch.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("⏰ Dispatch scheduler started")
}

// Stop halts scheduled dispatch; a run already in progress completes.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) run() {
	snap, err := s.reporter.Snapshot()
	if err != nil {
		log.Printf("⚠️ Scheduled dispatch skipped, health check failed: %v", err)
		return
	}
	if snap.Status == health.StatusCritical {
		log.Printf("🚫 Scheduled dispatch skipped, system health is critical (missing: %v)", snap.Environment.Missing)
		return
	}

	result, err := s.dispatcher.ProcessPending(context.Background(), s.limit)
	if err != nil {
		log.Printf("❌ Scheduled dispatch failed: %v", err)
		return
	}
	if result.AuthRequired {
		log.Printf("🚫 Scheduled dispatch: %s", result.Message)
		return
	}
	log.Printf("⏰ Scheduled dispatch done: %d processed, %d sent, %d failed", result.Processed, result.Successful, result.Failed)
}
