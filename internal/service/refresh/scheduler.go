// Package refresh re-runs named operation templates on cron schedules, so
// non-production environments stay current without manual re-cloning.
package refresh

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"snowclone/internal/config"
	"snowclone/internal/domain"
)

// BulkRunner executes one declarative clone set. Implemented by the clone
// engine.
type BulkRunner interface {
	BulkClone(ctx context.Context, set domain.CloneSet) *domain.BulkRunReport
}

// Entry is the observable state of one schedule, surfaced on the dashboard.
type Entry struct {
	Name     string     `json:"name"`
	Template string     `json:"template"`
	Cron     string     `json:"cron"`
	NextRun  time.Time  `json:"next_run"`
	LastRun  *time.Time `json:"last_run,omitempty"`
}

// Scheduler manages cron-based template refreshes.
type Scheduler struct {
	cron    *cron.Cron
	runner  BulkRunner
	history domain.RunHistory
	logger  *slog.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID // schedule name → cron entry
	lastRun map[string]time.Time
	specs   []config.RefreshSchedule
}

// NewScheduler creates a refresh scheduler. history may be nil when run
// records are not persisted.
func NewScheduler(runner BulkRunner, history domain.RunHistory, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:    cron.New(),
		runner:  runner,
		history: history,
		logger:  logger,
		entries: make(map[string]cron.EntryID),
		lastRun: make(map[string]time.Time),
	}
}

// Start registers the configured schedules and starts the cron loop. A
// schedule with an invalid cron expression is skipped with a warning; it
// never fails startup.
func (s *Scheduler) Start(schedules []config.RefreshSchedule, templates map[string]config.OperationSet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sched := range schedules {
		template, ok := templates[sched.Template]
		if !ok {
			s.logger.Warn("refresh schedule references unknown template",
				"schedule", sched.Name, "template", sched.Template)
			continue
		}

		name := sched.Name
		set := template.CloneSet()
		entryID, err := s.cron.AddFunc(sched.Cron, func() {
			s.runOnce(name, set)
		})
		if err != nil {
			s.logger.Warn("invalid cron expression",
				"schedule", name, "cron", sched.Cron, "error", err)
			continue
		}

		s.entries[name] = entryID
		s.specs = append(s.specs, sched)
		s.logger.Info("refresh scheduled", "schedule", name, "cron", sched.Cron)
	}

	s.cron.Start()
	s.logger.Info("refresh scheduler started", "schedules", len(s.entries))
}

// Stop stops the cron loop and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("refresh scheduler stopped")
}

// runOnce drives one scheduled refresh through the bulk runner and records
// the report. Failures inside the run are already captured in the report;
// only the recording step can fail here.
func (s *Scheduler) runOnce(name string, set domain.CloneSet) {
	ctx := context.Background()
	s.logger.Info("scheduled refresh started", "schedule", name)

	report := s.runner.BulkClone(ctx, set)

	s.mu.Lock()
	s.lastRun[name] = report.EndTime
	s.mu.Unlock()

	if s.history != nil {
		if err := s.history.RecordRun(ctx, domain.NewBulkRunRecord(report)); err != nil {
			s.logger.Warn("could not record scheduled run",
				"schedule", name, "operation_id", report.OperationID, "error", err)
		}
	}

	s.logger.Info("scheduled refresh finished",
		"schedule", name,
		"operation_id", report.OperationID,
		"successful", report.Summary.Successful,
		"failed", report.Summary.Failed)
}

// Entries reports the registered schedules with their next and last run
// times.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.specs))
	for _, spec := range s.specs {
		e := Entry{Name: spec.Name, Template: spec.Template, Cron: spec.Cron}
		if id, ok := s.entries[spec.Name]; ok {
			e.NextRun = s.cron.Entry(id).Next
		}
		if last, ok := s.lastRun[spec.Name]; ok {
			t := last
			e.LastRun = &t
		}
		out = append(out, e)
	}
	return out
}
