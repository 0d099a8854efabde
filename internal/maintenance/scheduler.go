// Package maintenance implements the background cron sweeps: a forced
// prompt-registry refresh, sticky-session occupancy logging, and a
// state-store health ping, run by a timer loop that waits for each next
// scheduled time (no sweep at start), with the schedule itself parsed by
// the robfig/cron expression parser.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/specialist-gateway/gateway/internal/database"
	"github.com/specialist-gateway/gateway/internal/promptregistry"
	"github.com/specialist-gateway/gateway/internal/stickysession"
)

var cronParser = cronlib.NewParser(cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow)

// Scheduler runs the maintenance sweeps on a cron schedule. db may be nil
// when the state subsystem is disabled — the health-ping sweep is then
// skipped rather than erroring every tick.
type Scheduler struct {
	schedule cronlib.Schedule
	prompts  *promptregistry.Registry
	sessions *stickysession.Store
	db       *database.Client

	cancel context.CancelFunc
	done   chan struct{}
}

// New parses the configured cron expression and builds a Scheduler. An
// invalid expression is a startup-time configuration error, returned to the
// caller rather than silently disabling maintenance.
func New(expr string, prompts *promptregistry.Registry, sessions *stickysession.Store, db *database.Client) (*Scheduler, error) {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, err
	}
	return &Scheduler{schedule: schedule, prompts: prompts, sessions: sessions, db: db}, nil
}

// Start launches the background sweep loop. It does not run a sweep
// immediately; the first sweep fires at the schedule's next computed time.
func (s *Scheduler) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx)
	slog.Info("maintenance scheduler started")
}

// Stop signals the sweep loop to exit and waits for it to finish.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("maintenance scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	for {
		next := s.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.runAll(ctx)
		}
	}
}

func (s *Scheduler) runAll(ctx context.Context) {
	s.refreshPrompts()
	s.logSessionOccupancy()
	s.pingStateStore(ctx)
}

func (s *Scheduler) refreshPrompts() {
	s.prompts.Reload()
	slog.Info("maintenance: prompt registry refreshed")
}

func (s *Scheduler) logSessionOccupancy() {
	slog.Info("maintenance: sticky session occupancy", "sessions", s.sessions.Len())
}

func (s *Scheduler) pingStateStore(ctx context.Context) {
	if s.db == nil {
		return
	}
	status, err := s.db.Health(ctx)
	if err != nil {
		slog.Warn("maintenance: state store health ping failed", "error", err)
		return
	}
	slog.Info("maintenance: state store health",
		"total_conns", status.TotalConns,
		"idle_conns", status.IdleConns,
		"acquired_conns", status.AcquiredConns)
}
