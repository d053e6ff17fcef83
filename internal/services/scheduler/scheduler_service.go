package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vitrine/internal/interfaces"
)

// MinInterval is the shortest allowed gap between two scheduled runs.
// The suite talks to a public storefront and must not hammer it.
const MinInterval = 5 * time.Minute

// ValidateSchedule parses a standard 5-field cron expression or descriptor
// (e.g. "@every 15m", "@hourly") and enforces MinInterval
func ValidateSchedule(expr string) error {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}

	// Check several consecutive gaps; irregular steps like "*/7" vary at the hour boundary
	ref := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	prev := schedule.Next(ref)
	for i := 0; i < 24; i++ {
		next := schedule.Next(prev)
		if next.IsZero() {
			break
		}
		if gap := next.Sub(prev); gap < MinInterval {
			return fmt.Errorf("schedule interval must be at least %s, got %s", MinInterval, gap)
		}
		prev = next
	}

	return nil
}

// Service implements SchedulerService on top of robfig/cron
type Service struct {
	cron   *cron.Cron
	logger arbor.ILogger

	mu        sync.Mutex
	running   bool
	schedule  string
	entryID   cron.EntryID
	runCount  int
	lastRun   *time.Time
	lastError string
}

// NewService creates a new scheduler service. Overlapping runs are skipped and
// panics inside a job are recovered.
func NewService(logger arbor.ILogger) *Service {
	cronLog := &cronLogger{logger: logger}
	return &Service{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLog),
			cron.SkipIfStillRunning(cronLog),
		)),
		logger: logger,
	}
}

var _ interfaces.SchedulerService = (*Service)(nil)

// Start registers job under cronExpr and starts the scheduler
func (s *Service) Start(cronExpr string, job func() error) error {
	if err := ValidateSchedule(cronExpr); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	id, err := s.cron.AddFunc(cronExpr, func() { s.execute(job) })
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.entryID = id
	s.schedule = cronExpr
	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("cron_expr", cronExpr).
		Str("next_run", s.cron.Entry(id).Next.Format(time.RFC3339)).
		Msg("Scheduler started")

	return nil
}

// execute runs one scheduled job and records its outcome
func (s *Service) execute(job func() error) {
	startTime := time.Now()
	err := job()

	s.mu.Lock()
	s.runCount++
	s.lastRun = &startTime
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
	s.mu.Unlock()

	status := s.Status()
	nextRun := ""
	if status.NextRun != nil {
		nextRun = status.NextRun.Format(time.RFC3339)
	}

	if err != nil {
		s.logger.Warn().
			Err(err).
			Int("run", status.RunCount).
			Dur("duration", time.Since(startTime)).
			Str("next_run", nextRun).
			Msg("Scheduled run failed")
		return
	}

	s.logger.Info().
		Int("run", status.RunCount).
		Dur("duration", time.Since(startTime)).
		Str("next_run", nextRun).
		Msg("Scheduled run completed")
}

// Stop halts the scheduler and waits for a running job to finish
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// IsRunning returns true if scheduler is active
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Status returns a snapshot of the schedule
func (s *Service) Status() interfaces.ScheduleStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := interfaces.ScheduleStatus{
		Schedule:  s.schedule,
		Running:   s.running,
		RunCount:  s.runCount,
		LastRun:   s.lastRun,
		LastError: s.lastError,
	}
	if s.running {
		if next := s.cron.Entry(s.entryID).Next; !next.IsZero() {
			status.NextRun = &next
		}
	}
	return status
}

// cronLogger adapts arbor to cron.Logger
type cronLogger struct {
	logger arbor.ILogger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Str("cron", fmt.Sprint(keysAndValues...)).Msg(msg)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Str("cron", fmt.Sprint(keysAndValues...)).Msg(msg)
}
