package interfaces

import "time"

// ScheduleStatus represents the current state of the monitoring schedule
type ScheduleStatus struct {
	Schedule  string
	Running   bool
	RunCount  int
	LastRun   *time.Time
	NextRun   *time.Time
	LastError string
}

// SchedulerService runs a job on a cron schedule
type SchedulerService interface {
	// Start registers job under cronExpr and starts the scheduler
	Start(cronExpr string, job func() error) error

	// Stop stops the scheduler and waits for a running job to finish
	Stop() error

	// IsRunning returns true if scheduler is active
	IsRunning() bool

	// Status returns a snapshot of the schedule
	Status() ScheduleStatus
}
