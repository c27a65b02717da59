package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when triggering a job on a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobNotFound is returned for an unregistered job name
	ErrJobNotFound = errors.New("job not found")

	// ErrJobAlreadyRunning is returned when a run of the same job is still in progress
	ErrJobAlreadyRunning = errors.New("job already running")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
