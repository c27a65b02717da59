package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erp/accounting/internal/infrastructure/config"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobStatus represents the outcome of a job run
type JobStatus string

const (
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// historySize bounds the runs kept per scheduler
const historySize = 50

// JobFunc is the work of a scheduled job
type JobFunc func(ctx context.Context) error

// Run records one execution of a job
type Run struct {
	Job         string     `json:"job"`
	Status      JobStatus  `json:"status"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type job struct {
	name    string
	spec    string
	fn      JobFunc
	entryID cron.EntryID
	running bool
}

// Scheduler runs named jobs on cron schedules in a fixed time zone.
// A job never overlaps with itself: a tick that finds it still running is skipped.
type Scheduler struct {
	cron       *cron.Cron
	loc        *time.Location
	jobTimeout time.Duration
	logger     *zap.Logger

	mu      sync.Mutex
	jobs    map[string]*job
	history []Run
	running bool
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a Scheduler from configuration
func New(cfg config.SchedulerConfig, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	tz := cfg.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: time zone %q: %v", ErrInvalidConfig, tz, err)
	}
	timeout := cfg.JobTimeout
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		loc:        loc,
		jobTimeout: timeout,
		logger:     logger,
		jobs:       make(map[string]*job),
		history:    make([]Run, 0, historySize),
	}, nil
}

// Register adds a job under a standard five-field cron expression
func (s *Scheduler) Register(name, spec string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("%w: job %q registered twice", ErrInvalidConfig, name)
	}
	j := &job{name: name, spec: spec, fn: fn}
	id, err := s.cron.AddFunc(spec, func() { s.tick(j) })
	if err != nil {
		return fmt.Errorf("%w: schedule %q for job %q: %v", ErrInvalidConfig, spec, name, err)
	}
	j.entryID = id
	s.jobs[name] = j
	return nil
}

// Start begins firing jobs. It is a no-op when already started.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.baseCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.running = true
	s.cron.Start()
	for _, j := range s.jobs {
		s.logger.Info("Scheduled job",
			zap.String("job", j.name),
			zap.String("schedule", j.spec),
			zap.String("time_zone", s.loc.String()),
			zap.Time("next_run", s.cron.Entry(j.entryID).Next))
	}
}

// Stop stops firing new runs, cancels running ones and waits for them up to ctx's deadline
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Trigger runs a job immediately in the background
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	running := s.running
	s.mu.Unlock()
	if !ok {
		return ErrJobNotFound
	}
	if !running {
		return ErrSchedulerNotRunning
	}
	if !s.claim(j) {
		return ErrJobAlreadyRunning
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(j)
	}()
	return nil
}

// History returns the most recent runs, newest first
func (s *Scheduler) History(limit int) []Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	out := make([]Run, 0, limit)
	for i := len(s.history) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.history[i])
	}
	return out
}

// NextRun reports when a job fires next
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	next := s.cron.Entry(j.entryID).Next
	if next.IsZero() {
		sched, err := cron.ParseStandard(j.spec)
		if err != nil {
			return time.Time{}, false
		}
		next = sched.Next(time.Now().In(s.loc))
	}
	return next, true
}

func (s *Scheduler) tick(j *job) {
	if !s.claim(j) {
		s.logger.Warn("Skipping job tick, previous run still in progress", zap.String("job", j.name))
		return
	}
	s.wg.Add(1)
	defer s.wg.Done()
	s.execute(j)
}

func (s *Scheduler) claim(j *job) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j.running {
		return false
	}
	j.running = true
	return true
}

func (s *Scheduler) execute(j *job) {
	s.mu.Lock()
	base := s.baseCtx
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(base, s.jobTimeout)
	defer cancel()

	run := Run{Job: j.name, Status: JobStatusRunning, StartedAt: time.Now()}
	s.logger.Info("Job started", zap.String("job", j.name))

	err := s.safeCall(ctx, j)

	completed := time.Now()
	run.CompletedAt = &completed
	run.Status = JobStatusSuccess
	if err != nil {
		run.Status = JobStatusFailed
		run.Error = err.Error()
		s.logger.Error("Job failed",
			zap.String("job", j.name),
			zap.Duration("duration", completed.Sub(run.StartedAt)),
			zap.Error(err))
	} else {
		s.logger.Info("Job completed",
			zap.String("job", j.name),
			zap.Duration("duration", completed.Sub(run.StartedAt)))
	}

	s.mu.Lock()
	j.running = false
	if len(s.history) == historySize {
		s.history = append(s.history[:0], s.history[1:]...)
	}
	s.history = append(s.history, run)
	s.mu.Unlock()
}

func (s *Scheduler) safeCall(ctx context.Context, j *job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", j.name, r)
		}
	}()
	return j.fn(ctx)
}
