// Package scheduler runs the current workflow on cron schedules. Jobs are
// session-scoped; their outcomes land in the controller's run history like
// any manual run.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/Joseph-k-iype/multi-agent/internal/engine"
	"github.com/Joseph-k-iype/multi-agent/pkg/schema"
)

// RunSubmitter submits a workflow run. Satisfied by engine.Controller.
type RunSubmitter interface {
	Run(ctx context.Context, task string) (*engine.RunResult, error)
}

// Job is a cron-scheduled run of the current workflow.
type Job struct {
	ID            string     `json:"id"`
	CronExpr      string     `json:"cronExpr"`
	Task          string     `json:"task"`
	Enabled       bool       `json:"enabled"`
	LastRunAt     *time.Time `json:"lastRunAt,omitempty"`
	NextRunAt     *time.Time `json:"nextRunAt,omitempty"`
	LastRunStatus string     `json:"lastRunStatus,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Scheduler ticks on an interval and submits due jobs.
type Scheduler struct {
	submitter RunSubmitter
	parser    cron.Parser
	interval  time.Duration
	logger    *slog.Logger

	mu     sync.Mutex
	jobs   map[string]*Job
	cancel context.CancelFunc
	done   chan struct{}

	inflightMu sync.Mutex
	inflight   map[string]struct{}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTickInterval overrides the default 60s tick interval.
func WithTickInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.interval = d }
}

// NewScheduler creates a stopped scheduler bound to a run submitter.
func NewScheduler(submitter RunSubmitter, logger *slog.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		submitter: submitter,
		parser:    cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		interval:  60 * time.Second,
		logger:    logger,
		jobs:      make(map[string]*Job),
		inflight:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddJob registers a new job. The cron expression is validated up front and
// the first due time computed from now.
func (s *Scheduler) AddJob(cronExpr, task string) (*Job, error) {
	next, err := s.CalculateNextRun(cronExpr, time.Now().UTC())
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeInvalidFormat, "invalid cron expression %q", cronExpr).WithCause(err)
	}
	job := &Job{
		ID:        uuid.NewString(),
		CronExpr:  cronExpr,
		Task:      task,
		Enabled:   true,
		NextRunAt: &next,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	s.logger.Info("scheduled job added",
		slog.String("job_id", job.ID),
		slog.String("cron", cronExpr),
	)
	return cloneJob(job), nil
}

// GetJob returns a job by ID.
func (s *Scheduler) GetJob(id string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, jobNotFound(id)
	}
	return cloneJob(job), nil
}

// ListJobs returns all jobs ordered by creation time.
func (s *Scheduler) ListJobs() []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, cloneJob(job))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// SetEnabled toggles a job. Re-enabling recomputes the next due time so a
// long-disabled job does not fire immediately.
func (s *Scheduler) SetEnabled(id string, enabled bool) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, jobNotFound(id)
	}
	if enabled && !job.Enabled {
		next, err := s.CalculateNextRun(job.CronExpr, time.Now().UTC())
		if err == nil {
			job.NextRunAt = &next
		}
	}
	job.Enabled = enabled
	return cloneJob(job), nil
}

// RemoveJob deletes a job.
func (s *Scheduler) RemoveJob(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return jobNotFound(id)
	}
	delete(s.jobs, id)
	return nil
}

// Start launches the background tick loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already started")
	}
	tickCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.loop(tickCtx)
	s.logger.Info("scheduler started", slog.Duration("interval", s.interval))
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick submits every enabled job whose due time has passed. Exported so
// callers can force an immediate pass.
func (s *Scheduler) Tick(ctx context.Context) {
	now := time.Now().UTC()

	s.mu.Lock()
	var due []*Job
	for _, job := range s.jobs {
		if job.Enabled && job.NextRunAt != nil && !job.NextRunAt.After(now) {
			due = append(due, job)
		}
	}
	s.mu.Unlock()

	for _, job := range due {
		if !s.tryAcquire(job.ID) {
			continue
		}
		s.runJob(ctx, job.ID, now)
		s.release(job.ID)
	}
}

// runJob submits one job and records its outcome and next due time.
func (s *Scheduler) runJob(ctx context.Context, jobID string, now time.Time) {
	s.mu.Lock()
	job, ok := s.jobs[jobID]
	if !ok {
		s.mu.Unlock()
		return
	}
	task := job.Task
	cronExpr := job.CronExpr
	s.mu.Unlock()

	s.logger.Info("running scheduled job", slog.String("job_id", jobID))

	_, err := s.submitter.Run(ctx, task)
	status := "success"
	if err != nil {
		status = "error"
		if schema.ErrorCode(err) == schema.ErrCodeConflict {
			// A manual run is in flight; try again at the next due time.
			status = "skipped"
		}
		s.logger.Warn("scheduled job did not succeed",
			slog.String("job_id", jobID),
			slog.String("status", status),
			slog.String("error", err.Error()),
		)
	}

	next, nextErr := s.CalculateNextRun(cronExpr, now)

	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok = s.jobs[jobID]
	if !ok {
		return // removed while running
	}
	ranAt := now
	job.LastRunAt = &ranAt
	job.LastRunStatus = status
	if nextErr == nil {
		job.NextRunAt = &next
	}
}

func (s *Scheduler) tryAcquire(jobID string) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if _, ok := s.inflight[jobID]; ok {
		return false
	}
	s.inflight[jobID] = struct{}{}
	return true
}

func (s *Scheduler) release(jobID string) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	delete(s.inflight, jobID)
}

// CalculateNextRun computes the next fire time for a cron expression.
func (s *Scheduler) CalculateNextRun(cronExpr string, from time.Time) (time.Time, error) {
	schedule, err := s.parser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", cronExpr, err)
	}
	return schedule.Next(from), nil
}

// Stop shuts down the tick loop and waits for it to exit.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done

	s.logger.Info("scheduler stopped")
	return nil
}

func jobNotFound(id string) *schema.WorkflowError {
	return schema.NewErrorf(schema.ErrCodeNotFound, "scheduled job %q not found", id)
}

func cloneJob(job *Job) *Job {
	cp := *job
	if job.LastRunAt != nil {
		t := *job.LastRunAt
		cp.LastRunAt = &t
	}
	if job.NextRunAt != nil {
		t := *job.NextRunAt
		cp.NextRunAt = &t
	}
	return &cp
}
