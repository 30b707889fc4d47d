package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joseph-k-iype/multi-agent/internal/engine"
	"github.com/Joseph-k-iype/multi-agent/pkg/schema"
)

type stubSubmitter struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (s *stubSubmitter) Run(_ context.Context, task string) (*engine.RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, task)
	if s.err != nil {
		return nil, s.err
	}
	return &engine.RunResult{}, nil
}

func (s *stubSubmitter) tasks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func TestAddJob_ValidatesCronExpression(t *testing.T) {
	s := NewScheduler(&stubSubmitter{}, nil)

	job, err := s.AddJob("*/5 * * * *", "nightly digest")
	require.NoError(t, err)
	assert.True(t, job.Enabled)
	assert.NotEmpty(t, job.ID)
	require.NotNil(t, job.NextRunAt)
	assert.True(t, job.NextRunAt.After(time.Now().UTC().Add(-time.Minute)))

	_, err = s.AddJob("not a cron", "task")
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeInvalidFormat, schema.ErrorCode(err))
}

func TestJobLifecycle(t *testing.T) {
	s := NewScheduler(&stubSubmitter{}, nil)

	a, err := s.AddJob("0 * * * *", "a")
	require.NoError(t, err)
	b, err := s.AddJob("0 * * * *", "b")
	require.NoError(t, err)

	jobs := s.ListJobs()
	require.Len(t, jobs, 2)

	got, err := s.GetJob(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Task)

	disabled, err := s.SetEnabled(b.ID, false)
	require.NoError(t, err)
	assert.False(t, disabled.Enabled)

	require.NoError(t, s.RemoveJob(a.ID))
	_, err = s.GetJob(a.ID)
	assert.True(t, schema.IsNotFound(err))
	assert.True(t, schema.IsNotFound(s.RemoveJob(a.ID)))
}

func TestTick_RunsDueJobsOnly(t *testing.T) {
	stub := &stubSubmitter{}
	s := NewScheduler(stub, nil)

	due, err := s.AddJob("* * * * *", "due task")
	require.NoError(t, err)
	notDue, err := s.AddJob("* * * * *", "future task")
	require.NoError(t, err)

	past := time.Now().UTC().Add(-time.Minute)
	future := time.Now().UTC().Add(time.Hour)
	s.jobs[due.ID].NextRunAt = &past
	s.jobs[notDue.ID].NextRunAt = &future

	s.Tick(context.Background())

	assert.Equal(t, []string{"due task"}, stub.tasks())

	after, err := s.GetJob(due.ID)
	require.NoError(t, err)
	assert.Equal(t, "success", after.LastRunStatus)
	require.NotNil(t, after.LastRunAt)
	require.NotNil(t, after.NextRunAt)
	assert.True(t, after.NextRunAt.After(past), "next due time advances")
}

func TestTick_SkipsDisabledJobs(t *testing.T) {
	stub := &stubSubmitter{}
	s := NewScheduler(stub, nil)

	job, err := s.AddJob("* * * * *", "task")
	require.NoError(t, err)
	past := time.Now().UTC().Add(-time.Minute)
	s.jobs[job.ID].NextRunAt = &past

	_, err = s.SetEnabled(job.ID, false)
	require.NoError(t, err)

	s.Tick(context.Background())
	assert.Empty(t, stub.tasks())
}

func TestTick_ConflictMarksSkipped(t *testing.T) {
	stub := &stubSubmitter{err: schema.NewError(schema.ErrCodeConflict, "a workflow run is already in progress")}
	s := NewScheduler(stub, nil)

	job, err := s.AddJob("* * * * *", "task")
	require.NoError(t, err)
	past := time.Now().UTC().Add(-time.Minute)
	s.jobs[job.ID].NextRunAt = &past

	s.Tick(context.Background())

	after, err := s.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, "skipped", after.LastRunStatus)
}

func TestTick_RunnerErrorMarksError(t *testing.T) {
	stub := &stubSubmitter{err: schema.NewError(schema.ErrCodeExecution, "backend down")}
	s := NewScheduler(stub, nil)

	job, err := s.AddJob("* * * * *", "task")
	require.NoError(t, err)
	past := time.Now().UTC().Add(-time.Minute)
	s.jobs[job.ID].NextRunAt = &past

	s.Tick(context.Background())

	after, err := s.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, "error", after.LastRunStatus)
}

func TestStartStop(t *testing.T) {
	stub := &stubSubmitter{}
	s := NewScheduler(stub, nil, WithTickInterval(10*time.Millisecond))

	require.NoError(t, s.Start(context.Background()))
	assert.Error(t, s.Start(context.Background()), "double start rejected")

	job, err := s.AddJob("* * * * *", "task")
	require.NoError(t, err)
	past := time.Now().UTC().Add(-time.Minute)
	s.mu.Lock()
	s.jobs[job.ID].NextRunAt = &past
	s.mu.Unlock()

	require.Eventually(t, func() bool {
		return len(stub.tasks()) >= 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop(), "stop is idempotent")
}

func TestListJobs_ReturnsCopies(t *testing.T) {
	s := NewScheduler(&stubSubmitter{}, nil)
	job, err := s.AddJob("0 * * * *", "task")
	require.NoError(t, err)

	s.ListJobs()[0].Task = "mutated"
	got, err := s.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, "task", got.Task)
}
