package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testJob struct {
	name     string
	schedule string
	runs     atomic.Int32
	block    chan struct{}
	started  chan struct{}
	err      error
}

func (j *testJob) Name() string     { return j.name }
func (j *testJob) Schedule() string { return j.schedule }

func (j *testJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.started != nil {
		j.started <- struct{}{}
	}
	if j.block != nil {
		select {
		case <-j.block:
		case <-ctx.Done():
		}
	}

	return j.err
}

func TestTaskExecutor_NoOverlap(t *testing.T) {
	job := &testJob{
		name:     "slow",
		schedule: "@every 1h",
		block:    make(chan struct{}),
		started:  make(chan struct{}, 1),
	}
	executor := NewTaskExecutor(job)

	done := make(chan bool)
	go func() {
		done <- executor.execute(context.Background(), job)
	}()
	<-job.started

	assert.False(t, executor.execute(context.Background(), job), "a running job is not started twice")

	close(job.block)
	assert.True(t, <-done)
	assert.EqualValues(t, 1, job.runs.Load())

	job.block = nil
	assert.True(t, executor.execute(context.Background(), job), "the job runs again once finished")
	<-job.started
}

func TestTaskExecutor_RunAll(t *testing.T) {
	ok := &testJob{name: "ok", schedule: "@every 1h"}
	failing := &testJob{name: "failing", schedule: "@every 1h", err: errors.New("boom")}
	executor := NewTaskExecutor(ok, failing)

	executor.RunAll(context.Background())

	assert.EqualValues(t, 1, ok.runs.Load())
	assert.EqualValues(t, 1, failing.runs.Load())
}

func TestTaskExecutor_Start(t *testing.T) {
	job := &testJob{name: "tick", schedule: "@every 1s"}
	executor := NewTaskExecutor(job)

	require.NoError(t, executor.Start(context.Background()))
	assert.Eventually(t, func() bool { return job.runs.Load() > 0 }, 5*time.Second, 50*time.Millisecond)
	executor.Stop()

	bad := NewTaskExecutor(&testJob{name: "bad", schedule: "whenever"})
	assert.Error(t, bad.Start(context.Background()))
}

func TestTaskExecutor_Stopped(t *testing.T) {
	job := &testJob{name: "late", schedule: "@every 1h"}
	executor := NewTaskExecutor(job)

	require.NoError(t, executor.Start(context.Background()))
	executor.Stop()

	assert.False(t, executor.execute(context.Background(), job), "no run starts after stop")
	assert.EqualValues(t, 0, job.runs.Load())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, NewTaskExecutor(job).execute(ctx, job))
	assert.EqualValues(t, 0, job.runs.Load())
}
