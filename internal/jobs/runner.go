package jobs

import (
	"context"
	"fmt"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/knuth/internal/metrics"
	cron "github.com/robfig/cron"
	"github.com/sirupsen/logrus"
)

// Job is a background task run on a cron schedule.
type Job interface {
	Name() string
	Schedule() string
	Run(ctx context.Context) error
}

// TaskExecutor runs jobs on their schedules. A job never overlaps with itself:
// a tick that fires while the previous run is still going is skipped.
type TaskExecutor struct {
	cron    *cron.Cron
	jobs    []Job
	running mapset.Set[string]
	wg      sync.WaitGroup
	cancel  context.CancelFunc

	// mu guards stopped and every wg.Add, so no run starts once Stop waits.
	mu      sync.Mutex
	stopped bool
}

func NewTaskExecutor(jobs ...Job) *TaskExecutor {
	return &TaskExecutor{
		cron:    cron.New(),
		jobs:    jobs,
		running: mapset.NewSet[string](),
	}
}

// Start schedules every job and starts the cron loop.
func (t *TaskExecutor) Start(ctx context.Context) error {
	ctx, t.cancel = context.WithCancel(ctx)

	for _, job := range t.jobs {
		err := t.cron.AddFunc(job.Schedule(), func() {
			t.execute(ctx, job)
		})
		if err != nil {
			t.cancel()
			return fmt.Errorf("schedule job %s (%q): %w", job.Name(), job.Schedule(), err)
		}
		logrus.Infof("scheduled job %s: %s", job.Name(), job.Schedule())
	}

	t.cron.Start()

	return nil
}

// RunAll runs every job once, sequentially.
func (t *TaskExecutor) RunAll(ctx context.Context) {
	for _, job := range t.jobs {
		t.execute(ctx, job)
	}
}

// execute runs job unless it is already running and reports whether it ran.
func (t *TaskExecutor) execute(ctx context.Context, job Job) bool {
	t.mu.Lock()
	if t.stopped || ctx.Err() != nil {
		t.mu.Unlock()
		return false
	}
	if !t.running.Add(job.Name()) {
		t.mu.Unlock()
		logrus.Warnf("job %s is still running, skipping", job.Name())
		return false
	}
	t.wg.Add(1)
	t.mu.Unlock()
	defer func() {
		t.running.Remove(job.Name())
		t.wg.Done()
	}()

	err := job.Run(ctx)
	metrics.JobRuns.WithLabelValues(job.Name(), metrics.Status(err)).Inc()
	if err != nil {
		logrus.Errorf("job %s failed: %v", job.Name(), err)
	}

	return true
}

// Stop stops scheduling, cancels running jobs and waits for them to return.
func (t *TaskExecutor) Stop() {
	logrus.Infof("stopping all tasks")
	t.cron.Stop()

	t.mu.Lock()
	t.stopped = true
	if t.cancel != nil {
		t.cancel()
	}
	t.mu.Unlock()

	t.wg.Wait()
}
