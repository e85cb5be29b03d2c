package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	pkgerrors "github.com/pkg/errors"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/stats"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// ErrJobTimeout is returned when a job attempt exceeds RunOptions.JobTimeout.
var ErrJobTimeout = errors.New("job timed out")

// ErrUpstreamFailed is recorded against jobs that were skipped because an earlier stage failed.
var ErrUpstreamFailed = errors.New("upstream stage failed")

// RunDefinition runs the stages of d in order.
// All jobs of a stage run concurrently and every one reaches a terminal state before the next stage starts.
// If any job in a stage fails, the jobs of later stages are skipped and the stage error is returned.
func RunDefinition(ctx context.Context, log logger.Logger, d *Definition, opts RunOptions, js *JobStates, s stats.StatsManager) error {
	var runErr error
	for _, stage := range d.Stages { // for each stage in sequence...
		if runErr == nil && ctx.Err() != nil { // if we were stopped between stages...
			runErr = ctx.Err()
		}
		if runErr != nil { // if an earlier stage failed...
			skipStage(log, stage, js, s)
			continue
		}
		if err := runStage(ctx, log, stage, opts, js, s); err != nil {
			runErr = pkgerrors.Wrapf(err, "stage %v failed", stage.Name)
		}
	}
	return runErr
}

func skipStage(log logger.Logger, stage Stage, js *JobStates, s stats.StatsManager) {
	log.Warn("Skipping stage ", stage.Name)
	for _, job := range stage.Jobs {
		js.Update(job.Name, func(st *JobState) {
			st.Status = JobStatusSkipped
			st.Error = ErrUpstreamFailed.Error()
		})
		jw := s.AddJobWatcher(stage.Name, job.Name)
		jw.StopWatching(JobStatusSkipped.String())
	}
}

// runStage launches every job in the stage and blocks until all of them are done or failed.
func runStage(ctx context.Context, log logger.Logger, stage Stage, opts RunOptions, js *JobStates, s stats.StatsManager) error {
	stageLog := log.WithFields(map[string]interface{}{"stage": stage.Name})
	stageLog.Info("Launching stage ", stage.Name, " with ", len(stage.Jobs), " jobs")
	var sem *semaphore.Weighted
	if opts.MaxActiveJobs > 0 {
		sem = semaphore.NewWeighted(opts.MaxActiveJobs)
	}
	gw := newGroupWaiter(js)
	var mu sync.Mutex
	var result *multierror.Error
	for _, job := range stage.Jobs {
		job := job
		jw := s.AddJobWatcher(stage.Name, job.Name)
		waiter := gw.newJobWaiter(job.Name)
		go func() {
			jobLog := stageLog.WithFields(map[string]interface{}{"job": job.Name})
			err := func() error {
				if sem != nil {
					if err := sem.Acquire(ctx, 1); err != nil { // if we were stopped while queued...
						return err
					}
					defer sem.Release(1)
				}
				return runJob(ctx, jobLog, job, opts, waiter, jw)
			}()
			status := JobStatusDone
			if err != nil {
				status = JobStatusFailed
				jobLog.Error("Job ", job.Name, " failed: ", err)
				mu.Lock()
				result = multierror.Append(result, pkgerrors.Wrapf(err, "job %v", job.Name))
				mu.Unlock()
			}
			jw.StopWatching(status.String())
			waiter.Done(status, err)
		}()
	}
	gw.Wait() // barrier
	stageLog.Info("Stage ", stage.Name, " finished")
	return result.ErrorOrNil()
}

// runJob calls the job function under the retry policy.
func runJob(ctx context.Context, log logger.Logger, job Job, opts RunOptions, waiter *jobWaiter, jw *stats.JobWatcher) error {
	policy := opts.Retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		log.Warn("Job ", job.Name, " attempt ", attempt, " failed, retrying in ", delay, ": ", err)
		waiter.SetStatus(JobStatusRetrying)
		jw.SetStatus(JobStatusRetrying.String())
	})
	waiter.gw.states.Update(job.Name, func(s *JobState) {
		s.Status = JobStatusRunning
		s.StartTime = time.Now()
	})
	jw.StartWatching()
	return policy.Do(ctx, func(ctx context.Context, attempt int) error {
		log.Info("Job ", job.Name, " attempt ", attempt, " is running")
		waiter.gw.states.Update(job.Name, func(s *JobState) {
			s.Status = JobStatusRunning
			s.Attempts = attempt
		})
		jw.SetStatus(JobStatusRunning.String())
		jw.ResetCounts()
		err := callJob(ctx, log, job, opts.JobTimeout, jw)
		outcome := JobStatusDone.String()
		if err != nil {
			outcome = JobStatusFailed.String()
		}
		jw.AddAttempt(outcome)
		return err
	})
}

// callJob runs one attempt of the job with the optional timeout, converting panics into errors.
func callJob(ctx context.Context, log logger.Logger, job Job, timeout time.Duration, jw *stats.JobWatcher) (err error) {
	jobCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil { // if there was a panic...
			err = fmt.Errorf("job %v panicked: %v\n%s", job.Name, panicMessage(r), debug.Stack())
		}
	}()
	err = job.Fn(jobCtx, log, jw)
	if err != nil && ctx.Err() == nil && errors.Is(jobCtx.Err(), context.DeadlineExceeded) { // if only the job timed out...
		// Report as a retryable failure rather than context expiry.
		return fmt.Errorf("%w after %v: %v", ErrJobTimeout, timeout, err)
	}
	return err
}

// panicMessage extracts the message only.
func panicMessage(r interface{}) string {
	switch x := r.(type) {
	case *logrus.Entry:
		return x.Message
	case error:
		return x.Error()
	case string:
		return x
	}
	return fmt.Sprintf("%v", r)
}
