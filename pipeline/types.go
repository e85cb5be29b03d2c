package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/relloyd/salespipe/helper"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/retry"
	"github.com/relloyd/salespipe/stats"
)

// JobFunc does the work of a single job.
// log carries the run, stage and job fields.
// It must return promptly with an error once ctx is done.
type JobFunc func(ctx context.Context, log logger.Logger, jw *stats.JobWatcher) error

type Job struct {
	Name        string  `json:"name" yaml:"name" errorTxt:"job name" mandatory:"yes"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Fn          JobFunc `json:"-" yaml:"-"`
}

// Stage is a set of jobs that run concurrently.
// Every job in a stage reaches a terminal state before the next stage starts.
type Stage struct {
	Name string `json:"name" yaml:"name" errorTxt:"stage name" mandatory:"yes"`
	Jobs []Job  `json:"jobs" yaml:"jobs" errorTxt:"stage jobs" mandatory:"yes"`
}

// Definition is the ordered list of stages in a pipeline run.
type Definition struct {
	Name   string  `json:"name" yaml:"name" errorTxt:"pipeline name" mandatory:"yes"`
	Stages []Stage `json:"stages" yaml:"stages" errorTxt:"pipeline stages" mandatory:"yes"`
}

// Validate checks that every stage has jobs, every job has a function and job names are unique.
func (d *Definition) Validate() error {
	if err := helper.ValidateStructIsPopulated(d); err != nil {
		return err
	}
	if len(d.Stages) == 0 {
		return fmt.Errorf("pipeline %q has no stages", d.Name)
	}
	seen := make(map[string]struct{})
	for _, s := range d.Stages {
		if len(s.Jobs) == 0 {
			return fmt.Errorf("stage %q has no jobs", s.Name)
		}
		for _, j := range s.Jobs {
			if j.Name == "" {
				return fmt.Errorf("stage %q has a job with no name", s.Name)
			}
			if j.Fn == nil {
				return fmt.Errorf("job %q has no function", j.Name)
			}
			if _, ok := seen[j.Name]; ok {
				return fmt.Errorf("duplicate job name %q", j.Name)
			}
			seen[j.Name] = struct{}{}
		}
	}
	return nil
}

// JobNames returns every job name in definition order.
func (d *Definition) JobNames() []string {
	retval := make([]string, 0)
	for _, s := range d.Stages {
		for _, j := range s.Jobs {
			retval = append(retval, j.Name)
		}
	}
	return retval
}

// RunOptions control how the jobs of a run are executed.
type RunOptions struct {
	Retry                     retry.Policy                    // applied to every job.
	MaxActiveJobs             int64                           // maximum concurrent jobs per stage; 0 means unlimited.
	JobTimeout                time.Duration                   // per attempt; 0 means no timeout.
	StatsDumpFrequencySeconds int                             // 0 disables periodic stats logging.
	CleanupHandler            CleanupHandlerFunc              // optional; default listens for SIGINT and SIGTERM.
	OnFinish                  func(runGuid string, err error) // optional; called once the final status is saved.
}

func DefaultRunOptions() RunOptions {
	return RunOptions{
		Retry:                     retry.DefaultPolicy(),
		StatsDumpFrequencySeconds: stats.DefaultStatsDumpFrequencySeconds,
	}
}
