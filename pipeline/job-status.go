package pipeline

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cevaris/ordered_map"
)

type JobStatus uint32

const (
	JobStatusQueued JobStatus = iota + 1
	JobStatusRunning
	JobStatusRetrying
	JobStatusDone
	JobStatusFailed
	JobStatusSkipped
)

func (s JobStatus) String() string {
	switch s {
	case JobStatusQueued:
		return "queued"
	case JobStatusRunning:
		return "running"
	case JobStatusRetrying:
		return "retrying"
	case JobStatusDone:
		return "done"
	case JobStatusFailed:
		return "failed"
	case JobStatusSkipped:
		return "skipped"
	}
	return fmt.Sprintf("JobStatus(%d)", uint32(s))
}

// IsTerminal is true once a job will not change status again.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusDone || s == JobStatusFailed || s == JobStatusSkipped
}

func (s JobStatus) MarshalJSON() ([]byte, error) {
	if s < JobStatusQueued || s > JobStatusSkipped {
		return nil, fmt.Errorf("unhandled JobStatus value %v in custom MarshalJSON() conversion", uint32(s))
	}
	return json.Marshal(s.String())
}

// JobState is a snapshot of one job in a run.
type JobState struct {
	Stage     string    `json:"stage"`
	Job       string    `json:"job"`
	Status    JobStatus `json:"status"`
	Attempts  int       `json:"attempts"`
	Error     string    `json:"error,omitempty"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// JobStates holds the state of every job in a run in definition order.
type JobStates struct {
	mu     sync.RWMutex
	states *ordered_map.OrderedMap
}

// NewJobStates returns the jobs of d, all queued.
func NewJobStates(d *Definition) *JobStates {
	js := &JobStates{states: ordered_map.NewOrderedMap()}
	for _, s := range d.Stages {
		for _, j := range s.Jobs {
			js.states.Set(j.Name, &JobState{Stage: s.Name, Job: j.Name, Status: JobStatusQueued})
		}
	}
	return js
}

// Update calls fn with the state of jobName while holding the lock.
func (js *JobStates) Update(jobName string, fn func(s *JobState)) {
	js.mu.Lock()
	defer js.mu.Unlock()
	v, ok := js.states.Get(jobName)
	if !ok {
		return
	}
	fn(v.(*JobState))
}

func (js *JobStates) StoreStatus(jobName string, status JobStatus) {
	js.Update(jobName, func(s *JobState) {
		s.Status = status
	})
}

func (js *JobStates) Load(jobName string) (retval JobState, ok bool) {
	js.mu.RLock()
	defer js.mu.RUnlock()
	v, ok := js.states.Get(jobName)
	if !ok {
		return retval, false
	}
	return *v.(*JobState), true
}

// List returns a copy of every job state in definition order.
func (js *JobStates) List() []JobState {
	js.mu.RLock()
	defer js.mu.RUnlock()
	retval := make([]JobState, 0, js.states.Len())
	iter := js.states.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		retval = append(retval, *kv.Value.(*JobState))
	}
	return retval
}

// groupWaiter is a wrapper around sync.WaitGroup for the jobs of one stage.
// It can return a *jobWaiter which provides access to the groupWaiter for a given job.
type groupWaiter struct {
	wg     sync.WaitGroup
	states *JobStates
}

func newGroupWaiter(states *JobStates) *groupWaiter {
	return &groupWaiter{states: states}
}

// newJobWaiter adds the job to the wait group.
func (gw *groupWaiter) newJobWaiter(jobName string) *jobWaiter {
	gw.wg.Add(1)
	return &jobWaiter{gw: gw, jobName: jobName}
}

func (gw *groupWaiter) Wait() {
	gw.wg.Wait()
}

// jobWaiter updates the parent groupWaiter for a given job.
// The terminal status is stored before the wait group is released.
type jobWaiter struct {
	gw      *groupWaiter
	jobName string
}

func (j *jobWaiter) SetStatus(status JobStatus) {
	j.gw.states.StoreStatus(j.jobName, status)
}

func (j *jobWaiter) Done(status JobStatus, err error) {
	j.gw.states.Update(j.jobName, func(s *JobState) {
		s.Status = status
		s.EndTime = time.Now()
		if err != nil {
			s.Error = err.Error()
		}
	})
	j.gw.wg.Done()
}
