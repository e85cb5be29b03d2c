package pipeline

import (
	"errors"
	"sync"
	"time"

	"github.com/relloyd/salespipe/stats"
)

var ErrRunNotFound = errors.New("run not found")
var ErrRunFinished = errors.New("run is already finished")

type RunInfo struct {
	Definition Definition
	Closer     *RunCloser
	Status     RunStatus `json:"runStatus"`
	Jobs       *JobStates
	Stats      stats.StatsFetcher
}

// SafeMapRunInfo wraps a map[string]RunInfo keyed by run GUID with locking, via Load() and Store() methods.
type SafeMapRunInfo struct {
	sync.RWMutex
	Internal  map[string]RunInfo
	launching bool // a launch holds the reservation taken by BeginLaunch.
}

func NewSafeMapRunInfo() *SafeMapRunInfo {
	ri := SafeMapRunInfo{}
	ri.Internal = make(map[string]RunInfo)
	return &ri
}

func (t *SafeMapRunInfo) Load(key string) (ri RunInfo, ok bool) {
	t.RLock()
	ri, ok = t.Internal[key]
	t.RUnlock()
	return
}

func (t *SafeMapRunInfo) Store(key string, value RunInfo) {
	t.Lock()
	t.Internal[key] = value
	t.Unlock()
}

func (t *SafeMapRunInfo) Delete(key string) {
	t.Lock()
	delete(t.Internal, key)
	t.Unlock()
}

// Keys returns the GUIDs of all runs.
// xid GUIDs sort by creation time.
func (t *SafeMapRunInfo) Keys() []string {
	t.RLock()
	defer t.RUnlock()
	retval := make([]string, 0, len(t.Internal))
	for k := range t.Internal {
		retval = append(retval, k)
	}
	return retval
}

// IsRunning is true if any run has not finished.
func (t *SafeMapRunInfo) IsRunning() bool {
	t.RLock()
	defer t.RUnlock()
	for _, v := range t.Internal {
		if !v.Status.RunIsFinished() {
			return true
		}
	}
	return false
}

// BeginLaunch reserves the right to start a run.
// It returns false while any run is unfinished or another launch holds the reservation.
// Callers that get true must call EndLaunch once the new run is stored or abandoned.
func (t *SafeMapRunInfo) BeginLaunch() bool {
	t.Lock()
	defer t.Unlock()
	if t.launching {
		return false
	}
	for _, v := range t.Internal {
		if !v.Status.RunIsFinished() {
			return false
		}
	}
	t.launching = true
	return true
}

// EndLaunch releases the reservation taken by BeginLaunch.
func (t *SafeMapRunInfo) EndLaunch() {
	t.Lock()
	t.launching = false
	t.Unlock()
}

// Stop requests shutdown of the run with the given GUID.
func (t *SafeMapRunInfo) Stop(runGuid string) error {
	ri, ok := t.Load(runGuid)
	if !ok {
		return ErrRunNotFound
	}
	if ri.Closer == nil || !ri.Closer.RequestShutdown(nil) {
		return ErrRunFinished
	}
	return nil
}

// ConsumeRunStatusChanges loops until chanStatus is closed
// and updates t.Internal[runGuid] with any statuses received.
func (t *SafeMapRunInfo) ConsumeRunStatusChanges(runGuid string, chanStatus chan RunStatus) {
	for status := range chanStatus {
		t.Lock()
		ri := t.Internal[runGuid]
		switch status.Status {
		case StatusRunning:
			ri.Status.Status = status.Status
			ri.Status.StartTime = time.Now()
		case StatusComplete, StatusShutdown:
			ri.Status.Status = status.Status
			ri.Status.EndTime = time.Now()
		case StatusCompleteWithError:
			ri.Status.Status = status.Status
			ri.Status.EndTime = time.Now()
			ri.Status.Error = status.Error
		}
		t.Internal[runGuid] = ri
		t.Unlock()
	}
}
