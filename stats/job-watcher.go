package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/relloyd/salespipe/constants"
	h "github.com/relloyd/salespipe/helper"
	"github.com/relloyd/salespipe/logger"
)

// JobWatcher saves stats for a single job.
// Components call AddRows and AddBytes while they work; the job runner calls the remaining methods.
type JobWatcher struct {
	log        logger.Logger
	stageName  string
	jobName    string
	rowCount   int64
	byteCount  int64
	attempts   int64
	mu         sync.Mutex
	startTime  time.Time
	endTime    time.Time
	statusText string
	isRunning  h.AtomBool
}

type Stats struct {
	StageName           string `json:"stageName"`
	JobName             string `json:"jobName"`
	StatusText          string `json:"statusText"`
	StatusEmoji         string `json:"statusEmoji"`
	Attempts            int    `json:"attempts"`
	ElapsedTimeSec      int    `json:"elapsedTimeSec"`
	TotalRowsProcessed  int    `json:"totalRowsProcessed"`
	TotalBytesProcessed int    `json:"totalBytesProcessed"`
	RowsPerSecondAvg    int    `json:"rowsPerSecondAvg"`
}

func NewJobWatcher(log logger.Logger, stageName string, jobName string) *JobWatcher {
	return &JobWatcher{log: log, stageName: stageName, jobName: jobName, statusText: "queued"}
}

// StartWatching records the start time of the job.
func (n *JobWatcher) StartWatching() {
	n.mu.Lock()
	n.startTime = time.Now()
	n.statusText = "running"
	n.mu.Unlock()
	n.isRunning.Set(true)
}

// StopWatching records the end time and final status of the job and publishes its metrics.
func (n *JobWatcher) StopWatching(statusText string) {
	n.mu.Lock()
	n.endTime = time.Now()
	n.statusText = statusText
	elapsed := n.endTime.Sub(n.startTime)
	n.mu.Unlock()
	n.isRunning.Set(false)
	n.log.Debug("STATS: ", n.stageName, "/", n.jobName, " ", statusText, " after ", elapsed)
	if !n.startTime.IsZero() {
		JobDuration.WithLabelValues(n.stageName, n.jobName).Observe(elapsed.Seconds())
	}
}

// SetStatus changes the status text without stopping the watcher.
func (n *JobWatcher) SetStatus(statusText string) {
	n.mu.Lock()
	n.statusText = statusText
	n.mu.Unlock()
}

// ResetCounts clears the row and byte counters before a retry.
func (n *JobWatcher) ResetCounts() {
	atomic.StoreInt64(&n.rowCount, 0)
	atomic.StoreInt64(&n.byteCount, 0)
}

// AddRows is safe to call on a nil watcher.
func (n *JobWatcher) AddRows(rows int64) {
	if n == nil {
		return
	}
	atomic.AddInt64(&n.rowCount, rows)
	RowsProcessedTotal.WithLabelValues(n.stageName, n.jobName).Add(float64(rows))
}

// AddBytes is safe to call on a nil watcher.
func (n *JobWatcher) AddBytes(bytes int64) {
	if n == nil {
		return
	}
	atomic.AddInt64(&n.byteCount, bytes)
	BytesStagedTotal.WithLabelValues(n.jobName).Add(float64(bytes))
}

// AddAttempt counts an attempt with its outcome.
func (n *JobWatcher) AddAttempt(outcome string) {
	atomic.AddInt64(&n.attempts, 1)
	JobAttemptsTotal.WithLabelValues(n.stageName, n.jobName, outcome).Inc()
}

func (n *JobWatcher) Rows() int64 {
	return atomic.LoadInt64(&n.rowCount)
}

func (n *JobWatcher) Bytes() int64 {
	return atomic.LoadInt64(&n.byteCount)
}

func (n *JobWatcher) Attempts() int {
	return int(atomic.LoadInt64(&n.attempts))
}

// RenderStats gets a struct filled with stats at the point of time it is called.
func (n *JobWatcher) RenderStats() Stats {
	n.mu.Lock()
	start, end, statusText := n.startTime, n.endTime, n.statusText
	n.mu.Unlock()
	var elapsed time.Duration
	switch {
	case start.IsZero():
	case n.isRunning.Get() || end.IsZero():
		elapsed = time.Since(start)
	default:
		elapsed = end.Sub(start)
	}
	rows := n.Rows()
	seconds := int64(elapsed.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return Stats{
		StageName:           n.stageName,
		JobName:             n.jobName,
		StatusText:          statusText,
		StatusEmoji:         statusEmoji(statusText),
		Attempts:            n.Attempts(),
		ElapsedTimeSec:      int(elapsed.Seconds()),
		TotalRowsProcessed:  int(rows),
		TotalBytesProcessed: int(n.Bytes()),
		RowsPerSecondAvg:    int(rows / seconds),
	}
}

func statusEmoji(statusText string) string {
	switch statusText {
	case "running", "retrying":
		return "\U0000231B" // hour glass
	case "done":
		return "\U00002705" // green tick
	case "failed":
		return constants.EmojiBang
	case "skipped":
		return "\U000023ED" // next track
	}
	return ""
}

// String will format the stats for general logging.
func (s Stats) String() string {
	return fmt.Sprintf(
		"Stats for %v/%v %v %v "+
			"attempts=%v "+
			"elapsedTimeSec=%v "+
			"totalRowsProcessed=%v "+
			"totalBytesProcessed=%v "+
			"rowsPerSecondAvg=%v",
		s.StageName,
		s.JobName,
		s.StatusEmoji,
		s.StatusText,
		s.Attempts,
		s.ElapsedTimeSec,
		s.TotalRowsProcessed,
		s.TotalBytesProcessed,
		s.RowsPerSecondAvg)
}
