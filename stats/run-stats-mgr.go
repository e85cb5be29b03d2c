package stats

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cevaris/ordered_map"
	"github.com/relloyd/salespipe/logger"
)

type StatsFetcher interface {
	GetStats() []Stats
}

// StatsManager creates a JobWatcher per job and dumps their stats periodically.
type StatsManager interface {
	StatsFetcher
	AddJobWatcher(stageName string, jobName string) *JobWatcher
	StartDumping()
	StopDumping()
}

var DefaultStatsDumpFrequencySeconds = 5 // default stats dump interval may be overridden by use of options in constructor below!

// RunStatsManager implements StatsManager and
// is used to save stats from each job added via calls to AddJobWatcher.
type RunStatsManager struct {
	ticker              *time.Ticker
	tickerDone          chan struct{}
	tickerIsRunningFlag int32
	tickerFrequency     int
	mu                  sync.Mutex
	log                 logger.Logger
	mapJobStats         *ordered_map.OrderedMap // map containing JobWatcher{} details of all jobs in definition order.
}

// SetStatsDumpFrequency returns a function that can be supplied as an option to constructor NewRunStats().
// Zero disables dumping.
func SetStatsDumpFrequency(seconds int) func(t *RunStatsManager) {
	return func(t *RunStatsManager) {
		t.tickerFrequency = seconds
	}
}

// NewRunStats creates a new RunStatsManager.
// Optionally supply func SetStatsDumpFrequency() to override the default stats dump frequency.
func NewRunStats(log logger.Logger, options ...func(t *RunStatsManager)) *RunStatsManager {
	t := &RunStatsManager{log: log, tickerFrequency: DefaultStatsDumpFrequencySeconds}
	for _, option := range options {
		option(t)
	}
	t.tickerDone = make(chan struct{})
	t.mapJobStats = ordered_map.NewOrderedMap()
	return t
}

// AddJobWatcher creates a new JobWatcher and saves it into this RunStatsManager.
func (t *RunStatsManager) AddJobWatcher(stageName string, jobName string) *JobWatcher {
	jw := NewJobWatcher(t.log, stageName, jobName)
	t.mu.Lock()
	t.mapJobStats.Set(jobName, jw)
	t.mu.Unlock()
	return jw
}

func (t *RunStatsManager) StartDumping() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if atomic.LoadInt32(&t.tickerIsRunningFlag) == 0 { // if we're not already dumping stats...
		if t.tickerFrequency > 0 { // if stats dumping is enabled...
			t.ticker = time.NewTicker(time.Second * time.Duration(t.tickerFrequency))
			atomic.StoreInt32(&t.tickerIsRunningFlag, 1)
			go func() {
				t.log.Debug("stats dumper ticker started")
				for {
					select {
					case <-t.tickerDone:
						t.log.Debug("stats dumper ticker stopped")
						return
					case <-t.ticker.C:
						t.logStats()
					}
				}
			}()
		} else {
			t.log.Debug("stats dumper disabled")
		}
	} else {
		t.log.Debug("stats dumper ticker already running")
	}
}

// StopDumping will stop the ticker and dump the current stats,
// only if the ticker was already running via a call to StartDumping().
func (t *RunStatsManager) StopDumping() {
	t.mu.Lock()
	running := atomic.LoadInt32(&t.tickerIsRunningFlag) > 0
	if running { // if we started to dump stats...
		atomic.StoreInt32(&t.tickerIsRunningFlag, 0)
		t.ticker.Stop()
	}
	t.mu.Unlock()
	if running {
		t.tickerDone <- struct{}{} // cause the goroutine to exit (we can't close ticker.C)
		t.logStats()
	}
}

// logStats outputs the stats of each registered job.
func (t *RunStatsManager) logStats() {
	for _, s := range t.GetStats() {
		t.log.Info(s.String())
	}
}

// GetStats implements interface StatsFetcher{}.
func (t *RunStatsManager) GetStats() []Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	iter := t.mapJobStats.IterFunc()
	statsList := make([]Stats, 0, t.mapJobStats.Len())
	for kv, ok := iter(); ok; kv, ok = iter() { // for each job in definition order...
		statsList = append(statsList, kv.Value.(*JobWatcher).RenderStats())
	}
	return statsList
}
