package pipeline

import (
	"context"
	"time"

	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/stats"
	"github.com/rs/xid"
)

// LaunchDefinition validates the supplied Definition and launches a run of it.
// It stores the GUID of the new run in ri and returns it.
// If blockUntilComplete is true the run error is returned once every stage has finished;
// otherwise the run is launched in a goroutine and only validation errors are returned.
func LaunchDefinition(log logger.Logger, ri *SafeMapRunInfo, d *Definition, opts RunOptions, blockUntilComplete bool) (guid string, err error) {
	if err = d.Validate(); err != nil {
		return
	}
	if err = opts.Retry.Validate(); err != nil {
		return
	}
	if opts.CleanupHandler == nil {
		opts.CleanupHandler = CleanupHandlerWithSignals
	}
	s := stats.NewRunStats(log, stats.SetStatsDumpFrequency(opts.StatsDumpFrequencySeconds))
	js := NewJobStates(d)
	chanStatus := make(chan RunStatus, 1) // channel for us to receive status messages back from the run
	chanShutdown := make(chan error, 1)   // channel upon which we can stop the current run
	rc := NewRunCloser(chanStatus, chanShutdown)
	guid = xid.New().String()
	ri.Store(guid, RunInfo{
		Definition: *d,
		Closer:     rc,
		Status:     RunStatus{Status: StatusStarting, StartTime: time.Now()},
		Jobs:       js,
		Stats:      s,
	})
	consumed := make(chan struct{})
	go func() {
		ri.ConsumeRunStatusChanges(guid, chanStatus)
		close(consumed)
	}()
	log.Info("Launching run ", guid, " of pipeline ", d.Name)
	run := func() error {
		err := LaunchWithControlChannels(log, d, guid, opts, s, js, rc)
		<-consumed // the final status is saved before we return.
		if opts.OnFinish != nil {
			opts.OnFinish(guid, err)
		}
		return err
	}
	if blockUntilComplete {
		err = run()
	} else {
		go func() {
			_ = run()
		}()
	}
	return
}

// LaunchWithControlChannels runs the definition until complete or stopped via rc.
// The final status is sent on rc before its channels are closed.
func LaunchWithControlChannels(log logger.Logger, d *Definition, runGuid string, opts RunOptions, s stats.StatsManager, js *JobStates, rc *RunCloser) error {
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()
	done := make(chan struct{})
	cleanupDone := make(chan struct{})
	go func() {
		opts.CleanupHandler(log, runGuid, rc, cancelFunc, done)
		close(cleanupDone)
	}()
	startTime := time.Now()
	rc.SendStatus(RunStatus{Status: StatusRunning})
	s.StartDumping()
	err := RunDefinition(ctx, log.WithFields(map[string]interface{}{"run": runGuid}), d, opts, js, s)
	s.StopDumping()
	close(done)
	<-cleanupDone
	final := RunStatus{Status: StatusComplete}
	if err != nil {
		final.Error = err.Error()
		final.Status = StatusCompleteWithError
		if rc.ShutdownRequested() {
			final.Status = StatusShutdown
		}
	}
	stats.RunsTotal.WithLabelValues(final.Status.String()).Inc()
	stats.RunDuration.Observe(time.Since(startTime).Seconds())
	rc.CloseChannels(&final)
	if err != nil {
		log.Error("Run ", runGuid, " ", final.Status, ": ", err)
	} else {
		log.Info("Run ", runGuid, " complete")
	}
	return err
}
