package actions

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/helper"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/pipeline"
	"github.com/robfig/cron/v3"
)

type ScheduleConfig struct {
	LogLevel         string `errorTxt:"log level" mandatory:"yes"`
	StackDumpOnPanic bool
	Pipeline         config.PipelineConfig
	SkipValidate     bool
	Web              *WebServerConfig // optional; serve run status while scheduling.
}

// Scheduler launches a run on every tick of a cron schedule.
// Ticks before StartDate are skipped and missed ticks are not caught up.
// A tick that arrives while the previous run is still going is skipped.
type Scheduler struct {
	Launcher  *Launcher
	Spec      string
	StartDate time.Time
	Clock     clockwork.Clock
	cron      *cron.Cron
	schedule  cron.Schedule
}

func NewScheduler(l *Launcher, spec string, startDate string, clock clockwork.Clock) (*Scheduler, error) {
	s := &Scheduler{Launcher: l, Spec: spec, Clock: clock}
	if s.Clock == nil {
		s.Clock = clockwork.NewRealClock()
	}
	var err error
	if startDate != "" {
		if s.StartDate, err = time.Parse("2006-01-02", startDate); err != nil {
			return nil, fmt.Errorf("bad start date %q: %w", startDate, err)
		}
	}
	if s.schedule, err = cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("bad schedule %q: %w", spec, err)
	}
	cl := cronLogger{log: l.Log}
	s.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	s.cron.Schedule(s.schedule, cron.FuncJob(s.Tick))
	return s, nil
}

// Next returns the time of the next tick.
func (s *Scheduler) Next() time.Time {
	return s.schedule.Next(s.Clock.Now().UTC())
}

func (s *Scheduler) Start() {
	s.Launcher.Log.Info("Scheduling pipeline ", constants.PipelineName, " with ", s.Spec, "; next run at ", s.Next())
	s.cron.Start()
}

// Stop prevents further ticks and returns a context that is done once any running tick completes.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Tick launches one run and blocks until it finishes.
func (s *Scheduler) Tick() {
	now := s.Clock.Now()
	if now.Before(s.StartDate) {
		s.Launcher.Log.Info("Skipping scheduled run before start date ", s.StartDate.Format("2006-01-02"))
		return
	}
	guid, err := s.Launcher.Launch(context.Background(), true)
	if err != nil {
		s.Launcher.Log.Error("Scheduled run ", guid, " failed: ", err)
		return
	}
	s.Launcher.Log.Info("Scheduled run ", guid, " complete; next run at ", s.Next())
}

// RunSchedule runs the pipeline on the configured schedule until SIGINT or SIGTERM.
func RunSchedule(cfg *ScheduleConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	if err := cfg.Pipeline.Validate(); err != nil {
		return err
	}
	log := logger.NewLogger(constants.ServiceName, cfg.LogLevel, cfg.StackDumpOnPanic)
	l := &Launcher{
		Log:              log,
		Config:           cfg.Pipeline,
		SkipValidate:     cfg.SkipValidate,
		SetAutocommitOff: true,
		CleanupHandler:   pipeline.CleanupHandlerWithoutSignals, // the scheduler owns signals.
	}
	l.setDefaults()
	s, err := NewScheduler(l, cfg.Pipeline.Schedule, cfg.Pipeline.StartDate, nil)
	if err != nil {
		return err
	}
	var srv *WebServer
	if cfg.Web != nil {
		if srv, err = StartWebServer(log, cfg.Web, l); err != nil {
			return err
		}
	}
	s.Start()
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)
	stopped := make(chan struct{})
	if srv != nil {
		go func() {
			<-srv.Stopped()
			close(stopped)
		}()
	}
	select {
	case x := <-c:
		log.Info("Caught ", x.String())
	case <-stopped:
	}
	log.Info("Stopping scheduler...")
	for _, guid := range l.RunInfo.Keys() { // stop in-flight runs so the tick can return...
		_ = l.RunInfo.Stop(guid)
	}
	<-s.Stop().Done()
	if srv != nil {
		return srv.Shutdown()
	}
	return nil
}

// cronLogger sends cron's messages to our logger.
type cronLogger struct {
	log logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug("cron: ", msg, " ", keysAndValues)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error("cron: ", msg, ": ", err, " ", keysAndValues)
}
