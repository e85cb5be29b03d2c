package actions

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/pipeline"
	td "github.com/relloyd/salespipe/table-definition"
)

// Launcher starts runs of the sales pipeline.
// It is shared by the run, serve and schedule commands.
type Launcher struct {
	Log              logger.Logger
	Config           config.PipelineConfig
	Registry         *td.Registry                // default is the sales registry.
	Open             ResourceOpener              // default is OpenResources.
	RunInfo          *pipeline.SafeMapRunInfo    // runs are recorded here for the web server.
	CleanupHandler   pipeline.CleanupHandlerFunc // default listens for signals.
	Clock            clockwork.Clock             // used for retry waits; default is the real clock.
	SkipValidate     bool                        // skip the startup projection check.
	SetAutocommitOff bool
	OutputDirectory  string
}

func (l *Launcher) setDefaults() {
	if l.Registry == nil {
		l.Registry = td.NewSalesRegistry()
	}
	if l.Open == nil {
		l.Open = OpenResources
	}
	if l.RunInfo == nil {
		l.RunInfo = pipeline.NewSafeMapRunInfo()
	}
}

// RunOptions converts the pipeline config into options for the runner.
func (l *Launcher) RunOptions() pipeline.RunOptions {
	p := l.Config.Retry.Policy()
	p.Clock = l.Clock
	return pipeline.RunOptions{
		Retry:                     p,
		MaxActiveJobs:             l.Config.MaxActiveJobs,
		JobTimeout:                l.Config.JobTimeout(),
		StatsDumpFrequencySeconds: l.Config.StatsDumpFrequencySeconds,
		CleanupHandler:            l.CleanupHandler,
	}
}

// ErrRunInProgress is returned by Launch while another run of the pipeline is unfinished.
var ErrRunInProgress = errors.New("a run of the pipeline is already in progress")

// Launch validates the table registry, opens connections and starts a run.
// Only one run may be unfinished at a time; otherwise ErrRunInProgress is returned.
// If block is true it waits for the run to finish and returns the run error.
// Connections are closed when the run finishes.
func (l *Launcher) Launch(ctx context.Context, block bool) (guid string, err error) {
	l.setDefaults()
	if !l.RunInfo.BeginLaunch() {
		return "", ErrRunInProgress
	}
	defer l.RunInfo.EndLaunch()
	if l.Config.ValidateSchemas && !l.SkipValidate {
		if err = td.ValidateRegistry(l.Registry); err != nil {
			return "", errors.Wrap(err, "startup validation failed")
		}
		l.Log.Debug("Source query projections match the table schemas")
	}
	res, err := l.Open(ctx, l.Log, l.Config)
	if err != nil {
		return "", err
	}
	d, err := BuildSalesPipeline(l.pipelineConfig(res))
	if err != nil {
		res.Close()
		return "", err
	}
	opts := l.RunOptions()
	opts.OnFinish = func(runGuid string, err error) {
		res.Close()
	}
	guid, err = pipeline.LaunchDefinition(l.Log, l.RunInfo, d, opts, block)
	if guid == "" { // if the run never started...
		res.Close()
	}
	return guid, err
}

// Definition returns the pipeline definition without opening connections.
func (l *Launcher) Definition() (*pipeline.Definition, error) {
	l.setDefaults()
	return BuildSalesPipeline(l.pipelineConfig(nil))
}

func (l *Launcher) pipelineConfig(res *Resources) *SalesPipelineConfig {
	return &SalesPipelineConfig{
		Log:              l.Log,
		Registry:         l.Registry,
		Bucket:           l.Config.Bucket,
		Target:           l.Config.Target(),
		StageName:        l.Config.Warehouse.Stage,
		SetAutocommitOff: l.SetAutocommitOff,
		OutputDirectory:  l.OutputDirectory,
		Resources:        res,
	}
}
