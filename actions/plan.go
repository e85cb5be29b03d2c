package actions

import (
	"io"
	"os"

	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/pipeline"
	td "github.com/relloyd/salespipe/table-definition"
)

type PlanConfig struct {
	LogLevel         string `errorTxt:"log level" mandatory:"yes"`
	StackDumpOnPanic bool
	Pipeline         config.PipelineConfig
	Format           string `errorTxt:"output format" mandatory:"yes"`
	WithTables       bool   // include the table registry in the output.
	Out              io.Writer
}

// Plan is the printable form of a pipeline run.
type Plan struct {
	Pipeline *pipeline.Definition `json:"pipeline"`
	Target   string               `json:"target"`
	Bucket   string               `json:"bucket"`
	Stage    string               `json:"stage"`
	Schedule string               `json:"schedule"`
	Retry    string               `json:"retry"`
	Tables   []td.TableSpec       `json:"tables,omitempty"`
}

// RunPlan prints the stages and jobs a run would execute without connecting to anything.
func RunPlan(cfg *PlanConfig) error {
	log := logger.NewLogger(constants.ServiceName, cfg.LogLevel, cfg.StackDumpOnPanic)
	l := &Launcher{Log: log, Config: cfg.Pipeline}
	p, err := l.Plan(cfg.WithTables)
	if err != nil {
		return err
	}
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	return writeDocument(p, out, cfg.Format)
}

// Plan describes the run that Launch would start.
func (l *Launcher) Plan(withTables bool) (*Plan, error) {
	d, err := l.Definition()
	if err != nil {
		return nil, err
	}
	p := &Plan{
		Pipeline: d,
		Target:   l.Config.Target().String(),
		Bucket:   l.Config.Bucket.String(),
		Stage:    l.Config.Warehouse.Stage,
		Schedule: l.Config.Schedule,
		Retry:    l.Config.Retry.Policy().String(),
	}
	if withTables {
		p.Tables = l.Registry.Tables()
	}
	return p, nil
}
