package actions

import (
	"context"
	"fmt"

	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/helper"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/pipeline"
)

type RunConfig struct {
	LogLevel         string `errorTxt:"log level" mandatory:"yes"`
	StackDumpOnPanic bool
	Pipeline         config.PipelineConfig
	SkipValidate     bool
	WithSignals      bool // stop the run on SIGINT or SIGTERM.
	Open             ResourceOpener
}

// RunPipeline runs the sales pipeline once and blocks until it finishes.
func RunPipeline(ctx context.Context, cfg *RunConfig) error {
	if cfg == nil {
		return fmt.Errorf("nil pointer for run config supplied")
	}
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
		Open:             cfg.Open,
		SkipValidate:     cfg.SkipValidate,
		SetAutocommitOff: true,
		CleanupHandler:   pipeline.CleanupHandlerWithoutSignals,
	}
	if cfg.WithSignals {
		l.CleanupHandler = pipeline.CleanupHandlerWithSignals
	}
	_, err := l.Launch(ctx, true)
	return err
}
