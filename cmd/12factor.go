package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/relloyd/salespipe/actions"
	"github.com/relloyd/salespipe/config"
	c "github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/helper"
	"github.com/relloyd/salespipe/logger"
)

// init will be called first due to the lexical order in which these functions are executed.
// This ensures the value of twelveFactorMode is set such that other init() functions that configure
// Cobra can do the job of processing all environment variables that would contain equivalent of the CLI flag
// structures used by the actions.
func init() {
	setupTwelveFactorMode()
}

// setupTwelveFactorMode will enable or disable 12 factor mode based on environment variable.
// Variables in the optional dotEnvFiles are loaded first; those already set in the environment win.
func setupTwelveFactorMode() {
	_ = godotenv.Load(dotEnvFiles...)
	mode := os.Getenv(envVarTwelveFactorMode)
	if mode != "" { // if variable for 12factor mode is set and we should read env vars to determine actions...
		twelveFactorMode = true
		lambdaMode = strings.ToLower(mode) == "lambda"
	} else { // else 12factor mode should be off...
		twelveFactorMode = false // explicitly turn off this mode since tests may have turned it on while others require it off.
		lambdaMode = false
	}
}

const (
	envVarTwelveFactorMode = c.EnvVarPrefix + "_" + "12FACTOR_MODE"
	envVarCommand          = c.EnvVarPrefix + "_" + "COMMAND"
	envVarLogLevel         = c.EnvVarPrefix + "_" + "LOG_LEVEL"
	envVarStackDump        = c.EnvVarPrefix + "_" + "STACK_DUMP"
)

var (
	dotEnvFiles      []string // empty loads ./.env
	twelveFactorMode bool     // true if os env var envVarTwelveFactorMode is set
	lambdaMode       bool     // true if os env var envVarTwelveFactorMode is set to "lambda"
	twelveFactorVars = map[string]string{
		envVarCommand:   "",
		envVarLogLevel:  "",
		envVarStackDump: "",
		helper.GetDsnEnvVarName(config.ConnectionNameSource):    "",
		helper.GetDsnEnvVarName(config.ConnectionNameWarehouse): "",
		config.EnvVarBucketName:                                 "",
		config.EnvVarBucketPrefix:                               "",
		config.EnvVarBucketRegion:                               "",
		config.EnvVarWarehouseDatabase:                          "",
		config.EnvVarWarehouseSchema:                            "",
		config.EnvVarWarehouseStage:                             "",
		config.EnvVarRetryMaxAttempts:                           "",
		config.EnvVarRetryBackoffSeconds:                        "",
		config.EnvVarMaxActiveJobs:                              "",
		config.EnvVarJobTimeoutSeconds:                          "",
		config.EnvVarValidateSchemas:                            "",
	}
	twelveFactorVarsSensitive = map[string]string{ // used to flag some of the above variables as being sensitive.
		helper.GetDsnEnvVarName(config.ConnectionNameSource):    "",
		helper.GetDsnEnvVarName(config.ConnectionNameWarehouse): "",
	}
)

type twelveFactorAction struct {
	runnerFunc func(log logger.Logger, logLevel string) error
}

// twelveFactorActions are the commands that can be run using SP_COMMAND.
// The pipeline config is read from the environment only.
var twelveFactorActions = map[string]twelveFactorAction{
	"run": {
		runnerFunc: func(log logger.Logger, logLevel string) error {
			cfg, err := loadPipelineConfig(nil, nil)
			if err != nil {
				return err
			}
			return actions.RunPipeline(context.Background(), &actions.RunConfig{
				LogLevel:         logLevel,
				StackDumpOnPanic: stackDumpOnPanic,
				Pipeline:         cfg,
				SkipValidate:     !cfg.ValidateSchemas,
				WithSignals:      !lambdaMode,
			})
		},
	},
	"validate": {
		runnerFunc: func(log logger.Logger, logLevel string) error {
			cfg, err := loadPipelineConfig(nil, nil)
			if err != nil {
				return err
			}
			return actions.RunValidate(context.Background(), &actions.ValidateConfig{
				LogLevel:         logLevel,
				StackDumpOnPanic: stackDumpOnPanic,
				Pipeline:         cfg,
				Live:             true,
			})
		},
	},
	"plan": {
		runnerFunc: func(log logger.Logger, logLevel string) error {
			cfg, err := loadPipelineConfig(nil, nil)
			if err != nil {
				return err
			}
			return actions.RunPlan(&actions.PlanConfig{
				LogLevel:         logLevel,
				StackDumpOnPanic: stackDumpOnPanic,
				Pipeline:         cfg,
				Format:           "json",
			})
		},
	},
}

// twelveFactorCommands returns the sorted names of the actions available in acts.
func twelveFactorCommands(acts map[string]twelveFactorAction) []string {
	names := make([]string, 0, len(acts))
	for k := range acts {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func getConnectionGetterSetter() (actions.ConnectionGetterSetter, error) {
	if twelveFactorMode {
		return nil, fmt.Errorf("connections cannot be configured when %v is set (supply them using %v and %v instead)",
			envVarTwelveFactorMode,
			helper.GetDsnEnvVarName(config.ConnectionNameSource),
			helper.GetDsnEnvVarName(config.ConnectionNameWarehouse))
	}
	return config.Main, nil
}

func execute12FactorMode(acts map[string]twelveFactorAction) (err error) {
	logLevel := helper.ReadValueFromEnvWithDefault(envVarLogLevel, "warn") // fetch logLevel from env as this is not a persistent flag, given that we wanted different logging defaults per cobra action.
	stackDumpOnPanic = helper.GetTrueFalseStringAsBool(os.Getenv(envVarStackDump))
	log := logger.NewLogger(c.ServiceName, logLevel, stackDumpOnPanic)
	log.Info("Salespipe is running in 12 Factor mode...")
	// Save values for the required variables.
	for k := range twelveFactorVars { // for each env variable that we need...
		// Save it and log it.
		twelveFactorVars[k] = os.Getenv(k)
		if _, sensitive := twelveFactorVarsSensitive[k]; !sensitive { // if the env variable does not contain sensitive values...
			log.Debug(k, "=", twelveFactorVars[k])
		} else { // else output obfuscated value...
			log.Debug(k, "=", "<obfuscated>")
		}
	}
	// Use command to fetch the appropriate action.
	cmd := strings.ToLower(strings.TrimSpace(twelveFactorVars[envVarCommand]))
	a, ok := acts[cmd]
	if !ok {
		err = fmt.Errorf("invalid command %q in %v, expected one of %v", cmd, envVarCommand, strings.Join(twelveFactorCommands(acts), ", "))
		log.Error(err.Error())
		return
	}
	// Run the action.
	if err = a.runnerFunc(log, logLevel); err != nil {
		log.Error("Error: ", err)
	}
	return err
}
