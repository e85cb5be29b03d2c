package cmd

import (
	"context"

	"github.com/relloyd/salespipe/actions"
	"github.com/spf13/cobra"
)

var runCfg = actions.RunConfig{WithSignals: true}
var runFlags = pipelineFlags{}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sales pipeline once",
	Long: `Run the sales pipeline once and wait for it to finish.

The tables are extracted from SQL Server to CSV files in S3, then loaded into Snowflake from the
external stage and finally transformed_sales_data is rebuilt. The exit status is non-zero if any job
failed after its retries.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadPipelineConfig(cmd.Flags(), &runFlags)
		if err != nil {
			return err
		}
		runCfg.Pipeline = cfg
		runCfg.SkipValidate = runCfg.SkipValidate || !cfg.ValidateSchemas
		runCfg.StackDumpOnPanic = stackDumpOnPanic
		cmd.SilenceUsage = true
		return actions.RunPipeline(context.Background(), &runCfg)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().SortFlags = false
	addPipelineFlags(runCmd, &runFlags)
	switches.addFlag(runCmd, &runCfg.SkipValidate, "skip-validate", "false", false, "")
	switches.addFlag(runCmd, &runCfg.LogLevel, "log-level", "info", false, "")
}
