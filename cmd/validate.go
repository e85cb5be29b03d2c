package cmd

import (
	"context"

	"github.com/relloyd/salespipe/actions"
	"github.com/spf13/cobra"
)

var validateCfg = actions.ValidateConfig{}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that each source query selects the columns of its table schema",
	Long: `Check that the projection of each source query matches the columns of its table schema,
by name and in order. Use --live to also ask SQL Server for the columns and types each query returns.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadPipelineConfig(cmd.Flags(), nil)
		if err != nil {
			return err
		}
		validateCfg.Pipeline = cfg
		validateCfg.StackDumpOnPanic = stackDumpOnPanic
		validateCfg.Out = cmd.OutOrStdout()
		cmd.SilenceUsage = true
		return actions.RunValidate(context.Background(), &validateCfg)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().SortFlags = false
	switches.addFlag(validateCmd, &validateCfg.Live, "live", "false", false, "")
	switches.addFlag(validateCmd, &validateCfg.LogLevel, "log-level", "warn", false, "")
}
