package cmd

import (
	"github.com/relloyd/salespipe/actions"
	"github.com/spf13/cobra"
)

var planCfg = actions.PlanConfig{}
var planFlags = pipelineFlags{}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the stages and jobs of a run without connecting to anything",
	Long: `Print the stages and jobs that a run would execute, along with the bucket, target schema,
external stage and retry policy in use. No connections are opened.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadPipelineConfig(cmd.Flags(), &planFlags)
		if err != nil {
			return err
		}
		planCfg.Pipeline = cfg
		planCfg.StackDumpOnPanic = stackDumpOnPanic
		planCfg.Out = cmd.OutOrStdout()
		cmd.SilenceUsage = true
		return actions.RunPlan(&planCfg)
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().SortFlags = false
	switches.addFlag(planCmd, &planCfg.Format, "output", actions.OutputFormatYaml, false, "")
	switches.addFlag(planCmd, &planCfg.WithTables, "with-tables", "false", false, "")
	addScheduleFlags(planCmd, &planFlags)
	addPipelineFlags(planCmd, &planFlags)
	switches.addFlag(planCmd, &planCfg.LogLevel, "log-level", "warn", false, "")
}
