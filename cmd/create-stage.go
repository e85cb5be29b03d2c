package cmd

import (
	"context"

	"github.com/relloyd/salespipe/actions"
	"github.com/spf13/cobra"
)

var createStageCfg = actions.CreateStageConfig{}
var createStageFlags = pipelineFlags{}

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Create the Snowflake external STAGE that loads read the CSV files through",
	Long: `Create the Snowflake external STAGE that loads read the CSV files through.
The stage points at the configured bucket and prefix and skips the CSV header row.

The DDL is printed with the secret redacted unless --execute-ddl is supplied, in which case it
is run using the warehouse connection.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadPipelineConfig(cmd.Flags(), &createStageFlags)
		if err != nil {
			return err
		}
		createStageCfg.Pipeline = cfg
		createStageCfg.StackDumpOnPanic = stackDumpOnPanic
		createStageCfg.Out = cmd.OutOrStdout()
		cmd.SilenceUsage = true
		return actions.RunCreateStage(context.Background(), &createStageCfg)
	},
}

func init() {
	createCmd.AddCommand(stageCmd)
	stageCmd.Flags().SortFlags = false
	addPipelineFlags(stageCmd, &createStageFlags)
	switches.addFlag(stageCmd, &createStageCfg.S3Key, "s3-key", "", false, "")
	switches.addFlag(stageCmd, &createStageCfg.S3Secret, "s3-secret", "", false, "")
	switches.addFlag(stageCmd, &createStageCfg.ExecuteDDL, "execute-ddl", "", false, "")
	switches.addFlag(stageCmd, &createStageCfg.LogLevel, "log-level", "error", false, "")
}
