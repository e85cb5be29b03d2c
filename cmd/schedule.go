package cmd

import (
	"net"

	"github.com/relloyd/salespipe/actions"
	"github.com/spf13/cobra"
)

var scheduleCfg = actions.ScheduleConfig{}
var scheduleFlags = pipelineFlags{}
var scheduleWebService bool
var scheduleWeb = actions.WebServerConfig{
	Scheme: "http",
	Addr:   net.IP{0, 0, 0, 0},
	Port:   8080,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the sales pipeline on a cron schedule",
	Long: `Run the sales pipeline on a cron schedule, which is daily by default.

Ticks before the start date are skipped and missed ticks are not caught up. A tick that arrives while
the previous run is still going is skipped. Use --web-service to serve the run API at the same time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadPipelineConfig(cmd.Flags(), &scheduleFlags)
		if err != nil {
			return err
		}
		scheduleCfg.Pipeline = cfg
		scheduleCfg.SkipValidate = scheduleCfg.SkipValidate || !cfg.ValidateSchemas
		scheduleCfg.StackDumpOnPanic = stackDumpOnPanic
		if scheduleWebService {
			scheduleCfg.Web = &scheduleWeb
		}
		cmd.SilenceUsage = true
		return actions.RunSchedule(&scheduleCfg)
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.Flags().SortFlags = false
	addScheduleFlags(scheduleCmd, &scheduleFlags)
	addPipelineFlags(scheduleCmd, &scheduleFlags)
	switches.addFlag(scheduleCmd, &scheduleWebService, "web-service", "false", false, "")
	switches.addFlag(scheduleCmd, &scheduleWeb.Port, "port", "8080", false, " (requires --web-service)")
	switches.addFlag(scheduleCmd, &scheduleCfg.SkipValidate, "skip-validate", "false", false, "")
	switches.addFlag(scheduleCmd, &scheduleCfg.LogLevel, "log-level", "info", false, "")
}
