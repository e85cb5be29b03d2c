package cmd

import (
	"net"

	"github.com/relloyd/salespipe/actions"
	"github.com/spf13/cobra"
)

var serveFlags = pipelineFlags{}

var serveConfig = actions.ServeConfig{
	LogLevel: "info",
	Web: actions.WebServerConfig{
		Scheme: "http",
		Addr:   net.IP{0, 0, 0, 0},
		Port:   8080,
	},
}

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a web service that launches runs on request",
	Long: `Start a web service that launches pipeline runs and reports on them where:

  POST /launch              start a run and return its GUID
  GET  /runs                list runs with their status
  GET  /runs/{guid}/status  status of each job in the run
  GET  /runs/{guid}/stats   row counts for each job in the run
  POST /runs/{guid}/stop    stop a run
  GET  /health            returns 200 while the service is up
  GET  /metrics           Prometheus metrics
  POST /stop              shut down the service`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadPipelineConfig(cmd.Flags(), &serveFlags)
		if err != nil {
			return err
		}
		serveConfig.Pipeline = cfg
		serveConfig.SkipValidate = serveConfig.SkipValidate || !cfg.ValidateSchemas
		serveConfig.StackDumpOnPanic = stackDumpOnPanic
		cmd.SilenceUsage = true
		return actions.RunServe(&serveConfig)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().SortFlags = false
	serveCmd.Flags().IPVarP(&serveConfig.Web.Addr, "address", "A", net.IP{0, 0, 0, 0}, "Address to listen on")
	switches.addFlag(serveCmd, &serveConfig.Web.Port, "port", "8080", false, "")
	addPipelineFlags(serveCmd, &serveFlags)
	switches.addFlag(serveCmd, &serveConfig.SkipValidate, "skip-validate", "false", false, "")
	switches.addFlag(serveCmd, &serveConfig.LogLevel, "log-level", "info", false, "")
}
