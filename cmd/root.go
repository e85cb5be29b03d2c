package cmd

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"
)

var (
	// Default values may be set at compile time.
	version          = "0.1.0"
	buildDate        = "2024-07-16T00:00+0000"
	osArch           = "linux"
	stackDumpOnPanic bool
)

var rootCmd = &cobra.Command{
	Use:   "sp",
	Short: "Move AdventureWorks sales data from SQL Server to Snowflake",
	Long: `Salespipe extracts the AdventureWorks sales tables from SQL Server, stages them as CSV
files in AWS S3, loads them into Snowflake and builds the denormalised table
transformed_sales_data.

Each run has three stages that execute in order:

  extract_tasks   one job per table: SQL Server query to <bucket>/<prefix>/<table>.csv
  load_tasks      one job per table: replace <database>.<schema>.<table> from the stage
  transform       transform_data: create or replace <database>.<schema>.transformed_sales_data

Run once with "run", on a schedule with "schedule" or on demand over HTTP with "serve".`,
}

func init() {
	// General setup.
	cobra.EnableCommandSorting = false
	// Global flags.
	rootCmd.PersistentFlags().BoolVar(&stackDumpOnPanic, "print-stack", false, "Print a stack dump if there is a panic")
	_ = rootCmd.PersistentFlags().MarkHidden("print-stack")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if twelveFactorMode { // if we are running based on environment variables...
		if lambdaMode { // if we should handle lambda execution...
			lambda.Start(func() error { return execute12FactorMode(twelveFactorActions) })
		} else {
			if err := execute12FactorMode(twelveFactorActions); err != nil {
				// execute12FactorMode prints the error.
				os.Exit(1)
			}
		}
	} else { // else we're using CLI args and flags via Cobra...
		if err := rootCmd.Execute(); err != nil {
			// Execute() prints the error.
			os.Exit(1)
		}
	}
}
