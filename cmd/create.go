package cmd

import (
	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Generate helpful metadata",
	Long: `Generate DDL for the following:

- Snowflake external STAGE over the bucket that extraction writes to
`,
}

func init() {
	rootCmd.AddCommand(createCmd)
}
