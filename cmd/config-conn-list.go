package cmd

import (
	"fmt"

	"github.com/relloyd/salespipe/actions"
	"github.com/relloyd/salespipe/config"
	"github.com/spf13/cobra"
)

var configConnListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print all connections",
	Long: fmt.Sprintf(`List connections stored in config store %q
by printing them all to STDOUT with passwords redacted`,
		config.Main.FullPath),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := getConnectionGetterSetter()
		if err != nil {
			return err
		}
		return actions.RunConnectionList(&actions.ConnectionConfig{ConfigFile: f, Out: cmd.OutOrStdout()})
	},
}

func initConnList() {
	configConnCmd.AddCommand(configConnListCmd)
}
