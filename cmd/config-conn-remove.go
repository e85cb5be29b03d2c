package cmd

import (
	"fmt"

	"github.com/relloyd/salespipe/actions"
	"github.com/relloyd/salespipe/config"
	"github.com/spf13/cobra"
)

var connRemoveCfg = actions.ConnectionConfig{}

var configConnRemoveCmd = &cobra.Command{
	Use:     "remove",
	Aliases: []string{"rm", "del", "delete"},
	Short:   "Remove a connection",
	Long:    fmt.Sprintf("Remove a connection from config file %q", config.Main.FullPath),
	RunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if connRemoveCfg.ConfigFile, err = getConnectionGetterSetter(); err != nil {
			return err
		}
		connRemoveCfg.Out = cmd.OutOrStdout()
		return actions.RunConnectionRemove(&connRemoveCfg)
	},
}

func initConnRemove() {
	configConnCmd.AddCommand(configConnRemoveCmd)
	configConnRemoveCmd.Flags().StringVarP(&connRemoveCfg.Name, "name", "n", "",
		fmt.Sprintf("The connection to remove (%v or %v)", config.ConnectionNameSource, config.ConnectionNameWarehouse))
	_ = configConnRemoveCmd.MarkFlagRequired("name")
	configConnRemoveCmd.SilenceUsage = true
}
