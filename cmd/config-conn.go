package cmd

import (
	"fmt"

	"github.com/relloyd/salespipe/config"
	"github.com/spf13/cobra"
)

var configConnCmd = &cobra.Command{
	Use:   "connections",
	Short: "Configure connection details",
	Long: fmt.Sprintf(`Configure the two connections used by the pipeline where:

- %q is the SQL Server database that tables are extracted from
- %q is the Snowflake database that tables are loaded into
- Connections are stored in file %q`, config.ConnectionNameSource, config.ConnectionNameWarehouse, config.Main.FullPath),
}

func init() {
	configCmd.AddCommand(configConnCmd)
	configCmd.Flags().SortFlags = false
	initConnAdd()
	initConnList()
	initConnRemove()
}
