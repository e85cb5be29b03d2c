package cmd

import (
	"fmt"

	"github.com/relloyd/salespipe/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configure connections and default flag values",
	Long: fmt.Sprintf(`Configure connections & default parameters where:

- Connections and default flag values are stored in file %q
- Set %v to use a different directory
`, config.Main.FullPath, config.EnvVarHome),
}

func init() {
	rootCmd.AddCommand(configCmd)
}
