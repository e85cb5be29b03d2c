package cmd

import (
	"fmt"

	"github.com/relloyd/salespipe/actions"
	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/constants"
	"github.com/spf13/cobra"
)

var configConnAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a connection",
	Long:  `Add the SQL Server source or the Snowflake warehouse connection used by the pipeline.`,
}

var configConnSqlServerCfg = &actions.ConnectionConfig{Name: config.ConnectionNameSource, Type: constants.ConnectionTypeSqlServer}
var sqlServerDsn string

var configConnAddSqlServerCmd = &cobra.Command{
	Use:   "sqlserver",
	Short: "Add the SQL Server source connection",
	Long: fmt.Sprintf(`Add the SQL Server connection %q to the config store %q
by providing a DSN of the form:

sqlserver://<user>:<password>@<host>:<port>?database=<database>`,
		config.ConnectionNameSource, config.Main.FullPath),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConnAdd(cmd, configConnSqlServerCfg, sqlServerDsn)
	},
}

var configConnSnowflakeCfg = &actions.ConnectionConfig{Name: config.ConnectionNameWarehouse, Type: constants.ConnectionTypeSnowflake}
var snowflakeDsn string

var configConnAddSnowflakeCmd = &cobra.Command{
	Use:   "snowflake",
	Short: "Add the Snowflake warehouse connection",
	Long: fmt.Sprintf(`Add the Snowflake connection %q to the config store %q
by providing a DSN of the form:

snowflake://<user>:<password>@<account>/<database-name>?schema=<schema>&warehouse=<warehouse>&role=<role>`,
		config.ConnectionNameWarehouse, config.Main.FullPath),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConnAdd(cmd, configConnSnowflakeCfg, snowflakeDsn)
	},
}

func runConnAdd(cmd *cobra.Command, cfg *actions.ConnectionConfig, dsn string) error {
	var err error
	if cfg.ConfigFile, err = getConnectionGetterSetter(); err != nil {
		return err
	}
	if cfg.ConnDetails, err = actions.NewConnectionValidator(cfg.Type, dsn); err != nil {
		return err
	}
	cfg.Out = cmd.OutOrStdout()
	cmd.SilenceUsage = true
	return actions.RunConnectionAdd(cfg)
}

func initConnAdd() {
	configConnCmd.AddCommand(configConnAddCmd)
	for _, x := range []struct {
		cmd *cobra.Command
		cfg *actions.ConnectionConfig
		dsn *string
	}{
		{configConnAddSqlServerCmd, configConnSqlServerCfg, &sqlServerDsn},
		{configConnAddSnowflakeCmd, configConnSnowflakeCfg, &snowflakeDsn},
	} {
		configConnAddCmd.AddCommand(x.cmd)
		x.cmd.Flags().SortFlags = false
		switches.addFlag(x.cmd, x.dsn, "dsn", "", true, "")
		switches.addFlag(x.cmd, &x.cfg.LogicalName, "connection-name", "", false, "")
		switches.addFlag(x.cmd, &x.cfg.Force, "force-connection", "", false, "")
	}
}
