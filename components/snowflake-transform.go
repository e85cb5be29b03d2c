package components

import (
	"context"
	"fmt"

	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/rdbms"
	"github.com/relloyd/salespipe/rdbms/shared"
)

type SnowflakeTransformConfig struct {
	Log                   logger.Logger
	Name                  string
	Db                    shared.Connector  // connection to target snowflake database.
	TargetSchemaTableName rdbms.SchemaTable // the <database>.<schema>.<table> to replace.
	SelectSql             string            // the query whose results replace the target table.
}

// SnowflakeTransform replaces the target table with the results of SelectSql in a single statement.
func SnowflakeTransform(ctx context.Context, cfg *SnowflakeTransformConfig) error {
	cfg.Log.Info(cfg.Name, " is running")
	query := GetSqlSnowflakeCreateOrReplaceTableAs(cfg.TargetSchemaTableName, cfg.SelectSql)
	if _, err := execAndLog(ctx, cfg.Log, cfg.Name, cfg.Db, query); err != nil {
		return err
	}
	cfg.Log.Info(cfg.Name, " complete")
	return nil
}

// GetSqlSnowflakeCreateOrReplaceTableAs generates CTAS SQL that atomically replaces tableName.
func GetSqlSnowflakeCreateOrReplaceTableAs(tableName rdbms.SchemaTable, selectSql string) string {
	return fmt.Sprintf("create or replace table %v as %v", tableName, selectSql)
}
