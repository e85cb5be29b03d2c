package components

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/relloyd/salespipe/aws/s3"
	"github.com/relloyd/salespipe/helper"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/rdbms"
	"github.com/relloyd/salespipe/rdbms/shared"
	"github.com/relloyd/salespipe/stats"
	td "github.com/relloyd/salespipe/table-definition"
)

// SnowflakeSqlBuilderFunc should return a slice of SQL statements for SnowflakeTableLoader to execute in one transaction.
type SnowflakeSqlBuilderFunc func(tableName rdbms.SchemaTable, columns []string, stageName string, fileName string) []string

type SnowflakeTableLoaderConfig struct {
	Log                    logger.Logger
	Name                   string
	Db                     shared.Connector        // connection to target snowflake database abstracted via interface.
	Table                  td.TableSpec            // the schema of the staged file and target table.
	TargetSchemaTableName  rdbms.SchemaTable       // the <database>.<schema>.<table> to load into.
	StageName              string                  // the external stage that can access the bucket.
	StagePrefix            string                  // the bucket prefix beneath the stage.
	SetAutocommitOff       bool                    // set to true to issue "alter session set autocommit = false" in the transaction.
	FnGetSnowflakeSqlSlice SnowflakeSqlBuilderFunc // func that will be used to fetch the SQL statements that replace the table contents.
	JobWatcher             *stats.JobWatcher       // optional stats collector.
}

// SnowflakeTableLoader replaces the contents of the target table with the staged CSV file.
// It creates the table if it does not exist, using column types mapped from the TableSpec schema.
// Then, in one transaction, it executes the statements from FnGetSnowflakeSqlSlice and commits.
// Any error rolls back the transaction so the previous table contents survive.
func SnowflakeTableLoader(ctx context.Context, cfg *SnowflakeTableLoaderConfig) error {
	cfg.Log.Info(cfg.Name, " is running")
	if cfg.FnGetSnowflakeSqlSlice == nil {
		cfg.FnGetSnowflakeSqlSlice = GetSqlSliceSnowflakeDeleteAndCopyInto
	}
	// Create the target table.
	ddl, err := GetSqlSnowflakeCreateTable(cfg.TargetSchemaTableName, cfg.Table)
	if err != nil {
		return err
	}
	if _, err = execAndLog(ctx, cfg.Log, cfg.Name, cfg.Db, ddl); err != nil {
		return err
	}
	// Start a transaction.
	tx, err := cfg.Db.BeginTx(ctx)
	if err != nil {
		return errors.Wrapf(err, "%v received error starting Snowflake transaction", cfg.Name)
	}
	rollbackRequired := true
	defer snowflakeRollback(cfg.Log, cfg.Name, tx, &rollbackRequired)
	if cfg.SetAutocommitOff {
		if _, err = execAndLog(ctx, cfg.Log, cfg.Name, tx, "alter session set autocommit = false"); err != nil {
			return err
		}
		cfg.Log.Debug(cfg.Name, " set autocommit false")
	}
	stagedFile := s3.JoinKey(cfg.StagePrefix, cfg.Table.StagedFileName())
	cfg.Log.Info(cfg.Name, " loading into table '", cfg.TargetSchemaTableName, "' from stage '", cfg.StageName, "' file name '", stagedFile, "'")
	queries := cfg.FnGetSnowflakeSqlSlice(cfg.TargetSchemaTableName, cfg.Table.ColumnNames(), cfg.StageName, stagedFile)
	var loaded int64
	for _, stmt := range queries { // for each SQL that we should execute...
		n, err := execAndLog(ctx, cfg.Log, cfg.Name, tx, stmt)
		if err != nil {
			return err
		}
		if isCopyInto(stmt) {
			loaded += n
		}
	}
	// Commit changes.
	// If we don't get here the deferred func will rollback.
	if err = tx.Commit(); err != nil {
		return errors.Wrapf(err, "%v received error while executing commit", cfg.Name)
	}
	rollbackRequired = false
	cfg.JobWatcher.AddRows(loaded)
	cfg.Log.Info(cfg.Name, " complete")
	return nil
}

func isCopyInto(stmt string) bool {
	return strings.HasPrefix(helper.ToLowerTrim(stmt), "copy into")
}

// GetSqlSnowflakeCreateTable generates DDL to create tableName with the columns of t unless it exists.
func GetSqlSnowflakeCreateTable(tableName rdbms.SchemaTable, t td.TableSpec) (string, error) {
	cols, err := td.ConvertTableSpecToSnowflake(t)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("create table if not exists %v (%v)", tableName, cols), nil
}

// GetSqlSliceSnowflakeDeleteAndCopyInto generates SQL to delete all rows from tableName
// and copy the CSV at STAGE/fileName into it.
// The header row is skipped and the load aborts on the first bad row.
// Force is always used since the file name is reused every run.
func GetSqlSliceSnowflakeDeleteAndCopyInto(tableName rdbms.SchemaTable, columns []string, stageName string, fileName string) []string {
	stagedFile := path.Join(stageName, fileName)
	return []string{
		fmt.Sprintf("delete from %v", tableName),
		fmt.Sprintf("copy into %v (%v) from '@%v' "+
			"file_format = (type = csv field_delimiter = ',' skip_header = 1 field_optionally_enclosed_by = '\"') "+
			"force = true on_error = abort_statement",
			tableName, helper.StringsToCsv(columns), stagedFile),
	}
}
