package components

import (
	"context"
	"fmt"

	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/rdbms/shared"
)

// sqlExecer is satisfied by both shared.Connector and shared.Transacter.
type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (shared.Result, error)
}

// execAndLog executes query and logs the number of rows affected when the driver reports it.
func execAndLog(ctx context.Context, log logger.Logger, name string, db sqlExecer, query string) (rowsAffected int64, err error) {
	log.Debug(name, " executing query: ", query)
	res, err := db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("%v error received while executing SQL: '%v': %w", name, query, err)
	}
	if res != nil {
		i, e := res.RowsAffected()
		if e == nil { // if we have the number of rows affected...
			log.Info(name, " rows affected: ", i)
			rowsAffected = i
		} // else the error is only concerned with number of rows affected, which can be 0 for DDL, even COPY INTO is DDL.
	}
	return rowsAffected, nil
}

// snowflakeRollback rolls back tx if rollbackRequired is set.
func snowflakeRollback(log logger.Logger, name string, tx shared.Transacter, rollbackRequired *bool) {
	log.Debug(name, " deferred rollback: required = ", *rollbackRequired)
	if *rollbackRequired { // if rollback is required...
		err := tx.Rollback()
		*rollbackRequired = false
		if err != nil {
			log.Error(name, " received error while executing rollback: ", err)
			return
		}
		log.Info(name, " rollback complete")
	}
}
