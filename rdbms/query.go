package rdbms

import (
	"context"
	"fmt"

	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/rdbms/shared"
)

// SqlResultHandler receives the column names and then each row of a query.
type SqlResultHandler interface {
	HandleHeader(columns []string) error
	HandleRow(values []interface{}) error
}

// SqlQuery executes sqltext and streams the results to i.
// It stops early with ctx.Err() if ctx is cancelled.
func SqlQuery(ctx context.Context, log logger.Logger, db shared.Connector, sqltext string, i SqlResultHandler) error {
	rows, err := db.QueryContext(ctx, sqltext)
	if err != nil {
		return fmt.Errorf("error during database query using SQL: '%v': %w", sqltext, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("error fetching columns: %w", err)
	}
	log.Debug("query returned columns: ", cols)
	if err = i.HandleHeader(cols); err != nil {
		return err
	}
	// Scan the values dynamically.
	numCols := len(cols)
	scanPtrs := make([]interface{}, numCols)
	scanVals := make([]interface{}, numCols)
	for idx := 0; idx < numCols; idx++ { // for each column...
		scanPtrs[idx] = &scanVals[idx]
	}
	for rows.Next() {
		if err := ctx.Err(); err != nil { // quit if asked to...
			return err
		}
		if err := rows.Scan(scanPtrs...); err != nil {
			return fmt.Errorf("error scanning row: %w", err)
		}
		row := make([]interface{}, numCols)
		copy(row, scanVals)
		if err := i.HandleRow(row); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error reading rows: %w", err)
	}
	return nil
}
