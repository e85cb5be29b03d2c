package actions

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/rdbms"
	"github.com/relloyd/salespipe/rdbms/shared"
	td "github.com/relloyd/salespipe/table-definition"
)

type ValidateConfig struct {
	LogLevel         string `errorTxt:"log level" mandatory:"yes"`
	StackDumpOnPanic bool
	Pipeline         config.PipelineConfig
	Live             bool // also describe each source query on the source database.
	Out              io.Writer
}

// RunValidate checks every table's source query projection against its schema.
// With Live set the source database is asked for the result columns of each query too.
func RunValidate(ctx context.Context, cfg *ValidateConfig) error {
	log := logger.NewLogger(constants.ServiceName, cfg.LogLevel, cfg.StackDumpOnPanic)
	var db shared.Connector
	if cfg.Live {
		var err error
		if db, err = rdbms.OpenDbConnection(ctx, log, cfg.Pipeline.Connections.Source); err != nil {
			return err
		}
		defer db.Close()
	}
	if err := ValidateSchemas(ctx, td.NewSalesRegistry(), db, td.NewSqlServerDataTypeMapper()); err != nil {
		return err
	}
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintln(out, "All table schemas are valid")
	return nil
}

// ValidateSchemas checks each table in r and returns every problem found.
// db is optional; when supplied, the columns returned by the source are checked using mapper.
func ValidateSchemas(ctx context.Context, r *td.Registry, db shared.Connector, mapper td.Mapper) error {
	var result *multierror.Error
	for _, t := range r.Tables() {
		if err := td.ValidateProjection(t); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if db != nil {
			if err := td.ValidateAgainstSource(ctx, db, mapper, t); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	return result.ErrorOrNil()
}
