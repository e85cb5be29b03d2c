package components

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/relloyd/salespipe/aws/s3"
	"github.com/relloyd/salespipe/file"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/rdbms"
	"github.com/relloyd/salespipe/rdbms/shared"
	"github.com/relloyd/salespipe/stats"
	td "github.com/relloyd/salespipe/table-definition"
)

type ExtractTableToS3Config struct {
	Log             logger.Logger
	Name            string
	Db              shared.Connector  // connection to the source database.
	Table           td.TableSpec      // the query to run and the schema used for the CSV header.
	Bucket          s3.BasicClient    // client for the staging bucket and prefix.
	OutputDirectory string            // optional directory for the local CSV file; default is OS temp space.
	JobWatcher      *stats.JobWatcher // optional stats collector.
}

// ExtractTableToS3 runs the table's source query and stages the results in the bucket as <lower>.csv.
// The CSV has a header row of schema column names followed by one line per source row.
// Any existing object with the same key is overwritten.
func ExtractTableToS3(ctx context.Context, cfg *ExtractTableToS3Config) error {
	key := cfg.Table.StagedFileName()
	cfg.Log.Info(cfg.Name, " is running")
	out, err := file.NewCSVFileOutput(cfg.Log, cfg.OutputDirectory, key)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Remove(); err != nil {
			cfg.Log.Warn(cfg.Name, " unable to remove local file: ", err)
		}
	}()
	h := &csvResultHandler{
		table:   cfg.Table,
		out:     out,
		watcher: cfg.JobWatcher,
	}
	if err = rdbms.SqlQuery(ctx, cfg.Log, cfg.Db, cfg.Table.SourceQuery, h); err != nil {
		return errors.Wrapf(err, "%v extract failed", cfg.Name)
	}
	if err = out.Close(); err != nil {
		return err
	}
	f, err := out.Open()
	if err != nil {
		return errors.Wrapf(err, "%v unable to open CSV file", cfg.Name)
	}
	defer f.Close()
	cfg.Log.Info(cfg.Name, " copying file '", out.Name(), "' to S3 key '", cfg.Bucket.KeyWithPrefix(key), "'")
	if err = cfg.Bucket.Upload(ctx, key, f); err != nil {
		return errors.Wrapf(err, "%v error uploading %v", cfg.Name, key)
	}
	cfg.JobWatcher.AddBytes(int64(out.Bytes()))
	cfg.Log.Info(cfg.Name, " complete: rows=", out.Rows(), " bytes=", out.Bytes())
	return nil
}

// csvResultHandler writes query results to a CSV file.
type csvResultHandler struct {
	table   td.TableSpec
	out     *file.CSVFileOutput
	watcher *stats.JobWatcher
}

// HandleHeader writes the schema column names.
// The query must project the same number of columns as the schema.
func (h *csvResultHandler) HandleHeader(columns []string) error {
	if len(columns) != len(h.table.Schema) {
		return fmt.Errorf("query for table %v returned %v columns but the schema has %v", h.table.Name, len(columns), len(h.table.Schema))
	}
	return h.out.WriteHeader(h.table.ColumnNames())
}

func (h *csvResultHandler) HandleRow(values []interface{}) error {
	if err := h.out.WriteValues(values); err != nil {
		return err
	}
	h.watcher.AddRows(1)
	return nil
}
