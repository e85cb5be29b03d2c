package actions

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/helper"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/rdbms"
	"github.com/relloyd/salespipe/rdbms/shared"
)

const redactedSecret = "********"

type CreateStageConfig struct {
	LogLevel         string `errorTxt:"log level" mandatory:"yes"`
	StackDumpOnPanic bool
	Pipeline         config.PipelineConfig
	S3Key            string `errorTxt:"AWS S3 access key" mandatory:"yes"`
	S3Secret         string `errorTxt:"AWS S3 secret key" mandatory:"yes"`
	ExecuteDDL       bool
	Out              io.Writer
	Warehouse        shared.Connector // optional; opened from Pipeline when ExecuteDDL is set.
}

// RunCreateStage prints the DDL for the external stage that loads read the staged files through.
// With ExecuteDDL set the statement is executed on the warehouse instead.
func RunCreateStage(ctx context.Context, cfg *CreateStageConfig) error {
	// Get AWS variables from env.
	if value := os.Getenv("AWS_ACCESS_KEY_ID"); cfg.S3Key == "" && value != "" { // if the CLI didn't supply a key and there is one we can get from the env...
		cfg.S3Key = value
	}
	if value := os.Getenv("AWS_SECRET_ACCESS_KEY"); cfg.S3Secret == "" && value != "" { // if the CLI didn't supply a secret and there is one we can get from the env...
		cfg.S3Secret = value
	}
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	if err := cfg.Pipeline.Bucket.Parse(); err != nil {
		return err
	}
	stage := cfg.Pipeline.Target().Join(cfg.Pipeline.Warehouse.Stage)
	url := cfg.Pipeline.Bucket.String() + "/"
	if !cfg.ExecuteDDL {
		fmt.Fprintln(outOrStdout(cfg.Out), GetSqlSnowflakeCreateStage(stage, url, cfg.S3Key, redactedSecret)+";")
		return nil
	}
	log := logger.NewLogger(constants.ServiceName, cfg.LogLevel, cfg.StackDumpOnPanic)
	db := cfg.Warehouse
	if db == nil {
		var err error
		if db, err = rdbms.OpenDbConnection(ctx, log, cfg.Pipeline.Connections.Warehouse); err != nil {
			return err
		}
		defer db.Close()
	}
	log.Info("Creating stage ", stage, " for ", url)
	if _, err := db.ExecContext(ctx, GetSqlSnowflakeCreateStage(stage, url, cfg.S3Key, cfg.S3Secret)); err != nil {
		return fmt.Errorf("unable to create stage %v: %w", stage, err)
	}
	fmt.Fprintf(outOrStdout(cfg.Out), "Stage %v created\n", stage)
	return nil
}

// GetSqlSnowflakeCreateStage generates DDL for an external stage over the S3 location url.
// The file format matches the CSV files written by extraction.
func GetSqlSnowflakeCreateStage(stage rdbms.SchemaTable, url string, key string, secret string) string {
	return fmt.Sprintf("create or replace stage %v url = '%v' "+
		"credentials = (aws_key_id = '%v' aws_secret_key = '%v') "+
		"file_format = (type = csv field_delimiter = ',' skip_header = %v field_optionally_enclosed_by = '\"')",
		stage, url, key, secret, constants.CsvHeaderRows)
}
