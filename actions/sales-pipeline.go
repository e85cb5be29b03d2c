package actions

import (
	"context"
	"fmt"

	"github.com/relloyd/salespipe/aws/s3"
	"github.com/relloyd/salespipe/components"
	"github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/helper"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/pipeline"
	"github.com/relloyd/salespipe/rdbms"
	"github.com/relloyd/salespipe/stats"
	td "github.com/relloyd/salespipe/table-definition"
)

// SalesPipelineConfig holds what BuildSalesPipeline needs to generate the jobs.
// Resources may be nil when the definition is only printed.
type SalesPipelineConfig struct {
	Log              logger.Logger     `errorTxt:"logger" mandatory:"yes"`
	Registry         *td.Registry      `errorTxt:"table registry" mandatory:"yes"`
	Bucket           s3.AwsS3Bucket    // bucket name and prefix used in job descriptions and COPY paths.
	Target           rdbms.SchemaTable // <database>.<schema> of the warehouse tables.
	StageName        string            `errorTxt:"warehouse stage name" mandatory:"yes"`
	SetAutocommitOff bool              // issue "alter session set autocommit = false" before each load.
	OutputDirectory  string            // local directory for CSV files; default is OS temp space.
	Resources        *Resources
}

// BuildSalesPipeline returns the three stage definition:
// one extract job per registered table, one load job per registered table and a single transform job.
// Jobs are generated by iterating the registry so adding a table needs no other change.
func BuildSalesPipeline(cfg *SalesPipelineConfig) (*pipeline.Definition, error) {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Target.Validate(); err != nil {
		return nil, err
	}
	tables := cfg.Registry.Tables()
	d := &pipeline.Definition{
		Name: constants.PipelineName,
		Stages: []pipeline.Stage{
			{Name: constants.StageNameExtract, Jobs: mapTables(tables, cfg.extractJob)},
			{Name: constants.StageNameLoad, Jobs: mapTables(tables, cfg.loadJob)},
			{Name: constants.StageNameTransform, Jobs: []pipeline.Job{cfg.transformJob()}},
		},
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	cfg.Log.Debug("Built pipeline ", d.Name, " with ", len(tables), " tables")
	return d, nil
}

func mapTables(tables []td.TableSpec, fn func(t td.TableSpec) pipeline.Job) []pipeline.Job {
	retval := make([]pipeline.Job, len(tables))
	for idx, t := range tables {
		retval[idx] = fn(t)
	}
	return retval
}

func (cfg *SalesPipelineConfig) resources() (*Resources, error) {
	if cfg.Resources == nil {
		return nil, fmt.Errorf("pipeline %v was built without connections", constants.PipelineName)
	}
	return cfg.Resources, nil
}

func (cfg *SalesPipelineConfig) extractJob(t td.TableSpec) pipeline.Job {
	name := t.ExtractJobName()
	return pipeline.Job{
		Name:        name,
		Description: fmt.Sprintf("extract %v from SQL Server to %v", t.Name, cfg.Bucket.URL(t.StagedFileName())),
		Fn: func(ctx context.Context, log logger.Logger, jw *stats.JobWatcher) error {
			r, err := cfg.resources()
			if err != nil {
				return err
			}
			return components.ExtractTableToS3(ctx, &components.ExtractTableToS3Config{
				Log:             log,
				Name:            name,
				Db:              r.Source,
				Table:           t,
				Bucket:          r.Bucket,
				OutputDirectory: cfg.OutputDirectory,
				JobWatcher:      jw,
			})
		},
	}
}

func (cfg *SalesPipelineConfig) loadJob(t td.TableSpec) pipeline.Job {
	name := t.LoadJobName()
	target := cfg.Target.Join(t.WarehouseTableName())
	return pipeline.Job{
		Name:        name,
		Description: fmt.Sprintf("replace %v with %v", target, cfg.Bucket.URL(t.StagedFileName())),
		Fn: func(ctx context.Context, log logger.Logger, jw *stats.JobWatcher) error {
			r, err := cfg.resources()
			if err != nil {
				return err
			}
			return components.SnowflakeTableLoader(ctx, &components.SnowflakeTableLoaderConfig{
				Log:                    log,
				Name:                   name,
				Db:                     r.Warehouse,
				Table:                  t,
				TargetSchemaTableName:  target,
				StageName:              cfg.StageName,
				StagePrefix:            cfg.Bucket.Prefix,
				SetAutocommitOff:       cfg.SetAutocommitOff,
				FnGetSnowflakeSqlSlice: components.GetSqlSliceSnowflakeDeleteAndCopyInto,
				JobWatcher:             jw,
			})
		},
	}
}

func (cfg *SalesPipelineConfig) transformJob() pipeline.Job {
	name := constants.JobNameTransform
	target := cfg.Target.Join(constants.TransformedTableName)
	return pipeline.Job{
		Name:        name,
		Description: fmt.Sprintf("replace %v with the denormalised sales lines", target),
		Fn: func(ctx context.Context, log logger.Logger, jw *stats.JobWatcher) error {
			r, err := cfg.resources()
			if err != nil {
				return err
			}
			return components.SnowflakeTransform(ctx, &components.SnowflakeTransformConfig{
				Log:                   log,
				Name:                  name,
				Db:                    r.Warehouse,
				TargetSchemaTableName: target,
				SelectSql:             components.GetSqlSalesTransformSelect(components.QualifyWith(cfg.Target)),
			})
		},
	}
}
