package config

import (
	"fmt"
	"time"

	"github.com/relloyd/salespipe/aws/s3"
	"github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/helper"
	"github.com/relloyd/salespipe/rdbms"
	"github.com/relloyd/salespipe/rdbms/shared"
	"github.com/relloyd/salespipe/retry"
)

const (
	ConnectionNameSource    = "source"
	ConnectionNameWarehouse = "warehouse"
)

// Environment variables that override values found in the config file.
var (
	EnvVarBucketName          = helper.GetEnvVarName("BUCKET_NAME")
	EnvVarBucketPrefix        = helper.GetEnvVarName("BUCKET_PREFIX")
	EnvVarBucketRegion        = helper.GetEnvVarName("BUCKET_REGION")
	EnvVarWarehouseDatabase   = helper.GetEnvVarName("WAREHOUSE_DATABASE")
	EnvVarWarehouseSchema     = helper.GetEnvVarName("WAREHOUSE_SCHEMA")
	EnvVarWarehouseStage      = helper.GetEnvVarName("WAREHOUSE_STAGE")
	EnvVarRetryMaxAttempts    = helper.GetEnvVarName("RETRY_MAX_ATTEMPTS")
	EnvVarRetryBackoffSeconds = helper.GetEnvVarName("RETRY_BACKOFF_SECONDS")
	EnvVarSchedule            = helper.GetEnvVarName("SCHEDULE")
	EnvVarMaxActiveJobs       = helper.GetEnvVarName("MAX_ACTIVE_JOBS")
	EnvVarJobTimeoutSeconds   = helper.GetEnvVarName("JOB_TIMEOUT_SECONDS")
	EnvVarValidateSchemas     = helper.GetEnvVarName("VALIDATE_SCHEMAS")
	EnvVarStatsDumpFrequency  = helper.GetEnvVarName("STATS_DUMP_FREQUENCY_SECONDS")
)

type Connections struct {
	Source    shared.ConnectionDetails `yaml:"source" mapstructure:"source"`
	Warehouse shared.ConnectionDetails `yaml:"warehouse" mapstructure:"warehouse"`
}

type Warehouse struct {
	Database string `errorTxt:"warehouse database" mandatory:"yes" yaml:"database" mapstructure:"database"`
	Schema   string `errorTxt:"warehouse schema" mandatory:"yes" yaml:"schema" mapstructure:"schema"`
	Stage    string `errorTxt:"warehouse external stage" mandatory:"yes" yaml:"stage" mapstructure:"stage"`
}

type Retry struct {
	MaxAttempts    int `yaml:"maxAttempts" mapstructure:"maxAttempts"`
	BackoffSeconds int `yaml:"backoffSeconds" mapstructure:"backoffSeconds"`
}

// Policy converts r into the retry policy handed to every job.
func (r Retry) Policy() retry.Policy {
	return retry.Policy{
		MaxAttempts: r.MaxAttempts,
		Backoff:     time.Duration(r.BackoffSeconds) * time.Second,
	}
}

// Alerts are carried for parity with the schedule this pipeline replaces.
// Nothing sends alerts.
type Alerts struct {
	EmailOnFailure bool `yaml:"emailOnFailure" mapstructure:"emailOnFailure"`
	EmailOnRetry   bool `yaml:"emailOnRetry" mapstructure:"emailOnRetry"`
}

// PipelineConfig holds everything needed to build and run the sales pipeline.
type PipelineConfig struct {
	Connections               Connections    `yaml:"connections" mapstructure:"connections"`
	Bucket                    s3.AwsS3Bucket `yaml:"bucket" mapstructure:"bucket"`
	Warehouse                 Warehouse      `yaml:"warehouse" mapstructure:"warehouse"`
	Retry                     Retry          `yaml:"retry" mapstructure:"retry"`
	Schedule                  string         `yaml:"schedule" mapstructure:"schedule"`
	StartDate                 string         `yaml:"startDate" mapstructure:"startDate"`
	MaxActiveJobs             int64          `yaml:"maxActiveJobs" mapstructure:"maxActiveJobs"`
	JobTimeoutSeconds         int            `yaml:"jobTimeoutSeconds" mapstructure:"jobTimeoutSeconds"`
	ValidateSchemas           bool           `yaml:"validateSchemas" mapstructure:"validateSchemas"`
	StatsDumpFrequencySeconds int            `yaml:"statsDumpFrequencySeconds" mapstructure:"statsDumpFrequencySeconds"`
	Alerts                    Alerts         `yaml:"alerts" mapstructure:"alerts"`
}

// DefaultPipelineConfig returns the values used when neither the config file nor the environment say otherwise.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Connections: Connections{
			Source: shared.ConnectionDetails{
				Type:        constants.ConnectionTypeSqlServer,
				LogicalName: constants.DefaultSourceLogicalName,
				Data:        map[string]string{},
			},
			Warehouse: shared.ConnectionDetails{
				Type:        constants.ConnectionTypeSnowflake,
				LogicalName: constants.DefaultWarehouseName,
				Data:        map[string]string{},
			},
		},
		Bucket: s3.AwsS3Bucket{
			Name:   constants.DefaultBucketName,
			Region: constants.DefaultBucketRegion,
		},
		Warehouse: Warehouse{
			Database: constants.DefaultWarehouseDatabase,
			Schema:   constants.DefaultWarehouseSchema,
			Stage:    constants.DefaultStageName,
		},
		Retry: Retry{
			MaxAttempts:    constants.DefaultRetryMaxAttempts,
			BackoffSeconds: constants.DefaultRetryDelaySeconds,
		},
		Schedule:                  constants.DefaultScheduleSpec,
		StartDate:                 constants.DefaultStartDate,
		ValidateSchemas:           true,
		StatsDumpFrequencySeconds: constants.StatsCaptureFrequencySeconds,
	}
}

// LoadPipelineConfig starts from the defaults, then applies the file f (if it exists) and finally the environment.
// f may be nil to skip the file, as in twelve factor mode.
func LoadPipelineConfig(f *File) (PipelineConfig, error) {
	cfg := DefaultPipelineConfig()
	if f != nil {
		if err := f.Decode(&cfg); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields of cfg with any SP_* environment variables that are set.
func (cfg *PipelineConfig) ApplyEnv() (err error) {
	if dsn := helper.ReadValueFromEnvWithDefault(helper.GetDsnEnvVarName(ConnectionNameSource), ""); dsn != "" {
		setDsn(&cfg.Connections.Source, dsn)
	}
	if dsn := helper.ReadValueFromEnvWithDefault(helper.GetDsnEnvVarName(ConnectionNameWarehouse), ""); dsn != "" {
		setDsn(&cfg.Connections.Warehouse, dsn)
	}
	cfg.Bucket.Name = helper.ReadValueFromEnvWithDefault(EnvVarBucketName, cfg.Bucket.Name)
	cfg.Bucket.Prefix = helper.ReadValueFromEnvWithDefault(EnvVarBucketPrefix, cfg.Bucket.Prefix)
	cfg.Bucket.Region = helper.ReadValueFromEnvWithDefault(EnvVarBucketRegion, cfg.Bucket.Region)
	cfg.Warehouse.Database = helper.ReadValueFromEnvWithDefault(EnvVarWarehouseDatabase, cfg.Warehouse.Database)
	cfg.Warehouse.Schema = helper.ReadValueFromEnvWithDefault(EnvVarWarehouseSchema, cfg.Warehouse.Schema)
	cfg.Warehouse.Stage = helper.ReadValueFromEnvWithDefault(EnvVarWarehouseStage, cfg.Warehouse.Stage)
	cfg.Schedule = helper.ReadValueFromEnvWithDefault(EnvVarSchedule, cfg.Schedule)
	if cfg.Retry.MaxAttempts, err = helper.ReadIntFromEnvWithDefault(EnvVarRetryMaxAttempts, cfg.Retry.MaxAttempts); err != nil {
		return err
	}
	if cfg.Retry.BackoffSeconds, err = helper.ReadIntFromEnvWithDefault(EnvVarRetryBackoffSeconds, cfg.Retry.BackoffSeconds); err != nil {
		return err
	}
	n, err := helper.ReadIntFromEnvWithDefault(EnvVarMaxActiveJobs, int(cfg.MaxActiveJobs))
	if err != nil {
		return err
	}
	cfg.MaxActiveJobs = int64(n)
	if cfg.JobTimeoutSeconds, err = helper.ReadIntFromEnvWithDefault(EnvVarJobTimeoutSeconds, cfg.JobTimeoutSeconds); err != nil {
		return err
	}
	if cfg.StatsDumpFrequencySeconds, err = helper.ReadIntFromEnvWithDefault(EnvVarStatsDumpFrequency, cfg.StatsDumpFrequencySeconds); err != nil {
		return err
	}
	if v := helper.ReadValueFromEnvWithDefault(EnvVarValidateSchemas, ""); v != "" {
		cfg.ValidateSchemas = helper.GetTrueFalseStringAsBool(v)
	}
	return nil
}

// Validate checks that mandatory values are present and sane.
func (cfg PipelineConfig) Validate() error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	if err := cfg.Bucket.Parse(); err != nil {
		return fmt.Errorf("bad bucket configuration: %w", err)
	}
	for name, c := range map[string]shared.ConnectionDetails{
		ConnectionNameSource:    cfg.Connections.Source,
		ConnectionNameWarehouse: cfg.Connections.Warehouse,
	} {
		if shared.GetDsnConnectionDetails(&c).Dsn == "" {
			return fmt.Errorf("connection %q has no DSN: set it in the config file or via %v", name, helper.GetDsnEnvVarName(name))
		}
	}
	if err := cfg.Retry.Policy().Validate(); err != nil {
		return err
	}
	if cfg.MaxActiveJobs < 0 || cfg.JobTimeoutSeconds < 0 {
		return fmt.Errorf("maxActiveJobs and jobTimeoutSeconds must not be negative")
	}
	return nil
}

// Target returns the <database>.<schema> that holds the warehouse tables.
func (cfg PipelineConfig) Target() rdbms.SchemaTable {
	return rdbms.NewSchemaTable(cfg.Warehouse.Database, cfg.Warehouse.Schema, "")
}

// JobTimeout returns the per-attempt timeout, zero meaning none.
func (cfg PipelineConfig) JobTimeout() time.Duration {
	return time.Duration(cfg.JobTimeoutSeconds) * time.Second
}

func setDsn(c *shared.ConnectionDetails, dsn string) {
	if c.Data == nil {
		c.Data = make(map[string]string)
	}
	c.Data[shared.DefaultDsnConnectionKeyNames.Dsn] = dsn
}
