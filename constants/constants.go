package constants

// Pipeline

const (
	ServiceName                  = "salespipe"
	PipelineName                 = "mssql_to_snowflake_sales"
	StatsCaptureFrequencySeconds = 5
	TimeFormatCsvTimestamp       = "2006-01-02 15:04:05.000" // loads into TIMESTAMP_NTZ without a format mask.
	CsvFileExtension             = ".csv"
	CsvDelimiter                 = ','
	CsvHeaderRows                = 1
	EmojiBang                    = "\U0001F4A5"
	EnvVarPrefix                 = "SP" // prefixed for environment variables in twelveFactorMode
)

// Stage and job naming.

const (
	StageNameExtract         = "extract_tasks"
	StageNameLoad            = "load_tasks"
	StageNameTransform       = "transform"
	JobNameTransform         = "transform_data"
	JobNameExtractFmt        = "extract_%v_to_s3"
	JobNameLoadFmt           = "load_%v_to_snowflake"
	TransformedTableName     = "transformed_sales_data"
	DefaultSourceLogicalName = "mssql_default"
	DefaultWarehouseName     = "snowflake_default"
	DefaultBucketName        = "mssql-snowflake-etl-bucket"
	DefaultBucketRegion      = "us-east-1"
	DefaultStageName         = "SALES_STAGE"
	DefaultWarehouseDatabase = "ANALYTICS"
	DefaultWarehouseSchema   = "ADVENTURE_WORKS"
	DefaultStartDate         = "2024-07-16"
	DefaultScheduleSpec      = "@daily"
	DefaultRetryMaxAttempts  = 2   // one retry.
	DefaultRetryDelaySeconds = 300 // five minutes between attempts.
)

// Connection types.

const (
	ConnectionTypeSnowflake = "snowflake"
	ConnectionTypeSqlServer = "sqlserver"
)
