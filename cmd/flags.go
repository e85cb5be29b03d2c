package cmd

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"

	"github.com/relloyd/salespipe/actions"
	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/helper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type cliFlag struct {
	name      string // name of flag
	val       string // default value
	shortHand string // single character name for the flag
	desc      string // description of the flag; the long text
}

type cliFlags map[string]cliFlag

var switches = cliFlags{
	"log-level": cliFlag{name: "log-level", shortHand: "l",
		desc: "Log level: \"error | warn | info | debug\""},
	"skip-validate": cliFlag{name: "skip-validate", shortHand: "V",
		desc: "Skip the startup check that each source query selects the columns of its table schema"},
	"live": cliFlag{name: "live", shortHand: "L",
		desc: "Also ask the source database for the columns and types returned by each query"},
	"output": cliFlag{name: "output", shortHand: "o",
		desc: "Specify \"yaml\" or \"json\" to print the plan"},
	"with-tables": cliFlag{name: "with-tables", shortHand: "t",
		desc: "Include the table registry with queries and schemas in the plan"},
	"port": cliFlag{name: "port", shortHand: "p",
		desc: "Port to listen on"},
	"web-service": cliFlag{name: "web-service", shortHand: "w",
		desc: "Serve the run API while scheduling"},
	"dsn": cliFlag{name: "dsn", shortHand: "d",
		desc: "Connect string of the database"},
	"connection-name": cliFlag{name: "connection-name", shortHand: "c",
		desc: "Logical name of the connection used in logs (default is source or warehouse)"},
	"force-connection": cliFlag{name: "force", shortHand: "f",
		desc: "Allow overwrite of existing connections"},
	"execute-ddl": cliFlag{name: "execute-ddl", shortHand: "e",
		desc: "Execute the generated DDL against the warehouse connection (otherwise it's printed only)"},
	"s3-key": cliFlag{name: "s3-key", shortHand: "K",
		desc: "AWS IAM user key that can access the bucket (or set AWS_ACCESS_KEY_ID)"},
	"s3-secret": cliFlag{name: "s3-secret", shortHand: "S",
		desc: "AWS IAM user secret that can access the bucket (or set AWS_SECRET_ACCESS_KEY)"},
}

// addFlag add a flag to cobra.Command c, based on the type of targetVar (which must be a pointer).
// The name of the flag is looked up in map, cliFlags.
// When running in twelveFactorMode, the targetVar is populated using the value of environment variable for the supplied
// name, or if not set then the supplied default value is used.
// When NOT running in twelveFactorMode, the default value is fetched from the defaults section of the config file
// if it exists else the supplied defaultValue is applied.
// The flag is marked as required in Cobra based on the value of required.
// Supply a value for desc2 to append to the existing description found in map cliFlags.
func (f *cliFlags) addFlag(c *cobra.Command, targetVar interface{}, name string, defaultValue string, required bool, desc2 string) {
	v := reflect.ValueOf(targetVar)
	if v.Kind() != reflect.Ptr {
		fmt.Println("error adding flag: targetVar must be a pointer")
		os.Exit(1)
	}
	sw := f.getCliFlag(name, defaultValue, config.Main.Get) // get the cliFlag details, with defaults taken from config or the supplied defaultValue
	desc := sw.desc + desc2                                 // create the full flag description for use below
	// Apply the flag.
	switch p := targetVar.(type) {
	case *string:
		if twelveFactorMode {
			*p = sw.val
		} else {
			c.Flags().StringVarP(p, sw.name, sw.shortHand, sw.val, desc)
		}
	case *bool:
		defaultBool := helper.GetTrueFalseStringAsBool(sw.val)
		if twelveFactorMode {
			*p = defaultBool
		} else {
			c.Flags().BoolVarP(p, sw.name, sw.shortHand, defaultBool, desc)
		}
	case *int:
		defaultInt := 0
		if sw.val != "" {
			var err error
			if defaultInt, err = strconv.Atoi(sw.val); err != nil {
				fmt.Printf("the value for flag %q must be an integer: %v\n", sw.name, err)
				os.Exit(1)
			}
		}
		if twelveFactorMode {
			*p = defaultInt
		} else {
			c.Flags().IntVarP(p, sw.name, sw.shortHand, defaultInt, desc)
		}
	default:
		panic("Error: unhandled CLI flag target value type")
	}
	// Optionally mark the flag as mandatory.
	if required && !twelveFactorMode && sw.val == "" { // if the flag is required and there's no default...
		_ = c.MarkFlagRequired(sw.name)
	}
}

// getCliFlag fetches the value of name from the environment, when running in twelveFactorMode,
// else read the defaults section of the Main config file to find it.
// If a value cannot be found then use the supplied defaultValue in its place.
func (f *cliFlags) getCliFlag(name string, defaultValue string, fnGetConfig func(key string, out interface{}) error) cliFlag {
	s, ok := switches[name]
	if !ok {
		panic(fmt.Sprintf("unregistered CLI flag, %q", name))
	}
	s.val = ""
	if twelveFactorMode { // if we should read env vars...
		s.val = helper.ReadValueFromEnvWithDefault(flagNameToEnvVar(name), defaultValue)
	} else { // else check the config file or apply default...
		err := fnGetConfig(actions.DefaultKey(s.name), &s.val)
		if err != nil || s.val == "" { // if there was no key found...
			if err != nil && !errors.As(err, &config.KeyNotFoundError{}) {
				fmt.Printf("warning: ignoring default for flag %q: %v\n", s.name, err)
			}
			// Apply the default.
			s.val = defaultValue
		}
	}
	return s
}

// flagNameToEnvVar will form a sanitised environment variable name, e.g. log-level becomes SP_LOG_LEVEL.
func flagNameToEnvVar(name string) string {
	return helper.GetEnvVarName(name)
}

// pipelineFlags override values from the config file and the environment.
// They are applied only when set on the command line.
type pipelineFlags struct {
	bucket        string
	prefix        string
	region        string
	database      string
	schema        string
	stage         string
	maxAttempts   int
	backoff       int
	maxActiveJobs int64
	jobTimeout    int
	stats         int
	schedule      string
	startDate     string
}

func addPipelineFlags(c *cobra.Command, p *pipelineFlags) {
	fs := c.Flags()
	fs.StringVarP(&p.bucket, "bucket", "b", "", "AWS S3 bucket name in which to stage CSV files (set AWS environment variables for access)")
	fs.StringVarP(&p.prefix, "prefix", "P", "", "AWS S3 bucket prefix")
	fs.StringVarP(&p.region, "region", "R", "", "AWS S3 bucket region")
	fs.StringVarP(&p.database, "database", "D", "", "Snowflake database of the loaded tables")
	fs.StringVarP(&p.schema, "schema", "s", "", "Snowflake schema of the loaded tables")
	fs.StringVar(&p.stage, "stage", "", "Snowflake external stage pointing at the bucket")
	fs.IntVarP(&p.maxAttempts, "max-attempts", "a", 0, "Attempts per job, including the first")
	fs.IntVarP(&p.backoff, "backoff", "B", 0, "Seconds to wait before retrying a failed job")
	fs.Int64VarP(&p.maxActiveJobs, "max-active-jobs", "j", 0, "Maximum number of concurrent jobs per stage (0 for unlimited)")
	fs.IntVarP(&p.jobTimeout, "job-timeout", "T", 0, "Seconds each job attempt may run for (0 for no timeout)")
	fs.IntVar(&p.stats, "stats", 0, "Number of seconds between dumping job statistics (use 0 to disable)")
}

func addScheduleFlags(c *cobra.Command, p *pipelineFlags) {
	c.Flags().StringVar(&p.schedule, "schedule", "", "Cron spec or descriptor such as @daily")
	c.Flags().StringVar(&p.startDate, "start-date", "", "Date (YYYY-MM-DD) before which scheduled runs are skipped")
}

// apply copies flags that were set on the command line into cfg.
func (p *pipelineFlags) apply(fs *pflag.FlagSet, cfg *config.PipelineConfig) {
	if fs == nil || p == nil {
		return
	}
	changed := func(name string) bool {
		f := fs.Lookup(name)
		return f != nil && f.Changed
	}
	if changed("bucket") {
		cfg.Bucket.Name = p.bucket
	}
	if changed("prefix") {
		cfg.Bucket.Prefix = p.prefix
	}
	if changed("region") {
		cfg.Bucket.Region = p.region
	}
	if changed("database") {
		cfg.Warehouse.Database = p.database
	}
	if changed("schema") {
		cfg.Warehouse.Schema = p.schema
	}
	if changed("stage") {
		cfg.Warehouse.Stage = p.stage
	}
	if changed("max-attempts") {
		cfg.Retry.MaxAttempts = p.maxAttempts
	}
	if changed("backoff") {
		cfg.Retry.BackoffSeconds = p.backoff
	}
	if changed("max-active-jobs") {
		cfg.MaxActiveJobs = p.maxActiveJobs
	}
	if changed("job-timeout") {
		cfg.JobTimeoutSeconds = p.jobTimeout
	}
	if changed("stats") {
		cfg.StatsDumpFrequencySeconds = p.stats
	}
	if changed("schedule") {
		cfg.Schedule = p.schedule
	}
	if changed("start-date") {
		cfg.StartDate = p.startDate
	}
}

// loadPipelineConfig builds the pipeline config from defaults, the config file, the environment and
// finally the flags in fs.
// The config file is skipped in twelveFactorMode.
func loadPipelineConfig(fs *pflag.FlagSet, p *pipelineFlags) (config.PipelineConfig, error) {
	f := config.Main
	if twelveFactorMode {
		f = nil
	}
	cfg, err := config.LoadPipelineConfig(f)
	if err != nil {
		return cfg, err
	}
	p.apply(fs, &cfg)
	return cfg, nil
}
