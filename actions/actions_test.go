package actions

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/relloyd/salespipe/aws/s3"
	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/pipeline"
	"github.com/relloyd/salespipe/rdbms/shared"
	_ "modernc.org/sqlite"
)

var errTest = errors.New("test error")

func newTestLogger(t *testing.T) logger.Logger {
	log, err := logger.NewLoggerWithOutput(ioutil.Discard, "actions test", "debug", false)
	if err != nil {
		t.Fatal(err)
	}
	return log
}

func testPipelineConfig() config.PipelineConfig {
	cfg := config.DefaultPipelineConfig()
	cfg.Bucket.Name = "sales-bucket"
	cfg.Bucket.Prefix = "daily"
	cfg.Bucket.Region = "eu-west-2"
	cfg.Retry.BackoffSeconds = 0
	cfg.StatsDumpFrequencySeconds = 0
	cfg.Connections.Source.Data["dsn"] = "sqlserver://u:p@localhost:1433?database=AdventureWorks"
	cfg.Connections.Warehouse.Data["dsn"] = "snowflake://u:p@acct/ANALYTICS/ADVENTURE_WORKS"
	return cfg
}

// newSqliteDb returns an in-memory database on a single connection so that
// attached schemas and tables persist between statements.
func newSqliteDb(t *testing.T, stmts ...string) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("error executing %q: %v", stmt, err)
		}
	}
	return db
}

// sourceStatements build the Sales and Production schemas so the real source queries run unchanged.
var sourceStatements = []string{
	"attach database ':memory:' as Sales",
	"attach database ':memory:' as Production",
	"create table Sales.SalesOrderHeader (SalesOrderID integer, OrderDate timestamp, CustomerID integer, TerritoryID integer, SubTotal float, TaxAmt float, Freight float, TotalDue float)",
	"create table Sales.SalesOrderDetail (SalesOrderID integer, SalesOrderDetailID integer, OrderQty integer, ProductID integer, UnitPrice float, UnitPriceDiscount float, LineTotal float)",
	"create table Sales.SalesTerritory (TerritoryID integer, Name text, CountryRegionCode text)",
	"create table Production.Product (ProductID integer, Name text, StandardCost float, ListPrice float, ProductSubcategoryID integer)",
	"create table Production.ProductSubcategory (ProductSubcategoryID integer, ProductCategoryID integer, Name text)",
	"create table Production.ProductCategory (ProductCategoryID integer, Name text)",
	"insert into Sales.SalesOrderHeader values (1, '2024-07-16 09:30:00.000', 7, 2, 275, 22, 5.5, 302.5)",
	"insert into Sales.SalesOrderDetail values (1, 10, 3, 100, 100, 0.1, 270), (1, 11, 1, 999, 5, 0, 5)",
	"insert into Sales.SalesTerritory values (2, 'Northwest', 'US')",
	"insert into Production.Product values (100, 'Road-150, Red', 12.5, 20.25, 1)",
	"insert into Production.ProductSubcategory values (1, 1, 'Road Bikes')",
	"insert into Production.ProductCategory values (1, 'Bikes')",
}

// nopCloseConnector lets a run close its connections without closing the test database.
type nopCloseConnector struct {
	shared.Connector
}

func (nopCloseConnector) Close() {}

// memBucket is an in-memory s3.BasicClient.
type memBucket struct {
	mu      sync.Mutex
	prefix  string
	objects map[string][]byte
	puts    int
}

func newMemBucket(prefix string) *memBucket {
	return &memBucket{prefix: prefix, objects: make(map[string][]byte)}
}

var _ s3.BasicClient = &memBucket{}

func (b *memBucket) KeyWithPrefix(key string) string {
	return s3.JoinKey(b.prefix, key)
}

func (b *memBucket) List(ctx context.Context, key string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	retval := make([]string, 0)
	for k := range b.objects {
		if strings.HasPrefix(k, b.KeyWithPrefix(key)) {
			retval = append(retval, k)
		}
	}
	sort.Strings(retval)
	return retval, nil
}

func (b *memBucket) Get(ctx context.Context, key string) ([]byte, error) {
	return b.object(b.KeyWithPrefix(key))
}

// object fetches by full key, the way a warehouse stage sees the bucket.
func (b *memBucket) object(fullKey string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[fullKey]
	if !ok {
		return nil, s3.ErrKeyNotFound
	}
	return data, nil
}

func (b *memBucket) Put(ctx context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[b.KeyWithPrefix(key)] = append([]byte(nil), data...)
	b.puts++
	return nil
}

func (b *memBucket) BufferPut(ctx context.Context, key string, buf io.ReadSeeker) error {
	return b.Upload(ctx, key, buf)
}

func (b *memBucket) Upload(ctx context.Context, key string, r io.Reader) error {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return err
	}
	return b.Put(ctx, key, data)
}

func (b *memBucket) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, b.KeyWithPrefix(key))
	return nil
}

func (b *memBucket) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.object(b.KeyWithPrefix(key))
	return err == nil, nil
}

// fakeWarehouse runs warehouse SQL on sqlite.
// Fully qualified names are reduced to table names, COPY INTO reads CSV files from the bucket
// and CREATE OR REPLACE TABLE is emulated with DROP and CREATE.
type fakeWarehouse struct {
	db        *sql.DB
	bucket    *memBucket
	stage     string
	namespace string
	FailCopy  map[string]error // table name to error.
	mu        sync.Mutex
	sql       []string
}

func newFakeWarehouse(t *testing.T, bucket *memBucket, cfg config.PipelineConfig) *fakeWarehouse {
	return &fakeWarehouse{
		db:        newSqliteDb(t),
		bucket:    bucket,
		stage:     cfg.Warehouse.Stage,
		namespace: cfg.Target().String(),
		FailCopy:  make(map[string]error),
	}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type fakeResult int64

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return int64(r), nil }

var reCopyInto = regexp.MustCompile(`^copy into (\S+) \(([^)]*)\) from '@([^']+)'`)

func (w *fakeWarehouse) statements() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.sql...)
}

func (w *fakeWarehouse) exec(ctx context.Context, e execer, query string) (shared.Result, error) {
	w.mu.Lock()
	w.sql = append(w.sql, query)
	w.mu.Unlock()
	q := strings.ReplaceAll(query, w.namespace+".", "")
	lower := strings.ToLower(q)
	switch {
	case strings.HasPrefix(lower, "alter session"):
		return fakeResult(0), nil
	case strings.HasPrefix(lower, "create or replace table "):
		rest := q[len("create or replace table "):]
		name := strings.Fields(rest)[0]
		if _, err := e.ExecContext(ctx, "drop table if exists "+name); err != nil {
			return nil, err
		}
		return e.ExecContext(ctx, "create table "+rest)
	case strings.HasPrefix(lower, "copy into "):
		return w.copyInto(ctx, e, q)
	}
	return e.ExecContext(ctx, q)
}

func (w *fakeWarehouse) copyInto(ctx context.Context, e execer, q string) (shared.Result, error) {
	m := reCopyInto.FindStringSubmatch(q)
	if m == nil {
		return nil, fmt.Errorf("unsupported copy statement: %v", q)
	}
	table, cols, stagedFile := m[1], m[2], m[3]
	if err := w.FailCopy[table]; err != nil {
		return nil, err
	}
	if !strings.HasPrefix(stagedFile, w.stage+"/") {
		return nil, fmt.Errorf("unknown stage in %v", stagedFile)
	}
	data, err := w.bucket.object(strings.TrimPrefix(stagedFile, w.stage+"/"))
	if err != nil {
		return nil, err
	}
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, err
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(strings.Split(cols, ","))), ",")
	insert := fmt.Sprintf("insert into %v (%v) values (%v)", table, cols, placeholders)
	var n int64
	for _, rec := range records[1:] { // skip_header = 1
		args := make([]interface{}, len(rec))
		for idx, v := range rec {
			if v != "" { // empty fields load as NULL.
				args[idx] = v
			}
		}
		if _, err := e.ExecContext(ctx, insert, args...); err != nil {
			return nil, err
		}
		n++
	}
	return fakeResult(n), nil
}

func (w *fakeWarehouse) Begin() (shared.Transacter, error) {
	return w.BeginTx(context.Background())
}

func (w *fakeWarehouse) BeginTx(ctx context.Context) (shared.Transacter, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &fakeTx{w: w, tx: tx}, nil
}

func (w *fakeWarehouse) Exec(query string, args ...interface{}) (shared.Result, error) {
	return w.ExecContext(context.Background(), query, args...)
}

func (w *fakeWarehouse) ExecContext(ctx context.Context, query string, args ...interface{}) (shared.Result, error) {
	return w.exec(ctx, w.db, query)
}

func (w *fakeWarehouse) QueryContext(ctx context.Context, query string, args ...interface{}) (*shared.SqlRows, error) {
	return nil, fmt.Errorf("queries are not supported")
}

func (w *fakeWarehouse) Close() {}

func (w *fakeWarehouse) GetType() string {
	return "snowflake"
}

// dump returns every row of table as sorted strings.
func (w *fakeWarehouse) dump(t *testing.T, table string) []string {
	t.Helper()
	rows, err := w.db.Query("select * from " + table)
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		t.Fatal(err)
	}
	retval := make([]string, 0)
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for idx := range vals {
			ptrs[idx] = &vals[idx]
		}
		if err := rows.Scan(ptrs...); err != nil {
			t.Fatal(err)
		}
		retval = append(retval, fmt.Sprint(vals...))
	}
	if err := rows.Err(); err != nil {
		t.Fatal(err)
	}
	sort.Strings(retval)
	return retval
}

func (w *fakeWarehouse) tableExists(t *testing.T, table string) bool {
	t.Helper()
	var n int
	if err := w.db.QueryRow("select count(*) from sqlite_master where type = 'table' and name = ?", table).Scan(&n); err != nil {
		t.Fatal(err)
	}
	return n > 0
}

type fakeTx struct {
	w  *fakeWarehouse
	tx *sql.Tx
}

func (f *fakeTx) Exec(query string, args ...interface{}) (shared.Result, error) {
	return f.ExecContext(context.Background(), query, args...)
}

func (f *fakeTx) ExecContext(ctx context.Context, query string, args ...interface{}) (shared.Result, error) {
	return f.w.exec(ctx, f.tx, query)
}

func (f *fakeTx) Commit() error {
	return f.tx.Commit()
}

func (f *fakeTx) Rollback() error {
	return f.tx.Rollback()
}

// testEnv wires a sqlite source, an in-memory bucket and a fake warehouse into a Launcher.
type testEnv struct {
	cfg       config.PipelineConfig
	source    *shared.SqlConnection
	bucket    *memBucket
	warehouse *fakeWarehouse
	launcher  *Launcher
	opened    int
}

func newTestEnv(t *testing.T) *testEnv {
	env := &testEnv{cfg: testPipelineConfig()}
	env.source = &shared.SqlConnection{DbSql: newSqliteDb(t, sourceStatements...), DbType: "sqlite"}
	env.bucket = newMemBucket(env.cfg.Bucket.Prefix)
	env.warehouse = newFakeWarehouse(t, env.bucket, env.cfg)
	env.launcher = &Launcher{
		Log:              newTestLogger(t),
		Config:           env.cfg,
		SetAutocommitOff: true,
		OutputDirectory:  t.TempDir(),
		Open: func(ctx context.Context, log logger.Logger, cfg config.PipelineConfig) (*Resources, error) {
			env.opened++
			return &Resources{
				Source:    nopCloseConnector{env.source},
				Warehouse: env.warehouse,
				Bucket:    env.bucket,
			}, nil
		},
		CleanupHandler: pipeline.CleanupHandlerWithoutSignals,
	}
	return env
}
