package actions

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/constants"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/pipeline"
	td "github.com/relloyd/salespipe/table-definition"
)

func TestLaunchEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	guid, err := env.launcher.Launch(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	// Every table is staged with a header row.
	keys, err := env.bucket.List(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	expectedKeys := []string{
		"daily/product.csv",
		"daily/productcategory.csv",
		"daily/productsubcategory.csv",
		"daily/salesorderdetail.csv",
		"daily/salesorderheader.csv",
		"daily/salesterritory.csv",
	}
	if !reflect.DeepEqual(keys, expectedKeys) {
		t.Fatal("unexpected staged files: ", keys)
	}
	product, _ := env.bucket.Get(context.Background(), "product.csv")
	if !strings.HasPrefix(string(product), "ProductID,Name,StandardCost,ListPrice,ProductSubcategoryID\n") {
		t.Fatal("expected a header row in the staged product file; got ", string(product))
	}
	// Loads replace each table in one transaction using the stage and prefix.
	sql := strings.Join(env.warehouse.statements(), "\n")
	for _, s := range []string{
		"alter session set autocommit = false",
		"delete from ANALYTICS.ADVENTURE_WORKS.product",
		"from '@SALES_STAGE/daily/product.csv'",
		"create or replace table ANALYTICS.ADVENTURE_WORKS.transformed_sales_data as SELECT",
	} {
		if !strings.Contains(sql, s) {
			t.Fatal("expected warehouse SQL to contain: ", s)
		}
	}
	// The transformed table keeps every order line.
	rows := env.warehouse.dump(t, constants.TransformedTableName)
	if len(rows) != 2 {
		t.Fatal("expected 2 transformed rows; got ", rows)
	}
	var unitPrice, amount float64
	err = env.warehouse.db.QueryRow("select unit_price, amount from transformed_sales_data where sales_line_id = 10").Scan(&unitPrice, &amount)
	if err != nil {
		t.Fatal(err)
	}
	if unitPrice != 90 || amount != 270 {
		t.Fatalf("expected unit_price 90 and amount 270; got %v and %v", unitPrice, amount)
	}
	var productName, category interface{}
	err = env.warehouse.db.QueryRow("select product_name, category from transformed_sales_data where sales_line_id = 11").Scan(&productName, &category)
	if err != nil {
		t.Fatal(err)
	}
	if productName != nil || category != nil {
		t.Fatal("expected NULL product columns for a missing product; got ", productName, category)
	}
	// The run is recorded as complete with every job done.
	ri, ok := env.launcher.RunInfo.Load(guid)
	if !ok {
		t.Fatal("run not recorded")
	}
	if ri.Status.Status != pipeline.StatusComplete {
		t.Fatal("expected complete run; got ", ri.Status.Status)
	}
	for _, js := range ri.Jobs.List() {
		if js.Status != pipeline.JobStatusDone || js.Attempts != 1 {
			t.Fatalf("expected job %v done in one attempt; got %v after %v", js.Job, js.Status, js.Attempts)
		}
	}
}

func TestLaunchIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	snapshot := func() map[string][]string {
		m := make(map[string][]string)
		for _, spec := range td.SalesTables {
			m[spec.WarehouseTableName()] = env.warehouse.dump(t, spec.WarehouseTableName())
		}
		m[constants.TransformedTableName] = env.warehouse.dump(t, constants.TransformedTableName)
		return m
	}
	if _, err := env.launcher.Launch(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	first := snapshot()
	if _, err := env.launcher.Launch(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	second := snapshot()
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical warehouse contents after a second run")
	}
	if len(first["salesorderdetail"]) != 2 {
		t.Fatal("expected loads to replace rows, not append; got ", first["salesorderdetail"])
	}
	if env.opened != 2 || len(env.launcher.RunInfo.Keys()) != 2 {
		t.Fatal("expected two runs with their own resources")
	}
}

func TestLaunchFailedLoadSkipsTransform(t *testing.T) {
	env := newTestEnv(t)
	env.launcher.Config.Retry.MaxAttempts = 2
	env.warehouse.FailCopy["product"] = errors.New("copy failed")
	guid, err := env.launcher.Launch(context.Background(), true)
	if err == nil {
		t.Fatal("expected run error")
	}
	if !strings.Contains(err.Error(), "copy failed") {
		t.Fatal("expected the load error in the run error; got ", err)
	}
	if env.warehouse.tableExists(t, constants.TransformedTableName) {
		t.Fatal("the transformation must not run after a failed load")
	}
	ri, _ := env.launcher.RunInfo.Load(guid)
	if ri.Status.Status != pipeline.StatusCompleteWithError {
		t.Fatal("expected complete-with-error; got ", ri.Status.Status)
	}
	for _, js := range ri.Jobs.List() {
		switch js.Job {
		case "load_product_to_snowflake":
			if js.Status != pipeline.JobStatusFailed || js.Attempts != 2 {
				t.Fatalf("expected failed load after 2 attempts; got %v after %v", js.Status, js.Attempts)
			}
		case constants.JobNameTransform:
			if js.Status != pipeline.JobStatusSkipped {
				t.Fatal("expected skipped transform; got ", js.Status)
			}
		default:
			if js.Status != pipeline.JobStatusDone {
				t.Fatalf("expected sibling %v done; got %v", js.Job, js.Status)
			}
		}
	}
	// The failed copy rolled back so the previous contents (none) survive.
	if rows := env.warehouse.dump(t, "product"); len(rows) != 0 {
		t.Fatal("expected rolled back product table; got ", rows)
	}
}

func TestLaunchValidatesProjections(t *testing.T) {
	env := newTestEnv(t)
	env.launcher.Registry = td.MustNewRegistry(td.TableSpec{
		Name:        "ProductCategory",
		SourceQuery: "SELECT ProductCategoryID, Name FROM Production.ProductCategory",
		Schema: []td.Column{
			{Name: "ProductCategoryID", Type: td.ColumnTypeInteger},
			{Name: "CategoryName", Type: td.ColumnTypeString},
		},
	})
	if _, err := env.launcher.Launch(context.Background(), true); err == nil {
		t.Fatal("expected startup validation error")
	}
	if env.opened != 0 {
		t.Fatal("connections must not be opened when validation fails")
	}
	env.launcher.SkipValidate = true
	_, _ = env.launcher.Launch(context.Background(), true)
	if env.opened != 1 {
		t.Fatal("expected the run to start with validation skipped")
	}
}

func TestLaunchOpenError(t *testing.T) {
	env := newTestEnv(t)
	env.launcher.Open = func(ctx context.Context, log logger.Logger, cfg config.PipelineConfig) (*Resources, error) {
		return nil, errors.New("no route to host")
	}
	guid, err := env.launcher.Launch(context.Background(), true)
	if err == nil || guid != "" {
		t.Fatal("expected open error and no run")
	}
	if len(env.launcher.RunInfo.Keys()) != 0 {
		t.Fatal("expected no recorded runs")
	}
}

func TestLaunchNonBlocking(t *testing.T) {
	env := newTestEnv(t)
	guid, err := env.launcher.Launch(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(30 * time.Second)
	for {
		ri, ok := env.launcher.RunInfo.Load(guid)
		if !ok {
			t.Fatal("run not recorded")
		}
		if ri.Status.RunIsFinished() {
			if ri.Status.Status != pipeline.StatusComplete {
				t.Fatal("expected complete run; got ", ri.Status.Status, ri.Status.Error)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for the run")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRunOptionsFromConfig(t *testing.T) {
	env := newTestEnv(t)
	env.launcher.Config.Retry = config.Retry{MaxAttempts: 3, BackoffSeconds: 60}
	env.launcher.Config.MaxActiveJobs = 2
	env.launcher.Config.JobTimeoutSeconds = 10
	opts := env.launcher.RunOptions()
	if opts.Retry.MaxAttempts != 3 || opts.Retry.Delay(1) != time.Minute {
		t.Fatal("unexpected retry policy: ", opts.Retry)
	}
	if opts.MaxActiveJobs != 2 || opts.JobTimeout != 10*time.Second {
		t.Fatal("unexpected run options: ", opts)
	}
}

func TestRunPipeline(t *testing.T) {
	env := newTestEnv(t)
	err := RunPipeline(context.Background(), &RunConfig{
		LogLevel: "error",
		Pipeline: env.cfg,
		Open:     env.launcher.Open,
	})
	if err != nil {
		t.Fatal(err)
	}
	if env.opened != 1 || !env.warehouse.tableExists(t, constants.TransformedTableName) {
		t.Fatal("expected one complete run")
	}
	cfg := env.cfg
	cfg.Connections.Source.Data = map[string]string{}
	err = RunPipeline(context.Background(), &RunConfig{LogLevel: "error", Pipeline: cfg, Open: env.launcher.Open})
	if err == nil {
		t.Fatal("expected config validation error for a missing source DSN")
	}
	if env.opened != 1 {
		t.Fatal("nothing should be opened for a bad config")
	}
}

func TestLaunchRejectedWhileRunInProgress(t *testing.T) {
	env := newTestEnv(t)
	env.launcher.RunInfo = pipeline.NewSafeMapRunInfo()
	env.launcher.RunInfo.Store("earlier", pipeline.RunInfo{Status: pipeline.RunStatus{Status: pipeline.StatusRunning}})

	guid, err := env.launcher.Launch(context.Background(), true)
	if !errors.Is(err, ErrRunInProgress) {
		t.Fatal("expected ErrRunInProgress; got ", err)
	}
	if guid != "" || env.opened != 0 {
		t.Fatal("a rejected launch must not open connections or record a run")
	}
	if len(env.launcher.RunInfo.Keys()) != 1 {
		t.Fatal("expected only the earlier run to be recorded")
	}
}
