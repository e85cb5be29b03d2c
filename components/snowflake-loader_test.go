package components_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/relloyd/salespipe/components"
	"github.com/relloyd/salespipe/rdbms/shared"
	"github.com/relloyd/salespipe/stats"
	td "github.com/relloyd/salespipe/table-definition"
)

func productSpec(t *testing.T) td.TableSpec {
	r := td.NewSalesRegistry()
	spec, ok := r.Get("Product")
	if !ok {
		t.Fatal("missing Product table spec")
	}
	return spec
}

func TestSnowflakeTableLoader(t *testing.T) {
	log := newTestLogger(t)
	spec := productSpec(t)
	db, resultChan := shared.NewMockConnectionWithMockTx("snowflake")
	jw := stats.NewJobWatcher(log, "load_tasks", spec.LoadJobName())
	cfg := &components.SnowflakeTableLoaderConfig{
		Log:                   log,
		Name:                  spec.LoadJobName(),
		Db:                    db,
		Table:                 spec,
		TargetSchemaTableName: target.Join(spec.WarehouseTableName()),
		StageName:             "etl_stage",
		StagePrefix:           "staging/",
		SetAutocommitOff:      true,
		JobWatcher:            jw,
	}
	if err := components.SnowflakeTableLoader(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}
	res := drain(resultChan)
	expected := []string{
		"create table if not exists ANALYTICS.ADVENTURE_WORKS.product (ProductID number(38,0), Name varchar, StandardCost float, ListPrice float, ProductSubcategoryID number(38,0))",
		"alter session set autocommit = false",
		"delete from ANALYTICS.ADVENTURE_WORKS.product",
		"copy into ANALYTICS.ADVENTURE_WORKS.product (ProductID,Name,StandardCost,ListPrice,ProductSubcategoryID) from '@etl_stage/staging/product.csv' " +
			"file_format = (type = csv field_delimiter = ',' skip_header = 1 field_optionally_enclosed_by = '\"') " +
			"force = true on_error = abort_statement",
		"commit",
	}
	if len(res) != len(expected) {
		t.Fatalf("expected %v statements; got %v: %v", len(expected), len(res), res)
	}
	for idx := range expected {
		if res[idx] != expected[idx] {
			t.Fatalf("unexpected SQL at index %v. Expected: %v. Got: %v", idx, expected[idx], res[idx])
		}
	}
}

func TestSnowflakeTableLoaderRollsBackOnCopyError(t *testing.T) {
	log := newTestLogger(t)
	spec := productSpec(t)
	db, resultChan := shared.NewMockConnectionWithMockTx("snowflake")
	db.FailOn = func(query string) error {
		if strings.HasPrefix(query, "copy into") {
			return errors.New("Number of columns in file (4) does not match that of the corresponding table (5)")
		}
		return nil
	}
	cfg := &components.SnowflakeTableLoaderConfig{
		Log:                   log,
		Name:                  spec.LoadJobName(),
		Db:                    db,
		Table:                 spec,
		TargetSchemaTableName: target.Join(spec.WarehouseTableName()),
		StageName:             "etl_stage",
	}
	err := components.SnowflakeTableLoader(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected error from failed copy")
	}
	res := drain(resultChan)
	if res[len(res)-1] != "rollback" {
		t.Fatal("expected rollback as the last statement; got ", res)
	}
	for _, s := range res {
		if s == "commit" {
			t.Fatal("unexpected commit after failed copy")
		}
	}
	// No stage prefix and no autocommit statement.
	if !strings.Contains(res[2], "from '@etl_stage/product.csv'") {
		t.Fatal("unexpected copy statement: ", res[2])
	}
}

func TestSnowflakeTableLoaderCancelled(t *testing.T) {
	log := newTestLogger(t)
	spec := productSpec(t)
	db, resultChan := shared.NewMockConnectionWithMockTx("snowflake")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := components.SnowflakeTableLoader(ctx, &components.SnowflakeTableLoaderConfig{
		Log:                   log,
		Name:                  spec.LoadJobName(),
		Db:                    db,
		Table:                 spec,
		TargetSchemaTableName: target.Join(spec.WarehouseTableName()),
		StageName:             "etl_stage",
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatal("expected context.Canceled; got ", err)
	}
	if res := drain(resultChan); len(res) != 0 {
		t.Fatal("expected no statements; got ", res)
	}
}

func TestGetSqlSliceSnowflakeDeleteAndCopyInto(t *testing.T) {
	got := components.GetSqlSliceSnowflakeDeleteAndCopyInto(target.Join("productcategory"), []string{"ProductCategoryID", "Name"}, "stg", "p/productcategory.csv")
	if len(got) != 2 {
		t.Fatal("expected 2 statements; got ", got)
	}
	if got[0] != "delete from ANALYTICS.ADVENTURE_WORKS.productcategory" {
		t.Fatal("unexpected delete: ", got[0])
	}
	if !strings.HasPrefix(got[1], "copy into ANALYTICS.ADVENTURE_WORKS.productcategory (ProductCategoryID,Name) from '@stg/p/productcategory.csv' ") {
		t.Fatal("unexpected copy: ", got[1])
	}
}
