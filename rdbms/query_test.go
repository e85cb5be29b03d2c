package rdbms

import (
	"bytes"
	"context"
	"database/sql"
	"testing"

	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/rdbms/shared"
	_ "modernc.org/sqlite"
)

type collector struct {
	header []string
	rows   [][]interface{}
}

func (c *collector) HandleHeader(cols []string) error {
	c.header = cols
	return nil
}

func (c *collector) HandleRow(values []interface{}) error {
	c.rows = append(c.rows, values)
	return nil
}

func newTestLogger(t *testing.T) logger.Logger {
	log, err := logger.NewLoggerWithOutput(&bytes.Buffer{}, "salespipe", "debug", false)
	if err != nil {
		t.Fatal(err)
	}
	return log
}

func TestSqlQuery(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	conn := &shared.SqlConnection{DbSql: db, DbType: "sqlite"}
	defer conn.Close()
	for _, stmt := range []string{
		"create table category (ProductCategoryID integer, Name text)",
		"insert into category values (1, 'Bikes'), (2, 'Components'), (3, null)",
	} {
		if _, err := conn.Exec(stmt); err != nil {
			t.Fatal(err)
		}
	}
	c := &collector{}
	err = SqlQuery(context.Background(), newTestLogger(t), conn, "select ProductCategoryID, Name from category order by 1", c)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.header) != 2 || c.header[1] != "Name" {
		t.Fatal("unexpected header: ", c.header)
	}
	if len(c.rows) != 3 {
		t.Fatal("expected 3 rows; got ", len(c.rows))
	}
	if c.rows[2][1] != nil {
		t.Fatal("expected NULL to scan as nil; got ", c.rows[2][1])
	}
	// Cancelled context.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := SqlQuery(ctx, newTestLogger(t), conn, "select * from category", &collector{}); err == nil {
		t.Fatal("expected error with cancelled context")
	}
	// Bad SQL.
	if err := SqlQuery(context.Background(), newTestLogger(t), conn, "select nope from category", &collector{}); err == nil {
		t.Fatal("expected error for bad SQL")
	}
}

func TestOpenDbConnectionTypes(t *testing.T) {
	log := newTestLogger(t)
	for _, typ := range []string{"mock", "oracle", ""} {
		db, err := OpenDbConnection(context.Background(), log, shared.ConnectionDetails{Type: typ, LogicalName: "x"})
		if err == nil || db != nil {
			t.Fatalf("expected error for unsupported type %q", typ)
		}
	}
	_, err := OpenDbConnection(context.Background(), log, shared.ConnectionDetails{
		Type: "sqlserver", LogicalName: "bad", Data: map[string]string{"dsn": "::not a dsn"},
	})
	if err == nil {
		t.Fatal("expected error for bad DSN")
	}
}
