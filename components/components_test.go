package components_test

import (
	"bytes"
	"database/sql"
	"testing"

	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/rdbms"
	"github.com/relloyd/salespipe/rdbms/shared"
	_ "modernc.org/sqlite"
)

var target = rdbms.NewSchemaTable("ANALYTICS", "ADVENTURE_WORKS", "")

func newTestLogger(t *testing.T) logger.Logger {
	log, err := logger.NewLoggerWithOutput(&bytes.Buffer{}, "components test", "debug", false)
	if err != nil {
		t.Fatal(err)
	}
	return log
}

// newSqliteConnection returns an in-memory database on a single connection so that
// attached schemas and tables persist between statements.
func newSqliteConnection(t *testing.T, stmts ...string) shared.Connector {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	conn := &shared.SqlConnection{DbSql: db, DbType: "sqlite"}
	t.Cleanup(conn.Close)
	for _, stmt := range stmts {
		if _, err := conn.Exec(stmt); err != nil {
			t.Fatalf("error executing %q: %v", stmt, err)
		}
	}
	return conn
}

func drain(c chan string) []string {
	close(c)
	res := make([]string, 0)
	for s := range c {
		res = append(res, s)
	}
	return res
}
