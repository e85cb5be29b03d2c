package shared

import (
	"context"
	"database/sql"
	"errors"
)

// SqlConnection wraps a database/sql pool so it satisfies Connector.
type SqlConnection struct {
	DbSql  *sql.DB
	DbType string
}

var errNotConfigured = errors.New("connection was not configured correctly: DbSql is missing")

// Connector:

func (c *SqlConnection) Begin() (Transacter, error) {
	return c.BeginTx(context.Background())
}

func (c *SqlConnection) BeginTx(ctx context.Context) (Transacter, error) {
	if c.DbSql == nil {
		return nil, errNotConfigured
	}
	tx, err := c.DbSql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &SqlTx{txSql: tx}, nil
}

func (c *SqlConnection) Exec(query string, args ...interface{}) (Result, error) {
	return c.ExecContext(context.Background(), query, args...)
}

func (c *SqlConnection) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	if c.DbSql == nil {
		return nil, errNotConfigured
	}
	return c.DbSql.ExecContext(ctx, query, args...)
}

func (c *SqlConnection) QueryContext(ctx context.Context, query string, args ...interface{}) (*SqlRows, error) {
	if c.DbSql == nil {
		return nil, errNotConfigured
	}
	r, err := c.DbSql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &SqlRows{rowsSql: r}, nil
}

func (c *SqlConnection) Close() {
	if c.DbSql != nil {
		_ = c.DbSql.Close()
	}
}

func (c *SqlConnection) GetType() string {
	return c.DbType
}

// Transacter:

type SqlTx struct {
	txSql *sql.Tx
}

func (t *SqlTx) Exec(query string, args ...interface{}) (Result, error) {
	return t.ExecContext(context.Background(), query, args...)
}

func (t *SqlTx) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	return t.txSql.ExecContext(ctx, query, args...)
}

func (t *SqlTx) Commit() error {
	return t.txSql.Commit()
}

func (t *SqlTx) Rollback() error {
	return t.txSql.Rollback()
}

// Rows:

type SqlRows struct {
	rowsSql *sql.Rows
}

func (r *SqlRows) Close() error {
	return r.rowsSql.Close()
}

func (r *SqlRows) Next() bool {
	return r.rowsSql.Next()
}

func (r *SqlRows) Scan(dest ...interface{}) error {
	return r.rowsSql.Scan(dest...)
}

func (r *SqlRows) Err() error {
	return r.rowsSql.Err()
}

func (r *SqlRows) Columns() ([]string, error) {
	return r.rowsSql.Columns()
}

func (r *SqlRows) ColumnTypes() ([]*sql.ColumnType, error) {
	return r.rowsSql.ColumnTypes()
}
