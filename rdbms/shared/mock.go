package shared

import (
	"context"
	"errors"
	"sync"
)

// MockConnection implements Connector and records every statement it is asked to execute.
// Statements are sent to the channel returned by NewMockConnectionWithMockTx, in order, followed by
// "commit" or "rollback" for each transaction.
type MockConnection struct {
	mu        sync.Mutex
	DbType    string
	chanSql   chan string
	FailOn    func(query string) error // optional: return an error to fail a statement.
	closed    bool
	Statement []string
}

type mockResult struct{}

func (mockResult) LastInsertId() (int64, error) { return 0, nil }
func (mockResult) RowsAffected() (int64, error) { return 0, nil }

// NewMockConnectionWithMockTx returns a mock Connector and the channel on which executed SQL is sent.
// The channel is buffered; close it once the code under test has finished.
func NewMockConnectionWithMockTx(dbType string) (*MockConnection, chan string) {
	c := make(chan string, 1000)
	return &MockConnection{DbType: dbType, chanSql: c}, c
}

func (m *MockConnection) record(ctx context.Context, query string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("mock connection is closed")
	}
	m.Statement = append(m.Statement, query)
	m.chanSql <- query
	if m.FailOn != nil {
		return m.FailOn(query)
	}
	return nil
}

func (m *MockConnection) Begin() (Transacter, error) {
	return m.BeginTx(context.Background())
}

func (m *MockConnection) BeginTx(ctx context.Context) (Transacter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &mockTx{conn: m}, nil
}

func (m *MockConnection) Exec(query string, args ...interface{}) (Result, error) {
	return m.ExecContext(context.Background(), query, args...)
}

func (m *MockConnection) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	if err := m.record(ctx, query); err != nil {
		return nil, err
	}
	return mockResult{}, nil
}

func (m *MockConnection) QueryContext(ctx context.Context, query string, args ...interface{}) (*SqlRows, error) {
	_ = m.record(ctx, query)
	return nil, errors.New("mock connection does not support queries")
}

func (m *MockConnection) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

func (m *MockConnection) GetType() string {
	return m.DbType
}

// Statements returns a copy of the statements executed so far.
func (m *MockConnection) Statements() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	retval := make([]string, len(m.Statement))
	copy(retval, m.Statement)
	return retval
}

type mockTx struct {
	conn *MockConnection
}

func (t *mockTx) Exec(query string, args ...interface{}) (Result, error) {
	return t.ExecContext(context.Background(), query, args...)
}

func (t *mockTx) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	return t.conn.ExecContext(ctx, query, args...)
}

func (t *mockTx) Commit() error {
	return t.conn.record(context.Background(), "commit")
}

func (t *mockTx) Rollback() error {
	return t.conn.record(context.Background(), "rollback")
}
