package storage_test

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// mockQuerier routes each Querier call to a func field.
type mockQuerier struct {
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFn    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	execFn     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return m.queryRowFn(ctx, sql, args...)
}
func (m *mockQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return m.queryFn(ctx, sql, args...)
}
func (m *mockQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return m.execFn(ctx, sql, args...)
}

// assign copies one row of column values into Scan destinations.
func assign(dest, row []any) error {
	if len(dest) > len(row) {
		return fmt.Errorf("scan: %d destinations for %d columns", len(dest), len(row))
	}
	for i, d := range dest {
		ok := true
		switch v := d.(type) {
		case *int:
			*v, ok = row[i].(int)
		case *float64:
			*v, ok = row[i].(float64)
		case *string:
			*v, ok = row[i].(string)
		case *[]byte:
			*v, ok = row[i].([]byte)
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
		if !ok {
			return fmt.Errorf("scan: column %d is %T, not %T", i, row[i], d)
		}
	}
	return nil
}

type fakeRow struct {
	scanFn func(dest ...any) error
}

func (f *fakeRow) Scan(dest ...any) error { return f.scanFn(dest...) }

// valuesRow is a single row that scans the given column values.
func valuesRow(values ...any) *fakeRow {
	return &fakeRow{scanFn: func(dest ...any) error { return assign(dest, values) }}
}

// fakeRows serves rows in order. Only the methods scanCities calls are
// implemented; the embedded nil pgx.Rows panics on anything else.
type fakeRows struct {
	pgx.Rows
	rows    [][]any
	idx     int
	rowErr  error
	scanErr error
	closed  bool
}

func (f *fakeRows) Next() bool { f.idx++; return f.idx <= len(f.rows) }
func (f *fakeRows) Err() error { return f.rowErr }
func (f *fakeRows) Close()     { f.closed = true }

func (f *fakeRows) Scan(dest ...any) error {
	if f.scanErr != nil {
		return f.scanErr
	}
	return assign(dest, f.rows[f.idx-1])
}

type mockMigrationPool struct {
	beginFn func(ctx context.Context) (pgx.Tx, error)
}

func (m *mockMigrationPool) Begin(ctx context.Context) (pgx.Tx, error) {
	return m.beginFn(ctx)
}

// mockTx implements the three pgx.Tx methods a migration uses.
type mockTx struct {
	pgx.Tx
	execFn     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	commitFn   func(ctx context.Context) error
	rollbackFn func(ctx context.Context) error
}

func (t *mockTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.execFn(ctx, sql, args...)
}
func (t *mockTx) Commit(ctx context.Context) error   { return t.commitFn(ctx) }
func (t *mockTx) Rollback(ctx context.Context) error { return t.rollbackFn(ctx) }

// okTx succeeds at everything and reports each executed statement to exec.
func okTx(exec func(sql string)) *mockTx {
	return &mockTx{
		execFn: func(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
			if exec != nil {
				exec(sql)
			}
			return pgconn.CommandTag{}, nil
		},
		commitFn:   func(_ context.Context) error { return nil },
		rollbackFn: func(_ context.Context) error { return nil },
	}
}
