//go:build unit

package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

type MockDBTX struct {
	mock.Mock
}

func (m *MockDBTX) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	called := m.Called(ctx, sql, args)
	return called.Get(0).(pgconn.CommandTag), called.Error(1)
}

func (m *MockDBTX) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	called := m.Called(ctx, sql, args)
	rows, _ := called.Get(0).(pgx.Rows)
	return rows, called.Error(1)
}

func (m *MockDBTX) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	called := m.Called(ctx, sql, args)
	return called.Get(0).(pgx.Row)
}

// errRow is a pgx.Row whose Scan fails with err.
type errRow struct {
	err error
}

func (r errRow) Scan(...any) error {
	return r.err
}
