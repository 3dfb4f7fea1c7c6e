package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinTx_CommitsOnSuccess(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresImportRepository(mock)
	ctx := context.Background()

	paymentDate := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
	statementID := uuid.New()
	txID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, payment_date, total_amount`).
		WithArgs(paymentDate, int64(10000), int64(10000), int64(0)).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "payment_date", "total_amount", "domestic_amount", "overseas_amount", "created_at",
		}))
	mock.ExpectQuery(`INSERT INTO statements`).
		WithArgs(paymentDate, int64(10000), int64(10000), int64(0)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(statementID, now))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(statementID, paymentDate, "テストストア", int64(5000)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`INSERT INTO transactions`).
		WithArgs(statementID, paymentDate, "テストストア", int64(5000), "１回払い",
			(*string)(nil), (*uuid.UUID)(nil), (*uuid.UUID)(nil), (*uuid.UUID)(nil)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(txID, now))
	mock.ExpectCommit()

	var inserted Transaction
	err = repo.WithinTx(ctx, func(q Queries) error {
		key := StatementKey{PaymentDate: paymentDate, TotalAmount: 10000, DomesticAmount: 10000}
		stmt, err := q.FindStatement(ctx, key)
		require.NoError(t, err)
		require.Nil(t, stmt)

		stmt = &Statement{PaymentDate: paymentDate, TotalAmount: 10000, DomesticAmount: 10000}
		require.NoError(t, q.CreateStatement(ctx, stmt))
		assert.Equal(t, statementID, stmt.ID)

		inserted = Transaction{
			StatementID:     stmt.ID,
			TransactionDate: paymentDate,
			StoreName:       "テストストア",
			Amount:          5000,
			PaymentType:     "１回払い",
		}
		exists, err := q.TransactionExists(ctx, inserted.Key())
		require.NoError(t, err)
		assert.False(t, exists)

		return q.InsertTransaction(ctx, &inserted)
	})
	require.NoError(t, err)
	assert.Equal(t, txID, inserted.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresImportRepository(mock)
	boom := errors.New("row 9 is broken")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err = repo.WithinTx(context.Background(), func(q Queries) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindStatement_ReturnsExisting(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresImportRepository(mock)
	ctx := context.Background()
	paymentDate := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM statements`).
		WithArgs(paymentDate, int64(1000), int64(1000), int64(0)).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "payment_date", "total_amount", "domestic_amount", "overseas_amount", "created_at",
		}).AddRow(id, paymentDate, int64(1000), int64(1000), int64(0), time.Now()))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(id, paymentDate, "テスト店舗", int64(1000)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectCommit()

	err = repo.WithinTx(ctx, func(q Queries) error {
		stmt, err := q.FindStatement(ctx, StatementKey{PaymentDate: paymentDate, TotalAmount: 1000, DomesticAmount: 1000})
		require.NoError(t, err)
		require.NotNil(t, stmt)
		assert.Equal(t, id, stmt.ID)

		exists, err := q.TransactionExists(ctx, DedupKey{
			StatementID:     id,
			TransactionDate: paymentDate,
			StoreName:       "テスト店舗",
			Amount:          1000,
		})
		require.NoError(t, err)
		assert.True(t, exists)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_BeginFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	called := false
	err = NewPostgresImportRepository(mock).WithinTx(context.Background(), func(q Queries) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
	assert.Contains(t, err.Error(), "failed to begin transaction")
}
