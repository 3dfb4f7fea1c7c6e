package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/FACorreiaa/statement-tracker/pkg/db"
)

// PostgresImportRepository implements ImportRepository with pgx.
type PostgresImportRepository struct {
	db db.Pool
}

// NewPostgresImportRepository creates a new import repository
func NewPostgresImportRepository(pool db.Pool) *PostgresImportRepository {
	return &PostgresImportRepository{db: pool}
}

// WithinTx runs fn inside a database transaction.
func (r *PostgresImportRepository) WithinTx(ctx context.Context, fn func(q Queries) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgQueries{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	return nil
}

type pgQueries struct {
	q db.Querier
}

func (p *pgQueries) FindStatement(ctx context.Context, key StatementKey) (*Statement, error) {
	query := `
		SELECT id, payment_date, total_amount, domestic_amount, overseas_amount, created_at
		FROM statements
		WHERE payment_date = $1 AND total_amount = $2
		  AND domestic_amount = $3 AND overseas_amount = $4
		ORDER BY created_at
		LIMIT 1
	`

	var s Statement
	err := p.q.QueryRow(ctx, query,
		key.PaymentDate, key.TotalAmount, key.DomesticAmount, key.OverseasAmount,
	).Scan(&s.ID, &s.PaymentDate, &s.TotalAmount, &s.DomesticAmount, &s.OverseasAmount, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find statement: %w", err)
	}
	return &s, nil
}

func (p *pgQueries) CreateStatement(ctx context.Context, s *Statement) error {
	query := `
		INSERT INTO statements (payment_date, total_amount, domestic_amount, overseas_amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := p.q.QueryRow(ctx, query,
		s.PaymentDate, s.TotalAmount, s.DomesticAmount, s.OverseasAmount,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create statement: %w", err)
	}
	return nil
}

func (p *pgQueries) TransactionExists(ctx context.Context, key DedupKey) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE statement_id = $1 AND transaction_date = $2
			  AND store_name = $3 AND amount = $4
		)
	`

	var exists bool
	err := p.q.QueryRow(ctx, query,
		key.StatementID, key.TransactionDate, key.StoreName, key.Amount,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate transaction: %w", err)
	}
	return exists, nil
}

func (p *pgQueries) InsertTransaction(ctx context.Context, t *Transaction) error {
	query := `
		INSERT INTO transactions (
			statement_id, transaction_date, store_name, amount, payment_type, note,
			category_id, major_category_id, minor_category_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err := p.q.QueryRow(ctx, query,
		t.StatementID,
		t.TransactionDate,
		t.StoreName,
		t.Amount,
		t.PaymentType,
		t.Note,
		t.CategoryID,
		t.MajorCategoryID,
		t.MinorCategoryID,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}
