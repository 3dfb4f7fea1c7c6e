package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/statement-tracker/pkg/db"
)

// Row is the slice of a transaction the dashboards read.
type Row struct {
	TransactionDate time.Time
	StoreName       string
	Amount          int64
	CategoryID      *uuid.UUID
	CategoryName    *string
}

// InsightsRepository loads dashboard rows.
type InsightsRepository interface {
	ListRows(ctx context.Context, statementID *uuid.UUID) ([]Row, error)
}

// Repository handles database operations for insights
type Repository struct {
	db db.Querier
}

// NewRepository creates a new insights repository
func NewRepository(q db.Querier) *Repository {
	return &Repository{db: q}
}

// ListRows returns every transaction, optionally of one statement, with
// the name of its stamped flat category.
func (r *Repository) ListRows(ctx context.Context, statementID *uuid.UUID) ([]Row, error) {
	query := `
		SELECT t.transaction_date, t.store_name, t.amount, t.category_id, c.name
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE ($1::uuid IS NULL OR t.statement_id = $1)
		ORDER BY t.transaction_date
	`

	rows, err := r.db.Query(ctx, query, statementID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard rows: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.TransactionDate, &row.StoreName, &row.Amount, &row.CategoryID, &row.CategoryName); err != nil {
			return nil, fmt.Errorf("failed to scan dashboard row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
