package transactions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/statement-tracker/internal/domain/categorization"
	"github.com/FACorreiaa/statement-tracker/pkg/apperr"
	"github.com/FACorreiaa/statement-tracker/pkg/db"
)

const foreignKeyViolation = "23503"

// Transaction is a stored line item with the names of the categories
// stamped on it at import (or by a later explicit update).
type Transaction struct {
	ID                uuid.UUID  `json:"id"`
	StatementID       uuid.UUID  `json:"statementId"`
	TransactionDate   time.Time  `json:"transactionDate"`
	StoreName         string     `json:"storeName"`
	Amount            int64      `json:"amount"`
	PaymentType       string     `json:"paymentType"`
	Note              *string    `json:"note"`
	CategoryID        *uuid.UUID `json:"categoryId"`
	CategoryName      *string    `json:"categoryName"`
	MajorCategoryID   *uuid.UUID `json:"majorCategoryId"`
	MajorCategoryName *string    `json:"majorCategoryName"`
	MinorCategoryID   *uuid.UUID `json:"minorCategoryId"`
	MinorCategoryName *string    `json:"minorCategoryName"`

	// Live store mappings, filled by Service.List when configured.
	StoreCategory        *categorization.Label      `json:"storeCategory"`
	HierarchicalCategory *categorization.Resolution `json:"hierarchicalCategory"`
}

// Statement is a statement summary with its transaction count.
type Statement struct {
	ID               uuid.UUID `json:"id"`
	PaymentDate      time.Time `json:"paymentDate"`
	TotalAmount      int64     `json:"totalAmount"`
	DomesticAmount   int64     `json:"domesticAmount"`
	OverseasAmount   int64     `json:"overseasAmount"`
	TransactionCount int       `json:"transactionCount"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Query narrows List. Zero values mean no restriction.
type Query struct {
	From        time.Time // inclusive
	To          time.Time // exclusive
	StatementID *uuid.UUID
	Limit       int
	Offset      int
}

// Repository handles read-side transaction queries.
type Repository struct {
	db db.Querier
}

// NewRepository creates a new transactions repository
func NewRepository(q db.Querier) *Repository {
	return &Repository{db: q}
}

// List returns transactions ordered by date descending.
func (r *Repository) List(ctx context.Context, q Query) ([]Transaction, error) {
	var (
		where []string
		args  []any
	)
	if !q.From.IsZero() {
		args = append(args, q.From)
		where = append(where, fmt.Sprintf("t.transaction_date >= $%d", len(args)))
	}
	if !q.To.IsZero() {
		args = append(args, q.To)
		where = append(where, fmt.Sprintf("t.transaction_date < $%d", len(args)))
	}
	if q.StatementID != nil {
		args = append(args, *q.StatementID)
		where = append(where, fmt.Sprintf("t.statement_id = $%d", len(args)))
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT t.id, t.statement_id, t.transaction_date, t.store_name, t.amount,
		       t.payment_type, t.note,
		       t.category_id, c.name,
		       t.major_category_id, ma.name,
		       t.minor_category_id, mi.name
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		LEFT JOIN major_categories ma ON ma.id = t.major_category_id
		LEFT JOIN minor_categories mi ON mi.id = t.minor_category_id`)
	if len(where) > 0 {
		sb.WriteString("\n\t\tWHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString("\n\t\tORDER BY t.transaction_date DESC, t.created_at DESC, t.id")
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, "\n\t\tLIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(
			&t.ID, &t.StatementID, &t.TransactionDate, &t.StoreName, &t.Amount,
			&t.PaymentType, &t.Note,
			&t.CategoryID, &t.CategoryName,
			&t.MajorCategoryID, &t.MajorCategoryName,
			&t.MinorCategoryID, &t.MinorCategoryName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AvailableMonths returns the distinct YYYY-MM keys of stored transactions,
// ascending.
func (r *Repository) AvailableMonths(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT to_char(transaction_date, 'YYYY-MM') AS month
		FROM transactions
		ORDER BY month
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list months: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListStatements returns statements, newest payment date first.
func (r *Repository) ListStatements(ctx context.Context) ([]Statement, error) {
	rows, err := r.db.Query(ctx, `
		SELECT s.id, s.payment_date, s.total_amount, s.domestic_amount, s.overseas_amount,
		       COUNT(t.id), s.created_at
		FROM statements s
		LEFT JOIN transactions t ON t.statement_id = s.id
		GROUP BY s.id
		ORDER BY s.payment_date DESC, s.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list statements: %w", err)
	}
	defer rows.Close()

	var out []Statement
	for rows.Next() {
		var s Statement
		if err := rows.Scan(
			&s.ID, &s.PaymentDate, &s.TotalAmount, &s.DomesticAmount, &s.OverseasAmount,
			&s.TransactionCount, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateCategory sets or clears the flat category of one transaction.
func (r *Repository) UpdateCategory(ctx context.Context, id uuid.UUID, categoryID *uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE transactions SET category_id = $2 WHERE id = $1`, id, categoryID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return apperr.NotFoundf("category %s", categoryID)
		}
		return fmt.Errorf("failed to update transaction category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("transaction %s", id)
	}
	return nil
}
