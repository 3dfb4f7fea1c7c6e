// Package repository provides data access for statements and their
// imported transactions.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Statement is one monthly card statement summary.
type Statement struct {
	ID             uuid.UUID `db:"id"`
	PaymentDate    time.Time `db:"payment_date"`
	TotalAmount    int64     `db:"total_amount"`
	DomesticAmount int64     `db:"domestic_amount"`
	OverseasAmount int64     `db:"overseas_amount"`
	CreatedAt      time.Time `db:"created_at"`
}

// StatementKey identifies a statement by its header values, so re-importing
// the same document lands on the same statement.
type StatementKey struct {
	PaymentDate    time.Time
	TotalAmount    int64
	DomesticAmount int64
	OverseasAmount int64
}

// Transaction is one persisted line item.
type Transaction struct {
	ID              uuid.UUID  `db:"id"`
	StatementID     uuid.UUID  `db:"statement_id"`
	TransactionDate time.Time  `db:"transaction_date"`
	StoreName       string     `db:"store_name"`
	Amount          int64      `db:"amount"`
	PaymentType     string     `db:"payment_type"`
	Note            *string    `db:"note"`
	CategoryID      *uuid.UUID `db:"category_id"`
	MajorCategoryID *uuid.UUID `db:"major_category_id"`
	MinorCategoryID *uuid.UUID `db:"minor_category_id"`
	CreatedAt       time.Time  `db:"created_at"`
}

// DedupKey is the identity of a transaction within its statement.
// Payment type and note are not part of it.
type DedupKey struct {
	StatementID     uuid.UUID
	TransactionDate time.Time
	StoreName       string
	Amount          int64
}

// Key returns the dedup identity of t.
func (t *Transaction) Key() DedupKey {
	return DedupKey{
		StatementID:     t.StatementID,
		TransactionDate: t.TransactionDate,
		StoreName:       t.StoreName,
		Amount:          t.Amount,
	}
}

// Queries are the statements run inside one import unit of work.
type Queries interface {
	// FindStatement returns nil, nil when no statement has the key.
	FindStatement(ctx context.Context, key StatementKey) (*Statement, error)
	CreateStatement(ctx context.Context, stmt *Statement) error
	TransactionExists(ctx context.Context, key DedupKey) (bool, error)
	InsertTransaction(ctx context.Context, tx *Transaction) error
}

// ImportRepository runs fn atomically: if fn returns an error nothing it
// wrote is kept.
type ImportRepository interface {
	WithinTx(ctx context.Context, fn func(q Queries) error) error
}
