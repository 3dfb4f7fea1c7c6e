// Package normalizer turns raw statement rows into typed transactions.
package normalizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/FACorreiaa/statement-tracker/internal/domain/import/parser"
)

// IssuerPrefix marks the card issuer's own administrative lines.
const IssuerPrefix = "ＪＣＢ"

// SkipReason explains why a row produced no transaction.
type SkipReason string

const (
	Kept             SkipReason = ""
	SkipMissingField SkipReason = "missing_field"
	SkipIssuerLine   SkipReason = "issuer_line"
)

// Column names used in ParseError.
const (
	ColumnUsageDate = "ご利用日"
	ColumnAmount    = "ご利用金額(￥)"
)

// Transaction is a cleaned line item ready for dedup and categorization.
type Transaction struct {
	Line            int
	TransactionDate time.Time
	StoreName       string
	Amount          int64
	PaymentType     string
	Note            *string
}

// ParseError reports an unparseable value in a required column.
type ParseError struct {
	Row     int
	Column  string
	Value   string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d, column %s: %s (value %q)", e.Row, e.Column, e.Message, e.Value)
}

// Normalize validates one raw row. A row is either kept (reason Kept and a
// non-nil transaction), skipped (a non-empty reason), or rejected with
// *ParseError.
func Normalize(row parser.RawRow) (*Transaction, SkipReason, error) {
	date := strings.TrimSpace(row.UsageDate)
	store := strings.TrimSpace(row.StoreName)
	amount := strings.TrimSpace(row.Amount)

	if date == "" || store == "" || amount == "" {
		return nil, SkipMissingField, nil
	}
	if strings.HasPrefix(store, IssuerPrefix) {
		return nil, SkipIssuerLine, nil
	}

	yen, err := parser.ParseAmount(amount)
	if err != nil {
		return nil, Kept, &ParseError{Row: row.Line, Column: ColumnAmount, Value: row.Amount, Message: "invalid amount"}
	}
	when, err := parser.ParseDate(date)
	if err != nil {
		return nil, Kept, &ParseError{Row: row.Line, Column: ColumnUsageDate, Value: row.UsageDate, Message: "invalid date"}
	}

	return &Transaction{
		Line:            row.Line,
		TransactionDate: when,
		StoreName:       store,
		Amount:          yen,
		PaymentType:     strings.TrimSpace(row.PaymentType),
		Note:            optional(row.Note),
	}, Kept, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
