// Package transactions serves the read side of imported statements:
// listing, month discovery and explicit category reassignment.
package transactions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/statement-tracker/internal/domain/categorization"
	"github.com/FACorreiaa/statement-tracker/pkg/apperr"
)

// MonthLayout is the YYYY-MM key used for month filters and grouping.
const MonthLayout = "2006-01"

const maxLimit = 1000

// Store is the persistence the service needs. *Repository implements it.
type Store interface {
	List(ctx context.Context, q Query) ([]Transaction, error)
	AvailableMonths(ctx context.Context) ([]string, error)
	ListStatements(ctx context.Context) ([]Statement, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, categoryID *uuid.UUID) error
}

// Filter is the caller-facing form of Query.
type Filter struct {
	Month       string // YYYY-MM, empty for all
	StatementID *uuid.UUID
	Limit       int // 0 for all
	Offset      int
}

// MappingSource loads the current store mappings.
// *categorization.Service implements it.
type MappingSource interface {
	FlatResolver(ctx context.Context) (*categorization.FlatResolver, error)
	HierarchicalResolver(ctx context.Context) (*categorization.HierarchicalResolver, error)
}

// Service answers transaction queries.
type Service struct {
	store    Store
	mappings MappingSource
	logger   *slog.Logger
}

// NewService creates a new transactions service
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// WithMappings enables live store-mapping annotation on List.
func (s *Service) WithMappings(src MappingSource) *Service {
	s.mappings = src
	return s
}

// List returns matching transactions, newest first. With a mapping source
// set, each row also carries the category its store maps to right now;
// the stamped category columns are left as imported.
func (s *Service) List(ctx context.Context, f Filter) ([]Transaction, error) {
	q, err := f.query()
	if err != nil {
		return nil, err
	}
	txs, err := s.store.List(ctx, q)
	if err != nil {
		return nil, err
	}
	if s.mappings == nil || len(txs) == 0 {
		return txs, nil
	}
	if err := s.annotate(ctx, txs); err != nil {
		return nil, err
	}
	return txs, nil
}

func (s *Service) annotate(ctx context.Context, txs []Transaction) error {
	flat, err := s.mappings.FlatResolver(ctx)
	if err != nil {
		return fmt.Errorf("failed to load store mappings: %w", err)
	}
	hier, err := s.mappings.HierarchicalResolver(ctx)
	if err != nil {
		return fmt.Errorf("failed to load store mappings: %w", err)
	}
	for i := range txs {
		if res, ok := flat.Resolve(txs[i].StoreName); ok {
			label := res.Major
			txs[i].StoreCategory = &label
		}
		if res, ok := hier.Resolve(txs[i].StoreName); ok {
			txs[i].HierarchicalCategory = &res
		}
	}
	return nil
}

// AvailableMonths returns the months that have transactions, ascending.
func (s *Service) AvailableMonths(ctx context.Context) ([]string, error) {
	return s.store.AvailableMonths(ctx)
}

// ListStatements returns every imported statement.
func (s *Service) ListStatements(ctx context.Context) ([]Statement, error) {
	return s.store.ListStatements(ctx)
}

// UpdateCategory reassigns the flat category of one transaction; a nil
// categoryID clears it. Store mappings are not touched.
func (s *Service) UpdateCategory(ctx context.Context, id uuid.UUID, categoryID *uuid.UUID) error {
	if err := s.store.UpdateCategory(ctx, id, categoryID); err != nil {
		return err
	}
	s.logger.Info("transaction category updated",
		slog.String("transaction_id", id.String()),
		slog.Bool("cleared", categoryID == nil),
	)
	return nil
}

// MonthRange returns [first day of month, first day of next month) for a
// YYYY-MM key.
func MonthRange(month string) (time.Time, time.Time, error) {
	start, err := time.Parse(MonthLayout, month)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.NewValidation("month", "month must be formatted as YYYY-MM")
	}
	return start, start.AddDate(0, 1, 0), nil
}

func (f Filter) query() (Query, error) {
	q := Query{StatementID: f.StatementID, Limit: f.Limit, Offset: f.Offset}
	if f.Limit < 0 {
		return Query{}, apperr.NewValidation("limit", "limit must not be negative")
	}
	if f.Offset < 0 {
		return Query{}, apperr.NewValidation("offset", "offset must not be negative")
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if f.Month != "" {
		from, to, err := MonthRange(f.Month)
		if err != nil {
			return Query{}, err
		}
		q.From, q.To = from, to
	}
	return q, nil
}
