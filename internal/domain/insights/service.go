// Package insights aggregates imported transactions into dashboard views.
package insights

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/statement-tracker/internal/domain/categorization"
	"github.com/FACorreiaa/statement-tracker/pkg/apperr"
)

// ResolverSource loads the current hierarchical store mappings.
type ResolverSource interface {
	HierarchicalResolver(ctx context.Context) (*categorization.HierarchicalResolver, error)
}

// DashboardQuery selects what a dashboard covers.
type DashboardQuery struct {
	Mode        Mode
	Month       string // YYYY-MM, empty for all months
	StatementID *uuid.UUID
}

// Service builds dashboards.
type Service struct {
	repo      InsightsRepository
	resolvers ResolverSource
	tracer    trace.Tracer
	logger    *slog.Logger
}

// NewService creates a new insights service
func NewService(repo InsightsRepository, resolvers ResolverSource, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		resolvers: resolvers,
		tracer:    otel.Tracer("statement-tracker/insights"),
		logger:    logger,
	}
}

// Dashboard aggregates the selected transactions. Flat mode reads the
// category stamped at import; hierarchical mode re-resolves each store
// through its current mapping, so remapping a store changes past months
// in that view only. AvailableMonths always lists every month of the
// selection, even when Month narrows the rest of the view.
func (s *Service) Dashboard(ctx context.Context, q DashboardQuery) (*DashboardView, error) {
	ctx, span := s.tracer.Start(ctx, "insights.Dashboard", trace.WithAttributes(
		attribute.String("mode", string(q.Mode)),
		attribute.String("month", q.Month),
	))
	defer span.End()

	if q.Mode == "" {
		q.Mode = ModeFlat
	}
	if q.Month != "" {
		if _, err := time.Parse(MonthLayout, q.Month); err != nil {
			return nil, apperr.NewValidation("month", "month must be formatted as YYYY-MM")
		}
	}

	rows, err := s.repo.ListRows(ctx, q.StatementID)
	if err != nil {
		return nil, err
	}

	annotate, err := s.annotator(ctx, q.Mode)
	if err != nil {
		return nil, err
	}

	all := make([]Entry, 0, len(rows))
	for _, row := range rows {
		all = append(all, Entry{Date: row.TransactionDate, Amount: row.Amount, Category: annotate(row)})
	}

	selected := all
	if q.Month != "" {
		selected = make([]Entry, 0, len(all))
		for _, e := range all {
			if e.Date.Format(MonthLayout) == q.Month {
				selected = append(selected, e)
			}
		}
	}

	view := Aggregate(selected, q.Mode)
	view.AvailableMonths = availableMonths(all)

	span.SetAttributes(attribute.Int("transactions", view.TransactionCount))
	s.logger.Debug("dashboard built",
		slog.String("mode", string(q.Mode)),
		slog.String("month", q.Month),
		slog.Int("transactions", view.TransactionCount),
	)
	return view, nil
}

func (s *Service) annotator(ctx context.Context, mode Mode) (func(Row) *categorization.Resolution, error) {
	switch mode {
	case ModeFlat:
		return frozenCategory, nil
	case ModeHierarchical:
		resolver, err := s.resolvers.HierarchicalResolver(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load hierarchical mappings: %w", err)
		}
		return func(row Row) *categorization.Resolution {
			res, ok := resolver.Resolve(row.StoreName)
			if !ok {
				return nil
			}
			return &res
		}, nil
	default:
		return nil, apperr.NewValidation("mode", fmt.Sprintf("unknown dashboard mode %q", mode))
	}
}

func frozenCategory(row Row) *categorization.Resolution {
	if row.CategoryID == nil {
		return nil
	}
	label := categorization.Label{ID: *row.CategoryID}
	if row.CategoryName != nil {
		label.Name = *row.CategoryName
	}
	return &categorization.Resolution{Major: label}
}
