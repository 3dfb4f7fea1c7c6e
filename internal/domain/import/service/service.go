// Package service provides the import orchestration logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/statement-tracker/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-tracker/internal/domain/import/parser"
	"github.com/FACorreiaa/statement-tracker/internal/domain/import/repository"
	"github.com/FACorreiaa/statement-tracker/internal/domain/import/sniffer"
	"github.com/FACorreiaa/statement-tracker/pkg/metrics"
)

// Messages shown to the user after an import.
const (
	MessageFormatError = "CSVファイルの形式が正しくありません。JCBの利用明細CSVファイルを選択してください。"
	MessageParseError  = "CSVファイルの解析に失敗しました。ファイルの内容を確認してください。"
)

// CategoryAssignment is what gets stamped onto a new transaction.
type CategoryAssignment struct {
	CategoryID      *uuid.UUID
	MajorCategoryID *uuid.UUID
	MinorCategoryID *uuid.UUID
}

// CategoryLookup assigns categories by store name from one snapshot of
// the store mappings.
type CategoryLookup interface {
	Assign(storeName string) CategoryAssignment
}

// CategorizationService defines the interface for transaction categorization
type CategorizationService interface {
	// Snapshot loads every store mapping once for the duration of an import.
	Snapshot(ctx context.Context) (CategoryLookup, error)
}

// ImportOutcome summarises one import.
type ImportOutcome struct {
	StatementID      uuid.UUID `json:"statementId"`
	StatementCreated bool      `json:"statementCreated"`
	ImportedCount    int       `json:"importedCount"`
	// SkippedCount is DuplicateCount + ExcludedCount + MissingFieldCount.
	SkippedCount      int    `json:"skippedCount"`
	DuplicateCount    int    `json:"duplicateCount"`
	ExcludedCount     int    `json:"excludedCount"`
	MissingFieldCount int    `json:"missingFieldCount"`
	Encoding          string `json:"encoding"`
	Message           string `json:"message"`
}

// ImportService orchestrates statement imports
type ImportService struct {
	repo       repository.ImportRepository
	catService CategorizationService // nil: transactions are stored uncategorized
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	dedup      dedupFilter
	logger     *slog.Logger
}

// NewImportService creates a new import service
func NewImportService(repo repository.ImportRepository, logger *slog.Logger) *ImportService {
	return &ImportService{
		repo:   repo,
		tracer: otel.Tracer("statement-tracker/import"),
		logger: logger,
	}
}

// WithCategorizationService sets the categorization service for auto-categorization
func (s *ImportService) WithCategorizationService(catService CategorizationService) *ImportService {
	s.catService = catService
	return s
}

// WithMetrics records import counters on m.
func (s *ImportService) WithMetrics(m *metrics.Metrics) *ImportService {
	s.metrics = m
	return s
}

// Import parses raw and persists its statement and transactions in one
// database transaction. A *parser.FormatError or *normalizer.ParseError
// leaves the store untouched.
func (s *ImportService) Import(ctx context.Context, raw []byte) (*ImportOutcome, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "import.Import", trace.WithAttributes(attribute.Int("bytes", len(raw))))
	defer span.End()

	outcome, err := s.run(ctx, raw)
	if s.metrics != nil {
		s.metrics.ImportDuration.Observe(time.Since(start).Seconds())
		s.metrics.ImportsTotal.WithLabelValues(resultLabel(err)).Inc()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, resultLabel(err))
		s.logger.Warn("statement import failed", "error", err, slog.String("result", resultLabel(err)))
		return nil, err
	}

	span.SetAttributes(
		attribute.String("statement_id", outcome.StatementID.String()),
		attribute.Int("imported", outcome.ImportedCount),
		attribute.Int("skipped", outcome.SkippedCount),
	)
	if s.metrics != nil {
		s.metrics.ImportedTransactions.Add(float64(outcome.ImportedCount))
		s.metrics.SkippedTransactions.WithLabelValues("duplicate").Add(float64(outcome.DuplicateCount))
		s.metrics.SkippedTransactions.WithLabelValues(string(normalizer.SkipIssuerLine)).Add(float64(outcome.ExcludedCount))
		s.metrics.SkippedTransactions.WithLabelValues(string(normalizer.SkipMissingField)).Add(float64(outcome.MissingFieldCount))
	}
	s.logger.Info("statement imported",
		slog.String("statement_id", outcome.StatementID.String()),
		slog.Bool("statement_created", outcome.StatementCreated),
		slog.Int("imported", outcome.ImportedCount),
		slog.Int("duplicates", outcome.DuplicateCount),
		slog.Int("excluded", outcome.ExcludedCount),
		slog.Int("missing_field", outcome.MissingFieldCount),
		slog.String("encoding", outcome.Encoding),
		slog.Duration("duration", time.Since(start)),
	)
	return outcome, nil
}

func (s *ImportService) run(ctx context.Context, raw []byte) (*ImportOutcome, error) {
	text, enc := sniffer.DecodeText(raw)

	stmt, err := parser.ParseStatement(text)
	if err != nil {
		return nil, err
	}

	lookup, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var outcome ImportOutcome
	err = s.repo.WithinTx(ctx, func(q repository.Queries) error {
		outcome = ImportOutcome{Encoding: string(enc)}

		statementID, created, err := findOrCreateStatement(ctx, q, stmt)
		if err != nil {
			return err
		}
		outcome.StatementID = statementID
		outcome.StatementCreated = created

		for _, row := range stmt.Rows {
			tx, reason, err := normalizer.Normalize(row)
			if err != nil {
				return err
			}
			switch reason {
			case normalizer.SkipMissingField:
				outcome.MissingFieldCount++
				continue
			case normalizer.SkipIssuerLine:
				outcome.ExcludedCount++
				continue
			}

			rec := repository.Transaction{
				StatementID:     statementID,
				TransactionDate: tx.TransactionDate,
				StoreName:       tx.StoreName,
				Amount:          tx.Amount,
				PaymentType:     tx.PaymentType,
				Note:            tx.Note,
			}

			dup, err := s.dedup.IsDuplicate(ctx, q, rec.Key())
			if err != nil {
				return err
			}
			if dup {
				outcome.DuplicateCount++
				continue
			}

			a := lookup.Assign(rec.StoreName)
			rec.CategoryID = a.CategoryID
			rec.MajorCategoryID = a.MajorCategoryID
			rec.MinorCategoryID = a.MinorCategoryID

			if err := q.InsertTransaction(ctx, &rec); err != nil {
				return fmt.Errorf("failed to insert row %d: %w", tx.Line, err)
			}
			outcome.ImportedCount++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	outcome.SkippedCount = outcome.DuplicateCount + outcome.ExcludedCount + outcome.MissingFieldCount
	outcome.Message = SuccessMessage(outcome.ImportedCount, outcome.DuplicateCount)
	return &outcome, nil
}

func (s *ImportService) snapshot(ctx context.Context) (CategoryLookup, error) {
	if s.catService == nil {
		return noCategories{}, nil
	}
	lookup, err := s.catService.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load store mappings: %w", err)
	}
	return lookup, nil
}

func findOrCreateStatement(ctx context.Context, q repository.Queries, stmt *parser.Statement) (uuid.UUID, bool, error) {
	key := repository.StatementKey{
		PaymentDate:    stmt.PaymentDate,
		TotalAmount:    stmt.TotalAmount,
		DomesticAmount: stmt.DomesticAmount,
		OverseasAmount: stmt.OverseasAmount,
	}
	existing, err := q.FindStatement(ctx, key)
	if err != nil {
		return uuid.Nil, false, err
	}
	if existing != nil {
		return existing.ID, false, nil
	}

	created := &repository.Statement{
		PaymentDate:    key.PaymentDate,
		TotalAmount:    key.TotalAmount,
		DomesticAmount: key.DomesticAmount,
		OverseasAmount: key.OverseasAmount,
	}
	if err := q.CreateStatement(ctx, created); err != nil {
		return uuid.Nil, false, err
	}
	return created.ID, true, nil
}

// SuccessMessage renders the completion notice shown after an import.
func SuccessMessage(imported, duplicates int) string {
	msg := fmt.Sprintf("CSVファイルのインポートが完了しました。%d件の取引をインポートしました。", imported)
	if duplicates > 0 {
		msg += fmt.Sprintf("%d件の重複取引をスキップしました。", duplicates)
	}
	return msg
}

func resultLabel(err error) string {
	var fe *parser.FormatError
	var pe *normalizer.ParseError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &fe):
		return "format_error"
	case errors.As(err, &pe):
		return "parse_error"
	default:
		return "error"
	}
}

type noCategories struct{}

func (noCategories) Assign(string) CategoryAssignment { return CategoryAssignment{} }
