package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-tracker/internal/domain/transactions"
	"github.com/FACorreiaa/statement-tracker/pkg/logger"
)

func newTestRouter(t *testing.T) (http.Handler, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	svc := transactions.NewService(transactions.NewRepository(mock), logger.Discard())
	r := chi.NewRouter()
	r.Route("/api", NewTransactionsHandler(svc, logger.Discard()).Routes)
	return r, mock
}

func TestUpdateCategory(t *testing.T) {
	id, categoryID := uuid.New(), uuid.New()

	tests := []struct {
		name   string
		path   string
		body   string
		setup  func(mock pgxmock.PgxPoolIface)
		status int
	}{
		{
			name: "updated",
			path: "/api/transactions/" + id.String(),
			body: `{"categoryId":"` + categoryID.String() + `"}`,
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE transactions`).
					WithArgs(id, &categoryID).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
			status: http.StatusNoContent,
		},
		{
			name: "missing transaction",
			path: "/api/transactions/" + id.String(),
			body: `{"categoryId":"` + categoryID.String() + `"}`,
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE transactions`).
					WithArgs(id, &categoryID).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			},
			status: http.StatusNotFound,
		},
		{
			name:   "bad id",
			path:   "/api/transactions/42",
			body:   `{}`,
			setup:  func(pgxmock.PgxPoolIface) {},
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, mock := newTestRouter(t)
			tt.setup(mock)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, tt.path, strings.NewReader(tt.body)))

			assert.Equal(t, tt.status, rec.Code)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestList_InvalidMonth(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/transactions?month=June", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "YYYY-MM")
}

func TestStatements(t *testing.T) {
	router, mock := newTestRouter(t)
	id := uuid.New()

	mock.ExpectQuery(`FROM statements s`).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "payment_date", "total_amount", "domestic_amount", "overseas_amount", "count", "created_at",
		}).AddRow(id, time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC), int64(10000), int64(10000), int64(0), 2, time.Now()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/statements", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), id.String())
	assert.Contains(t, rec.Body.String(), `"transactionCount":2`)
}

func TestMonths_EmptyIsArray(t *testing.T) {
	router, mock := newTestRouter(t)
	mock.ExpectQuery(`SELECT DISTINCT`).WillReturnRows(pgxmock.NewRows([]string{"month"}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/months", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
