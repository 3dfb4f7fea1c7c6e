package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-tracker/internal/domain/categorization"
	"github.com/FACorreiaa/statement-tracker/pkg/logger"
)

func newTestRouter(t *testing.T) (http.Handler, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	svc := categorization.NewService(categorization.NewRepository(mock), logger.Discard())
	r := chi.NewRouter()
	r.Route("/api", NewCategorizationHandler(svc, logger.Discard()).Routes)
	return r, mock
}

func TestSetStoreCategory(t *testing.T) {
	router, mock := newTestRouter(t)
	categoryID := uuid.New()

	mock.ExpectQuery(`FROM categories WHERE id`).
		WithArgs(categoryID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at"}).AddRow(categoryID, "食費", time.Now()))
	mock.ExpectExec(`INSERT INTO store_category_mappings`).
		WithArgs("テストストア", categoryID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	body := `{"categoryId":"` + categoryID.String() + `"}`
	req := httptest.NewRequest(http.MethodPut, "/api/store-mappings/"+url.PathEscape("テストストア"), strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStoreHierarchicalCategory_MinorMismatch(t *testing.T) {
	router, mock := newTestRouter(t)
	majorID, otherMajor, minorID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery(`FROM major_categories WHERE id`).
		WithArgs(majorID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).AddRow(majorID, "食費"))
	mock.ExpectQuery(`FROM minor_categories WHERE id`).
		WithArgs(minorID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "major_category_id", "name"}).AddRow(minorID, otherMajor, "洗剤"))

	body := `{"majorCategoryId":"` + majorID.String() + `","minorCategoryId":"` + minorID.String() + `"}`
	req := httptest.NewRequest(http.MethodPut, "/api/store-hierarchical-mappings/"+url.PathEscape("テストストア"), strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, categorization.ErrMinorNotInMajor, resp["error"])
	assert.NoError(t, mock.ExpectationsWereMet(), "no upsert may run")
}

func TestDeleteStoreCategory_NotFound(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectExec(`DELETE FROM store_category_mappings`).
		WithArgs("テスト店舗").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	req := httptest.NewRequest(http.MethodDelete, "/api/store-mappings/"+url.PathEscape("テスト店舗"), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateCategory(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		setup  func(mock pgxmock.PgxPoolIface)
		status int
	}{
		{
			name: "created",
			body: `{"name":"食費"}`,
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO categories`).
					WithArgs("食費").
					WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at"}).AddRow(uuid.New(), "食費", time.Now()))
			},
			status: http.StatusCreated,
		},
		{
			name:   "blank name",
			body:   `{"name":"  "}`,
			setup:  func(pgxmock.PgxPoolIface) {},
			status: http.StatusBadRequest,
		},
		{
			name:   "malformed body",
			body:   `{"name":`,
			setup:  func(pgxmock.PgxPoolIface) {},
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, mock := newTestRouter(t)
			tt.setup(mock)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/categories", strings.NewReader(tt.body)))

			assert.Equal(t, tt.status, rec.Code)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestListStoreMappings_EmptyIsArray(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectQuery(`FROM store_category_mappings`).
		WillReturnRows(pgxmock.NewRows([]string{"store_name", "category_id", "name"}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/store-mappings", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSuggestMappings_InvalidLimit(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/store-mappings/"+url.PathEscape("ローソン")+"/suggestions?limit=0", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
