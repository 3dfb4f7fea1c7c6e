package handler

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/statement-tracker/internal/domain/insights"
	"github.com/FACorreiaa/statement-tracker/pkg/apperr"
	"github.com/FACorreiaa/statement-tracker/pkg/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// InsightsHandler serves the dashboards.
type InsightsHandler struct {
	svc    *insights.Service
	logger *slog.Logger
}

// NewInsightsHandler creates a new insights handler
func NewInsightsHandler(svc *insights.Service, logger *slog.Logger) *InsightsHandler {
	return &InsightsHandler{svc: svc, logger: logger}
}

// Routes mounts the handler on r.
func (h *InsightsHandler) Routes(r chi.Router) {
	r.Get("/dashboard", h.Dashboard)
	r.Get("/dashboard/export", h.Export)
}

// Dashboard handles GET /dashboard?mode=flat|hierarchical&month=YYYY-MM&statementId=
func (h *InsightsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	view, ok := h.build(w, r)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, view)
}

// Export returns the same dashboard as an .xlsx workbook.
func (h *InsightsHandler) Export(w http.ResponseWriter, r *http.Request) {
	view, ok := h.build(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := insights.WriteWorkbook(view, &buf); err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}

	name := "dashboard-" + string(view.Mode)
	if m := r.URL.Query().Get("month"); m != "" {
		name += "-" + m
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *InsightsHandler) build(w http.ResponseWriter, r *http.Request) (*insights.DashboardView, bool) {
	q := r.URL.Query()

	mode, err := insights.ParseMode(q.Get("mode"))
	if err != nil {
		middleware.WriteServiceError(w, h.logger, apperr.NewValidation("mode", err.Error()))
		return nil, false
	}
	query := insights.DashboardQuery{Mode: mode, Month: q.Get("month")}
	if v := q.Get("statementId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			middleware.WriteServiceError(w, h.logger, apperr.NewValidation("statementId", "invalid statement id"))
			return nil, false
		}
		query.StatementID = &id
	}

	view, err := h.svc.Dashboard(r.Context(), query)
	if err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return nil, false
	}
	return view, true
}
