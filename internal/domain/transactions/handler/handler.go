package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/statement-tracker/internal/domain/transactions"
	"github.com/FACorreiaa/statement-tracker/pkg/apperr"
	"github.com/FACorreiaa/statement-tracker/pkg/middleware"
)

// TransactionsHandler exposes transaction listing and reassignment.
type TransactionsHandler struct {
	svc    *transactions.Service
	logger *slog.Logger
}

// NewTransactionsHandler creates a new transactions handler
func NewTransactionsHandler(svc *transactions.Service, logger *slog.Logger) *TransactionsHandler {
	return &TransactionsHandler{svc: svc, logger: logger}
}

// Routes mounts the handler on r.
func (h *TransactionsHandler) Routes(r chi.Router) {
	r.Get("/transactions", h.List)
	r.Put("/transactions/{id}", h.UpdateCategory)
	r.Get("/months", h.Months)
	r.Get("/statements", h.Statements)
}

func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}
	out, err := h.svc.List(r.Context(), f)
	if err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}
	if out == nil {
		out = []transactions.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, out)
}

type updateCategoryRequest struct {
	CategoryID *uuid.UUID `json:"categoryId"`
}

func (h *TransactionsHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteServiceError(w, h.logger, apperr.NewValidation("id", "invalid transaction id"))
		return
	}
	var req updateCategoryRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}
	if err := h.svc.UpdateCategory(r.Context(), id, req.CategoryID); err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TransactionsHandler) Months(w http.ResponseWriter, r *http.Request) {
	months, err := h.svc.AvailableMonths(r.Context())
	if err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}
	if months == nil {
		months = []string{}
	}
	middleware.WriteJSON(w, http.StatusOK, months)
}

func (h *TransactionsHandler) Statements(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListStatements(r.Context())
	if err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}
	if out == nil {
		out = []transactions.Statement{}
	}
	middleware.WriteJSON(w, http.StatusOK, out)
}

func parseFilter(r *http.Request) (transactions.Filter, error) {
	q := r.URL.Query()
	f := transactions.Filter{Month: q.Get("month")}

	if v := q.Get("statementId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, apperr.NewValidation("statementId", "invalid statement id")
		}
		f.StatementID = &id
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &f.Limit}, {"offset", &f.Offset}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, apperr.NewValidation(p.name, p.name+" must be an integer")
		}
		*p.dst = n
	}
	return f, nil
}
