package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/statement-tracker/internal/domain/categorization"
	"github.com/FACorreiaa/statement-tracker/pkg/apperr"
	"github.com/FACorreiaa/statement-tracker/pkg/middleware"
)

const defaultSuggestionLimit = 5

// CategorizationHandler exposes category and store-mapping maintenance.
type CategorizationHandler struct {
	svc    *categorization.Service
	logger *slog.Logger
}

// NewCategorizationHandler creates a new categorization handler
func NewCategorizationHandler(svc *categorization.Service, logger *slog.Logger) *CategorizationHandler {
	return &CategorizationHandler{svc: svc, logger: logger}
}

// Routes mounts the handler on r.
func (h *CategorizationHandler) Routes(r chi.Router) {
	r.Get("/categories", h.ListCategories)
	r.Post("/categories", h.CreateCategory)

	r.Get("/major-categories", h.ListMajorCategories)
	r.Post("/major-categories", h.CreateMajorCategory)
	r.Post("/major-categories/{id}/minor-categories", h.CreateMinorCategory)

	r.Get("/store-mappings", h.ListStoreMappings)
	r.Put("/store-mappings/{store}", h.SetStoreCategory)
	r.Delete("/store-mappings/{store}", h.DeleteStoreCategory)
	r.Get("/store-mappings/{store}/suggestions", h.SuggestMappings)

	r.Get("/store-hierarchical-mappings", h.ListStoreHierarchicalMappings)
	r.Put("/store-hierarchical-mappings/{store}", h.SetStoreHierarchicalCategory)
	r.Delete("/store-hierarchical-mappings/{store}", h.DeleteStoreHierarchicalCategory)
}

type nameRequest struct {
	Name string `json:"name"`
}

type storeCategoryRequest struct {
	CategoryID uuid.UUID `json:"categoryId"`
}

type storeHierarchicalRequest struct {
	MajorCategoryID uuid.UUID  `json:"majorCategoryId"`
	MinorCategoryID *uuid.UUID `json:"minorCategoryId"`
}

func (h *CategorizationHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListCategories(r.Context())
	if err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, nonNil(out))
}

func (h *CategorizationHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}
	c, err := h.svc.CreateCategory(r.Context(), req.Name)
	if err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, c)
}

func (h *CategorizationHandler) ListMajorCategories(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListMajorCategories(r.Context())
	if err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, nonNil(out))
}

func (h *CategorizationHandler) CreateMajorCategory(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}
	m, err := h.svc.CreateMajorCategory(r.Context(), req.Name)
	if err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, m)
}

func (h *CategorizationHandler) CreateMinorCategory(w http.ResponseWriter, r *http.Request) {
	majorID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteServiceError(w, h.logger, apperr.NewValidation("id", "invalid major category id"))
		return
	}
	var req nameRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}
	m, err := h.svc.CreateMinorCategory(r.Context(), majorID, req.Name)
	if err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, m)
}

func (h *CategorizationHandler) ListStoreMappings(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListStoreMappings(r.Context())
	if err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, nonNil(out))
}

func (h *CategorizationHandler) SetStoreCategory(w http.ResponseWriter, r *http.Request) {
	store, err := storeParam(r)
	if err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}
	var req storeCategoryRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}
	if err := h.svc.SetStoreCategory(r.Context(), store, req.CategoryID); err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CategorizationHandler) DeleteStoreCategory(w http.ResponseWriter, r *http.Request) {
	store, err := storeParam(r)
	if err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}
	if err := h.svc.DeleteStoreCategory(r.Context(), store); err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CategorizationHandler) ListStoreHierarchicalMappings(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListStoreHierarchicalMappings(r.Context())
	if err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, nonNil(out))
}

func (h *CategorizationHandler) SetStoreHierarchicalCategory(w http.ResponseWriter, r *http.Request) {
	store, err := storeParam(r)
	if err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}
	var req storeHierarchicalRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}
	if err := h.svc.SetStoreHierarchicalCategory(r.Context(), store, req.MajorCategoryID, req.MinorCategoryID); err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CategorizationHandler) DeleteStoreHierarchicalCategory(w http.ResponseWriter, r *http.Request) {
	store, err := storeParam(r)
	if err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}
	if err := h.svc.DeleteStoreHierarchicalCategory(r.Context(), store); err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CategorizationHandler) SuggestMappings(w http.ResponseWriter, r *http.Request) {
	store, err := storeParam(r)
	if err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}
	limit := defaultSuggestionLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			middleware.WriteServiceError(w, h.logger, apperr.NewValidation("limit", "limit must be a positive integer"))
			return
		}
		limit = n
	}
	out, err := h.svc.SuggestMappings(r.Context(), store, limit)
	if err != nil {
		middleware.WriteServiceError(w, h.logger, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, nonNil(out))
}

// storeParam returns the unescaped {store} path segment. Store names are
// Japanese text and arrive percent-encoded.
func storeParam(r *http.Request) (string, error) {
	store, err := url.PathUnescape(chi.URLParam(r, "store"))
	if err != nil {
		return "", apperr.NewValidation("store", "invalid store name")
	}
	return store, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
