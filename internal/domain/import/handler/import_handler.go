package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/statement-tracker/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-tracker/internal/domain/import/parser"
	importservice "github.com/FACorreiaa/statement-tracker/internal/domain/import/service"
	"github.com/FACorreiaa/statement-tracker/pkg/middleware"
)

// InvalidHeaderBody is returned verbatim for any rejected document header.
const InvalidHeaderBody = "Invalid CSV header format."

// ImportHandler handles statement uploads
type ImportHandler struct {
	importSvc *importservice.ImportService
	maxBytes  int64
	logger    *slog.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(importSvc *importservice.ImportService, maxBytes int64, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		importSvc: importSvc,
		maxBytes:  maxBytes,
		logger:    logger,
	}
}

// Routes mounts the handler on r.
func (h *ImportHandler) Routes(r chi.Router) {
	r.Post("/import", h.Import)
}

type importResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	*importservice.ImportOutcome
}

type importErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Row     int    `json:"row,omitempty"`
	Column  string `json:"column,omitempty"`
}

// Import accepts the statement as the raw request body, in either
// UTF-8 or Shift_JIS.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, "statement exceeds upload limit")
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(raw) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "empty request body")
		return
	}

	outcome, err := h.importSvc.Import(r.Context(), raw)
	if err != nil {
		h.writeImportError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, importResponse{
		Success:       true,
		Message:       outcome.Message,
		ImportOutcome: outcome,
	})
}

func (h *ImportHandler) writeImportError(w http.ResponseWriter, err error) {
	var fe *parser.FormatError
	var pe *normalizer.ParseError
	switch {
	case errors.As(err, &fe) && fe.Kind == parser.InvalidHeader:
		middleware.WriteJSON(w, http.StatusBadRequest, importErrorResponse{
			Error:   InvalidHeaderBody,
			Message: importservice.MessageFormatError,
		})
	case errors.As(err, &fe):
		middleware.WriteJSON(w, http.StatusBadRequest, importErrorResponse{
			Error:   fe.Error(),
			Message: importservice.MessageParseError,
		})
	case errors.As(err, &pe):
		middleware.WriteJSON(w, http.StatusUnprocessableEntity, importErrorResponse{
			Error:   pe.Error(),
			Message: importservice.MessageParseError,
			Row:     pe.Row,
			Column:  pe.Column,
		})
	default:
		h.logger.Error("statement import failed", "error", err)
		middleware.WriteJSON(w, http.StatusInternalServerError, importErrorResponse{
			Error:   "internal server error",
			Message: importservice.MessageParseError,
		})
	}
}
