package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apierrors "dapodiksync/internal/errors"
	mw "dapodiksync/internal/middleware"
)

// MergeHandler serves the workbook merge download
type MergeHandler struct {
	service      MergeServiceInterface
	validator    *mw.ValidationMiddleware
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewMergeHandler creates a new merge handler
func NewMergeHandler(service MergeServiceInterface, validator *mw.ValidationMiddleware, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *MergeHandler {
	return &MergeHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "merge_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the merge routes
func (h *MergeHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(mw.ContentTypeValidator("multipart/form-data"))
	r.Use(h.validator.LimitBody)
	r.Post("/", h.Merge)
	return r
}

// Merge handles POST /api/merge
func (h *MergeHandler) Merge(w http.ResponseWriter, r *http.Request) {
	uploads, err := readUploads(r, h.validator)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	result, err := h.service.Merge(r.Context(), uploads)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "merged workbooks",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("files", result.Files),
		slog.Int("rows", result.Rows))

	w.Header().Set("X-Merged-Rows", strconv.Itoa(result.Rows))
	if err := writeAttachment(w, result.Artifact, len(result.Skipped)); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to send merged workbook",
			slog.String("error", err.Error()))
	}
}
