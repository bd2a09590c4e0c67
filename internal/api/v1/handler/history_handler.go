package handler

import (
	"net/http"
	"strconv"

	"humanizer/internal/api/v1/dto"
	"humanizer/internal/service"

	"github.com/rs/zerolog"
)

const defaultHistoryLimit = 10

type HistoryHandler struct {
	historySvc service.HistoryService
	logger     zerolog.Logger
}

func NewHistoryHandler(historySvc service.HistoryService, logger zerolog.Logger) *HistoryHandler {
	return &HistoryHandler{historySvc: historySvc, logger: logger}
}

func (h *HistoryHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.Handle("GET /api/history", authMiddleware(http.HandlerFunc(h.List)))
	mux.Handle("DELETE /api/history/{id}", authMiddleware(http.HandlerFunc(h.Delete)))
	mux.Handle("POST /api/history/export", authMiddleware(http.HandlerFunc(h.Export)))
}

// List godoc
// @Summary List conversion history
// @Description Returns the caller's conversions, newest first.
// @Tags history
// @Produce json
// @Param limit query int false "Page size (1-100)" default(10)
// @Param offset query int false "Entries to skip" default(0)
// @Success 200 {object} dto.HistoryListResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO "Invalid pagination parameters"
// @Failure 401 {object} dto.ErrorResponseDTO
// @Failure 500 {object} dto.ErrorResponseDTO
// @Router /history [get]
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	limit, err := intQuery(r, "limit", defaultHistoryLimit)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "limit must be an integer")
		return
	}
	offset, err := intQuery(r, "offset", 0)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "offset must be an integer")
		return
	}

	page, err := h.historySvc.List(r.Context(), userID, limit, offset)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	resp := dto.HistoryListResponseDTO{
		History: make([]dto.HistoryEntryDTO, len(page.Entries)),
		Total:   page.Total,
		Limit:   page.Limit,
		Offset:  page.Offset,
	}
	for i, e := range page.Entries {
		resp.History[i] = dto.HistoryEntryDTO{
			ID:            e.ID,
			OriginalText:  e.OriginalText,
			HumanizedText: e.HumanizedText,
			WordsCount:    e.WordsCount,
			Style:         e.Style,
			CreatedAt:     e.CreatedAt,
		}
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

// Delete godoc
// @Summary Delete a history entry
// @Tags history
// @Param id path string true "History entry ID"
// @Success 204 "Deleted"
// @Failure 401 {object} dto.ErrorResponseDTO
// @Failure 403 {object} dto.ErrorResponseDTO "Entry belongs to another user"
// @Failure 404 {object} dto.ErrorResponseDTO
// @Router /history/{id} [delete]
func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.historySvc.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export godoc
// @Summary Export conversion history
// @Description Uploads the caller's full history as JSON and returns a short-lived download link.
// @Tags history
// @Produce json
// @Success 200 {object} dto.HistoryExportResponseDTO
// @Failure 401 {object} dto.ErrorResponseDTO
// @Failure 503 {object} dto.ErrorResponseDTO "Object storage is not configured"
// @Failure 500 {object} dto.ErrorResponseDTO
// @Router /history/export [post]
func (h *HistoryHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	exp, err := h.historySvc.Export(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, dto.HistoryExportResponseDTO{
		URL:       exp.URL,
		Key:       exp.Key,
		Entries:   exp.Entries,
		ExpiresAt: exp.ExpiresAt,
	})
}

func intQuery(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
