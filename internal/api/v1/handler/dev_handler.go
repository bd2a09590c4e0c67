package handler

import (
	"net/http"

	"humanizer/internal/api/v1/dto"
	"humanizer/internal/middleware"
	"humanizer/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// DevHandler exposes balance shortcuts for local testing. Every route is
// refused outside development.
type DevHandler struct {
	profileSvc    service.ProfileService
	validate      *validator.Validate
	isDevelopment bool
	logger        zerolog.Logger
}

func NewDevHandler(profileSvc service.ProfileService, validate *validator.Validate, isDevelopment bool, logger zerolog.Logger) *DevHandler {
	return &DevHandler{profileSvc: profileSvc, validate: validate, isDevelopment: isDevelopment, logger: logger}
}

func (h *DevHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	devOnly := middleware.DevOnly(h.isDevelopment)
	mux.Handle("POST /api/dev/reset-balance", devOnly(authMiddleware(http.HandlerFunc(h.ResetBalance))))
	mux.Handle("POST /api/dev/grant-words", devOnly(authMiddleware(http.HandlerFunc(h.GrantWords))))
}

// ResetBalance godoc
// @Summary Restore default balances (development only)
// @Tags dev
// @Produce json
// @Success 200 {object} dto.ProfileResponseDTO
// @Failure 401 {object} dto.ErrorResponseDTO
// @Failure 403 {object} dto.ErrorResponseDTO "Not in development"
// @Router /dev/reset-balance [post]
func (h *DevHandler) ResetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	p, err := h.profileSvc.ResetBalance(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	h.logger.Info().Str("user_id", userID).Msg("Dev balance reset")
	writeJSON(w, h.logger, http.StatusOK, toProfileDTO(p))
}

// GrantWords godoc
// @Summary Add words to the extra balance (development only)
// @Tags dev
// @Accept json
// @Produce json
// @Param request body dto.GrantWordsRequestDTO true "Words to grant"
// @Success 200 {object} dto.ProfileResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 401 {object} dto.ErrorResponseDTO
// @Failure 403 {object} dto.ErrorResponseDTO "Not in development"
// @Router /dev/grant-words [post]
func (h *DevHandler) GrantWords(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	var req dto.GrantWordsRequestDTO
	if !decodeJSON(w, r, h.logger, maxJSONBody, &req) {
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}
	p, err := h.profileSvc.GrantWords(r.Context(), userID, req.Words)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	h.logger.Info().Str("user_id", userID).Int("words", req.Words).Msg("Dev words granted")
	writeJSON(w, h.logger, http.StatusOK, toProfileDTO(p))
}
