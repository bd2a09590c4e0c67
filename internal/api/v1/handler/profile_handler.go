package handler

import (
	"net/http"

	"humanizer/internal/api/v1/dto"
	"humanizer/internal/model"
	"humanizer/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type ProfileHandler struct {
	profileSvc service.ProfileService
	validate   *validator.Validate
	logger     zerolog.Logger
}

func NewProfileHandler(profileSvc service.ProfileService, validate *validator.Validate, logger zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{profileSvc: profileSvc, validate: validate, logger: logger}
}

func (h *ProfileHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.Handle("GET /api/profile", authMiddleware(http.HandlerFunc(h.Get)))
	mux.Handle("PATCH /api/profile", authMiddleware(http.HandlerFunc(h.Update)))
}

// Get godoc
// @Summary Get the caller's profile
// @Description Creates a default profile on first access.
// @Tags profile
// @Produce json
// @Success 200 {object} dto.ProfileResponseDTO
// @Failure 401 {object} dto.ErrorResponseDTO
// @Failure 500 {object} dto.ErrorResponseDTO
// @Router /profile [get]
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	p, err := h.profileSvc.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toProfileDTO(p))
}

// Update godoc
// @Summary Update profile preferences
// @Description Only full_name, preferred_style and marketing_emails can be changed; other fields are ignored.
// @Tags profile
// @Accept json
// @Produce json
// @Param profile body dto.ProfileUpdateDTO true "Fields to change"
// @Success 200 {object} dto.ProfileResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 401 {object} dto.ErrorResponseDTO
// @Failure 404 {object} dto.ErrorResponseDTO
// @Router /profile [patch]
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	var req dto.ProfileUpdateDTO
	if !decodeJSON(w, r, h.logger, maxJSONBody, &req) {
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	p, err := h.profileSvc.Update(r.Context(), userID, model.ProfilePatch{
		FullName:        req.FullName,
		PreferredStyle:  req.PreferredStyle,
		MarketingEmails: req.MarketingEmails,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toProfileDTO(p))
}

func toProfileDTO(p *model.Profile) dto.ProfileResponseDTO {
	return dto.ProfileResponseDTO{
		UserID:            p.UserID,
		FullName:          p.FullName,
		PreferredStyle:    p.PreferredStyle,
		MarketingEmails:   p.MarketingEmails,
		WordsBalance:      p.WordsBalance,
		ExtraWordsBalance: p.ExtraWordsBalance,
		WordsLimit:        p.WordsLimit,
		WordsPerRequest:   p.WordsPerRequest,
		Plan:              p.Plan,
		Status:            p.Status,
		BillingPeriod:     p.BillingPeriod,
		Subscribed:        p.PaystackSubscriptionCode != nil && *p.PaystackSubscriptionCode != "",
		Canceled:          p.SubscriptionCanceled,
		Paused:            p.SubscriptionPaused,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}
