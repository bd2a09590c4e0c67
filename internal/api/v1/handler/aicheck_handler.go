package handler

import (
	"net/http"

	"humanizer/internal/api/v1/dto"
	"humanizer/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type AICheckHandler struct {
	aiCheckSvc service.AICheckService
	validate   *validator.Validate
	rateLimit  func(http.Handler) http.Handler
	logger     zerolog.Logger
}

func NewAICheckHandler(aiCheckSvc service.AICheckService, validate *validator.Validate, rateLimit func(http.Handler) http.Handler, logger zerolog.Logger) *AICheckHandler {
	if rateLimit == nil {
		rateLimit = func(next http.Handler) http.Handler { return next }
	}
	return &AICheckHandler{aiCheckSvc: aiCheckSvc, validate: validate, rateLimit: rateLimit, logger: logger}
}

func (h *AICheckHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.Handle("POST /api/ai-check", authMiddleware(h.rateLimit(http.HandlerFunc(h.Check))))
}

// Check godoc
// @Summary Score text for AI authorship
// @Tags ai-check
// @Accept json
// @Produce json
// @Param request body dto.AICheckRequestDTO true "Text to score"
// @Success 200 {object} dto.AICheckResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 401 {object} dto.ErrorResponseDTO
// @Failure 429 {object} dto.ErrorResponseDTO
// @Failure 500 {object} dto.ErrorResponseDTO
// @Router /ai-check [post]
func (h *AICheckHandler) Check(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r, h.logger); !ok {
		return
	}
	var req dto.AICheckRequestDTO
	if !decodeJSON(w, r, h.logger, maxTextBody, &req) {
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Text is required")
		return
	}

	res, err := h.aiCheckSvc.Check(r.Context(), req.Text)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, dto.AICheckResponseDTO{
		AIScore:    res.AIScore,
		IsLikelyAI: res.IsLikelyAI,
		Detectors:  res.Detectors,
	})
}
