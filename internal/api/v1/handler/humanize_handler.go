package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"humanizer/internal/api/v1/dto"
	"humanizer/internal/service"
	"humanizer/internal/stream"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// HumanizeHandler serves the streaming rewrite routes.
type HumanizeHandler struct {
	humanizeSvc service.HumanizeService
	validate    *validator.Validate
	rateLimit   func(http.Handler) http.Handler
	logger      zerolog.Logger
}

func NewHumanizeHandler(humanizeSvc service.HumanizeService, validate *validator.Validate, rateLimit func(http.Handler) http.Handler, logger zerolog.Logger) *HumanizeHandler {
	if rateLimit == nil {
		rateLimit = func(next http.Handler) http.Handler { return next }
	}
	return &HumanizeHandler{humanizeSvc: humanizeSvc, validate: validate, rateLimit: rateLimit, logger: logger}
}

func (h *HumanizeHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.Handle("POST /api/humanize", authMiddleware(h.rateLimit(http.HandlerFunc(h.Humanize))))
	mux.Handle("POST /api/humanize/fast", authMiddleware(h.rateLimit(http.HandlerFunc(h.HumanizeFast))))
}

// Humanize godoc
// @Summary Humanize text
// @Description Debits the caller's word balance and streams the rewritten text as it is generated.
// @Tags humanize
// @Accept json
// @Produce plain
// @Param request body dto.HumanizeRequestDTO true "Text and optional style"
// @Success 200 {string} string "Chunked text stream; X-Words-Processed and X-Remaining-Balance headers are set"
// @Failure 400 {object} dto.QuotaErrorResponseDTO "Validation failed or word quota exceeded"
// @Failure 401 {object} dto.ErrorResponseDTO
// @Failure 404 {object} dto.ErrorResponseDTO "User or profile not found"
// @Failure 429 {object} dto.ErrorResponseDTO
// @Failure 500 {object} dto.ErrorResponseDTO
// @Router /humanize [post]
func (h *HumanizeHandler) Humanize(w http.ResponseWriter, r *http.Request) {
	h.humanize(w, r, false)
}

// HumanizeFast godoc
// @Summary Humanize text with the fast model
// @Description Same quota rules as /humanize, served by a lower-latency model.
// @Tags humanize
// @Accept json
// @Produce plain
// @Param request body dto.HumanizeRequestDTO true "Text and optional style"
// @Success 200 {string} string "Chunked text stream"
// @Failure 400 {object} dto.QuotaErrorResponseDTO
// @Failure 401 {object} dto.ErrorResponseDTO
// @Failure 404 {object} dto.ErrorResponseDTO
// @Failure 500 {object} dto.ErrorResponseDTO
// @Router /humanize/fast [post]
func (h *HumanizeHandler) HumanizeFast(w http.ResponseWriter, r *http.Request) {
	h.humanize(w, r, true)
}

func (h *HumanizeHandler) humanize(w http.ResponseWriter, r *http.Request, fast bool) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	var req dto.HumanizeRequestDTO
	if !decodeJSON(w, r, h.logger, maxTextBody, &req) {
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Text is required")
		return
	}

	conv, err := h.humanizeSvc.Start(r.Context(), service.HumanizeRequest{
		UserID: userID,
		Text:   req.Text,
		Style:  req.Style,
		Fast:   fast,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("X-Words-Processed", strconv.Itoa(conv.WordsProcessed))
	w.Header().Set("X-Remaining-Balance", strconv.Itoa(conv.Remaining.Total()))

	var flush func()
	if flusher, ok := w.(http.Flusher); ok {
		flush = flusher.Flush
	}
	out := &countingWriter{w: w}
	result, err := stream.Relay(conv.Source, out, flush)
	if err != nil {
		log := h.logger.With().Str("user_id", userID).Int("words", conv.WordsProcessed).Logger()
		if out.n == 0 {
			for _, name := range []string{"Cache-Control", "X-Accel-Buffering", "X-Words-Processed", "X-Remaining-Balance"} {
				w.Header().Del(name)
			}
			log.Error().Err(err).Msg("Rewrite stream failed before any output")
			captureError(r, err)
			if errors.Is(err, stream.ErrNoContent) {
				writeError(w, h.logger, http.StatusInternalServerError, "Upstream service returned no content")
			} else {
				writeError(w, h.logger, http.StatusInternalServerError, "Upstream service failed, please try again")
			}
			return
		}
		// The status line is already sent; dropping the connection is the only
		// way left to tell the client the text is incomplete.
		log.Error().Err(err).Int("bytes_sent", out.n).Msg("Rewrite stream failed mid-response")
		captureError(r, err)
		panic(http.ErrAbortHandler)
	}

	// The client may hang up right after the last chunk; the conversion is
	// still recorded.
	if _, err := h.humanizeSvc.Complete(context.WithoutCancel(r.Context()), conv, result); err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to record conversion")
	}
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
