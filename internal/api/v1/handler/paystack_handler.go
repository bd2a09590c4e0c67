package handler

import (
	"context"
	"io"
	"net/http"

	"humanizer/internal/api/v1/dto"
	"humanizer/internal/model"
	"humanizer/internal/service"
	"humanizer/internal/webhook"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const maxWebhookBody = 1 << 20

// EventHandler applies a verified Paystack event.
type EventHandler interface {
	Handle(ctx context.Context, ev webhook.Event) error
}

// PaystackHandler serves checkout, verification, subscription management and
// the Paystack webhook.
type PaystackHandler struct {
	billingSvc    service.BillingService
	events        EventHandler
	plans         *model.PlanCatalog
	webhookSecret string
	publicKey     string
	validate      *validator.Validate
	logger        zerolog.Logger
}

func NewPaystackHandler(
	billingSvc service.BillingService,
	events EventHandler,
	plans *model.PlanCatalog,
	webhookSecret, publicKey string,
	validate *validator.Validate,
	logger zerolog.Logger,
) *PaystackHandler {
	return &PaystackHandler{
		billingSvc:    billingSvc,
		events:        events,
		plans:         plans,
		webhookSecret: webhookSecret,
		publicKey:     publicKey,
		validate:      validate,
		logger:        logger,
	}
}

func (h *PaystackHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /api/paystack/plans", h.Plans)
	mux.HandleFunc("POST /api/paystack/webhook", h.Webhook)
	mux.Handle("POST /api/paystack/initialize", authMiddleware(http.HandlerFunc(h.Initialize)))
	mux.Handle("GET /api/paystack/verify", authMiddleware(http.HandlerFunc(h.Verify)))
	mux.Handle("POST /api/paystack/cancel-subscription", authMiddleware(http.HandlerFunc(h.CancelSubscription)))
	mux.Handle("GET /api/paystack/manage-subscription", authMiddleware(http.HandlerFunc(h.ManageSubscription)))
}

// Plans godoc
// @Summary List purchasable plans and top-up packs
// @Tags paystack
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /paystack/plans [get]
func (h *PaystackHandler) Plans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"plans":      h.plans.Plans(),
		"packs":      h.plans.Packs(),
		"public_key": h.publicKey,
	})
}

// Initialize godoc
// @Summary Start a Paystack checkout
// @Description Either plan (with billing_period) or pack must be given.
// @Tags paystack
// @Accept json
// @Produce json
// @Param request body dto.PaystackInitializeRequestDTO true "Plan or top-up pack"
// @Success 200 {object} dto.PaystackInitializeResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO
// @Failure 401 {object} dto.ErrorResponseDTO
// @Failure 500 {object} dto.ErrorResponseDTO
// @Router /paystack/initialize [post]
func (h *PaystackHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	var req dto.PaystackInitializeRequestDTO
	if !decodeJSON(w, r, h.logger, maxJSONBody, &req) {
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Specify either a plan or a pack: "+err.Error())
		return
	}

	co, err := h.billingSvc.Initialize(r.Context(), service.CheckoutRequest{
		UserID:        userID,
		Plan:          req.Plan,
		BillingPeriod: req.BillingPeriod,
		Pack:          req.Pack,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, dto.PaystackInitializeResponseDTO{
		AuthorizationURL: co.AuthorizationURL,
		AccessCode:       co.AccessCode,
		Reference:        co.Reference,
	})
}

// Verify godoc
// @Summary Verify a Paystack transaction
// @Description Called after the checkout redirect. Credits the profile at most once per reference.
// @Tags paystack
// @Produce json
// @Param reference query string true "Transaction reference"
// @Success 200 {object} dto.PaystackVerifyResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO "Missing reference or unsuccessful payment"
// @Failure 401 {object} dto.ErrorResponseDTO
// @Failure 403 {object} dto.ErrorResponseDTO "Reference belongs to another user"
// @Failure 500 {object} dto.ErrorResponseDTO
// @Router /paystack/verify [get]
func (h *PaystackHandler) Verify(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	ref := r.URL.Query().Get("reference")
	if ref == "" {
		ref = r.URL.Query().Get("trxref")
	}

	res, err := h.billingSvc.Verify(r.Context(), userID, ref)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, dto.PaystackVerifyResponseDTO{
		Reference: res.Reference,
		Kind:      res.Kind,
		Credited:  res.Credited,
		Profile:   toProfileDTO(res.Profile),
	})
}

// Webhook godoc
// @Summary Receive Paystack events
// @Description The body must be signed with x-paystack-signature (HMAC-SHA512 of the raw body).
// @Tags paystack
// @Accept json
// @Param x-paystack-signature header string true "HMAC-SHA512 signature"
// @Success 200 "Event applied or ignored"
// @Failure 400 {object} dto.ErrorResponseDTO "Malformed event"
// @Failure 401 {object} dto.ErrorResponseDTO "Invalid signature"
// @Failure 500 {object} dto.ErrorResponseDTO "Event could not be applied; Paystack will retry"
// @Router /paystack/webhook [post]
func (h *PaystackHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Failed to read request body")
		return
	}

	if err := webhook.VerifySignature(body, r.Header.Get(webhook.SignatureHeader), h.webhookSecret); err != nil {
		h.logger.Warn().Str("remote_addr", r.RemoteAddr).Msg("Rejected Paystack webhook with invalid signature")
		writeError(w, h.logger, http.StatusUnauthorized, "Invalid signature")
		return
	}

	ev, err := webhook.Parse(body)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse Paystack webhook")
		writeError(w, h.logger, http.StatusBadRequest, "Malformed event")
		return
	}

	if err := h.events.Handle(r.Context(), ev); err != nil {
		h.logger.Error().Err(err).Str("event_type", ev.Type()).Msg("Failed to apply Paystack event")
		captureError(r, err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to process event")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// CancelSubscription godoc
// @Summary Stop the caller's subscription from renewing
// @Tags paystack
// @Produce json
// @Success 200 {object} dto.ProfileResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO "No active subscription"
// @Failure 401 {object} dto.ErrorResponseDTO
// @Failure 500 {object} dto.ErrorResponseDTO
// @Router /paystack/cancel-subscription [post]
func (h *PaystackHandler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	p, err := h.billingSvc.CancelSubscription(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toProfileDTO(p))
}

// ManageSubscription godoc
// @Summary Get a Paystack link for updating the subscription card
// @Tags paystack
// @Produce json
// @Success 200 {object} dto.ManageSubscriptionResponseDTO
// @Failure 400 {object} dto.ErrorResponseDTO "No active subscription"
// @Failure 401 {object} dto.ErrorResponseDTO
// @Failure 500 {object} dto.ErrorResponseDTO
// @Router /paystack/manage-subscription [get]
func (h *PaystackHandler) ManageSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	link, err := h.billingSvc.ManageLink(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, dto.ManageSubscriptionResponseDTO{Link: link})
}
