package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"humanizer/internal/model"
	"humanizer/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrUnknownPlan          = errors.New("unknown plan or pack")
	ErrPaymentNotSuccessful = errors.New("payment was not successful")
	ErrNoSubscription       = errors.New("no active subscription")
)

type CheckoutRequest struct {
	UserID        string
	Plan          string
	BillingPeriod string
	Pack          string
}

type Checkout struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

type VerifyResult struct {
	Reference string
	Kind      string
	// Credited is false when the reference had already been applied.
	Credited bool
	Profile  *model.Profile
}

type BillingService interface {
	Initialize(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	// Verify pulls a transaction from Paystack and credits the caller's profile.
	// Plans reset the monthly balance like charge.success; packs add extra words.
	Verify(ctx context.Context, userID, reference string) (*VerifyResult, error)
	CancelSubscription(ctx context.Context, userID string) (*model.Profile, error)
	ManageLink(ctx context.Context, userID string) (string, error)
}

type billingService struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	paymentRepo repository.PaymentRepository
	plans       *model.PlanCatalog
	paystack    PaystackClient
	callbackURL string
	logger      zerolog.Logger
}

func NewBillingService(
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	paymentRepo repository.PaymentRepository,
	plans *model.PlanCatalog,
	paystack PaystackClient,
	callbackURL string,
	logger zerolog.Logger,
) BillingService {
	return &billingService{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		paymentRepo: paymentRepo,
		plans:       plans,
		paystack:    paystack,
		callbackURL: callbackURL,
		logger:      logger.With().Str("service", "BillingService").Logger(),
	}
}

func (s *billingService) Initialize(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	if (req.Plan == "") == (req.Pack == "") {
		return nil, fmt.Errorf("%w: exactly one of plan or pack is required", ErrValidation)
	}

	user, err := s.userRepo.GetUserByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	t := &model.PaymentTransaction{
		Reference: uuid.NewString(),
		UserID:    user.ID,
	}
	init := InitializeRequest{
		Email:       user.Email,
		Reference:   t.Reference,
		CallbackURL: s.callbackURL,
	}

	if req.Plan != "" {
		plan, ok := s.plans.ByKey(req.Plan, req.BillingPeriod)
		if !ok || plan.Code == "" {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPlan, req.Plan)
		}
		t.Kind, t.ItemKey, t.Amount = model.PaymentKindPlan, plan.Code, plan.Amount
		init.PlanCode = plan.Code
	} else {
		pack, ok := s.plans.Pack(req.Pack)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPlan, req.Pack)
		}
		t.Kind, t.ItemKey, t.Amount = model.PaymentKindTopUp, pack.Key, pack.Amount
	}
	init.Amount = t.Amount
	init.Metadata = map[string]string{
		"user_id":  user.ID,
		"kind":     t.Kind,
		"item_key": t.ItemKey,
	}

	if err := s.paymentRepo.CreatePending(ctx, t); err != nil {
		return nil, err
	}

	res, err := s.paystack.InitializeTransaction(ctx, init)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Str("reference", t.Reference).Msg("Failed to initialize Paystack transaction")
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	s.logger.Info().Str("user_id", user.ID).Str("reference", t.Reference).Str("kind", t.Kind).Str("item", t.ItemKey).Msg("Checkout initialized")
	return &Checkout{
		AuthorizationURL: res.AuthorizationURL,
		AccessCode:       res.AccessCode,
		Reference:        t.Reference,
	}, nil
}

func (s *billingService) Verify(ctx context.Context, userID, reference string) (*VerifyResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, fmt.Errorf("%w: reference is required", ErrValidation)
	}

	pending, err := s.paymentRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if pending != nil && pending.UserID != userID {
		return nil, ErrForbidden
	}

	vt, err := s.paystack.VerifyTransaction(ctx, reference)
	if err != nil {
		s.logger.Error().Err(err).Str("reference", reference).Msg("Failed to verify Paystack transaction")
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if vt.Status != "success" {
		return nil, fmt.Errorf("%w: status %q", ErrPaymentNotSuccessful, vt.Status)
	}
	if owner := vt.Metadata["user_id"]; owner != "" && owner != userID {
		return nil, ErrForbidden
	}
	if pending == nil {
		owned, err := s.paidBy(ctx, userID, vt)
		if err != nil {
			return nil, err
		}
		if !owned {
			s.logger.Warn().Str("user_id", userID).Str("reference", reference).Msg("Refused to credit a payment made by another customer")
			return nil, ErrForbidden
		}
	}

	t := &model.PaymentTransaction{Reference: reference, UserID: userID, Amount: vt.Amount}
	var credit repository.Credit

	switch plan, ok := s.lookupPlan(vt, pending); {
	case ok:
		upd := plan.Update(model.StatusActive, true)
		upd.CustomerCode = vt.CustomerCode
		upd.AuthorizationCode = vt.AuthorizationCode
		credit.Plan = &upd
		t.Kind, t.ItemKey = model.PaymentKindPlan, plan.Code
	default:
		pack, ok := s.lookupPack(vt, pending)
		if !ok {
			s.logger.Warn().Str("reference", reference).Str("plan_code", vt.PlanCode).Msg("Verified payment matches no plan or pack")
			return nil, fmt.Errorf("%w: reference %s", ErrUnknownPlan, reference)
		}
		if vt.Amount < pack.Amount {
			return nil, fmt.Errorf("%w: paid %d, expected %d", ErrPaymentNotSuccessful, vt.Amount, pack.Amount)
		}
		credit.ExtraWords = pack.Words
		t.Kind, t.ItemKey = model.PaymentKindTopUp, pack.Key
	}

	credited, err := s.paymentRepo.Settle(ctx, t, credit)
	if err != nil {
		return nil, err
	}
	if credited {
		s.logger.Info().Str("user_id", userID).Str("reference", reference).Str("kind", t.Kind).Str("item", t.ItemKey).Msg("Payment credited")
	} else {
		s.logger.Info().Str("user_id", userID).Str("reference", reference).Msg("Payment already credited")
	}

	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{Reference: reference, Kind: t.Kind, Credited: credited, Profile: profile}, nil
}

// paidBy reports whether a transaction we never initialized belongs to userID:
// our own metadata, the payer's email or the customer code already linked to
// the profile must match.
func (s *billingService) paidBy(ctx context.Context, userID string, vt *VerifiedTransaction) (bool, error) {
	if vt.Metadata["user_id"] == userID {
		return true, nil
	}
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, ErrUserNotFound
	}
	if vt.CustomerEmail != "" && strings.EqualFold(vt.CustomerEmail, user.Email) {
		return true, nil
	}
	if vt.CustomerCode == "" {
		return false, nil
	}
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return false, err
	}
	return profile != nil && profile.PaystackCustomerCode != nil && *profile.PaystackCustomerCode == vt.CustomerCode, nil
}

func (s *billingService) lookupPlan(vt *VerifiedTransaction, pending *model.PaymentTransaction) (model.Plan, bool) {
	if p, ok := s.plans.ByCode(vt.PlanCode); ok {
		return p, true
	}
	if pending != nil && pending.Kind == model.PaymentKindPlan {
		return s.plans.ByCode(pending.ItemKey)
	}
	return model.Plan{}, false
}

func (s *billingService) lookupPack(vt *VerifiedTransaction, pending *model.PaymentTransaction) (model.TopUpPack, bool) {
	if pending != nil && pending.Kind == model.PaymentKindTopUp {
		return s.plans.Pack(pending.ItemKey)
	}
	if vt.Metadata["kind"] == model.PaymentKindTopUp {
		return s.plans.Pack(vt.Metadata["item_key"])
	}
	return model.TopUpPack{}, false
}

func (s *billingService) subscribedProfile(ctx context.Context, userID string) (*model.Profile, error) {
	p, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProfileNotFound
	}
	if p.PaystackSubscriptionCode == nil || *p.PaystackSubscriptionCode == "" || p.SubscriptionCanceled {
		return nil, ErrNoSubscription
	}
	return p, nil
}

func (s *billingService) CancelSubscription(ctx context.Context, userID string) (*model.Profile, error) {
	p, err := s.subscribedProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	code := *p.PaystackSubscriptionCode

	var token string
	if p.PaystackEmailToken != nil {
		token = *p.PaystackEmailToken
	}
	if token == "" {
		sub, err := s.paystack.FetchSubscription(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		token = sub.EmailToken
	}

	if err := s.paystack.DisableSubscription(ctx, code, token); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("subscription_code", code).Msg("Failed to disable subscription")
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	// Paystack confirms with subscription.not_renew and later subscription.disable.
	if err := s.profileRepo.MarkCanceled(ctx, userID, model.StatusNonRenewing); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", userID).Str("subscription_code", code).Msg("Subscription cancelled")
	return s.profileRepo.GetByUserID(ctx, userID)
}

func (s *billingService) ManageLink(ctx context.Context, userID string) (string, error) {
	p, err := s.subscribedProfile(ctx, userID)
	if err != nil {
		return "", err
	}
	link, err := s.paystack.ManageLink(ctx, *p.PaystackSubscriptionCode)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return link, nil
}
