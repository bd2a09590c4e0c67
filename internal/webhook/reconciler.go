package webhook

import (
	"context"
	"fmt"

	"humanizer/internal/model"
	"humanizer/internal/notification"

	"github.com/rs/zerolog"
)

// ProfileStore is the slice of the profile repository the reconciler writes to.
type ProfileStore interface {
	FindByProcessorRef(ctx context.Context, subscriptionCode, customerCode, email string) (*model.Profile, error)
	ApplyPlan(ctx context.Context, userID string, upd model.PlanUpdate) error
	SetStatus(ctx context.Context, userID, status string) error
	MarkCanceled(ctx context.Context, userID, status string) error
}

// Reconciler applies Paystack events to profiles. Events that match no
// profile are logged and acknowledged.
type Reconciler struct {
	profiles ProfileStore
	plans    *model.PlanCatalog
	notifier notification.Notifier
	logger   zerolog.Logger
}

func NewReconciler(profiles ProfileStore, plans *model.PlanCatalog, notifier notification.Notifier, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		profiles: profiles,
		plans:    plans,
		notifier: notifier,
		logger:   logger.With().Str("service", "WebhookReconciler").Logger(),
	}
}

// Handle dispatches ev to its handler. A returned error means the delivery
// should be retried by Paystack.
func (r *Reconciler) Handle(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case SubscriptionCreated:
		return r.subscriptionCreated(ctx, e)
	case ChargeSucceeded:
		return r.chargeSucceeded(ctx, e)
	case InvoicePaymentFailed:
		return r.invoicePaymentFailed(ctx, e)
	case InvoiceUpdated:
		return r.invoiceUpdated(ctx, e)
	case SubscriptionDisabled:
		return r.subscriptionDisabled(ctx, e)
	case SubscriptionNotRenewing:
		return r.subscriptionNotRenewing(ctx, e)
	case Unhandled:
		r.logger.Info().Str("event_type", e.Name).Msg("Ignoring unhandled Paystack event")
		return nil
	default:
		return fmt.Errorf("no handler for event type %T", ev)
	}
}

func (r *Reconciler) lookup(ctx context.Context, eventType, subscriptionCode string, c Customer) (*model.Profile, error) {
	p, err := r.profiles.FindByProcessorRef(ctx, subscriptionCode, c.Code, c.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", eventType, err)
	}
	if p == nil {
		r.logger.Warn().
			Str("event_type", eventType).
			Str("subscription_code", subscriptionCode).
			Str("customer_code", c.Code).
			Msg("No profile matches webhook event, skipping")
	}
	return p, nil
}

func (r *Reconciler) subscriptionCreated(ctx context.Context, e SubscriptionCreated) error {
	plan, ok := r.plans.ByCode(e.PlanCode)
	if !ok {
		r.logger.Warn().Str("plan_code", e.PlanCode).Msg("subscription.create for unknown plan, skipping")
		return nil
	}
	p, err := r.lookup(ctx, e.Type(), e.SubscriptionCode, e.Customer)
	if err != nil || p == nil {
		return err
	}

	status := e.Status
	if status == "" {
		status = model.StatusActive
	}
	upd := plan.Update(status, false)
	upd.CustomerCode = e.Code
	upd.SubscriptionCode = e.SubscriptionCode
	upd.AuthorizationCode = e.AuthorizationCode
	upd.EmailToken = e.EmailToken
	if err := r.profiles.ApplyPlan(ctx, p.UserID, upd); err != nil {
		return fmt.Errorf("subscription.create: %w", err)
	}
	r.logger.Info().Str("user_id", p.UserID).Str("plan", plan.Key).Msg("Subscription linked to profile")
	return nil
}

// chargeSucceeded resets words_balance to the plan allotment. Charges without
// a plan are one-off top-ups credited through payment verification.
func (r *Reconciler) chargeSucceeded(ctx context.Context, e ChargeSucceeded) error {
	if e.PlanCode == "" {
		r.logger.Debug().Str("reference", e.Reference).Msg("charge.success without plan, nothing to reconcile")
		return nil
	}
	plan, ok := r.plans.ByCode(e.PlanCode)
	if !ok {
		r.logger.Warn().Str("plan_code", e.PlanCode).Msg("charge.success for unknown plan, skipping")
		return nil
	}
	p, err := r.lookup(ctx, e.Type(), "", e.Customer)
	if err != nil || p == nil {
		return err
	}

	upd := plan.Update(model.StatusActive, true)
	upd.CustomerCode = e.Code
	upd.AuthorizationCode = e.AuthorizationCode
	if err := r.profiles.ApplyPlan(ctx, p.UserID, upd); err != nil {
		return fmt.Errorf("charge.success: %w", err)
	}
	r.logger.Info().Str("user_id", p.UserID).Int("words_balance", plan.WordsLimit).Msg("Monthly words reset after successful charge")
	return nil
}

func (r *Reconciler) invoicePaymentFailed(ctx context.Context, e InvoicePaymentFailed) error {
	p, err := r.lookup(ctx, e.Type(), e.SubscriptionCode, e.Customer)
	if err != nil || p == nil {
		return err
	}
	if err := r.profiles.SetStatus(ctx, p.UserID, model.StatusAttention); err != nil {
		return fmt.Errorf("invoice.payment_failed: %w", err)
	}
	return r.notify(ctx, notification.Job{
		Kind:   notification.KindPaymentFailed,
		UserID: p.UserID,
		Email:  e.Email,
		Name:   p.FullName,
		Plan:   p.Plan,
		Status: model.StatusAttention,
	})
}

func (r *Reconciler) invoiceUpdated(ctx context.Context, e InvoiceUpdated) error {
	if !e.Paid || e.Status != "success" {
		return nil
	}
	p, err := r.lookup(ctx, e.Type(), e.SubscriptionCode, e.Customer)
	if err != nil || p == nil {
		return err
	}
	if err := r.profiles.SetStatus(ctx, p.UserID, model.StatusActive); err != nil {
		return fmt.Errorf("invoice.update: %w", err)
	}
	return nil
}

func (r *Reconciler) subscriptionDisabled(ctx context.Context, e SubscriptionDisabled) error {
	p, err := r.lookup(ctx, e.Type(), e.SubscriptionCode, e.Customer)
	if err != nil || p == nil {
		return err
	}
	status := e.Status
	if status == "" {
		status = model.StatusCancelled
	}
	if err := r.profiles.MarkCanceled(ctx, p.UserID, status); err != nil {
		return fmt.Errorf("subscription.disable: %w", err)
	}
	return r.notify(ctx, notification.Job{
		Kind:   notification.KindSubscriptionCancelled,
		UserID: p.UserID,
		Email:  e.Email,
		Name:   p.FullName,
		Plan:   p.Plan,
		Status: status,
	})
}

func (r *Reconciler) subscriptionNotRenewing(ctx context.Context, e SubscriptionNotRenewing) error {
	p, err := r.lookup(ctx, e.Type(), e.SubscriptionCode, e.Customer)
	if err != nil || p == nil {
		return err
	}
	if err := r.profiles.SetStatus(ctx, p.UserID, model.StatusNonRenewing); err != nil {
		return fmt.Errorf("subscription.not_renew: %w", err)
	}
	return nil
}

func (r *Reconciler) notify(ctx context.Context, job notification.Job) error {
	if r.notifier == nil {
		return nil
	}
	if job.Email == "" {
		r.logger.Warn().Str("user_id", job.UserID).Str("kind", job.Kind).Msg("No email on event, notification skipped")
		return nil
	}
	if err := r.notifier.Notify(ctx, job); err != nil {
		return fmt.Errorf("queue %s notification: %w", job.Kind, err)
	}
	return nil
}
