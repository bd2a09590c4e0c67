package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"humanizer/internal/ledger"
	"humanizer/internal/model"
	"humanizer/internal/repository"
	"humanizer/internal/stream"
)

type fakeUserRepo struct {
	users map[string]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*model.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Upsert(_ context.Context, u *model.User) (*model.User, error) {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			if u.Name != "" {
				existing.Name = u.Name
			}
			return existing, nil
		}
	}
	stored := *u
	if stored.Role == "" {
		stored.Role = model.RoleUser
	}
	r.users[stored.ID] = &stored
	return &stored, nil
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	return r.users[id], nil
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*model.Profile
	debits   int
}

func newFakeProfileRepo(profiles ...*model.Profile) *fakeProfileRepo {
	r := &fakeProfileRepo{profiles: map[string]*model.Profile{}}
	for _, p := range profiles {
		cp := *p
		r.profiles[p.UserID] = &cp
	}
	return r
}

func (r *fakeProfileRepo) GetByUserID(_ context.Context, userID string) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) EnsureDefault(_ context.Context, userID, fullName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[userID]; ok {
		return nil
	}
	r.profiles[userID] = &model.Profile{
		UserID:          userID,
		FullName:        fullName,
		PreferredStyle:  model.DefaultStyle,
		WordsBalance:    model.DefaultWordsBalance,
		WordsLimit:      model.DefaultWordsLimit,
		WordsPerRequest: model.DefaultWordsPerRequest,
		Plan:            model.DefaultPlan,
		Status:          model.StatusActive,
	}
	return nil
}

func (r *fakeProfileRepo) UpdatePreferences(_ context.Context, userID string, patch model.ProfilePatch) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if patch.FullName != nil {
		p.FullName = *patch.FullName
	}
	if patch.PreferredStyle != nil {
		p.PreferredStyle = *patch.PreferredStyle
	}
	if patch.MarketingEmails != nil {
		p.MarketingEmails = *patch.MarketingEmails
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) DebitWords(_ context.Context, userID string, words int, unlimited bool) (ledger.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return ledger.Balance{}, repository.ErrNotFound
	}
	next, err := ledger.Debit(p.Balance(), words, p.WordsPerRequest, unlimited)
	if err != nil {
		return p.Balance(), err
	}
	r.debits++
	p.WordsBalance, p.ExtraWordsBalance = next.Words, next.ExtraWords
	return next, nil
}

func (r *fakeProfileRepo) FindByProcessorRef(context.Context, string, string, string) (*model.Profile, error) {
	return nil, errors.New("not used")
}

func (r *fakeProfileRepo) ApplyPlan(_ context.Context, userID string, upd model.PlanUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return repository.ErrNotFound
	}
	applyPlanUpdate(p, upd)
	return nil
}

func applyPlanUpdate(p *model.Profile, upd model.PlanUpdate) {
	p.Plan = upd.Plan
	p.BillingPeriod = upd.BillingPeriod
	p.WordsLimit = upd.WordsLimit
	p.WordsPerRequest = upd.WordsPerRequest
	if upd.ResetBalance {
		p.WordsBalance = upd.WordsLimit
	}
	if upd.Status != "" {
		p.Status = upd.Status
	}
	if upd.PlanCode != "" {
		p.PaystackPlanCode = &upd.PlanCode
	}
	if upd.CustomerCode != "" {
		p.PaystackCustomerCode = &upd.CustomerCode
	}
	if upd.SubscriptionCode != "" {
		p.PaystackSubscriptionCode = &upd.SubscriptionCode
	}
	p.SubscriptionCanceled = false
}

func (r *fakeProfileRepo) SetStatus(_ context.Context, userID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[userID]; ok {
		p.Status = status
	}
	return nil
}

func (r *fakeProfileRepo) MarkCanceled(_ context.Context, userID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[userID]; ok {
		p.Status = status
		p.SubscriptionCanceled = true
	}
	return nil
}

func (r *fakeProfileRepo) AddExtraWords(_ context.Context, userID string, words int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return repository.ErrNotFound
	}
	p.ExtraWordsBalance += words
	return nil
}

func (r *fakeProfileRepo) ResetBalance(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return repository.ErrNotFound
	}
	p.WordsBalance = model.DefaultWordsBalance
	p.ExtraWordsBalance = model.DefaultExtraWords
	return nil
}

type fakeHistoryRepo struct {
	entries []model.History
	nextID  int
}

func (r *fakeHistoryRepo) Create(_ context.Context, h *model.History) error {
	r.nextID++
	h.ID = fmt.Sprintf("h-%d", r.nextID)
	h.CreatedAt = time.Date(2026, 1, 1, 0, 0, r.nextID, 0, time.UTC)
	r.entries = append(r.entries, *h)
	return nil
}

func (r *fakeHistoryRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]model.History, error) {
	var out []model.History
	for _, h := range r.entries {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []model.History{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeHistoryRepo) CountByUser(_ context.Context, userID string) (int, error) {
	n := 0
	for _, h := range r.entries {
		if h.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeHistoryRepo) GetByID(_ context.Context, id string) (*model.History, error) {
	for _, h := range r.entries {
		if h.ID == id {
			cp := h
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeHistoryRepo) Delete(_ context.Context, id string) error {
	for i, h := range r.entries {
		if h.ID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeRewriter struct {
	chunks []string
	err    error
	calls  int
	styles []Style
}

func (f *fakeRewriter) Rewrite(_ context.Context, _ string, style Style) (stream.Source, error) {
	f.calls++
	f.styles = append(f.styles, style)
	if f.err != nil {
		return nil, f.err
	}
	return stream.NewSliceSource(f.chunks...), nil
}

type fakePublisher struct {
	topic    string
	payloads [][]byte
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, topic string, data []byte) (string, error) {
	p.topic = topic
	p.payloads = append(p.payloads, data)
	return "msg-1", p.err
}

type fakePaymentRepo struct {
	txs      map[string]*model.PaymentTransaction
	profiles *fakeProfileRepo
	settled  int
}

func newFakePaymentRepo(profiles *fakeProfileRepo) *fakePaymentRepo {
	return &fakePaymentRepo{txs: map[string]*model.PaymentTransaction{}, profiles: profiles}
}

func (r *fakePaymentRepo) CreatePending(_ context.Context, t *model.PaymentTransaction) error {
	t.Status = model.PaymentPending
	cp := *t
	r.txs[t.Reference] = &cp
	return nil
}

func (r *fakePaymentRepo) GetByReference(_ context.Context, reference string) (*model.PaymentTransaction, error) {
	t, ok := r.txs[reference]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *fakePaymentRepo) Settle(ctx context.Context, t *model.PaymentTransaction, credit repository.Credit) (bool, error) {
	if existing, ok := r.txs[t.Reference]; ok && existing.Status == model.PaymentSuccess {
		return false, nil
	}
	cp := *t
	cp.Status = model.PaymentSuccess
	r.txs[t.Reference] = &cp
	r.settled++

	if err := r.profiles.EnsureDefault(ctx, t.UserID, ""); err != nil {
		return false, err
	}
	if credit.Plan != nil {
		if err := r.profiles.ApplyPlan(ctx, t.UserID, *credit.Plan); err != nil {
			return false, err
		}
	}
	if credit.ExtraWords > 0 {
		if err := r.profiles.AddExtraWords(ctx, t.UserID, credit.ExtraWords); err != nil {
			return false, err
		}
	}
	return true, nil
}

type fakePaystack struct {
	initialized []InitializeRequest
	verified    map[string]*VerifiedTransaction
	verifyErr   error
	emailToken  string
	disabled    []string
	link        string
}

func (f *fakePaystack) InitializeTransaction(_ context.Context, req InitializeRequest) (*InitializeResult, error) {
	f.initialized = append(f.initialized, req)
	return &InitializeResult{
		AuthorizationURL: "https://checkout.paystack.com/" + req.Reference,
		AccessCode:       "ac_" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

func (f *fakePaystack) VerifyTransaction(_ context.Context, reference string) (*VerifiedTransaction, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	vt, ok := f.verified[reference]
	if !ok {
		return nil, errors.New("Transaction reference not found")
	}
	return vt, nil
}

func (f *fakePaystack) FetchSubscription(_ context.Context, code string) (*SubscriptionDetails, error) {
	return &SubscriptionDetails{Code: code, EmailToken: f.emailToken, Status: "active"}, nil
}

func (f *fakePaystack) DisableSubscription(_ context.Context, code, emailToken string) error {
	f.disabled = append(f.disabled, code+":"+emailToken)
	return nil
}

func (f *fakePaystack) ManageLink(context.Context, string) (string, error) {
	return f.link, nil
}
