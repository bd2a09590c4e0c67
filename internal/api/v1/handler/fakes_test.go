package handler

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"humanizer/internal/ledger"
	"humanizer/internal/middleware"
	"humanizer/internal/model"
	"humanizer/internal/service"
	"humanizer/internal/stream"
	"humanizer/internal/webhook"
)

// withUser stands in for AuthMiddleware.
func withUser(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID != "" {
				r = r.WithContext(context.WithValue(r.Context(), middleware.UserContextKey, userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

type failingSource struct {
	chunks []string
	err    error
}

func (s *failingSource) Next() (string, error) {
	if len(s.chunks) == 0 {
		return "", s.err
	}
	c := s.chunks[0]
	s.chunks = s.chunks[1:]
	return c, nil
}

type fakeHumanizeService struct {
	mu        sync.Mutex
	startErr  error
	source    stream.Source
	words     int
	remaining ledger.Balance
	requests  []service.HumanizeRequest
	completed []string
}

func (f *fakeHumanizeService) Start(_ context.Context, req service.HumanizeRequest) (*service.Conversion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &service.Conversion{
		Source:         f.source,
		UserID:         req.UserID,
		OriginalText:   req.Text,
		Style:          service.StyleStandard,
		WordsProcessed: f.words,
		Remaining:      f.remaining,
		Fast:           req.Fast,
	}, nil
}

func (f *fakeHumanizeService) Complete(_ context.Context, conv *service.Conversion, result string) (*model.History, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, result)
	return &model.History{ID: "h-1", UserID: conv.UserID, HumanizedText: result}, nil
}

type fakeHistoryService struct {
	page        *service.HistoryPage
	err         error
	gotLimit    int
	gotOffset   int
	deletedID   string
	export      *service.HistoryExport
	listCalled  bool
	deleteCalls int
}

func (f *fakeHistoryService) List(_ context.Context, _ string, limit, offset int) (*service.HistoryPage, error) {
	f.listCalled = true
	f.gotLimit, f.gotOffset = limit, offset
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

func (f *fakeHistoryService) Delete(_ context.Context, _ string, id string) error {
	f.deleteCalls++
	f.deletedID = id
	return f.err
}

func (f *fakeHistoryService) Export(context.Context, string) (*service.HistoryExport, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.export, nil
}

type fakeProfileService struct {
	profile *model.Profile
	err     error
	patch   model.ProfilePatch
	granted int
	resets  int
}

func (f *fakeProfileService) Get(context.Context, string) (*model.Profile, error) {
	return f.profile, f.err
}

func (f *fakeProfileService) Update(_ context.Context, _ string, patch model.ProfilePatch) (*model.Profile, error) {
	f.patch = patch
	if f.err != nil {
		return nil, f.err
	}
	if patch.PreferredStyle != nil {
		f.profile.PreferredStyle = *patch.PreferredStyle
	}
	return f.profile, nil
}

func (f *fakeProfileService) ResetBalance(context.Context, string) (*model.Profile, error) {
	f.resets++
	return f.profile, f.err
}

func (f *fakeProfileService) GrantWords(_ context.Context, _ string, words int) (*model.Profile, error) {
	f.granted += words
	if f.err != nil {
		return nil, f.err
	}
	f.profile.ExtraWordsBalance += words
	return f.profile, nil
}

type fakeBillingService struct {
	checkoutReq service.CheckoutRequest
	verifiedRef string
	err         error
	profile     *model.Profile
}

func (f *fakeBillingService) Initialize(_ context.Context, req service.CheckoutRequest) (*service.Checkout, error) {
	f.checkoutReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &service.Checkout{AuthorizationURL: "https://checkout.paystack.com/abc", AccessCode: "abc", Reference: "ref-1"}, nil
}

func (f *fakeBillingService) Verify(_ context.Context, _ string, reference string) (*service.VerifyResult, error) {
	f.verifiedRef = reference
	if f.err != nil {
		return nil, f.err
	}
	return &service.VerifyResult{Reference: reference, Kind: model.PaymentKindTopUp, Credited: true, Profile: f.profile}, nil
}

func (f *fakeBillingService) CancelSubscription(context.Context, string) (*model.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

func (f *fakeBillingService) ManageLink(context.Context, string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://paystack.com/manage/xyz", nil
}

type recordingEvents struct {
	events []webhook.Event
	err    error
}

func (r *recordingEvents) Handle(_ context.Context, ev webhook.Event) error {
	r.events = append(r.events, ev)
	return r.err
}

type fakeAICheck struct {
	result *service.AICheckResult
	err    error
}

func (f *fakeAICheck) Check(context.Context, string) (*service.AICheckResult, error) {
	return f.result, f.err
}

type fakeUserService struct {
	signedIn []*model.User
	users    map[string]*model.User
}

func (f *fakeUserService) SignIn(_ context.Context, u *model.User) (*model.User, error) {
	f.signedIn = append(f.signedIn, u)
	stored := *u
	stored.ID = "user-" + u.Email
	stored.Role = model.RoleUser
	if f.users == nil {
		f.users = map[string]*model.User{}
	}
	f.users[stored.ID] = &stored
	return &stored, nil
}

func (f *fakeUserService) Get(_ context.Context, id string) (*model.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, service.ErrUserNotFound
}

var errVendor = errors.New("vendor: connection reset")
