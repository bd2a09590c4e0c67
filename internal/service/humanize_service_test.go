package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"humanizer/internal/ledger"
	"humanizer/internal/model"
	"humanizer/internal/stream"

	"github.com/rs/zerolog"
)

type humanizeFixture struct {
	users     *fakeUserRepo
	profiles  *fakeProfileRepo
	history   *fakeHistoryRepo
	standard  *fakeRewriter
	fast      *fakeRewriter
	publisher *fakePublisher
	svc       HumanizeService
}

func newHumanizeFixture(role string, profile *model.Profile) *humanizeFixture {
	f := &humanizeFixture{
		users:     newFakeUserRepo(&model.User{ID: "u1", Email: "ada@example.com", Name: "Ada", Role: role}),
		history:   &fakeHistoryRepo{},
		standard:  &fakeRewriter{chunks: []string{"Hello ", "there."}},
		fast:      &fakeRewriter{chunks: []string{"Hi."}},
		publisher: &fakePublisher{},
	}
	if profile != nil {
		f.profiles = newFakeProfileRepo(profile)
	} else {
		f.profiles = newFakeProfileRepo()
	}
	f.svc = NewHumanizeService(f.users, f.profiles, f.history, f.standard, f.fast, f.publisher, "conversions", zerolog.Nop())
	return f
}

func profileWith(words, extra, perRequest int) *model.Profile {
	return &model.Profile{
		UserID:            "u1",
		PreferredStyle:    "casual",
		WordsBalance:      words,
		ExtraWordsBalance: extra,
		WordsLimit:        words,
		WordsPerRequest:   perRequest,
		Plan:              model.DefaultPlan,
		Status:            model.StatusActive,
	}
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestStartDebitsAndOpensStream(t *testing.T) {
	f := newHumanizeFixture(model.RoleUser, profileWith(500, 0, 500))

	conv, err := f.svc.Start(context.Background(), HumanizeRequest{UserID: "u1", Text: words(100)})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if conv.WordsProcessed != 100 {
		t.Fatalf("expected 100 words processed, got %d", conv.WordsProcessed)
	}
	if conv.Remaining != (ledger.Balance{Words: 400}) {
		t.Fatalf("unexpected remaining balance %+v", conv.Remaining)
	}
	if conv.Style != StyleCasual {
		t.Fatalf("expected profile style casual, got %q", conv.Style)
	}
	if f.standard.calls != 1 || f.fast.calls != 0 {
		t.Fatalf("expected the standard rewriter to be used, got standard=%d fast=%d", f.standard.calls, f.fast.calls)
	}
	p, _ := f.profiles.GetByUserID(context.Background(), "u1")
	if p.WordsBalance != 400 {
		t.Fatalf("expected persisted balance 400, got %d", p.WordsBalance)
	}
}

func TestStartSpendsExtraWordsAfterMonthlyBalance(t *testing.T) {
	f := newHumanizeFixture(model.RoleUser, profileWith(50, 100, 500))

	conv, err := f.svc.Start(context.Background(), HumanizeRequest{UserID: "u1", Text: words(80), Style: "academic"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if conv.Remaining != (ledger.Balance{Words: 0, ExtraWords: 70}) {
		t.Fatalf("unexpected remaining balance %+v", conv.Remaining)
	}
	if conv.Style != StyleAcademic {
		t.Fatalf("expected requested style academic, got %q", conv.Style)
	}
}

func TestStartFastUsesFastRewriter(t *testing.T) {
	f := newHumanizeFixture(model.RoleUser, profileWith(500, 0, 500))

	if _, err := f.svc.Start(context.Background(), HumanizeRequest{UserID: "u1", Text: "short text", Fast: true}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if f.fast.calls != 1 || f.standard.calls != 0 {
		t.Fatalf("expected the fast rewriter to be used, got standard=%d fast=%d", f.standard.calls, f.fast.calls)
	}
}

func TestStartRefusesQuotaWithoutCallingVendor(t *testing.T) {
	tests := []struct {
		name      string
		profile   *model.Profile
		words     int
		reason    error
		needed    int
		available int
	}{
		{"over per-request cap", profileWith(2000, 0, 500), 501, ledger.ErrOverRequestCap, 501, 500},
		{"insufficient balance", profileWith(30, 20, 500), 60, ledger.ErrInsufficientBalance, 60, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHumanizeFixture(model.RoleUser, tt.profile)
			_, err := f.svc.Start(context.Background(), HumanizeRequest{UserID: "u1", Text: words(tt.words)})

			var qe *ledger.QuotaError
			if !errors.As(err, &qe) {
				t.Fatalf("expected *ledger.QuotaError, got %v", err)
			}
			if !errors.Is(err, tt.reason) {
				t.Fatalf("expected %v, got %v", tt.reason, err)
			}
			if qe.WordsNeeded != tt.needed || qe.WordsAvailable != tt.available {
				t.Fatalf("unexpected payload needed=%d available=%d", qe.WordsNeeded, qe.WordsAvailable)
			}
			if f.standard.calls != 0 {
				t.Fatal("vendor must not be called when quota is refused")
			}
			p, _ := f.profiles.GetByUserID(context.Background(), "u1")
			if p.Balance() != tt.profile.Balance() {
				t.Fatalf("balance changed on refusal: %+v", p.Balance())
			}
		})
	}
}

func TestStartUnlimitedRoleIsNotDebited(t *testing.T) {
	for _, role := range []string{model.RoleAdmin, model.RoleTester} {
		t.Run(role, func(t *testing.T) {
			f := newHumanizeFixture(role, profileWith(10, 0, 5))
			conv, err := f.svc.Start(context.Background(), HumanizeRequest{UserID: "u1", Text: words(1000)})
			if err != nil {
				t.Fatalf("Start: %v", err)
			}
			if !conv.Unlimited {
				t.Fatal("expected conversion to be marked unlimited")
			}
			if conv.Remaining != (ledger.Balance{Words: 10}) {
				t.Fatalf("unlimited user balance changed: %+v", conv.Remaining)
			}
		})
	}
}

func TestStartCreatesMissingProfile(t *testing.T) {
	f := newHumanizeFixture(model.RoleUser, nil)

	conv, err := f.svc.Start(context.Background(), HumanizeRequest{UserID: "u1", Text: words(10)})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if conv.Remaining.Words != model.DefaultWordsBalance-10 {
		t.Fatalf("expected default balance minus 10, got %+v", conv.Remaining)
	}
	if conv.Style != StyleStandard {
		t.Fatalf("expected default style, got %q", conv.Style)
	}
}

func TestStartValidation(t *testing.T) {
	f := newHumanizeFixture(model.RoleUser, profileWith(500, 0, 500))
	tests := []struct {
		name string
		req  HumanizeRequest
		want error
	}{
		{"empty text", HumanizeRequest{UserID: "u1", Text: ""}, ErrValidation},
		{"whitespace text", HumanizeRequest{UserID: "u1", Text: "  \n\t "}, ErrValidation},
		{"oversized text", HumanizeRequest{UserID: "u1", Text: strings.Repeat("a", MaxTextChars+1)}, ErrValidation},
		{"unknown style", HumanizeRequest{UserID: "u1", Text: "hello", Style: "pirate"}, ErrValidation},
		{"unknown user", HumanizeRequest{UserID: "nobody", Text: "hello"}, ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Start(context.Background(), tt.req); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if f.profiles.debits != 0 {
		t.Fatalf("expected no debits, got %d", f.profiles.debits)
	}
}

func TestStartVendorFailureKeepsDebit(t *testing.T) {
	f := newHumanizeFixture(model.RoleUser, profileWith(500, 0, 500))
	f.standard.err = errors.New("quota exhausted at vendor")

	_, err := f.svc.Start(context.Background(), HumanizeRequest{UserID: "u1", Text: words(100)})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	p, _ := f.profiles.GetByUserID(context.Background(), "u1")
	if p.WordsBalance != 400 {
		t.Fatalf("expected the debit to stand, got balance %d", p.WordsBalance)
	}
}

func TestCompleteStoresHistoryAndPublishes(t *testing.T) {
	f := newHumanizeFixture(model.RoleUser, profileWith(500, 0, 500))
	original := "one  two   three"

	conv, err := f.svc.Start(context.Background(), HumanizeRequest{UserID: "u1", Text: original})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	text, err := stream.Relay(conv.Source, &strings.Builder{}, func() {})
	if err != nil {
		t.Fatalf("Relay: %v", err)
	}
	h, err := f.svc.Complete(context.Background(), conv, text)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if h.WordsCount != ledger.CountWords(original) || h.WordsCount != 3 {
		t.Fatalf("expected words_count 3, got %d", h.WordsCount)
	}
	if h.HumanizedText != "Hello there." || h.OriginalText != original {
		t.Fatalf("unexpected history %+v", h)
	}
	if len(f.history.entries) != 1 {
		t.Fatalf("expected one history row, got %d", len(f.history.entries))
	}

	if f.publisher.topic != "conversions" || len(f.publisher.payloads) != 1 {
		t.Fatalf("expected one event on conversions, got %d on %q", len(f.publisher.payloads), f.publisher.topic)
	}
	var ev ConversionCompleted
	if err := json.Unmarshal(f.publisher.payloads[0], &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Event != "conversion.completed" || ev.HistoryID != h.ID || ev.Words != 3 {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestCompleteIgnoresPublishFailure(t *testing.T) {
	f := newHumanizeFixture(model.RoleUser, profileWith(500, 0, 500))
	f.publisher.err = errors.New("pubsub down")

	conv, err := f.svc.Start(context.Background(), HumanizeRequest{UserID: "u1", Text: "a b"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := f.svc.Complete(context.Background(), conv, "A b."); err != nil {
		t.Fatalf("publish failure must not fail Complete: %v", err)
	}
}
