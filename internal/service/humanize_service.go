package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"humanizer/internal/ledger"
	"humanizer/internal/model"
	"humanizer/internal/pubsub"
	"humanizer/internal/repository"
	"humanizer/internal/stream"

	"github.com/rs/zerolog"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrUpstream   = errors.New("upstream service failed")
)

// MaxTextChars bounds a single humanize request independently of word quotas.
const MaxTextChars = 50000

// HumanizeRequest is one call to either humanize route.
type HumanizeRequest struct {
	UserID string
	Text   string
	Style  string
	Fast   bool
}

// Conversion is an authorized, already debited rewrite whose output is still
// streaming from the vendor.
type Conversion struct {
	Source         stream.Source
	UserID         string
	OriginalText   string
	Style          Style
	WordsProcessed int
	Remaining      ledger.Balance
	Unlimited      bool
	Fast           bool
}

// ConversionCompleted is published after a conversion is stored.
type ConversionCompleted struct {
	Event      string    `json:"event"`
	UserID     string    `json:"user_id"`
	HistoryID  string    `json:"history_id"`
	Words      int       `json:"words"`
	Style      string    `json:"style"`
	Fast       bool      `json:"fast"`
	OccurredAt time.Time `json:"occurred_at"`
}

type HumanizeService interface {
	// Start validates the request, debits the caller's balance and opens the
	// vendor stream. The debit is not refunded if the stream later fails.
	Start(ctx context.Context, req HumanizeRequest) (*Conversion, error)
	// Complete stores the finished conversion and announces it.
	Complete(ctx context.Context, conv *Conversion, result string) (*model.History, error)
}

type humanizeService struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	historyRepo repository.HistoryRepository
	standard    Rewriter
	fast        Rewriter
	publisher   pubsub.Publisher
	topic       string
	logger      zerolog.Logger
}

func NewHumanizeService(
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	historyRepo repository.HistoryRepository,
	standard, fast Rewriter,
	publisher pubsub.Publisher,
	topic string,
	logger zerolog.Logger,
) HumanizeService {
	return &humanizeService{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		historyRepo: historyRepo,
		standard:    standard,
		fast:        fast,
		publisher:   publisher,
		topic:       topic,
		logger:      logger.With().Str("service", "HumanizeService").Logger(),
	}
}

func (s *humanizeService) Start(ctx context.Context, req HumanizeRequest) (*Conversion, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: text is required", ErrValidation)
	}
	if utf8.RuneCountInString(req.Text) > MaxTextChars {
		return nil, fmt.Errorf("%w: text exceeds %d characters", ErrValidation, MaxTextChars)
	}
	words := ledger.CountWords(req.Text)

	user, err := s.userRepo.GetUserByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if err := s.profileRepo.EnsureDefault(ctx, user.ID, user.Name); err != nil {
		return nil, err
	}
	style, err := s.resolveStyle(ctx, user.ID, req.Style)
	if err != nil {
		return nil, err
	}

	remaining, err := s.profileRepo.DebitWords(ctx, user.ID, words, user.HasUnlimitedAccess())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", user.ID).
		Int("words", words).
		Int("remaining", remaining.Total()).
		Bool("unlimited", user.HasUnlimitedAccess()).
		Msg("Words debited")

	rw := s.standard
	if req.Fast {
		rw = s.fast
	}
	src, err := rw.Rewrite(ctx, req.Text, style)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to open rewrite stream")
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return &Conversion{
		Source:         src,
		UserID:         user.ID,
		OriginalText:   req.Text,
		Style:          style,
		WordsProcessed: words,
		Remaining:      remaining,
		Unlimited:      user.HasUnlimitedAccess(),
		Fast:           req.Fast,
	}, nil
}

// resolveStyle uses the requested style, else the profile preference.
func (s *humanizeService) resolveStyle(ctx context.Context, userID, requested string) (Style, error) {
	if requested != "" {
		return ParseStyle(requested)
	}
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if profile == nil {
		return "", ErrProfileNotFound
	}
	style, err := ParseStyle(profile.PreferredStyle)
	if err != nil {
		return StyleStandard, nil
	}
	return style, nil
}

func (s *humanizeService) Complete(ctx context.Context, conv *Conversion, result string) (*model.History, error) {
	h := &model.History{
		UserID:        conv.UserID,
		OriginalText:  conv.OriginalText,
		HumanizedText: result,
		WordsCount:    conv.WordsProcessed,
		Style:         string(conv.Style),
	}
	if err := s.historyRepo.Create(ctx, h); err != nil {
		return nil, err
	}
	s.publishCompleted(ctx, conv, h)
	return h, nil
}

func (s *humanizeService) publishCompleted(ctx context.Context, conv *Conversion, h *model.History) {
	if s.publisher == nil || s.topic == "" {
		return
	}
	payload, err := json.Marshal(ConversionCompleted{
		Event:      "conversion.completed",
		UserID:     conv.UserID,
		HistoryID:  h.ID,
		Words:      conv.WordsProcessed,
		Style:      string(conv.Style),
		Fast:       conv.Fast,
		OccurredAt: h.CreatedAt,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to marshal conversion event")
		return
	}
	if _, err := s.publisher.Publish(ctx, s.topic, payload); err != nil {
		s.logger.Error().Err(err).Str("topic", s.topic).Msg("Failed to publish conversion event")
	}
}
