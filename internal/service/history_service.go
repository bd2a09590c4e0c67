package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"humanizer/internal/model"
	"humanizer/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

var (
	ErrHistoryNotFound   = errors.New("history entry not found")
	ErrForbidden         = errors.New("forbidden")
	ErrExportUnavailable = errors.New("history export is not configured")
)

const (
	MaxHistoryLimit = 100
	exportURLTTL    = 15 * time.Minute
)

// ObjectStore is the part of the S3 client used for exports.
type ObjectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// URLPresigner signs download links for exported objects.
type URLPresigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type HistoryPage struct {
	Entries []model.History
	Total   int
	Limit   int
	Offset  int
}

type HistoryExport struct {
	URL       string
	Key       string
	Entries   int
	ExpiresAt time.Time
}

type HistoryService interface {
	List(ctx context.Context, userID string, limit, offset int) (*HistoryPage, error)
	// Delete removes an entry owned by userID. Entries owned by someone else
	// return ErrForbidden.
	Delete(ctx context.Context, userID, id string) error
	Export(ctx context.Context, userID string) (*HistoryExport, error)
}

type historyService struct {
	historyRepo repository.HistoryRepository
	store       ObjectStore
	presigner   URLPresigner
	bucket      string
	logger      zerolog.Logger
}

func NewHistoryService(historyRepo repository.HistoryRepository, store ObjectStore, presigner URLPresigner, bucket string, logger zerolog.Logger) HistoryService {
	return &historyService{
		historyRepo: historyRepo,
		store:       store,
		presigner:   presigner,
		bucket:      bucket,
		logger:      logger.With().Str("service", "HistoryService").Logger(),
	}
}

func (s *historyService) List(ctx context.Context, userID string, limit, offset int) (*HistoryPage, error) {
	if limit < 1 || limit > MaxHistoryLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", ErrValidation, MaxHistoryLimit)
	}
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", ErrValidation)
	}

	entries, err := s.historyRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.historyRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &HistoryPage{Entries: entries, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *historyService) Delete(ctx context.Context, userID, id string) error {
	h, err := s.historyRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if h == nil {
		return ErrHistoryNotFound
	}
	if h.UserID != userID {
		s.logger.Warn().Str("user_id", userID).Str("history_id", id).Msg("Attempt to delete another user's history")
		return ErrForbidden
	}
	if err := s.historyRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrHistoryNotFound
		}
		return err
	}
	return nil
}

type exportDocument struct {
	UserID     string          `json:"user_id"`
	ExportedAt time.Time       `json:"exported_at"`
	History    []model.History `json:"history"`
}

func (s *historyService) Export(ctx context.Context, userID string) (*HistoryExport, error) {
	if s.store == nil || s.presigner == nil || s.bucket == "" {
		return nil, ErrExportUnavailable
	}

	entries, err := s.historyRepo.ListByUser(ctx, userID, 0, 0)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	body, err := json.Marshal(exportDocument{UserID: userID, ExportedAt: now, History: entries})
	if err != nil {
		return nil, fmt.Errorf("marshal history export: %w", err)
	}

	key := fmt.Sprintf("exports/%s/%s.json", userID, now.Format("20060102T150405Z"))
	_, err = s.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("upload history export: %w", err)
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(exportURLTTL))
	if err != nil {
		return nil, fmt.Errorf("presign history export: %w", err)
	}

	s.logger.Info().Str("user_id", userID).Str("key", key).Int("entries", len(entries)).Msg("History exported")
	return &HistoryExport{URL: req.URL, Key: key, Entries: len(entries), ExpiresAt: now.Add(exportURLTTL)}, nil
}
