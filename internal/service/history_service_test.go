package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"humanizer/internal/model"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

type fakeObjectStore struct {
	bucket, key, contentType string
	body                     []byte
}

func (s *fakeObjectStore) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	s.bucket, s.key, s.contentType = *in.Bucket, *in.Key, *in.ContentType
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	s.body = b
	return &s3.PutObjectOutput{}, nil
}

type fakePresigner struct {
	expires time.Duration
}

func (p *fakePresigner) PresignGetObject(_ context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	var opts s3.PresignOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	p.expires = opts.Expires
	return &v4.PresignedHTTPRequest{URL: "https://s3.example.com/" + *in.Bucket + "/" + *in.Key + "?X-Amz-Signature=abc"}, nil
}

func seededHistory(t *testing.T) *fakeHistoryRepo {
	t.Helper()
	repo := &fakeHistoryRepo{}
	for i, userID := range []string{"u1", "u1", "u2", "u1"} {
		h := &model.History{UserID: userID, OriginalText: "text", HumanizedText: "Text.", WordsCount: i + 1, Style: "standard"}
		if err := repo.Create(context.Background(), h); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return repo
}

func TestHistoryListPaginates(t *testing.T) {
	svc := NewHistoryService(seededHistory(t), nil, nil, "", zerolog.Nop())

	page, err := svc.List(context.Background(), "u1", 2, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 3 || len(page.Entries) != 2 {
		t.Fatalf("expected 2 of 3 entries, got %d of %d", len(page.Entries), page.Total)
	}
	if page.Entries[0].ID != "h-4" {
		t.Fatalf("expected newest entry first, got %s", page.Entries[0].ID)
	}

	page, err = svc.List(context.Background(), "u1", 2, 2)
	if err != nil {
		t.Fatalf("List page 2: %v", err)
	}
	if len(page.Entries) != 1 || page.Entries[0].ID != "h-1" {
		t.Fatalf("unexpected second page %+v", page.Entries)
	}
}

func TestHistoryListValidatesParams(t *testing.T) {
	svc := NewHistoryService(&fakeHistoryRepo{}, nil, nil, "", zerolog.Nop())
	tests := []struct {
		name          string
		limit, offset int
		wantErr       bool
	}{
		{"zero limit", 0, 0, true},
		{"limit above max", MaxHistoryLimit + 1, 0, true},
		{"negative offset", 10, -1, true},
		{"min limit", 1, 0, false},
		{"max limit", MaxHistoryLimit, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.List(context.Background(), "u1", tt.limit, tt.offset)
			if tt.wantErr && !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
}

func TestHistoryDelete(t *testing.T) {
	repo := seededHistory(t)
	svc := NewHistoryService(repo, nil, nil, "", zerolog.Nop())

	if err := svc.Delete(context.Background(), "u1", "h-3"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for another user's entry, got %v", err)
	}
	if err := svc.Delete(context.Background(), "u1", "h-404"); !errors.Is(err, ErrHistoryNotFound) {
		t.Fatalf("expected ErrHistoryNotFound, got %v", err)
	}
	if err := svc.Delete(context.Background(), "u1", "h-1"); err != nil {
		t.Fatalf("Delete own entry: %v", err)
	}
	if n, _ := repo.CountByUser(context.Background(), "u1"); n != 2 {
		t.Fatalf("expected 2 remaining entries, got %d", n)
	}
	if n, _ := repo.CountByUser(context.Background(), "u2"); n != 1 {
		t.Fatalf("other user's history changed, got %d", n)
	}
}

func TestHistoryExport(t *testing.T) {
	store := &fakeObjectStore{}
	presigner := &fakePresigner{}
	svc := NewHistoryService(seededHistory(t), store, presigner, "exports-bucket", zerolog.Nop())

	exp, err := svc.Export(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if exp.Entries != 3 {
		t.Fatalf("expected 3 exported entries, got %d", exp.Entries)
	}
	if store.bucket != "exports-bucket" || !strings.HasPrefix(store.key, "exports/u1/") || store.contentType != "application/json" {
		t.Fatalf("unexpected upload bucket=%s key=%s type=%s", store.bucket, store.key, store.contentType)
	}
	if presigner.expires != 15*time.Minute {
		t.Fatalf("expected a 15 minute link, got %s", presigner.expires)
	}
	if !strings.Contains(exp.URL, store.key) {
		t.Fatalf("presigned URL %q does not reference %q", exp.URL, store.key)
	}

	var doc struct {
		UserID  string          `json:"user_id"`
		History []model.History `json:"history"`
	}
	if err := json.Unmarshal(store.body, &doc); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if doc.UserID != "u1" || len(doc.History) != 3 {
		t.Fatalf("unexpected export document user=%s entries=%d", doc.UserID, len(doc.History))
	}
}

func TestHistoryExportUnconfigured(t *testing.T) {
	svc := NewHistoryService(&fakeHistoryRepo{}, nil, nil, "", zerolog.Nop())
	if _, err := svc.Export(context.Background(), "u1"); !errors.Is(err, ErrExportUnavailable) {
		t.Fatalf("expected ErrExportUnavailable, got %v", err)
	}
}
