package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"humanizer/internal/api/v1/dto"
	"humanizer/internal/model"
	"humanizer/internal/service"

	"github.com/rs/zerolog"
)

func newHistoryMux(svc service.HistoryService) *http.ServeMux {
	mux := http.NewServeMux()
	NewHistoryHandler(svc, zerolog.Nop()).RegisterRoutes(mux, withUser("u1"))
	return mux
}

func TestHistoryList(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := &fakeHistoryService{page: &service.HistoryPage{
		Entries: []model.History{{ID: "h-1", UserID: "u1", OriginalText: "a b", HumanizedText: "c d", WordsCount: 2, Style: "casual", CreatedAt: created}},
		Total:   11,
		Limit:   10,
		Offset:  0,
	}}
	rec := httptest.NewRecorder()
	newHistoryMux(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.gotLimit != 10 || svc.gotOffset != 0 {
		t.Fatalf("expected default paging 10/0, got %d/%d", svc.gotLimit, svc.gotOffset)
	}
	var resp dto.HistoryListResponseDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 11 || len(resp.History) != 1 || resp.History[0].WordsCount != 2 || !resp.History[0].CreatedAt.Equal(created) {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestHistoryListPaging(t *testing.T) {
	tests := []struct {
		query      string
		svcErr     error
		wantStatus int
		wantCalled bool
	}{
		{"?limit=25&offset=50", nil, http.StatusOK, true},
		{"?limit=abc", nil, http.StatusBadRequest, false},
		{"?offset=1.5", nil, http.StatusBadRequest, false},
		{"?limit=101", fmt.Errorf("%w: limit must be between 1 and 100", service.ErrValidation), http.StatusBadRequest, true},
		{"?offset=-1", fmt.Errorf("%w: offset must not be negative", service.ErrValidation), http.StatusBadRequest, true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			svc := &fakeHistoryService{page: &service.HistoryPage{}, err: tt.svcErr}
			rec := httptest.NewRecorder()
			newHistoryMux(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history"+tt.query, nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d (%s)", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if svc.listCalled != tt.wantCalled {
				t.Fatalf("service called = %v, want %v", svc.listCalled, tt.wantCalled)
			}
		})
	}
}

func TestHistoryDelete(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"own entry", nil, http.StatusNoContent},
		{"foreign entry", service.ErrForbidden, http.StatusForbidden},
		{"missing entry", service.ErrHistoryNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeHistoryService{err: tt.err}
			rec := httptest.NewRecorder()
			newHistoryMux(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/history/h-42", nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if svc.deletedID != "h-42" {
				t.Fatalf("expected id h-42 from the path, got %q", svc.deletedID)
			}
		})
	}
}

func TestHistoryExport(t *testing.T) {
	expires := time.Now().Add(15 * time.Minute).UTC()
	svc := &fakeHistoryService{export: &service.HistoryExport{URL: "https://s3.example.com/exports/u1/x.json?X-Amz-Signature=abc", Key: "exports/u1/x.json", Entries: 3, ExpiresAt: expires}}
	rec := httptest.NewRecorder()
	newHistoryMux(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/history/export", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp dto.HistoryExportResponseDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Entries != 3 || resp.Key != "exports/u1/x.json" || resp.URL == "" {
		t.Fatalf("unexpected export %+v", resp)
	}

	svc = &fakeHistoryService{err: service.ErrExportUnavailable}
	rec = httptest.NewRecorder()
	newHistoryMux(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/history/export", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without storage, got %d", rec.Code)
	}
}
