package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"humanizer/internal/api/v1/dto"
	"humanizer/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

func TestAICheck(t *testing.T) {
	newMux := func(svc service.AICheckService) *http.ServeMux {
		mux := http.NewServeMux()
		NewAICheckHandler(svc, validator.New(), nil, zerolog.Nop()).RegisterRoutes(mux, withUser("u1"))
		return mux
	}

	svc := &fakeAICheck{result: &service.AICheckResult{AIScore: 80, IsLikelyAI: true, Detectors: map[string]int{"gptzero": 80, "zerogpt": 76, "copyleaks": 82}}}
	rec := postJSON(newMux(svc), "/api/ai-check", `{"text":"some text"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp dto.AICheckResponseDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AIScore != 80 || !resp.IsLikelyAI || resp.Detectors["copyleaks"] != 82 {
		t.Fatalf("unexpected response %+v", resp)
	}

	if rec := postJSON(newMux(svc), "/api/ai-check", `{"text":""}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty text, got %d", rec.Code)
	}
	if rec := postJSON(newMux(svc), "/api/ai-check", `{"text":"`+strings.Repeat("a", maxTextBody)+`"}`); rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for an oversized body, got %d", rec.Code)
	}
	if rec := postJSON(newMux(&fakeAICheck{err: service.ErrUpstream}), "/api/ai-check", `{"text":"x"}`); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on detector failure, got %d", rec.Code)
	}
}
