package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"humanizer/internal/stream"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Rewriter opens a streamed rewrite of text in the given style.
type Rewriter interface {
	Rewrite(ctx context.Context, text string, style Style) (stream.Source, error)
}

type geminiRewriter struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates the client shared by the standard and fast rewriters.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is not configured")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

func NewGeminiRewriter(client *genai.Client, modelName string) Rewriter {
	return &geminiRewriter{client: client, modelName: modelName}
}

func (g *geminiRewriter) Rewrite(ctx context.Context, text string, style Style) (stream.Source, error) {
	model := g.client.GenerativeModel(g.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt(style))},
	}
	model.SetTemperature(0.9)

	return &geminiSource{iter: model.GenerateContentStream(ctx, genai.Text(text))}, nil
}

// geminiSource adapts a response iterator to stream.Source.
type geminiSource struct {
	iter *genai.GenerateContentResponseIterator
}

func (s *geminiSource) Next() (string, error) {
	resp, err := s.iter.Next()
	if errors.Is(err, iterator.Done) {
		return "", io.EOF
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return responseText(resp), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}
