package llm

import (
	"context"
	"encoding/json"
	"strings"

	genai "google.golang.org/genai"

	"settingscout/internal/util/jsonutil"
)

// GeminiClient is a thin wrapper around the official genai client. Retries,
// rate limiting and logging are applied via Middleware.
type GeminiClient struct {
	cli         *genai.Client
	model       string
	temperature float32
}

func NewGeminiClient(ctx context.Context, apiKey, model string, temperature float32) (*GeminiClient, error) {
	cfg := &genai.ClientConfig{Backend: genai.BackendGeminiAPI}
	if k := strings.TrimSpace(apiKey); k != "" {
		cfg.APIKey = k
	}
	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(model) == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiClient{cli: cli, model: model, temperature: temperature}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

// GenerateJSON sends the prompt followed by inline media and asks for
// application/json. Replies wrapped in prose or code fences are unwrapped.
func (g *GeminiClient) GenerateJSON(ctx context.Context, prompt string, media ...Media) (json.RawMessage, error) {
	parts := []*genai.Part{{Text: prompt}}
	for _, m := range media {
		if len(m.Data) == 0 {
			continue
		}
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: m.MIMEType, Data: m.Data}})
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Role: "user", Parts: parts}},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			Temperature:      genai.Ptr(g.temperature),
		},
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyReply
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && !p.Thought {
			sb.WriteString(p.Text)
		}
	}
	body, err := jsonutil.ExtractJSON(sb.String())
	if err != nil {
		return nil, ErrInvalidJSON
	}
	return json.RawMessage(body), nil
}
