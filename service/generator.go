package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	genaisdk "google.golang.org/genai"
)

// Generator backends selectable through configuration.
const (
	BackendGenerativeAI = "generative-ai"
	BackendGenAI        = "genai"
	BackendREST         = "rest"
)

const generationEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"

var (
	ErrEmptyCompletion = errors.New("model returned no text")
	ErrUnknownBackend  = errors.New("unknown generator backend")
)

// ContentGenerator sends one system+user exchange to a language model and
// returns the completion text.
type ContentGenerator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// GenerationConfig holds the sampling settings shared by every backend.
type GenerationConfig struct {
	Backend         string
	APIKey          string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
}

// NewGenerator builds the backend named in cfg.Backend. The returned close
// function releases the client.
func NewGenerator(ctx context.Context, cfg GenerationConfig, logger *zap.Logger) (ContentGenerator, func() error, error) {
	switch cfg.Backend {
	case BackendGenerativeAI, "":
		g, err := NewGenerativeAIGenerator(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	case BackendGenAI:
		g, err := NewGenAIGenerator(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return g, func() error { return nil }, nil
	case BackendREST:
		return NewRESTGenerator(cfg, logger), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// GenerativeAIGenerator talks to Gemini through github.com/google/generative-ai-go.
type GenerativeAIGenerator struct {
	client *genai.Client
	cfg    GenerationConfig
}

// NewGenerativeAIGenerator creates the client with an API key.
func NewGenerativeAIGenerator(ctx context.Context, cfg GenerationConfig) (*GenerativeAIGenerator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GenerativeAIGenerator{client: client, cfg: cfg}, nil
}

// Generate implements ContentGenerator.
func (g *GenerativeAIGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	model := g.client.GenerativeModel(g.cfg.Model)
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemPrompt))
	model.SetTemperature(g.cfg.Temperature)
	if g.cfg.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(g.cfg.MaxOutputTokens)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		break
	}
	if b.Len() == 0 {
		return "", ErrEmptyCompletion
	}
	return b.String(), nil
}

// Close releases the client connection.
func (g *GenerativeAIGenerator) Close() error {
	return g.client.Close()
}

// GenAIGenerator talks to Gemini through google.golang.org/genai.
type GenAIGenerator struct {
	client *genaisdk.Client
	cfg    GenerationConfig
}

// NewGenAIGenerator creates the client for the Gemini API backend.
func NewGenAIGenerator(ctx context.Context, cfg GenerationConfig) (*GenAIGenerator, error) {
	client, err := genaisdk.NewClient(ctx, &genaisdk.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genaisdk.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIGenerator{client: client, cfg: cfg}, nil
}

// Generate implements ContentGenerator.
func (g *GenAIGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Model,
		genaisdk.Text(userPrompt),
		&genaisdk.GenerateContentConfig{
			SystemInstruction: genaisdk.NewContentFromText(systemPrompt, genaisdk.RoleUser),
			Temperature:       genaisdk.Ptr(g.cfg.Temperature),
			MaxOutputTokens:   g.cfg.MaxOutputTokens,
		})
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// RESTGenerator calls the generateContent endpoint directly over HTTP.
type RESTGenerator struct {
	cfg      GenerationConfig
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewRESTGenerator creates a generator posting to the public endpoint.
func NewRESTGenerator(cfg GenerationConfig, logger *zap.Logger) *RESTGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RESTGenerator{
		cfg:      cfg,
		endpoint: fmt.Sprintf(generationEndpoint, cfg.Model),
		client:   &http.Client{Timeout: 120 * time.Second},
		logger:   logger,
	}
}

type restPart struct {
	Text string `json:"text"`
}

type restContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []restPart `json:"parts"`
}

type restRequest struct {
	SystemInstruction *restContent   `json:"systemInstruction,omitempty"`
	Contents          []restContent  `json:"contents"`
	GenerationConfig  map[string]any `json:"generationConfig"`
}

type restResponse struct {
	Candidates []struct {
		Content      restContent `json:"content"`
		FinishReason string      `json:"finishReason,omitempty"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback,omitempty"`
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error,omitempty"`
}

// Generate implements ContentGenerator.
func (g *RESTGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	genCfg := map[string]any{"temperature": g.cfg.Temperature}
	if g.cfg.MaxOutputTokens > 0 {
		genCfg["maxOutputTokens"] = g.cfg.MaxOutputTokens
	}
	body, err := json.Marshal(restRequest{
		SystemInstruction: &restContent{Parts: []restPart{{Text: systemPrompt}}},
		Contents:          []restContent{{Role: "user", Parts: []restPart{{Text: userPrompt}}}},
		GenerationConfig:  genCfg,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error: %d - %s", resp.StatusCode, string(raw))
	}

	var apiResp restResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if apiResp.Error.Message != "" {
		return "", fmt.Errorf("API error: %s (code: %d)", apiResp.Error.Message, apiResp.Error.Code)
	}
	if apiResp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("API blocked prompt: %s", apiResp.PromptFeedback.BlockReason)
	}
	if len(apiResp.Candidates) == 0 {
		return "", ErrEmptyCompletion
	}

	cand := apiResp.Candidates[0]
	if cand.FinishReason != "" && cand.FinishReason != "STOP" {
		g.logger.Warn("candidate finished early", zap.String("finish_reason", cand.FinishReason))
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		b.WriteString(part.Text)
	}
	if b.Len() == 0 {
		return "", ErrEmptyCompletion
	}
	return b.String(), nil
}
