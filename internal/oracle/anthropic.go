package oracle

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

	"funnel/internal/domain/founder"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	anthropicVersion   = "2023-06-01"
	anthropicMaxTokens = 4096
)

type AnthropicConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	RequestsPerSec float64
	HTTPClient     *http.Client
}

// AnthropicClient talks to the Messages API. Each call forces a single tool
// whose input_schema is the expected result, so the model answers with
// structured JSON instead of prose.
type AnthropicClient struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewAnthropicClient(cfg AnthropicConfig, logger *zap.Logger) (*AnthropicClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: anthropic api key is empty", ErrNotConfigured)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com/v1"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 2 * time.Minute}
	}
	var lim *rate.Limiter
	if cfg.RequestsPerSec > 0 {
		lim = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnthropicClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		http:    cfg.HTTPClient,
		limiter: lim,
		logger:  logger.Named("oracle.anthropic"),
	}, nil
}

type anthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type anthropicToolChoice struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string              `json:"model"`
	MaxTokens   int                 `json:"max_tokens"`
	System      string              `json:"system,omitempty"`
	Messages    []anthropicMessage  `json:"messages"`
	Tools       []anthropicTool     `json:"tools"`
	ToolChoice  anthropicToolChoice `json:"tool_choice"`
	Temperature float64             `json:"temperature"`
}

type anthropicResponse struct {
	Content []struct {
		Type  string          `json:"type"`
		Name  string          `json:"name"`
		Input json.RawMessage `json:"input"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *AnthropicClient) RankCandidates(ctx context.Context, req RankRequest) ([]Ranking, error) {
	raw, err := c.invoke(ctx, rankTask, rankPrompt(req))
	if err != nil {
		return nil, err
	}
	return decodeRankings(raw)
}

func (c *AnthropicClient) JudgePitch(ctx context.Context, req PitchRequest) (Verdict, error) {
	raw, err := c.invoke(ctx, pitchTask, pitchPrompt(req))
	if err != nil {
		return Verdict{}, err
	}
	return decodeVerdict(raw)
}

func (c *AnthropicClient) AnalyzeDeck(ctx context.Context, req DeckRequest) (founder.Analysis, error) {
	raw, err := c.invoke(ctx, deckTask, deckPrompt(req))
	if err != nil {
		return founder.Analysis{}, err
	}
	return decodeAnalysis(raw)
}

// invoke returns the raw tool input of the forced tool call. Calls are not
// retried: callers have their own fallback.
func (c *AnthropicClient) invoke(ctx context.Context, t task, prompt string) (json.RawMessage, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:     c.model,
		MaxTokens: anthropicMaxTokens,
		System:    t.system,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
		Tools: []anthropicTool{{
			Name:        t.name,
			Description: t.description,
			InputSchema: jsonSchema(t.schema),
		}},
		ToolChoice:  anthropicToolChoice{Type: "tool", Name: t.name},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	raw, err := c.do(ctx, t.name, body)
	if err != nil {
		c.logger.Warn("tool call failed", zap.String("tool", t.name), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return nil, err
	}
	c.logger.Debug("tool call completed", zap.String("tool", t.name), zap.Duration("elapsed", time.Since(start)))
	return raw, nil
}

func (c *AnthropicClient) do(ctx context.Context, tool string, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("anthropic status %d: %s", resp.StatusCode, snippet(payload))
	}

	var ar anthropicResponse
	if err := json.Unmarshal(payload, &ar); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if ar.Error != nil {
		return nil, errors.New("anthropic error: " + ar.Error.Message)
	}
	for _, block := range ar.Content {
		if block.Type == "tool_use" && block.Name == tool && len(block.Input) > 0 {
			return block.Input, nil
		}
	}
	return nil, fmt.Errorf("%w: no %s tool call (stop_reason=%s)", ErrMalformedResponse, tool, ar.StopReason)
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 300 {
		return s[:300] + "..."
	}
	return s
}
