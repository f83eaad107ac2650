package oracle

import (
	"context"
	"fmt"
	"strings"

	"funnel/internal/domain/founder"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// generator is the slice of *genai.Models the client needs.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiConfig struct {
	APIKey         string
	Model          string
	RequestsPerSec float64
}

// GeminiClient uses JSON-mode generation with a response schema.
type GeminiClient struct {
	models  generator
	model   string
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: gemini api key is empty", ErrNotConfigured)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newGeminiClient(client.Models, cfg, logger), nil
}

func newGeminiClient(models generator, cfg GeminiConfig, logger *zap.Logger) *GeminiClient {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	var lim *rate.Limiter
	if cfg.RequestsPerSec > 0 {
		lim = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiClient{models: models, model: cfg.Model, limiter: lim, logger: logger.Named("oracle.gemini")}
}

func (c *GeminiClient) RankCandidates(ctx context.Context, req RankRequest) ([]Ranking, error) {
	raw, err := c.generate(ctx, rankTask, rankPrompt(req))
	if err != nil {
		return nil, err
	}
	return decodeRankings(raw)
}

func (c *GeminiClient) JudgePitch(ctx context.Context, req PitchRequest) (Verdict, error) {
	raw, err := c.generate(ctx, pitchTask, pitchPrompt(req))
	if err != nil {
		return Verdict{}, err
	}
	return decodeVerdict(raw)
}

func (c *GeminiClient) AnalyzeDeck(ctx context.Context, req DeckRequest) (founder.Analysis, error) {
	raw, err := c.generate(ctx, deckTask, deckPrompt(req))
	if err != nil {
		return founder.Analysis{}, err
	}
	return decodeAnalysis(raw)
}

func (c *GeminiClient) generate(ctx context.Context, t task, prompt string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := c.models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(t.system, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			ResponseSchema:    t.schema,
			Temperature:       genai.Ptr[float32](0.2),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini %s: %w", t.name, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("%w: empty gemini response", ErrMalformedResponse)
	}
	c.logger.Debug("generation completed", zap.String("task", t.name), zap.Int("response_len", len(text)))
	return []byte(text), nil
}
