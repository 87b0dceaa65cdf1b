// internal/llmclient/gemini_client.go
package llmclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/xkilldash9x/vistest/api/schemas"
	"github.com/xkilldash9x/vistest/internal/config"
)

// contentGenerator is the slice of genai.Models the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// RequestRecorder receives one observation per model request attempt.
type RequestRecorder interface {
	LLMRequest(model, status string, took time.Duration, promptTokens, outputTokens int)
}

type nopRequestRecorder struct{}

func (nopRequestRecorder) LLMRequest(string, string, time.Duration, int, int) {}

// Option customizes a GeminiClient.
type Option func(*GeminiClient)

// WithRequestRecorder reports every request attempt to r.
func WithRequestRecorder(r RequestRecorder) Option {
	return func(c *GeminiClient) {
		if r != nil {
			c.recorder = r
		}
	}
}

// GeminiClient implements schemas.ModelClient on the Gemini API with function calling.
type GeminiClient struct {
	models   contentGenerator
	config   config.LLMModelConfig
	logger   *zap.Logger
	limiter  *rate.Limiter
	recorder RequestRecorder
	// newBackOff builds the retry policy for one Converse call.
	newBackOff func() backoff.BackOff
}

var _ schemas.ModelClient = (*GeminiClient)(nil)

// NewGeminiClient initializes the client.
func NewGeminiClient(ctx context.Context, cfg config.LLMModelConfig, logger *zap.Logger, opts ...Option) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API Key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}
	if cfg.APITimeout > 0 {
		cc.HTTPClient = &http.Client{Timeout: cfg.APITimeout}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return newGeminiClient(client.Models, cfg, logger, opts...), nil
}

func newGeminiClient(models contentGenerator, cfg config.LLMModelConfig, logger *zap.Logger, opts ...Option) *GeminiClient {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	c := &GeminiClient{
		models:   models,
		config:   cfg,
		logger:   logger.Named("llm_client.gemini"),
		limiter:  rate.NewLimiter(limit, burst),
		recorder: nopRequestRecorder{},
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = 2 * time.Minute
			b.MaxInterval = 30 * time.Second
			return b
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Converse sends the transcript and tools to Gemini and returns the next
// turn. Transient failures (rate limiting, 5xx, per attempt timeouts) are
// retried up to MaxRetries times with exponential backoff.
func (c *GeminiClient) Converse(ctx context.Context, req schemas.ConverseRequest) (*schemas.ModelTurn, error) {
	contents, err := toContents(req.Transcript)
	if err != nil {
		return nil, fmt.Errorf("failed to convert transcript: %w", err)
	}
	tools, err := toFunctionDeclarations(req.Tools)
	if err != nil {
		return nil, fmt.Errorf("failed to convert tools: %w", err)
	}
	genConfig := c.generationConfig(tools)

	var b backoff.BackOff = c.newBackOff()
	if c.config.MaxRetries >= 0 {
		b = backoff.WithMaxRetries(b, uint64(c.config.MaxRetries))
	}

	var turn *schemas.ModelTurn
	attempt := 0
	operation := func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("rate limiter: %w", err))
		}

		callCtx := ctx
		if c.config.APITimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.config.APITimeout)
			defer cancel()
		}

		start := time.Now()
		resp, err := c.models.GenerateContent(callCtx, c.config.Model, contents, genConfig)
		took := time.Since(start)
		if err != nil {
			c.recorder.LLMRequest(c.config.Model, "error", took, 0, 0)
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			if !retryable(err) {
				c.logger.Error("Gemini request failed", zap.Error(err), zap.Int("attempt", attempt))
				return backoff.Permanent(err)
			}
			c.logger.Warn("Transient error during LLM request, retrying...", zap.Error(err), zap.Int("attempt", attempt))
			return err
		}

		promptTokens, outputTokens := usage(resp)
		parsed, err := fromResponse(resp)
		if err != nil {
			c.recorder.LLMRequest(c.config.Model, "error", took, promptTokens, outputTokens)
			var blocked *errBlocked
			if errors.As(err, &blocked) {
				return backoff.Permanent(err)
			}
			// An empty candidate list is usually transient.
			return err
		}
		c.recorder.LLMRequest(c.config.Model, "success", took, promptTokens, outputTokens)

		c.logger.Info("LLM generation complete (Gemini)",
			zap.Duration("duration", took),
			zap.Int("prompt_tokens", promptTokens),
			zap.Int("completion_tokens", outputTokens),
			zap.Int("tool_calls", len(parsed.ToolCalls)),
		)
		turn = parsed
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}

	if req.MaxSteps > 0 && len(turn.ToolCalls) > req.MaxSteps {
		c.logger.Debug("Truncating tool calls to the step limit",
			zap.Int("proposed", len(turn.ToolCalls)), zap.Int("max_steps", req.MaxSteps))
		turn.ToolCalls = turn.ToolCalls[:req.MaxSteps]
	}
	return turn, nil
}

func (c *GeminiClient) generationConfig(tools []*genai.Tool) *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.config.Temperature),
		Tools:       tools,
	}
	if c.config.TopP > 0 {
		gc.TopP = genai.Ptr(c.config.TopP)
	}
	if c.config.TopK > 0 {
		gc.TopK = genai.Ptr(float32(c.config.TopK))
	}
	if c.config.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(c.config.MaxTokens)
	}
	return gc
}

// Close is a no-op; the genai client holds no long lived resources.
func (c *GeminiClient) Close() error { return nil }

func usage(resp *genai.GenerateContentResponse) (int, int) {
	if resp == nil || resp.UsageMetadata == nil {
		return 0, 0
	}
	return int(resp.UsageMetadata.PromptTokenCount), int(resp.UsageMetadata.CandidatesTokenCount)
}

// retryable reports whether a request error is worth another attempt. API
// errors are retried only for throttling and server side failures; anything
// else (network errors, attempt timeouts) is assumed transient.
func retryable(err error) bool {
	if code, ok := apiErrorCode(err); ok {
		switch code {
		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}
	return !errors.Is(err, context.Canceled)
}

func apiErrorCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}
