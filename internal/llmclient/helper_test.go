package llmclient

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/genai"

	"github.com/xkilldash9x/vistest/api/schemas"
	"github.com/xkilldash9x/vistest/internal/config"
)

// MockGenerator is a mock implementation of contentGenerator.
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	args := m.Called(ctx, model, contents, cfg)
	resp, _ := args.Get(0).(*genai.GenerateContentResponse)
	return resp, args.Error(1)
}

type requestObservation struct {
	status       string
	promptTokens int
	outputTokens int
}

type fakeRequestRecorder struct {
	mu  sync.Mutex
	obs []requestObservation
}

func (r *fakeRequestRecorder) LLMRequest(_, status string, _ time.Duration, promptTokens, outputTokens int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obs = append(r.obs, requestObservation{status, promptTokens, outputTokens})
}

func (r *fakeRequestRecorder) statuses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.obs))
	for _, o := range r.obs {
		out = append(out, o.status)
	}
	return out
}

// getValidLLMConfig returns a valid LLMModelConfig for testing purposes.
func getValidLLMConfig() config.LLMModelConfig {
	return config.LLMModelConfig{
		Provider:    config.ProviderGemini,
		APIKey:      "test-api-key",
		Model:       "test-model",
		APITimeout:  5 * time.Second,
		Temperature: 0.7,
		TopP:        0.9,
		TopK:        50,
		MaxTokens:   1024,
		Burst:       10,
		MaxRetries:  3,
	}
}

// setupClient builds a client over a mock generator with an instant backoff
// and an observed logger.
func setupClient(t *testing.T, cfg config.LLMModelConfig) (*GeminiClient, *MockGenerator, *fakeRequestRecorder, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	gen := new(MockGenerator)
	rec := &fakeRequestRecorder{}
	client := newGeminiClient(gen, cfg, zap.New(core), WithRequestRecorder(rec))
	client.newBackOff = instantBackOff
	return client, gen, rec, logs
}

func instantBackOff() backoff.BackOff { return &backoff.ZeroBackOff{} }

func callResponse(text string, calls ...*genai.FunctionCall) *genai.GenerateContentResponse {
	var parts []*genai.Part
	if text != "" {
		parts = append(parts, &genai.Part{Text: text})
	}
	for _, c := range calls {
		parts = append(parts, &genai.Part{FunctionCall: c})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Role: roleModel, Parts: parts},
			FinishReason: genai.FinishReasonStop,
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     100,
			CandidatesTokenCount: 20,
			TotalTokenCount:      120,
		},
	}
}

func seedRequest() schemas.ConverseRequest {
	return schemas.ConverseRequest{
		Transcript: []schemas.TranscriptEntry{{Role: schemas.RoleUser, Text: "log in", Image: []byte{0xFF, 0xD8}}},
		Tools: []schemas.ToolSpec{{
			Name:        schemas.ToolFinish,
			Description: "finish",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"success": map[string]any{"type": "boolean"},
					"message": map[string]any{"type": "string"},
				},
				"required": []any{"success", "message"},
			},
		}},
		MaxSteps: 10,
	}
}
