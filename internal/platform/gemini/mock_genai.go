package gemini

import (
	"context"
	"sync"

	"google.golang.org/genai"
)

// GenerateRequest records one call made to MockModels
type GenerateRequest struct {
	Model    string
	Contents []*genai.Content
	Config   *genai.GenerateContentConfig
}

// MockModels stands in for the genai Models service in tests
type MockModels struct {
	mu sync.Mutex

	// Response is returned when Err is nil
	Response *genai.GenerateContentResponse
	// Err is returned instead of Response when set
	Err error
	// GenerateFn overrides Response and Err when set
	GenerateFn func(ctx context.Context, req GenerateRequest) (*genai.GenerateContentResponse, error)

	requests []GenerateRequest
}

// NewMockModels returns a mock that answers every call with text
func NewMockModels(text string) *MockModels {
	return &MockModels{Response: TextResponse(text)}
}

// GenerateContent records the request and returns the configured result
func (m *MockModels) GenerateContent(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	req := GenerateRequest{Model: model, Contents: contents, Config: config}

	m.mu.Lock()
	m.requests = append(m.requests, req)
	fn, resp, err := m.GenerateFn, m.Response, m.Err
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Requests returns the calls recorded so far
func (m *MockModels) Requests() []GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]GenerateRequest(nil), m.requests...)
}

// TextResponse builds a single-candidate response carrying text
func TextResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: text}},
			},
			FinishReason: genai.FinishReasonStop,
		}},
	}
}
