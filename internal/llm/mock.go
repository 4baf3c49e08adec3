package llm

import (
	"context"
	"sync"
)

// MockClient is a configurable Client for tests. Set the function fields to control behavior.
type MockClient struct {
	// GenerateJSONFunc is called by GenerateJSON. If nil, "[]" is returned.
	GenerateJSONFunc func(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// GenerateContentFunc is called by GenerateContent. If nil, "" is returned.
	GenerateContentFunc func(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	mu      sync.Mutex
	Prompts []string
}

var _ Client = (*MockClient)(nil)

// GenerateContent implements Client.
func (m *MockClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	m.record(prompt)
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, prompt, tier)
	}
	return "", nil
}

// GenerateJSON implements Client.
func (m *MockClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	m.record(prompt)
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, tier)
	}
	return "[]", nil
}

// Calls returns how many generation calls were made.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}

func (m *MockClient) record(prompt string) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()
}

// GetModel implements Client.
func (m *MockClient) GetModel(ModelTier) string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// Close implements Client.
func (m *MockClient) Close() error {
	return nil
}
