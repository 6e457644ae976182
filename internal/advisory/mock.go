package advisory

import (
	"context"
	"sync"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Text string
	Err  error
}

// MockCall records one GenerateText invocation.
type MockCall struct {
	Model  string
	Prompt string
}

// MockProvider is a deterministic Provider for testing. It returns canned
// responses in FIFO order and records every call.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []MockCall
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// GenerateText returns the next canned response.
func (m *MockProvider) GenerateText(_ context.Context, model, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{Model: model, Prompt: prompt})

	if len(m.responses) == 0 {
		return "", &ServiceError{Models: []string{model}}
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	if resp.Err != nil {
		return "", resp.Err
	}
	return resp.Text, nil
}

// CallCount returns the number of calls made so far.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
