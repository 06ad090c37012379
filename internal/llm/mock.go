package llm

import (
	"context"
	"fmt"
)

// MockClient implements Client for testing. Responses are returned in order;
// when the script runs out the last entry repeats. Set Err to make every call
// fail instead.
type MockClient struct {
	Responses []string
	Err       error

	calls    int
	Requests []Request // every request received, for assertions
}

// Complete returns the next scripted response.
func (m *MockClient) Complete(_ context.Context, req Request) (*Response, error) {
	m.calls++
	m.Requests = append(m.Requests, req)

	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Responses) == 0 {
		return nil, fmt.Errorf("mock client has no scripted responses")
	}

	idx := m.calls - 1
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	return &Response{Content: m.Responses[idx]}, nil
}

// Model returns a fixed mock model name.
func (m *MockClient) Model() string {
	return "mock-model"
}

// Calls returns how many completions have been requested.
func (m *MockClient) Calls() int {
	return m.calls
}
