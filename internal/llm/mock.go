package llm

import (
	"context"
	"errors"
	"sync"
)

// MockResponse is a canned response for the MockCompleter.
type MockResponse struct {
	Text string
	Err  error
}

// MockCompleter is a deterministic Completer for testing. It returns canned
// responses in FIFO order and records every prompt it receives.
type MockCompleter struct {
	mu        sync.Mutex
	responses []MockResponse
	Prompts   []string
}

// NewMockCompleter creates a MockCompleter with the given canned responses.
func NewMockCompleter(responses ...MockResponse) *MockCompleter {
	return &MockCompleter{responses: responses}
}

// Complete returns the next canned response, or a TransportError when the
// queue is exhausted.
func (m *MockCompleter) Complete(_ context.Context, prompt string, _ float32) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, prompt)

	if len(m.responses) == 0 {
		return "", &TransportError{Err: errors.New("mock: no responses queued")}
	}

	resp := m.responses[0]
	m.responses = m.responses[1:]

	if resp.Err != nil {
		return "", resp.Err
	}
	return resp.Text, nil
}

// Queue appends additional canned responses.
func (m *MockCompleter) Queue(responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
}
