package llm

import (
	"context"
	"sync"
)

// MockOracle is a configurable Oracle for tests.
// Set SearchFunc to control behavior; otherwise Blocks and Err are returned.
type MockOracle struct {
	SearchFunc func(ctx context.Context, prompt string) ([]Block, error)
	Blocks     []Block
	Err        error
	ModelName  string

	mu      sync.Mutex
	prompts []string
}

var _ Oracle = (*MockOracle)(nil)

// NewMockOracle returns a mock that answers with a single text block.
func NewMockOracle(text string) *MockOracle {
	return &MockOracle{
		Blocks:    []Block{{Type: BlockTypeText, Text: text}},
		ModelName: "mock-model",
	}
}

// Search implements Oracle.
func (m *MockOracle) Search(ctx context.Context, prompt string) ([]Block, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, prompt)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Blocks, nil
}

// Model implements Oracle.
func (m *MockOracle) Model() string {
	return m.ModelName
}

// Prompts returns every prompt received so far.
func (m *MockOracle) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// Calls returns the number of Search invocations.
func (m *MockOracle) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}
