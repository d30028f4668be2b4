package mocks

import (
	"context"
	"sync"

	"github.com/maximus-ms/enbot/internal/generation"
)

// MockGenerator implements generation.Generator for testing.
type MockGenerator struct {
	// GenerateWordContentFn overrides the generation behavior.
	GenerateWordContentFn func(ctx context.Context, word, targetLanguage, nativeLanguage string) (*generation.WordContent, error)

	// Default response values used when GenerateWordContentFn is nil.
	Content *generation.WordContent
	Err     error

	// Call tracking for verification.
	mu    sync.Mutex
	calls []string
}

// GenerateWordContent implements the generation.Generator interface.
func (m *MockGenerator) GenerateWordContent(
	ctx context.Context,
	word, targetLanguage, nativeLanguage string,
) (*generation.WordContent, error) {
	m.mu.Lock()
	m.calls = append(m.calls, word)
	m.mu.Unlock()

	if m.GenerateWordContentFn != nil {
		return m.GenerateWordContentFn(ctx, word, targetLanguage, nativeLanguage)
	}
	return m.Content, m.Err
}

// Calls returns the words passed to GenerateWordContent, in order.
func (m *MockGenerator) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
