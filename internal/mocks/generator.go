package mocks

import (
	"context"
	"sync"

	"github.com/studybuddy/studybuddy-api/internal/domain"
	"github.com/studybuddy/studybuddy-api/internal/generation"
)

// MockGenerator implements generation.Generator for testing
type MockGenerator struct {
	// GenerateCardsFn allows test cases to mock the GenerateCards behavior
	GenerateCardsFn func(ctx context.Context, text string, maxCards int) ([]domain.CardDraft, error)

	// Default response values
	Drafts []domain.CardDraft
	Err    error

	mu       sync.Mutex
	texts    []string
	maxCards []int
}

var _ generation.Generator = (*MockGenerator)(nil)

// GenerateCards implements the generation.Generator interface
func (m *MockGenerator) GenerateCards(ctx context.Context, text string, maxCards int) ([]domain.CardDraft, error) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.maxCards = append(m.maxCards, maxCards)
	m.mu.Unlock()

	if m.GenerateCardsFn != nil {
		return m.GenerateCardsFn(ctx, text, maxCards)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Drafts, nil
}

// CallCount returns how many times GenerateCards was called.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.texts)
}

// LastCall returns the arguments of the most recent call.
func (m *MockGenerator) LastCall() (text string, maxCards int, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.texts) == 0 {
		return "", 0, false
	}
	n := len(m.texts) - 1
	return m.texts[n], m.maxCards[n], true
}
