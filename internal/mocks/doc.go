// Package mocks provides hand-written test doubles for the service and
// generation interfaces.
//
// Every mock follows the same pattern: an optional function field per method,
// default return values used when the function is nil, and call tracking.
//
//	gen := &mocks.MockGenerator{Drafts: []domain.CardDraft{{Front: "q", Back: "a"}}}
//	svc, _ := service.NewFlashcardService(db, cards, nil, service.WithGenerator(gen))
//	...
//	assert.Equal(t, 1, gen.CallCount())
package mocks
