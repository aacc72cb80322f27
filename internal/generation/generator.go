package generation

import (
	"context"

	"github.com/studybuddy/studybuddy-api/internal/domain"
)

// MaxSourceTextLength bounds the text accepted for a single generation request.
const MaxSourceTextLength = 50000

// Generator turns study text into flashcard drafts.
type Generator interface {
	// GenerateCards returns at most maxCards drafts derived from text.
	// The drafts are not validated or persisted; callers feed them through
	// normal card creation.
	GenerateCards(ctx context.Context, text string, maxCards int) ([]domain.CardDraft, error)
}
