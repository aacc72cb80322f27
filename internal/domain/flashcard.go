package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/studybuddy/studybuddy-api/internal/domain/srs"
)

// MaxCardSideLength bounds the number of characters on each side of a card.
const MaxCardSideLength = 10000

// CardDraft is the user-supplied content of a card that does not exist yet.
type CardDraft struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Validate checks the draft at position index of a batch.
// Pass -1 when the draft is not part of a batch.
func (d CardDraft) Validate(index int) error {
	if err := validateSide(index, "front", d.Front); err != nil {
		return err
	}
	return validateSide(index, "back", d.Back)
}

func validateSide(index int, field, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return NewItemValidationError(index, field, "cannot be empty", ErrEmptyContent)
	}
	if utf8.RuneCountInString(trimmed) > MaxCardSideLength {
		return NewItemValidationError(index, field, "is too long", ErrContentTooLong)
	}
	return nil
}

// Flashcard is a question/answer pair owned by a single user, optionally
// attached to one of the user's documents, together with its review schedule.
type Flashcard struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	DocumentID *uuid.UUID
	Front      string
	Back       string
	State      srs.State
	// Version increases by one on every schedule write.
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewFlashcard creates a card from a draft with a fresh review schedule.
func NewFlashcard(userID uuid.UUID, documentID *uuid.UUID, draft CardDraft, now time.Time) (*Flashcard, error) {
	if userID == uuid.Nil {
		return nil, NewValidationError("user_id", "cannot be empty", ErrInvalidID)
	}
	if err := draft.Validate(-1); err != nil {
		return nil, err
	}
	return newFlashcard(userID, documentID, draft, now), nil
}

// NewFlashcards builds a batch of cards. Validation is all-or-nothing: the
// first invalid draft aborts the batch and its index is reported.
func NewFlashcards(userID uuid.UUID, documentID *uuid.UUID, drafts []CardDraft, now time.Time) ([]*Flashcard, error) {
	if userID == uuid.Nil {
		return nil, NewValidationError("user_id", "cannot be empty", ErrInvalidID)
	}
	if len(drafts) == 0 {
		return nil, NewValidationError("flashcards", "cannot be empty", ErrEmptyContent)
	}

	for i, draft := range drafts {
		if err := draft.Validate(i); err != nil {
			return nil, err
		}
	}

	cards := make([]*Flashcard, len(drafts))
	for i, draft := range drafts {
		cards[i] = newFlashcard(userID, documentID, draft, now)
	}
	return cards, nil
}

func newFlashcard(userID uuid.UUID, documentID *uuid.UUID, draft CardDraft, now time.Time) *Flashcard {
	var docID *uuid.UUID
	if documentID != nil {
		id := *documentID
		docID = &id
	}
	return &Flashcard{
		ID:         uuid.New(),
		UserID:     userID,
		DocumentID: docID,
		Front:      strings.TrimSpace(draft.Front),
		Back:       strings.TrimSpace(draft.Back),
		State:      srs.NewState(now),
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Validate checks the card's identity and content.
func (f *Flashcard) Validate() error {
	if f.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if f.UserID == uuid.Nil {
		return NewValidationError("user_id", "cannot be empty", ErrInvalidID)
	}
	if f.DocumentID != nil && *f.DocumentID == uuid.Nil {
		return NewValidationError("document_id", "has invalid format", ErrInvalidID)
	}
	if f.Version < 1 {
		return NewValidationError("version", "must be positive", nil)
	}
	return CardDraft{Front: f.Front, Back: f.Back}.Validate(-1)
}

// WithState returns a copy of the card carrying a new review state. The
// copy's version is one ahead of the receiver's, which is the version a
// storage write must expect to replace.
func (f *Flashcard) WithState(state srs.State, now time.Time) *Flashcard {
	updated := *f
	updated.State = state
	updated.Version = f.Version + 1
	updated.UpdatedAt = now
	return &updated
}

// BelongsTo reports whether the card is owned by userID.
func (f *Flashcard) BelongsTo(userID uuid.UUID) bool {
	return f.UserID == userID
}
