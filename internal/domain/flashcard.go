package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CardType identifies the review style of a flashcard.
type CardType string

// Supported card types.
const (
	// CardTypeQA is a classic question/answer card.
	CardTypeQA CardType = "qa"

	// CardTypeCloze is a fill-in-the-blank card whose text embeds at least
	// one cloze deletion marker such as {{c1::Berlin}}.
	CardTypeCloze CardType = "cloze"
)

// SourceManual labels flashcards added by hand rather than generated
// from an uploaded document.
const SourceManual = "manual"

// Flashcard-specific validation errors.
var (
	// ErrCardIDEmpty is returned when a flashcard ID is empty or nil.
	ErrCardIDEmpty = errors.New("flashcard ID cannot be empty")

	// ErrCardQuestionEmpty is returned when a question is empty after trimming.
	ErrCardQuestionEmpty = errors.New("flashcard question cannot be empty")

	// ErrCardAnswerEmpty is returned when an answer is empty after trimming.
	ErrCardAnswerEmpty = errors.New("flashcard answer cannot be empty")

	// ErrCardTypeInvalid is returned when the card type is not a known CardType.
	ErrCardTypeInvalid = errors.New("invalid flashcard type")

	// ErrClozeMarkerMissing is returned when a cloze card carries no cloze
	// deletion marker in either its question or its answer.
	ErrClozeMarkerMissing = errors.New("cloze flashcard must contain a {{c1::...}} marker")
)

// clozeMarker matches Anki-style cloze deletions: {{c1::...}}, {{c2::...}}, etc.
var clozeMarker = regexp.MustCompile(`\{\{c\d+::`)

// Flashcard is a single study card produced from extracted document text or
// added manually. Once inside a Collection it is owned by that collection and
// mutated only through explicit edit operations that re-run validation.
type Flashcard struct {
	ID         uuid.UUID `json:"id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Type       CardType  `json:"card_type"`
	SourceFile string    `json:"source_file,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewFlashcard creates a Flashcard with a generated ID and a UTC creation
// timestamp. Question and answer are stored trimmed. Returns an error if
// validation fails.
func NewFlashcard(question, answer string, cardType CardType, sourceFile string) (*Flashcard, error) {
	card := &Flashcard{
		ID:         uuid.New(),
		Question:   strings.TrimSpace(question),
		Answer:     strings.TrimSpace(answer),
		Type:       cardType,
		SourceFile: sourceFile,
		CreatedAt:  time.Now().UTC(),
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks the flashcard invariants: non-nil ID, non-blank question
// and answer, a known card type, and a cloze marker for cloze cards.
func (c *Flashcard) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if strings.TrimSpace(c.Question) == "" {
		return ErrCardQuestionEmpty
	}

	if strings.TrimSpace(c.Answer) == "" {
		return ErrCardAnswerEmpty
	}

	if !isValidCardType(c.Type) {
		return ErrCardTypeInvalid
	}

	if c.Type == CardTypeCloze && !HasClozeMarker(c.Question) && !HasClozeMarker(c.Answer) {
		return ErrClozeMarkerMissing
	}

	return nil
}

// UpdateContent replaces the question and answer, re-validating against the
// card's existing type. On validation failure the card is left unchanged.
// The creation timestamp is never touched.
func (c *Flashcard) UpdateContent(question, answer string) error {
	origQuestion, origAnswer := c.Question, c.Answer
	c.Question = strings.TrimSpace(question)
	c.Answer = strings.TrimSpace(answer)

	if err := c.Validate(); err != nil {
		c.Question, c.Answer = origQuestion, origAnswer
		return err
	}

	return nil
}

// HasClozeMarker reports whether text contains a cloze deletion marker.
func HasClozeMarker(text string) bool {
	return clozeMarker.MatchString(text)
}

// ParseCardType converts a raw string into a CardType.
// Returns ErrCardTypeInvalid for anything other than "qa" or "cloze".
func ParseCardType(raw string) (CardType, error) {
	switch CardType(strings.ToLower(strings.TrimSpace(raw))) {
	case CardTypeQA:
		return CardTypeQA, nil
	case CardTypeCloze:
		return CardTypeCloze, nil
	default:
		return "", ErrCardTypeInvalid
	}
}

// isValidCardType checks if the given type is a known CardType.
func isValidCardType(t CardType) bool {
	switch t {
	case CardTypeQA, CardTypeCloze:
		return true
	default:
		return false
	}
}
