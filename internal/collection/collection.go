// Package collection holds the in-memory working set of flashcards for
// one session. All access goes through a Collection, which guards its
// state with a read-write mutex and hands out copies so callers can
// never mutate stored cards except through Edit.
package collection

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/deckfoundry/cardforge/internal/domain"
)

// Common errors returned by the collection package
var (
	// ErrCardNotFound is returned when no card with the given ID exists
	ErrCardNotFound = errors.New("flashcard not found in collection")

	// ErrNilCard is returned when a nil card is added to the collection
	ErrNilCard = errors.New("cannot add nil flashcard to collection")
)

// Collection is a thread-safe, insertion-ordered set of flashcards
// keyed by card ID. It is the single owner of its cards: Add stores a
// copy, and List and Get return copies.
type Collection struct {
	mu    sync.RWMutex
	cards map[uuid.UUID]domain.Flashcard
	order []uuid.UUID
}

// New creates an empty Collection.
func New() *Collection {
	return &Collection{
		cards: make(map[uuid.UUID]domain.Flashcard),
	}
}

// Add validates and stores a copy of the card. Adding a card whose ID
// is already present panics: IDs are generated, so a collision means
// corrupted program state, not bad input.
func (c *Collection) Add(card *domain.Flashcard) error {
	if card == nil {
		return ErrNilCard
	}
	if err := card.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.cards[card.ID]; exists {
		panic(fmt.Sprintf("collection: duplicate flashcard ID %s", card.ID))
	}
	c.cards[card.ID] = *card
	c.order = append(c.order, card.ID)
	return nil
}

// AddAll stores copies of all cards, stopping at the first failure.
// It returns the number of cards added.
func (c *Collection) AddAll(cards []*domain.Flashcard) (int, error) {
	for i, card := range cards {
		if err := c.Add(card); err != nil {
			return i, fmt.Errorf("card %d of %d: %w", i+1, len(cards), err)
		}
	}
	return len(cards), nil
}

// Get returns a copy of the card with the given ID.
func (c *Collection) Get(id uuid.UUID) (domain.Flashcard, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	card, ok := c.cards[id]
	if !ok {
		return domain.Flashcard{}, fmt.Errorf("%w: %s", ErrCardNotFound, id)
	}
	return card, nil
}

// Edit replaces the question and answer of the card with the given ID,
// re-running validation against the card's type. On validation failure
// the stored card is unchanged and the validation error is returned.
func (c *Collection) Edit(id uuid.UUID, question, answer string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	card, ok := c.cards[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCardNotFound, id)
	}
	if err := card.UpdateContent(question, answer); err != nil {
		return err
	}
	c.cards[id] = card
	return nil
}

// Delete removes the card with the given ID.
func (c *Collection) Delete(id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.cards[id]; !ok {
		return fmt.Errorf("%w: %s", ErrCardNotFound, id)
	}
	delete(c.cards, id)
	c.order = lo.Without(c.order, id)
	return nil
}

// List returns copies of all cards in insertion order.
func (c *Collection) List() []domain.Flashcard {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return lo.Map(c.order, func(id uuid.UUID, _ int) domain.Flashcard {
		return c.cards[id]
	})
}

// Len returns the number of cards in the collection.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cards)
}

// Clear removes every card, returning how many were removed.
func (c *Collection) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.cards)
	c.cards = make(map[uuid.UUID]domain.Flashcard)
	c.order = nil
	return n
}

// Stats summarizes the current collection contents.
type Stats struct {
	Total    int                     `json:"total"`
	ByType   map[domain.CardType]int `json:"by_type"`
	BySource map[string]int          `json:"by_source"`
	Invalid  int                     `json:"invalid"`
}

// Statistics recomputes collection statistics from the live cards. The
// invalid count re-runs validation on every card rather than trusting
// the checks done at insertion, so invariant violations introduced by
// bugs show up here instead of hiding.
func (c *Collection) Statistics() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cards := lo.Values(c.cards)
	return Stats{
		Total: len(cards),
		ByType: lo.CountValuesBy(cards, func(card domain.Flashcard) domain.CardType {
			return card.Type
		}),
		BySource: lo.CountValuesBy(cards, func(card domain.Flashcard) string {
			return card.SourceFile
		}),
		Invalid: lo.CountBy(cards, func(card domain.Flashcard) bool {
			return card.Validate() != nil
		}),
	}
}
