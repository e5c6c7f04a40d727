package collection

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckfoundry/cardforge/internal/domain"
)

func mustCard(t *testing.T, question, answer string, cardType domain.CardType, source string) *domain.Flashcard {
	t.Helper()
	card, err := domain.NewFlashcard(question, answer, cardType, source)
	require.NoError(t, err)
	return card
}

func TestAddAndGet(t *testing.T) {
	t.Parallel()

	c := New()
	card := mustCard(t, "What is DNA?", "Deoxyribonucleic acid.", domain.CardTypeQA, "bio.txt")

	require.NoError(t, c.Add(card))
	assert.Equal(t, 1, c.Len())

	got, err := c.Get(card.ID)
	require.NoError(t, err)
	assert.Equal(t, card.Question, got.Question)
	assert.Equal(t, card.Answer, got.Answer)

	_, err = c.Get(uuid.New())
	assert.ErrorIs(t, err, ErrCardNotFound)
}

func TestAddRejectsNil(t *testing.T) {
	t.Parallel()

	c := New()
	assert.ErrorIs(t, c.Add(nil), ErrNilCard)
}

func TestAddValidates(t *testing.T) {
	t.Parallel()

	c := New()
	broken := &domain.Flashcard{ID: uuid.New(), Question: "", Answer: "A", Type: domain.CardTypeQA}

	assert.ErrorIs(t, c.Add(broken), domain.ErrCardQuestionEmpty)
	assert.Equal(t, 0, c.Len())
}

func TestAddDuplicateIDPanics(t *testing.T) {
	t.Parallel()

	c := New()
	card := mustCard(t, "Q", "A", domain.CardTypeQA, "notes.txt")
	require.NoError(t, c.Add(card))

	assert.Panics(t, func() { _ = c.Add(card) })
}

func TestAddStoresCopy(t *testing.T) {
	t.Parallel()

	c := New()
	card := mustCard(t, "Original question", "A", domain.CardTypeQA, "notes.txt")
	require.NoError(t, c.Add(card))

	card.Question = "mutated after add"

	got, err := c.Get(card.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original question", got.Question)
}

func TestAddAll(t *testing.T) {
	t.Parallel()

	c := New()
	cards := []*domain.Flashcard{
		mustCard(t, "Q1", "A1", domain.CardTypeQA, "notes.txt"),
		mustCard(t, "Q2", "A2", domain.CardTypeQA, "notes.txt"),
		mustCard(t, "Q3", "A3", domain.CardTypeQA, "notes.txt"),
	}

	n, err := c.AddAll(cards)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, c.Len())
}

func TestAddAllStopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	c := New()
	cards := []*domain.Flashcard{
		mustCard(t, "Q1", "A1", domain.CardTypeQA, "notes.txt"),
		{ID: uuid.New(), Question: "Q2", Answer: "", Type: domain.CardTypeQA},
		mustCard(t, "Q3", "A3", domain.CardTypeQA, "notes.txt"),
	}

	n, err := c.AddAll(cards)
	require.ErrorIs(t, err, domain.ErrCardAnswerEmpty)
	assert.Contains(t, err.Error(), "card 2 of 3")
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, c.Len())
}

func TestEdit(t *testing.T) {
	t.Parallel()

	c := New()
	card := mustCard(t, "Old question", "Old answer", domain.CardTypeQA, "notes.txt")
	require.NoError(t, c.Add(card))

	require.NoError(t, c.Edit(card.ID, "New question", "New answer"))

	got, err := c.Get(card.ID)
	require.NoError(t, err)
	assert.Equal(t, "New question", got.Question)
	assert.Equal(t, "New answer", got.Answer)
	assert.Equal(t, card.CreatedAt, got.CreatedAt, "editing must not touch the creation timestamp")
}

func TestEditValidationFailureLeavesCardUnchanged(t *testing.T) {
	t.Parallel()

	c := New()
	card := mustCard(t, "Question", "Answer", domain.CardTypeQA, "notes.txt")
	require.NoError(t, c.Add(card))

	err := c.Edit(card.ID, "New question", "  ")
	require.ErrorIs(t, err, domain.ErrCardAnswerEmpty)

	got, gerr := c.Get(card.ID)
	require.NoError(t, gerr)
	assert.Equal(t, "Question", got.Question)
	assert.Equal(t, "Answer", got.Answer)
}

func TestEditClozeKeepsMarkerInvariant(t *testing.T) {
	t.Parallel()

	c := New()
	card := mustCard(t, "Water boils at {{c1::100}} degrees.", "100", domain.CardTypeCloze, "notes.txt")
	require.NoError(t, c.Add(card))

	err := c.Edit(card.ID, "Water boils at one hundred degrees.", "100")
	assert.ErrorIs(t, err, domain.ErrClozeMarkerMissing)
}

func TestEditNotFound(t *testing.T) {
	t.Parallel()

	c := New()
	assert.ErrorIs(t, c.Edit(uuid.New(), "Q", "A"), ErrCardNotFound)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	c := New()
	card := mustCard(t, "Q", "A", domain.CardTypeQA, "notes.txt")
	require.NoError(t, c.Add(card))

	require.NoError(t, c.Delete(card.ID))
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.List())

	assert.ErrorIs(t, c.Delete(card.ID), ErrCardNotFound)
}

func TestListInsertionOrder(t *testing.T) {
	t.Parallel()

	c := New()
	first := mustCard(t, "First", "A", domain.CardTypeQA, "notes.txt")
	second := mustCard(t, "Second", "A", domain.CardTypeQA, "notes.txt")
	third := mustCard(t, "Third", "A", domain.CardTypeQA, "notes.txt")
	for _, card := range []*domain.Flashcard{first, second, third} {
		require.NoError(t, c.Add(card))
	}

	listed := c.List()
	require.Len(t, listed, 3)
	assert.Equal(t, "First", listed[0].Question)
	assert.Equal(t, "Second", listed[1].Question)
	assert.Equal(t, "Third", listed[2].Question)

	require.NoError(t, c.Delete(second.ID))

	listed = c.List()
	require.Len(t, listed, 2)
	assert.Equal(t, "First", listed[0].Question)
	assert.Equal(t, "Third", listed[1].Question)
}

func TestListReturnsCopies(t *testing.T) {
	t.Parallel()

	c := New()
	card := mustCard(t, "Question", "Answer", domain.CardTypeQA, "notes.txt")
	require.NoError(t, c.Add(card))

	listed := c.List()
	listed[0].Question = "mutated"

	got, err := c.Get(card.ID)
	require.NoError(t, err)
	assert.Equal(t, "Question", got.Question)
}

func TestClear(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, c.Add(mustCard(t, "Q1", "A", domain.CardTypeQA, "notes.txt")))
	require.NoError(t, c.Add(mustCard(t, "Q2", "A", domain.CardTypeQA, "notes.txt")))

	assert.Equal(t, 2, c.Clear())
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.List())
}

func TestStatistics(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, c.Add(mustCard(t, "Q1", "A", domain.CardTypeQA, "bio.pdf")))
	require.NoError(t, c.Add(mustCard(t, "Q2", "A", domain.CardTypeQA, "bio.pdf")))
	require.NoError(t, c.Add(mustCard(t, "{{c1::Cloze}} text.", "Cloze", domain.CardTypeCloze, domain.SourceManual)))

	stats := c.Statistics()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.ByType[domain.CardTypeQA])
	assert.Equal(t, 1, stats.ByType[domain.CardTypeCloze])
	assert.Equal(t, 2, stats.BySource["bio.pdf"])
	assert.Equal(t, 1, stats.BySource[domain.SourceManual])
	assert.Equal(t, 0, stats.Invalid)
}

func TestStatisticsRecomputesValidation(t *testing.T) {
	t.Parallel()

	c := New()
	card := mustCard(t, "Q", "A", domain.CardTypeQA, "notes.txt")
	require.NoError(t, c.Add(card))

	// Corrupt the stored card directly, bypassing Edit. Statistics must
	// catch this because it revalidates instead of trusting Add.
	c.mu.Lock()
	stored := c.cards[card.ID]
	stored.Answer = ""
	c.cards[card.ID] = stored
	c.mu.Unlock()

	stats := c.Statistics()
	assert.Equal(t, 1, stats.Invalid)
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := New()
	var wg sync.WaitGroup

	for g := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 10 {
				card, err := domain.NewFlashcard(
					fmt.Sprintf("Question %d-%d", g, i), "Answer", domain.CardTypeQA, "notes.txt")
				if err != nil {
					t.Error(err)
					return
				}
				if err := c.Add(card); err != nil {
					t.Error(err)
					return
				}
				c.List()
				c.Statistics()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, c.Len())
}
