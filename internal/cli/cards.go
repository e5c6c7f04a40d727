package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/deckfoundry/cardforge/internal/domain"
)

// parseIndex converts the first argument into a 1-based card number.
func parseIndex(args []string) (int, error) {
	if len(args) == 0 {
		return 0, errors.New("missing card number")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid card number %q", args[0])
	}
	return n, nil
}

// cardAt resolves a 1-based list index against the current collection.
func (a *App) cardAt(n int) (domain.Flashcard, error) {
	cards := a.pipeline.Collection().List()
	if n > len(cards) {
		return domain.Flashcard{}, fmt.Errorf("card %d does not exist (%d cards in collection)", n, len(cards))
	}
	return cards[n-1], nil
}

// List prints every card as a numbered one-liner.
func (a *App) List(_ context.Context) error {
	cards := a.pipeline.Collection().List()
	if len(cards) == 0 {
		printlnFn("No cards yet. Use load <path> to generate some.")
		return nil
	}
	for i, card := range cards {
		printlnFn(fmt.Sprintf("%3d. [%-5s] %s", i+1, card.Type, oneLine(card.Question, 70)))
	}
	return nil
}

// Show prints one card in full.
func (a *App) Show(_ context.Context, args []string) error {
	n, err := parseIndex(args)
	if err != nil {
		printlnFn(fmt.Sprintf("%v. Usage: show <n>", err))
		return err
	}
	card, err := a.cardAt(n)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}

	printlnFn(fmt.Sprintf("Card %d (%s)", n, card.Type))
	printlnFn("Question:", card.Question)
	printlnFn("Answer:  ", card.Answer)
	if card.SourceFile != "" {
		printlnFn("Source:  ", card.SourceFile)
	}
	printlnFn("Created: ", card.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}

// Add creates a card from interactive input.
func (a *App) Add(_ context.Context) error {
	question, err := GetSimpleText(a.reader, "Question (use {{c1::text}} for cloze deletions)", a.out)
	if err != nil {
		return err
	}
	answer, err := GetSimpleText(a.reader, "Answer", a.out)
	if err != nil {
		return err
	}
	rawType, err := GetSimpleText(a.reader, "Type (qa or cloze, empty for qa)", a.out)
	if err != nil {
		return err
	}
	if rawType == "" {
		rawType = string(domain.CardTypeQA)
	}

	cardType, err := domain.ParseCardType(rawType)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}

	card, err := domain.NewFlashcard(question, answer, cardType, domain.SourceManual)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	if err := a.pipeline.Collection().Add(card); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}

	printlnFn(fmt.Sprintf("Added card %d.", a.pipeline.Collection().Len()))
	return nil
}

// Edit replaces a card's question and answer. Empty input keeps the
// current value.
func (a *App) Edit(_ context.Context, args []string) error {
	n, err := parseIndex(args)
	if err != nil {
		printlnFn(fmt.Sprintf("%v. Usage: edit <n>", err))
		return err
	}
	card, err := a.cardAt(n)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}

	printlnFn("Editing card", n)
	printlnFn("Current question:", card.Question)
	question, err := GetSimpleText(a.reader, "New question (empty keeps current)", a.out)
	if err != nil {
		return err
	}
	if question == "" {
		question = card.Question
	}

	printlnFn("Current answer:", card.Answer)
	answer, err := GetSimpleText(a.reader, "New answer (empty keeps current)", a.out)
	if err != nil {
		return err
	}
	if answer == "" {
		answer = card.Answer
	}

	if err := a.pipeline.Collection().Edit(card.ID, question, answer); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	printlnFn(fmt.Sprintf("Card %d updated.", n))
	return nil
}

// Delete removes a card after confirmation.
func (a *App) Delete(_ context.Context, args []string) error {
	n, err := parseIndex(args)
	if err != nil {
		printlnFn(fmt.Sprintf("%v. Usage: del <n>", err))
		return err
	}
	card, err := a.cardAt(n)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}

	if !Confirm(a.reader, fmt.Sprintf("Delete card %d (%s)?", n, oneLine(card.Question, 40)), a.out) {
		printlnFn("Kept.")
		return nil
	}
	if err := a.pipeline.Collection().Delete(card.ID); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	printlnFn(fmt.Sprintf("Deleted card %d (%d left).", n, a.pipeline.Collection().Len()))
	return nil
}

// oneLine flattens and shortens text for list display.
func oneLine(s string, n int) string {
	flat := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' {
			r = ' '
		}
		flat = append(flat, r)
	}
	if len(flat) <= n {
		return string(flat)
	}
	return string(flat[:n]) + "..."
}
