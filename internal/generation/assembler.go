package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/deckfoundry/cardforge/internal/domain"
)

// cardPayload is the raw card record shape the model returns.
type cardPayload struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Type     string `json:"type"`
}

type responsePayload struct {
	Cards []cardPayload `json:"cards"`
}

// parsePayload decodes a model response into card records. Markdown
// fences around the JSON body are tolerated, as is a bare top-level
// array instead of the documented object shape.
func parsePayload(raw string) ([]cardPayload, error) {
	body := stripFences(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty response body", ErrInvalidResponse)
	}

	var payload responsePayload
	if err := json.Unmarshal([]byte(body), &payload); err == nil {
		return payload.Cards, nil
	}

	var cards []cardPayload
	if err := json.Unmarshal([]byte(body), &cards); err == nil {
		return cards, nil
	}

	return nil, fmt.Errorf("%w: not valid JSON: %s", ErrInvalidResponse, truncate(body, 60))
}

// stripFences removes a surrounding markdown code fence, with or
// without a language tag, and trims whitespace.
func stripFences(raw string) string {
	body := strings.TrimSpace(raw)
	if !strings.HasPrefix(body, "```") {
		return body
	}
	body = strings.TrimPrefix(body, "```")
	if idx := strings.Index(body, "\n"); idx >= 0 {
		// Drop the language tag line, e.g. "json".
		body = body[idx+1:]
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}

// assembleCards converts raw card records into validated flashcards.
// Records that fail validation are dropped, each with a warning naming
// the reason and a snippet of the offending content.
func assembleCards(records []cardPayload, sourceFile string) ([]*domain.Flashcard, []string) {
	cards := make([]*domain.Flashcard, 0, len(records))
	var warnings []string

	for _, rec := range records {
		rawType := rec.Type
		if strings.TrimSpace(rawType) == "" {
			// Models occasionally omit the type field on plain cards.
			rawType = string(domain.CardTypeQA)
		}

		cardType, err := domain.ParseCardType(rawType)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("card dropped (%v): type %q, question %q",
				err, rec.Type, truncate(rec.Question, 40)))
			continue
		}

		card, err := domain.NewFlashcard(rec.Question, rec.Answer, cardType, sourceFile)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("card dropped (%v): question %q",
				err, truncate(rec.Question, 40)))
			continue
		}
		cards = append(cards, card)
	}

	return cards, warnings
}

// truncate shortens s to at most n runes, appending an ellipsis when it
// cuts.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
