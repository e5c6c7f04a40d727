package generation

import (
	"context"

	"github.com/deckfoundry/cardforge/internal/domain"
)

// Generator is the boundary through which the application layers turn
// extracted text into flashcards. *Gateway is the production
// implementation; tests substitute scripted fakes.
type Generator interface {
	// Generate produces flashcards for every chunk of the request's text
	// segments. The returned result is non-nil even on error: warnings
	// record degraded chunks, and the error return is reserved for
	// invalid requests and runs that produce no cards at all.
	Generate(ctx context.Context, req Request) (*domain.GenerationResult, error)
}

var _ Generator = (*Gateway)(nil)
