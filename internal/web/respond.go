package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/deckfoundry/cardforge/internal/collection"
	"github.com/deckfoundry/cardforge/internal/domain"
	"github.com/deckfoundry/cardforge/internal/export"
	"github.com/deckfoundry/cardforge/internal/extract"
	"github.com/deckfoundry/cardforge/internal/generation"
	"github.com/deckfoundry/cardforge/internal/llm"
	"github.com/deckfoundry/cardforge/internal/redact"
)

// ErrorResponse is the standard error body. The request ID lets a
// client report an error that can be correlated with the server logs.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// RespondWithJSON writes a JSON response with the given status code.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode JSON response",
			slog.String("error", err.Error()),
			slog.String("path", r.URL.Path))
	}
}

// RespondWithError writes a JSON error body with the given status code
// and message.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	RespondWithJSON(w, r, status, ErrorResponse{
		Error:     message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// respondMappedError maps an internal error to a status code and safe
// message, logs the full error server-side, and sends only the safe
// message to the client.
func respondMappedError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusForError(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.LogAttrs(r.Context(), level, "Request failed",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.Int("status", status),
		slog.String("error", redact.Error(err)))

	RespondWithError(w, r, status, safeMessage(err))
}

// statusForError maps internal errors to HTTP status codes without
// leaking error internals to clients.
func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound),
		errors.Is(err, collection.ErrCardNotFound):
		return http.StatusNotFound

	case errors.Is(err, extract.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType

	case errors.Is(err, extract.ErrFileTooLarge),
		errors.Is(err, extract.ErrArchiveTooLarge),
		errors.Is(err, extract.ErrTooManyFiles):
		return http.StatusRequestEntityTooLarge

	case errors.Is(err, extract.ErrNoContent),
		errors.Is(err, generation.ErrEmptyInput),
		errors.Is(err, generation.ErrUnsupportedLanguage),
		errors.Is(err, generation.ErrUnsupportedContentType),
		errors.Is(err, llm.ErrUnknownModel),
		errors.Is(err, domain.ErrCardQuestionEmpty),
		errors.Is(err, domain.ErrCardAnswerEmpty),
		errors.Is(err, domain.ErrCardTypeInvalid),
		errors.Is(err, domain.ErrClozeMarkerMissing):
		return http.StatusBadRequest

	case errors.Is(err, export.ErrNoCards):
		return http.StatusConflict

	// Provider-side failures are upstream errors from the client's
	// point of view, including rejected server credentials.
	case errors.Is(err, llm.ErrAuth),
		errors.Is(err, generation.ErrGenerationFailed):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// safeMessage returns a client-facing message for an internal error.
func safeMessage(err error) string {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return "Session not found or expired"
	case errors.Is(err, collection.ErrCardNotFound):
		return "Card not found"
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return "Unsupported file format"
	case errors.Is(err, extract.ErrFileTooLarge):
		return "File exceeds the size limit"
	case errors.Is(err, extract.ErrArchiveTooLarge):
		return "Archive exceeds the size limit"
	case errors.Is(err, extract.ErrTooManyFiles):
		return "Archive contains too many files"
	case errors.Is(err, extract.ErrNoContent):
		return "No text could be extracted from the upload"
	case errors.Is(err, generation.ErrEmptyInput):
		return "The upload contained no usable text"
	case errors.Is(err, generation.ErrUnsupportedLanguage):
		return "Unsupported target language"
	case errors.Is(err, generation.ErrUnsupportedContentType):
		return "Unsupported content type"
	case errors.Is(err, llm.ErrUnknownModel):
		return "Unknown model"
	case errors.Is(err, domain.ErrCardQuestionEmpty):
		return "Card question cannot be empty"
	case errors.Is(err, domain.ErrCardAnswerEmpty):
		return "Card answer cannot be empty"
	case errors.Is(err, domain.ErrCardTypeInvalid):
		return "Card type must be qa or cloze"
	case errors.Is(err, domain.ErrClozeMarkerMissing):
		return "Cloze cards must contain a {{c1::...}} marker"
	case errors.Is(err, export.ErrNoCards):
		return "The collection is empty"
	case errors.Is(err, llm.ErrAuth):
		return "The language model provider rejected the server credentials"
	case errors.Is(err, generation.ErrGenerationFailed):
		return "Card generation failed"
	default:
		return "An unexpected error occurred"
	}
}
