package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/deckfoundry/cardforge/internal/domain"
	"github.com/deckfoundry/cardforge/internal/export"
	"github.com/deckfoundry/cardforge/internal/llm"
	"github.com/deckfoundry/cardforge/internal/pipeline"
	"github.com/deckfoundry/cardforge/internal/redact"
)

var validate = validator.New()

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

type contextKey string

const sessionContextKey contextKey = "session"

// sessionFrom returns the session resolved by the sessionCtx middleware.
func sessionFrom(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey).(*Session)
	return sess
}

// Handler serves the flashcard API. Every card route is scoped to a
// session resolved from the URL.
type Handler struct {
	logger         *slog.Logger
	sessions       *SessionManager
	creds          llm.Credentials
	modelName      string
	maxUploadBytes int64
}

// NewHandler creates a Handler over the given session manager.
func NewHandler(logger *slog.Logger, sessions *SessionManager, creds llm.Credentials, modelName string, maxUploadBytes int64) (*Handler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if sessions == nil {
		return nil, errors.New("session manager cannot be nil")
	}
	if maxUploadBytes <= 0 {
		return nil, errors.New("max upload size must be positive")
	}

	return &Handler{
		logger:         logger.With(slog.String("component", "web")),
		sessions:       sessions,
		creds:          creds,
		modelName:      modelName,
		maxUploadBytes: maxUploadBytes,
	}, nil
}

// sessionCtx resolves the {sessionID} URL parameter into a live session
// and stores it on the request context.
func (h *Handler) sessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
		if err != nil {
			respondMappedError(w, r, h.logger, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionContextKey, sess)))
	})
}

// SessionResponse describes a session to the client.
type SessionResponse struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	TTLSeconds int       `json:"ttl_seconds"`
	CardCount  int       `json:"card_count"`
}

// CreateSession handles POST /api/sessions.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Create()
	if err != nil {
		respondMappedError(w, r, h.logger, err)
		return
	}
	RespondWithJSON(w, r, http.StatusCreated, h.sessionResponse(sess))
}

// GetSession handles GET /api/sessions/{sessionID}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, r, http.StatusOK, h.sessionResponse(sessionFrom(r.Context())))
}

// DeleteSession handles DELETE /api/sessions/{sessionID}.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(sessionFrom(r.Context()).ID); err != nil {
		respondMappedError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sessionResponse(sess *Session) SessionResponse {
	return SessionResponse{
		ID:         sess.ID,
		CreatedAt:  sess.createdAt,
		TTLSeconds: int(h.sessions.ttl / time.Second),
		CardCount:  sess.Pipeline.Collection().Len(),
	}
}

// UploadResponse reports the outcome of one document upload.
type UploadResponse struct {
	Files          int      `json:"files"`
	Chunks         int      `json:"chunks"`
	CardsAdded     int      `json:"cards_added"`
	CollectionSize int      `json:"collection_size"`
	Warnings       []string `json:"warnings,omitempty"`
	ProcessingMs   int64    `json:"processing_ms"`
}

// Upload handles POST /api/sessions/{sessionID}/upload. It accepts a
// multipart form with a "file" field (single document, folder ZIP, or
// archive) and optional "language" and "content_type" fields, runs the
// pipeline, and merges the generated cards into the session collection.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	log := h.logger.With(slog.String("session_id", sess.ID))

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			RespondWithError(w, r, http.StatusRequestEntityTooLarge, "Upload exceeds the size limit")
			return
		}
		RespondWithError(w, r, http.StatusBadRequest, "A \"file\" form field is required")
		return
	}
	defer func() { _ = file.Close() }()

	// The extension drives format detection, so the original filename is
	// preserved inside a fresh scratch subdirectory.
	name := filepath.Base(filepath.Clean(header.Filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid upload filename")
		return
	}

	dir, err := os.MkdirTemp(sess.workDir, "upload-")
	if err != nil {
		respondMappedError(w, r, log, err)
		return
	}
	defer func() { _ = os.RemoveAll(dir) }()

	path := filepath.Join(dir, name)
	if err := saveUpload(path, file); err != nil {
		respondMappedError(w, r, log, err)
		return
	}

	report, err := sess.Pipeline.ProcessPath(r.Context(), path, pipeline.ProcessOptions{
		Language:    r.FormValue("language"),
		ContentType: r.FormValue("content_type"),
	})
	if err != nil {
		respondMappedError(w, r, log, err)
		return
	}

	resp := UploadResponse{
		CardsAdded:     report.Added,
		CollectionSize: sess.Pipeline.Collection().Len(),
	}
	if report.Extraction != nil {
		resp.Files = report.Extraction.FileCount
		resp.Warnings = append(resp.Warnings, report.Extraction.Warnings...)
	}
	if report.Generation != nil {
		resp.Chunks = report.Generation.ChunkCount
		resp.Warnings = append(resp.Warnings, report.Generation.Warnings...)
		resp.ProcessingMs = report.Generation.ProcessingTime.Milliseconds()
	}
	RespondWithJSON(w, r, http.StatusOK, resp)
}

func saveUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

// CardResponse describes one flashcard to the client.
type CardResponse struct {
	ID         string    `json:"id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Type       string    `json:"type"`
	SourceFile string    `json:"source_file,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func cardToResponse(card domain.Flashcard) CardResponse {
	return CardResponse{
		ID:         card.ID.String(),
		Question:   card.Question,
		Answer:     card.Answer,
		Type:       string(card.Type),
		SourceFile: card.SourceFile,
		CreatedAt:  card.CreatedAt,
	}
}

// ListCardsResponse wraps the card list.
type ListCardsResponse struct {
	Cards []CardResponse `json:"cards"`
	Count int            `json:"count"`
}

// ListCards handles GET /api/sessions/{sessionID}/cards.
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	cards := sess.Pipeline.Collection().List()
	resp := ListCardsResponse{Cards: make([]CardResponse, 0, len(cards)), Count: len(cards)}
	for _, card := range cards {
		resp.Cards = append(resp.Cards, cardToResponse(card))
	}
	RespondWithJSON(w, r, http.StatusOK, resp)
}

// CreateCardRequest is the body for adding a card by hand.
type CreateCardRequest struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer"   validate:"required"`
	Type     string `json:"type"     validate:"omitempty,oneof=qa cloze"`
}

// CreateCard handles POST /api/sessions/{sessionID}/cards.
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	var req CreateCardRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := validate.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: question and answer are required; type must be qa or cloze")
		return
	}
	if req.Type == "" {
		req.Type = string(domain.CardTypeQA)
	}

	cardType, err := domain.ParseCardType(req.Type)
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid card type")
		return
	}
	card, err := domain.NewFlashcard(req.Question, req.Answer, cardType, domain.SourceManual)
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := sess.Pipeline.Collection().Add(card); err != nil {
		respondMappedError(w, r, h.logger, err)
		return
	}
	RespondWithJSON(w, r, http.StatusCreated, cardToResponse(*card))
}

// UpdateCardRequest is the body for editing a card's content.
type UpdateCardRequest struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer"   validate:"required"`
}

// UpdateCard handles PUT /api/sessions/{sessionID}/cards/{cardID}.
func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	cardID, err := uuid.Parse(chi.URLParam(r, "cardID"))
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid card ID")
		return
	}

	var req UpdateCardRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := validate.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: question and answer are required")
		return
	}

	if err := sess.Pipeline.Collection().Edit(cardID, req.Question, req.Answer); err != nil {
		if errors.Is(err, domain.ErrClozeMarkerMissing) {
			RespondWithError(w, r, http.StatusBadRequest, "Cloze cards must keep a {{c1::...}} marker in the question")
			return
		}
		respondMappedError(w, r, h.logger, err)
		return
	}

	card, err := sess.Pipeline.Collection().Get(cardID)
	if err != nil {
		respondMappedError(w, r, h.logger, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// DeleteCard handles DELETE /api/sessions/{sessionID}/cards/{cardID}.
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	cardID, err := uuid.Parse(chi.URLParam(r, "cardID"))
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid card ID")
		return
	}
	if err := sess.Pipeline.Collection().Delete(cardID); err != nil {
		respondMappedError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /api/sessions/{sessionID}/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	RespondWithJSON(w, r, http.StatusOK, sess.Pipeline.Collection().Statistics())
}

// Export handles GET /api/sessions/{sessionID}/export and streams the
// collection as a CSV download.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="flashcards.csv"`)

	summary, err := sess.Pipeline.ExportTo(w)
	if err != nil {
		// An empty collection is refused before any bytes are written, so
		// the headers can still be replaced with a JSON error.
		if errors.Is(err, export.ErrNoCards) {
			w.Header().Del("Content-Disposition")
			respondMappedError(w, r, h.logger, err)
			return
		}
		// Mid-stream failure: the status line is gone, only log.
		h.logger.ErrorContext(r.Context(), "CSV export failed mid-stream",
			slog.String("session_id", sess.ID),
			slog.String("error", redact.Error(err)))
		return
	}

	h.logger.InfoContext(r.Context(), "Collection exported",
		slog.String("session_id", sess.ID),
		slog.Int("rows", summary.Rows))
}

// ModelResponse describes one selectable model and whether the server
// holds a credential for its provider.
type ModelResponse struct {
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	Description string `json:"description"`
	Default     bool   `json:"default"`
	Available   bool   `json:"available"`
}

// ListModels handles GET /api/models.
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	specs := llm.Registry()
	resp := make([]ModelResponse, 0, len(specs))
	for _, spec := range specs {
		_, credErr := h.creds.For(spec.Provider)
		resp = append(resp, ModelResponse{
			Name:        spec.Name,
			Provider:    string(spec.Provider),
			Description: spec.Description,
			Default:     spec.Name == h.modelName,
			Available:   credErr == nil,
		})
	}
	RespondWithJSON(w, r, http.StatusOK, resp)
}
