package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/deckfoundry/cardforge/internal/pipeline"
)

// ErrSessionNotFound is returned when a session ID does not resolve,
// either because it never existed or because it has expired.
var ErrSessionNotFound = errors.New("session not found")

// sweepInterval is how often the manager looks for expired sessions.
const sweepInterval = time.Minute

// Session is one anonymous client's workspace: a pipeline with its own
// collection plus a scratch directory for uploads. Sessions carry no
// identity beyond their random ID.
type Session struct {
	ID       string
	Pipeline *pipeline.Pipeline

	workDir   string
	createdAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

// touch records activity so the sweeper keeps the session alive.
func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// idleSince reports the last activity timestamp.
func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SessionManager creates, resolves and expires sessions. Expired
// sessions are dropped together with their scratch directories.
type SessionManager struct {
	logger      *slog.Logger
	ttl         time.Duration
	newPipeline func() *pipeline.Pipeline

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager builds a manager minting pipelines from the given
// factory. Each session's pipeline owns a fresh collection.
func NewSessionManager(logger *slog.Logger, ttl time.Duration, newPipeline func() *pipeline.Pipeline) (*SessionManager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session TTL must be positive, got %s", ttl)
	}
	if newPipeline == nil {
		return nil, fmt.Errorf("pipeline factory cannot be nil")
	}

	return &SessionManager{
		logger:      logger.With(slog.String("component", "sessions")),
		ttl:         ttl,
		newPipeline: newPipeline,
		sessions:    make(map[string]*Session),
	}, nil
}

// Create mints a new session with a random ID and a scratch directory
// for its uploads.
func (m *SessionManager) Create() (*Session, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	workDir, err := os.MkdirTemp("", "cardforge-session-")
	if err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	now := time.Now()
	sess := &Session{
		ID:        id,
		Pipeline:  m.newPipeline(),
		workDir:   workDir,
		createdAt: now,
		lastSeen:  now,
	}

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()

	m.logger.Info("Session created", slog.String("session_id", id))
	return sess, nil
}

// Get resolves a session ID and refreshes its activity timestamp. A
// session past its TTL is treated as gone even if the sweeper has not
// collected it yet.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if time.Since(sess.idleSince()) > m.ttl {
		m.remove(sess)
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	sess.touch(time.Now())
	return sess, nil
}

// Delete ends a session immediately.
func (m *SessionManager) Delete(id string) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	m.remove(sess)
	m.logger.Info("Session deleted", slog.String("session_id", id))
	return nil
}

// Count reports how many sessions are currently live.
func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Run sweeps expired sessions until the context is cancelled.
func (m *SessionManager) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.sweep(now)
		}
	}
}

// sweep drops every session idle for longer than the TTL.
func (m *SessionManager) sweep(now time.Time) {
	m.mu.Lock()
	var expired []*Session
	for _, sess := range m.sessions {
		if now.Sub(sess.idleSince()) > m.ttl {
			expired = append(expired, sess)
		}
	}
	m.mu.Unlock()

	for _, sess := range expired {
		m.remove(sess)
		m.logger.Info("Session expired",
			slog.String("session_id", sess.ID),
			slog.Int("cards_dropped", sess.Pipeline.Collection().Len()))
	}
}

// Close drops every session and its scratch directory.
func (m *SessionManager) Close() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		all = append(all, sess)
	}
	m.mu.Unlock()

	for _, sess := range all {
		m.remove(sess)
	}
}

func (m *SessionManager) remove(sess *Session) {
	m.mu.Lock()
	delete(m.sessions, sess.ID)
	m.mu.Unlock()

	if err := os.RemoveAll(sess.workDir); err != nil {
		m.logger.Warn("Failed to remove session directory",
			slog.String("session_id", sess.ID),
			slog.String("error", err.Error()))
	}
}
