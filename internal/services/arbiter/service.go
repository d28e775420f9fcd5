package arbiter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/harutoki/licensegate/internal/dependencies/clock"
	"github.com/harutoki/licensegate/internal/model"
	"github.com/harutoki/licensegate/internal/storage"
)

// Service arbitrates session exclusivity: at most one session identifier
// holds a claim on a token at any instant. Claims are persisted so a restart
// does not silently free an active session, but they are advisory — there is
// no cryptographic proof of session identity.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger

	mu       sync.Mutex
	bindings map[model.TokenID]model.SessionID
}

// New creates a new session arbiter. Call Load before serving claims.
func New(store storage.Storage, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage:  store,
		clock:    clk,
		logger:   logger,
		bindings: make(map[model.TokenID]model.SessionID),
	}
}

// Load restores persisted claims from the store
func (s *Service) Load(ctx context.Context) error {
	persisted, err := s.storage.ListBindings(ctx)
	if err != nil {
		return fmt.Errorf("load session bindings: %w", err)
	}

	bindings := make(map[model.TokenID]model.SessionID, len(persisted))
	for _, b := range persisted {
		bindings[b.TokenID] = b.SessionID
	}

	s.mu.Lock()
	s.bindings = bindings
	s.mu.Unlock()

	return nil
}

// Claim binds the token to the session. Re-claiming with the same session id
// succeeds idempotently (a retry after a dropped reply is not an error); a
// claim while another session holds the token fails with ErrTokenInUse.
// Check-and-set happens under one lock, so two simultaneous claims for an
// unbound token can never both succeed.
func (s *Service) Claim(ctx context.Context, id model.TokenID, session model.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.bindings[id]; ok {
		if current == session {
			return nil
		}
		return model.ErrTokenInUse
	}

	s.bindings[id] = session

	binding := &model.SessionBinding{
		TokenID:   id,
		SessionID: session,
		BoundAt:   s.clock.Now(),
	}
	if err := s.storage.SaveBinding(ctx, binding); err != nil {
		// Claims are advisory; keep the in-memory claim and lose only the
		// restart durability for it.
		s.logger.Warn("binding write failed",
			slog.String("token", string(id)),
			slog.String("error", err.Error()))
	}

	return nil
}

// Release unbinds the token if the supplied session currently holds it.
// A mismatched or already-unbound release is a no-op: logout requests may
// legitimately arrive after the claim is already gone.
func (s *Service) Release(ctx context.Context, id model.TokenID, session model.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.bindings[id]
	if !ok || current != session {
		return
	}

	s.release(ctx, id)
}

// ReleaseToken unbinds the token regardless of which session holds it,
// used when the token itself is revoked
func (s *Service) ReleaseToken(ctx context.Context, id model.TokenID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bindings[id]; !ok {
		return
	}
	s.release(ctx, id)
}

// release must be called with s.mu held
func (s *Service) release(ctx context.Context, id model.TokenID) {
	delete(s.bindings, id)
	if err := s.storage.DeleteBindingForToken(ctx, id); err != nil {
		s.logger.Warn("binding delete failed",
			slog.String("token", string(id)),
			slog.String("error", err.Error()))
	}
}

// SessionFor reports which session currently holds the token, if any
func (s *Service) SessionFor(id model.TokenID) (model.SessionID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.bindings[id]
	return session, ok
}
