package gate

import (
	"context"
	"log/slog"

	"github.com/harutoki/licensegate/internal/model"
	"github.com/harutoki/licensegate/internal/services/arbiter"
	"github.com/harutoki/licensegate/internal/services/license"
)

// Result is the terminal outcome of one validation request. Every request
// ends in exactly one of: Alive (liveness probe), Valid, or a rejection
// carried in Err. There is no multi-step handshake.
type Result struct {
	Valid     bool
	Alive     bool // the reserved liveness-probe token was presented
	Err       error
	Token     model.Token
	SessionID model.SessionID
}

// Service composes the license cache and the session arbiter into the
// validation pipeline
type Service struct {
	tokens   *license.Service
	sessions *arbiter.Service
	logger   *slog.Logger
}

// New creates a new gate service
func New(tokens *license.Service, sessions *arbiter.Service, logger *slog.Logger) *Service {
	return &Service{
		tokens:   tokens,
		sessions: sessions,
		logger:   logger,
	}
}

// ValidateAndConsume runs the full pipeline: liveness sentinel, token
// validation, session claim, usage consumption. Claim runs before Consume
// on purpose — a token that is valid but held by another session must report
// the exclusivity failure, not success, and must not burn a use.
func (s *Service) ValidateAndConsume(ctx context.Context, id model.TokenID, session model.SessionID, clientVersion string) Result {
	if id == model.HealthProbeToken {
		return Result{Alive: true}
	}

	rec, err := s.tokens.Validate(id, clientVersion)
	if err != nil {
		return Result{Err: err}
	}

	if err := s.sessions.Claim(ctx, id, session); err != nil {
		return Result{Err: err}
	}

	if err := s.tokens.Consume(ctx, rec); err != nil {
		return Result{Err: err}
	}

	s.logger.Info("token consumed",
		slog.String("token", string(id)),
		slog.String("session", string(session)))

	return Result{Valid: true, Token: rec.Token(), SessionID: session}
}

// Logout releases the session's claim on the token, if it holds one
func (s *Service) Logout(ctx context.Context, id model.TokenID, session model.SessionID) {
	s.sessions.Release(ctx, id, session)
}

// Revoke deletes a token and frees whatever session was bound to it
func (s *Service) Revoke(ctx context.Context, id model.TokenID) error {
	s.sessions.ReleaseToken(ctx, id)
	return s.tokens.Revoke(ctx, id)
}
