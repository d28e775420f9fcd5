package license

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harutoki/licensegate/internal/dependencies/clock"
	"github.com/harutoki/licensegate/internal/model"
	"github.com/harutoki/licensegate/internal/storage"
)

// Record is a live cache entry for a token. Validate hands one out and
// Consume mutates it in place, so a later validation in the same refresh
// epoch sees the new count before the next full refresh lands.
type Record struct {
	mu  sync.Mutex
	tok model.Token
}

// Token returns a copy of the cached token state
func (r *Record) Token() model.Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tok
}

// Config holds configuration for the license service
type Config struct {
	// StrictVersion rejects validation of a versioned token when the client
	// supplies no version at all. When false, clients that never send a
	// version bypass the check (historical behavior); an explicitly supplied
	// non-matching version always fails either way.
	StrictVersion bool
}

// Service is the token cache and accounting component. The durable store
// owns the data; the snapshot here is a disposable projection replaced
// wholesale on every refresh, never mutated key-by-key under readers.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
	cfg     Config

	mu       sync.RWMutex
	snapshot map[model.TokenID]*Record // nil until the first successful refresh
}

// New creates a new license service. The cache is empty until Refresh is
// called; validations are refused until then.
func New(store storage.Storage, clk clock.Clock, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		storage: store,
		clock:   clk,
		logger:  logger,
		cfg:     cfg,
	}
}

// Refresh loads the full token table and swaps in a new snapshot. Requests
// in flight keep the snapshot they already hold. On failure the previous
// snapshot stays in service.
func (s *Service) Refresh(ctx context.Context) error {
	tokens, err := s.storage.ListTokens(ctx)
	if err != nil {
		return fmt.Errorf("refresh token cache: %w", err)
	}

	next := make(map[model.TokenID]*Record, len(tokens))
	for _, token := range tokens {
		next[token.ID] = &Record{tok: *token}
	}

	s.mu.Lock()
	s.snapshot = next
	s.mu.Unlock()

	return nil
}

// Validate answers whether the token is usable right now. It returns the
// live cache record on success so the caller can Consume it.
func (s *Service) Validate(id model.TokenID, clientVersion string) (*Record, error) {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()

	if snap == nil {
		return nil, model.ErrCacheNotReady
	}

	rec, ok := snap[id]
	if !ok {
		return nil, model.ErrTokenNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.tok.ExpiredAt(s.clock.Now()) {
		return nil, model.ErrTokenExpired
	}
	if rec.tok.Exhausted() {
		return nil, model.ErrQuotaExhausted
	}
	if rec.tok.Version != "" && clientVersion != rec.tok.Version {
		if clientVersion != "" || s.cfg.StrictVersion {
			return nil, model.ErrVersionMismatch
		}
	}

	return rec, nil
}

// Consume spends one use of a validated token: the in-memory record first,
// so read-your-writes holds within the snapshot, then the durable store.
// The quota is re-checked under the record lock, so concurrent consumers of
// the same token can never push used past uses.
func (s *Service) Consume(ctx context.Context, rec *Record) error {
	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.tok.Exhausted() {
		return model.ErrQuotaExhausted
	}
	rec.tok.Used++

	if err := s.storage.UpdateTokenUsed(ctx, rec.tok.ID, rec.tok.Used); err != nil {
		// Keep serving from the cache; the next refresh reconciles with
		// whatever the store actually holds.
		s.logger.Warn("usage write failed",
			slog.String("token", string(rec.tok.ID)),
			slog.String("error", err.Error()))
	}

	return nil
}

// Issue upserts a token row and refreshes the cache. Replacing an existing
// token resets its consumed count to zero. An empty id gets a generated
// FREE-prefixed value.
func (s *Service) Issue(ctx context.Context, id model.TokenID, user string, expires time.Time, uses int, version string) (*model.Token, error) {
	if user == "" {
		return nil, fmt.Errorf("%w: user", model.ErrMissingField)
	}
	if expires.IsZero() {
		return nil, fmt.Errorf("%w: expires", model.ErrMissingField)
	}
	if uses <= 0 {
		return nil, fmt.Errorf("%w: uses must be positive", model.ErrMissingField)
	}
	if id == "" {
		id = generateTokenID()
	}

	token := &model.Token{
		ID:      id,
		User:    user,
		Version: version,
		Expires: expires,
		Uses:    uses,
		Used:    0,
		Created: s.clock.Now(),
	}

	if err := s.storage.SaveToken(ctx, token); err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return token, nil
}

// Revoke deletes the token row and refreshes the cache. Releasing any bound
// session is the gate's job, before calling this.
func (s *Service) Revoke(ctx context.Context, id model.TokenID) error {
	if err := s.storage.DeleteToken(ctx, id); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return s.Refresh(ctx)
}

// Get returns the cached state of a single token
func (s *Service) Get(id model.TokenID) (model.Token, error) {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()

	if snap == nil {
		return model.Token{}, model.ErrCacheNotReady
	}
	rec, ok := snap[id]
	if !ok {
		return model.Token{}, model.ErrTokenNotFound
	}
	return rec.Token(), nil
}

// List returns the cached tokens ordered by creation time
func (s *Service) List() ([]model.Token, error) {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()

	if snap == nil {
		return nil, model.ErrCacheNotReady
	}

	tokens := make([]model.Token, 0, len(snap))
	for _, rec := range snap {
		tokens = append(tokens, rec.Token())
	}
	sort.Slice(tokens, func(i, j int) bool {
		if tokens[i].Created.Equal(tokens[j].Created) {
			return tokens[i].ID < tokens[j].ID
		}
		return tokens[i].Created.Before(tokens[j].Created)
	})
	return tokens, nil
}

// generateTokenID produces a fresh FREE-prefixed token value
func generateTokenID() model.TokenID {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return model.TokenID("FREE-" + raw[:16])
}
