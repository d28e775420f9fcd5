package memory

import (
	"context"
	"sync"

	"github.com/harutoki/licensegate/internal/model"
	"github.com/harutoki/licensegate/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	tokens   map[model.TokenID]*model.Token
	bindings map[model.TokenID]*model.SessionBinding
	players  map[model.FriendCode]*model.PlayerRecord
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		tokens:   make(map[model.TokenID]*model.Token),
		bindings: make(map[model.TokenID]*model.SessionBinding),
		players:  make(map[model.FriendCode]*model.PlayerRecord),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Token operations

func (s *Storage) SaveToken(ctx context.Context, token *model.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := *token
	s.tokens[token.ID] = &t
	return nil
}

func (s *Storage) GetToken(ctx context.Context, id model.TokenID) (*model.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[id]
	if !ok {
		return nil, model.ErrTokenNotFound
	}
	t := *token
	return &t, nil
}

func (s *Storage) DeleteToken(ctx context.Context, id model.TokenID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, id)
	// A binding never outlives its token
	delete(s.bindings, id)
	return nil
}

func (s *Storage) ListTokens(ctx context.Context) ([]*model.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tokens := make([]*model.Token, 0, len(s.tokens))
	for _, token := range s.tokens {
		t := *token
		tokens = append(tokens, &t)
	}
	return tokens, nil
}

func (s *Storage) UpdateTokenUsed(ctx context.Context, id model.TokenID, used int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[id]
	if !ok {
		return model.ErrTokenNotFound
	}
	token.Used = used
	return nil
}

// Session binding operations

func (s *Storage) SaveBinding(ctx context.Context, binding *model.SessionBinding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := *binding
	s.bindings[binding.TokenID] = &b
	return nil
}

func (s *Storage) GetBindingForToken(ctx context.Context, id model.TokenID) (*model.SessionBinding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	binding, ok := s.bindings[id]
	if !ok {
		return nil, model.ErrBindingNotFound
	}
	b := *binding
	return &b, nil
}

func (s *Storage) DeleteBindingForToken(ctx context.Context, id model.TokenID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bindings, id)
	return nil
}

func (s *Storage) ListBindings(ctx context.Context) ([]*model.SessionBinding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bindings := make([]*model.SessionBinding, 0, len(s.bindings))
	for _, binding := range s.bindings {
		b := *binding
		bindings = append(bindings, &b)
	}
	return bindings, nil
}

// Player log operations

func (s *Storage) SavePlayer(ctx context.Context, record *model.PlayerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[record.FriendCode] = clonePlayer(record)
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, fc model.FriendCode) (*model.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.players[fc]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return clonePlayer(record), nil
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]*model.PlayerRecord, 0, len(s.players))
	for _, record := range s.players {
		records = append(records, clonePlayer(record))
	}
	return records, nil
}

// clonePlayer deep-copies a record so callers can't mutate stored state
func clonePlayer(record *model.PlayerRecord) *model.PlayerRecord {
	r := *record
	r.PastNames = append([]string(nil), record.PastNames...)
	r.History = append([]model.RenameEntry(nil), record.History...)
	return &r
}
