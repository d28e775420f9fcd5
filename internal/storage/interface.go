package storage

import (
	"context"

	"github.com/harutoki/licensegate/internal/model"
)

// Storage defines the interface for data persistence.
// The durable store is the sole owner of record; the in-memory token cache
// is a disposable projection rebuilt from ListTokens.
type Storage interface {
	// Token operations
	SaveToken(ctx context.Context, token *model.Token) error
	GetToken(ctx context.Context, id model.TokenID) (*model.Token, error)
	DeleteToken(ctx context.Context, id model.TokenID) error
	ListTokens(ctx context.Context) ([]*model.Token, error)
	UpdateTokenUsed(ctx context.Context, id model.TokenID, used int) error

	// Session binding operations
	SaveBinding(ctx context.Context, binding *model.SessionBinding) error
	GetBindingForToken(ctx context.Context, id model.TokenID) (*model.SessionBinding, error)
	DeleteBindingForToken(ctx context.Context, id model.TokenID) error
	ListBindings(ctx context.Context) ([]*model.SessionBinding, error)

	// Player log operations
	SavePlayer(ctx context.Context, record *model.PlayerRecord) error
	GetPlayer(ctx context.Context, fc model.FriendCode) (*model.PlayerRecord, error)
	ListPlayers(ctx context.Context) ([]*model.PlayerRecord, error)
}
