package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/harutoki/licensegate/internal/model"
	"github.com/harutoki/licensegate/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Token operations

func (s *Storage) SaveToken(ctx context.Context, token *model.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}

	// Pipeline keeps value and index in step
	pipe := s.client.Pipeline()
	pipe.Set(ctx, tokenKey(token.ID), data, 0)
	pipe.SAdd(ctx, tokenIndexKey(), string(token.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetToken(ctx context.Context, id model.TokenID) (*model.Token, error) {
	data, err := s.client.Get(ctx, tokenKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrTokenNotFound
		}
		return nil, err
	}

	var token model.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

func (s *Storage) DeleteToken(ctx context.Context, id model.TokenID) error {
	// A binding never outlives its token
	pipe := s.client.Pipeline()
	pipe.Del(ctx, tokenKey(id))
	pipe.SRem(ctx, tokenIndexKey(), string(id))
	pipe.Del(ctx, bindingKey(id))
	pipe.SRem(ctx, bindingIndexKey(), string(id))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) ListTokens(ctx context.Context) ([]*model.Token, error) {
	ids, err := s.client.SMembers(ctx, tokenIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	tokens := make([]*model.Token, 0, len(ids))
	for _, id := range ids {
		token, err := s.GetToken(ctx, model.TokenID(id))
		if errors.Is(err, model.ErrTokenNotFound) {
			continue // deleted between SMembers and Get
		}
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}

func (s *Storage) UpdateTokenUsed(ctx context.Context, id model.TokenID, used int) error {
	token, err := s.GetToken(ctx, id)
	if err != nil {
		return err
	}
	token.Used = used
	return s.SaveToken(ctx, token)
}

// Session binding operations

func (s *Storage) SaveBinding(ctx context.Context, binding *model.SessionBinding) error {
	data, err := json.Marshal(binding)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, bindingKey(binding.TokenID), data, 0)
	pipe.SAdd(ctx, bindingIndexKey(), string(binding.TokenID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetBindingForToken(ctx context.Context, id model.TokenID) (*model.SessionBinding, error) {
	data, err := s.client.Get(ctx, bindingKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrBindingNotFound
		}
		return nil, err
	}

	var binding model.SessionBinding
	if err := json.Unmarshal(data, &binding); err != nil {
		return nil, err
	}
	return &binding, nil
}

func (s *Storage) DeleteBindingForToken(ctx context.Context, id model.TokenID) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, bindingKey(id))
	pipe.SRem(ctx, bindingIndexKey(), string(id))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) ListBindings(ctx context.Context) ([]*model.SessionBinding, error) {
	ids, err := s.client.SMembers(ctx, bindingIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	bindings := make([]*model.SessionBinding, 0, len(ids))
	for _, id := range ids {
		binding, err := s.GetBindingForToken(ctx, model.TokenID(id))
		if errors.Is(err, model.ErrBindingNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, binding)
	}
	return bindings, nil
}

// Player log operations

func (s *Storage) SavePlayer(ctx context.Context, record *model.PlayerRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, playerKey(record.FriendCode), data, 0)
	pipe.SAdd(ctx, playerIndexKey(), strconv.FormatInt(int64(record.FriendCode), 10))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetPlayer(ctx context.Context, fc model.FriendCode) (*model.PlayerRecord, error) {
	data, err := s.client.Get(ctx, playerKey(fc)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var record model.PlayerRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.PlayerRecord, error) {
	ids, err := s.client.SMembers(ctx, playerIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	records := make([]*model.PlayerRecord, 0, len(ids))
	for _, id := range ids {
		fc, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			continue
		}
		record, err := s.GetPlayer(ctx, model.FriendCode(fc))
		if errors.Is(err, model.ErrPlayerNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
