package redis

import (
	"fmt"

	"github.com/harutoki/licensegate/internal/model"
)

// Key prefix for all license data
const keyPrefix = "licgate"

// tokenKey returns the Redis key for a Token
func tokenKey(id model.TokenID) string {
	return fmt.Sprintf("%s:token:%s", keyPrefix, id)
}

// tokenIndexKey returns the Redis key for the SET of all token IDs
func tokenIndexKey() string {
	return fmt.Sprintf("%s:idx:tokens", keyPrefix)
}

// bindingKey returns the Redis key for a token's session binding
func bindingKey(id model.TokenID) string {
	return fmt.Sprintf("%s:binding:%s", keyPrefix, id)
}

// bindingIndexKey returns the Redis key for the SET of bound token IDs
func bindingIndexKey() string {
	return fmt.Sprintf("%s:idx:bindings", keyPrefix)
}

// playerKey returns the Redis key for a PlayerRecord
func playerKey(fc model.FriendCode) string {
	return fmt.Sprintf("%s:player:%d", keyPrefix, fc)
}

// playerIndexKey returns the Redis key for the SET of known friend-codes
func playerIndexKey() string {
	return fmt.Sprintf("%s:idx:players", keyPrefix)
}
