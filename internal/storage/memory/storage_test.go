package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/harutoki/licensegate/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func (s *StorageSuite) sampleToken(id model.TokenID) *model.Token {
	return &model.Token{
		ID:      id,
		User:    "alice",
		Version: "1.0.0",
		Expires: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Uses:    3,
		Used:    1,
		Created: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Token tests

func (s *StorageSuite) TestSaveAndGetToken() {
	token := s.sampleToken("TOKEN1")

	s.Require().NoError(s.storage.SaveToken(s.ctx, token))

	retrieved, err := s.storage.GetToken(s.ctx, "TOKEN1")
	s.Require().NoError(err)
	s.Equal(token, retrieved)
}

func (s *StorageSuite) TestGetTokenNotFound() {
	_, err := s.storage.GetToken(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrTokenNotFound)
}

func (s *StorageSuite) TestSaveTokenReplacesExisting() {
	s.Require().NoError(s.storage.SaveToken(s.ctx, s.sampleToken("TOKEN1")))

	replacement := s.sampleToken("TOKEN1")
	replacement.Used = 0
	replacement.Uses = 10
	s.Require().NoError(s.storage.SaveToken(s.ctx, replacement))

	retrieved, err := s.storage.GetToken(s.ctx, "TOKEN1")
	s.Require().NoError(err)
	s.Equal(10, retrieved.Uses)
	s.Equal(0, retrieved.Used)
}

func (s *StorageSuite) TestStoredTokenIsIsolatedFromCaller() {
	token := s.sampleToken("TOKEN1")
	s.Require().NoError(s.storage.SaveToken(s.ctx, token))

	token.Used = 99

	retrieved, err := s.storage.GetToken(s.ctx, "TOKEN1")
	s.Require().NoError(err)
	s.Equal(1, retrieved.Used)
}

func (s *StorageSuite) TestDeleteToken() {
	s.Require().NoError(s.storage.SaveToken(s.ctx, s.sampleToken("TOKEN1")))

	s.Require().NoError(s.storage.DeleteToken(s.ctx, "TOKEN1"))

	_, err := s.storage.GetToken(s.ctx, "TOKEN1")
	s.ErrorIs(err, model.ErrTokenNotFound)
}

func (s *StorageSuite) TestDeleteTokenRemovesBinding() {
	s.Require().NoError(s.storage.SaveToken(s.ctx, s.sampleToken("TOKEN1")))
	s.Require().NoError(s.storage.SaveBinding(s.ctx, &model.SessionBinding{
		TokenID:   "TOKEN1",
		SessionID: "session-a",
		BoundAt:   time.Now().UTC(),
	}))

	s.Require().NoError(s.storage.DeleteToken(s.ctx, "TOKEN1"))

	_, err := s.storage.GetBindingForToken(s.ctx, "TOKEN1")
	s.ErrorIs(err, model.ErrBindingNotFound)
}

func (s *StorageSuite) TestListTokens() {
	s.Require().NoError(s.storage.SaveToken(s.ctx, s.sampleToken("TOKEN1")))
	s.Require().NoError(s.storage.SaveToken(s.ctx, s.sampleToken("TOKEN2")))

	tokens, err := s.storage.ListTokens(s.ctx)
	s.Require().NoError(err)
	s.Len(tokens, 2)
}

func (s *StorageSuite) TestUpdateTokenUsed() {
	s.Require().NoError(s.storage.SaveToken(s.ctx, s.sampleToken("TOKEN1")))

	s.Require().NoError(s.storage.UpdateTokenUsed(s.ctx, "TOKEN1", 2))

	retrieved, err := s.storage.GetToken(s.ctx, "TOKEN1")
	s.Require().NoError(err)
	s.Equal(2, retrieved.Used)
}

func (s *StorageSuite) TestUpdateTokenUsedNotFound() {
	err := s.storage.UpdateTokenUsed(s.ctx, "nonexistent", 2)
	s.ErrorIs(err, model.ErrTokenNotFound)
}

// Binding tests

func (s *StorageSuite) TestSaveAndGetBinding() {
	binding := &model.SessionBinding{
		TokenID:   "TOKEN1",
		SessionID: "session-a",
		BoundAt:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	s.Require().NoError(s.storage.SaveBinding(s.ctx, binding))

	retrieved, err := s.storage.GetBindingForToken(s.ctx, "TOKEN1")
	s.Require().NoError(err)
	s.Equal(binding, retrieved)
}

func (s *StorageSuite) TestGetBindingNotFound() {
	_, err := s.storage.GetBindingForToken(s.ctx, "TOKEN1")
	s.ErrorIs(err, model.ErrBindingNotFound)
}

func (s *StorageSuite) TestDeleteBinding() {
	s.Require().NoError(s.storage.SaveBinding(s.ctx, &model.SessionBinding{
		TokenID:   "TOKEN1",
		SessionID: "session-a",
	}))

	s.Require().NoError(s.storage.DeleteBindingForToken(s.ctx, "TOKEN1"))

	_, err := s.storage.GetBindingForToken(s.ctx, "TOKEN1")
	s.ErrorIs(err, model.ErrBindingNotFound)
}

func (s *StorageSuite) TestListBindings() {
	s.Require().NoError(s.storage.SaveBinding(s.ctx, &model.SessionBinding{TokenID: "TOKEN1", SessionID: "a"}))
	s.Require().NoError(s.storage.SaveBinding(s.ctx, &model.SessionBinding{TokenID: "TOKEN2", SessionID: "b"}))

	bindings, err := s.storage.ListBindings(s.ctx)
	s.Require().NoError(err)
	s.Len(bindings, 2)
}

// Player tests

func (s *StorageSuite) TestSaveAndGetPlayer() {
	record := &model.PlayerRecord{
		FriendCode: 12345,
		Name:       "Alice",
		PastNames:  []string{"Alicia"},
		History: []model.RenameEntry{
			{From: "Alicia", To: "Alice", At: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
		},
		Blacklisted:   true,
		BlacklistName: "cheater",
	}

	s.Require().NoError(s.storage.SavePlayer(s.ctx, record))

	retrieved, err := s.storage.GetPlayer(s.ctx, 12345)
	s.Require().NoError(err)
	s.Equal(record, retrieved)
}

func (s *StorageSuite) TestGetPlayerNotFound() {
	_, err := s.storage.GetPlayer(s.ctx, 99999)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestStoredPlayerIsIsolatedFromCaller() {
	record := &model.PlayerRecord{
		FriendCode: 12345,
		Name:       "Alice",
		PastNames:  []string{"Alicia"},
	}
	s.Require().NoError(s.storage.SavePlayer(s.ctx, record))

	record.PastNames[0] = "mutated"
	record.Name = "mutated"

	retrieved, err := s.storage.GetPlayer(s.ctx, 12345)
	s.Require().NoError(err)
	s.Equal("Alice", retrieved.Name)
	s.Equal([]string{"Alicia"}, retrieved.PastNames)
}

func (s *StorageSuite) TestListPlayers() {
	s.Require().NoError(s.storage.SavePlayer(s.ctx, &model.PlayerRecord{FriendCode: 1, Name: "Alice"}))
	s.Require().NoError(s.storage.SavePlayer(s.ctx, &model.PlayerRecord{FriendCode: 2, Name: "Bob"}))

	records, err := s.storage.ListPlayers(s.ctx)
	s.Require().NoError(err)
	s.Len(records, 2)
}
