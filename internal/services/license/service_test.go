package license

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/harutoki/licensegate/internal/dependencies/mocks"
	"github.com/harutoki/licensegate/internal/model"
	"github.com/harutoki/licensegate/internal/storage/memory"
	"github.com/harutoki/licensegate/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.storage, s.clock, Config{}, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) issue(id model.TokenID, uses int, version string) *model.Token {
	token, err := s.service.Issue(s.ctx, id, "alice", s.clock.Now().AddDate(0, 0, 7), uses, version)
	s.Require().NoError(err)
	return token
}

// Refresh tests

func (s *ServiceSuite) TestValidateFailsBeforeFirstRefresh() {
	_, err := s.service.Validate("TOKEN1", "")
	s.ErrorIs(err, model.ErrCacheNotReady)
}

func (s *ServiceSuite) TestRefreshMakesEmptyCacheServable() {
	s.Require().NoError(s.service.Refresh(s.ctx))

	_, err := s.service.Validate("TOKEN1", "")
	s.ErrorIs(err, model.ErrTokenNotFound)
}

func (s *ServiceSuite) TestRefreshPicksUpExternallyWrittenTokens() {
	s.Require().NoError(s.service.Refresh(s.ctx))
	err := s.storage.SaveToken(s.ctx, &model.Token{
		ID:      "TOKEN1",
		User:    "alice",
		Expires: s.clock.Now().AddDate(0, 0, 7),
		Uses:    1,
		Created: s.clock.Now(),
	})
	s.Require().NoError(err)

	// Not visible until the next refresh
	_, err = s.service.Validate("TOKEN1", "")
	s.ErrorIs(err, model.ErrTokenNotFound)

	s.Require().NoError(s.service.Refresh(s.ctx))
	_, err = s.service.Validate("TOKEN1", "")
	s.NoError(err)
}

// Validate tests

func (s *ServiceSuite) TestValidateSucceeds() {
	s.issue("TOKEN1", 3, "")

	rec, err := s.service.Validate("TOKEN1", "")
	s.Require().NoError(err)
	s.Equal(model.TokenID("TOKEN1"), rec.Token().ID)
}

func (s *ServiceSuite) TestValidateFailsForUnknownToken() {
	s.issue("TOKEN1", 3, "")

	_, err := s.service.Validate("NOPE", "")
	s.ErrorIs(err, model.ErrTokenNotFound)
}

func (s *ServiceSuite) TestValidateFailsWhenExpired() {
	s.issue("TOKEN1", 3, "")

	s.clock.Advance(8 * 24 * time.Hour)

	_, err := s.service.Validate("TOKEN1", "")
	s.ErrorIs(err, model.ErrTokenExpired)
}

func (s *ServiceSuite) TestValidateSucceedsOnExpiryDateItself() {
	token, err := s.service.Issue(s.ctx, "TOKEN1", "alice",
		time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), 3, "")
	s.Require().NoError(err)

	// Late on the expiry date the token is still good; the next day it is not
	s.clock.Set(time.Date(2024, 1, 5, 23, 59, 0, 0, time.UTC))
	_, err = s.service.Validate(token.ID, "")
	s.NoError(err)

	s.clock.Set(time.Date(2024, 1, 6, 0, 1, 0, 0, time.UTC))
	_, err = s.service.Validate(token.ID, "")
	s.ErrorIs(err, model.ErrTokenExpired)
}

func (s *ServiceSuite) TestValidateFailsWhenExhausted() {
	s.issue("TOKEN1", 1, "")

	rec, err := s.service.Validate("TOKEN1", "")
	s.Require().NoError(err)
	s.Require().NoError(s.service.Consume(s.ctx, rec))

	_, err = s.service.Validate("TOKEN1", "")
	s.ErrorIs(err, model.ErrQuotaExhausted)
}

func (s *ServiceSuite) TestValidateExpiryCheckedBeforeQuota() {
	s.issue("TOKEN1", 1, "")

	rec, _ := s.service.Validate("TOKEN1", "")
	s.Require().NoError(s.service.Consume(s.ctx, rec))
	s.clock.Advance(8 * 24 * time.Hour)

	_, err := s.service.Validate("TOKEN1", "")
	s.ErrorIs(err, model.ErrTokenExpired)
}

// Version check tests

func (s *ServiceSuite) TestValidateMatchingVersionSucceeds() {
	s.issue("TOKEN1", 3, "1.2.0")

	_, err := s.service.Validate("TOKEN1", "1.2.0")
	s.NoError(err)
}

func (s *ServiceSuite) TestValidateWrongVersionFails() {
	s.issue("TOKEN1", 3, "1.2.0")

	_, err := s.service.Validate("TOKEN1", "1.1.0")
	s.ErrorIs(err, model.ErrVersionMismatch)
}

func (s *ServiceSuite) TestValidateAbsentVersionBypassesCheckByDefault() {
	s.issue("TOKEN1", 3, "1.2.0")

	_, err := s.service.Validate("TOKEN1", "")
	s.NoError(err)
}

func (s *ServiceSuite) TestValidateAbsentVersionFailsUnderStrictCheck() {
	s.service = New(s.storage, s.clock, Config{StrictVersion: true}, testutil.NopLogger())
	s.issue("TOKEN1", 3, "1.2.0")

	_, err := s.service.Validate("TOKEN1", "")
	s.ErrorIs(err, model.ErrVersionMismatch)
}

func (s *ServiceSuite) TestValidateUnversionedTokenIgnoresClientVersion() {
	s.issue("TOKEN1", 3, "")

	_, err := s.service.Validate("TOKEN1", "9.9.9")
	s.NoError(err)
}

// Consume tests

func (s *ServiceSuite) TestConsumeDecrementsRemaining() {
	s.issue("TOKEN1", 3, "")

	rec, _ := s.service.Validate("TOKEN1", "")
	s.Require().NoError(s.service.Consume(s.ctx, rec))

	token, err := s.service.Get("TOKEN1")
	s.Require().NoError(err)
	s.Equal(1, token.Used)
	s.Equal(2, token.Remaining())
}

func (s *ServiceSuite) TestConsumePersistsUsage() {
	s.issue("TOKEN1", 3, "")

	rec, _ := s.service.Validate("TOKEN1", "")
	s.Require().NoError(s.service.Consume(s.ctx, rec))

	stored, err := s.storage.GetToken(s.ctx, "TOKEN1")
	s.Require().NoError(err)
	s.Equal(1, stored.Used)
}

func (s *ServiceSuite) TestConsumeVisibleWithinSnapshotWithoutRefresh() {
	s.issue("TOKEN1", 1, "")

	rec, _ := s.service.Validate("TOKEN1", "")
	s.Require().NoError(s.service.Consume(s.ctx, rec))

	// Same snapshot, no refresh: the spend is already visible
	_, err := s.service.Validate("TOKEN1", "")
	s.ErrorIs(err, model.ErrQuotaExhausted)
}

func (s *ServiceSuite) TestConcurrentConsumersNeverOverspend() {
	const uses = 5
	const workers = 20
	s.issue("TOKEN1", uses, "")

	var wg sync.WaitGroup
	granted := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := s.service.Validate("TOKEN1", "")
			if err != nil {
				return
			}
			if err := s.service.Consume(s.ctx, rec); err == nil {
				granted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(granted)

	s.Len(granted, uses)

	token, err := s.service.Get("TOKEN1")
	s.Require().NoError(err)
	s.Equal(uses, token.Used)
}

// Issue tests

func (s *ServiceSuite) TestIssueSucceeds() {
	token := s.issue("TOKEN1", 3, "1.0.0")

	s.Equal(model.TokenID("TOKEN1"), token.ID)
	s.Equal("alice", token.User)
	s.Equal(3, token.Uses)
	s.Equal(0, token.Used)
	s.Equal(s.clock.Now(), token.Created)
}

func (s *ServiceSuite) TestIssueGeneratesFreeTokenWhenIDEmpty() {
	token := s.issue("", 3, "")

	s.True(strings.HasPrefix(string(token.ID), "FREE-"))
	s.Len(string(token.ID), len("FREE-")+16)

	// Generated value is immediately usable
	_, err := s.service.Validate(token.ID, "")
	s.NoError(err)
}

func (s *ServiceSuite) TestIssueFailsWithoutUser() {
	_, err := s.service.Issue(s.ctx, "TOKEN1", "", s.clock.Now().AddDate(0, 0, 7), 3, "")
	s.ErrorIs(err, model.ErrMissingField)
}

func (s *ServiceSuite) TestIssueFailsWithoutExpiry() {
	_, err := s.service.Issue(s.ctx, "TOKEN1", "alice", time.Time{}, 3, "")
	s.ErrorIs(err, model.ErrMissingField)
}

func (s *ServiceSuite) TestIssueFailsWithNonPositiveUses() {
	_, err := s.service.Issue(s.ctx, "TOKEN1", "alice", s.clock.Now().AddDate(0, 0, 7), 0, "")
	s.ErrorIs(err, model.ErrMissingField)
}

func (s *ServiceSuite) TestReissueResetsUsage() {
	s.issue("TOKEN1", 2, "")
	rec, _ := s.service.Validate("TOKEN1", "")
	s.Require().NoError(s.service.Consume(s.ctx, rec))
	rec, _ = s.service.Validate("TOKEN1", "")
	s.Require().NoError(s.service.Consume(s.ctx, rec))

	_, err := s.service.Validate("TOKEN1", "")
	s.ErrorIs(err, model.ErrQuotaExhausted)

	// Reissuing the same value replaces the row and zeroes the count
	s.issue("TOKEN1", 2, "")

	token, err := s.service.Get("TOKEN1")
	s.Require().NoError(err)
	s.Equal(0, token.Used)
	_, err = s.service.Validate("TOKEN1", "")
	s.NoError(err)
}

// Revoke tests

func (s *ServiceSuite) TestRevokeRemovesToken() {
	s.issue("TOKEN1", 3, "")

	s.Require().NoError(s.service.Revoke(s.ctx, "TOKEN1"))

	_, err := s.service.Validate("TOKEN1", "")
	s.ErrorIs(err, model.ErrTokenNotFound)
}

func (s *ServiceSuite) TestRevokeUnknownTokenIsIdempotent() {
	s.Require().NoError(s.service.Refresh(s.ctx))

	s.NoError(s.service.Revoke(s.ctx, "NOPE"))
}

// List tests

func (s *ServiceSuite) TestListOrdersByCreation() {
	s.issue("B-TOKEN", 1, "")
	s.clock.Advance(time.Minute)
	s.issue("A-TOKEN", 1, "")

	tokens, err := s.service.List()
	s.Require().NoError(err)
	s.Require().Len(tokens, 2)
	s.Equal(model.TokenID("B-TOKEN"), tokens[0].ID)
	s.Equal(model.TokenID("A-TOKEN"), tokens[1].ID)
}

func (s *ServiceSuite) TestListBreaksCreationTiesByID() {
	s.issue("B-TOKEN", 1, "")
	s.issue("A-TOKEN", 1, "")

	tokens, err := s.service.List()
	s.Require().NoError(err)
	s.Require().Len(tokens, 2)
	s.Equal(model.TokenID("A-TOKEN"), tokens[0].ID)
}
