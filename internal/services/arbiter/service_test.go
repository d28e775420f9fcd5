package arbiter

import (
	"context"
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
	s.service = New(s.storage, s.clock, testutil.NopLogger())
	s.ctx = context.Background()
}

// Claim tests

func (s *ServiceSuite) TestClaimSucceedsForUnboundToken() {
	err := s.service.Claim(s.ctx, "TOKEN1", "session-a")
	s.Require().NoError(err)

	session, ok := s.service.SessionFor("TOKEN1")
	s.True(ok)
	s.Equal(model.SessionID("session-a"), session)
}

func (s *ServiceSuite) TestClaimIsIdempotentForSameSession() {
	s.Require().NoError(s.service.Claim(s.ctx, "TOKEN1", "session-a"))

	s.NoError(s.service.Claim(s.ctx, "TOKEN1", "session-a"))
}

func (s *ServiceSuite) TestClaimFailsWhileAnotherSessionHolds() {
	s.Require().NoError(s.service.Claim(s.ctx, "TOKEN1", "session-a"))

	err := s.service.Claim(s.ctx, "TOKEN1", "session-b")
	s.ErrorIs(err, model.ErrTokenInUse)

	// The original holder is unaffected
	session, ok := s.service.SessionFor("TOKEN1")
	s.True(ok)
	s.Equal(model.SessionID("session-a"), session)
}

func (s *ServiceSuite) TestClaimsOnDifferentTokensAreIndependent() {
	s.Require().NoError(s.service.Claim(s.ctx, "TOKEN1", "session-a"))
	s.NoError(s.service.Claim(s.ctx, "TOKEN2", "session-b"))
}

func (s *ServiceSuite) TestSameSessionCanClaimSeveralTokens() {
	s.Require().NoError(s.service.Claim(s.ctx, "TOKEN1", "device-1"))
	s.Require().NoError(s.service.Claim(s.ctx, "TOKEN2", "device-1"))

	// Both claims are live and both survived to the store
	session, ok := s.service.SessionFor("TOKEN1")
	s.True(ok)
	s.Equal(model.SessionID("device-1"), session)
	session, ok = s.service.SessionFor("TOKEN2")
	s.True(ok)
	s.Equal(model.SessionID("device-1"), session)

	bindings, err := s.storage.ListBindings(s.ctx)
	s.Require().NoError(err)
	s.Len(bindings, 2)
}

func (s *ServiceSuite) TestClaimPersistsBinding() {
	s.Require().NoError(s.service.Claim(s.ctx, "TOKEN1", "session-a"))

	binding, err := s.storage.GetBindingForToken(s.ctx, "TOKEN1")
	s.Require().NoError(err)
	s.Equal(model.SessionID("session-a"), binding.SessionID)
	s.Equal(s.clock.Now(), binding.BoundAt)
}

func (s *ServiceSuite) TestConcurrentClaimsGrantExactlyOne() {
	const workers = 20

	var wg sync.WaitGroup
	granted := make(chan model.SessionID, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		session := model.SessionID(string(rune('a' + i)))
		go func() {
			defer wg.Done()
			if err := s.service.Claim(s.ctx, "TOKEN1", session); err == nil {
				granted <- session
			}
		}()
	}
	wg.Wait()
	close(granted)

	s.Require().Len(granted, 1)
	winner := <-granted
	held, ok := s.service.SessionFor("TOKEN1")
	s.True(ok)
	s.Equal(winner, held)
}

// Release tests

func (s *ServiceSuite) TestReleaseFreesTheToken() {
	s.Require().NoError(s.service.Claim(s.ctx, "TOKEN1", "session-a"))

	s.service.Release(s.ctx, "TOKEN1", "session-a")

	_, ok := s.service.SessionFor("TOKEN1")
	s.False(ok)
	s.NoError(s.service.Claim(s.ctx, "TOKEN1", "session-b"))
}

func (s *ServiceSuite) TestReleaseByNonHolderIsNoop() {
	s.Require().NoError(s.service.Claim(s.ctx, "TOKEN1", "session-a"))

	s.service.Release(s.ctx, "TOKEN1", "session-b")

	session, ok := s.service.SessionFor("TOKEN1")
	s.True(ok)
	s.Equal(model.SessionID("session-a"), session)
}

func (s *ServiceSuite) TestReleaseOfUnboundTokenIsNoop() {
	// Should not panic or error
	s.service.Release(s.ctx, "TOKEN1", "session-a")
}

func (s *ServiceSuite) TestReleaseDeletesPersistedBinding() {
	s.Require().NoError(s.service.Claim(s.ctx, "TOKEN1", "session-a"))

	s.service.Release(s.ctx, "TOKEN1", "session-a")

	_, err := s.storage.GetBindingForToken(s.ctx, "TOKEN1")
	s.ErrorIs(err, model.ErrBindingNotFound)
}

// ReleaseToken tests

func (s *ServiceSuite) TestReleaseTokenIgnoresHolder() {
	s.Require().NoError(s.service.Claim(s.ctx, "TOKEN1", "session-a"))

	s.service.ReleaseToken(s.ctx, "TOKEN1")

	_, ok := s.service.SessionFor("TOKEN1")
	s.False(ok)
}

// Load tests

func (s *ServiceSuite) TestLoadRestoresPersistedClaims() {
	err := s.storage.SaveBinding(s.ctx, &model.SessionBinding{
		TokenID:   "TOKEN1",
		SessionID: "session-a",
		BoundAt:   s.clock.Now(),
	})
	s.Require().NoError(err)

	s.Require().NoError(s.service.Load(s.ctx))

	// The restored claim behaves like a live one
	s.NoError(s.service.Claim(s.ctx, "TOKEN1", "session-a"))
	s.ErrorIs(s.service.Claim(s.ctx, "TOKEN1", "session-b"), model.ErrTokenInUse)
}

func (s *ServiceSuite) TestLoadReplacesInMemoryState() {
	s.Require().NoError(s.service.Claim(s.ctx, "TOKEN1", "session-a"))
	s.Require().NoError(s.storage.DeleteBindingForToken(s.ctx, "TOKEN1"))

	s.Require().NoError(s.service.Load(s.ctx))

	_, ok := s.service.SessionFor("TOKEN1")
	s.False(ok)
}
