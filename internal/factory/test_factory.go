package factory

import (
	"context"
	"time"

	"github.com/harutoki/licensegate/internal/dependencies/mocks"
	"github.com/harutoki/licensegate/internal/services/license"
	"github.com/harutoki/licensegate/internal/storage/memory"
	"github.com/harutoki/licensegate/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
}

// NewTestApp creates an App configured for testing with in-memory storage
// and a mocked clock
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	app := newWithDependencies(store, mockClock, license.Config{}, testutil.NopLogger())
	// In-memory store starts empty; the first warm cannot fail
	_ = app.Warm(context.Background())

	return &TestApp{
		App:       app,
		MockClock: mockClock,
	}
}
