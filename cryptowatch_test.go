package cryptowatch

import (
	"context"
	"testing"
	"time"

	"github.com/Pizceda/cryptowatch/core"
	"github.com/Pizceda/cryptowatch/storage"

	"github.com/stretchr/testify/require"
)

type stubFeeder struct{}

func (stubFeeder) Price(_ context.Context, _, _ string) (float64, bool) { return 0, false }

func testSettings() *core.Settings {
	return &core.Settings{
		Pricing: core.PricingSettings{
			CacheTTL:      30 * time.Second,
			SourceTimeout: time.Second,
			RateTimeout:   time.Second,
		},
		Alert: core.AlertSettings{
			Interval:      30 * time.Second,
			InitialDelay:  10 * time.Second,
			MaxConcurrent: 4,
			FollowUps:     15,
			MessageDelay:  300 * time.Millisecond,
		},
	}
}

func TestNewApp_InjectedComponentsTakePrecedence(t *testing.T) {
	store, err := storage.NewFromMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	feeder := stubFeeder{}
	app, err := NewApp(testSettings(), WithStorage(store), WithPriceFeeder(feeder))
	require.NoError(t, err)
	require.Equal(t, store, app.Storage())
	require.Equal(t, feeder, app.Feeder())
}

func TestNewApp_FallsBackToLogNotifierWithoutToken(t *testing.T) {
	store, err := storage.NewFromMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	app, err := NewApp(testSettings(), WithStorage(store), WithPriceFeeder(stubFeeder{}))
	require.NoError(t, err)
	require.IsType(t, logNotifier{}, app.notifier)
	require.Nil(t, app.telegram)
}
