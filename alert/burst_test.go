package alert

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Pizceda/cryptowatch/core"
	"github.com/Pizceda/cryptowatch/logger"
	adapter "github.com/Pizceda/cryptowatch/logger/zerolog"

	zl "github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testLogger() logger.Logger {
	l := zl.Nop()
	return adapter.NewAdapter(&l)
}

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []string
	failOn func(text string) bool
}

func (f *fakeNotifier) Send(_ int64, text string, _ ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != nil && f.failOn(text) {
		return errors.New("send failed")
	}
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeNotifier) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func testSubscription() *core.Subscription {
	return &core.Subscription{
		UserID:      42,
		Symbol:      "BTC",
		Currency:    "usd",
		TargetPrice: 120,
	}
}

func TestBurst_AllDelivered(t *testing.T) {
	notifier := &fakeNotifier{}
	burst := NewBurst(notifier, 3, time.Millisecond, testLogger())

	report := burst.Fire(context.Background(), testSubscription(), 100)

	require.True(t, report.Delivered())
	require.Equal(t, 3, report.Sent)
	require.Zero(t, report.Failed)

	msgs := notifier.messages()
	require.Len(t, msgs, 4)
	require.Contains(t, msgs[0], "PRICE DROPPED")
	require.Contains(t, msgs[1], "[1/3]")
	require.Contains(t, msgs[3], "[3/3]")
}

func TestBurst_FollowUpFailuresTolerated(t *testing.T) {
	notifier := &fakeNotifier{
		failOn: func(text string) bool { return strings.Contains(text, "[2/3]") },
	}
	burst := NewBurst(notifier, 3, time.Millisecond, testLogger())

	report := burst.Fire(context.Background(), testSubscription(), 100)

	// Still delivered: the primary message went out.
	require.True(t, report.Delivered())
	require.Equal(t, 2, report.Sent)
	require.Equal(t, 1, report.Failed)
}

func TestBurst_PrimaryFailureReported(t *testing.T) {
	notifier := &fakeNotifier{
		failOn: func(text string) bool { return strings.Contains(text, "PRICE DROPPED") },
	}
	burst := NewBurst(notifier, 2, time.Millisecond, testLogger())

	report := burst.Fire(context.Background(), testSubscription(), 100)

	require.False(t, report.Delivered())
	// Follow-ups are still attempted independently.
	require.Equal(t, 2, report.Sent)
}

func TestBurst_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	notifier := &fakeNotifier{}
	burst := NewBurst(notifier, 5, time.Millisecond, testLogger())

	report := burst.Fire(ctx, testSubscription(), 100)

	require.True(t, report.Delivered())
	require.Zero(t, report.Sent)
}
