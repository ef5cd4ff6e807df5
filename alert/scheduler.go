package alert

import (
	"context"
	"time"

	"github.com/Pizceda/cryptowatch/core"
	"github.com/Pizceda/cryptowatch/logger"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultInterval      = 30 * time.Second
	DefaultInitialDelay  = 10 * time.Second
	DefaultMaxConcurrent = 4
)

// SchedulerConfig holds the scan timing parameters.
type SchedulerConfig struct {
	Interval      time.Duration
	InitialDelay  time.Duration
	MaxConcurrent int
}

func (c SchedulerConfig) withDefaults() SchedulerConfig {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = DefaultInitialDelay
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = DefaultMaxConcurrent
	}
	return c
}

// Scheduler periodically re-evaluates every active subscription and fires a
// burst for each crossed target. A subscription that fired is retired and
// never re-armed; crash-and-resume may replay a burst, which is the accepted
// at-least-once behavior.
type Scheduler struct {
	cfg     SchedulerConfig
	storage core.SubscriptionStorage
	feeder  core.PriceFeeder
	burst   *Burst
	log     logger.Logger
}

func NewScheduler(
	cfg SchedulerConfig,
	storage core.SubscriptionStorage,
	feeder core.PriceFeeder,
	burst *Burst,
	log logger.Logger,
) *Scheduler {
	return &Scheduler{
		cfg:     cfg.withDefaults(),
		storage: storage,
		feeder:  feeder,
		burst:   burst,
		log:     log,
	}
}

// Run blocks until ctx is done, performing one scan per tick after the
// initial delay.
func (s *Scheduler) Run(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(s.cfg.InitialDelay):
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		s.Scan(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Scan snapshots the active subscriptions and evaluates each one with
// bounded concurrency. Failures are isolated per record: an unavailable
// price or a failed burst never stops the rest of the scan.
func (s *Scheduler) Scan(ctx context.Context) {
	subs, err := s.storage.AllActive(ctx)
	if err != nil {
		s.log.WithError(err).Error("failed to load active subscriptions, skipping scan")
		return
	}
	if len(subs) == 0 {
		return
	}

	s.log.Debugf("checking %d active subscriptions", len(subs))

	var g errgroup.Group
	g.SetLimit(s.cfg.MaxConcurrent)
	for _, sub := range subs {
		sub := sub
		g.Go(func() error {
			s.evaluate(ctx, sub)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Scheduler) evaluate(ctx context.Context, sub *core.Subscription) {
	price, ok := s.feeder.Price(ctx, sub.Symbol, sub.Currency)
	if !ok {
		// Temporarily unknown; the next cycle will try again.
		return
	}

	// The crossing is one-directional: the alert fires only when the price
	// falls to or below the target.
	if price > sub.TargetPrice {
		return
	}

	s.log.WithFields(map[string]any{
		"user":     sub.UserID,
		"symbol":   sub.Symbol,
		"currency": sub.Currency,
		"price":    price,
		"target":   sub.TargetPrice,
	}).Info("price target crossed")

	report := s.burst.Fire(ctx, sub, price)
	if !report.Delivered() {
		s.log.WithField("user", sub.UserID).Error("alert burst not delivered")
	}

	// One-shot semantics: retire the subscription even when parts of the
	// burst failed, so a reachable user is never notified twice for the
	// same crossing.
	if err := s.storage.Deactivate(ctx, sub.UserID, sub.Symbol, sub.Currency); err != nil {
		s.log.WithError(err).WithField("key", sub.Key()).Error("failed to deactivate subscription")
	}
}
