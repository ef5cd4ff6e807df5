package core

import "context"

// ParseModeHTML asks the notifier to render the message body as HTML.
const ParseModeHTML = "html"

// Notifier delivers a message to a single recipient.
type Notifier interface {
	Send(to int64, text string, options ...any) error
}

type NotifierWithStart interface {
	Notifier
	Start()
}

// PriceFeeder resolves the current price of an instrument in a target
// currency. The boolean reports availability: false means every configured
// source failed and the price is temporarily unknown, not an error.
type PriceFeeder interface {
	Price(ctx context.Context, symbol, currency string) (float64, bool)
}

// SubscriptionStorage is the persistence boundary for price watch records.
// Records are keyed by (user, symbol, currency) and are flipped inactive
// rather than deleted.
type SubscriptionStorage interface {
	// Save upserts a subscription, replacing the target price when the key
	// already exists. The record is always left active.
	Save(ctx context.Context, sub *Subscription) error

	// Active returns the active subscriptions of a single user.
	Active(ctx context.Context, userID int64) ([]*Subscription, error)

	// AllActive returns every active subscription, used by the alert scheduler.
	AllActive(ctx context.Context) ([]*Subscription, error)

	// Deactivate retires one subscription. Deactivating a missing or already
	// inactive record is a no-op.
	Deactivate(ctx context.Context, userID int64, symbol, currency string) error

	// DeactivateAll retires every subscription of a user.
	DeactivateAll(ctx context.Context, userID int64) error
}
