package cryptowatch

import (
	"github.com/Pizceda/cryptowatch/core"
	"github.com/Pizceda/cryptowatch/logger"
	"github.com/Pizceda/cryptowatch/pricing"
)

// Option is a functional option for configuring an App instance.
type Option func(*App)

// WithStorage sets the subscription store, by default a local BuntDB file.
func WithStorage(storage core.SubscriptionStorage) Option {
	return func(app *App) {
		app.storage = storage
	}
}

// WithNotifier sets the notifier used by alert bursts, overriding Telegram.
func WithNotifier(notifier core.Notifier) Option {
	return func(app *App) {
		app.notifier = notifier
	}
}

// WithPriceFeeder replaces the default CoinGecko/Binance resolver chain.
func WithPriceFeeder(feeder core.PriceFeeder) Option {
	return func(app *App) {
		app.feeder = feeder
	}
}

// WithCache injects a pre-built price cache with its own lifecycle.
func WithCache(cache *pricing.Cache) Option {
	return func(app *App) {
		app.cache = cache
	}
}

// WithLogger overrides DefaultLog for this App.
func WithLogger(log logger.Logger) Option {
	return func(app *App) {
		app.log = log
	}
}
