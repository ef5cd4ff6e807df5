package cryptowatch

import (
	"context"

	"github.com/Pizceda/cryptowatch/alert"
	"github.com/Pizceda/cryptowatch/core"
	"github.com/Pizceda/cryptowatch/logger"
	"github.com/Pizceda/cryptowatch/pricing"
	"github.com/Pizceda/cryptowatch/storage"
)

const defaultDatabase = "cryptowatch.db"

// App wires the pricing, storage, alerting and notification components of
// the price watcher.
type App struct {
	settings  *core.Settings
	storage   core.SubscriptionStorage
	cache     *pricing.Cache
	feeder    core.PriceFeeder
	notifier  core.Notifier
	telegram  core.NotifierWithStart
	scheduler *alert.Scheduler
	log       logger.Logger
}

// NewApp creates the application with the provided settings. Options are
// applied first, so injected components take precedence over the defaults
// derived from the settings.
func NewApp(settings *core.Settings, options ...Option) (*App, error) {
	app := &App{
		settings: settings,
		log:      DefaultLog,
	}

	for _, option := range options {
		option(app)
	}

	if err := initializeStorage(app); err != nil {
		return nil, err
	}

	initializePricing(app)

	if err := initializeNotifications(app); err != nil {
		return nil, err
	}

	burst := alert.NewBurst(app.notifier, settings.Alert.FollowUps, settings.Alert.MessageDelay, app.log)
	app.scheduler = alert.NewScheduler(alert.SchedulerConfig{
		Interval:      settings.Alert.Interval,
		InitialDelay:  settings.Alert.InitialDelay,
		MaxConcurrent: settings.Alert.MaxConcurrent,
	}, app.storage, app.feeder, burst, app.log)

	return app, nil
}

// initializeStorage sets up the subscription store selected by the settings.
func initializeStorage(app *App) error {
	if app.storage != nil {
		return nil
	}

	path := app.settings.StoragePath
	if path == "" {
		path = defaultDatabase
	}

	var err error
	switch app.settings.StorageDriver {
	case "sqlite":
		app.storage, err = storage.NewFromSQLite(path, storage.DefaultConfig())
	default:
		app.storage, err = storage.NewFromFile(path)
	}
	return err
}

// initializePricing builds the shared cache and the source fallback chain:
// CoinGecko answers in the target currency directly, Binance quotes USD and
// converts afterwards.
func initializePricing(app *App) {
	if app.cache == nil {
		app.cache = pricing.NewCache(app.settings.Pricing.CacheTTL)
	}
	if app.feeder != nil {
		return
	}

	converter := pricing.NewConverter(app.cache, app.settings.Pricing.RateTimeout, app.log)
	app.feeder = pricing.NewResolver(app.cache, app.log,
		pricing.NewCoinGecko(app.settings.Pricing.SourceTimeout),
		pricing.NewBinance(converter, app.settings.Pricing.SourceTimeout),
	)
}

// Storage exposes the subscription store.
func (app *App) Storage() core.SubscriptionStorage { return app.storage }

// Feeder exposes the price feeder used by the interactive path.
func (app *App) Feeder() core.PriceFeeder { return app.feeder }

// Run starts the Telegram poller and the alert scheduler and blocks until
// ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	if app.telegram != nil {
		app.telegram.Start()
	}

	app.log.Info("cryptowatch started")
	app.scheduler.Run(ctx)
	return nil
}
