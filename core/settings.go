package core

import "time"

// Settings holds the runtime configuration of the bot.
type Settings struct {
	Telegram TelegramSettings
	Pricing  PricingSettings
	Alert    AlertSettings

	// StorageDriver selects the subscription store backend: "buntdb"
	// (default) or "sqlite".
	StorageDriver string
	StoragePath   string
}

type TelegramSettings struct {
	Token string
	// Users is an allow-list of Telegram user IDs. An empty list means open
	// access.
	Users []int64
}

type PricingSettings struct {
	// CacheTTL bounds how long a fetched price is served without a refresh.
	CacheTTL time.Duration
	// SourceTimeout applies to each price source request.
	SourceTimeout time.Duration
	// RateTimeout applies to each exchange rate source request.
	RateTimeout time.Duration
}

type AlertSettings struct {
	// Interval between subscription scans.
	Interval time.Duration
	// InitialDelay before the first scan after startup.
	InitialDelay time.Duration
	// MaxConcurrent caps how many subscriptions are evaluated at once.
	MaxConcurrent int
	// FollowUps is the number of short messages sent after the primary alert.
	FollowUps int
	// MessageDelay spaces consecutive sends within a burst.
	MessageDelay time.Duration
}
