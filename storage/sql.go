package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Pizceda/cryptowatch/core"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLStorage implements core.SubscriptionStorage on a SQL database via GORM.
type SQLStorage struct {
	db *gorm.DB
}

// Config holds the connection pool settings.
type Config struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxIdleConns:    5,
		MaxOpenConns:    10,
		ConnMaxLifetime: time.Hour,
	}
}

// NewFromSQLite creates a SQLite-backed storage instance.
func NewFromSQLite(dbPath string, config Config, opts ...gorm.Option) (*SQLStorage, error) {
	return newFromSQL(sqlite.Open(dbPath), config, opts...)
}

func newFromSQL(dialect gorm.Dialector, config Config, opts ...gorm.Option) (*SQLStorage, error) {
	db, err := gorm.Open(dialect, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	if err = db.AutoMigrate(&core.Subscription{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLStorage{db: db}, nil
}

// Save implements core.SubscriptionStorage. The composite primary key makes
// this an upsert: an existing (user, symbol, currency) row gets the new
// target price and is reactivated.
func (s *SQLStorage) Save(ctx context.Context, sub *core.Subscription) error {
	sub.Active = true
	sub.UpdatedAt = time.Now()

	tx := s.db.WithContext(ctx)
	if result := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(sub); result.Error != nil {
		return fmt.Errorf("failed to save subscription: %w", result.Error)
	}
	return nil
}

// Active implements core.SubscriptionStorage.
func (s *SQLStorage) Active(ctx context.Context, userID int64) ([]*core.Subscription, error) {
	var subs []*core.Subscription
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND active = ?", userID, true).
		Find(&subs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions: %w", result.Error)
	}
	return subs, nil
}

// AllActive implements core.SubscriptionStorage.
func (s *SQLStorage) AllActive(ctx context.Context) ([]*core.Subscription, error) {
	var subs []*core.Subscription
	result := s.db.WithContext(ctx).
		Where("active = ?", true).
		Find(&subs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions: %w", result.Error)
	}
	return subs, nil
}

// Deactivate implements core.SubscriptionStorage. Updating a missing or
// already inactive row affects nothing and is not an error.
func (s *SQLStorage) Deactivate(ctx context.Context, userID int64, symbol, currency string) error {
	result := s.db.WithContext(ctx).
		Model(&core.Subscription{}).
		Where("user_id = ? AND symbol = ? AND currency = ?", userID, symbol, currency).
		Updates(map[string]any{"active": false, "updated_at": time.Now()})
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate subscription: %w", result.Error)
	}
	return nil
}

// DeactivateAll implements core.SubscriptionStorage.
func (s *SQLStorage) DeactivateAll(ctx context.Context, userID int64) error {
	result := s.db.WithContext(ctx).
		Model(&core.Subscription{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"active": false, "updated_at": time.Now()})
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate subscriptions: %w", result.Error)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}
