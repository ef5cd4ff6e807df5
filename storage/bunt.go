// Package storage provides persistence for price watch subscriptions.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Pizceda/cryptowatch/core"

	"github.com/tidwall/buntdb"
)

const updateIndexName = "update_index"

// BuntStorage implements core.SubscriptionStorage using BuntDB. Records are
// stored as JSON under "<user>:<symbol>:<currency>" and flipped inactive
// rather than deleted, which keeps the upsert semantics trivial.
type BuntStorage struct {
	db *buntdb.DB
}

// NewFromMemory creates an in-memory storage, used in tests and dry runs.
func NewFromMemory() (*BuntStorage, error) {
	return NewBuntStorage(":memory:")
}

// NewFromFile creates a file-based storage.
func NewFromFile(file string) (*BuntStorage, error) {
	return NewBuntStorage(file)
}

func NewBuntStorage(sourceFile string) (*BuntStorage, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	if err := db.SetConfig(buntdb.Config{SyncPolicy: buntdb.EverySecond}); err != nil {
		return nil, fmt.Errorf("failed to configure buntdb: %w", err)
	}

	if err := db.CreateIndex(updateIndexName, "*", buntdb.IndexJSON("updated_at")); err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &BuntStorage{db: db}, nil
}

// Save implements core.SubscriptionStorage. Writing the same key twice
// replaces the target price and leaves a single active record.
func (b *BuntStorage) Save(_ context.Context, sub *core.Subscription) error {
	sub.Active = true
	sub.UpdatedAt = time.Now()

	content, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription: %w", err)
	}

	err = b.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(sub.Key(), string(content), nil)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

// Active implements core.SubscriptionStorage.
func (b *BuntStorage) Active(_ context.Context, userID int64) ([]*core.Subscription, error) {
	return b.list(func(sub core.Subscription) bool {
		return sub.Active && sub.UserID == userID
	})
}

// AllActive implements core.SubscriptionStorage.
func (b *BuntStorage) AllActive(_ context.Context) ([]*core.Subscription, error) {
	return b.list(func(sub core.Subscription) bool {
		return sub.Active
	})
}

// Deactivate implements core.SubscriptionStorage. Missing or already
// inactive records are a no-op.
func (b *BuntStorage) Deactivate(_ context.Context, userID int64, symbol, currency string) error {
	key := core.SubscriptionKey(userID, symbol, currency)

	err := b.db.Update(func(tx *buntdb.Tx) error {
		return deactivateKey(tx, key)
	})
	if err != nil {
		return fmt.Errorf("failed to deactivate subscription: %w", err)
	}
	return nil
}

// DeactivateAll implements core.SubscriptionStorage.
func (b *BuntStorage) DeactivateAll(_ context.Context, userID int64) error {
	err := b.db.Update(func(tx *buntdb.Tx) error {
		// Collect first: the iteration snapshot must not observe our writes.
		keys := make([]string, 0)
		err := tx.Ascend(updateIndexName, func(key, value string) bool {
			var sub core.Subscription
			if err := json.Unmarshal([]byte(value), &sub); err != nil {
				return true
			}
			if sub.Active && sub.UserID == userID {
				keys = append(keys, key)
			}
			return true
		})
		if err != nil {
			return err
		}

		for _, key := range keys {
			if err := deactivateKey(tx, key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to deactivate subscriptions: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (b *BuntStorage) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func deactivateKey(tx *buntdb.Tx, key string) error {
	value, err := tx.Get(key)
	if errors.Is(err, buntdb.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	var sub core.Subscription
	if err := json.Unmarshal([]byte(value), &sub); err != nil {
		return fmt.Errorf("failed to unmarshal subscription %s: %w", key, err)
	}
	if !sub.Active {
		return nil
	}

	sub.Active = false
	sub.UpdatedAt = time.Now()

	content, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription: %w", err)
	}

	_, _, err = tx.Set(key, string(content), nil)
	return err
}

func (b *BuntStorage) list(filter func(core.Subscription) bool) ([]*core.Subscription, error) {
	subs := make([]*core.Subscription, 0)

	err := b.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend(updateIndexName, func(key, value string) bool {
			var sub core.Subscription
			if err := json.Unmarshal([]byte(value), &sub); err != nil {
				// Skip the corrupted record and keep scanning.
				return true
			}
			if filter(sub) {
				subs = append(subs, &sub)
			}
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}

	return subs, nil
}
