package core

import (
	"fmt"
	"time"
)

// Subscription is a single price watch: it fires once when the instrument's
// price in the target currency falls to or below TargetPrice, after which it
// is retired. A user holds at most one subscription per symbol/currency pair.
type Subscription struct {
	UserID      int64     `json:"user_id" gorm:"primaryKey;autoIncrement:false"`
	Symbol      string    `json:"symbol" gorm:"primaryKey"`
	Currency    string    `json:"currency" gorm:"primaryKey"`
	TargetPrice float64   `json:"target_price"`
	Active      bool      `json:"active"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Key returns the storage key identifying this subscription.
func (s Subscription) Key() string {
	return SubscriptionKey(s.UserID, s.Symbol, s.Currency)
}

func SubscriptionKey(userID int64, symbol, currency string) string {
	return fmt.Sprintf("%d:%s:%s", userID, symbol, currency)
}
