package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Pizceda/cryptowatch/core"
)

const (
	defaultCoinGeckoURL  = "https://api.coingecko.com/api/v3"
	defaultSourceTimeout = 10 * time.Second
)

// DefaultCoinIDs maps instrument symbols to CoinGecko coin IDs.
var DefaultCoinIDs = map[string]string{
	"TON":  "toncoin",
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"BNB":  "binancecoin",
	"SOL":  "solana",
	"ADA":  "cardano",
	"DOGE": "dogecoin",
}

// DefaultCurrencies are the target currencies accepted from users.
var DefaultCurrencies = []string{"rub", "usd", "eur", "kzt", "uah", "byn"}

// SupportedSymbol reports whether the instrument is known to the price sources.
func SupportedSymbol(symbol string) bool {
	_, ok := DefaultCoinIDs[strings.ToUpper(symbol)]
	return ok
}

// SupportedCurrency reports whether the target currency is accepted.
func SupportedCurrency(currency string) bool {
	currency = strings.ToLower(currency)
	for _, c := range DefaultCurrencies {
		if c == currency {
			return true
		}
	}
	return false
}

// ValidateInstrument checks a user-supplied symbol/currency pair against the
// supported sets.
func ValidateInstrument(symbol, currency string) error {
	if !SupportedSymbol(symbol) {
		return fmt.Errorf("%w: %s", core.ErrUnknownSymbol, symbol)
	}
	if !SupportedCurrency(currency) {
		return fmt.Errorf("%w: %s", core.ErrUnknownCurrency, currency)
	}
	return nil
}

// CoinGecko quotes instruments directly in the requested currency through
// the simple price endpoint.
type CoinGecko struct {
	baseURL string
	coinIDs map[string]string
	client  *http.Client
}

func NewCoinGecko(timeout time.Duration) *CoinGecko {
	if timeout <= 0 {
		timeout = defaultSourceTimeout
	}
	return &CoinGecko{
		baseURL: defaultCoinGeckoURL,
		coinIDs: DefaultCoinIDs,
		client:  &http.Client{Timeout: timeout},
	}
}

func (g *CoinGecko) Name() string { return "coingecko" }

// Fetch implements Source.
func (g *CoinGecko) Fetch(ctx context.Context, symbol, currency string) (float64, error) {
	id, ok := g.coinIDs[strings.ToUpper(symbol)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", core.ErrUnknownSymbol, symbol)
	}
	currency = strings.ToLower(currency)

	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=%s", g.baseURL, id, currency)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	price, ok := payload[id][currency]
	if !ok {
		return 0, fmt.Errorf("no %s quote for %s in response", currency, id)
	}
	return price, nil
}
