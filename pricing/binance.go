package pricing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Pizceda/cryptowatch/core"

	"github.com/adshao/go-binance/v2"
)

// DefaultPairs maps instrument symbols to their Binance USDT trading pairs.
// The exchange quotes in USD terms only; conversion into the requested
// currency happens afterwards.
var DefaultPairs = map[string]string{
	"TON":  "TONUSDT",
	"BTC":  "BTCUSDT",
	"ETH":  "ETHUSDT",
	"BNB":  "BNBUSDT",
	"SOL":  "SOLUSDT",
	"ADA":  "ADAUSDT",
	"DOGE": "DOGEUSDT",
}

// Binance quotes the instrument's USDT pair and converts the USD price into
// the requested currency. An instrument without a mapped pair yields no
// price from this source.
type Binance struct {
	client    *binance.Client
	pairs     map[string]string
	converter *Converter
	timeout   time.Duration
}

func NewBinance(converter *Converter, timeout time.Duration) *Binance {
	if timeout <= 0 {
		timeout = defaultSourceTimeout
	}
	return &Binance{
		client:    binance.NewClient("", ""),
		pairs:     DefaultPairs,
		converter: converter,
		timeout:   timeout,
	}
}

func (b *Binance) Name() string { return "binance" }

// Fetch implements Source.
func (b *Binance) Fetch(ctx context.Context, symbol, currency string) (float64, error) {
	pair, ok := b.pairs[strings.ToUpper(symbol)]
	if !ok {
		return 0, fmt.Errorf("%w: no trading pair for %s", core.ErrUnknownSymbol, symbol)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	prices, err := b.client.NewListPricesService().Symbol(pair).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get ticker price for %s: %w", pair, err)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("empty ticker response for %s", pair)
	}

	usd, err := strconv.ParseFloat(prices[0].Price, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed price %q: %w", prices[0].Price, err)
	}

	rate, ok := b.converter.Rate(ctx, currency)
	if !ok {
		// No conversion table for this currency; the source has no price to
		// offer rather than a mislabeled USD one.
		return 0, fmt.Errorf("%w: %s", core.ErrUnknownCurrency, currency)
	}
	return usd * rate, nil
}
