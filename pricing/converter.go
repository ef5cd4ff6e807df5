package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Pizceda/cryptowatch/logger"
)

const (
	rateCacheKey = "usd_rub"

	// FallbackUSDRUB is served when every live rate source fails. It is an
	// approximation and drifts over time; callers still get a usable
	// conversion instead of an absence.
	FallbackUSDRUB = 95.0

	defaultRateTimeout = 5 * time.Second
)

// defaultRateSources are tried in order; the first well-formed rate wins.
var defaultRateSources = []string{
	"https://api.exchangerate-api.com/v4/latest/USD",
	"https://api.coingecko.com/api/v3/simple/price?ids=usd&vs_currencies=rub",
}

// StaticRates are fixed USD multipliers for currencies without a live rate
// source. They are known-stale approximations, not a live feed; only RUB is
// converted through live sources.
var StaticRates = map[string]float64{
	"eur": 0.92,
	"kzt": 450.0,
	"uah": 38.0,
	"byn": 2.5,
}

// Converter resolves USD-to-fiat exchange rates.
type Converter struct {
	cache   *Cache
	client  *http.Client
	sources []string
	log     logger.Logger
}

func NewConverter(cache *Cache, timeout time.Duration, log logger.Logger) *Converter {
	if timeout <= 0 {
		timeout = defaultRateTimeout
	}
	return &Converter{
		cache:   cache,
		client:  &http.Client{Timeout: timeout},
		sources: defaultRateSources,
		log:     log,
	}
}

// Rate returns the USD-to-currency multiplier. The boolean reports whether
// the currency is supported at all; RUB always succeeds, degrading to
// FallbackUSDRUB when no live source answers.
func (c *Converter) Rate(ctx context.Context, currency string) (float64, bool) {
	switch currency = strings.ToLower(currency); currency {
	case "usd":
		return 1, true
	case "rub":
		return c.usdToRUB(ctx), true
	}

	rate, ok := StaticRates[currency]
	return rate, ok
}

// usdToRUB walks the rate sources in priority order. Conversion to RUB never
// reports absence: exhausting every source yields the documented constant,
// which is cached like a live result so the next TTL window skips the
// network entirely.
func (c *Converter) usdToRUB(ctx context.Context) float64 {
	if rate, ok := c.cache.Get(rateCacheKey); ok {
		return rate
	}

	for _, url := range c.sources {
		rate, err := c.fetchRate(ctx, url)
		if err != nil {
			c.log.WithError(err).WithField("url", url).Warn("rate source failed")
			continue
		}

		c.cache.Put(rateCacheKey, rate)
		return rate
	}

	c.log.Warnf("all rate sources failed, using fallback rate %.1f", FallbackUSDRUB)
	c.cache.Put(rateCacheKey, FallbackUSDRUB)
	return FallbackUSDRUB
}

func (c *Converter) fetchRate(ctx context.Context, url string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}

	rate, ok := parseRate(body)
	if !ok {
		return 0, fmt.Errorf("unrecognized rate payload")
	}
	return rate, nil
}

// parseRate accepts the shapes returned by the supported rate APIs:
// {"rates":{"RUB":n}}, {"usd":{"rub":n}} and the flat {"rub":n}. Anything
// else counts as a source failure, never a hard error.
func parseRate(body []byte) (float64, bool) {
	var payload struct {
		Rates map[string]float64 `json:"rates"`
		USD   map[string]float64 `json:"usd"`
		RUB   float64            `json:"rub"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, false
	}

	if rate, ok := payload.Rates["RUB"]; ok && rate > 0 {
		return rate, true
	}
	if rate, ok := payload.USD["rub"]; ok && rate > 0 {
		return rate, true
	}
	if payload.RUB > 0 {
		return payload.RUB, true
	}
	return 0, false
}
