package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/Pizceda/cryptowatch/logger"
)

// Source is a single external price provider. Implementations return an
// error for any failure (timeout, bad status, malformed body, unmapped
// symbol); the resolver decides what to do with it.
type Source interface {
	Name() string
	Fetch(ctx context.Context, symbol, currency string) (float64, error)
}

// Resolver answers price lookups by walking sources in priority order,
// serving from cache per source key when fresh. It implements
// core.PriceFeeder: source failures are swallowed, and the only failure mode
// is absence once every source has been exhausted.
type Resolver struct {
	sources []Source
	cache   *Cache
	log     logger.Logger
}

func NewResolver(cache *Cache, log logger.Logger, sources ...Source) *Resolver {
	return &Resolver{
		sources: sources,
		cache:   cache,
		log:     log,
	}
}

// Price implements core.PriceFeeder. Concurrent calls for different keys
// overlap freely; concurrent misses on one cold key may each hit the network
// before the first result lands, which is accepted as a minor inefficiency.
func (r *Resolver) Price(ctx context.Context, symbol, currency string) (float64, bool) {
	symbol = strings.ToUpper(symbol)
	currency = strings.ToLower(currency)

	for _, src := range r.sources {
		key := sourceKey(src.Name(), symbol, currency)
		if price, ok := r.cache.Get(key); ok {
			return price, true
		}

		price, err := src.Fetch(ctx, symbol, currency)
		if err != nil {
			r.log.WithError(err).WithFields(map[string]any{
				"source":   src.Name(),
				"symbol":   symbol,
				"currency": currency,
			}).Debug("price source failed")
			continue
		}

		r.cache.Put(key, price)
		return price, true
	}

	return 0, false
}

func sourceKey(source, symbol, currency string) string {
	return fmt.Sprintf("%s_%s_%s", source, strings.ToLower(symbol), currency)
}
