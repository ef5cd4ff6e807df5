package pricing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Pizceda/cryptowatch/core"

	"github.com/stretchr/testify/require"
)

type stubSource struct {
	name  string
	price float64
	err   error
	calls int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(_ context.Context, _, _ string) (float64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.price, nil
}

func TestResolver_PriorityOrderRespected(t *testing.T) {
	primary := &stubSource{name: "coingecko", price: 60000}
	secondary := &stubSource{name: "binance", price: 60100}
	resolver := NewResolver(NewCache(time.Minute), testLogger(), primary, secondary)

	price, ok := resolver.Price(context.Background(), "BTC", "usd")
	require.True(t, ok)
	require.Equal(t, 60000.0, price)
	require.Equal(t, 1, primary.calls)
	require.Zero(t, secondary.calls)
}

func TestResolver_FallsBackToSecondSource(t *testing.T) {
	primary := &stubSource{name: "coingecko", err: errors.New("unexpected status 500")}
	secondary := &stubSource{name: "binance", price: 3000}
	cache := NewCache(time.Minute)
	resolver := NewResolver(cache, testLogger(), primary, secondary)

	price, ok := resolver.Price(context.Background(), "ETH", "usd")
	require.True(t, ok)
	require.Equal(t, 3000.0, price)

	cached, ok := cache.Get("binance_eth_usd")
	require.True(t, ok)
	require.Equal(t, 3000.0, cached)
}

func TestResolver_AbsenceWhenAllSourcesFail(t *testing.T) {
	primary := &stubSource{name: "coingecko", err: errors.New("timeout")}
	secondary := &stubSource{name: "binance", err: errors.New("timeout")}
	resolver := NewResolver(NewCache(time.Minute), testLogger(), primary, secondary)

	_, ok := resolver.Price(context.Background(), "BTC", "usd")
	require.False(t, ok)
	require.Equal(t, 1, primary.calls)
	require.Equal(t, 1, secondary.calls)
}

func TestResolver_ServedFromCacheWithinTTL(t *testing.T) {
	src := &stubSource{name: "coingecko", price: 42.5}
	resolver := NewResolver(NewCache(time.Minute), testLogger(), src)

	for i := 0; i < 3; i++ {
		price, ok := resolver.Price(context.Background(), "ADA", "rub")
		require.True(t, ok)
		require.Equal(t, 42.5, price)
	}
	require.Equal(t, 1, src.calls)
}

// Covers the end-to-end fallback: CoinGecko answers 500, Binance quotes the
// USDT pair and the USD target needs no conversion.
func TestResolver_HTTPSourceFallback(t *testing.T) {
	geckoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer geckoSrv.Close()

	binanceSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v3/ticker/price", r.URL.Path)
		require.Equal(t, "ETHUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"symbol":"ETHUSDT","price":"3000.00"}`))
	}))
	defer binanceSrv.Close()

	cache := NewCache(time.Minute)

	gecko := NewCoinGecko(time.Second)
	gecko.baseURL = geckoSrv.URL

	converter := NewConverter(cache, time.Second, testLogger())
	bin := NewBinance(converter, time.Second)
	bin.client.BaseURL = binanceSrv.URL

	resolver := NewResolver(cache, testLogger(), gecko, bin)

	price, ok := resolver.Price(context.Background(), "ETH", "usd")
	require.True(t, ok)
	require.Equal(t, 3000.0, price)

	cached, ok := cache.Get("binance_eth_usd")
	require.True(t, ok)
	require.Equal(t, 3000.0, cached)
}

func TestValidateInstrument(t *testing.T) {
	require.NoError(t, ValidateInstrument("btc", "USD"))
	require.ErrorIs(t, ValidateInstrument("XMR", "usd"), core.ErrUnknownSymbol)
	require.ErrorIs(t, ValidateInstrument("BTC", "gbp"), core.ErrUnknownCurrency)
}

func TestCoinGecko_UnmappedSymbol(t *testing.T) {
	gecko := NewCoinGecko(time.Second)

	_, err := gecko.Fetch(context.Background(), "XMR", "usd")
	require.Error(t, err)
}

func TestBinance_UnmappedSymbol(t *testing.T) {
	converter := NewConverter(NewCache(time.Minute), time.Second, testLogger())
	bin := NewBinance(converter, time.Second)

	_, err := bin.Fetch(context.Background(), "XMR", "usd")
	require.Error(t, err)
}

func TestBinance_UnsupportedCurrencyIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"symbol":"ETHUSDT","price":"3000.00"}`))
	}))
	defer srv.Close()

	converter := NewConverter(NewCache(time.Minute), time.Second, testLogger())
	bin := NewBinance(converter, time.Second)
	bin.client.BaseURL = srv.URL

	// A quote exists, but without a conversion rate the source must not hand
	// back the raw USD price labeled as the requested currency.
	_, err := bin.Fetch(context.Background(), "ETH", "gbp")
	require.ErrorIs(t, err, core.ErrUnknownCurrency)
}
