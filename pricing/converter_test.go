package pricing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Pizceda/cryptowatch/logger"
	adapter "github.com/Pizceda/cryptowatch/logger/zerolog"

	zl "github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testLogger() logger.Logger {
	l := zl.Nop()
	return adapter.NewAdapter(&l)
}

func newTestConverter(t *testing.T, sources ...string) *Converter {
	t.Helper()
	conv := NewConverter(NewCache(time.Minute), time.Second, testLogger())
	if len(sources) > 0 {
		conv.sources = sources
	}
	return conv
}

func TestConverter_USDRate(t *testing.T) {
	conv := newTestConverter(t)

	rate, ok := conv.Rate(context.Background(), "USD")
	require.True(t, ok)
	require.Equal(t, 1.0, rate)
}

func TestConverter_StaticRates(t *testing.T) {
	conv := newTestConverter(t)

	rate, ok := conv.Rate(context.Background(), "eur")
	require.True(t, ok)
	require.Equal(t, 0.92, rate)

	_, ok = conv.Rate(context.Background(), "gbp")
	require.False(t, ok)
}

func TestConverter_RUBNestedRatesShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"base":"USD","rates":{"RUB":93.5,"EUR":0.91}}`))
	}))
	defer srv.Close()

	conv := newTestConverter(t, srv.URL)

	rate, ok := conv.Rate(context.Background(), "rub")
	require.True(t, ok)
	require.Equal(t, 93.5, rate)
}

func TestConverter_RUBFlatShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"usd":{"rub":92.25}}`))
	}))
	defer srv.Close()

	conv := newTestConverter(t, srv.URL)

	rate, ok := conv.Rate(context.Background(), "rub")
	require.True(t, ok)
	require.Equal(t, 92.25, rate)
}

func TestConverter_SecondSourceWins(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	working := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"usd":{"rub":90.0}}`))
	}))
	defer working.Close()

	conv := newTestConverter(t, broken.URL, working.URL)

	rate, ok := conv.Rate(context.Background(), "rub")
	require.True(t, ok)
	require.Equal(t, 90.0, rate)
}

func TestConverter_FallbackConstantIsCached(t *testing.T) {
	var calls atomic.Int32
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Write([]byte(`not json`))
	}))
	defer broken.Close()

	conv := newTestConverter(t, broken.URL, broken.URL)

	rate, ok := conv.Rate(context.Background(), "rub")
	require.True(t, ok)
	require.Equal(t, FallbackUSDRUB, rate)
	require.Equal(t, int32(2), calls.Load())

	// Second call within the TTL window hits the cache, not the network.
	rate, ok = conv.Rate(context.Background(), "rub")
	require.True(t, ok)
	require.Equal(t, FallbackUSDRUB, rate)
	require.Equal(t, int32(2), calls.Load())
}

func TestParseRate_UnrecognizedPayload(t *testing.T) {
	_, ok := parseRate([]byte(`{"result":"ok"}`))
	require.False(t, ok)

	_, ok = parseRate([]byte(`[1,2,3]`))
	require.False(t, ok)
}
