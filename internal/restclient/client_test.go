package restclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient wires a client against a fake server with a fast limiter
// and short backoff so the retry paths run in milliseconds.
func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *int64) {
	t.Helper()
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	base := []Option{
		WithRateLimit(1000),
		WithRetry(3, 5*time.Millisecond),
		WithStore(NewMemStore()),
	}
	c, err := New(srv.URL, append(base, opts...)...)
	require.NoError(t, err)
	return c, &calls
}

func jsonOK(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func TestGetReturnsBody(t *testing.T) {
	c, calls := newTestClient(t, jsonOK(`{"id":"ENSG00000130766"}`))

	data, err := c.Get(context.Background(), "/lookup/id/ENSG00000130766", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"ENSG00000130766"}`, string(data))
	assert.EqualValues(t, 1, atomic.LoadInt64(calls))
}

func TestCacheIdempotence(t *testing.T) {
	c, calls := newTestClient(t, jsonOK(`{"seq":"ATG"}`))

	first, err := c.Get(context.Background(), "/sequence/id/ENST00000253063", nil)
	require.NoError(t, err)

	second, err := c.Get(context.Background(), "/sequence/id/ENST00000253063", nil)
	require.NoError(t, err)

	// Byte-identical replay with zero additional network calls.
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, atomic.LoadInt64(calls))
}

func TestCacheBypass(t *testing.T) {
	c, calls := newTestClient(t, jsonOK(`{}`))

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Endpoint: "/x", NoCache: true})
	require.NoError(t, err)
	_, err = c.Do(context.Background(), Request{Method: http.MethodGet, Endpoint: "/x", NoCache: true})
	require.NoError(t, err)

	assert.EqualValues(t, 2, atomic.LoadInt64(calls))
}

func TestCacheDisabledClientWide(t *testing.T) {
	c, calls := newTestClient(t, jsonOK(`{}`), WithCacheEnabled(false))

	for i := 0; i < 2; i++ {
		_, err := c.Get(context.Background(), "/x", nil)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 2, atomic.LoadInt64(calls))
}

func TestRateLimiterSpacing(t *testing.T) {
	// 50 rps: three uncached calls must span at least 2/50 = 40ms.
	c, _ := newTestClient(t, jsonOK(`{}`), WithRateLimit(50), WithCacheEnabled(false))

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.Get(context.Background(), "/x", nil)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestCacheHitSkipsLimiter(t *testing.T) {
	// A pathologically slow limiter would stall a second call unless the
	// cached path bypasses it entirely.
	c, _ := newTestClient(t, jsonOK(`{}`), WithRateLimit(0.2))

	_, err := c.Get(context.Background(), "/y", nil)
	require.NoError(t, err)

	start := time.Now()
	_, err = c.Get(context.Background(), "/y", nil)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 1*time.Second)
}

func TestServerErrorExhaustsBudget(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	data, err := c.Get(context.Background(), "/broken", nil)
	assert.Error(t, err)
	assert.Nil(t, data)
	assert.EqualValues(t, 3, atomic.LoadInt64(calls))
}

func TestNotFoundShortCircuits(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	data, err := c.Get(context.Background(), "/missing", nil)
	assert.Error(t, err)
	assert.Nil(t, data)
	assert.EqualValues(t, 1, atomic.LoadInt64(calls))
}

func TestRateLimitedThenSucceeds(t *testing.T) {
	var n int64
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&n, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	})

	data, err := c.Get(context.Background(), "/throttled", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))
	assert.EqualValues(t, 2, atomic.LoadInt64(calls))
}

func TestBackoffGrowth(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, WithRetry(3, 20*time.Millisecond))

	start := time.Now()
	_, err := c.Get(context.Background(), "/flaky", nil)
	elapsed := time.Since(start)

	assert.Error(t, err)
	// Two backoff sleeps: 20ms then 40ms. No sleep after the final attempt.
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestTransportErrorRetries(t *testing.T) {
	// Point at a closed port: every attempt is a connection error.
	c, err := New("http://127.0.0.1:1",
		WithRateLimit(1000),
		WithRetry(2, time.Millisecond),
		WithStore(NewMemStore()))
	require.NoError(t, err)

	data, derr := c.Get(context.Background(), "/", nil)
	assert.Error(t, derr)
	assert.Nil(t, data)
}

func TestContextCancelStopsRetries(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, WithRetry(5, 200*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Get(ctx, "/slow", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPostCachesBySignature(t *testing.T) {
	c, calls := newTestClient(t, jsonOK(`[{"query":"rs1"}]`))

	body := map[string]string{"ids": "rs1", "fields": "gnomad_genome"}
	first, err := c.Post(context.Background(), "/variant", nil, body)
	require.NoError(t, err)
	second, err := c.Post(context.Background(), "/variant", nil, body)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, atomic.LoadInt64(calls))

	// A different body is a different signature.
	_, err = c.Post(context.Background(), "/variant", nil, map[string]string{"ids": "rs2"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt64(calls))
}

func TestDistinctParamsDistinctSignatures(t *testing.T) {
	c, calls := newTestClient(t, jsonOK(`{}`))

	_, err := c.Get(context.Background(), "/overlap", url.Values{"feature": {"variation"}})
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "/overlap", url.Values{"feature": {"transcript"}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt64(calls))
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := New("http://example.org", WithRateLimit(0))
	assert.Error(t, err)

	_, err = New("http://example.org", WithRetry(0, time.Second))
	assert.Error(t, err)
}
