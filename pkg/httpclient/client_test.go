package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(name, baseURL string) Config {
	cfg := DefaultConfig(name, baseURL)
	cfg.Timeout = 2 * time.Second
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 5 * time.Millisecond
	return cfg
}

// ============================================================================
// Retries
// ============================================================================

func TestDo_RetriesIdempotentRequestOn5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(testConfig("test-retry", srv.URL), testLogger())
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_DoesNotRetryPlainPost(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(testConfig("test-post", srv.URL), testLogger())
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, srv.URL, strings.NewReader(`{}`))

	_, err := c.Do(req)

	var se *ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.Status)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_RetriesPostWithIdempotencyKeyAndReplaysBody(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"amount":300}`, string(body))
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := New(testConfig("test-idem", srv.URL), testLogger())
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, srv.URL, strings.NewReader(`{"amount":300}`))
	req.Header.Set("Idempotency-Key", "k-1")

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDo_4xxIsReturnedWithoutRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(testConfig("test-4xx", srv.URL), testLogger())
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := New(testConfig("test-cancel", srv.URL), testLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)

	_, err := c.Do(req)
	assert.Error(t, err)
}

// ============================================================================
// Circuit breaker
// ============================================================================

func TestDo_BreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig("test-breaker", srv.URL)
	cfg.MaxRetries = 0
	cfg.MinRequests = 2
	cfg.OpenTimeout = time.Minute
	c := New(cfg, testLogger())

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
		_, err := c.Do(req)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, c.State())

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	_, err := c.Do(req)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDo_ClientErrorsDoNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	cfg := testConfig("test-breaker-4xx", srv.URL)
	cfg.MinRequests = 1
	c := New(cfg, testLogger())

	for i := 0; i < 5; i++ {
		req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
		resp, err := c.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.Equal(t, gobreaker.StateClosed, c.State())
}

// ============================================================================
// DoJSON
// ============================================================================

func TestDoJSON_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/orders", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)

		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.EqualValues(t, 30000, in["amount"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_1"}`))
	}))
	defer srv.Close()

	c := New(testConfig("test-json", srv.URL+"/"), testLogger())

	var out struct {
		ID string `json:"id"`
	}
	err := c.DoJSON(context.Background(), http.MethodPost, "/v1/orders",
		map[string]any{"amount": 30000}, &out, WithBasicAuth("key", "secret"))

	require.NoError(t, err)
	assert.Equal(t, "order_1", out.ID)
}

func TestDoJSON_TranslatesErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		code     string
	}{
		{"structured conflict", http.StatusConflict, `{"error":{"code":"PRICE_CHANGED","message":"price moved"}}`, apperrors.ErrConflict, "PRICE_CHANGED"},
		{"provider bad request", http.StatusBadRequest, `{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`, apperrors.ErrInvalidInput, "BAD_REQUEST_ERROR"},
		{"unstructured 401", http.StatusUnauthorized, `nope`, apperrors.ErrUnauthorized, "UNAUTHORIZED"},
		{"server error", http.StatusInternalServerError, `boom`, apperrors.ErrServiceUnavail, "SERVICE_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			cfg := testConfig("dep-"+tt.name, srv.URL)
			cfg.MaxRetries = 0
			c := New(cfg, testLogger())

			err := c.DoJSON(context.Background(), http.MethodGet, "/x", nil, nil)

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}

func TestDoJSON_NoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(testConfig("test-204", srv.URL), testLogger())
	var out map[string]any

	require.NoError(t, c.DoJSON(context.Background(), http.MethodDelete, "/x", nil, &out))
	assert.Nil(t, out)
}

// ============================================================================
// Helpers
// ============================================================================

func TestAddJitter(t *testing.T) {
	assert.Equal(t, time.Duration(0), addJitter(0))
	for i := 0; i < 50; i++ {
		d := addJitter(time.Second)
		assert.GreaterOrEqual(t, d, 750*time.Millisecond)
		assert.LessOrEqual(t, d, 1250*time.Millisecond)
	}
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.False(t, isRetryableError(context.Canceled))
	assert.False(t, isRetryableError(errors.New("plain")))
}

func TestURL(t *testing.T) {
	c := New(testConfig("test-url", "https://api.example.com/"), testLogger())
	assert.Equal(t, "https://api.example.com/v1/orders", c.URL("/v1/orders"))
	assert.Equal(t, "https://api.example.com/v1/orders", c.URL("v1/orders"))
}
