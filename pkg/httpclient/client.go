package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

// Config describes one outbound dependency.
type Config struct {
	// Name labels the breaker in logs and metrics ("razorpay", "cloudinary").
	Name    string
	BaseURL string

	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// Breaker trips once MinRequests have been seen in Interval and at
	// least FailureRatio of them failed. It stays open for OpenTimeout.
	MinRequests  uint32
	FailureRatio float64
	Interval     time.Duration
	OpenTimeout  time.Duration

	// Jar, when set, keeps cookies between calls.
	Jar http.CookieJar
}

// DefaultConfig returns conservative settings for a third-party API.
func DefaultConfig(name, baseURL string) Config {
	return Config{
		Name:         name,
		BaseURL:      baseURL,
		Timeout:      15 * time.Second,
		MaxRetries:   2,
		RetryWaitMin: 200 * time.Millisecond,
		RetryWaitMax: 2 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.5,
		Interval:     time.Minute,
		OpenTimeout:  30 * time.Second,
	}
}

// ErrCircuitOpen is returned without contacting the dependency while the
// breaker is open.
var ErrCircuitOpen = gobreaker.ErrOpenState

// ServerError is a 5xx answer. It counts as a breaker failure.
type ServerError struct {
	Status int
	Body   []byte
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Status, e.Body)
}

var breakerState = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "storefront_http_client_breaker_state",
		Help: "Circuit breaker state per dependency (0=closed, 1=half-open, 2=open).",
	},
	[]string{"dependency"},
)

func init() {
	prometheus.MustRegister(breakerState)
}

// Client is an HTTP client with bounded retries behind a circuit breaker.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	logger  *slog.Logger
}

// New creates a Client. A zero MaxRetries disables retries.
func New(cfg Config, logger *slog.Logger) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 20

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < cfg.MinRequests {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			// Cancellation by our own caller says nothing about the dependency.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("dependency", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	breakerState.WithLabelValues(cfg.Name).Set(float64(gobreaker.StateClosed))

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Transport: transport, Timeout: cfg.Timeout, Jar: cfg.Jar},
		breaker: breaker,
		logger:  logger,
	}
}

// State reports the breaker state.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

// Do sends req through the breaker. A 5xx answer is returned as *ServerError
// with the body drained; any other status is handed back to the caller.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.doWithRetry(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			_ = resp.Body.Close()
			return nil, &ServerError{Status: resp.StatusCode, Body: body}
		}
		return resp, nil
	})
}

func (c *Client) doWithRetry(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	retries := 0
	if replayable(req) {
		retries = c.cfg.MaxRetries
	}

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			if err := c.rewind(req); err != nil {
				return nil, err
			}
			select {
			case <-time.After(c.backoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := c.http.Do(req)
		switch {
		case err != nil:
			if attempt < retries && isRetryableError(err) {
				c.logger.DebugContext(ctx, "retrying request", slog.String("dependency", c.cfg.Name), slog.Int("attempt", attempt+1), slog.String("error", err.Error()))
				continue
			}
			return nil, fmt.Errorf("%s: %w", c.cfg.Name, err)
		case resp.StatusCode >= 500 && resp.StatusCode != http.StatusNotImplemented && attempt < retries:
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			continue
		default:
			return resp, nil
		}
	}
}

// replayable requests may be sent more than once: idempotent methods, and
// POSTs carrying an Idempotency-Key, provided the body can be rewound.
func replayable(req *http.Request) bool {
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return false
	}
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	}
	return req.Header.Get("Idempotency-Key") != ""
}

func (c *Client) rewind(req *http.Request) error {
	if req.GetBody == nil {
		return nil
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Errorf("rewind request body: %w", err)
	}
	req.Body = body
	return nil
}

func (c *Client) backoff(attempt int) time.Duration {
	wait := c.cfg.RetryWaitMin << (attempt - 1)
	if c.cfg.RetryWaitMax > 0 && wait > c.cfg.RetryWaitMax {
		wait = c.cfg.RetryWaitMax
	}
	return addJitter(wait)
}

// addJitter spreads d by ±25%.
func addJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	spread := float64(d) * 0.25
	return d + time.Duration(spread*(2*rand.Float64()-1)) // #nosec G404 -- jitter only
}

func isRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
