package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTimeout       = 10 * time.Second
	defaultAttempts      = 3
	defaultBackoff       = 2 * time.Second
	defaultRetryAfter    = 60 * time.Second
	defaultMaxRetryAfter = 30 * time.Second
	maxResponseBytes     = 8 << 20
)

var (
	// ErrNotConfigured is returned by clients whose credentials are absent.
	ErrNotConfigured = errors.New("provider not configured")
	// ErrMalformed marks a response body that could not be decoded.
	ErrMalformed = errors.New("malformed payload")
)

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Provider   string
	Code       int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Provider, e.Code, e.Body)
}

// RequestObserver receives one call per upstream attempt.
type RequestObserver interface {
	ObserveUpstream(provider, outcome string, elapsed time.Duration)
}

// Option customizes a provider client.
type Option func(*upstream)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(u *upstream) {
		if c != nil {
			u.client = c
		}
	}
}

// WithBaseURL points the client at another host, mostly for tests.
func WithBaseURL(base string) Option {
	return func(u *upstream) {
		u.baseURL = strings.TrimRight(base, "/")
	}
}

// WithObserver attaches a request observer such as the Prometheus recorder.
func WithObserver(o RequestObserver) Option {
	return func(u *upstream) { u.observer = o }
}

// WithRetry sets the attempt budget and the fixed backoff between attempts.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(u *upstream) {
		if attempts < 1 {
			attempts = 1
		}
		u.maxAttempts = attempts
		u.backoff = backoff
	}
}

// WithMaxRetryAfter caps how long a 429 Retry-After header may stall a call.
func WithMaxRetryAfter(d time.Duration) Option {
	return func(u *upstream) { u.maxRetryAfter = d }
}

// WithPace sets the fixed delay between sequential calls of a batch operation.
func WithPace(d time.Duration) Option {
	return func(u *upstream) { u.pace = d }
}

// WithRateLimiter overrides the provider's default token bucket.
func WithRateLimiter(l *RateLimiter) Option {
	return func(u *upstream) { u.limiter = l }
}

// WithSleeper replaces the wait used between retries and paced calls.
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(u *upstream) {
		if fn != nil {
			u.sleep = fn
		}
	}
}

// upstream is the transport every provider client shares: rate limit, breaker,
// bounded retry and one span per logical request.
type upstream struct {
	name          string
	baseURL       string
	client        *http.Client
	tracer        trace.Tracer
	limiter       *RateLimiter
	breaker       *gobreaker.CircuitBreaker
	observer      RequestObserver
	headers       http.Header
	maxAttempts   int
	backoff       time.Duration
	maxRetryAfter time.Duration
	pace          time.Duration
	sleep         func(ctx context.Context, d time.Duration) error
}

func newUpstream(name, baseURL string, tracer trace.Tracer, limiter *RateLimiter, opts []Option) *upstream {
	u := &upstream{
		name:          name,
		baseURL:       baseURL,
		client:        &http.Client{Timeout: defaultTimeout},
		tracer:        tracer,
		limiter:       limiter,
		headers:       make(http.Header),
		maxAttempts:   defaultAttempts,
		backoff:       defaultBackoff,
		maxRetryAfter: defaultMaxRetryAfter,
		sleep:         sleepContext,
	}
	u.headers.Set("Accept", "application/json")
	for _, opt := range opts {
		opt(u)
	}
	u.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: breakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("provider", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	return u
}

// get performs a GET against baseURL+path and returns the raw body.
func (u *upstream) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := u.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return u.getURL(ctx, endpoint)
}

func (u *upstream) getURL(ctx context.Context, endpoint string) ([]byte, error) {
	ctx, span := u.tracer.Start(ctx, u.name+".request", trace.WithAttributes(
		attribute.String("http.url", endpoint),
	))
	defer span.End()

	var lastErr error
	for attempt := 1; attempt <= u.maxAttempts; attempt++ {
		body, err := u.attempt(ctx, endpoint)
		if err == nil {
			span.SetAttributes(attribute.Int("http.attempts", attempt))
			return body, nil
		}
		lastErr = err
		if attempt == u.maxAttempts || !retryable(err) {
			break
		}

		wait := u.backoff
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusTooManyRequests {
			wait = se.RetryAfter
			if wait <= 0 {
				wait = defaultRetryAfter
			}
			if u.maxRetryAfter > 0 && wait > u.maxRetryAfter {
				wait = u.maxRetryAfter
			}
		}
		log.Warn().Err(err).Str("provider", u.name).Int("attempt", attempt).Dur("wait", wait).Msg("upstream request failed, retrying")
		if err := u.sleep(ctx, wait); err != nil {
			lastErr = err
			break
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())
	return nil, lastErr
}

func (u *upstream) attempt(ctx context.Context, endpoint string) ([]byte, error) {
	if err := u.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	out, err := u.breaker.Execute(func() (interface{}, error) {
		return u.do(ctx, endpoint)
	})
	u.observe(outcomeOf(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}

func (u *upstream) do(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	for k, vals := range u.headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Provider:   u.name,
			Code:       resp.StatusCode,
			Body:       truncate(string(body), 200),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	return body, nil
}

// getJSON fetches and decodes into v. Decode failures wrap ErrMalformed.
func (u *upstream) getJSON(ctx context.Context, path string, query url.Values, v any) error {
	body, err := u.get(ctx, path, query)
	if err != nil {
		return err
	}
	return decode(body, v)
}

// report logs a boundary failure at the level its kind deserves.
func (u *upstream) report(op string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, ErrMalformed) {
		log.Error().Err(err).Str("provider", u.name).Str("op", op).Msg("malformed upstream payload")
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	log.Warn().Err(err).Str("provider", u.name).Str("op", op).Msg("upstream unavailable")
}

func (u *upstream) observe(outcome string, elapsed time.Duration) {
	if u.observer != nil {
		u.observer.ObserveUpstream(u.name, outcome, elapsed)
	}
}

// wait pauses for the configured pace, returning early on cancellation.
func (u *upstream) wait(ctx context.Context) error {
	return u.sleep(ctx, u.pace)
}

func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return true
}

// breakerSuccess keeps client errors other than 429 from tripping the breaker.
func breakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 400 && se.Code < 500 && se.Code != http.StatusTooManyRequests
	}
	return false
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "breaker_open"
	}
	var se *StatusError
	if errors.As(err, &se) {
		if se.Code == http.StatusTooManyRequests {
			return "rate_limited"
		}
		return "http_" + strconv.Itoa(se.Code)
	}
	return "error"
}

func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
