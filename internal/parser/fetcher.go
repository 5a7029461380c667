package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "Mozilla/5.0 (compatible; GoHttpClient/1.0)"

// FetcherOptions tune the HTTP search capability.
type FetcherOptions struct {
	Client        *http.Client  // Client defaults to an http.Client with Timeout.
	Timeout       time.Duration // Timeout bounds one request.
	Rate          float64       // Rate is the allowed number of requests per second, 0 means unlimited.
	Retries       int           // Retries is the total number of attempts per page.
	RetryInterval time.Duration // RetryInterval is the first backoff delay.
	UserAgent     string
}

// Fetcher retrieves raw page content over HTTP.
type Fetcher struct {
	log       *slog.Logger
	client    *http.Client
	limiter   *rate.Limiter
	tries     uint
	interval  time.Duration
	userAgent string
}

// NewFetcher builds a Fetcher from opts, filling in defaults.
func NewFetcher(log *slog.Logger, opts FetcherOptions) *Fetcher {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}

	tries := uint(1)
	if opts.Retries > 1 {
		tries = uint(opts.Retries)
	}

	interval := opts.RetryInterval
	if interval <= 0 {
		interval = time.Second
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Fetcher{
		log:       log,
		client:    client,
		limiter:   rate.NewLimiter(limit, 1),
		tries:     tries,
		interval:  interval,
		userAgent: userAgent,
	}
}

// Search returns the body of rawURL. Network errors, 429 and 5xx answers are
// retried with exponential backoff; other failures are returned at once.
func (f *Fetcher) Search(ctx context.Context, rawURL string) ([]byte, error) {
	const opn = "parser.Fetcher.Search"

	reqURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse URL %s: %w", opn, rawURL, err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = f.interval

	attempt := 0
	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		attempt++
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}

		body, err := f.get(ctx, reqURL)
		if err != nil {
			f.log.WarnContext(ctx, "Request failed", "op", opn, "URL", rawURL, "attempt", attempt, "error", err)
		}
		return body, err
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(f.tries))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to request %s: %w", opn, rawURL, err)
	}

	return body, nil
}

// StatusError is returned for non 200 answers.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status code error: [%d] %s", e.Code, e.Status)
}

// Temporary reports whether the request is worth repeating.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

func (f *Fetcher) get(ctx context.Context, reqURL *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create new request %s: %w", reqURL, err))
	}

	req.Header.Add("User-Agent", f.userAgent)

	f.log.DebugContext(ctx, "Send request", "method", req.Method, "URL", req.URL)

	res, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		statusErr := &StatusError{Code: res.StatusCode, Status: res.Status}
		if statusErr.Temporary() {
			return nil, statusErr
		}
		return nil, backoff.Permanent(statusErr)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	f.log.DebugContext(ctx, "Successfully received http response", "status code", res.StatusCode, "bytes", len(body))

	return body, nil
}
