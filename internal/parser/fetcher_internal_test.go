package parser

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// stubResponse is one scripted answer of sequenceRoundTripper.
type stubResponse struct {
	status int
	body   string
	err    error
}

// sequenceRoundTripper answers requests with scripted responses, repeating the last one.
type sequenceRoundTripper struct {
	responses []stubResponse
	requests  []*http.Request
}

func (m *sequenceRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	idx := min(len(m.requests), len(m.responses)-1)
	m.requests = append(m.requests, req)

	r := m.responses[idx]
	if r.err != nil {
		return nil, r.err
	}

	return &http.Response{
		StatusCode: r.status,
		Status:     http.StatusText(r.status),
		Body:       io.NopCloser(strings.NewReader(r.body)),
	}, nil
}

func newTestFetcher(rt http.RoundTripper, retries int) *Fetcher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewFetcher(logger, FetcherOptions{
		Client:        &http.Client{Transport: rt},
		Retries:       retries,
		RetryInterval: time.Millisecond,
	})
}

func TestFetcher_Search(t *testing.T) {
	testCases := []struct {
		name           string
		url            string
		responses      []stubResponse
		expectBody     string
		expectErrMsg   string
		expectRequests int
	}{
		{
			name:           "Successful request (200 OK)",
			url:            "http://test.com/page",
			responses:      []stubResponse{{status: http.StatusOK, body: "OK"}},
			expectBody:     "OK",
			expectRequests: 1,
		},
		{
			name: "Server error is retried",
			url:  "http://test.com/page",
			responses: []stubResponse{
				{status: http.StatusInternalServerError},
				{status: http.StatusOK, body: "recovered"},
			},
			expectBody:     "recovered",
			expectRequests: 2,
		},
		{
			name:           "Too many requests exhausts retries",
			url:            "http://test.com/page",
			responses:      []stubResponse{{status: http.StatusTooManyRequests}},
			expectErrMsg:   "status code error: [429]",
			expectRequests: 3,
		},
		{
			name:           "Not found is permanent",
			url:            "http://test.com/page",
			responses:      []stubResponse{{status: http.StatusNotFound}},
			expectErrMsg:   "status code error: [404]",
			expectRequests: 1,
		},
		{
			name:           "Network error exhausts retries",
			url:            "http://test.com/page",
			responses:      []stubResponse{{err: errors.New("connection failed")}},
			expectErrMsg:   "connection failed",
			expectRequests: 3,
		},
		{
			name:           "Invalid URL",
			url:            "://invalid-url",
			responses:      []stubResponse{{status: http.StatusOK}},
			expectErrMsg:   "failed to parse URL",
			expectRequests: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rt := &sequenceRoundTripper{responses: tc.responses}
			f := newTestFetcher(rt, 3)

			body, err := f.Search(t.Context(), tc.url)

			assert.Len(t, rt.requests, tc.expectRequests)
			if tc.expectErrMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectErrMsg)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectBody, string(body))
		})
	}
}

func TestFetcher_StatusErrorIsExposed(t *testing.T) {
	rt := &sequenceRoundTripper{responses: []stubResponse{{status: http.StatusForbidden}}}
	f := newTestFetcher(rt, 1)

	_, err := f.Search(t.Context(), "http://test.com")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.Code)
	assert.False(t, statusErr.Temporary())
}

func TestFetcher_SetsUserAgent(t *testing.T) {
	rt := &sequenceRoundTripper{responses: []stubResponse{{status: http.StatusOK}}}
	f := newTestFetcher(rt, 1)

	_, err := f.Search(t.Context(), "http://test.com")

	require.NoError(t, err)
	require.Len(t, rt.requests, 1)
	assert.Equal(t, defaultUserAgent, rt.requests[0].Header.Get("User-Agent"))
}

func TestNewFetcher_Defaults(t *testing.T) {
	f := NewFetcher(slog.Default(), FetcherOptions{Timeout: 5 * time.Second})

	assert.Equal(t, uint(1), f.tries)
	assert.Equal(t, time.Second, f.interval)
	assert.Equal(t, 5*time.Second, f.client.Timeout)
	assert.Equal(t, rate.Inf, f.limiter.Limit())
}
