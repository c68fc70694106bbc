package bluesky

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/meower-media/replybot/pkg/metrics"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	endpointGetRecord = "com.atproto.repo.getRecord"
	endpointGetBlob   = "com.atproto.sync.getBlob"

	postCollection = "app.bsky.feed.post"

	// blobs are capped at 1MB by the PDS, leave some headroom
	maxBlobSize = 4 << 20
)

var (
	ErrEmptyBlob    = errors.New("empty blob")
	ErrBlobTooLarge = errors.New("blob too large")
)

type APIError struct {
	Endpoint   string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bluesky %s returned status: %d", e.Endpoint, e.StatusCode)
}

// Client reads posts and blobs from the public Bluesky XRPC API. Requests
// are paced by a limiter and pass through a circuit breaker. Nothing is
// retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   failsafe.Executor[*http.Response]
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func WithBreakerDelay(delay time.Duration) Option {
	return func(c *Client) {
		c.executor = failsafe.With[*http.Response](newBreaker(delay))
	}
}

func NewClient(baseURL string, rps float64, timeout time.Duration, opts ...Option) *Client {
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		executor:   failsafe.With[*http.Response](newBreaker(30 * time.Second)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newBreaker(delay time.Duration) circuitbreaker.CircuitBreaker[*http.Response] {
	return circuitbreaker.NewBuilder[*http.Response]().
		WithFailureThresholdRatio(5, 10).
		WithDelay(delay).
		WithSuccessThreshold(1).
		HandleIf(func(resp *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp != nil && resp.StatusCode >= 500
		}).
		OnStateChanged(func(event circuitbreaker.StateChangedEvent) {
			log.Warn().
				Str("from_state", stateName(event.OldState)).
				Str("to_state", stateName(event.NewState)).
				Msg("bluesky circuit breaker state change")
		}).
		Build()
}

func stateName(state circuitbreaker.State) string {
	switch state {
	case circuitbreaker.ClosedState:
		return "closed"
	case circuitbreaker.HalfOpenState:
		return "half-open"
	case circuitbreaker.OpenState:
		return "open"
	default:
		return "unknown"
	}
}

// GetRecord fetches one feed post.
func (c *Client) GetRecord(ctx context.Context, repo string, rkey string) (*Record, error) {
	query := url.Values{}
	query.Set("repo", repo)
	query.Set("collection", postCollection)
	query.Set("rkey", rkey)

	resp, err := c.get(ctx, endpointGetRecord, query)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var record Record
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		c.observe(endpointGetRecord, "decode_error")
		return nil, fmt.Errorf("decode record: %w", err)
	}
	c.observe(endpointGetRecord, "ok")

	return &record, nil
}

// GetImage downloads the blob cid stored in did's repo.
func (c *Client) GetImage(ctx context.Context, did string, cid string) ([]byte, error) {
	query := url.Values{}
	query.Set("did", did)
	query.Set("cid", cid)

	resp, err := c.get(ctx, endpointGetBlob, query)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBlobSize+1))
	if err != nil {
		c.observe(endpointGetBlob, "decode_error")
		return nil, fmt.Errorf("read blob: %w", err)
	}
	if len(data) > maxBlobSize {
		c.observe(endpointGetBlob, "too_large")
		return nil, ErrBlobTooLarge
	}
	if len(data) == 0 {
		c.observe(endpointGetBlob, "decode_error")
		return nil, ErrEmptyBlob
	}
	c.observe(endpointGetBlob, "ok")

	return data, nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		c.observe(endpoint, "rate_limited")
		return nil, err
	}

	reqURL := c.baseURL + "/" + endpoint + "?" + query.Encode()
	resp, err := c.executor.WithContext(ctx).Get(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		return c.httpClient.Do(req)
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) {
			c.observe(endpoint, "circuit_open")
		} else {
			c.observe(endpoint, "transport_error")
		}
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		c.observe(endpoint, fmt.Sprintf("status_%d", resp.StatusCode))
		log.Debug().Str("endpoint", endpoint).Int("status", resp.StatusCode).Msg("bluesky request failed")
		return nil, &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	return resp, nil
}

func (c *Client) observe(endpoint string, result string) {
	metrics.BlueskyRequests.WithLabelValues(endpoint, result).Inc()
}
