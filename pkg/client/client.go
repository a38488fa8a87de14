// Package client calls warera tRPC query procedures over plain HTTP GET.
//
// A query is encoded as GET {base}/{procedure}?input={json}; the response
// payload sits under result.data.
package client

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

	"github.com/Sternrassler/warera-trades/pkg/cache"
	"github.com/Sternrassler/warera-trades/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the public warera tRPC endpoint.
const DefaultBaseURL = "https://api2.warera.io/trpc"

// Prometheus metrics for procedure calls.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warera_requests_total",
		Help: "Total tRPC requests by procedure and status",
	}, []string{"procedure", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "warera_request_duration_seconds",
		Help:    "tRPC request duration in seconds by procedure",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"procedure"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warera_errors_total",
		Help: "Total tRPC errors by class",
	}, []string{"class"})
)

// Input is the JSON object passed in the input query parameter.
type Input map[string]any

// ResponseCache stores raw response bodies between runs.
// *cache.Manager satisfies it.
type ResponseCache interface {
	Get(ctx context.Context, key cache.CacheKey) (*cache.CacheEntry, error)
	Set(ctx context.Context, key cache.CacheKey, entry *cache.CacheEntry) error
	TTL() time.Duration
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the tRPC root, without a trailing slash.
	BaseURL string

	// UserAgent header sent with every request.
	UserAgent string

	// Timeout per request. Zero means no timeout.
	Timeout time.Duration

	// Cache is optional. Only procedures listed in CachedProcedures use it.
	Cache            ResponseCache
	CachedProcedures []string
}

// DefaultConfig returns the configuration used against the public API.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: "Mozilla/5.0",
		Timeout:   30 * time.Second,
	}
}

// Client performs tRPC queries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	cache      ResponseCache
	cached     map[string]bool
	logger     zerolog.Logger
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	cached := make(map[string]bool, len(cfg.CachedProcedures))
	for _, p := range cfg.CachedProcedures {
		cached[p] = true
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		cache:      cfg.Cache,
		cached:     cached,
		logger:     logging.NewLogger("client"),
	}, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// URL builds the request URL for a procedure call.
func (c *Client) URL(procedure string, input Input) (string, error) {
	encoded, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("encode input: %w", err)
	}
	return c.baseURL + "/" + procedure + "?" + url.Values{"input": {string(encoded)}}.Encode(), nil
}

// Query calls procedure with input and decodes result.data into out.
//
// Non-2xx responses return an *APIError with the status code. Transport
// failures return an *APIError of class network. Bodies that are not a
// tRPC envelope, or whose data does not decode into out, wrap ErrDecode.
// Cacheable procedures are served from the response cache when possible and
// stored only after they decode.
func (c *Client) Query(ctx context.Context, procedure string, input Input, out any) error {
	useCache := c.cache != nil && c.cached[procedure]
	key := cacheKey(procedure, input)

	if useCache {
		entry, err := c.cache.Get(ctx, key)
		switch {
		case err == nil:
			if err := decodeEnvelope(entry.Data, out); err == nil {
				c.logger.Debug().Str("procedure", procedure).Str("key", key.String()).Msg("Cache hit")
				return nil
			}
			c.logger.Warn().Str("procedure", procedure).Msg("Cached response does not decode, refetching")
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("procedure", procedure).Msg("Cache get error")
		}
	}

	body, err := c.do(ctx, procedure, input)
	if err != nil {
		return err
	}

	if err := decodeEnvelope(body, out); err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return &APIError{
			Procedure:  procedure,
			StatusCode: http.StatusOK,
			Class:      ErrorClassDecode,
			Message:    "malformed response",
			Err:        err,
		}
	}

	if useCache {
		if err := c.cache.Set(ctx, key, cache.NewEntry(http.StatusOK, body, c.cache.TTL())); err != nil {
			c.logger.Warn().Err(err).Str("procedure", procedure).Msg("Failed to cache response")
		}
	}
	return nil
}

// do executes one GET. There are no retries.
func (c *Client) do(ctx context.Context, procedure string, input Input) ([]byte, error) {
	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(procedure).Observe(time.Since(start).Seconds())
	}()

	target, err := c.URL(procedure, input)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug().Str("procedure", procedure).Str("url", target).Msg("Executing request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(procedure, "network_error").Inc()
		return nil, &APIError{
			Procedure: procedure,
			Class:     ErrorClassNetwork,
			Message:   "request failed",
			Err:       err,
		}
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(procedure, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		class := classifyStatus(resp.StatusCode)
		errorsTotal.WithLabelValues(string(class)).Inc()
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &APIError{
			Procedure:  procedure,
			StatusCode: resp.StatusCode,
			Class:      class,
			Message:    resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &APIError{
			Procedure:  procedure,
			StatusCode: resp.StatusCode,
			Class:      ErrorClassNetwork,
			Message:    "read body",
			Err:        err,
		}
	}
	return body, nil
}

type envelope struct {
	Result *struct {
		Data json.RawMessage `json:"data"`
	} `json:"result"`
}

func decodeEnvelope(body []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if env.Result == nil || len(env.Result.Data) == 0 || string(env.Result.Data) == "null" {
		return fmt.Errorf("%w: missing result.data", ErrDecode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Result.Data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

func cacheKey(procedure string, input Input) cache.CacheKey {
	fields := make(map[string]string, len(input))
	for k, v := range input {
		fields[k] = fmt.Sprint(v)
	}
	return cache.CacheKey{Procedure: procedure, Input: fields}
}
