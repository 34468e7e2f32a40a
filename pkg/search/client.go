// Package search is the client for the search API under test
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"golang.org/x/time/rate"

	"github.com/Ramsey-B/clover/pkg/extractor"
	"github.com/Ramsey-B/clover/pkg/fingerprint"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
)

const (
	// DefaultTimeout is the default request timeout
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResponseSize is the default maximum response body size (10MB)
	DefaultMaxResponseSize = 10 * 1024 * 1024

	// maxErrorSnippet bounds the response text carried in error messages
	maxErrorSnippet = 200
)

// Config holds search API client configuration
type Config struct {
	URL               string
	Token             string
	Timeout           time.Duration
	Limit             int
	Schemas           []string
	SearchTypes       []string
	MaxRetries        int
	RetryBackoff      time.Duration
	RequestsPerSecond float64
	MaxResponseSize   int
	ResultsExpression string
}

// DefaultConfig returns default client configuration
func DefaultConfig() Config {
	return Config{
		Timeout:         DefaultTimeout,
		Limit:           100,
		Schemas:         []string{"col", "rights", "mex", "watch", "soe", "pep", "sanction"},
		SearchTypes:     []string{"keyword", "phonetic", "similarity"},
		MaxRetries:      2,
		RetryBackoff:    500 * time.Millisecond,
		MaxResponseSize: DefaultMaxResponseSize,
	}
}

// Request is the search API request body
type Request struct {
	Query       string   `json:"query"`
	Schemas     []string `json:"schemas"`
	Limit       int      `json:"limit"`
	SearchTypes []string `json:"search_types"`
}

// Response is a raw search API response
type Response struct {
	StatusCode int
	Body       []byte
	Duration   time.Duration
	Attempts   int
	Cached     bool

	retryAfter time.Duration
}

// Cache stores response bodies keyed by request digest
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte) error
}

// Client calls the search API with retries, rate limiting and an optional response cache
type Client struct {
	cfg       Config
	client    *http.Client
	limiter   *rate.Limiter
	cache     Cache
	extractor *extractor.Extractor
	logger    ectologger.Logger
}

// Option configures a Client
type Option func(*Client)

// WithCache enables response caching
func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// NewClient creates a new search API client
func NewClient(cfg Config, logger ectologger.Logger, opts ...Option) *Client {
	defaults := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.Limit <= 0 {
		cfg.Limit = defaults.Limit
	}
	if len(cfg.Schemas) == 0 {
		cfg.Schemas = defaults.Schemas
	}
	if len(cfg.SearchTypes) == 0 {
		cfg.SearchTypes = defaults.SearchTypes
	}
	if cfg.MaxResponseSize <= 0 {
		cfg.MaxResponseSize = defaults.MaxResponseSize
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	c := &Client{
		cfg:       cfg,
		client:    &http.Client{Timeout: cfg.Timeout},
		extractor: extractor.New(extractor.WithResultsExpression(cfg.ResultsExpression)),
		logger:    logger,
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SchemasFor returns the schemas searched for an entity type: "P" persons, "E" entities
func (c *Client) SchemasFor(entityType string) []string {
	switch strings.ToUpper(strings.TrimSpace(entityType)) {
	case "P":
		return []string{string(models.SourceWatch), string(models.SourcePEP), string(models.SourceSanction), string(models.SourceMex)}
	case "E":
		return []string{string(models.SourceWatch), string(models.SourceSanction), string(models.SourceSOE), string(models.SourceICIJ), string(models.SourceRights)}
	default:
		return append([]string(nil), c.cfg.Schemas...)
	}
}

// NewRequest builds a request for query with the configured limit and search types
func (c *Client) NewRequest(query, entityType string) Request {
	return Request{
		Query:       query,
		Schemas:     c.SchemasFor(entityType),
		Limit:       c.cfg.Limit,
		SearchTypes: append([]string(nil), c.cfg.SearchTypes...),
	}
}

// Search posts req, retrying transport errors, 429 and 5xx with exponential backoff.
// Non-2xx responses are returned as httperror errors carrying the status code.
func (c *Client) Search(ctx context.Context, req Request) (*Response, error) {
	req = c.withDefaults(req)
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	key := CacheKey(c.cfg.URL, payload)
	if c.cache != nil {
		body, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			c.logger.WithContext(ctx).WithError(err).Warn("Response cache lookup failed")
		} else if ok {
			c.logger.WithContext(ctx).Debugf("Using cached response for %q", req.Query)
			return &Response{StatusCode: http.StatusOK, Body: body, Cached: true}, nil
		}
	}

	var (
		resp    *Response
		lastErr error
	)
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt, resp)
			metrics.APIRetriesTotal.Inc()
			c.logger.WithContext(ctx).Warnf("Retrying search for %q in %v (attempt %d/%d)", req.Query, delay, attempt, c.cfg.MaxRetries)
			if err := sleep(ctx, delay); err != nil {
				return nil, httperror.WrapError(http.StatusGatewayTimeout, err)
			}
		}

		resp, lastErr = c.post(ctx, payload)
		if lastErr != nil {
			if ctx.Err() != nil {
				break
			}
			continue
		}
		resp.Attempts = attempt + 1
		if !retryable(resp.StatusCode) {
			break
		}
	}

	if lastErr != nil {
		code := http.StatusBadGateway
		if IsTimeout(lastErr) {
			code = http.StatusGatewayTimeout
		}
		return nil, httperror.WrapError(code, lastErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, httperror.NewHTTPErrorf(resp.StatusCode, "search api returned %d: %s", resp.StatusCode, Snippet(resp.Body))
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, resp.Body); err != nil {
			c.logger.WithContext(ctx).WithError(err).Warn("Failed to cache response")
		}
	}
	return resp, nil
}

// Post sends a single request and returns the response whatever its status.
// Only transport failures are errors.
func (c *Client) Post(ctx context.Context, req Request) (*Response, error) {
	req = c.withDefaults(req)
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	resp, err := c.post(ctx, payload)
	if err != nil {
		return nil, err
	}
	resp.Attempts = 1
	return resp, nil
}

// Records searches and transforms the response into records grouped by source
func (c *Client) Records(ctx context.Context, req Request) (models.RecordSet, error) {
	resp, err := c.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	set, err := c.extractor.Transform(resp.Body)
	if err != nil {
		return nil, httperror.WrapError(http.StatusBadGateway, fmt.Errorf("invalid search response: %w", err))
	}
	return set, nil
}

// Fetch searches query for an entity type. Any failure is logged and yields an empty set.
func (c *Client) Fetch(ctx context.Context, query, entityType string) models.RecordSet {
	set, err := c.Records(ctx, c.NewRequest(query, entityType))
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"query":       query,
			"entity_type": entityType,
			"status_code": httperror.GetStatusCode(err),
		}).Error("Search failed, continuing with empty results")
		return models.NewRecordSet()
	}
	return set
}

func (c *Client) withDefaults(req Request) Request {
	if len(req.Schemas) == 0 {
		req.Schemas = append([]string(nil), c.cfg.Schemas...)
	}
	if req.Limit <= 0 {
		req.Limit = c.cfg.Limit
	}
	if len(req.SearchTypes) == 0 {
		req.SearchTypes = append([]string(nil), c.cfg.SearchTypes...)
	}
	return req
}

func (c *Client) post(ctx context.Context, payload []byte) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait failed: %w", err)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		metrics.RecordAPIRequest("error", time.Since(start).Seconds())
		c.logger.WithContext(ctx).WithError(err).Errorf("Search request failed: POST %s", c.cfg.URL)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	limit := int64(c.cfg.MaxResponseSize)
	if resp.ContentLength > limit {
		return nil, fmt.Errorf("response too large: %d bytes (max %d)", resp.ContentLength, limit)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("response body too large: more than %d bytes", limit)
	}

	duration := time.Since(start)
	metrics.RecordAPIRequest(strconv.Itoa(resp.StatusCode), duration.Seconds())
	c.logger.WithContext(ctx).Debugf("POST %s -> %d (%s)", c.cfg.URL, resp.StatusCode, duration)

	out := &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Duration:   duration,
	}
	if ra := resp.Header.Get("Retry-After"); ra != "" && resp.StatusCode == http.StatusTooManyRequests {
		if secs, convErr := strconv.Atoi(ra); convErr == nil && secs > 0 {
			out.retryAfter = time.Duration(secs) * time.Second
		}
	}
	return out, nil
}

// backoff doubles the configured delay per attempt, honoring Retry-After on 429
func (c *Client) backoff(attempt int, last *Response) time.Duration {
	if last != nil && last.retryAfter > 0 {
		return last.retryAfter
	}
	delay := c.cfg.RetryBackoff
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// CacheKey digests the endpoint and request payload
func CacheKey(url string, payload []byte) string {
	return fingerprint.Request(url, payload)
}

// IsTimeout reports whether err is a request timeout
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Snippet returns at most the first 200 characters of body
func Snippet(body []byte) string {
	s := string(body)
	if r := []rune(s); len(r) > maxErrorSnippet {
		return string(r[:maxErrorSnippet])
	}
	return s
}
