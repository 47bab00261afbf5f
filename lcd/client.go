// Package lcd is a REST (LCD / gRPC-gateway) client for a Cosmos SDK node
// with retry and endpoint failover. Higher layers decode the JSON bodies.
package lcd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "lcd").Logger()
}

// SetLogger replaces the package logger.
func SetLogger(l zerolog.Logger) {
	log = l.With().Str("component", "lcd").Logger()
}

// ErrNotFound is returned when the node answers that the requested resource
// does not exist (HTTP 404 or gRPC code NotFound).
var ErrNotFound = errors.New("resource not found")

// grpcCodeNotFound is codes.NotFound as reported in gateway error bodies.
const grpcCodeNotFound = 5

// APIError is a well formed error answer from the node. It is deterministic,
// so it is never retried.
type APIError struct {
	StatusCode int
	Code       int    `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d (code %d): %s", e.StatusCode, e.Code, e.Message)
}

// Client provides access to the node REST API with failover support.
// It maintains a primary endpoint and can automatically switch to backup endpoints
// when the primary is unavailable.
type Client struct {
	httpClient     *http.Client
	primaryURL     string
	backupURLs     []string
	currentURL     string
	mu             sync.RWMutex
	healthChecker  *healthChecker
	failoverConfig FailoverConfig
}

// FailoverConfig controls failover behavior
type FailoverConfig struct {
	// MaxRetries is the number of times to retry a failed request on the current endpoint
	MaxRetries int
	// RetryDelay is the initial delay between retries (doubles with each retry)
	RetryDelay time.Duration
	// HealthCheckInterval is how often to check if the primary endpoint is back up
	HealthCheckInterval time.Duration
	// Timeout is the HTTP request timeout
	Timeout time.Duration
}

// DefaultFailoverConfig returns sensible defaults for failover behavior
func DefaultFailoverConfig() FailoverConfig {
	return FailoverConfig{
		MaxRetries:          2,
		RetryDelay:          500 * time.Millisecond,
		HealthCheckInterval: 30 * time.Second,
		Timeout:             10 * time.Second,
	}
}

// New creates a Client with a single endpoint.
func New(apiURL string) (*Client, error) {
	return NewWithFailover(apiURL, nil, DefaultFailoverConfig())
}

// NewWithFailover creates a Client that falls back to backupURLs in order when
// the primary endpoint keeps failing.
func NewWithFailover(primaryURL string, backupURLs []string, config FailoverConfig) (*Client, error) {
	if err := checkURL(primaryURL); err != nil {
		return nil, fmt.Errorf("invalid primary REST endpoint %q: %w", primaryURL, err)
	}

	validBackups := make([]string, 0, len(backupURLs))
	for _, u := range backupURLs {
		if err := checkURL(u); err != nil {
			log.Warn().Err(err).Str("url", u).Msg("Invalid backup URL, skipping")
			continue
		}
		validBackups = append(validBackups, strings.TrimRight(u, "/"))
	}

	primaryURL = strings.TrimRight(primaryURL, "/")
	client := &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		primaryURL:     primaryURL,
		backupURLs:     validBackups,
		currentURL:     primaryURL,
		failoverConfig: config,
	}

	if len(validBackups) > 0 {
		client.startHealthChecker()
	}

	log.Info().
		Str("primary", primaryURL).
		Int("backups", len(validBackups)).
		Msg("REST client initialized")
	return client, nil
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

// Endpoint returns the endpoint requests are currently sent to.
func (c *Client) Endpoint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentURL
}

// failover switches to the next available backup endpoint
func (c *Client) failover(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	allURLs := append([]string{c.primaryURL}, c.backupURLs...)
	currentIdx := -1
	for i, u := range allURLs {
		if u == c.currentURL {
			currentIdx = i
			break
		}
	}

	for i := 1; i <= len(allURLs); i++ {
		nextURL := allURLs[(currentIdx+i)%len(allURLs)]
		if nextURL == c.currentURL {
			continue
		}
		if c.isEndpointHealthy(ctx, nextURL) {
			c.currentURL = nextURL
			failoverCounter.Add(ctx, 1)
			log.Info().Str("url", nextURL).Msg("Failover to endpoint")
			return true
		}
	}

	log.Warn().Str("url", c.currentURL).Msg("All endpoints unhealthy, staying on current")
	return false
}

// Close stops the health checker and cleans up resources
func (c *Client) Close() {
	if c.healthChecker != nil {
		c.healthChecker.stop()
	}
}

// Get fetches path and decodes the JSON answer into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	body, err := c.doRequestWithFailover(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return decode(path, body, out)
}

// Post sends in as a JSON body to path and decodes the JSON answer into out.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request for %s: %w", path, err)
	}
	body, err := c.doRequestWithFailover(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	return decode(path, body, out)
}

// PostOnce is Post without retries or failover: the request reaches at most
// one endpoint once. Use it for requests that must not be repeated, such as
// transaction broadcasts.
func (c *Client) PostOnce(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request for %s: %w", path, err)
	}
	body, _, err := c.send(ctx, c.Endpoint(), http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	return decode(path, body, out)
}

func decode(path string, body []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response of %s: %w", path, err)
	}
	return nil
}

// send performs a single request against endpoint. The returned bool tells
// whether the failure is worth retrying.
func (c *Client) send(ctx context.Context, endpoint, method, path string, payload []byte) (body []byte, retry bool, err error) {
	start := time.Now()
	defer func() {
		recordRequest(ctx, endpoint, method, start, err)
	}()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint+path, reader)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	body, err = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, true, err
	}

	if resp.StatusCode == http.StatusOK {
		return body, false, nil
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, false, fmt.Errorf("%s: %w", path, ErrNotFound)
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	if json.Unmarshal(body, apiErr) == nil && (apiErr.Code != 0 || apiErr.Message != "") {
		if apiErr.Code == grpcCodeNotFound {
			return nil, false, fmt.Errorf("%s: %s: %w", path, apiErr.Message, ErrNotFound)
		}
		return nil, false, apiErr
	}
	return nil, true, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
}

func (c *Client) doRequestWithFailover(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var lastErr error
	retryDelay := c.failoverConfig.RetryDelay

	for attempt := 0; attempt <= c.failoverConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
			retryDelay *= 2
		}

		body, retry, err := c.send(ctx, c.Endpoint(), method, path, payload)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
		log.Debug().Err(err).Str("path", path).Int("attempt", attempt+1).Msg("Request failed")
	}

	if len(c.backupURLs) > 0 && c.failover(ctx) {
		body, _, err := c.send(ctx, c.Endpoint(), method, path, payload)
		if err != nil {
			return nil, fmt.Errorf("failover request failed: %w (original: %w)", err, lastErr)
		}
		return body, nil
	}

	return nil, fmt.Errorf("request failed after %d retries: %w", c.failoverConfig.MaxRetries+1, lastErr)
}
