package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/erik-esparza/rival-review/internal/config"
)

// Client fetches marketplace pages with a politeness rate limit.
// All page retrieval goes through GetDocument so the limiter covers search
// pages and review pages alike.
type Client struct {
	// httpClient performs the requests.
	httpClient *http.Client

	// limiter spaces requests out. The marketplace throttles clients that
	// hammer it; one request per FetchDelay keeps us under its radar.
	limiter *rate.Limiter

	// userAgent is sent with every request.
	userAgent string

	// maxBodySize bounds how much of a response body is read.
	maxBodySize int64

	// logger for structured logging.
	logger *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
// Tests use this to point the client at a local server.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a fetch client from the configuration.
func NewClient(cfg *config.Config, opts ...ClientOption) *Client {
	delay := cfg.FetchDelay
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		limiter:     rate.NewLimiter(limit, 1),
		userAgent:   cfg.UserAgent,
		maxBodySize: cfg.MaxBodySize,
		logger:      slog.Default(),
	}
	if c.maxBodySize <= 0 {
		c.maxBodySize = config.DefaultMaxBodySize
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetDocument fetches a URL and parses the response body as HTML.
// It waits on the rate limiter first, so cancellation during the politeness
// delay is honored.
func (c *Client) GetDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}

	c.logger.Debug("fetched page",
		"url", pageURL,
		"elapsed", time.Since(start),
	)
	return doc, nil
}
