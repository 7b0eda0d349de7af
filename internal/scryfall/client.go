// Package scryfall resolves card artwork URLs from the Scryfall API.
//
// Lookups are paced by a rate limiter, bounded by a timeout, guarded by a
// circuit breaker and memoized. ImageURL never fails: any problem reaching the
// API degrades to "no image".
package scryfall

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"card-catalog/internal/circuitbreaker"
	"card-catalog/internal/common/cache"
	"card-catalog/internal/common/errors"
	httpclient "card-catalog/internal/common/http"
	"card-catalog/internal/common/logging"
	"card-catalog/internal/common/ratelimit"
)

const (
	DefaultBaseURL      = "https://api.scryfall.com"
	DefaultUserAgent    = "MTGCardApp/1.0"
	DefaultRequestDelay = 110 * time.Millisecond
	DefaultTimeout      = 5 * time.Second
	DefaultCacheSize    = 1024
	DefaultMissTTL      = 10 * time.Minute

	// CodeNoImage marks a card that exists but has no usable image.
	CodeNoImage = "no_image"

	maxErrorBody = 4 << 10
)

// Client fetches and caches image URLs keyed by Scryfall card id.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	limiter    ratelimit.Limiter
	breaker    *circuitbreaker.GoBreakerAdapter
	images     cache.Cache
	imageTTL   time.Duration
	misses     cache.Cache
	missTTL    time.Duration
	logger     logging.Logger
}

type settings struct {
	baseURL      string
	userAgent    string
	requestDelay time.Duration
	timeout      time.Duration
	transport    http.RoundTripper
	breaker      *circuitbreaker.GoBreakerAdapter
	images       cache.Cache
	imageTTL     time.Duration
	misses       cache.Cache
	missTTL      time.Duration
	missSet      bool
	logger       logging.Logger
}

// Option configures a Client.
type Option func(*settings)

// WithBaseURL overrides the API root, e.g. for a test server.
func WithBaseURL(baseURL string) Option {
	return func(s *settings) { s.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithUserAgent sets the User-Agent header sent on every call.
func WithUserAgent(userAgent string) Option {
	return func(s *settings) { s.userAgent = userAgent }
}

// WithRequestDelay sets the minimum spacing between outbound calls. Zero disables pacing.
func WithRequestDelay(delay time.Duration) Option {
	return func(s *settings) { s.requestDelay = delay }
}

// WithTimeout bounds each outbound call.
func WithTimeout(timeout time.Duration) Option {
	return func(s *settings) { s.timeout = timeout }
}

// WithTransport replaces the HTTP transport underneath the client.
func WithTransport(rt http.RoundTripper) Option {
	return func(s *settings) { s.transport = rt }
}

// WithImageCache replaces the cache of resolved image URLs. ttl is passed on
// every Set; caches with their own expiry may ignore it.
func WithImageCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *settings) {
		s.images = c
		s.imageTTL = ttl
	}
}

// WithMissCache sets where cards without an image are remembered, and for how
// long. A nil cache or non-positive ttl disables miss caching.
func WithMissCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *settings) {
		s.misses = c
		s.missTTL = ttl
		s.missSet = true
	}
}

// WithBreaker replaces the circuit breaker guarding the API.
func WithBreaker(b *circuitbreaker.GoBreakerAdapter) Option {
	return func(s *settings) { s.breaker = b }
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// New builds a Client. Unset options fall back to the package defaults: an LRU
// of DefaultCacheSize image URLs and a go-cache miss cache of DefaultMissTTL.
func New(opts ...Option) *Client {
	s := settings{
		baseURL:      DefaultBaseURL,
		userAgent:    DefaultUserAgent,
		requestDelay: DefaultRequestDelay,
		timeout:      DefaultTimeout,
		missTTL:      DefaultMissTTL,
	}
	for _, opt := range opts {
		opt(&s)
	}

	if s.logger == nil {
		s.logger = logging.Component("scryfall")
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	clientOpts := []httpclient.ClientOption{
		httpclient.WithTimeout(s.timeout),
		httpclient.WithMaxIdleConnsPerHost(4),
		httpclient.WithHeader("User-Agent", s.userAgent),
		httpclient.WithHeader("Accept", "application/json"),
	}
	if s.transport != nil {
		clientOpts = append(clientOpts, httpclient.WithTransport(s.transport))
	}
	if s.images == nil {
		s.images = cache.NewLRUCache(DefaultCacheSize, 0)
	}
	if !s.missSet {
		s.misses = cache.NewLocalCache(DefaultMissTTL, 2*DefaultMissTTL)
	}
	if s.misses == nil || s.missTTL <= 0 {
		s.misses = nil
		s.missTTL = 0
	}
	if s.breaker == nil {
		s.breaker = circuitbreaker.NewGoBreaker("scryfall", circuitbreaker.ImageAPIConfig, s.logger)
	}

	// IntervalConfig is always valid, so the error can be ignored.
	limiter, _ := ratelimit.NewLocalLimiter(ratelimit.IntervalConfig(s.requestDelay))

	return &Client{
		baseURL:    s.baseURL,
		timeout:    s.timeout,
		httpClient: httpclient.NewHTTPClient(clientOpts...),
		limiter:    limiter,
		breaker:    s.breaker,
		images:     s.images,
		imageTTL:   s.imageTTL,
		misses:     s.misses,
		missTTL:    s.missTTL,
		logger:     s.logger,
	}
}

// ImageURL returns the normal-size image URL for a card. The boolean is false
// when no image is available for any reason; the cause is logged.
func (c *Client) ImageURL(ctx context.Context, scryfallID string) (string, bool) {
	if scryfallID == "" {
		c.logger.Warn("Received empty Scryfall ID for image lookup")
		return "", false
	}

	if imageURL, ok := c.images.Get(ctx, scryfallID); ok {
		return imageURL, true
	}
	if c.misses != nil {
		if _, ok := c.misses.Get(ctx, scryfallID); ok {
			return "", false
		}
	}

	log := c.logger.WithFields(logging.String("scryfall_id", scryfallID))

	imageURL, err := c.FetchImageURL(ctx, scryfallID)
	if err == nil {
		if err := c.images.Set(ctx, scryfallID, imageURL, c.imageTTL); err != nil {
			log.Warn("Failed to cache image URL", logging.Err(err))
		}
		return imageURL, true
	}

	switch errors.GetType(err) {
	case errors.ErrTypeNotFound:
		if errors.CodeOf(err) == CodeNoImage {
			log.Warn("Card has no normal image")
		} else {
			log.Warn("Card not found on Scryfall")
		}
		if c.misses != nil {
			if err := c.misses.Set(ctx, scryfallID, "", c.missTTL); err != nil {
				log.Warn("Failed to cache image miss", logging.Err(err))
			}
		}
	case errors.ErrTypeRateLimit:
		log.Error("Scryfall rate limit hit, image skipped", err,
			logging.String("breaker", c.breaker.State().String()),
		)
	case errors.ErrTypeTimeout:
		log.Error("Timed out fetching image", err)
	case errors.ErrTypeConnection:
		log.Error("Could not reach Scryfall", err)
	default:
		log.Error("Unexpected error fetching image", err)
	}
	return "", false
}

// FetchImageURL performs one uncached lookup against the API.
func (c *Client) FetchImageURL(ctx context.Context, scryfallID string) (string, error) {
	if scryfallID == "" {
		return "", errors.ValidationError("scryfall id is required")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", errors.TimeoutError("rate limiter wait", err)
	}

	var imageURL string
	err := c.breaker.Execute(ctx, func() error {
		var err error
		imageURL, err = c.fetch(ctx, scryfallID)
		return err
	})
	return imageURL, err
}

type imageURIs struct {
	Normal string `json:"normal"`
}

type cardResponse struct {
	ImageURIs *imageURIs `json:"image_uris"`
	CardFaces []struct {
		ImageURIs *imageURIs `json:"image_uris"`
	} `json:"card_faces"`
}

// normalImage prefers the card's own image and falls back to the first face
// that has one, as double-faced cards carry images per face.
func (r cardResponse) normalImage() string {
	if r.ImageURIs != nil && r.ImageURIs.Normal != "" {
		return r.ImageURIs.Normal
	}
	for _, face := range r.CardFaces {
		if face.ImageURIs != nil && face.ImageURIs.Normal != "" {
			return face.ImageURIs.Normal
		}
	}
	return ""
}

func (c *Client) fetch(ctx context.Context, scryfallID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + "/cards/" + url.PathEscape(scryfallID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", errors.InternalError("failed to build card request", err)
	}

	c.logger.Debug("Fetching image URL", logging.String("scryfall_id", scryfallID))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		drain(resp.Body)
		return "", errors.NotFoundError("card").WithContext("scryfall_id", scryfallID)
	case resp.StatusCode == http.StatusTooManyRequests:
		drain(resp.Body)
		return "", errors.RateLimitError("scryfall")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		drain(resp.Body)
		return "", errors.InternalError(fmt.Sprintf("unexpected status %d from Scryfall", resp.StatusCode), nil).
			WithCode(fmt.Sprintf("http_%d", resp.StatusCode))
	}

	var card cardResponse
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		if ctx.Err() != nil {
			return "", errors.TimeoutError("image lookup", err)
		}
		return "", errors.InternalError("invalid Scryfall response", err)
	}

	imageURL := card.normalImage()
	if imageURL == "" {
		return "", errors.NotFoundError("image").WithCode(CodeNoImage).WithContext("scryfall_id", scryfallID)
	}
	return imageURL, nil
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		return errors.TimeoutError("image lookup", err)
	}
	if stderrors.Is(err, context.Canceled) {
		return err
	}
	return errors.ConnectionError("failed to reach Scryfall", err)
}

func drain(body io.Reader) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxErrorBody))
}
