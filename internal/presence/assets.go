package presence

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Prober performs one remote existence check for a beatmap set's cover.
type Prober interface {
	Probe(ctx context.Context, beatmapSetID string) (bool, error)
}

// HTTPProber issues HEAD requests against the beatmap asset host.
type HTTPProber struct {
	BaseURL   string
	Client    *http.Client
	UserAgent string
}

const (
	defaultProbeTimeout = 5 * time.Second
	defaultUserAgent    = "osuradio/0.1"
)

// NewHTTPProber targets the public asset host.
func NewHTTPProber() *HTTPProber {
	return &HTTPProber{
		BaseURL:   assetBaseURL,
		Client:    &http.Client{Timeout: defaultProbeTimeout},
		UserAgent: defaultUserAgent,
	}
}

// Probe reports false on 404 and true for any other status. Only transport
// failures are errors.
func (p *HTTPProber) Probe(ctx context.Context, beatmapSetID string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, coverURL(p.BaseURL, beatmapSetID), nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", p.UserAgent)

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode != http.StatusNotFound, nil
}

// AssetCache memoizes cover existence per beatmap set for the process
// lifetime. Concurrent lookups of one key share a single probe, and a failed
// probe is remembered as absent.
type AssetCache struct {
	prober  Prober
	logger  zerolog.Logger
	timeout time.Duration

	mu    sync.RWMutex
	known map[string]bool
	group singleflight.Group
}

// NewAssetCache wraps prober with a write-once cache.
func NewAssetCache(prober Prober, logger zerolog.Logger) *AssetCache {
	return &AssetCache{
		prober:  prober,
		logger:  logger,
		timeout: defaultProbeTimeout,
		known:   make(map[string]bool),
	}
}

// Exists answers from the cache or probes once. A probe error reads as absent
// and is cached like any other answer.
func (c *AssetCache) Exists(ctx context.Context, beatmapSetID string) bool {
	key := strings.TrimSpace(beatmapSetID)
	if key == "" {
		return false
	}
	if exists, ok := c.lookup(key); ok {
		return exists
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if exists, ok := c.lookup(key); ok {
			return exists, nil
		}
		probeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		exists, err := c.prober.Probe(probeCtx, key)
		if err != nil {
			exists = false
			err = &AssetProbeError{BeatmapSetID: key, Err: err}
		}
		c.mu.Lock()
		if prev, ok := c.known[key]; ok {
			exists = prev
		} else {
			c.known[key] = exists
		}
		c.mu.Unlock()
		return exists, err
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("beatmap_set", key).Msg("cover probe failed, using fallback image")
	}
	return v.(bool)
}

// Len returns the number of cached answers.
func (c *AssetCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.known)
}

func (c *AssetCache) lookup(key string) (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	exists, ok := c.known[key]
	return exists, ok
}
