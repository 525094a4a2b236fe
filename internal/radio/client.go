package radio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/five82/osuradio/internal/library"
)

// StatusFetcher defines the interface for reading daemon state.
// This interface is implemented by *Client and can be used for testing.
type StatusFetcher interface {
	FetchStatus(ctx context.Context) (*Status, error)
	FetchLibrary(ctx context.Context) ([]library.Song, error)
	FetchLikes(ctx context.Context) ([]string, error)
}

// Ensure Client implements StatusFetcher at compile time.
var _ StatusFetcher = (*Client)(nil)

// Client talks to the osuradio HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultAPIBind   = "127.0.0.1:3000"
	defaultUserAgent = "osuradio-tui/0.1"
	requestTimeout   = 5 * time.Second
	scanTimeout      = 2 * time.Minute
)

// NewClient builds a Client using the provided host:port value.
func NewClient(apiBind string) (*Client, error) {
	base, err := parseBaseURL(apiBind)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns the daemon address the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// FetchStatus retrieves connection state and now playing.
func (c *Client) FetchStatus(ctx context.Context) (*Status, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload Status
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FetchLibrary retrieves the scanned songs.
func (c *Client) FetchLibrary(ctx context.Context) ([]library.Song, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload []library.Song
	if err := c.do(ctx, http.MethodGet, "/api/library", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Rescan asks the daemon to reread the Songs folder.
func (c *Client) Rescan(ctx context.Context) ([]library.Song, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, scanTimeout)
	defer cancel()

	var payload ScanResponse
	rel := &url.URL{Path: "/api/scan"}
	if err := c.doURL(ctx, &http.Client{Timeout: scanTimeout}, http.MethodPost, rel, nil, &payload); err != nil {
		return nil, err
	}
	if !payload.Success {
		return nil, fmt.Errorf("scan failed: %s", payload.Error)
	}
	return payload.Songs, nil
}

// Connect asks the daemon to start a presence connection attempt.
func (c *Client) Connect(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	var payload Result
	if err := c.do(ctx, http.MethodPost, "/api/connect", nil, &payload); err != nil {
		return err
	}
	if !payload.Success {
		return fmt.Errorf("connect failed: %s", payload.Error)
	}
	return nil
}

// FetchLikes retrieves the liked song ids.
func (c *Client) FetchLikes(ctx context.Context) ([]string, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload LikesResponse
	if err := c.do(ctx, http.MethodGet, "/api/likes", nil, &payload); err != nil {
		return nil, err
	}
	return payload.IDs, nil
}

// ToggleLike flips a song's liked flag and returns the new state.
func (c *Client) ToggleLike(ctx context.Context, songID string) (bool, error) {
	if c == nil {
		return false, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(songID) == "" {
		return false, fmt.Errorf("song id required")
	}
	var payload LikesResponse
	rel := &url.URL{
		Path:    "/api/likes/" + songID,
		RawPath: "/api/likes/" + url.PathEscape(songID),
	}
	if err := c.doURL(ctx, c.http, http.MethodPost, rel, nil, &payload); err != nil {
		return false, err
	}
	return payload.Liked, nil
}

// SendUpdate reports playback state the way the browser player does.
func (c *Client) SendUpdate(ctx context.Context, req UpdateRequest) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	var payload Result
	return c.do(ctx, http.MethodPost, "/api/update", req, &payload)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	return c.doURL(ctx, c.http, method, &url.URL{Path: path}, body, dest)
}

func (c *Client) doURL(ctx context.Context, hc *http.Client, method string, rel *url.URL, body, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("api %s returned status %d", rel.Path, resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(apiBind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBind)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api address %q: %w", apiBind, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
