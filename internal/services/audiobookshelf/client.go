package audiobookshelf

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"abstagsync/internal/config"
	"abstagsync/internal/services"
)

const (
	userAgent      = "abs-tag-sync/0.1"
	defaultTimeout = 10 * time.Second
)

// ErrUnauthorized is returned when the server rejects the API token.
var ErrUnauthorized = errors.New("audiobookshelf rejected the api token")

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client talks to one Audiobookshelf server.
type Client struct {
	baseURL string
	token   string
	client  HTTPDoer
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient injects a custom HTTP backend (primarily for tests).
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.client = doer
		}
	}
}

// New constructs a client for the server at baseURL authenticating with a
// bearer token. Every request is bounded by timeout; zero selects the default.
func New(baseURL, token string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		client:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig constructs a client from the audiobookshelf config section.
func NewFromConfig(cfg *config.Config, opts ...Option) *Client {
	return New(cfg.Audiobookshelf.URL, cfg.Audiobookshelf.Token, cfg.HTTPTimeout(), opts...)
}

// ListUsers returns every user account.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var resp usersResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/users", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// ListLibraries returns every library regardless of media type.
func (c *Client) ListLibraries(ctx context.Context) ([]Library, error) {
	var resp librariesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/libraries", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Libraries, nil
}

// ListLibraryItems returns the expanded items of one library.
func (c *Client) ListLibraryItems(ctx context.Context, libraryID string) ([]LibraryItem, error) {
	path := "/api/libraries/" + url.PathEscape(libraryID) + "/items?expanded=1"
	var resp itemsResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// UpdateMedia replaces the tags of an item, sending its metadata back
// unchanged. Only HTTP 200 counts as success.
func (c *Client) UpdateMedia(ctx context.Context, itemID string, metadata json.RawMessage, tags []string) error {
	if len(metadata) == 0 {
		metadata = json.RawMessage("{}")
	}
	if tags == nil {
		tags = []string{}
	}
	body := updateMediaRequest{Metadata: metadata, Tags: tags}
	return c.doJSON(ctx, http.MethodPatch, "/api/items/"+url.PathEscape(itemID)+"/media", body, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrUpstream, "audiobookshelf", method+" "+path, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		_, _ = io.Copy(io.Discard, resp.Body)
		return services.Wrap(services.ErrUpstream, "audiobookshelf", method+" "+path, fmt.Sprintf("status %d", resp.StatusCode), ErrUnauthorized)
	}
	if !statusOK(method, resp.StatusCode) {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return services.Wrap(services.ErrUpstream, "audiobookshelf", method+" "+path,
			fmt.Sprintf("returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))), nil)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrParse, "audiobookshelf", method+" "+path, "decode response", err)
	}
	return nil
}

// statusOK accepts any 2xx for reads; writes are only confirmed by 200.
func statusOK(method string, code int) bool {
	if method == http.MethodPatch {
		return code == http.StatusOK
	}
	return code >= 200 && code < 300
}
