package openlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://openlibrary.org"
	editionTimeout   = 10 * time.Second
	authorTimeout    = 5 * time.Second
	defaultBackoff   = time.Second
	defaultUserAgent = "librarian/1.0"
)

// ErrNotFound is returned when OpenLibrary has no record for the key.
var ErrNotFound = errors.New("openlibrary: not found")

type Config struct {
	BaseURL    string
	UserAgent  string
	RPS        int
	MaxRetries int
	// Backoff is the first retry delay; it doubles on every attempt.
	Backoff time.Duration
}

type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 1
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		userAgent:  cfg.UserAgent,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		limiter:    rate.NewLimiter(rate.Every(time.Second/time.Duration(cfg.RPS)), 1),
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
	}
}

// AuthorRef points at an author record, e.g. {"key": "/authors/OL23919A"}.
// Some payloads embed the name directly.
type AuthorRef struct {
	Key  string `json:"key"`
	Name string `json:"name,omitempty"`
}

// Edition matches isbn/{isbn}.json
type Edition struct {
	Title       string      `json:"title"`
	Subtitle    string      `json:"subtitle,omitempty"`
	Authors     []AuthorRef `json:"authors,omitempty"`
	Publishers  []string    `json:"publishers,omitempty"`
	PublishDate string      `json:"publish_date,omitempty"`
}

// AuthorDetails matches authors/{key}.json
type AuthorDetails struct {
	Name         string      `json:"name"`
	PersonalName string      `json:"personal_name,omitempty"`
	BirthDate    string      `json:"birth_date,omitempty"`
	Bio          interface{} `json:"bio,omitempty"` // Can be string or {type: ..., value: ...}
}

// DisplayName prefers the catalogued name over the personal name.
func (a AuthorDetails) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.PersonalName
}

// GetEdition fetches the edition record for an ISBN.
func (c *Client) GetEdition(ctx context.Context, isbn string) (*Edition, error) {
	ctx, cancel := context.WithTimeout(ctx, editionTimeout)
	defer cancel()

	u := fmt.Sprintf("%s/isbn/%s.json", c.baseURL, url.PathEscape(isbn))

	var res Edition
	if err := c.get(ctx, u, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetAuthor fetches an author by key.
func (c *Client) GetAuthor(ctx context.Context, authorKey string) (*AuthorDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, authorTimeout)
	defer cancel()

	// authorKey is usually "/authors/OL..." or just "OL..."
	key := strings.TrimPrefix(authorKey, "/authors/")
	u := fmt.Sprintf("%s/authors/%s.json", c.baseURL, url.PathEscape(key))

	var res AuthorDetails
	if err := c.get(ctx, u, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) get(ctx context.Context, url string, target interface{}) error {
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			backoff := c.backoff * time.Duration(1<<uint(i-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		retry, err := c.do(ctx, url, target)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

// do performs one request. The bool reports whether the failure is worth
// retrying.
func (c *Client) do(ctx context.Context, url string, target interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, fmt.Errorf("%w: %s", ErrNotFound, url)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return true, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return false, fmt.Errorf("decode %s: %w", url, err)
	}
	return false, nil
}
