package tiktok

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
)

// Fetcher issues a GET against a TikTok web API endpoint (a path such as
// "/api/user/detail/") and returns the JSON body. A nil body with a nil
// error means the service answered with nothing usable.
//
// *Scraper is the production implementation.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error)
}

// Client is the context shared by every entity it creates. Entities keep a
// pointer to it for network access and for building sibling entities, so
// users, videos and playlists built from one Client all talk to the same
// Fetcher.
type Client struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the logger used for malformed payloads and pagination events.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient returns a Client that fetches through f.
func NewClient(f Fetcher, opts ...ClientOption) *Client {
	c := &Client{
		fetcher: f,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// User returns an unhydrated user known only by username.
func (c *Client) User(username string) *User {
	u := newUser(c)
	u.Resolve("", "", username)
	return u
}

// UserByID returns an unhydrated user known by its id pair.
func (c *Client) UserByID(userID, secUID string) *User {
	u := newUser(c)
	u.Resolve(userID, secUID, "")
	return u
}
