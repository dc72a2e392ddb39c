package tiktok

import (
	"fmt"
	"log/slog"
	"time"
)

// Config holds Scraper settings, filled in by the caller (the CLI reads them
// from the environment).
type Config struct {
	BaseURL      string
	Proxy        string
	MsToken      string
	CookiesFile  string
	APIDelay     time.Duration
	PageDelay    time.Duration
	Timeout      time.Duration
	MaxRetries   int
	RetryWait    time.Duration
	BrowserFetch bool
	Logger       *slog.Logger
}

// NewFromConfig builds a Scraper from cfg. Zero values keep New's defaults,
// except delays where zero means no throttling.
func NewFromConfig(cfg Config) (*Scraper, error) {
	s := New().
		WithAPIDelay(cfg.APIDelay).
		WithPageDelay(cfg.PageDelay).
		WithBrowserFetch(cfg.BrowserFetch).
		WithLogger(cfg.Logger)

	if cfg.BaseURL != "" {
		s.baseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		s.client.Timeout = cfg.Timeout
	}
	if cfg.MaxRetries > 0 {
		s.maxRetries = cfg.MaxRetries
	}
	if cfg.RetryWait > 0 {
		s.retryWait = cfg.RetryWait
	}
	if err := s.SetProxy(cfg.Proxy); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.CookiesFile != "" {
		if err := s.LoadCookies(cfg.CookiesFile); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	// An explicit token wins over one found in the cookie file.
	if cfg.MsToken != "" {
		s.WithMsToken(cfg.MsToken)
	}
	return s, nil
}
