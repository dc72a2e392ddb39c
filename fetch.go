package tiktok

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// errServerStatus marks 5xx responses so the retry loop can tell them apart
// from permanent failures.
var errServerStatus = errors.New("tiktok: server error")

// webParams are the query parameters the TikTok web app sends on every API
// call. Per-request params override them.
func (s *Scraper) webParams() url.Values {
	q := url.Values{}
	q.Set("aid", "1988")
	q.Set("app_language", "en")
	q.Set("app_name", "tiktok_web")
	q.Set("browser_language", "en-US")
	q.Set("browser_name", "Mozilla")
	q.Set("browser_online", "true")
	q.Set("browser_platform", "MacIntel")
	q.Set("browser_version", strings.TrimPrefix(s.userAgent, "Mozilla/"))
	q.Set("channel", "tiktok_web")
	q.Set("cookie_enabled", "true")
	q.Set("device_id", s.deviceID)
	q.Set("device_platform", "web_pc")
	q.Set("focus_state", "true")
	q.Set("from_page", "user")
	q.Set("history_len", "2")
	q.Set("is_fullscreen", "false")
	q.Set("is_page_visible", "true")
	q.Set("language", "en")
	q.Set("os", "mac")
	q.Set("region", "US")
	q.Set("screen_height", "1080")
	q.Set("screen_width", "1920")
	q.Set("webcast_language", "en")
	if s.msToken != "" {
		q.Set("msToken", s.msToken)
	}
	return q
}

func (s *Scraper) apiURL(endpoint string, params url.Values) string {
	q := s.webParams()
	for k, v := range params {
		q[k] = v
	}
	return s.baseURL + endpoint + "?" + q.Encode()
}

// Fetch implements Fetcher. It signs the request URL, waits out the API rate
// limit and retries rate-limited or 5xx responses with exponential backoff.
// An empty body is returned as (nil, nil).
func (s *Scraper) Fetch(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	totalStart := time.Now()
	rawURL := s.apiURL(endpoint, params)

	attempts := 0
	operation := func() ([]byte, error) {
		attempts++
		body, err := s.fetchOnce(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		if errors.Is(err, ErrRateLimited) || errors.Is(err, errServerStatus) || errors.Is(err, ErrSigningFailed) {
			s.logger.Debug("fetch: retryable failure",
				slog.String("endpoint", endpoint),
				slog.Int("attempt", attempts),
				slog.Any("error", err),
			)
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.retryWait
	bo.MaxInterval = 10 * s.retryWait

	body, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(s.maxRetries+1)),
		backoff.WithMaxElapsedTime(s.retryMaxAge),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", endpoint, err)
	}

	s.logger.Debug("fetch",
		slog.String("endpoint", endpoint),
		slog.Int("attempts", attempts),
		slog.Duration("total", time.Since(totalStart)),
		slog.Int("bytes", len(body)),
	)

	if len(body) == 0 {
		return nil, nil
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("fetch %s: %w: body is not json", endpoint, ErrInvalidResponse)
	}
	return body, nil
}

func (s *Scraper) fetchOnce(ctx context.Context, rawURL string) ([]byte, error) {
	if s.browserFetch {
		// Browser page is single-threaded.
		s.browserMu.Lock()
		defer s.browserMu.Unlock()
		s.waitForAPI()
		return s.fetchInBrowser(rawURL)
	}

	// Sign URL via browser JS (~50ms). Mutex protects single-threaded browser page.
	s.browserMu.Lock()
	signedURL, err := s.signFunc(rawURL)
	s.browserMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("sign url: %w", err)
	}

	// Rate limit before the HTTP call, not the signing.
	s.waitForAPI()

	resp, err := s.doRequest(ctx, http.MethodGet, signedURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := statusError(resp.StatusCode); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// statusError maps a web API status code to the error Fetch reports, or nil
// for 200. Rate limits, 5xx and 401/403 are told apart so the retry loop and
// callers can act on them. Anything else that is not 200 is an invalid
// response.
func statusError(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 500:
		return fmt.Errorf("%w: status %d", errServerStatus, code)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrAuthRequired, code)
	default:
		return fmt.Errorf("%w: status %d", ErrInvalidResponse, code)
	}
}

// browserFetchResult is what the in-browser fetch script returns.
type browserFetchResult struct {
	Status  int    `json:"status"`
	Body    string `json:"body"`
	FetchMs int    `json:"fetchMs"`
}

func decodeBrowserFetch(raw string) (browserFetchResult, error) {
	var res browserFetchResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return browserFetchResult{}, fmt.Errorf("%w: browser fetch result: %v", ErrInvalidResponse, err)
	}
	return res, nil
}

// body applies the same status rules as the HTTP path. An empty body is
// returned as nil.
func (r browserFetchResult) body() ([]byte, error) {
	if err := statusError(r.Status); err != nil {
		return nil, err
	}
	if r.Body == "" {
		return nil, nil
	}
	return []byte(r.Body), nil
}
