package tiktok

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"golang.org/x/net/proxy"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	defaultBaseURL   = "https://www.tiktok.com"
)

// Scraper is the HTTP transport behind a Client. Web API requests are signed
// by a headless browser and sent either from Go's HTTP client or from inside
// the browser page; profile pages are plain HTTP.
type Scraper struct {
	client    *http.Client
	proxy     string
	userAgent string
	isLogged  bool
	baseURL   string // defaults to "https://www.tiktok.com"
	deviceID  string
	logger    *slog.Logger

	// Browser for URL signing and, with browserFetch set, for the requests.
	browser      *rod.Browser
	page         *rod.Page
	browserMu    sync.Mutex
	signingReady atomic.Bool
	browserFetch bool

	// signFunc signs a raw URL via browser JS. Replaceable for testing.
	signFunc func(rawURL string) (string, error)

	// Per-class rate limiting.
	// API: ~30/min → 2s min. Profile pages: ~60/min → 1s min.
	apiDelay    time.Duration
	pageDelay   time.Duration
	lastAPI     time.Time
	lastPage    time.Time
	apiMu       sync.Mutex
	pageMu      sync.Mutex
	maxRetries  int
	retryWait   time.Duration
	retryMaxAge time.Duration

	// Session token.
	msToken string
}

// defaultTransport returns an http.Transport optimized for scraping:
// connection pooling, keep-alive, and TLS handshake caching.
func defaultTransport() *http.Transport {
	return &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
}

// New creates a Scraper with sensible defaults. The browser is not launched
// until InitBrowser or Login is called.
func New() *Scraper {
	jar, _ := cookiejar.New(nil)
	s := &Scraper{
		client: &http.Client{
			Jar:       jar,
			Timeout:   15 * time.Second,
			Transport: defaultTransport(),
		},
		baseURL:     defaultBaseURL,
		userAgent:   defaultUserAgent,
		deviceID:    newDeviceID(),
		logger:      slog.Default(),
		apiDelay:    2 * time.Second,
		pageDelay:   1 * time.Second,
		maxRetries:  2,
		retryWait:   time.Second,
		retryMaxAge: 30 * time.Second,
	}
	s.signFunc = s.signURL
	return s
}

// Client returns a Client that fetches through s and shares its logger.
func (s *Scraper) Client(opts ...ClientOption) *Client {
	return NewClient(s, append([]ClientOption{WithLogger(s.logger)}, opts...)...)
}

// WithAPIDelay sets the minimum delay between signed web API requests.
func (s *Scraper) WithAPIDelay(d time.Duration) *Scraper {
	s.apiDelay = d
	return s
}

// WithPageDelay sets the minimum delay between profile page requests.
func (s *Scraper) WithPageDelay(d time.Duration) *Scraper {
	s.pageDelay = d
	return s
}

// WithRetry sets how many times a rate-limited or 5xx API request is retried
// and the initial backoff between attempts.
func (s *Scraper) WithRetry(maxRetries int, wait time.Duration) *Scraper {
	s.maxRetries = max(maxRetries, 0)
	s.retryWait = wait
	return s
}

// WithBrowserFetch sends API requests from inside the signing browser page
// so the TLS fingerprint and cookies match the signature.
func (s *Scraper) WithBrowserFetch(enabled bool) *Scraper {
	s.browserFetch = enabled
	return s
}

// WithLogger sets the logger for request timings and retries.
func (s *Scraper) WithLogger(l *slog.Logger) *Scraper {
	if l != nil {
		s.logger = l
	}
	return s
}

// WithMsToken sets the msToken sent with every API request.
func (s *Scraper) WithMsToken(token string) *Scraper {
	s.msToken = token
	return s
}

// SetProxy configures an HTTP/HTTPS or SOCKS5 proxy for the HTTP client.
// Connection pooling and keep-alive settings are preserved.
func (s *Scraper) SetProxy(proxyAddr string) error {
	if proxyAddr == "" {
		s.client.Transport = defaultTransport()
		s.proxy = ""
		return nil
	}

	u, err := url.Parse(proxyAddr)
	if err != nil {
		return fmt.Errorf("parse proxy url: %w", err)
	}

	base := defaultTransport()

	switch u.Scheme {
	case "http", "https":
		base.Proxy = http.ProxyURL(u)
		s.client.Transport = base
	case "socks5":
		var auth *proxy.Auth
		if u.User != nil {
			pass, _ := u.User.Password()
			auth = &proxy.Auth{User: u.User.Username(), Password: pass}
		}
		dialer, err := proxy.SOCKS5("tcp", u.Host, auth, proxy.Direct)
		if err != nil {
			return fmt.Errorf("socks5 proxy: %w", err)
		}
		dc, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return fmt.Errorf("socks5: context dialer not supported")
		}
		base.DialContext = dc.DialContext
		s.client.Transport = base
	default:
		return fmt.Errorf("unsupported proxy scheme: %s", u.Scheme)
	}

	s.proxy = proxyAddr
	return nil
}

// doRequest builds and executes an HTTP request with standard TikTok headers.
// No built-in rate limiting; callers use waitForAPI or waitForPage.
func (s *Scraper) doRequest(ctx context.Context, method, urlStr string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, urlStr, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", "https://www.tiktok.com/")
	req.Header.Set("Origin", "https://www.tiktok.com")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		resp.Body.Close()
		return nil, ErrRateLimited
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrNotFound
	}

	return resp, nil
}

// waitForAPI enforces rate limiting for signed web API calls.
func (s *Scraper) waitForAPI() {
	s.apiMu.Lock()
	defer s.apiMu.Unlock()
	s.throttle(&s.lastAPI, s.apiDelay)
}

// waitForPage enforces rate limiting for profile page loads.
func (s *Scraper) waitForPage() {
	s.pageMu.Lock()
	defer s.pageMu.Unlock()
	s.throttle(&s.lastPage, s.pageDelay)
}

// throttle sleeps if needed to enforce min delay + jitter between requests.
func (s *Scraper) throttle(lastReq *time.Time, delay time.Duration) {
	if delay == 0 {
		return
	}
	elapsed := time.Since(*lastReq)
	jitter := time.Duration(rand.Int64N(int64(500 * time.Millisecond)))
	wait := delay + jitter - elapsed
	if wait > 0 {
		time.Sleep(wait)
	}
	*lastReq = time.Now()
}

// newDeviceID returns a random 19-digit web device id.
func newDeviceID() string {
	return strconv.FormatInt(1_000_000_000_000_000_000+rand.Int64N(8_000_000_000_000_000_000), 10)
}

// IsLoggedIn reports whether the scraper has an active session.
func (s *Scraper) IsLoggedIn() bool {
	return s.isLogged
}

// Close releases all resources including the headless browser if running.
func (s *Scraper) Close() error {
	return s.closeBrowser()
}
