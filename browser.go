//go:build !unittest

package tiktok

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// signScript turns frontierSign's output into a signed URL. frontierSign
// returns either the URL itself or an object like {"X-Bogus": "xxx"} whose
// entries become query params.
const signScript = `
	if (typeof window.byted_acrawler === 'undefined') {
		throw new Error('signing function not available');
	}
	const params = window.byted_acrawler.frontierSign(url);
	let signedUrl = url;
	if (typeof params === 'string') {
		signedUrl = params;
	} else {
		const u = new URL(url);
		for (const [k, v] of Object.entries(params)) {
			u.searchParams.set(k, v);
		}
		signedUrl = u.toString();
	}`

// InitBrowser launches a headless Chrome instance with stealth mode.
// The browser stays open in the background for URL signing.
func (s *Scraper) InitBrowser() error {
	return s.launchBrowser()
}

func (s *Scraper) launchBrowser() error {
	l := launcher.New().Headless(true)
	if s.proxy != "" {
		l = l.Proxy(s.proxy)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect browser: %w", err)
	}

	page, err := stealth.Page(browser)
	if err != nil {
		return fmt.Errorf("create stealth page: %w", err)
	}

	s.browser = browser
	s.page = page

	s.setupResourceBlocking()

	if err := s.page.Navigate(s.baseURL); err != nil {
		return fmt.Errorf("navigate to tiktok: %w", err)
	}
	if err := s.page.WaitStable(2 * time.Second); err != nil {
		return fmt.Errorf("wait for page stable: %w", err)
	}

	s.signingReady.Store(true)

	// Sync browser cookies (including fresh msToken) to the HTTP client.
	return s.syncCookiesFromBrowser()
}

func (s *Scraper) setupResourceBlocking() {
	router := s.browser.HijackRequests()
	blocked := []string{"*.css", "*.png", "*.jpg", "*.jpeg", "*.mp4", "*.woff*", "*.svg", "*analytics*"}
	for _, pattern := range blocked {
		router.MustAdd(pattern, func(ctx *rod.Hijack) {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		})
	}
	go router.Run()
}

// signURL calls TikTok's frontierSign JS to generate the X-Bogus signature.
// Caller must hold browserMu.
func (s *Scraper) signURL(rawURL string) (string, error) {
	if s.page == nil {
		return "", ErrBrowserNotReady
	}

	if err := s.ensureSigningReady(); err != nil {
		return "", fmt.Errorf("ensure signing ready: %w", err)
	}

	page := s.page.Timeout(5 * time.Second)
	result, err := page.Eval(`(url) => {`+signScript+`
		return signedUrl;
	}`, rawURL)
	if err != nil {
		// Next call reloads the page.
		s.signingReady.Store(false)
		return "", fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}

	return result.Value.String(), nil
}

// fetchInBrowser signs a URL and fetches it inside the browser via JS fetch(),
// so the request carries the browser's TLS fingerprint, cookies and session
// rather than net/http's.
// Caller must hold browserMu.
func (s *Scraper) fetchInBrowser(rawURL string) ([]byte, error) {
	totalStart := time.Now()

	if s.page == nil {
		return nil, ErrBrowserNotReady
	}

	if err := s.ensureSigningReady(); err != nil {
		return nil, fmt.Errorf("ensure signing ready: %w", err)
	}

	page := s.page.Timeout(15 * time.Second)

	result, err := page.Eval(`async (url) => {`+signScript+`
		const t0 = Date.now();
		const resp = await fetch(signedUrl, {
			method: 'GET',
			credentials: 'include',
			headers: {'Accept': 'application/json, text/plain, */*'},
		});
		const text = await resp.text();
		return JSON.stringify({status: resp.status, body: text, fetchMs: Date.now() - t0});
	}`, rawURL)
	if err != nil {
		s.signingReady.Store(false)
		s.logger.Debug("browser fetch: eval failed", slog.Duration("elapsed", time.Since(totalStart)))
		return nil, fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}

	res, err := decodeBrowserFetch(result.Value.Str())
	if err != nil {
		return nil, err
	}

	s.logger.Debug("browser fetch",
		slog.Int("status", res.Status),
		slog.Int("js_fetch_ms", res.FetchMs),
		slog.Duration("total", time.Since(totalStart)),
		slog.Int("bytes", len(res.Body)),
	)

	return res.body()
}

// ensureSigningReady checks if the signing JS is available, reloading only if
// a previous call failed (cached via atomic bool to avoid overhead per call).
func (s *Scraper) ensureSigningReady() error {
	if s.signingReady.Load() {
		return nil
	}

	result, err := s.page.Timeout(3 * time.Second).Eval(`() => typeof window.byted_acrawler !== 'undefined'`)
	if err != nil || !result.Value.Bool() {
		if err := s.page.Navigate(s.baseURL); err != nil {
			return fmt.Errorf("reload for signing: %w", err)
		}
		if err := s.page.WaitStable(2 * time.Second); err != nil {
			return fmt.Errorf("wait after reload: %w", err)
		}
	}

	s.signingReady.Store(true)
	return nil
}

func (s *Scraper) closeBrowser() error {
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			return fmt.Errorf("close page: %w", err)
		}
		s.page = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			return fmt.Errorf("close browser: %w", err)
		}
		s.browser = nil
	}
	return nil
}
