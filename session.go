package tiktok

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
)

// cookieURL is the origin session cookies are stored and sent under. It
// follows baseURL so a configured host receives the loaded session.
func (s *Scraper) cookieURL() *url.URL {
	u, err := url.Parse(s.baseURL)
	if err != nil || u.Host == "" {
		u, _ = url.Parse(defaultBaseURL)
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}
}

// GetCookies returns the session cookies for the scraper's base URL.
func (s *Scraper) GetCookies() []*http.Cookie {
	return s.client.Jar.Cookies(s.cookieURL())
}

// SetCookies stores session cookies under the base URL. An msToken cookie
// also becomes the msToken query param sent on API calls.
func (s *Scraper) SetCookies(cookies []*http.Cookie) {
	s.client.Jar.SetCookies(s.cookieURL(), cookies)
	if tok := msTokenFrom(cookies); tok != "" {
		s.msToken = tok
	}
}

func msTokenFrom(cookies []*http.Cookie) string {
	tok := ""
	for _, c := range cookies {
		if c.Name == "msToken" && c.Value != "" {
			tok = c.Value
		}
	}
	return tok
}

// SaveCookies writes the session cookies to path as JSON, readable only by
// the owner.
func (s *Scraper) SaveCookies(path string) error {
	cookies := s.GetCookies()
	if len(cookies) == 0 {
		return fmt.Errorf("save cookies: no session cookies for %s", s.cookieURL().Host)
	}
	data, err := json.Marshal(cookies)
	if err != nil {
		return fmt.Errorf("marshal cookies: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write cookies file: %w", err)
	}
	return nil
}

// LoadCookies restores a session saved by SaveCookies. An empty file is an
// error rather than a logged-out session.
func (s *Scraper) LoadCookies(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read cookies file: %w", err)
	}
	var cookies []*http.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return fmt.Errorf("unmarshal cookies: %w", err)
	}
	if len(cookies) == 0 {
		return fmt.Errorf("cookies file %s: no cookies", path)
	}
	s.SetCookies(cookies)
	s.isLogged = true
	return nil
}
