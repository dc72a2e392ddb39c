//go:build unittest

package tiktok

import "fmt"

// Login needs the browser, which unittest builds do not have.
func (s *Scraper) Login(username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("login: %w: username and password required", ErrMissingIdentifier)
	}
	return fmt.Errorf("login: %w (build tag: unittest)", ErrBrowserNotReady)
}

// LoginWithCookies restores the session, then fails where the real build
// would start the signing browser. The loaded cookies stay usable for
// unsigned requests such as ProfilePage.
func (s *Scraper) LoginWithCookies(path string) error {
	if err := s.LoadCookies(path); err != nil {
		return fmt.Errorf("login with cookies: %w", err)
	}
	return fmt.Errorf("init browser for signing: %w (build tag: unittest)", ErrBrowserNotReady)
}
