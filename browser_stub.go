//go:build unittest

package tiktok

import "fmt"

func (s *Scraper) InitBrowser() error {
	return fmt.Errorf("browser: %w (build tag: unittest)", ErrBrowserNotReady)
}

func (s *Scraper) signURL(string) (string, error) {
	return "", ErrBrowserNotReady
}

func (s *Scraper) fetchInBrowser(string) ([]byte, error) {
	return nil, ErrBrowserNotReady
}

func (s *Scraper) closeBrowser() error {
	s.page = nil
	s.browser = nil
	s.signingReady.Store(false)
	return nil
}
