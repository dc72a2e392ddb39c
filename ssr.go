package tiktok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

var (
	ssrTagOpen  = []byte(`<script id="__UNIVERSAL_DATA_FOR_REHYDRATION__" type="application/json">`)
	ssrTagClose = []byte(`</script>`)
)

// ProfilePage loads a user's profile page and returns the embedded user
// detail payload ({"userInfo": ...}), the same shape /api/user/detail/
// returns. Pure HTTP: no browser, signing or login required.
//
//	raw, err := scraper.ProfilePage(ctx, "therock")
//	user, err := client.UserFromData(raw)
func (s *Scraper) ProfilePage(ctx context.Context, username string) (json.RawMessage, error) {
	if username == "" {
		return nil, fmt.Errorf("profile page: %w: username is required", ErrMissingIdentifier)
	}

	totalStart := time.Now()
	profileURL := s.baseURL + "/@" + url.PathEscape(username)

	delayStart := time.Now()
	s.waitForPage()
	delayDur := time.Since(delayStart)

	httpStart := time.Now()
	resp, err := s.doRequest(ctx, http.MethodGet, profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("profile page %q: %w", username, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read profile page %q: %w", username, err)
	}
	httpDur := time.Since(httpStart)

	parseStart := time.Now()
	data, err := extractUniversalData(body)
	if err != nil {
		return nil, fmt.Errorf("parse profile page %q: %w", username, err)
	}
	if noResponse(data.DefaultScope.UserDetail) {
		return nil, fmt.Errorf("profile page %q: %w: user detail missing", username, ErrInvalidResponse)
	}

	s.logger.Debug("profile page",
		slog.String("user", username),
		slog.Duration("delay", delayDur),
		slog.Duration("http", httpDur),
		slog.Duration("parse", time.Since(parseStart)),
		slog.Duration("total", time.Since(totalStart)),
		slog.Int("bytes", len(body)),
	)

	return data.DefaultScope.UserDetail, nil
}

// extractUniversalData finds and parses the __UNIVERSAL_DATA_FOR_REHYDRATION__
// JSON embedded in TikTok's server-rendered HTML.
func extractUniversalData(htmlBody []byte) (universalData, error) {
	start := bytes.Index(htmlBody, ssrTagOpen)
	if start == -1 {
		return universalData{}, fmt.Errorf("%w: rehydration script tag not found", ErrInvalidResponse)
	}
	start += len(ssrTagOpen)

	end := bytes.Index(htmlBody[start:], ssrTagClose)
	if end == -1 {
		return universalData{}, fmt.Errorf("%w: closing script tag not found", ErrInvalidResponse)
	}

	var data universalData
	if err := json.Unmarshal(htmlBody[start:start+end], &data); err != nil {
		return universalData{}, fmt.Errorf("%w: unmarshal ssr data: %v", ErrInvalidResponse, err)
	}
	return data, nil
}
