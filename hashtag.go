package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

const (
	challengeDetailEndpoint = "/api/challenge/detail/"
	challengeItemsEndpoint  = "/api/challenge/item_list/"
)

// Hashtag is a TikTok challenge. Like User it starts from a name and resolves
// the challenge id the item list is keyed by on first use.
type Hashtag struct {
	client *Client

	mu         sync.RWMutex
	name       string
	id         string
	title      string
	videoCount int
	viewCount  int
	raw        json.RawMessage
}

// Hashtag returns an unresolved hashtag. A leading '#' is dropped.
func (c *Client) Hashtag(name string) *Hashtag {
	return &Hashtag{client: c, name: strings.TrimPrefix(name, "#")}
}

// HashtagByID returns a hashtag known by challenge id; Videos will not need
// a detail lookup.
func (c *Client) HashtagByID(id string) *Hashtag {
	return &Hashtag{client: c, id: id}
}

// Name returns the hashtag name without the leading '#'.
func (h *Hashtag) Name() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.name
}

// ID returns the challenge id, empty until resolved.
func (h *Hashtag) ID() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.id
}

// Title returns the challenge title from the last detail lookup.
func (h *Hashtag) Title() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.title
}

// Stats returns the video and view counts from the last detail lookup.
func (h *Hashtag) Stats() (videos, views int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.videoCount, h.viewCount
}

// Info fetches challenge detail and fills in id, title and stats.
func (h *Hashtag) Info(ctx context.Context) (json.RawMessage, error) {
	h.mu.RLock()
	name, id := h.name, h.id
	h.mu.RUnlock()

	params := url.Values{}
	switch {
	case name != "":
		params.Set("challengeName", name)
	case id != "":
		params.Set("challengeId", id)
	default:
		return nil, fmt.Errorf("hashtag info: %w: name or id required", ErrMissingIdentifier)
	}

	body, err := h.client.fetcher.Fetch(ctx, challengeDetailEndpoint, params)
	if err != nil {
		return nil, fmt.Errorf("hashtag info %q: %w: %w", name, ErrInvalidResponse, err)
	}
	if noResponse(body) {
		return nil, fmt.Errorf("hashtag info %q: %w: no response", name, ErrInvalidResponse)
	}

	var result challengeDetailResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("hashtag info %q: %w: decode challenge detail: %v", name, ErrInvalidResponse, err)
	}
	if result.ChallengeInfo == nil || result.ChallengeInfo.Challenge.ID == "" {
		return nil, fmt.Errorf("hashtag info %q: %w: challenge not found", name, ErrInvalidResponse)
	}

	info := result.ChallengeInfo
	h.mu.Lock()
	h.id = info.Challenge.ID
	h.title = info.Challenge.Title
	if h.name == "" {
		h.name = info.Challenge.Title
	}
	h.videoCount = info.Stats.VideoCount
	h.viewCount = info.Stats.ViewCount
	h.raw = body
	h.mu.Unlock()

	return body, nil
}

// Videos streams videos posted under the hashtag.
func (h *Hashtag) Videos(count int, cursor string) *Pager[*Video] {
	col := collection[*Video]{
		name:     "hashtag videos",
		endpoint: challengeItemsEndpoint,
		itemsKey: "itemList",
		maxPage:  maxVideosPerPage,
		prepare: func(ctx context.Context) error {
			if h.ID() != "" {
				return nil
			}
			_, err := h.Info(ctx)
			return err
		},
		params: func() url.Values {
			params := url.Values{}
			params.Set("challengeID", h.ID())
			return params
		},
		build: h.client.Video,
	}
	return newPager(h.client, col, count, cursor)
}
