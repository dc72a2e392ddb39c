package tiktok

import (
	"context"
	"fmt"
	"net/url"
)

const (
	searchEndpoint      = "/api/search/item/full/"
	maxSearchPerPage    = 20
	searchItemsKey      = "item_list"
	searchHasMoreKey    = "has_more"
	searchFromPageParam = "search"
)

// SearchVideos streams videos matching keyword. The search endpoint uses
// snake_case page keys, otherwise it pages like every other collection.
// Requires a signing browser and a logged-in session.
func (c *Client) SearchVideos(keyword string, count int) *Pager[*Video] {
	col := collection[*Video]{
		name:     "search videos",
		endpoint: searchEndpoint,
		itemsKey: searchItemsKey,
		moreKey:  searchHasMoreKey,
		maxPage:  maxSearchPerPage,
		prepare: func(context.Context) error {
			if keyword == "" {
				return fmt.Errorf("%w: keyword is required", ErrMissingIdentifier)
			}
			return nil
		},
		params: func() url.Values {
			params := url.Values{}
			params.Set("keyword", keyword)
			params.Set("from_page", searchFromPageParam)
			return params
		},
		build: c.Video,
	}
	return newPager(c, col, count, "0")
}
