package tiktok

import (
	"context"
	"fmt"
	"net/url"
)

const (
	playlistVideosEndpoint = "/api/mix/item_list/"
	maxMixVideosPerPage    = 30
)

// Videos streams the videos in the playlist.
func (p *Playlist) Videos(count int, cursor string) *Pager[*Video] {
	col := collection[*Video]{
		name:     "playlist videos",
		endpoint: playlistVideosEndpoint,
		itemsKey: "itemList",
		maxPage:  maxMixVideosPerPage,
		prepare: func(context.Context) error {
			if p.ID == "" {
				return fmt.Errorf("%w: playlist id required", ErrMissingIdentifier)
			}
			return nil
		},
		params: func() url.Values {
			params := url.Values{}
			params.Set("mixId", p.ID)
			return params
		},
		build: p.client.Video,
	}
	return newPager(p.client, col, count, cursor)
}

// PlaylistByID returns a playlist known only by its mix id.
func (c *Client) PlaylistByID(id string) *Playlist {
	return &Playlist{ID: id, client: c}
}
