package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
)

// Endpoints and per-request caps for user collections.
const (
	userDetailEndpoint    = "/api/user/detail/"
	userVideosEndpoint    = "/api/post/item_list/"
	userLikedEndpoint     = "/api/favorite/item_list"
	userPlaylistsEndpoint = "/api/user/playlist"

	maxVideosPerPage    = 35
	maxPlaylistsPerPage = 20
)

// User is a TikTok account. It can be created from a username or from the
// (user id, secUid) pair, and is hydrated lazily: collection methods fetch
// the profile first when the secUid needed to key them is still unknown.
//
// Hydration updates the user in place. A User is safe for concurrent use.
type User struct {
	client *Client

	mu       sync.RWMutex
	userID   string
	secUID   string
	username string
	raw      json.RawMessage
}

func newUser(c *Client) *User {
	return &User{client: c}
}

// Resolve records identifiers without touching the network. All three are
// replaced, including with empty values.
func (u *User) Resolve(userID, secUID, username string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.userID = userID
	u.secUID = secUID
	u.username = username
}

// ID returns the numeric user id, empty until known.
func (u *User) ID() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.userID
}

// SecUID returns the secUid that keys the user's collection endpoints.
func (u *User) SecUID() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.secUID
}

// Username returns the user's handle (uniqueId), without the '@'.
func (u *User) Username() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.username
}

// Raw returns the last user payload fetched or parsed, or nil.
func (u *User) Raw() json.RawMessage {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.raw
}

// Info fetches the user's profile and hydrates the user from it.
//
// It fails with ErrMissingIdentifier when neither a username nor a secUid is
// known, and with ErrInvalidResponse when the response is missing or carries
// no profile. An empty profile means the user does not exist, is banned, or
// the request was blocked; TikTok does not say which.
func (u *User) Info(ctx context.Context) (json.RawMessage, error) {
	u.mu.RLock()
	secUID, username := u.secUID, u.username
	u.mu.RUnlock()

	if secUID == "" && username == "" {
		return nil, fmt.Errorf("user info: %w: username or secUid required", ErrMissingIdentifier)
	}

	params := url.Values{}
	params.Set("secUid", secUID)
	params.Set("uniqueId", username)

	body, err := u.client.fetcher.Fetch(ctx, userDetailEndpoint, params)
	if err != nil {
		return nil, fmt.Errorf("user info %s: %w: %w", u.label(), ErrInvalidResponse, err)
	}
	if noResponse(body) {
		return nil, fmt.Errorf("user info %s: %w: no response", u.label(), ErrInvalidResponse)
	}

	id, err := u.client.parseUserPayload(body)
	if err != nil {
		return nil, fmt.Errorf("user info %s: %w", u.label(), err)
	}

	u.mu.Lock()
	u.userID, u.secUID, u.username = id.userID, id.secUID, id.username
	u.raw = body
	u.mu.Unlock()

	u.client.logger.Debug("user hydrated",
		slog.String("username", id.username),
		slog.String("id", id.userID),
	)
	return body, nil
}

// Profile returns the stats view of the last fetched payload. Stats are only
// present when the payload was a full user detail response.
func (u *User) Profile() Author {
	u.mu.RLock()
	raw := u.raw
	a := Author{ID: u.userID, SecUID: u.secUID, Username: u.username}
	u.mu.RUnlock()

	if len(raw) == 0 {
		return a
	}
	var envelope struct {
		UserInfo *rawUserInfo `json:"userInfo"`
	}
	if json.Unmarshal(raw, &envelope) != nil || envelope.UserInfo == nil {
		return a
	}
	return parseAuthor(*envelope.UserInfo)
}

// Videos streams the user's posted videos.
func (u *User) Videos(count int, cursor string) *Pager[*Video] {
	return newPager(u.client, u.videoCollection("user videos", userVideosEndpoint), count, cursor)
}

// VideosPage fetches exactly one page of the user's videos (at most 35) for
// callers that manage the cursor themselves. A count <= 0 returns an empty
// page at cursor without any request.
func (u *User) VideosPage(ctx context.Context, count int, cursor string) (VideoPage, error) {
	if cursor == "" {
		cursor = "0"
	}
	if count <= 0 {
		return VideoPage{Cursor: cursor}, nil
	}
	col := u.videoCollection("user videos page", userVideosEndpoint)
	if err := col.prepare(ctx); err != nil {
		return VideoPage{}, fmt.Errorf("%s: %w", col.name, err)
	}
	pg, err := col.fetchPage(ctx, u.client, cursor, min(count, maxVideosPerPage))
	if err != nil {
		return VideoPage{}, err
	}
	return VideoPage{Videos: pg.items, Cursor: pg.cursor, HasMore: pg.hasMore}, nil
}

// Liked streams the videos the user has liked. Private like lists come back
// as an invalid response.
func (u *User) Liked(count int, cursor string) *Pager[*Video] {
	return newPager(u.client, u.videoCollection("user liked", userLikedEndpoint), count, cursor)
}

// Playlists streams the user's playlists.
func (u *User) Playlists(count int, cursor string) *Pager[*Playlist] {
	col := collection[*Playlist]{
		name:     "user playlists",
		endpoint: userPlaylistsEndpoint,
		itemsKey: "playList",
		maxPage:  maxPlaylistsPerPage,
		prepare:  u.requireSecUID,
		params:   u.secUIDParams,
		build:    u.client.Playlist,
	}
	return newPager(u.client, col, count, cursor)
}

func (u *User) videoCollection(name, endpoint string) collection[*Video] {
	return collection[*Video]{
		name:     name,
		endpoint: endpoint,
		itemsKey: "itemList",
		maxPage:  maxVideosPerPage,
		prepare:  u.requireSecUID,
		params:   u.secUIDParams,
		build:    u.client.Video,
	}
}

// requireSecUID hydrates the user when the secUid that keys every
// collection endpoint is not known yet.
func (u *User) requireSecUID(ctx context.Context) error {
	if u.SecUID() != "" {
		return nil
	}
	_, err := u.Info(ctx)
	return err
}

func (u *User) secUIDParams() url.Values {
	params := url.Values{}
	params.Set("secUid", u.SecUID())
	return params
}

func (u *User) label() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.username != "" {
		return fmt.Sprintf("%q", u.username)
	}
	return fmt.Sprintf("secUid=%q", u.secUID)
}

func (u *User) String() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return fmt.Sprintf("tiktok.User(username=%q, id=%q, secUid=%q)", u.username, u.userID, u.secUID)
}
