package tiktok

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Video builds a Video from a raw item-list entry.
func (c *Client) Video(data json.RawMessage) (*Video, error) {
	var raw rawVideo
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode video: %v", ErrInvalidResponse, err)
	}
	v := parseVideo(raw)
	v.Raw = data
	v.client = c
	return &v, nil
}

// Playlist builds a Playlist from a raw playList entry.
func (c *Client) Playlist(data json.RawMessage) (*Playlist, error) {
	var raw rawPlaylist
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode playlist: %v", ErrInvalidResponse, err)
	}
	p := parsePlaylist(raw)
	p.Raw = data
	p.client = c
	return &p, nil
}

// UserFromData builds a hydrated User from a user detail payload, either the
// full {"userInfo": ...} response or a bare user object.
func (c *Client) UserFromData(data json.RawMessage) (*User, error) {
	id, err := c.parseUserPayload(data)
	if err != nil {
		return nil, err
	}
	u := newUser(c)
	u.Resolve(id.userID, id.secUID, id.username)
	u.raw = data
	return u, nil
}

type identity struct {
	userID   string
	secUID   string
	username string
}

// parseUserPayload extracts the id triple from a user payload. The profile
// may be nested under userInfo.user or sit at the top level.
//
// An empty nested user is what TikTok returns when the account does not
// exist, is banned, or the request was blocked. The three are not
// distinguishable from the response.
func (c *Client) parseUserPayload(data json.RawMessage) (identity, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return identity{}, fmt.Errorf("%w: empty user payload", ErrInvalidResponse)
	}

	var envelope struct {
		UserInfo *rawUserInfo `json:"userInfo"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return identity{}, fmt.Errorf("%w: decode user payload: %v", ErrInvalidResponse, err)
	}

	var user rawUserDetail
	if envelope.UserInfo != nil {
		if envelope.UserInfo.User == nil || envelope.UserInfo.User.ID == "" {
			return identity{}, fmt.Errorf("%w: empty user data (user missing, banned, or request blocked)", ErrInvalidResponse)
		}
		user = *envelope.UserInfo.User
	} else if err := json.Unmarshal(data, &user); err != nil {
		return identity{}, fmt.Errorf("%w: decode user: %v", ErrInvalidResponse, err)
	}

	id := identity{userID: user.ID, secUID: user.SecUID, username: user.UniqueID}
	if id.userID == "" || id.secUID == "" || id.username == "" {
		c.logger.Warn("user payload missing identifiers",
			slog.String("id", id.userID),
			slog.String("sec_uid", id.secUID),
			slog.String("username", id.username),
			slog.Int("bytes", len(data)),
		)
		return identity{}, fmt.Errorf("%w: user payload missing id, secUid or uniqueId", ErrInvalidResponse)
	}
	return id, nil
}
