package tiktok

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Challenge/hashtag API responses.

type challengeDetailResponse struct {
	ChallengeInfo *rawChallengeInfo `json:"challengeInfo"`
}

type rawChallengeInfo struct {
	Challenge rawChallenge      `json:"challenge"`
	Stats     rawChallengeStats `json:"stats"`
}

type rawChallenge struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Desc  string `json:"desc"`
}

type rawChallengeStats struct {
	VideoCount int `json:"videoCount"`
	ViewCount  int `json:"viewCount"`
}

// Shared raw video/author/stats structs (match TikTok JSON exactly).

type rawVideo struct {
	ID         string    `json:"id"`
	Desc       string    `json:"desc"`
	CreateTime int64     `json:"createTime"`
	Author     rawAuthor `json:"author"`
	Stats      rawStats  `json:"stats"`
}

type rawAuthor struct {
	UniqueID    string `json:"uniqueId"`
	ID          string `json:"id"`
	SecUID      string `json:"secUid"`
	Nickname    string `json:"nickname"`
	AvatarThumb string `json:"avatarThumb"`
	Verified    bool   `json:"verified"`
}

type rawStats struct {
	PlayCount    int `json:"playCount"`
	DiggCount    int `json:"diggCount"`
	ShareCount   int `json:"shareCount"`
	CommentCount int `json:"commentCount"`
}

// Playlists come back as "mixes"; older responses use the mix* field names.
type rawPlaylist struct {
	ID         string `json:"id"`
	MixID      string `json:"mixId"`
	Name       string `json:"name"`
	MixName    string `json:"mixName"`
	VideoCount int    `json:"videoCount"`
	Cover      string `json:"cover"`
}

// User detail: either {"userInfo": {"user": ..., "stats": ...}} or the bare user object.

type rawUserInfo struct {
	User  *rawUserDetail `json:"user"`
	Stats rawUserStats   `json:"stats"`
}

type rawUserDetail struct {
	ID           string `json:"id"`
	UniqueID     string `json:"uniqueId"`
	Nickname     string `json:"nickname"`
	AvatarLarger string `json:"avatarLarger"`
	Signature    string `json:"signature"`
	Verified     bool   `json:"verified"`
	SecUID       string `json:"secUid"`
}

type rawUserStats struct {
	FollowerCount  int `json:"followerCount"`
	FollowingCount int `json:"followingCount"`
	Heart          int `json:"heart"`
	HeartCount     int `json:"heartCount"`
	VideoCount     int `json:"videoCount"`
	DiggCount      int `json:"diggCount"`
}

// SSR (Server-Side Rendered) data structs for __UNIVERSAL_DATA_FOR_REHYDRATION__.

type universalData struct {
	DefaultScope defaultScope `json:"__DEFAULT_SCOPE__"`
}

type defaultScope struct {
	UserDetail json.RawMessage `json:"webapp.user-detail"`
}

// cursorToken is the opaque continuation token. TikTok sends it as a number
// on some endpoints and as a string on others.
type cursorToken string

func (c *cursorToken) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = cursorToken(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("cursor: %w", err)
	}
	*c = cursorToken(n.String())
	return nil
}

// rawPage is a generic page envelope. Item lists live under endpoint-specific
// keys, so they are picked out of Fields by name.
type rawPage struct {
	Fields map[string]json.RawMessage
}

func decodePage(body []byte) (rawPage, error) {
	var p rawPage
	if err := json.Unmarshal(body, &p.Fields); err != nil {
		return rawPage{}, fmt.Errorf("%w: decode page: %v", ErrInvalidResponse, err)
	}
	if p.Fields == nil {
		return rawPage{}, fmt.Errorf("%w: page is not an object", ErrInvalidResponse)
	}
	return p, nil
}

// items returns the item list under key. A missing or null key is an empty page.
func (p rawPage) items(key string) ([]json.RawMessage, error) {
	raw, ok := p.Fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%w: %s is not a list: %v", ErrInvalidResponse, key, err)
	}
	return list, nil
}

// hasMore reads the continuation flag. Absent means false. Some endpoints
// send 0/1 instead of a boolean.
func (p rawPage) hasMore(key string) bool {
	raw, ok := p.Fields[key]
	if !ok {
		return false
	}
	var b bool
	if json.Unmarshal(raw, &b) == nil {
		return b
	}
	var n int
	if json.Unmarshal(raw, &n) == nil {
		return n != 0
	}
	return false
}

func (p rawPage) cursor() string {
	raw, ok := p.Fields["cursor"]
	if !ok {
		return ""
	}
	var c cursorToken
	if err := json.Unmarshal(raw, &c); err != nil {
		return ""
	}
	return string(c)
}

// parseVideo converts a raw TikTok API video to the public Video type.
func parseVideo(raw rawVideo) Video {
	return Video{
		ID:           raw.ID,
		Description:  raw.Desc,
		AuthorID:     raw.Author.ID,
		AuthorSecUID: raw.Author.SecUID,
		Username:     raw.Author.UniqueID,
		CreatedAt:    time.Unix(raw.CreateTime, 0),
		Views:        raw.Stats.PlayCount,
		Likes:        raw.Stats.DiggCount,
		Comments:     raw.Stats.CommentCount,
		Shares:       raw.Stats.ShareCount,
	}
}

func parsePlaylist(raw rawPlaylist) Playlist {
	p := Playlist{
		ID:         raw.ID,
		Name:       raw.Name,
		VideoCount: raw.VideoCount,
		Cover:      raw.Cover,
	}
	if p.ID == "" {
		p.ID = raw.MixID
	}
	if p.Name == "" {
		p.Name = raw.MixName
	}
	return p
}

// parseAuthor converts raw user info to the public Author type.
func parseAuthor(raw rawUserInfo) Author {
	a := Author{
		FollowerCount:  raw.Stats.FollowerCount,
		FollowingCount: raw.Stats.FollowingCount,
		HeartCount:     raw.Stats.HeartCount,
		VideoCount:     raw.Stats.VideoCount,
	}
	if a.HeartCount == 0 {
		a.HeartCount = raw.Stats.Heart
	}
	if u := raw.User; u != nil {
		a.ID = u.ID
		a.SecUID = u.SecUID
		a.Username = u.UniqueID
		a.Nickname = u.Nickname
		a.Verified = u.Verified
		a.Bio = u.Signature
		a.AvatarURL = u.AvatarLarger
	}
	return a
}
