package tiktok

import (
	"encoding/json"
	"time"
)

// Video represents a TikTok video with its engagement metrics.
type Video struct {
	ID           string
	Description  string
	AuthorID     string
	AuthorSecUID string
	Username     string
	CreatedAt    time.Time
	Views        int
	Likes        int
	Comments     int
	Shares       int

	// Raw is the item JSON the video was built from.
	Raw json.RawMessage

	client *Client
}

// Author returns the video's author as a User sharing the video's client.
// The user is not hydrated; identifiers come from the embedded author object.
func (v *Video) Author() *User {
	u := newUser(v.client)
	u.Resolve(v.AuthorID, v.AuthorSecUID, v.Username)
	return u
}

// Playlist is a user-curated collection of videos (a "mix" in TikTok's API).
type Playlist struct {
	ID         string
	Name       string
	VideoCount int
	Cover      string

	Raw json.RawMessage

	client *Client
}

// VideoPage is a single page of a user's videos, for callers that drive
// pagination themselves.
type VideoPage struct {
	Videos  []*Video
	Cursor  string
	HasMore bool
}

// Author represents a TikTok user profile with their stats.
type Author struct {
	ID             string
	SecUID         string
	Username       string
	Nickname       string
	FollowerCount  int
	FollowingCount int
	HeartCount     int
	VideoCount     int
	Verified       bool
	Bio            string
	AvatarURL      string
}
