package tiktok

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Identity resolution
// ---------------------------------------------------------------------------

func TestUser_Resolve(t *testing.T) {
	t.Parallel()
	c := newTestClient(newFakeFetcher())

	u := c.User("bob")
	assert.Equal(t, "bob", u.Username())
	assert.Empty(t, u.ID())
	assert.Empty(t, u.SecUID())

	u.Resolve("1", "s1", "")
	assert.Equal(t, "1", u.ID())
	assert.Equal(t, "s1", u.SecUID())
	assert.Empty(t, u.Username(), "Resolve replaces all identifiers")
}

func TestUserByID(t *testing.T) {
	t.Parallel()
	u := newTestClient(newFakeFetcher()).UserByID("1", "s1")
	assert.Equal(t, "1", u.ID())
	assert.Equal(t, "s1", u.SecUID())
	assert.Empty(t, u.Username())
}

func TestUser_String(t *testing.T) {
	t.Parallel()
	u := newTestClient(newFakeFetcher()).UserByID("1", "s1")
	assert.Equal(t, `tiktok.User(username="", id="1", secUid="s1")`, u.String())
}

// ---------------------------------------------------------------------------
// Info (hydration)
// ---------------------------------------------------------------------------

func TestUserInfo_HydratesFromUsername(t *testing.T) {
	t.Parallel()
	f := newFakeFetcher().on(userDetailEndpoint, okBody(`{"userInfo":{"user":{"id":"1","secUid":"s1","uniqueId":"bob"}}}`))
	u := newTestClient(f).User("bob")

	raw, err := u.Info(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"userInfo":{"user":{"id":"1","secUid":"s1","uniqueId":"bob"}}}`, string(raw))

	assert.Equal(t, "1", u.ID())
	assert.Equal(t, "s1", u.SecUID())
	assert.Equal(t, "bob", u.Username())
	assert.Equal(t, raw, u.Raw())

	calls := f.callsTo(userDetailEndpoint)
	require.Len(t, calls, 1)
	assert.Equal(t, "bob", calls[0].params.Get("uniqueId"))
	assert.Equal(t, "", calls[0].params.Get("secUid"))
}

func TestUserInfo_KeyedBySecUID(t *testing.T) {
	t.Parallel()
	f := newFakeFetcher().on(userDetailEndpoint, okBody(userDetailJSON("1", "s1", "bob")))
	u := newTestClient(f).UserByID("", "s1")

	_, err := u.Info(context.Background())
	require.NoError(t, err)

	calls := f.callsTo(userDetailEndpoint)
	require.Len(t, calls, 1)
	assert.Equal(t, "s1", calls[0].params.Get("secUid"))
	assert.Equal(t, "bob", u.Username())
	assert.Equal(t, "1", u.ID())
}

func TestUserInfo_MissingIdentifier(t *testing.T) {
	t.Parallel()
	f := newFakeFetcher()
	u := newTestClient(f).UserByID("1", "")

	_, err := u.Info(context.Background())
	require.ErrorIs(t, err, ErrMissingIdentifier)
	assert.Zero(t, f.callCount(), "no request without an identifier")
}

func TestUserInfo_NoResponse(t *testing.T) {
	t.Parallel()
	for _, body := range []string{"", "null"} {
		f := newFakeFetcher().on(userDetailEndpoint, okBody(body))
		u := newTestClient(f).User("bob")

		_, err := u.Info(context.Background())
		require.ErrorIs(t, err, ErrInvalidResponse, "body %q", body)
		assert.Empty(t, u.ID())
	}
}

func TestUserInfo_TransportErrorKeepsCause(t *testing.T) {
	t.Parallel()
	f := newFakeFetcher().on(userDetailEndpoint, fakeResponse{err: ErrRateLimited})
	u := newTestClient(f).User("bob")

	_, err := u.Info(context.Background())
	require.ErrorIs(t, err, ErrInvalidResponse)
	require.ErrorIs(t, err, ErrRateLimited)
}

func TestUserInfo_EmptyNestedUser(t *testing.T) {
	t.Parallel()
	bodies := []string{
		`{"userInfo":{}}`,
		`{"userInfo":{"user":{}}}`,
		`{"userInfo":{"user":null}}`,
		`{"userInfo":{"user":{"secUid":"s1","uniqueId":"bob"}}}`,
	}
	for _, body := range bodies {
		f := newFakeFetcher().on(userDetailEndpoint, okBody(body))
		u := newTestClient(f).User("bob")

		_, err := u.Info(context.Background())
		require.ErrorIs(t, err, ErrInvalidResponse, "body %s", body)
		assert.Contains(t, err.Error(), "banned")
		assert.Equal(t, "bob", u.Username(), "failed hydration leaves the user untouched")
		assert.Nil(t, u.Raw())
	}
}

func TestUserInfo_NullIdentifiersRaised(t *testing.T) {
	t.Parallel()
	f := newFakeFetcher().on(userDetailEndpoint, okBody(`{"userInfo":{"user":{"id":"1","secUid":null,"uniqueId":"bob"}}}`))
	u := newTestClient(f).User("bob")

	_, err := u.Info(context.Background())
	require.ErrorIs(t, err, ErrInvalidResponse)
	assert.Empty(t, u.SecUID())
}

// ---------------------------------------------------------------------------
// UserFromData
// ---------------------------------------------------------------------------

func TestUserFromData(t *testing.T) {
	t.Parallel()
	c := newTestClient(newFakeFetcher())

	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"nested", `{"userInfo":{"user":{"id":"1","secUid":"s1","uniqueId":"bob"}}}`, false},
		{"top level", `{"id":"1","secUid":"s1","uniqueId":"bob"}`, false},
		{"empty nested", `{"userInfo":{"user":{}}}`, true},
		{"absent nested", `{"userInfo":{}}`, true},
		{"top level missing fields", `{"id":"1"}`, true},
		{"not json", `{`, true},
		{"empty", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := c.UserFromData(json.RawMessage(tt.data))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidResponse)
				assert.Nil(t, u)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "1", u.ID())
			assert.Equal(t, "s1", u.SecUID())
			assert.Equal(t, "bob", u.Username())
			assert.JSONEq(t, tt.data, string(u.Raw()))
		})
	}
}

func TestUserProfile(t *testing.T) {
	t.Parallel()
	f := newFakeFetcher().on(userDetailEndpoint, okBody(userDetailJSON("1", "s1", "bob")))
	u := newTestClient(f).User("bob")

	assert.Equal(t, Author{Username: "bob"}, u.Profile(), "no payload yet")

	_, err := u.Info(context.Background())
	require.NoError(t, err)

	a := u.Profile()
	assert.Equal(t, "1", a.ID)
	assert.Equal(t, "s1", a.SecUID)
	assert.Equal(t, "bob", a.Username)
	assert.Equal(t, "Nick", a.Nickname)
	assert.Equal(t, 1200, a.FollowerCount)
	assert.Equal(t, 30, a.FollowingCount)
	assert.Equal(t, 9000, a.HeartCount)
	assert.Equal(t, 42, a.VideoCount)
	assert.True(t, a.Verified)
	assert.Equal(t, "bio", a.Bio)
}

func TestUserProfile_TopLevelPayloadHasNoStats(t *testing.T) {
	t.Parallel()
	u, err := newTestClient(newFakeFetcher()).UserFromData(json.RawMessage(`{"id":"1","secUid":"s1","uniqueId":"bob"}`))
	require.NoError(t, err)
	assert.Equal(t, Author{ID: "1", SecUID: "s1", Username: "bob"}, u.Profile())
}

// ---------------------------------------------------------------------------
// Hydrator
// ---------------------------------------------------------------------------

func TestClientVideo_SharesClient(t *testing.T) {
	t.Parallel()
	c := newTestClient(newFakeFetcher())

	v, err := c.Video(json.RawMessage(`{"id":"7","desc":"hi","createTime":1706000000,` +
		`"author":{"id":"a1","secUid":"as1","uniqueId":"alice"},"stats":{"playCount":5,"diggCount":4,"commentCount":3,"shareCount":2}}`))
	require.NoError(t, err)
	assert.Equal(t, "7", v.ID)
	assert.Equal(t, "hi", v.Description)
	assert.Equal(t, int64(1706000000), v.CreatedAt.Unix())
	assert.Equal(t, 5, v.Views)
	assert.Equal(t, 4, v.Likes)
	assert.Equal(t, 3, v.Comments)
	assert.Equal(t, 2, v.Shares)
	assert.Same(t, c, v.client)

	author := v.Author()
	assert.Same(t, c, author.client)
	assert.Equal(t, "a1", author.ID())
	assert.Equal(t, "as1", author.SecUID())
	assert.Equal(t, "alice", author.Username())
}

func TestClientVideo_Malformed(t *testing.T) {
	t.Parallel()
	_, err := newTestClient(newFakeFetcher()).Video(json.RawMessage(`{"id":7}`))
	require.True(t, errors.Is(err, ErrInvalidResponse))
}

func TestClientPlaylist(t *testing.T) {
	t.Parallel()
	c := newTestClient(newFakeFetcher())

	p, err := c.Playlist(json.RawMessage(`{"id":"m1","name":"Best","videoCount":12,"cover":"https://img/c.jpg"}`))
	require.NoError(t, err)
	assert.Equal(t, "m1", p.ID)
	assert.Equal(t, "Best", p.Name)
	assert.Equal(t, 12, p.VideoCount)
	assert.Same(t, c, p.client)

	legacy, err := c.Playlist(json.RawMessage(`{"mixId":"m2","mixName":"Old"}`))
	require.NoError(t, err)
	assert.Equal(t, "m2", legacy.ID)
	assert.Equal(t, "Old", legacy.Name)
}
