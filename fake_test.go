package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
)

// fakeResponse is one scripted answer. An empty body with no error is the
// "no response" case.
type fakeResponse struct {
	body string
	err  error
}

type fakeCall struct {
	endpoint string
	params   url.Values
}

// fakeFetcher answers Fetch calls from per-endpoint queues and records them.
type fakeFetcher struct {
	mu     sync.Mutex
	routes map[string][]fakeResponse
	calls  []fakeCall
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{routes: map[string][]fakeResponse{}}
}

func (f *fakeFetcher) on(endpoint string, responses ...fakeResponse) *fakeFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[endpoint] = append(f.routes[endpoint], responses...)
	return f
}

func (f *fakeFetcher) Fetch(_ context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := url.Values{}
	for k, v := range params {
		cp[k] = append([]string(nil), v...)
	}
	f.calls = append(f.calls, fakeCall{endpoint: endpoint, params: cp})

	q := f.routes[endpoint]
	if len(q) == 0 {
		return nil, fmt.Errorf("fake: unexpected call to %s", endpoint)
	}
	r := q[0]
	f.routes[endpoint] = q[1:]
	if r.err != nil {
		return nil, r.err
	}
	if r.body == "" {
		return nil, nil
	}
	return json.RawMessage(r.body), nil
}

func (f *fakeFetcher) callsTo(endpoint string) []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fakeCall
	for _, c := range f.calls {
		if c.endpoint == endpoint {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestClient(f Fetcher) *Client {
	return NewClient(f, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func okBody(body string) fakeResponse { return fakeResponse{body: body} }

// userDetailJSON is a /api/user/detail/ response.
func userDetailJSON(id, secUID, username string) string {
	return fmt.Sprintf(`{"userInfo":{"user":{"id":%q,"secUid":%q,"uniqueId":%q,"nickname":"Nick","signature":"bio","verified":true,"avatarLarger":"https://img/a.jpg"},`+
		`"stats":{"followerCount":1200,"followingCount":30,"heartCount":9000,"videoCount":42}}}`, id, secUID, username)
}

// videoPageJSON is an item-list page holding videos with the given ids.
func videoPageJSON(key string, ids []string, cursor string, hasMore bool) string {
	items := make([]string, 0, len(ids))
	for _, id := range ids {
		items = append(items, fmt.Sprintf(`{"id":%q,"desc":"video %s","createTime":1706000000,`+
			`"author":{"id":"a1","secUid":"as1","uniqueId":"author"},`+
			`"stats":{"playCount":100,"diggCount":10,"shareCount":1,"commentCount":2}}`, id, id))
	}
	return fmt.Sprintf(`{%q:[%s],"cursor":%q,"hasMore":%v}`, key, strings.Join(items, ","), cursor, hasMore)
}

// numberedIDs returns n ids starting at from.
func numberedIDs(from, n int) []string {
	ids := make([]string, n)
	for i := range n {
		ids[i] = fmt.Sprintf("v%d", from+i)
	}
	return ids
}

func playlistPageJSON(ids []string, cursor string, hasMore bool) string {
	items := make([]string, 0, len(ids))
	for _, id := range ids {
		items = append(items, fmt.Sprintf(`{"id":%q,"name":"list %s","videoCount":5,"cover":"https://img/c.jpg"}`, id, id))
	}
	return fmt.Sprintf(`{"playList":[%s],"cursor":%q,"hasMore":%v}`, strings.Join(items, ","), cursor, hasMore)
}
