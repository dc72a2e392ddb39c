package tiktok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"net/url"
	"strconv"
)

// collection describes one cursor-paginated endpoint.
type collection[T any] struct {
	name     string // for logs and errors
	endpoint string
	itemsKey string
	moreKey  string // defaults to "hasMore"
	maxPage  int    // server-side cap on count per request

	// prepare runs once before the first fetch. Entities use it to resolve
	// identifiers the endpoint is keyed by.
	prepare func(ctx context.Context) error

	// params returns the identity params for a request. Evaluated after
	// prepare, so it sees hydrated identifiers.
	params func() url.Values

	build func(json.RawMessage) (T, error)
}

type page[T any] struct {
	items   []T
	cursor  string
	hasMore bool
}

// fetchPage requests a single page of at most size items starting at cursor.
// Items are all built before returning so a bad entry fails the whole page.
func (col collection[T]) fetchPage(ctx context.Context, c *Client, cursor string, size int) (page[T], error) {
	params := url.Values{}
	if col.params != nil {
		params = col.params()
	}
	params.Set("count", strconv.Itoa(size))
	params.Set("cursor", cursor)

	body, err := c.fetcher.Fetch(ctx, col.endpoint, params)
	if err != nil {
		return page[T]{}, fmt.Errorf("%s: %w: %w", col.name, ErrInvalidResponse, err)
	}
	if noResponse(body) {
		return page[T]{}, fmt.Errorf("%s: %w: no response", col.name, ErrInvalidResponse)
	}

	raw, err := decodePage(body)
	if err != nil {
		return page[T]{}, fmt.Errorf("%s: %w", col.name, err)
	}
	list, err := raw.items(col.itemsKey)
	if err != nil {
		return page[T]{}, fmt.Errorf("%s: %w", col.name, err)
	}

	moreKey := col.moreKey
	if moreKey == "" {
		moreKey = "hasMore"
	}
	p := page[T]{
		items:   make([]T, 0, len(list)),
		cursor:  raw.cursor(),
		hasMore: raw.hasMore(moreKey),
	}
	for i, data := range list {
		item, err := col.build(data)
		if err != nil {
			return page[T]{}, fmt.Errorf("%s: item %d: %w", col.name, i, err)
		}
		p.items = append(p.items, item)
	}
	return p, nil
}

// Pager streams a cursor-paginated collection. It is forward-only and
// single-use: each Next call either hands out a buffered item or fetches
// the next page, and nothing is fetched before the first Next.
//
//	p := user.Videos(100, "0")
//	for p.Next(ctx) {
//		v := p.Value()
//		...
//	}
//	if err := p.Err(); err != nil {
//		...
//	}
//
// A whole page is consumed before the count target is checked, so a pager
// may yield more than the requested count (up to one page extra).
type Pager[T any] struct {
	client *Client
	col    collection[T]

	want   int
	found  int
	cursor string

	prepared bool
	done     bool
	buf      []T
	cur      T
	err      error
}

func newPager[T any](c *Client, col collection[T], count int, cursor string) *Pager[T] {
	if cursor == "" {
		cursor = "0"
	}
	return &Pager[T]{
		client: c,
		col:    col,
		want:   count,
		cursor: cursor,
		done:   count <= 0,
	}
}

// Next advances to the next item, fetching a page when the buffer is empty.
// It returns false when the collection is exhausted, the count target is
// reached, or an error occurred.
func (p *Pager[T]) Next(ctx context.Context) bool {
	for len(p.buf) == 0 {
		if p.done || p.err != nil {
			var zero T
			p.cur = zero
			return false
		}
		if err := p.advance(ctx); err != nil {
			p.err = err
			p.buf = nil
			var zero T
			p.cur = zero
			return false
		}
	}
	p.cur = p.buf[0]
	p.buf = p.buf[1:]
	return true
}

// Value returns the item Next moved to.
func (p *Pager[T]) Value() T { return p.cur }

// Err returns the error that stopped the pager, if any.
func (p *Pager[T]) Err() error { return p.err }

// Cursor returns the cursor the next page would be requested with.
func (p *Pager[T]) Cursor() string { return p.cursor }

// All adapts the pager to a range-over-func sequence. A failure is yielded
// once as the final pair with a zero item.
func (p *Pager[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for p.Next(ctx) {
			if !yield(p.Value(), nil) {
				return
			}
		}
		if err := p.Err(); err != nil {
			var zero T
			yield(zero, err)
		}
	}
}

// Collect drains the pager. Items yielded before a failure are returned
// alongside the error.
func (p *Pager[T]) Collect(ctx context.Context) ([]T, error) {
	var out []T
	for p.Next(ctx) {
		out = append(out, p.Value())
	}
	return out, p.Err()
}

func (p *Pager[T]) advance(ctx context.Context) error {
	if !p.prepared {
		if p.col.prepare != nil {
			if err := p.col.prepare(ctx); err != nil {
				return fmt.Errorf("%s: %w", p.col.name, err)
			}
		}
		p.prepared = true
	}

	size := min(p.want-p.found, p.col.maxPage)
	pg, err := p.col.fetchPage(ctx, p.client, p.cursor, size)
	if err != nil {
		return err
	}

	p.buf = pg.items
	p.found += len(pg.items)

	switch {
	case !pg.hasMore:
		p.done = true
	case p.found >= p.want:
		p.done = true
	case len(pg.items) == 0 && (pg.cursor == "" || pg.cursor == p.cursor):
		p.client.logger.Warn("empty page without cursor advance, stopping",
			slog.String("collection", p.col.name),
			slog.String("cursor", p.cursor),
			slog.Int("found", p.found),
		)
		p.done = true
	}

	p.client.logger.Debug("page fetched",
		slog.String("collection", p.col.name),
		slog.String("cursor", p.cursor),
		slog.String("next_cursor", pg.cursor),
		slog.Int("size", size),
		slog.Int("items", len(pg.items)),
		slog.Bool("has_more", pg.hasMore),
	)

	p.cursor = pg.cursor
	return nil
}

// noResponse reports whether a fetched body carries no JSON value.
func noResponse(body json.RawMessage) bool {
	b := bytes.TrimSpace(body)
	return len(b) == 0 || bytes.Equal(b, []byte("null"))
}
