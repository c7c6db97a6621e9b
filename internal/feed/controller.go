package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/thesavant42/photofeed/internal/models"
)

// Controller owns one feed: its items, page cursor and loading flags.
// Each screen creates its own Controller; nothing is shared between them
// except the cache slot, which only the recent feed writes.
//
// Operations block until their request finishes and are safe to call from
// any goroutine. Overlapping loads are dropped, except Refresh and Search,
// which supersede the live request; a superseded response is discarded.
type Controller struct {
	mode    models.FeedMode
	fetcher Fetcher
	cache   CacheStore
	logger  *log.Logger

	mu       sync.Mutex
	state    State
	gen      uint64 // bumped for every request; only the latest may apply
	cancel   context.CancelFunc
	hydrated bool
	loaded   bool // a network page 1 has been applied

	// cacheMu serializes the cache compare-and-write
	cacheMu    sync.Mutex
	cacheRead  bool
	hasCached  bool
	cachedText string
}

// request is one issued fetch
type request struct {
	op     Op
	page   int
	query  string
	gen    uint64
	cancel context.CancelFunc
}

// NewController creates a controller for mode. cache may be nil and is
// ignored for the search feed, which never persists.
func NewController(mode models.FeedMode, fetcher Fetcher, cache CacheStore, logger *log.Logger) *Controller {
	if mode == models.ModeSearch {
		cache = nil
	}
	return &Controller{
		mode:    mode,
		fetcher: fetcher,
		cache:   cache,
		logger:  logger,
		state:   State{Page: 1},
	}
}

// Mode returns the feed mode
func (c *Controller) Mode() models.FeedMode {
	return c.mode
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	s.Items = append([]models.PhotoRecord(nil), c.state.Items...)
	return s
}

// Hydrate seeds the recent feed from the cache slot so something can be
// painted before the network answers. It runs at most once per controller
// and reports whether items were seeded.
func (c *Controller) Hydrate() bool {
	if c.cache == nil {
		return false
	}

	c.mu.Lock()
	if c.hydrated {
		c.mu.Unlock()
		return false
	}
	c.hydrated = true
	c.mu.Unlock()

	text, ok := c.cachedSlot()
	if !ok || text == "" {
		return false
	}

	var items []models.PhotoRecord
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		if c.logger != nil {
			c.logger.Warn("ignoring unreadable cached feed", "key", CacheKey, "err", err)
		}
		return false
	}
	items = models.FilterWithImages(items)
	if len(items) == 0 {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded || len(c.state.Items) > 0 {
		return false
	}
	c.state.Items = items
	if c.logger != nil {
		c.logger.Debug("feed hydrated from cache", "mode", c.mode, "items", len(items))
	}
	return true
}

// LoadInitial paints from the cache (recent feed) and then fetches page 1.
// It is dropped once a network page 1 has been applied or while a request
// is in flight; items seeded by Hydrate do not block it. The items are
// replaced only when page 1 differs from what is shown.
func (c *Controller) LoadInitial(ctx context.Context) error {
	c.mu.Lock()
	if c.loaded || c.state.Loading() {
		c.mu.Unlock()
		return nil
	}
	if c.mode == models.ModeSearch && c.state.Query == "" {
		c.mu.Unlock()
		return nil
	}
	req, reqCtx := c.beginLocked(ctx, OpInitial, 1, c.state.Query)
	c.mu.Unlock()

	c.Hydrate()
	return c.run(reqCtx, req)
}

// Refresh re-fetches page 1 and always replaces the items.
// It supersedes an in-flight initial load or load-more.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Refreshing {
		c.mu.Unlock()
		return nil
	}
	if c.mode == models.ModeSearch && c.state.Query == "" {
		c.mu.Unlock()
		return nil
	}
	req, reqCtx := c.beginLocked(ctx, OpRefresh, 1, c.state.Query)
	c.mu.Unlock()

	return c.run(reqCtx, req)
}

// LoadMore fetches the next page and appends it.
// Dropped while any request is in flight, or on a search feed with no query.
func (c *Controller) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Loading() {
		c.mu.Unlock()
		return nil
	}
	if c.mode == models.ModeSearch && c.state.Query == "" {
		c.mu.Unlock()
		return nil
	}
	req, reqCtx := c.beginLocked(ctx, OpLoadMore, c.state.Page+1, c.state.Query)
	c.mu.Unlock()

	return c.run(reqCtx, req)
}

// Search replaces the search feed with page 1 of query.
// A blank query is a no-op.
func (c *Controller) Search(ctx context.Context, query string) error {
	if c.mode != models.ModeSearch {
		return ErrNotSearchFeed
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	c.mu.Lock()
	req, reqCtx := c.beginLocked(ctx, OpSearch, 1, query)
	c.mu.Unlock()

	return c.run(reqCtx, req)
}

// Retry re-issues the last failed request with the same page and query.
// It is a no-op when nothing has failed.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	f := c.state.Failure
	if f == nil {
		c.mu.Unlock()
		return nil
	}
	supersedes := f.Op == OpRefresh || f.Op == OpSearch
	if c.state.Loading() && !supersedes {
		c.mu.Unlock()
		return nil
	}
	req, reqCtx := c.beginLocked(ctx, f.Op, f.Page, f.Query)
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Info("retrying request", "mode", c.mode, "op", f.Op, "page", f.Page)
	}
	return c.run(reqCtx, req)
}

// Dismiss forgets the last failure without retrying
func (c *Controller) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Failure = nil
}

// Clear empties the search feed and abandons any in-flight request
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
	c.state = State{Page: 1}
	c.loaded = false
}

// beginLocked marks a request as live. Any previous live request is
// cancelled and its response will be discarded. c.mu must be held.
func (c *Controller) beginLocked(ctx context.Context, op Op, page int, query string) (request, context.Context) {
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	reqCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.state.InitialLoading = op == OpInitial || op == OpSearch
	c.state.Refreshing = op == OpRefresh
	c.state.LoadingMore = op == OpLoadMore
	c.state.Failure = nil

	return request{op: op, page: page, query: query, gen: c.gen, cancel: cancel}, reqCtx
}

// run performs the fetch and applies its result if still current
func (c *Controller) run(ctx context.Context, req request) error {
	defer req.cancel()

	photos, err := c.fetcher.FetchPhotos(ctx, c.mode, req.query, req.page)
	received := len(photos)
	if err == nil {
		photos = models.FilterWithImages(photos)
	}

	c.mu.Lock()
	if req.gen != c.gen {
		c.mu.Unlock()
		if c.logger != nil {
			c.logger.Debug("discarding superseded response", "mode", c.mode, "op", req.op, "page", req.page)
		}
		return nil
	}
	c.cancel = nil
	c.state.InitialLoading = false
	c.state.Refreshing = false
	c.state.LoadingMore = false

	if err != nil {
		f := &Failure{Op: req.op, Mode: c.mode, Page: req.page, Query: req.query, Err: err}
		c.state.Failure = f
		c.mu.Unlock()
		if c.logger != nil {
			c.logger.Warn("photo request failed", "mode", c.mode, "op", req.op, "page", req.page, "err", err)
		}
		return f
	}

	var firstPage []models.PhotoRecord
	switch req.op {
	case OpLoadMore:
		c.state.Items = append(c.state.Items, photos...)
		c.state.Page = req.page
		c.state.Exhausted = received == 0
	case OpInitial:
		if !sameContent(c.state.Items, photos) {
			c.state.Items = photos
		}
		c.state.Page = 1
		c.state.Exhausted = false
		c.loaded = true
		firstPage = photos
	case OpRefresh, OpSearch:
		c.state.Items = photos
		c.state.Page = 1
		c.state.Query = req.query
		c.state.Exhausted = false
		c.loaded = true
		firstPage = photos
	}
	total := len(c.state.Items)
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Info("photos applied", "mode", c.mode, "op", req.op, "page", req.page, "received", len(photos), "total", total)
	}

	if firstPage != nil && c.cache != nil {
		c.writeThrough(firstPage)
	}
	return nil
}

// cachedSlot returns the cache text, reading the store only the first time
func (c *Controller) cachedSlot() (string, bool) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	return c.cachedSlotLocked()
}

func (c *Controller) cachedSlotLocked() (string, bool) {
	if !c.cacheRead {
		c.cacheRead = true
		text, ok, err := c.cache.Read(CacheKey)
		if err != nil {
			if c.logger != nil {
				c.logger.Warn("cache read failed", "key", CacheKey, "err", err)
			}
		} else if ok {
			c.cachedText = text
			c.hasCached = true
		}
	}
	return c.cachedText, c.hasCached
}

// writeThrough stores page 1 when it differs from the cached text.
// An absent slot compares equal to an empty list.
func (c *Controller) writeThrough(items []models.PhotoRecord) {
	data, err := json.Marshal(items)
	if err != nil {
		if c.logger != nil {
			c.logger.Error("failed to encode feed for cache", "err", err)
		}
		return
	}

	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	current, ok := c.cachedSlotLocked()
	if !ok {
		current = "[]"
	}
	if string(data) == current {
		return
	}

	if err := c.cache.Write(CacheKey, string(data)); err != nil {
		if c.logger != nil {
			c.logger.Warn("cache write failed", "key", CacheKey, "err", err)
		}
		return
	}
	c.cachedText = string(data)
	c.hasCached = true
	if c.logger != nil {
		c.logger.Debug("cache updated", "key", CacheKey, "items", len(items))
	}
}

// sameContent compares two lists by their serialized form
func sameContent(a, b []models.PhotoRecord) bool {
	if len(a) != len(b) {
		return false
	}
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}
