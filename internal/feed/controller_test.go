package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesavant42/photofeed/internal/models"
)

// fakeFetcher serves canned pages keyed by query and page. A gate blocks the
// matching request until it is closed or the request context is cancelled.
type fakeFetcher struct {
	mu      sync.Mutex
	results map[string][]models.PhotoRecord
	fail    map[string]error
	gates   map[string]chan struct{}
	calls   []string
	started chan string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		results: map[string][]models.PhotoRecord{},
		fail:    map[string]error{},
		gates:   map[string]chan struct{}{},
		started: make(chan string, 16),
	}
}

func fetchKey(query string, page int) string {
	return fmt.Sprintf("%s|%d", query, page)
}

func (f *fakeFetcher) set(query string, page int, records []models.PhotoRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[fetchKey(query, page)] = records
	delete(f.fail, fetchKey(query, page))
}

func (f *fakeFetcher) failWith(query string, page int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[fetchKey(query, page)] = err
}

func (f *fakeFetcher) gate(query string, page int) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[fetchKey(query, page)] = ch
	return ch
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeFetcher) FetchPhotos(ctx context.Context, mode models.FeedMode, query string, page int) ([]models.PhotoRecord, error) {
	k := fetchKey(query, page)

	f.mu.Lock()
	f.calls = append(f.calls, k)
	gate := f.gates[k]
	f.mu.Unlock()

	f.started <- k

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[k]; err != nil {
		return nil, err
	}
	return append([]models.PhotoRecord(nil), f.results[k]...), nil
}

// memCache counts writes to the slot
type memCache struct {
	mu     sync.Mutex
	values map[string]string
	writes int
}

func newMemCache() *memCache {
	return &memCache{values: map[string]string{}}
}

func (m *memCache) Read(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memCache) Write(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	m.writes++
	return nil
}

func (m *memCache) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func photos(prefix string, n int) []models.PhotoRecord {
	out := make([]models.PhotoRecord, n)
	for i := range out {
		id := fmt.Sprintf("%s%d", prefix, i)
		out[i] = models.PhotoRecord{ID: id, Title: "title " + id, ImageURL: "https://live.staticflickr.com/" + id + "_s.jpg"}
	}
	return out
}

func waitStarted(t *testing.T, f *fakeFetcher, want string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case got := <-f.started:
			if got == want {
				return
			}
		case <-timeout:
			t.Fatalf("request %s never started", want)
		}
	}
}

func TestLoadInitialThenLoadMore(t *testing.T) {
	f := newFakeFetcher()
	f.set("", 1, photos("a", 20))
	f.set("", 2, photos("b", 15))
	c := NewController(models.ModeRecent, f, newMemCache(), nil)

	require.NoError(t, c.LoadInitial(context.Background()))
	s := c.Snapshot()
	assert.Len(t, s.Items, 20)
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, StatusIdle, s.Status())

	require.NoError(t, c.LoadMore(context.Background()))
	s = c.Snapshot()
	assert.Len(t, s.Items, 35)
	assert.Equal(t, 2, s.Page)
	assert.Equal(t, "b0", s.Items[20].ID)
}

func TestLoadMoreKeepsDuplicates(t *testing.T) {
	f := newFakeFetcher()
	f.set("", 1, photos("a", 3))
	f.set("", 2, photos("a", 2))
	c := NewController(models.ModeRecent, f, nil, nil)

	require.NoError(t, c.LoadInitial(context.Background()))
	require.NoError(t, c.LoadMore(context.Background()))

	s := c.Snapshot()
	require.Len(t, s.Items, 5)
	assert.Equal(t, s.Items[0], s.Items[3])
}

func TestItemsNeverLackImage(t *testing.T) {
	f := newFakeFetcher()
	page := photos("a", 3)
	page[1].ImageURL = ""
	f.set("", 1, page)

	cache := newMemCache()
	cache.values[CacheKey] = `[{"id":"c1","title":"","url_s":""},{"id":"c2","title":"","url_s":"https://x.test/c2.jpg"}]`
	c := NewController(models.ModeRecent, f, cache, nil)

	require.True(t, c.Hydrate())
	for _, p := range c.Snapshot().Items {
		assert.NotEmpty(t, p.ImageURL, "hydrated record %s", p.ID)
	}

	require.NoError(t, c.Refresh(context.Background()))
	s := c.Snapshot()
	assert.Len(t, s.Items, 2)
	for _, p := range s.Items {
		assert.NotEmpty(t, p.ImageURL, "fetched record %s", p.ID)
	}
}

func TestRefreshReplacesEvenWhenIdentical(t *testing.T) {
	f := newFakeFetcher()
	f.set("", 1, photos("a", 20))
	f.set("", 2, photos("b", 20))
	c := NewController(models.ModeRecent, f, nil, nil)

	require.NoError(t, c.LoadInitial(context.Background()))
	require.NoError(t, c.LoadMore(context.Background()))
	require.Equal(t, 2, c.Snapshot().Page)

	require.NoError(t, c.Refresh(context.Background()))
	s := c.Snapshot()
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, photos("a", 20), s.Items)
	assert.False(t, s.Refreshing)
}

func TestRefreshClearsFlagOnFailure(t *testing.T) {
	f := newFakeFetcher()
	f.set("", 1, photos("a", 5))
	c := NewController(models.ModeRecent, f, nil, nil)
	require.NoError(t, c.LoadInitial(context.Background()))

	f.failWith("", 1, errors.New("connection reset"))
	err := c.Refresh(context.Background())
	require.Error(t, err)

	s := c.Snapshot()
	assert.False(t, s.Refreshing)
	assert.Len(t, s.Items, 5)
	assert.Equal(t, StatusFailed, s.Status())
}

func TestLoadMoreDroppedWhileLoading(t *testing.T) {
	f := newFakeFetcher()
	f.set("", 1, photos("a", 20))
	gate := f.gate("", 1)
	c := NewController(models.ModeRecent, f, nil, nil)

	done := make(chan error, 1)
	go func() { done <- c.LoadInitial(context.Background()) }()
	waitStarted(t, f, "|1")

	require.NoError(t, c.LoadMore(context.Background()))
	require.NoError(t, c.LoadInitial(context.Background()))
	assert.Equal(t, 1, f.callCount())
	assert.Equal(t, 1, c.Snapshot().Page)

	close(gate)
	require.NoError(t, <-done)

	f.set("", 2, photos("b", 20))
	gate2 := f.gate("", 2)
	go func() { done <- c.LoadMore(context.Background()) }()
	waitStarted(t, f, "|2")

	// A second scroll-end while the first load-more is in flight is ignored
	require.NoError(t, c.LoadMore(context.Background()))
	assert.Equal(t, 2, f.callCount())

	close(gate2)
	require.NoError(t, <-done)
	assert.Equal(t, 2, c.Snapshot().Page)
}

func TestFailedLoadMoreKeepsPageAndRetryReusesIt(t *testing.T) {
	f := newFakeFetcher()
	f.set("", 1, photos("a", 20))
	c := NewController(models.ModeRecent, f, nil, nil)
	require.NoError(t, c.LoadInitial(context.Background()))

	f.failWith("", 2, errors.New("timeout"))
	err := c.LoadMore(context.Background())
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, OpLoadMore, failure.Op)
	assert.Equal(t, 2, failure.Page)
	assert.True(t, failure.Appends())

	s := c.Snapshot()
	assert.Equal(t, 1, s.Page)
	assert.Len(t, s.Items, 20)
	assert.False(t, s.LoadingMore)

	f.set("", 2, photos("b", 15))
	require.NoError(t, c.Retry(context.Background()))

	s = c.Snapshot()
	assert.Equal(t, 2, s.Page)
	assert.Len(t, s.Items, 35)
	assert.Nil(t, s.Failure)
}

func TestRetryWithoutFailureIsNoop(t *testing.T) {
	f := newFakeFetcher()
	c := NewController(models.ModeRecent, f, nil, nil)

	require.NoError(t, c.Retry(context.Background()))
	assert.Zero(t, f.callCount())
}

func TestDismissClearsFailure(t *testing.T) {
	f := newFakeFetcher()
	f.failWith("", 1, errors.New("dns"))
	c := NewController(models.ModeRecent, f, nil, nil)

	require.Error(t, c.LoadInitial(context.Background()))
	require.NotNil(t, c.Snapshot().Failure)

	c.Dismiss()
	assert.Nil(t, c.Snapshot().Failure)
	assert.Equal(t, StatusIdle, c.Snapshot().Status())
}

func TestCacheWrittenOnlyWhenContentChanges(t *testing.T) {
	f := newFakeFetcher()
	f.set("", 1, photos("a", 20))
	cache := newMemCache()
	c := NewController(models.ModeRecent, f, cache, nil)

	require.NoError(t, c.LoadInitial(context.Background()))
	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, 1, cache.writeCount())

	var cached []models.PhotoRecord
	require.NoError(t, json.Unmarshal([]byte(cache.values[CacheKey]), &cached))
	assert.Equal(t, photos("a", 20), cached)

	f.set("", 1, photos("z", 20))
	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, 2, cache.writeCount())

	// Later pages never touch the slot
	f.set("", 2, photos("b", 5))
	require.NoError(t, c.LoadMore(context.Background()))
	assert.Equal(t, 2, cache.writeCount())
}

func TestCacheNotRewrittenWhenAlreadyCurrent(t *testing.T) {
	f := newFakeFetcher()
	f.set("", 1, photos("a", 4))
	data, err := json.Marshal(photos("a", 4))
	require.NoError(t, err)

	cache := newMemCache()
	cache.values[CacheKey] = string(data)
	c := NewController(models.ModeRecent, f, cache, nil)

	require.NoError(t, c.LoadInitial(context.Background()))
	assert.Zero(t, cache.writeCount())
	assert.Len(t, c.Snapshot().Items, 4)
}

func TestEmptyFeedWithoutCacheIsNotWritten(t *testing.T) {
	f := newFakeFetcher()
	f.set("", 1, []models.PhotoRecord{})
	cache := newMemCache()
	c := NewController(models.ModeRecent, f, cache, nil)

	require.NoError(t, c.LoadInitial(context.Background()))
	assert.Zero(t, cache.writeCount())
}

func TestColdStartPaintsCacheBeforeNetwork(t *testing.T) {
	cachedItems := photos("c", 6)
	data, err := json.Marshal(cachedItems)
	require.NoError(t, err)
	cache := newMemCache()
	cache.values[CacheKey] = string(data)

	f := newFakeFetcher()
	f.set("", 1, photos("n", 20))
	gate := f.gate("", 1)
	c := NewController(models.ModeRecent, f, cache, nil)

	done := make(chan error, 1)
	go func() { done <- c.LoadInitial(context.Background()) }()
	waitStarted(t, f, "|1")

	s := c.Snapshot()
	assert.Equal(t, cachedItems, s.Items)
	assert.True(t, s.InitialLoading)

	close(gate)
	require.NoError(t, <-done)

	s = c.Snapshot()
	assert.Equal(t, photos("n", 20), s.Items)
	assert.False(t, s.InitialLoading)
	assert.Equal(t, 1, cache.writeCount())
}

func TestFailedInitialLoadKeepsCachedItems(t *testing.T) {
	cachedItems := photos("c", 3)
	data, err := json.Marshal(cachedItems)
	require.NoError(t, err)
	cache := newMemCache()
	cache.values[CacheKey] = string(data)

	f := newFakeFetcher()
	f.failWith("", 1, errors.New("offline"))
	c := NewController(models.ModeRecent, f, cache, nil)

	require.Error(t, c.LoadInitial(context.Background()))
	s := c.Snapshot()
	assert.Equal(t, cachedItems, s.Items)
	assert.False(t, s.InitialLoading)
	assert.Equal(t, StatusFailed, s.Status())
	assert.Zero(t, cache.writeCount())
}

func TestHydrateRunsOnce(t *testing.T) {
	cache := newMemCache()
	cache.values[CacheKey] = `[{"id":"1","title":"","url_s":"https://x.test/1.jpg"}]`
	c := NewController(models.ModeRecent, newFakeFetcher(), cache, nil)

	assert.True(t, c.Hydrate())
	assert.False(t, c.Hydrate())
}

func TestHydrateIgnoresCorruptCache(t *testing.T) {
	cache := newMemCache()
	cache.values[CacheKey] = `{not json`
	c := NewController(models.ModeRecent, newFakeFetcher(), cache, nil)

	assert.False(t, c.Hydrate())
	assert.Empty(t, c.Snapshot().Items)
}

func TestHydrateThenLoadInitialFetchesNetwork(t *testing.T) {
	cache := newMemCache()
	cache.values[CacheKey] = `[{"id":"old","title":"","url_s":"https://x.test/old.jpg"}]`
	f := newFakeFetcher()
	f.set("", 1, photos("n", 20))
	c := NewController(models.ModeRecent, f, cache, nil)

	require.True(t, c.Hydrate())
	require.Len(t, c.Snapshot().Items, 1)

	require.NoError(t, c.LoadInitial(context.Background()))
	assert.Equal(t, 1, f.callCount())

	s := c.Snapshot()
	assert.Equal(t, photos("n", 20), s.Items)
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, 1, cache.writeCount())
}

func TestLoadInitialDroppedOncePageOneApplied(t *testing.T) {
	f := newFakeFetcher()
	f.set("", 1, photos("a", 5))
	c := NewController(models.ModeRecent, f, nil, nil)

	require.NoError(t, c.LoadInitial(context.Background()))
	require.NoError(t, c.LoadInitial(context.Background()))
	assert.Equal(t, 1, f.callCount())
}

func TestEmptyLoadMoreMarksExhausted(t *testing.T) {
	f := newFakeFetcher()
	f.set("", 1, photos("a", 20))
	f.set("", 2, []models.PhotoRecord{})
	c := NewController(models.ModeRecent, f, nil, nil)

	require.NoError(t, c.LoadInitial(context.Background()))
	assert.False(t, c.Snapshot().Exhausted)

	require.NoError(t, c.LoadMore(context.Background()))
	s := c.Snapshot()
	assert.True(t, s.Exhausted)
	assert.Len(t, s.Items, 20)

	require.NoError(t, c.Refresh(context.Background()))
	assert.False(t, c.Snapshot().Exhausted)
}

func TestLoadMoreWithImagelessRecordsIsNotExhausted(t *testing.T) {
	f := newFakeFetcher()
	f.set("", 1, photos("a", 2))
	page := photos("b", 2)
	page[0].ImageURL = ""
	page[1].ImageURL = ""
	f.set("", 2, page)
	c := NewController(models.ModeRecent, f, nil, nil)

	require.NoError(t, c.LoadInitial(context.Background()))
	require.NoError(t, c.LoadMore(context.Background()))

	s := c.Snapshot()
	assert.False(t, s.Exhausted)
	assert.Len(t, s.Items, 2)
	assert.Equal(t, 2, s.Page)
}

func TestSearchBlankIsNoop(t *testing.T) {
	f := newFakeFetcher()
	f.set("cat", 1, photos("cat", 20))
	c := NewController(models.ModeSearch, f, nil, nil)
	require.NoError(t, c.Search(context.Background(), "cat"))
	before := c.Snapshot()

	for _, q := range []string{"", "   ", "\t\n"} {
		require.NoError(t, c.Search(context.Background(), q))
		after := c.Snapshot()
		assert.Equal(t, before.Items, after.Items)
		assert.Equal(t, before.Page, after.Page)
	}
	assert.Equal(t, 1, f.callCount())
}

func TestSearchReplacesPreviousResults(t *testing.T) {
	f := newFakeFetcher()
	f.set("cat", 1, photos("cat", 20))
	f.set("cat", 2, photos("cat2-", 20))
	f.set("dog", 1, photos("dog", 7))
	c := NewController(models.ModeSearch, f, nil, nil)

	require.NoError(t, c.Search(context.Background(), "  cat "))
	require.NoError(t, c.LoadMore(context.Background()))
	require.Equal(t, 2, c.Snapshot().Page)

	require.NoError(t, c.Search(context.Background(), "dog"))
	s := c.Snapshot()
	assert.Equal(t, "dog", s.Query)
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, photos("dog", 7), s.Items)
}

func TestSearchSupersedesInFlightSearch(t *testing.T) {
	f := newFakeFetcher()
	f.set("cat", 1, photos("cat", 20))
	f.set("dog", 1, photos("dog", 20))
	f.gate("cat", 1)
	c := NewController(models.ModeSearch, f, nil, nil)

	done := make(chan error, 1)
	go func() { done <- c.Search(context.Background(), "cat") }()
	waitStarted(t, f, "cat|1")

	require.NoError(t, c.Search(context.Background(), "dog"))
	// The cancelled cat request returns without applying anything
	require.NoError(t, <-done)

	s := c.Snapshot()
	assert.Equal(t, "dog", s.Query)
	assert.Equal(t, photos("dog", 20), s.Items)
	assert.Nil(t, s.Failure)
}

func TestRefreshSupersedesLoadMore(t *testing.T) {
	f := newFakeFetcher()
	f.set("", 1, photos("a", 20))
	c := NewController(models.ModeRecent, f, nil, nil)
	require.NoError(t, c.LoadInitial(context.Background()))

	f.set("", 2, photos("b", 20))
	f.gate("", 2)
	done := make(chan error, 1)
	go func() { done <- c.LoadMore(context.Background()) }()
	waitStarted(t, f, "|2")

	f.set("", 1, photos("r", 20))
	require.NoError(t, c.Refresh(context.Background()))
	require.NoError(t, <-done)

	s := c.Snapshot()
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, photos("r", 20), s.Items)
	assert.False(t, s.LoadingMore)
}

func TestSearchFeedGuards(t *testing.T) {
	f := newFakeFetcher()
	c := NewController(models.ModeSearch, f, nil, nil)

	require.NoError(t, c.LoadMore(context.Background()))
	require.NoError(t, c.Refresh(context.Background()))
	require.NoError(t, c.LoadInitial(context.Background()))
	assert.Zero(t, f.callCount())
	assert.Equal(t, 1, c.Snapshot().Page)
}

func TestSearchOnRecentFeed(t *testing.T) {
	c := NewController(models.ModeRecent, newFakeFetcher(), nil, nil)
	assert.ErrorIs(t, c.Search(context.Background(), "cat"), ErrNotSearchFeed)
}

func TestClearResetsSearchFeed(t *testing.T) {
	f := newFakeFetcher()
	f.set("cat", 1, photos("cat", 3))
	c := NewController(models.ModeSearch, f, nil, nil)
	require.NoError(t, c.Search(context.Background(), "cat"))

	c.Clear()
	s := c.Snapshot()
	assert.Empty(t, s.Items)
	assert.Empty(t, s.Query)
	assert.Equal(t, 1, s.Page)
}

func TestSnapshotIsACopy(t *testing.T) {
	f := newFakeFetcher()
	f.set("", 1, photos("a", 2))
	c := NewController(models.ModeRecent, f, nil, nil)
	require.NoError(t, c.LoadInitial(context.Background()))

	s := c.Snapshot()
	s.Items[0].Title = "mutated"
	assert.NotEqual(t, "mutated", c.Snapshot().Items[0].Title)
}

func TestStatusPrecedence(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  Status
	}{
		{"idle", State{}, StatusIdle},
		{"initial", State{InitialLoading: true}, StatusInitialLoading},
		{"more", State{LoadingMore: true}, StatusLoadingMore},
		{"refresh wins", State{Refreshing: true, Failure: &Failure{}}, StatusRefreshing},
		{"failed", State{Failure: &Failure{}}, StatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.Status())
		})
	}
}
