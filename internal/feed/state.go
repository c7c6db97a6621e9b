package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/thesavant42/photofeed/internal/models"
)

// CacheKey is the slot holding the last recent-feed page 1
const CacheKey = "flickr_photos"

// ErrNotSearchFeed is returned when Search is called on the recent feed
var ErrNotSearchFeed = errors.New("search is only available on the search feed")

// Fetcher fetches one page of photos. *api.FlickrClient satisfies it.
type Fetcher interface {
	FetchPhotos(ctx context.Context, mode models.FeedMode, query string, page int) ([]models.PhotoRecord, error)
}

// CacheStore is a persisted key/value slot. *db.DB satisfies it.
type CacheStore interface {
	Read(key string) (string, bool, error)
	Write(key, value string) error
}

// Op identifies the controller operation that issued a request
type Op int

const (
	OpInitial Op = iota
	OpRefresh
	OpLoadMore
	OpSearch
)

func (o Op) String() string {
	switch o {
	case OpInitial:
		return "initial load"
	case OpRefresh:
		return "refresh"
	case OpLoadMore:
		return "load more"
	case OpSearch:
		return "search"
	default:
		return "unknown"
	}
}

// Status is the single value a view needs to pick what to draw
type Status int

const (
	StatusIdle Status = iota
	StatusInitialLoading
	StatusRefreshing
	StatusLoadingMore
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusInitialLoading:
		return "loading"
	case StatusRefreshing:
		return "refreshing"
	case StatusLoadingMore:
		return "loading more"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Failure records a failed request with everything needed to re-issue it
type Failure struct {
	Op    Op
	Mode  models.FeedMode
	Page  int
	Query string
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s %s (page %d): %v", f.Mode, f.Op, f.Page, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Appends reports whether a retry appends to the feed rather than replacing it
func (f *Failure) Appends() bool {
	return f.Op == OpLoadMore
}

// State is a point-in-time copy of one feed, safe to hand to a view
type State struct {
	Items []models.PhotoRecord
	Page  int
	Query string

	InitialLoading bool
	LoadingMore    bool
	Refreshing     bool

	// Exhausted is set when the last load-more returned no records
	Exhausted bool

	Failure *Failure
}

// Loading reports whether any request is in flight
func (s State) Loading() bool {
	return s.InitialLoading || s.Refreshing || s.LoadingMore
}

// Status collapses the flags into one value
func (s State) Status() Status {
	switch {
	case s.Refreshing:
		return StatusRefreshing
	case s.InitialLoading:
		return StatusInitialLoading
	case s.LoadingMore:
		return StatusLoadingMore
	case s.Failure != nil:
		return StatusFailed
	default:
		return StatusIdle
	}
}
