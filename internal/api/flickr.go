package api

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/thesavant42/photofeed/internal/models"
	"golang.org/x/net/publicsuffix"
)

const (
	// PageSize is fixed by the app, callers only pick the page
	PageSize = 20

	DefaultEndpoint = "https://api.flickr.com/services/rest/"
	DefaultTimeout  = 30 * time.Second
)

// FlickrConfig holds the fixed client configuration
type FlickrConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// FlickrClient handles Flickr REST API requests
type FlickrClient struct {
	httpClient *http.Client
	logger     *log.Logger
	endpoint   string
	apiKey     string
}

// NewFlickrClient creates a new Flickr API client.
// A nil logger silences the client (useful while a TUI owns the terminal).
func NewFlickrClient(logger *log.Logger, cfg FlickrConfig) *FlickrClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &FlickrClient{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger:   logger,
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
	}
}

// flickrPhoto is the wire shape of one entry in photos.photo
type flickrPhoto struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URLS  string `json:"url_s"`
}

// flickrResponse is the envelope returned with nojsoncallback=1.
// Photos is a pointer so a missing "photos" object can be told apart.
type flickrResponse struct {
	Photos *struct {
		Page  int           `json:"page"`
		Pages int           `json:"pages"`
		Photo []flickrPhoto `json:"photo"`
	} `json:"photos"`
	Stat    string `json:"stat"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// BuildPhotosQuery constructs the query parameters for a photo listing.
// text is only sent in search mode.
func BuildPhotosQuery(apiKey string, mode models.FeedMode, query string, page int) url.Values {
	v := url.Values{}
	v.Set("method", mode.Method())
	v.Set("api_key", apiKey)
	v.Set("format", "json")
	v.Set("nojsoncallback", "1")
	v.Set("extras", "url_s")
	v.Set("per_page", strconv.Itoa(PageSize))
	v.Set("page", strconv.Itoa(page))
	if mode == models.ModeSearch {
		v.Set("text", query)
	}
	return v
}

// FetchPhotos fetches one page of the recent feed or of a text search.
// Only records carrying an image URL are returned. The client never retries.
func (c *FlickrClient) FetchPhotos(ctx context.Context, mode models.FeedMode, query string, page int) ([]models.PhotoRecord, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}
	query = strings.TrimSpace(query)
	if mode == models.ModeSearch && query == "" {
		return nil, ErrEmptyQuery
	}

	rawURL := c.endpoint + "?" + BuildPhotosQuery(c.apiKey, mode, query, page).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "photofeed/1.0")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkFailure{Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &NetworkFailure{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("flickr API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	// Handle gzip-compressed responses
	var reader io.Reader = resp.Body
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Encoding")), "gzip") {
		gzReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, &NetworkFailure{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to create gzip reader: %w", err)}
		}
		defer gzReader.Close()
		reader = gzReader
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &NetworkFailure{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	photos, err := c.parsePhotosResponse(body)
	if err != nil {
		return nil, &NetworkFailure{StatusCode: resp.StatusCode, Err: err}
	}

	if c.logger != nil {
		c.logger.Debug("photos fetched", "mode", mode, "query", query, "page", page, "records", len(photos))
	}
	return photos, nil
}

// parsePhotosResponse decodes the envelope and normalizes photos.photo.
// A missing photos.photo (including stat=fail envelopes) is an empty page.
func (c *FlickrClient) parsePhotosResponse(body []byte) ([]models.PhotoRecord, error) {
	var envelope flickrResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if envelope.Stat == "fail" && c.logger != nil {
		c.logger.Warn("flickr API reported failure", "code", envelope.Code, "message", envelope.Message)
	}

	if envelope.Photos == nil {
		return []models.PhotoRecord{}, nil
	}

	records := make([]models.PhotoRecord, 0, len(envelope.Photos.Photo))
	for _, p := range envelope.Photos.Photo {
		// A record without a displayable image never enters a feed
		if p.URLS == "" {
			continue
		}
		records = append(records, models.PhotoRecord{
			ID:       p.ID,
			Title:    p.Title,
			ImageURL: p.URLS,
		})
	}
	return records, nil
}

// ImageHost returns the registrable domain serving an image URL.
// Examples:
//   - "https://live.staticflickr.com/65535/1_abc_m.jpg" -> "staticflickr.com"
//   - "https://farm1.static.flickr.com/2/3_s.jpg" -> "flickr.com"
func ImageHost(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	host := strings.TrimSuffix(parsed.Hostname(), ".")
	if host == "" {
		return "", fmt.Errorf("URL has no host: %q", rawURL)
	}

	root, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return "", fmt.Errorf("failed to extract root domain: %w", err)
	}
	return root, nil
}
