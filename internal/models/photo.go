package models

// FeedMode selects which Flickr listing a feed is built from
type FeedMode int

const (
	ModeRecent FeedMode = iota // flickr.photos.getRecent
	ModeSearch                 // flickr.photos.search
)

// Method returns the Flickr REST method name for the mode
func (m FeedMode) Method() string {
	if m == ModeSearch {
		return "flickr.photos.search"
	}
	return "flickr.photos.getRecent"
}

func (m FeedMode) String() string {
	if m == ModeSearch {
		return "search"
	}
	return "recent"
}

// PhotoRecord is a single photo as shown in the grid.
// The JSON tags match the Flickr wire names so cached feeds stay readable.
type PhotoRecord struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"url_s"`
}

// DisplayTitle returns the title, or "Photo" for untitled uploads
func (p PhotoRecord) DisplayTitle() string {
	if p.Title == "" {
		return "Photo"
	}
	return p.Title
}

// HasImage reports whether the record carries a displayable image URL
func (p PhotoRecord) HasImage() bool {
	return p.ImageURL != ""
}

// FilterWithImages drops records lacking an image URL, keeping order
func FilterWithImages(records []PhotoRecord) []PhotoRecord {
	out := make([]PhotoRecord, 0, len(records))
	for _, r := range records {
		if r.HasImage() {
			out = append(out, r)
		}
	}
	return out
}
