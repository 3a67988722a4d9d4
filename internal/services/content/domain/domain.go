// Package domain defines the records postshelf manages.
package domain

// Record is implemented by every collection item. WithID returns a copy of
// the record carrying id, which keeps records plain values.
type Record[T any] interface {
	RecordID() string
	WithID(id string) T
}

// Post is one article on the listing page. Content may be plain text or
// rich-text HTML.
type Post struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Thumbnail    string `json:"thumbnail"`
	Content      string `json:"content"`
	DownloadLink string `json:"downloadLink,omitempty"`
}

// RecordID returns the post id.
func (p Post) RecordID() string { return p.ID }

// WithID returns a copy of p with id set.
func (p Post) WithID(id string) Post {
	p.ID = id
	return p
}

// Download is one downloadable item on the listing page.
type Download struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
}

// RecordID returns the download id.
func (d Download) RecordID() string { return d.ID }

// WithID returns a copy of d with id set.
func (d Download) WithID(id string) Download {
	d.ID = id
	return d
}

var (
	_ Record[Post]     = Post{}
	_ Record[Download] = Download{}
)
