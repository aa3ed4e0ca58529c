package domain

// Entry is one article record from the FreshRSS content store.
// Entries are immutable from our point of view; ID is a strictly
// increasing surrogate key and doubles as the sync watermark.
type Entry struct {
	ID           int64
	GUID         string
	Title        string
	Author       string
	Content      string // raw HTML
	Link         string
	PublishedAt  int64 // epoch seconds
	FeedID       int64
	CategoryID   *int64
	CategoryName string // empty when the feed is uncategorised
}

// Feed is a FreshRSS feed record.
type Feed struct {
	ID         int64
	Name       string
	CategoryID *int64
}

// Category is a FreshRSS category record.
type Category struct {
	ID   int64
	Name string
}
