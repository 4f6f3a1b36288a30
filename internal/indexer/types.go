package indexer

import "time"

// Release is a transient search result from the indexer gateway. It is never
// persisted beyond the grab record cut from it.
type Release struct {
	GUID        string    `json:"guid"`
	Title       string    `json:"title"`
	Indexer     string    `json:"indexer"`
	Size        int64     `json:"size"`
	Seeders     int       `json:"seeders"`
	Categories  []int     `json:"categories"`
	PublishedAt time.Time `json:"publishedAt"`
	DownloadURL string    `json:"downloadUrl"`
}

// Query describes one indexer search.
type Query struct {
	Text       string
	Categories []int
}
