// Package model holds the records passed between pipeline stages.
package model

// ImageRef is one file discovered in a shared folder listing.
type ImageRef struct {
	ID   string
	URL  string
	Name string
}

// MatchRecord is one visual match returned by the reverse-image search.
type MatchRecord struct {
	Position       *int    `json:"position"`
	Title          string  `json:"title"`
	Source         string  `json:"source"`
	Price          string  `json:"price"`
	ExtractedPrice float64 `json:"extracted_price"`
	Currency       string  `json:"currency"`
}

// ImageResult is a fully analyzed image ready for the report.
type ImageResult struct {
	Name          string
	TempImagePath string
	Analysis      string
}
