package drive

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gocolly/colly"

	"lensreport/internal/model"
)

const (
	DefaultBaseURL = "https://drive.google.com"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"
)

var fileLinkPattern = regexp.MustCompile(`https://drive\.google\.com/file/d/([a-zA-Z0-9_-]+)`)

// Listing is what a folder page yielded.
type Listing struct {
	FolderID string
	Title    string
	Images   []model.ImageRef
}

// Extractor scrapes a shared folder page for file links.
type Extractor struct {
	baseURL string
	timeout time.Duration
}

func NewExtractor(baseURL string, timeout time.Duration) *Extractor {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Extractor{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

// Extract returns one ImageRef per distinct file identifier in the listing.
// Fetch failures are logged and yield an empty slice.
func (e *Extractor) Extract(ctx context.Context, folderURL string) []model.ImageRef {
	listing, err := e.ExtractListing(ctx, folderURL)
	if err != nil {
		log.Printf("[Drive] Error extracting file IDs: %v", err)
		return nil
	}
	return listing.Images
}

func (e *Extractor) ExtractListing(ctx context.Context, folderURL string) (*Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	folderID := FolderID(folderURL)
	if folderID == "" {
		return nil, fmt.Errorf("no folder identifier in %q", folderURL)
	}

	listingURL := fmt.Sprintf("%s/drive/folders/%s", e.baseURL, url.PathEscape(folderID))
	log.Printf("[Drive] Fetching folder listing: %s", listingURL)

	collector := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
	)
	if e.timeout > 0 {
		collector.SetRequestTimeout(e.timeout)
	}

	var body []byte
	var title string
	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	collector.OnHTML("title", func(el *colly.HTMLElement) {
		if title == "" {
			title = strings.TrimSpace(el.Text)
		}
	})

	// colly has no context support; an abandoned visit ends on the
	// collector's request timeout.
	visited := make(chan error, 1)
	go func() {
		visited <- collector.Visit(listingURL)
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-visited:
		if err != nil {
			return nil, fmt.Errorf("fetch folder %s: %w", folderID, err)
		}
	}

	ids := ParseFileIDs(body)
	images := make([]model.ImageRef, 0, len(ids))
	for _, id := range ids {
		images = append(images, e.imageRef(id))
	}

	log.Printf("[Drive] Found %d files in folder %s", len(images), folderID)
	return &Listing{FolderID: folderID, Title: title, Images: images}, nil
}

func (e *Extractor) imageRef(id string) model.ImageRef {
	return model.ImageRef{
		ID:   id,
		URL:  fmt.Sprintf("%s/uc?id=%s", e.baseURL, url.QueryEscape(id)),
		Name: fmt.Sprintf("image_%s.jpg", id),
	}
}

// FolderID returns the trailing path segment of a folder link.
func FolderID(folderURL string) string {
	s := strings.TrimSpace(folderURL)
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return s
}

// ParseFileIDs returns the distinct file identifiers linked from body, in
// order of first appearance.
func ParseFileIDs(body []byte) []string {
	matches := fileLinkPattern.FindAllSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		id := string(m[1])
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
