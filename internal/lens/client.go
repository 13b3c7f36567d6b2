package lens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"lensreport/internal/model"
)

const (
	DefaultBaseURL = "https://www.searchapi.io/api/v1/search"
	DefaultEngine  = "google_lens"

	// MaxMatches caps how many visual matches are kept per image.
	MaxMatches = 15

	notAvailable = "N/A"
)

var ErrSearchFailed = errors.New("visual search request failed")

// Client calls the reverse-image search API.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	engine     string
}

func NewClient(apiKey, baseURL, engine string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if engine == "" {
		engine = DefaultEngine
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		baseURL:    baseURL,
		engine:     engine,
	}
}

type searchResponse struct {
	VisualMatches []json.RawMessage `json:"visual_matches"`
}

// Search submits imageURL and returns at most MaxMatches records.
func (c *Client) Search(ctx context.Context, imageURL string) ([]model.MatchRecord, error) {
	params := url.Values{}
	params.Add("engine", c.engine)
	params.Add("search_type", "all")
	params.Add("url", imageURL)

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d, body: %s", ErrSearchFailed, resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrSearchFailed, err)
	}

	matches := parsed.VisualMatches
	if len(matches) > MaxMatches {
		matches = matches[:MaxMatches]
	}

	records := make([]model.MatchRecord, 0, len(matches))
	for i, raw := range matches {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
			log.Printf("[Lens] Skipping malformed visual match %d for %s", i+1, imageURL)
			continue
		}
		records = append(records, toRecord(fields))
	}

	log.Printf("[Lens] %d visual matches for %s", len(records), imageURL)
	return records, nil
}

// toRecord reads one visual match leniently. Missing or null fields take
// their defaults; text fields of another JSON type keep their raw encoding.
func toRecord(fields map[string]json.RawMessage) model.MatchRecord {
	rec := model.MatchRecord{
		Title:    textField(fields, "title", ""),
		Source:   textField(fields, "source", ""),
		Price:    textField(fields, "price", notAvailable),
		Currency: textField(fields, "currency", notAvailable),
	}

	var position int
	if raw, ok := present(fields, "position"); ok && json.Unmarshal(raw, &position) == nil {
		rec.Position = &position
	}

	var price float64
	if raw, ok := present(fields, "extracted_price"); ok && json.Unmarshal(raw, &price) == nil {
		rec.ExtractedPrice = price
	}
	return rec
}

func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return nil, false
	}
	return raw, true
}

func textField(fields map[string]json.RawMessage, key, fallback string) string {
	raw, ok := present(fields, key)
	if !ok {
		return fallback
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
