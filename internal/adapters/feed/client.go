package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"partyhub/internal/domain"
)

// maxFeedBody caps how much of an upstream feed we read. 8 MiB is far
// beyond any real conference feed.
const maxFeedBody = 8 << 20

type httpFetcher struct {
	client *http.Client
}

// NewHTTPFetcher returns a FeedFetcher that performs conditional GETs
// against upstream party feeds.
func NewHTTPFetcher(client *http.Client) domain.FeedFetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &httpFetcher{client: client}
}

func (f *httpFetcher) Fetch(ctx context.Context, url, etag, lastModified string) (*domain.FeedFetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastModified != "" {
		req.Header.Set("If-Modified-Since", lastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBody))
		if err != nil {
			return nil, fmt.Errorf("failed to read feed body: %w", err)
		}
		return &domain.FeedFetchResult{
			Body:         body,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}, nil
	case http.StatusNotModified:
		return &domain.FeedFetchResult{NotModified: true}, nil
	default:
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}
}
