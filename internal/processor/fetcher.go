package processor

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// HTTPFetcher downloads images over HTTP(S).
type HTTPFetcher struct {
	client *resty.Client
}

// NewHTTPFetcher creates a fetcher with default transport settings.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{client: resty.New()}
}

// Fetch returns the response body of a GET request to url.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get %s: unexpected status %s", url, resp.Status())
	}

	return resp.Body(), nil
}
