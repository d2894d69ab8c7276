package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// maxImageBytes bounds a single page download.
const maxImageBytes = 32 << 20

var ErrFetch = errors.New("unable to fetch image")

// Fetcher retrieves page images, falling back to an image proxy when the
// origin refuses a direct request (hotlink protection, missing CORS headers).
type Fetcher struct {
	HTTPClient *http.Client
	// Proxy is prefixed to the escaped image URL, e.g. "https://corsproxy.io/?".
	Proxy string
	// Referer is sent on direct requests when set.
	Referer string
}

// NewFetcher creates a new image fetcher
func NewFetcher(proxy string) *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		Proxy: proxy,
	}
}

// Fetch downloads rawURL, trying the direct URL first and the proxy second.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	data, err := f.download(ctx, rawURL, f.Referer)
	if err == nil {
		return data, nil
	}
	if f.Proxy == "" {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, rawURL, err)
	}

	slog.Debug("Direct image fetch failed, trying proxy", "url", rawURL, "err", err)
	proxied, perr := f.download(ctx, f.Proxy+url.QueryEscape(rawURL), "")
	if perr != nil {
		return nil, fmt.Errorf("%w: %s: direct: %v; proxy: %v", ErrFetch, rawURL, err, perr)
	}
	return proxied, nil
}

// download downloads an image from a URL
func (f *Fetcher) download(ctx context.Context, rawURL, referer string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image URL returned status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(imageData) == 0 {
		return nil, fmt.Errorf("image URL returned an empty body")
	}

	return imageData, nil
}
