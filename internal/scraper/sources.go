package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// maxPageBytes bounds the HTML read from any source.
const maxPageBytes = 16 << 20

// Source retrieves the HTML of a page.
type Source interface {
	Name() string
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// Direct requests the page itself.
type Direct struct {
	Client *http.Client
}

func (Direct) Name() string { return "direct" }

func (d Direct) Fetch(ctx context.Context, pageURL string) (string, error) {
	return get(ctx, d.Client, pageURL)
}

// AllOrigins reads the page through an AllOrigins-style JSON proxy that
// returns {"contents": "<html>"}.
type AllOrigins struct {
	Client *http.Client
	// Endpoint defaults to https://api.allorigins.win/get.
	Endpoint string
}

func (AllOrigins) Name() string { return "allorigins" }

func (a AllOrigins) Fetch(ctx context.Context, pageURL string) (string, error) {
	endpoint := a.Endpoint
	if endpoint == "" {
		endpoint = "https://api.allorigins.win/get"
	}
	body, err := get(ctx, a.Client, endpoint+"?url="+url.QueryEscape(pageURL))
	if err != nil {
		return "", err
	}

	var data struct {
		Contents string `json:"contents"`
	}
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return "", fmt.Errorf("invalid JSON response from proxy: %w", err)
	}
	if data.Contents == "" {
		return "", fmt.Errorf("no contents in proxy response")
	}
	return data.Contents, nil
}

// RawProxy reads the page through a proxy that returns the page body as-is.
type RawProxy struct {
	Client *http.Client
	// Prefix defaults to https://corsproxy.io/?.
	Prefix string
}

func (RawProxy) Name() string { return "corsproxy" }

func (p RawProxy) Fetch(ctx context.Context, pageURL string) (string, error) {
	prefix := p.Prefix
	if prefix == "" {
		prefix = "https://corsproxy.io/?"
	}
	return get(ctx, p.Client, prefix+url.QueryEscape(pageURL))
}

func get(ctx context.Context, client *http.Client, rawURL string) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; manhwa-translator)")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	return string(body), nil
}
