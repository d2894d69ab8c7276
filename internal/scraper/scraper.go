// Package scraper extracts the ordered page image URLs of a chapter page.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const manualUpload = "download the images and upload them manually"

var (
	ErrUnreachable  = errors.New("unable to retrieve the page; " + manualUpload)
	ErrEmptyContent = errors.New("page content is empty or invalid; " + manualUpload)
	ErrNoImages     = errors.New("no images found on the page; " + manualUpload)
)

// minContentBytes is the shortest body treated as a real page.
const minContentBytes = 50

// lazyAttrs are read in priority order; src is the last resort.
var lazyAttrs = []string{"data-src", "data-original", "data-lazy-src", "data-url", "src"}

// Result is a successful scrape.
type Result struct {
	Images []string `json:"images"`
	// Title is the page title, offered as a project name.
	Title string `json:"title,omitempty"`
}

// Scraper tries its sources in order until one returns usable HTML.
type Scraper struct {
	sources []Source
}

// New returns a scraper using sources in order, or the default chain when none are given.
func New(sources ...Source) *Scraper {
	if len(sources) == 0 {
		client := &http.Client{Timeout: 30 * time.Second}
		sources = []Source{Direct{Client: client}, AllOrigins{Client: client}, RawProxy{Client: client}}
	}
	return &Scraper{sources: sources}
}

// Scrape returns the deduplicated absolute image URLs of pageURL in document order.
func (s *Scraper) Scrape(ctx context.Context, pageURL string) (Result, error) {
	base, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil || base.Host == "" {
		return Result{}, fmt.Errorf("%w: invalid URL %q", ErrUnreachable, pageURL)
	}

	content, err := s.fetch(ctx, base.String())
	if err != nil {
		return Result{}, err
	}

	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrEmptyContent, err)
	}
	doc := goquery.NewDocumentFromNode(root)

	res := Result{
		Images: Extract(doc, base),
		Title:  strings.TrimSpace(doc.Find("title").First().Text()),
	}
	if len(res.Images) == 0 {
		return Result{}, ErrNoImages
	}
	slog.Info("Scraped page", "url", base.String(), "images", len(res.Images))
	return res, nil
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) (string, error) {
	var errs []error
	empty := false
	for _, src := range s.sources {
		content, err := src.Fetch(ctx, pageURL)
		if err == nil && len(strings.TrimSpace(content)) < minContentBytes {
			empty = true
			err = errors.New("content too short")
		}
		if err == nil {
			return content, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		slog.Warn("Page source failed", "source", src.Name(), "url", pageURL, "err", err)
		errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
	}
	if empty {
		return "", fmt.Errorf("%w: %v", ErrEmptyContent, errors.Join(errs...))
	}
	return "", fmt.Errorf("%w: %v", ErrUnreachable, errors.Join(errs...))
}

// Extract lists the image URLs of doc resolved against base.
func Extract(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]struct{})
	var out []string

	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		ref := candidate(img)
		if ref == "" {
			return
		}
		abs, ok := resolve(base, ref)
		if !ok || isVector(abs) {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	})
	return out
}

func candidate(img *goquery.Selection) string {
	for _, attr := range lazyAttrs {
		v, ok := img.Attr(attr)
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			continue
		}
		if strings.HasPrefix(v, "data:image/svg") || strings.HasPrefix(v, "data:image/gif") {
			continue
		}
		return v
	}
	return ""
}

func resolve(base *url.URL, ref string) (string, bool) {
	switch {
	case strings.HasPrefix(ref, "data:"):
		return ref, true
	case strings.HasPrefix(ref, "//"):
		return "https:" + ref, true
	}
	u, err := base.Parse(ref)
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return u.String(), true
}

func isVector(ref string) bool {
	if strings.HasPrefix(ref, "data:") {
		return false
	}
	path := ref
	if u, err := url.Parse(ref); err == nil {
		path = u.Path
	}
	return strings.HasSuffix(strings.ToLower(path), ".svg")
}
