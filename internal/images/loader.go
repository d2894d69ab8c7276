package images

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/manhwa-tools/manhwa-translator/internal/models"
)

// Loader produces the base64 JPEG payload of an entry from its source reference.
type Loader struct {
	fetcher *Fetcher
	cache   Cache
}

func NewLoader(fetcher *Fetcher, cache Cache) *Loader {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Loader{fetcher: fetcher, cache: cache}
}

// Pixels returns the encoded payload of entry. Local upload paths and data:
// URIs are read without network access; remote URLs go through the Fetcher.
func (l *Loader) Pixels(ctx context.Context, entry models.ImageEntry) (string, error) {
	key := sourceKey(entry)
	if cached, err := l.cache.Get(ctx, key); err == nil {
		return cached, nil
	} else if !errors.Is(err, ErrCacheMiss) {
		slog.Warn("Pixel cache lookup failed", "id", entry.ID, "err", err)
	}

	data, err := l.Read(ctx, entry)
	if err != nil {
		return "", err
	}

	enc, err := EncodeJPEG(data)
	if err != nil {
		return "", fmt.Errorf("entry %s: %w", entry.ID, err)
	}

	if err := l.cache.Set(ctx, key, enc.Base64); err != nil {
		slog.Warn("Unable to cache encoded pixels", "id", entry.ID, "err", err)
	}
	return enc.Base64, nil
}

// Read returns the raw bytes behind entry's source reference.
func (l *Loader) Read(ctx context.Context, entry models.ImageEntry) ([]byte, error) {
	switch {
	case entry.LocalPath != "":
		data, err := os.ReadFile(entry.LocalPath)
		if err != nil {
			return nil, fmt.Errorf("read upload %s: %w", entry.LocalPath, err)
		}
		return data, nil
	case strings.HasPrefix(entry.URL, "data:"):
		return decodeDataURI(entry.URL)
	case entry.URL == "":
		return nil, fmt.Errorf("entry %s has no source", entry.ID)
	}

	if l.fetcher == nil {
		return nil, fmt.Errorf("%w: no fetcher configured for %s", ErrFetch, entry.URL)
	}
	return l.fetcher.Fetch(ctx, entry.URL)
}

func sourceKey(entry models.ImageEntry) string {
	if entry.LocalPath != "" {
		return "file:" + entry.LocalPath
	}
	return entry.URL
}

// decodeDataURI decodes "data:<mime>;base64,<payload>" and percent-encoded data URIs.
func decodeDataURI(uri string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URI")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decode data URI: %w", err)
		}
		return data, nil
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data URI: %w", err)
	}
	return []byte(text), nil
}
