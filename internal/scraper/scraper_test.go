package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chapterHTML = `<html><head><title> Solo Leveling - Chapter 12 </title></head><body>
<img src="data:image/gif;base64,R0lGOD" data-src="//cdn.example.com/p1.jpg">
<img src="/static/loader.gif" data-original="/pages/p2.webp">
<img data-lazy-src="./p3.png" src="placeholder.png">
<img src="p4.jpg">
<img data-url="https://cdn.example.com/p1.jpg">
<img src="/logo.SVG">
<img src="data:image/svg+xml;utf8,<svg/>">
<img src="">
<img src="data:image/jpeg;base64,/9j/AAAA">
</body></html>`

type stubSource struct {
	name    string
	content string
	err     error
	calls   int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(context.Context, string) (string, error) {
	s.calls++
	return s.content, s.err
}

func TestExtract(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(chapterHTML))
	require.NoError(t, err)
	base, _ := url.Parse("http://reader.example.com/series/solo/chapter-12/index.html")

	assert.Equal(t, []string{
		"https://cdn.example.com/p1.jpg",
		"http://reader.example.com/pages/p2.webp",
		"http://reader.example.com/series/solo/chapter-12/p3.png",
		"http://reader.example.com/series/solo/chapter-12/p4.jpg",
		"data:image/jpeg;base64,/9j/AAAA",
	}, Extract(doc, base))
}

func TestScrapeSourceChain(t *testing.T) {
	tests := []struct {
		name      string
		sources   []*stubSource
		wantErr   error
		wantCalls []int
	}{
		{
			name: "first source wins",
			sources: []*stubSource{
				{name: "a", content: chapterHTML},
				{name: "b", content: chapterHTML},
			},
			wantCalls: []int{1, 0},
		},
		{
			name: "falls through failures",
			sources: []*stubSource{
				{name: "a", err: errors.New("403")},
				{name: "b", content: "<html></html>"},
				{name: "c", content: chapterHTML},
			},
			wantCalls: []int{1, 1, 1},
		},
		{
			name: "all unreachable",
			sources: []*stubSource{
				{name: "a", err: errors.New("dns")},
				{name: "b", err: errors.New("503")},
			},
			wantErr:   ErrUnreachable,
			wantCalls: []int{1, 1},
		},
		{
			name:      "only short content",
			sources:   []*stubSource{{name: "a", content: "<p>x</p>"}},
			wantErr:   ErrEmptyContent,
			wantCalls: []int{1},
		},
		{
			name:      "page without images",
			sources:   []*stubSource{{name: "a", content: "<html><body><p>" + strings.Repeat("text ", 20) + "</p></body></html>"}},
			wantErr:   ErrNoImages,
			wantCalls: []int{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sources := make([]Source, len(tt.sources))
			for i, s := range tt.sources {
				sources[i] = s
			}

			res, err := New(sources...).Scrape(context.Background(), "https://reader.example.com/ch/12")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), "upload them manually")
			} else {
				require.NoError(t, err)
				assert.Len(t, res.Images, 5)
				assert.Equal(t, "Solo Leveling - Chapter 12", res.Title)
			}
			for i, s := range tt.sources {
				assert.Equal(t, tt.wantCalls[i], s.calls, s.name)
			}
		})
	}
}

func TestScrapeRejectsInvalidURL(t *testing.T) {
	_, err := New(&stubSource{name: "a", content: chapterHTML}).Scrape(context.Background(), "not a url")
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestHTTPSources(t *testing.T) {
	var seen []string
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.Path)
		switch r.URL.Path {
		case "/page":
			w.WriteHeader(http.StatusForbidden)
		case "/get":
			assert.Equal(t, srv.URL+"/page", r.URL.Query().Get("url"))
			_, _ = w.Write([]byte(`{"contents": null}`))
		case "/raw":
			_, _ = w.Write([]byte(chapterHTML))
		}
	}))
	defer srv.Close()

	s := New(
		Direct{Client: srv.Client()},
		AllOrigins{Client: srv.Client(), Endpoint: srv.URL + "/get"},
		RawProxy{Client: srv.Client(), Prefix: srv.URL + "/raw?"},
	)

	res, err := s.Scrape(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/p1.jpg", res.Images[0])
	assert.Equal(t, []string{"/page", "/get", "/raw"}, seen)
}
