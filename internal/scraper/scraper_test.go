package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const photoPage = `<!doctype html>
<html><head>
<meta property="og:site_name" content="Flickr">
<meta property="og:image" content="https://live.staticflickr.com/65535/111_aaa_b.jpg">
<meta name="twitter:image" content="https://live.staticflickr.com/65535/222_bbb_b.jpg">
</head><body>
<h1 class="photo-title">  Morning Dunes  </h1>
<h1 class="photo-title">Second Title</h1>
<a class="owner-name" href="/photos/ada/"> Ada Lovelace </a>
<a class="owner-name" href="/photos/bob/">Bob</a>
</body></html>`

func TestExtractor_FirstMatchOfEach(t *testing.T) {
	res, err := NewExtractor(Selectors{}).Extract(strings.NewReader(photoPage))
	require.NoError(t, err)
	assert.Equal(t, "https://live.staticflickr.com/65535/111_aaa_b.jpg", res.Image)
	assert.Equal(t, "Morning Dunes", res.Title)
	assert.Equal(t, "Ada Lovelace", res.Artist)
}

func TestExtractor_MissingElement(t *testing.T) {
	tests := []struct {
		name  string
		page  string
		field string
	}{
		{
			name:  "no image",
			page:  strings.ReplaceAll(photoPage, "https://live.staticflickr.com/", "https://example.com/"),
			field: "image",
		},
		{
			name:  "no title",
			page:  strings.ReplaceAll(photoPage, `class="photo-title"`, `class="headline"`),
			field: "title",
		},
		{
			name:  "no artist",
			page:  strings.ReplaceAll(photoPage, `class="owner-name"`, `class="someone"`),
			field: "artist",
		},
		{
			name:  "blank title",
			page:  `<meta content="https://live.staticflickr.com/x.jpg"><h1 class="photo-title">  </h1><a class="owner-name">a</a>`,
			field: "title",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExtractor(Selectors{}).Extract(strings.NewReader(tt.page))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMissingElement)
			var miss *MissingElementError
			require.True(t, errors.As(err, &miss))
			assert.Equal(t, tt.field, miss.Field)
		})
	}
}

func TestExtractor_CustomSelectors(t *testing.T) {
	page := `<meta content="https://img.example.org/a.png"><h2 class="t">T</h2><span class="by">B</span>`
	res, err := NewExtractor(Selectors{
		ImagePrefix: "https://img.example.org/",
		Title:       "h2.t",
		Artist:      "span.by",
	}).Extract(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, &Result{Image: "https://img.example.org/a.png", Title: "T", Artist: "B"}, res)
}

func newFetcher(backoff time.Duration) *Fetcher {
	return NewFetcher(FetcherConfig{
		Timeout:              2 * time.Second,
		Backoff:              backoff,
		UserAgent:            "artfeed-test",
		AllowPrivateNetworks: true,
	})
}

func TestFetcher_RetriesOnceOn5xx(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, "artfeed-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(photoPage))
	}))
	defer srv.Close()

	body, err := newFetcher(time.Millisecond).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, string(body), "photo-title")
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestFetcher_GivesUpAfterSecond5xx(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newFetcher(0).Fetch(context.Background(), srv.URL)
	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestFetcher_NoRetryOn4xx(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newFetcher(0).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestFetcher_TimeoutIsRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{Timeout: 100 * time.Millisecond, AllowPrivateNetworks: true})
	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestFetcher_CancelledContextStopsRetry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	f := newFetcher(time.Second)
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	_, err := f.Fetch(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetcher_RejectsLocalAddresses(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(photoPage))
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{Timeout: time.Second, Backoff: time.Millisecond})
	_, err := f.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrForbiddenAddress)
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestIsPublicAddr(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"8.8.8.8", true},
		{"151.101.1.140", true},
		{"2606:4700::1111", true},
		{"127.0.0.1", false},
		{"10.1.2.3", false},
		{"172.16.0.9", false},
		{"192.168.1.1", false},
		{"169.254.169.254", false},
		{"100.64.0.1", false},
		{"0.0.0.0", false},
		{"255.255.255.255", false},
		{"224.0.0.1", false},
		{"::1", false},
		{"::", false},
		{"fe80::1", false},
		{"fd00::1", false},
		{"::ffff:127.0.0.1", false},
		{"64:ff9b::7f00:1", false},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, isPublicAddr(netip.MustParseAddr(tt.addr)))
		})
	}
}

func TestScraper_Scrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/good":
			_, _ = w.Write([]byte(photoPage))
		case "/bare":
			_, _ = w.Write([]byte("<html><body>nothing here</body></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s := New(newFetcher(0), NewExtractor(DefaultSelectors()))

	res, err := s.Scrape(context.Background(), srv.URL+"/good")
	require.NoError(t, err)
	assert.Equal(t, "Morning Dunes", res.Title)

	_, err = s.Scrape(context.Background(), srv.URL+"/bare")
	assert.ErrorIs(t, err, ErrMissingElement)

	_, err = s.Scrape(context.Background(), srv.URL+"/missing")
	var statusErr *HTTPStatusError
	assert.True(t, errors.As(err, &statusErr))
}
