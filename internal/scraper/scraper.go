package scraper

import (
	"bytes"
	"context"
	"errors"
	"time"

	"artfeed/internal/observability"

	"go.uber.org/zap"
)

// Scraper fetches a photo page and extracts a Result from it.
type Scraper struct {
	fetcher   *Fetcher
	extractor *Extractor
}

// New returns a Scraper combining f and e.
func New(f *Fetcher, e *Extractor) *Scraper {
	return &Scraper{fetcher: f, extractor: e}
}

// Scrape returns the image, title and artist found at url.
// Errors are either fetch errors (transport, *HTTPStatusError) or extraction
// errors (*MissingElementError, parse failures).
func (s *Scraper) Scrape(ctx context.Context, url string) (*Result, error) {
	start := time.Now()
	defer func() {
		observability.ScrapeDuration.Observe(time.Since(start).Seconds())
	}()

	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		observability.ScrapeRequests.WithLabelValues(fetchOutcome(err)).Inc()
		observability.FromContext(ctx).Warn("page fetch failed", zap.String("url", url), zap.Error(err))
		return nil, err
	}

	res, err := s.extractor.Extract(bytes.NewReader(body))
	if err != nil {
		observability.ScrapeRequests.WithLabelValues("selector_miss").Inc()
		observability.FromContext(ctx).Info("page missing required elements", zap.String("url", url), zap.Error(err))
		return nil, err
	}

	observability.ScrapeRequests.WithLabelValues("ok").Inc()
	return res, nil
}

func fetchOutcome(err error) string {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return "http_error"
	}
	return "fetch_error"
}
