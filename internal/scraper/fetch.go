package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"

	"artfeed/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// MaxBodyBytes caps how much of a page is read.
const MaxBodyBytes = 5 << 20

// ErrForbiddenAddress is returned when a page resolves to a loopback, private,
// link-local or otherwise non-public address.
var ErrForbiddenAddress = errors.New("scraper: address not allowed")

// nonPublicPrefixes are unicast ranges netip does not classify as private.
var nonPublicPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("64:ff9b::/96"),
}

// HTTPStatusError is returned for a non-2xx response.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// FetcherConfig configures a Fetcher. Without a Client, connections are only
// made to public addresses unless AllowPrivateNetworks is set.
type FetcherConfig struct {
	Timeout              time.Duration
	Backoff              time.Duration
	UserAgent            string
	AllowPrivateNetworks bool
	Client               *http.Client
}

// Fetcher GETs a page with a per-attempt timeout and one retry.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	backoff   time.Duration
	userAgent string
}

// NewFetcher returns a Fetcher for cfg. A zero Timeout means 10s.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Transport: newTransport(cfg.AllowPrivateNetworks)}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		client:    client,
		timeout:   timeout,
		backoff:   cfg.Backoff,
		userAgent: cfg.UserAgent,
	}
}

// Fetch returns the page body. Transport errors and 5xx responses are retried
// once after the backoff; 4xx responses are not retried.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, span := observability.StartClientSpan(ctx, "scraper.Fetch", attribute.String("http.url", url))

	body, err := f.attempt(ctx, url)
	if err != nil && retryable(err) && ctx.Err() == nil {
		observability.FromContext(ctx).Info("retrying page fetch",
			zap.String("url", url),
			zap.Duration("backoff", f.backoff),
			zap.Error(err),
		)
		span.AddEvent("retry")
		if waitErr := sleep(ctx, f.backoff); waitErr != nil {
			observability.EndSpan(span, waitErr)
			return nil, waitErr
		}
		body, err = f.attempt(ctx, url)
	}

	observability.EndSpan(span, err)
	return body, err
}

func (f *Fetcher) attempt(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode}
	}

	return io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
}

// newTransport checks every address actually dialled, after DNS resolution
// and on each redirect hop. The guarded transport does not use a proxy.
func newTransport(allowPrivate bool) *http.Transport {
	dialer := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
	t := http.DefaultTransport.(*http.Transport).Clone()
	if !allowPrivate {
		dialer.Control = rejectNonPublic
		t.Proxy = nil
	}
	t.DialContext = dialer.DialContext
	return t
}

func rejectNonPublic(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip, err := netip.ParseAddr(host)
	if err != nil || !isPublicAddr(ip) {
		return fmt.Errorf("%w: %s", ErrForbiddenAddress, host)
	}
	return nil
}

func isPublicAddr(ip netip.Addr) bool {
	ip = ip.Unmap()
	if !ip.IsGlobalUnicast() || ip.IsPrivate() {
		return false
	}
	for _, p := range nonPublicPrefixes {
		if p.Contains(ip) {
			return false
		}
	}
	return true
}

func retryable(err error) bool {
	if errors.Is(err, ErrForbiddenAddress) {
		return false
	}
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
