// Package fetcher downloads pitch decks referenced by URL.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/gocolly/colly/v2"
)

var (
	ErrInvalidURL    = errors.New("deck url must be an absolute http(s) url")
	ErrTooLarge      = errors.New("deck exceeds size limit")
	ErrForbiddenHost = errors.New("deck host is not publicly routable")
)

// Shared address space (RFC 6598) is not covered by netip's IsPrivate.
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

type DeckFetcher struct {
	maxBytes  int
	timeout   time.Duration
	userAgent string
	// allowPrivate lifts the public-address check; tests serve from loopback.
	allowPrivate bool
}

func New(maxBytes int, timeout time.Duration) *DeckFetcher {
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &DeckFetcher{maxBytes: maxBytes, timeout: timeout, userAgent: "funnel-deck-fetcher/1.0"}
}

// Fetch returns the body and content type at rawURL. Bodies at or above the
// size limit are rejected rather than truncated. Every dial, redirects
// included, must reach a public address.
func (f *DeckFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, "", ErrInvalidURL
	}

	c := colly.NewCollector(
		colly.UserAgent(f.userAgent),
		colly.MaxBodySize(f.maxBytes+1),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(f.timeout)
	c.WithTransport(ctxTransport{ctx: ctx, base: f.transport()})

	var (
		body        []byte
		contentType string
		fetchErr    error
	)
	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
		contentType = r.Headers.Get("Content-Type")
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			fetchErr = fmt.Errorf("fetch deck: status %d: %w", r.StatusCode, err)
			return
		}
		fetchErr = fmt.Errorf("fetch deck: %w", err)
	})

	if err := c.Visit(u.String()); err != nil && fetchErr == nil {
		fetchErr = fmt.Errorf("fetch deck: %w", err)
	}
	c.Wait()

	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("fetch deck: %w", err)
	}
	if fetchErr != nil {
		return nil, "", fetchErr
	}
	if len(body) > f.maxBytes {
		return nil, "", ErrTooLarge
	}
	return body, contentType, nil
}

func (f *DeckFetcher) transport() *http.Transport {
	dialer := &net.Dialer{Timeout: f.timeout}
	if !f.allowPrivate {
		dialer.Control = publicOnly
	}
	return &http.Transport{
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   f.timeout,
		ResponseHeaderTimeout: f.timeout,
		MaxIdleConns:          1,
		IdleConnTimeout:       time.Second,
	}
}

// publicOnly runs after name resolution, so address is always ip:port.
func publicOnly(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return err
	}
	if !isPublic(ip) {
		return fmt.Errorf("%w: %s", ErrForbiddenHost, ip)
	}
	return nil
}

func isPublic(ip netip.Addr) bool {
	ip = ip.Unmap()
	switch {
	case !ip.IsValid(),
		ip.IsUnspecified(),
		ip.IsLoopback(),
		ip.IsPrivate(),
		ip.IsLinkLocalUnicast(),
		ip.IsLinkLocalMulticast(),
		ip.IsInterfaceLocalMulticast(),
		ip.IsMulticast(),
		sharedAddressSpace.Contains(ip):
		return false
	}
	return true
}

// ctxTransport binds every request colly issues to the caller's context.
type ctxTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t ctxTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}
