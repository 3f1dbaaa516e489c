// Package fetch downloads HTML pages for extraction. Bodies are decoded to
// UTF-8 using the charset from the Content-Type header or the page's own
// meta tags.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"

	"github.com/hyperifyio/readscroll/internal/cache"
)

// DefaultMaxBodyBytes caps page bodies when Client.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 10 << 20

// StatusError reports a non-success HTTP status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	if e.Code >= 500 {
		return fmt.Sprintf("server error: %d", e.Code)
	}
	return fmt.Sprintf("unexpected status: %d", e.Code)
}

// Page is a fetched and decoded HTML page.
type Page struct {
	// URL is the address after redirects.
	URL         string
	ContentType string
	// Body is UTF-8.
	Body      []byte
	FromCache bool
}

// Client wraps http.Client with timeouts, bounded retry on transient errors
// and optional conditional revalidation against an on-disk cache.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each request.
	PerRequestTimeout time.Duration
	Cache             *cache.HTTPCache
	// BypassCache skips revalidation but still stores the fresh response.
	BypassCache bool
	// RedirectMaxHops caps redirect following. Zero means 5.
	RedirectMaxHops int
	MaxBodyBytes    int64
}

type response struct {
	status       int
	finalURL     string
	contentType  string
	etag         string
	lastModified string
	body         []byte
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirect()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirect()}
}

// Get fetches rawURL. With a cache configured, a stored ETag or Last-Modified
// is sent and a 304 answer is served from the cache.
func (c *Client) Get(ctx context.Context, rawURL string) (Page, error) {
	var meta *cache.HTTPEntry
	if c.Cache != nil && !c.BypassCache {
		if m, err := c.Cache.LoadMeta(ctx, rawURL); err == nil {
			meta = m
		} else if !errors.Is(err, cache.ErrMiss) {
			log.Debug().Err(err).Str("url", rawURL).Msg("ignoring unreadable cache entry")
		}
	}

	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var resp response
	var err error
	for i := 0; i < attempts; i++ {
		resp, err = c.tryOnce(ctx, rawURL, meta)
		if err == nil || !isTransient(err) || i == attempts-1 {
			break
		}
		log.Debug().Err(err).Str("url", rawURL).Int("attempt", i+1).Msg("retrying fetch")
		select {
		case <-ctx.Done():
			return Page{}, ctx.Err()
		case <-time.After(time.Duration(i+1) * 200 * time.Millisecond):
		}
	}
	if err != nil {
		return Page{}, err
	}

	if resp.status == http.StatusNotModified && meta != nil {
		body, cerr := c.Cache.LoadBody(ctx, rawURL)
		if cerr != nil {
			return Page{}, fmt.Errorf("revalidated entry missing from cache: %w", cerr)
		}
		return Page{URL: orDefault(meta.FinalURL, rawURL), ContentType: meta.ContentType, Body: body, FromCache: true}, nil
	}

	body, err := decode(resp.body, resp.contentType)
	if err != nil {
		return Page{}, err
	}
	if c.Cache != nil {
		e := cache.HTTPEntry{URL: rawURL, FinalURL: resp.finalURL, ContentType: resp.contentType, ETag: resp.etag, LastModified: resp.lastModified}
		if err := c.Cache.Save(ctx, e, body); err != nil {
			log.Warn().Err(err).Str("url", rawURL).Msg("failed to cache page")
		}
	}
	return Page{URL: resp.finalURL, ContentType: resp.contentType, Body: body}, nil
}

func (c *Client) tryOnce(ctx context.Context, rawURL string, meta *cache.HTTPEntry) (response, error) {
	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.PerRequestTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return response{}, fmt.Errorf("new request: %w", err)
	}
	if !isHTTPScheme(req.URL) {
		return response{}, fmt.Errorf("unsupported URL scheme: %q", req.URL.Scheme)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if meta != nil {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()

	out := response{
		status:       resp.StatusCode,
		finalURL:     resp.Request.URL.String(),
		contentType:  resp.Header.Get("Content-Type"),
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
	}
	if resp.StatusCode == http.StatusNotModified {
		return out, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, &StatusError{Code: resp.StatusCode}
	}
	if !isHTMLContentType(out.contentType) {
		return out, fmt.Errorf("unsupported content type: %s", out.contentType)
	}
	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	out.body, err = io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return out, fmt.Errorf("read body: %w", err)
	}
	if int64(len(out.body)) > limit {
		return out, fmt.Errorf("page larger than %d bytes", limit)
	}
	return out, nil
}

// decode converts body to UTF-8. The encoding comes from the Content-Type
// header, a BOM or the page's meta tags, in that order of trust.
func decode(body []byte, contentType string) ([]byte, error) {
	enc, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" {
		return body, nil
	}
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(body), enc.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	log.Debug().Str("charset", name).Msg("decoded page")
	return out, nil
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.Code >= 500
}

func (c *Client) checkRedirect() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
