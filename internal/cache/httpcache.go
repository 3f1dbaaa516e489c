// Package cache keeps fetched pages on disk so repeated reads of the same URL
// can revalidate with the origin instead of downloading again.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrMiss is returned when a URL has no cache entry.
var ErrMiss = errors.New("cache miss")

// HTTPEntry is the metadata stored next to a cached page body.
type HTTPEntry struct {
	URL string `json:"url"`
	// FinalURL is the address after redirects.
	FinalURL     string    `json:"final_url,omitempty"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
	SavedAt      time.Time `json:"saved_at"`
}

// HTTPCache stores pages as <key>.meta.json and <key>.body where key is
// sha256(url).
type HTTPCache struct {
	Dir string
	// StrictPerms restricts the directory to 0700 and files to 0600.
	StrictPerms bool
}

func (c *HTTPCache) dirPerm() os.FileMode {
	if c.StrictPerms {
		return 0o700
	}
	return 0o755
}

func (c *HTTPCache) filePerm() os.FileMode {
	if c.StrictPerms {
		return 0o600
	}
	return 0o644
}

func (c *HTTPCache) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	if err := os.MkdirAll(c.Dir, c.dirPerm()); err != nil {
		return err
	}
	if c.StrictPerms {
		// MkdirAll leaves an existing directory alone.
		if info, err := os.Stat(c.Dir); err == nil && info.Mode().Perm() != 0o700 {
			return os.Chmod(c.Dir, 0o700)
		}
	}
	return nil
}

func (c *HTTPCache) key(url string) string {
	h := sha256.Sum256([]byte(url))
	return hex.EncodeToString(h[:])
}

func (c *HTTPCache) metaPath(key string) string { return filepath.Join(c.Dir, key+".meta.json") }
func (c *HTTPCache) bodyPath(key string) string { return filepath.Join(c.Dir, key+".body") }

// LoadMeta returns the entry metadata for url, or ErrMiss.
func (c *HTTPCache) LoadMeta(_ context.Context, url string) (*HTTPEntry, error) {
	if err := c.ensureDir(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(c.metaPath(c.key(url)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	var e HTTPEntry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("decode cache meta: %w", err)
	}
	return &e, nil
}

// LoadBody returns the cached body for url, or ErrMiss. Reading a body marks
// the entry as recently used for EnforceLimits.
func (c *HTTPCache) LoadBody(_ context.Context, url string) ([]byte, error) {
	if err := c.ensureDir(); err != nil {
		return nil, err
	}
	p := c.bodyPath(c.key(url))
	b, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	log.Debug().Str("url", url).Int("bytes", len(b)).Msg("page cache hit")
	return b, nil
}

// Save stores a page. The body is written before the metadata, so a reader
// never sees metadata for a missing body.
func (c *HTTPCache) Save(_ context.Context, e HTTPEntry, body []byte) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	key := c.key(e.URL)
	if err := os.WriteFile(c.bodyPath(key), body, c.filePerm()); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if e.SavedAt.IsZero() {
		e.SavedAt = time.Now().UTC()
	}
	data, err := json.Marshal(&e)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	tmp := c.metaPath(key) + ".tmp"
	if err := os.WriteFile(tmp, data, c.filePerm()); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return os.Rename(tmp, c.metaPath(key))
}
