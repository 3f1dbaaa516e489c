package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/readscroll/internal/cache"
	"github.com/hyperifyio/readscroll/internal/extract"
	"github.com/hyperifyio/readscroll/internal/fetch"
	"github.com/hyperifyio/readscroll/internal/prefs"
	"github.com/hyperifyio/readscroll/internal/readability"
	"github.com/hyperifyio/readscroll/internal/render"
	"github.com/hyperifyio/readscroll/internal/scroll"
	"github.com/hyperifyio/readscroll/internal/session"
)

// ErrNoContent is returned when the page has nothing readable. The CLI maps
// it to exit code 2.
var ErrNoContent = errors.New("no readable content")

// Page cache bounds applied after each network fetch.
const (
	cacheMaxBytes   = 256 << 20
	cacheMaxEntries = 2000
)

type App struct {
	cfg     Config
	fetcher *fetch.Client
	store   *prefs.Store

	// Stdin feeds pager commands in scroll mode.
	Stdin io.Reader
	// Stdout receives the rendered document when no output path is set,
	// and the pager in scroll mode.
	Stdout io.Writer
	// Scheduler drives the scroll tick loop. Nil uses a ticker.
	Scheduler scroll.Scheduler
}

func New(ctx context.Context, cfg Config) (*App, error) {
	ApplyDefaults(&cfg)
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, Stdin: os.Stdin, Stdout: os.Stdout}

	if cfg.URL != "" && cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			// Purge is best-effort; a missing directory is not an error here.
			if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err == nil && n > 0 {
				log.Debug().Int("removed", n).Msg("purged stale cache entries")
			}
		}
	}
	if cfg.URL != "" {
		a.fetcher = &fetch.Client{
			HTTPClient:        newHTTPClient(),
			UserAgent:         cfg.UserAgent,
			MaxAttempts:       3,
			PerRequestTimeout: 15 * time.Second,
			BypassCache:       cfg.CacheClear,
		}
		if cfg.CacheDir != "" {
			a.fetcher.Cache = &cache.HTTPCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
		}
	}

	backend, err := prefs.Open(cfg.PrefsBackend, cfg.PrefsPath)
	if err != nil {
		// Preferences are optional; run with defaults in memory.
		log.Warn().Err(err).Str("backend", cfg.PrefsBackend).Msg("preferences unavailable, using memory")
		backend = prefs.NewMemoryBackend()
	}
	a.store = prefs.NewStore(backend, cfg.PrefsPrefix)
	return a, nil
}

func (a *App) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Warn().Err(err).Msg("closing preferences")
		}
	}
}

// Store returns the preference store.
func (a *App) Store() *prefs.Store { return a.store }

func (a *App) Run(ctx context.Context) error {
	src, pageURL, err := a.source(ctx)
	if err != nil {
		return err
	}
	ex, err := extract.New(a.cfg.Strategy, readabilityOptions(a.cfg), pageURL)
	if err != nil {
		return err
	}
	if a.cfg.Scroll {
		return a.runScroll(ctx, src, ex)
	}

	start := time.Now()
	doc, err := ex.Extract(src)
	if errors.Is(err, extract.ErrNoContent) {
		log.Warn().Err(err).Msg(session.FallbackMessage)
		return ErrNoContent
	}
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	log.Info().Str("title", doc.Title).Int("chars", len(doc.Text)).Dur("took", time.Since(start)).Msg("article extracted")

	format, err := render.ParseFormat(a.cfg.Format)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := render.Write(&buf, format, doc, session.LoadStyles(ctx, a.store)); err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	if a.cfg.OutputPath == "" {
		_, err := a.Stdout.Write(buf.Bytes())
		return err
	}
	if dir := filepath.Dir(a.cfg.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(a.cfg.OutputPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info().Str("path", a.cfg.OutputPath).Str("format", format).Msg("wrote reader view")
	return nil
}

// source returns the page markup and, for URL input, the final page address.
func (a *App) source(ctx context.Context) ([]byte, *url.URL, error) {
	if a.cfg.InputPath != "" {
		b, err := os.ReadFile(a.cfg.InputPath)
		if err != nil {
			return nil, nil, fmt.Errorf("read input: %w", err)
		}
		return b, nil, nil
	}
	page, err := a.fetcher.Get(ctx, a.cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", a.cfg.URL, err)
	}
	log.Info().Str("url", page.URL).Bool("cached", page.FromCache).Int("bytes", len(page.Body)).Msg("page fetched")
	if !page.FromCache && a.fetcher.Cache != nil {
		if n, err := cache.EnforceLimits(a.cfg.CacheDir, cacheMaxBytes, cacheMaxEntries); err == nil && n > 0 {
			log.Debug().Int("evicted", n).Msg("cache limits enforced")
		}
	}
	u, err := url.Parse(page.URL)
	if err != nil {
		return page.Body, nil, nil
	}
	return page.Body, u, nil
}

func readabilityOptions(cfg Config) readability.Options {
	return readability.Options{
		PreserveUnlikely:   cfg.PreserveUnlikely,
		MultiCandidate:     cfg.MultiCandidate,
		IgnoreContentHints: cfg.IgnoreHints,
	}
}

// SetSource assigns a positional argument to URL or InputPath depending on
// whether it looks like an http(s) address.
func SetSource(cfg *Config, arg string) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return
	}
	lower := strings.ToLower(arg)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		cfg.URL = arg
		cfg.InputPath = ""
		return
	}
	cfg.InputPath = arg
	cfg.URL = ""
}
