// Package session ties extraction, auto-scroll and preferences into one
// reader-mode session per page. A host (browser bridge or terminal pager)
// implements Page and forwards messages and pointer events to the Session.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/readscroll/internal/extract"
	"github.com/hyperifyio/readscroll/internal/prefs"
	"github.com/hyperifyio/readscroll/internal/scroll"
)

// FallbackMessage is shown in place of the article when nothing readable was found.
const FallbackMessage = "could not extract readable content"

// Page is the host document a session reads from and renders into.
type Page interface {
	// Source returns the original page markup.
	Source() ([]byte, error)
	// ShowReader replaces the page with the reader view of doc.
	ShowReader(doc extract.Document) error
	// ShowMessage replaces the page with a static message.
	ShowMessage(msg string) error
	// Restore puts the original page back.
	Restore() error
	Viewport() scroll.Viewport
}

// Presenter applies typography settings to the reader view.
type Presenter interface {
	ApplyStyles(StylePreferences) error
}

// Store is the preference store used by a session.
type Store interface {
	Get(ctx context.Context, keys ...string) prefs.Values
	Set(ctx context.Context, values map[string]any) error
	SaveEnabled(ctx context.Context) bool
}

// Options configures a Session. Page and Extractor are required.
type Options struct {
	Page      Page
	Presenter Presenter
	Extractor extract.Extractor
	Store     Store
	Scheduler scroll.Scheduler
	// OnScroll receives every scroll state published by the controller.
	OnScroll func(scroll.State)
}

// Session is the reader mode of one page. The scroll controller exists only
// while reader mode is on.
type Session struct {
	opts Options

	mu      sync.Mutex
	enabled bool
	ctrl    *scroll.Controller
	doc     extract.Document
}

func New(opts Options) *Session {
	return &Session{opts: opts}
}

// Start enables reader mode right away when the alwaysEnabled preference is set.
func (s *Session) Start(ctx context.Context) error {
	if s.opts.Store == nil || !s.opts.Store.Get(ctx, prefs.KeyAlwaysEnabled).Bool(prefs.KeyAlwaysEnabled) {
		return nil
	}
	log.Info().Msg("alwaysEnabled set, starting reader mode")
	return s.Enable(ctx)
}

func (s *Session) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Controller returns the scroll controller of the active reader view, or nil.
func (s *Session) Controller() *scroll.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl
}

// Document returns the extracted article of the active reader view.
func (s *Session) Document() extract.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Enable extracts the page and shows the reader view. When nothing readable
// is found the fallback message is shown instead and no scroll controller is
// created. Enabling twice is a no-op.
func (s *Session) Enable(ctx context.Context) error {
	ctrl, err := s.enable(ctx)
	if err != nil || ctrl == nil {
		return err
	}
	st := ctrl.Restore(ctx)
	log.Info().Str("title", s.Document().Title).Str("phase", st.Phase.String()).Msg("reader mode enabled")
	return nil
}

// enable shows the reader view and creates its controller. The controller is
// restored by the caller without the session lock held, so OnScroll may call
// back into the session.
func (s *Session) enable(ctx context.Context) (*scroll.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled {
		return nil, nil
	}

	src, err := s.opts.Page.Source()
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	doc, err := s.opts.Extractor.Extract(src)
	if err != nil {
		if !errors.Is(err, extract.ErrNoContent) {
			return nil, fmt.Errorf("extract: %w", err)
		}
		log.Warn().Err(err).Msg("showing fallback message")
		if err := s.opts.Page.ShowMessage(FallbackMessage); err != nil {
			return nil, fmt.Errorf("show message: %w", err)
		}
		s.enabled = true
		return nil, nil
	}
	if err := s.opts.Page.ShowReader(doc); err != nil {
		return nil, fmt.Errorf("show reader: %w", err)
	}
	s.doc = doc
	s.enabled = true

	if s.opts.Presenter != nil {
		if err := s.opts.Presenter.ApplyStyles(LoadStyles(ctx, s.opts.Store)); err != nil {
			log.Warn().Err(err).Msg("failed to apply styles")
		}
	}

	var store scroll.Store
	if s.opts.Store != nil {
		store = s.opts.Store
	}
	s.ctrl = scroll.NewController(scroll.Options{
		Viewport:  s.opts.Page.Viewport(),
		Scheduler: s.opts.Scheduler,
		Store:     store,
		OnChange:  s.opts.OnScroll,
	})
	return s.ctrl, nil
}

// Disable tears the reader view down. The scroll timer is cancelled and the
// controller reset before the original page is restored.
func (s *Session) Disable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		return nil
	}
	if s.ctrl != nil {
		s.ctrl.Close()
		s.ctrl = nil
	}
	s.enabled = false
	s.doc = extract.Document{}
	if err := s.opts.Page.Restore(); err != nil {
		return fmt.Errorf("restore page: %w", err)
	}
	log.Info().Msg("reader mode disabled")
	return nil
}

// Styles returns the stored style preferences.
func (s *Session) Styles(ctx context.Context) StylePreferences {
	return LoadStyles(ctx, s.opts.Store)
}

// UpdateStyles validates p, saves it when saveSettings is on and hands it to
// the presenter. Empty fields keep their stored values.
func (s *Session) UpdateStyles(ctx context.Context, p StylePreferences) error {
	p = p.withDefaults(s.Styles(ctx))
	if err := p.Validate(); err != nil {
		return err
	}
	if s.opts.Store != nil && s.opts.Store.SaveEnabled(ctx) {
		// Store.Set logs its own failures.
		_ = s.opts.Store.Set(ctx, p.values())
	}
	if s.opts.Presenter == nil {
		return nil
	}
	return s.opts.Presenter.ApplyStyles(p)
}
