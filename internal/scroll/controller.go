// Package scroll drives automatic scrolling of a viewport. A Controller moves
// between the stopped, scrolling, paused and click-stopped phases in response
// to slider, hover and click events, advancing the viewport on a fixed tick
// while it scrolls.
package scroll

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/readscroll/internal/prefs"
)

// Phase is the state of the scroll loop.
type Phase int

const (
	Stopped Phase = iota
	Scrolling
	Paused
	ClickStopped
)

func (p Phase) String() string {
	switch p {
	case Scrolling:
		return "scrolling"
	case Paused:
		return "paused"
	case ClickStopped:
		return "click-stopped"
	}
	return "stopped"
}

// Trigger names the source of a pause/stop/resume toggle.
type Trigger int

const (
	// Pause comes from the pointer entering or leaving the content.
	Pause Trigger = iota
	// Stop comes from a quick click.
	Stop
)

// State is a snapshot of the controller.
type State struct {
	Phase         Phase
	Value         int
	PixelsPerTick float64
	Label         string
	// MaxSpeed is set while the label shows the maximum speed variant.
	MaxSpeed bool

	ResumeValue   int
	ResumeLabel   string
	WasAtMaxSpeed bool
}

// Store is the subset of the preference store the controller uses.
type Store interface {
	Get(ctx context.Context, keys ...string) prefs.Values
	Set(ctx context.Context, values map[string]any) error
	SaveEnabled(ctx context.Context) bool
}

// Options configures a Controller. Viewport is required.
type Options struct {
	Viewport  Viewport
	Scheduler Scheduler
	Store     Store
	Interval  time.Duration
	// OnChange, when set, receives every new state after a transition. It is
	// called without the controller lock held.
	OnChange func(State)
	// PersistTimeout bounds each preference write.
	PersistTimeout time.Duration
}

// Controller owns the scroll state of one reader session. Its methods are
// safe to call from any goroutine; at most one tick loop runs at a time.
type Controller struct {
	opts Options

	mu       sync.Mutex
	st       State
	cancel   func()
	gen      uint64
	hovering bool
	closed   bool
}

func NewController(opts Options) *Controller {
	if opts.Scheduler == nil {
		opts.Scheduler = TickerScheduler{}
	}
	if opts.Interval <= 0 {
		opts.Interval = TickInterval
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = 2 * time.Second
	}
	return &Controller{opts: opts, st: State{Phase: Stopped, Label: LabelStopped}}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st
}

// SetSpeed handles slider input. A positive value (re)starts scrolling at
// that speed; zero stops and remembers the previous speed for resuming.
func (c *Controller) SetSpeed(value int) {
	value = clamp(value)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if value == 0 {
		if c.st.Phase == Scrolling {
			c.remember()
		}
		c.halt(Stopped, LabelZero)
	} else {
		c.st.Phase = Scrolling
		c.st.Value = value
		c.st.PixelsPerTick = PixelsPerTick(value)
		c.st.Label = SpeedLabel(value)
		c.st.MaxSpeed = value == MaxValue
		c.remember()
		c.startTimer()
	}
	st := c.st
	c.mu.Unlock()
	c.commit(st)
}

// MouseEnter pauses a running scroll. It does nothing in any other phase.
func (c *Controller) MouseEnter() {
	c.mu.Lock()
	c.hovering = true
	var states []State
	if c.st.Phase == Scrolling {
		states = c.toggle(Pause)
	}
	c.mu.Unlock()
	c.commit(states...)
}

// MouseLeave resumes a hover pause.
func (c *Controller) MouseLeave() {
	c.mu.Lock()
	c.hovering = false
	var states []State
	if c.st.Phase == Paused {
		states = c.toggle(Pause)
	}
	c.mu.Unlock()
	c.commit(states...)
}

// Click handles a quick click on the content.
func (c *Controller) Click() {
	c.DoPauseStopOrResume(Stop)
}

// DoPauseStopOrResume toggles between running and halted. While scrolling,
// a Pause trigger pauses and a Stop trigger click-stops. A paused scroll
// resumes on either trigger. A click-stopped scroll answers a Stop trigger by
// passing through Paused first; it resumes from there unless the pointer is
// still over the content, in which case leaving resumes it.
func (c *Controller) DoPauseStopOrResume(trigger Trigger) {
	c.mu.Lock()
	states := c.toggle(trigger)
	c.mu.Unlock()
	c.commit(states...)
}

// toggle applies one pause/stop/resume event and returns the states it
// passed through. Must hold mu.
func (c *Controller) toggle(trigger Trigger) []State {
	if c.closed {
		return nil
	}
	var states []State
	switch c.st.Phase {
	case Scrolling:
		c.remember()
		if trigger == Stop {
			c.halt(ClickStopped, LabelClickStopped)
		} else {
			c.halt(Paused, LabelHoverPaused)
		}
		states = append(states, c.st)
	case Paused:
		c.resume()
		states = append(states, c.st)
	case ClickStopped:
		if trigger != Stop {
			break
		}
		c.halt(Paused, LabelHoverPaused)
		states = append(states, c.st)
		if !c.hovering {
			c.resume()
			states = append(states, c.st)
		}
	}
	return states
}

// Restore loads the persisted scroll state when saving is enabled and
// restarts the tick loop if the state was scrolling. Without saved state the
// controller keeps its defaults.
func (c *Controller) Restore(ctx context.Context) State {
	if c.opts.Store == nil {
		return c.State()
	}
	v := c.opts.Store.Get(ctx, prefs.KeySaveSettings, prefs.KeyIsScrolling, prefs.KeyValue,
		prefs.KeyLabel, prefs.KeyIsPaused, prefs.KeyIsClickStopped, prefs.KeyResumeValue, prefs.KeyResumeLabel)
	if !v.Bool(prefs.KeySaveSettings) {
		return c.State()
	}

	c.mu.Lock()
	if c.closed {
		defer c.mu.Unlock()
		return c.st
	}
	c.stopTimer()
	value := clamp(v.Int(prefs.KeyValue))
	label := v.String(prefs.KeyLabel)
	resume := clamp(v.Int(prefs.KeyResumeValue))
	c.st = State{
		ResumeValue:   resume,
		ResumeLabel:   v.String(prefs.KeyResumeLabel),
		WasAtMaxSpeed: resume == MaxValue,
	}
	switch {
	case v.Bool(prefs.KeyIsScrolling) && value > 0:
		c.st.Phase = Scrolling
		c.st.Value = value
		c.st.PixelsPerTick = PixelsPerTick(value)
		c.st.Label = orDefault(label, SpeedLabel(value))
		c.st.MaxSpeed = value == MaxValue
		c.startTimer()
	case v.Bool(prefs.KeyIsPaused):
		c.st.Phase = Paused
		c.st.Label = orDefault(label, LabelHoverPaused)
	case v.Bool(prefs.KeyIsClickStopped):
		c.st.Phase = ClickStopped
		c.st.Label = orDefault(label, LabelClickStopped)
	default:
		c.st.Phase = Stopped
		c.st.Label = orDefault(label, LabelStopped)
	}
	st := c.st
	c.mu.Unlock()

	log.Debug().Str("phase", st.Phase.String()).Int("value", st.Value).Str("label", st.Label).Msg("scroll state restored")
	if c.opts.OnChange != nil {
		c.opts.OnChange(st)
	}
	return st
}

// Close cancels the tick loop and resets the state. Later calls on the
// controller are ignored. Close does not persist anything, so a saved
// session survives the teardown.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimer()
	c.closed = true
	c.st = State{Phase: Stopped, Label: LabelStopped}
}

func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.gen || c.st.Phase != Scrolling {
		c.mu.Unlock()
		return
	}
	if c.opts.Viewport.Metrics().AtBottom() {
		c.remember()
		c.halt(Stopped, LabelEndOfPage)
		st := c.st
		c.mu.Unlock()
		c.commit(st)
		return
	}
	dy := c.st.PixelsPerTick
	c.opts.Viewport.ScrollBy(dy)
	c.mu.Unlock()
}

// remember caches the running speed and label for a later resume. Must hold mu.
func (c *Controller) remember() {
	if c.st.Value == 0 {
		return
	}
	c.st.ResumeValue = c.st.Value
	c.st.ResumeLabel = c.st.Label
	c.st.WasAtMaxSpeed = c.st.MaxSpeed
}

// halt stops the tick loop and moves to a resting phase. Must hold mu.
func (c *Controller) halt(phase Phase, label string) {
	c.stopTimer()
	c.st.Phase = phase
	c.st.Value = 0
	c.st.PixelsPerTick = 0
	c.st.Label = label
	c.st.MaxSpeed = false
}

// resume restarts scrolling at the remembered speed. Must hold mu.
func (c *Controller) resume() {
	if c.st.ResumeValue <= 0 {
		c.halt(Stopped, LabelZero)
		return
	}
	v := c.st.ResumeValue
	c.st.Phase = Scrolling
	c.st.Value = v
	c.st.PixelsPerTick = PixelsPerTick(v)
	c.st.Label = orDefault(c.st.ResumeLabel, SpeedLabel(v))
	c.st.MaxSpeed = c.st.WasAtMaxSpeed
	c.startTimer()
}

func (c *Controller) startTimer() {
	c.stopTimer()
	c.gen++
	gen := c.gen
	c.cancel = c.opts.Scheduler.Every(c.opts.Interval, func() { c.tick(gen) })
}

func (c *Controller) stopTimer() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
}

// commit logs, persists and publishes each new state in order.
func (c *Controller) commit(states ...State) {
	for _, st := range states {
		log.Debug().Str("phase", st.Phase.String()).Int("value", st.Value).Str("label", st.Label).Msg("scroll transition")
		c.persist(st)
		if c.opts.OnChange != nil {
			c.opts.OnChange(st)
		}
	}
}

func (c *Controller) persist(st State) {
	if c.opts.Store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.PersistTimeout)
	defer cancel()
	if !c.opts.Store.SaveEnabled(ctx) {
		return
	}
	// Store.Set logs its own failures.
	_ = c.opts.Store.Set(ctx, map[string]any{
		prefs.KeyIsScrolling:    st.Phase == Scrolling,
		prefs.KeyValue:          strconv.Itoa(st.Value),
		prefs.KeySpeed:          st.PixelsPerTick,
		prefs.KeyLabel:          st.Label,
		prefs.KeyIsPaused:       st.Phase == Paused,
		prefs.KeyIsClickStopped: st.Phase == ClickStopped,
		prefs.KeyResumeValue:    strconv.Itoa(st.ResumeValue),
		prefs.KeyResumeLabel:    st.ResumeLabel,
	})
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
