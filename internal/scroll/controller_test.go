package scroll

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperifyio/readscroll/internal/prefs"
)

type fakeScheduler struct {
	mu     sync.Mutex
	active map[int]func()
	all    []func()
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{active: map[int]func(){}}
}

func (f *fakeScheduler) Every(d time.Duration, fn func()) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := len(f.all)
	f.all = append(f.all, fn)
	f.active[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.active, id)
	}
}

// Tick fires every active callback once.
func (f *fakeScheduler) Tick() {
	f.mu.Lock()
	fns := make([]func(), 0, len(f.active))
	for _, fn := range f.active {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (f *fakeScheduler) Active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.active)
}

type fakeViewport struct {
	mu      sync.Mutex
	scrollY float64
	height  float64
	doc     float64
}

func (v *fakeViewport) Metrics() Metrics {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Metrics{ScrollY: v.scrollY, ViewportHeight: v.height, DocScrollHeight: v.doc, BodyClientHeight: v.doc / 2}
}

func (v *fakeViewport) ScrollBy(dy float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrollY += dy
}

func (v *fakeViewport) Y() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scrollY
}

type harness struct {
	c      *Controller
	sched  *fakeScheduler
	view   *fakeViewport
	mu     sync.Mutex
	states []State
}

func newHarness(t *testing.T, store Store) *harness {
	t.Helper()
	h := &harness{sched: newFakeScheduler(), view: &fakeViewport{height: 100, doc: 10000}}
	h.c = NewController(Options{
		Viewport:  h.view,
		Scheduler: h.sched,
		Store:     store,
		OnChange: func(st State) {
			h.mu.Lock()
			h.states = append(h.states, st)
			h.mu.Unlock()
		},
	})
	t.Cleanup(h.c.Close)
	return h
}

func (h *harness) phases() []Phase {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Phase, len(h.states))
	for i, st := range h.states {
		out[i] = st.Phase
	}
	return out
}

func (h *harness) resetStates() {
	h.mu.Lock()
	h.states = nil
	h.mu.Unlock()
}

func savingStore(t *testing.T) (*prefs.Store, *prefs.MemoryBackend) {
	t.Helper()
	mem := prefs.NewMemoryBackend()
	s := prefs.NewStore(mem, "")
	if err := s.Set(context.Background(), map[string]any{prefs.KeySaveSettings: true}); err != nil {
		t.Fatalf("enable saving: %v", err)
	}
	return s, mem
}

func TestPixelsPerTick(t *testing.T) {
	if got := PixelsPerTick(0); got != 0 {
		t.Fatalf("PixelsPerTick(0) = %v", got)
	}
	if got := PixelsPerTick(100); got != 5.5 {
		t.Fatalf("PixelsPerTick(100) = %v", got)
	}
	if got := PixelsPerTick(50); got != 1.75 {
		t.Fatalf("PixelsPerTick(50) = %v", got)
	}
	prev := PixelsPerTick(0)
	for v := 1; v <= 100; v++ {
		cur := PixelsPerTick(v)
		if cur <= prev {
			t.Fatalf("not strictly increasing at %d: %v <= %v", v, cur, prev)
		}
		prev = cur
	}
	if PixelsPerTick(-3) != 0 || PixelsPerTick(250) != 5.5 {
		t.Fatalf("out of range values should clamp")
	}
}

func TestSpeedLabel(t *testing.T) {
	if got := SpeedLabel(50); got != "50%" {
		t.Fatalf("SpeedLabel(50) = %q", got)
	}
	if got := SpeedLabel(100); got != LabelMaxSpeed {
		t.Fatalf("SpeedLabel(100) = %q", got)
	}
}

func TestMetrics(t *testing.T) {
	m := Metrics{ScrollY: 898, ViewportHeight: 100, BodyScrollHeight: 400, DocOffsetHeight: 1000, DocClientHeight: 700}
	if got := m.DocumentHeight(); got != 1000 {
		t.Fatalf("DocumentHeight = %v", got)
	}
	if !m.AtBottom() {
		t.Fatalf("898+100 is within 2px of 1000")
	}
	m.ScrollY = 897
	if m.AtBottom() {
		t.Fatalf("897+100 is not at the bottom")
	}
}

func TestController_InitialState(t *testing.T) {
	h := newHarness(t, nil)
	st := h.c.State()
	if st.Phase != Stopped || st.Label != LabelStopped || st.Value != 0 {
		t.Fatalf("unexpected initial state: %+v", st)
	}
}

func TestController_SetSpeed(t *testing.T) {
	h := newHarness(t, nil)
	h.c.SetSpeed(50)
	st := h.c.State()
	if st.Phase != Scrolling || st.Value != 50 || st.PixelsPerTick != 1.75 || st.Label != "50%" || st.MaxSpeed {
		t.Fatalf("unexpected state: %+v", st)
	}
	if h.sched.Active() != 1 {
		t.Fatalf("expected one timer, got %d", h.sched.Active())
	}
	h.sched.Tick()
	h.sched.Tick()
	if y := h.view.Y(); y != 3.5 {
		t.Fatalf("expected two ticks of 1.75, got %v", y)
	}

	h.c.SetSpeed(100)
	st = h.c.State()
	if st.Label != LabelMaxSpeed || !st.MaxSpeed || st.PixelsPerTick != 5.5 {
		t.Fatalf("unexpected max speed state: %+v", st)
	}
	if h.sched.Active() != 1 {
		t.Fatalf("restarting must replace the timer, got %d", h.sched.Active())
	}
}

func TestController_StaleTicksIgnored(t *testing.T) {
	h := newHarness(t, nil)
	h.c.SetSpeed(20)
	h.c.SetSpeed(40)
	first := h.sched.all[0]
	first()
	if y := h.view.Y(); y != 0 {
		t.Fatalf("cancelled timer scrolled the page to %v", y)
	}
}

func TestController_SliderZeroStops(t *testing.T) {
	for _, v := range []int{1, 30, 99, 100} {
		h := newHarness(t, nil)
		h.c.SetSpeed(v)
		h.c.SetSpeed(0)
		st := h.c.State()
		if st.Phase != Stopped || st.Value != 0 || st.PixelsPerTick != 0 || st.Label != LabelZero {
			t.Fatalf("speed %d: unexpected state %+v", v, st)
		}
		if st.ResumeValue != v {
			t.Fatalf("speed %d: resume value %d", v, st.ResumeValue)
		}
		if h.sched.Active() != 0 {
			t.Fatalf("speed %d: timer still active", v)
		}
	}
}

func TestController_EndOfPage(t *testing.T) {
	h := newHarness(t, nil)
	h.view.doc = 1000
	h.view.scrollY = 895
	h.c.SetSpeed(100)

	h.sched.Tick() // 895 -> 900.5
	if st := h.c.State(); st.Phase != Scrolling {
		t.Fatalf("should still scroll, got %+v", st)
	}
	h.sched.Tick() // at bottom: stop without scrolling further
	st := h.c.State()
	if st.Phase != Stopped || st.Label != LabelEndOfPage || st.Value != 0 {
		t.Fatalf("unexpected end of page state: %+v", st)
	}
	if y := h.view.Y(); y != 900.5 {
		t.Fatalf("scrolled past the end: %v", y)
	}
	if h.sched.Active() != 0 {
		t.Fatalf("timer should be cleared")
	}
}

func TestController_HoverPauseRoundTrip(t *testing.T) {
	h := newHarness(t, nil)
	h.c.SetSpeed(30)
	before := h.c.State()

	h.c.MouseEnter()
	st := h.c.State()
	if st.Phase != Paused || st.Label != LabelHoverPaused || st.Value != 0 || st.ResumeValue != 30 {
		t.Fatalf("unexpected paused state: %+v", st)
	}
	if h.sched.Active() != 0 {
		t.Fatalf("timer should be cleared while paused")
	}

	h.c.MouseEnter()
	if again := h.c.State(); again != st {
		t.Fatalf("second enter changed state: %+v", again)
	}

	h.c.MouseLeave()
	after := h.c.State()
	if after.Phase != Scrolling || after.Value != before.Value || after.Label != before.Label {
		t.Fatalf("resume mismatch: before %+v after %+v", before, after)
	}
	if h.sched.Active() != 1 {
		t.Fatalf("timer should run again")
	}
}

func TestController_DoPauseStopOrResumeTwice(t *testing.T) {
	h := newHarness(t, nil)
	h.c.SetSpeed(100)
	h.c.DoPauseStopOrResume(Pause)
	h.c.DoPauseStopOrResume(Pause)
	st := h.c.State()
	if st.Phase != Scrolling || st.Value != 100 || st.Label != LabelMaxSpeed || !st.MaxSpeed {
		t.Fatalf("max speed not restored: %+v", st)
	}
}

func TestController_ClickStopAndResume(t *testing.T) {
	h := newHarness(t, nil)
	h.c.SetSpeed(60)
	h.c.Click()
	st := h.c.State()
	if st.Phase != ClickStopped || st.Label != LabelClickStopped || h.sched.Active() != 0 {
		t.Fatalf("unexpected click stop: %+v", st)
	}

	h.c.MouseLeave()
	if h.c.State().Phase != ClickStopped {
		t.Fatalf("leaving must not resume a click stop")
	}

	h.resetStates()
	h.c.Click()
	got := h.phases()
	want := []Phase{Paused, Scrolling}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected pass through paused, got %v", got)
	}
	if st := h.c.State(); st.Value != 60 || st.Label != "60%" {
		t.Fatalf("unexpected resumed state: %+v", st)
	}
}

func TestController_ClickResumeWhileHovering(t *testing.T) {
	h := newHarness(t, nil)
	h.c.SetSpeed(40)
	h.c.Click()
	h.c.MouseEnter()
	if h.c.State().Phase != ClickStopped {
		t.Fatalf("entering must not change a click stop")
	}

	h.c.Click()
	if st := h.c.State(); st.Phase != Paused || st.Label != LabelHoverPaused {
		t.Fatalf("expected hover pause while pointer is over content, got %+v", st)
	}
	h.c.MouseLeave()
	if st := h.c.State(); st.Phase != Scrolling || st.Value != 40 {
		t.Fatalf("expected resume on leave, got %+v", st)
	}
}

func TestController_ClickResumesHoverPause(t *testing.T) {
	h := newHarness(t, nil)
	h.c.SetSpeed(25)
	h.c.MouseEnter()
	h.c.Click()
	if st := h.c.State(); st.Phase != Scrolling || st.Value != 25 {
		t.Fatalf("click on a hover pause should resume, got %+v", st)
	}
}

func TestController_StoppedIgnoresToggles(t *testing.T) {
	h := newHarness(t, nil)
	h.c.MouseEnter()
	h.c.MouseLeave()
	h.c.Click()
	if st := h.c.State(); st.Phase != Stopped || h.sched.Active() != 0 {
		t.Fatalf("stopped controller changed: %+v", st)
	}
}

func TestController_Persists(t *testing.T) {
	store, _ := savingStore(t)
	h := newHarness(t, store)
	ctx := context.Background()

	h.c.SetSpeed(60)
	v := store.Get(ctx)
	if !v.Bool(prefs.KeyIsScrolling) || v.String(prefs.KeyValue) != "60" || v.String(prefs.KeyLabel) != "60%" {
		t.Fatalf("scrolling state not persisted: %v", v)
	}
	if math.Abs(v.Float(prefs.KeySpeed)-PixelsPerTick(60)) > 1e-9 {
		t.Fatalf("speed not persisted: %v", v[prefs.KeySpeed])
	}

	h.c.MouseEnter()
	v = store.Get(ctx)
	if v.Bool(prefs.KeyIsScrolling) || !v.Bool(prefs.KeyIsPaused) || v.Bool(prefs.KeyIsClickStopped) {
		t.Fatalf("paused flags not persisted: %v", v)
	}
	if v.String(prefs.KeyResumeValue) != "60" || v.String(prefs.KeyLabel) != LabelHoverPaused {
		t.Fatalf("resume state not persisted: %v", v)
	}
}

func TestController_NoPersistWhenDisabled(t *testing.T) {
	mem := prefs.NewMemoryBackend()
	store := prefs.NewStore(mem, "")
	h := newHarness(t, store)
	h.c.SetSpeed(60)
	if snap := mem.Snapshot(prefs.DefaultPrefix); len(snap) != 0 {
		t.Fatalf("nothing should be stored, got %v", snap)
	}
}

type brokenStore struct{}

func (brokenStore) Get(ctx context.Context, keys ...string) prefs.Values {
	v := prefs.Values{}
	v[prefs.KeySaveSettings] = true
	return v
}

func (brokenStore) Set(ctx context.Context, values map[string]any) error {
	return errors.New("quota exceeded")
}

func (brokenStore) SaveEnabled(context.Context) bool { return true }

// gatedStore decides saving on its own, whatever saveSettings holds.
type gatedStore struct {
	*prefs.Store
	save bool
}

func (g gatedStore) SaveEnabled(context.Context) bool { return g.save }

func TestController_PersistAsksSaveEnabled(t *testing.T) {
	ctx := context.Background()
	mem := prefs.NewMemoryBackend()
	h := newHarness(t, gatedStore{Store: prefs.NewStore(mem, ""), save: true})
	h.c.SetSpeed(40)
	if v := prefs.NewStore(mem, "").Get(ctx); v.String(prefs.KeyValue) != "40" {
		t.Fatalf("state not persisted: %v", v)
	}

	saving, _ := savingStore(t)
	h = newHarness(t, gatedStore{Store: saving, save: false})
	h.c.SetSpeed(70)
	if v := saving.Get(ctx); v.String(prefs.KeyValue) != "" {
		t.Fatalf("state persisted while saving is off: %v", v)
	}
}

func TestController_StoreFailureDoesNotBlock(t *testing.T) {
	h := newHarness(t, brokenStore{})
	h.c.SetSpeed(10)
	h.c.MouseEnter()
	h.c.MouseLeave()
	if st := h.c.State(); st.Phase != Scrolling || st.Value != 10 {
		t.Fatalf("transitions should survive store failures: %+v", st)
	}
}

func TestController_Restore(t *testing.T) {
	ctx := context.Background()

	t.Run("scrolling", func(t *testing.T) {
		store, _ := savingStore(t)
		_ = store.Set(ctx, map[string]any{prefs.KeyIsScrolling: true, prefs.KeyValue: "70", prefs.KeyLabel: "70%"})
		h := newHarness(t, store)
		st := h.c.Restore(ctx)
		if st.Phase != Scrolling || st.Value != 70 || st.Label != "70%" || h.sched.Active() != 1 {
			t.Fatalf("unexpected restored state: %+v", st)
		}
	})

	t.Run("paused", func(t *testing.T) {
		store, _ := savingStore(t)
		_ = store.Set(ctx, map[string]any{prefs.KeyIsPaused: true, prefs.KeyLabel: LabelHoverPaused, prefs.KeyResumeValue: "45", prefs.KeyResumeLabel: "45%"})
		h := newHarness(t, store)
		st := h.c.Restore(ctx)
		if st.Phase != Paused || h.sched.Active() != 0 {
			t.Fatalf("unexpected restored state: %+v", st)
		}
		h.c.MouseLeave()
		if st := h.c.State(); st.Phase != Scrolling || st.Value != 45 || st.Label != "45%" {
			t.Fatalf("restored pause did not resume: %+v", st)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		mem := prefs.NewMemoryBackend()
		store := prefs.NewStore(mem, "")
		_ = store.Set(ctx, map[string]any{prefs.KeyIsScrolling: true, prefs.KeyValue: "70"})
		h := newHarness(t, store)
		st := h.c.Restore(ctx)
		if st.Phase != Stopped || st.Label != LabelStopped || h.sched.Active() != 0 {
			t.Fatalf("defaults expected when saving is off: %+v", st)
		}
	})
}

func TestController_Close(t *testing.T) {
	h := newHarness(t, nil)
	h.c.SetSpeed(50)
	tick := h.sched.all[0]
	h.c.Close()
	if h.sched.Active() != 0 {
		t.Fatalf("timer not cleared")
	}
	if st := h.c.State(); st.Phase != Stopped || st.Label != LabelStopped {
		t.Fatalf("state not reset: %+v", st)
	}
	tick()
	h.c.SetSpeed(80)
	h.c.Click()
	if st := h.c.State(); st.Phase != Stopped || h.view.Y() != 0 {
		t.Fatalf("closed controller reacted: %+v", st)
	}
}

func TestTickerScheduler(t *testing.T) {
	var n atomic.Int32
	cancel := TickerScheduler{}.Every(time.Millisecond, func() { n.Add(1) })
	deadline := time.Now().Add(2 * time.Second)
	for n.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	cancel()
	if n.Load() < 3 {
		t.Fatalf("ticker fired %d times", n.Load())
	}
	stopped := n.Load()
	time.Sleep(20 * time.Millisecond)
	if n.Load() > stopped+1 {
		t.Fatalf("ticker kept firing after cancel")
	}
}
