package scroll

import (
	"sync"
	"time"
)

// bottomSlack is how close to the end of the document counts as the end.
const bottomSlack = 2

// Metrics is a snapshot of the scroll position and the document size. The
// document height is the largest of the six height measurements a browser
// reports, which disagree depending on layout mode.
type Metrics struct {
	ScrollY        float64
	ViewportHeight float64

	BodyScrollHeight float64
	DocScrollHeight  float64
	BodyOffsetHeight float64
	DocOffsetHeight  float64
	BodyClientHeight float64
	DocClientHeight  float64
}

func (m Metrics) DocumentHeight() float64 {
	h := m.BodyScrollHeight
	for _, v := range []float64{m.DocScrollHeight, m.BodyOffsetHeight, m.DocOffsetHeight, m.BodyClientHeight, m.DocClientHeight} {
		if v > h {
			h = v
		}
	}
	return h
}

// AtBottom reports whether the viewport reaches within two pixels of the end
// of the document.
func (m Metrics) AtBottom() bool {
	return m.ScrollY+m.ViewportHeight >= m.DocumentHeight()-bottomSlack
}

// Viewport is the scrollable surface the controller drives.
type Viewport interface {
	Metrics() Metrics
	ScrollBy(dy float64)
}

// Scheduler runs fn every d until the returned cancel func is called.
type Scheduler interface {
	Every(d time.Duration, fn func()) (cancel func())
}

// TickerScheduler runs callbacks from a time.Ticker goroutine.
type TickerScheduler struct{}

func (TickerScheduler) Every(d time.Duration, fn func()) func() {
	t := time.NewTicker(d)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-t.C:
				fn()
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			t.Stop()
			close(done)
		})
	}
}
