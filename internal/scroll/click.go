package scroll

import (
	"math"
	"time"
)

// Defaults for ClickDetector.
const (
	QuickClickDuration = 250 * time.Millisecond
	QuickClickDrift    = 5.0
)

// ClickDetector tells quick clicks apart from drags, long presses and text
// selection. Feed it the press, move and release events of one pointer.
type ClickDetector struct {
	MaxDuration time.Duration
	MaxDrift    float64

	pressed bool
	at      time.Time
	x, y    float64
	dragged bool
}

func (d *ClickDetector) Press(x, y float64, at time.Time) {
	d.pressed = true
	d.at = at
	d.x, d.y = x, y
	d.dragged = false
}

func (d *ClickDetector) Move(x, y float64) {
	if d.pressed && math.Hypot(x-d.x, y-d.y) > d.maxDrift() {
		d.dragged = true
	}
}

// Release ends the gesture and reports whether it was a quick click.
// selecting is true when the user has text selected.
func (d *ClickDetector) Release(x, y float64, at time.Time, selecting bool) bool {
	if !d.pressed {
		return false
	}
	d.Move(x, y)
	d.pressed = false
	if d.dragged || selecting {
		return false
	}
	return at.Sub(d.at) < d.maxDuration()
}

func (d *ClickDetector) maxDuration() time.Duration {
	if d.MaxDuration > 0 {
		return d.MaxDuration
	}
	return QuickClickDuration
}

func (d *ClickDetector) maxDrift() float64 {
	if d.MaxDrift > 0 {
		return d.MaxDrift
	}
	return QuickClickDrift
}
