package scroll

import (
	"fmt"
	"math"
	"time"
)

// TickInterval is the period of the scroll loop.
const TickInterval = 50 * time.Millisecond

// MaxValue is the top of the slider range.
const MaxValue = 100

// Labels shown next to the slider.
const (
	LabelStopped      = "Stopped"
	LabelZero         = "0%"
	LabelEndOfPage    = "0% (End of Page)"
	LabelHoverPaused  = "Hover Paused"
	LabelClickStopped = "Stopped (Click)"
	LabelMaxSpeed     = "Ludicrous Speed!"
)

// PixelsPerTick maps a slider value to the distance scrolled per tick:
// 0 at rest, then (v/100)^2*5 + 0.5, reaching 5.5 at full speed.
func PixelsPerTick(value int) float64 {
	value = clamp(value)
	if value == 0 {
		return 0
	}
	return math.Pow(float64(value)/MaxValue, 2)*5 + 0.5
}

// SpeedLabel is the label for a running scroll at value.
func SpeedLabel(value int) string {
	if clamp(value) == MaxValue {
		return LabelMaxSpeed
	}
	return fmt.Sprintf("%d%%", clamp(value))
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxValue {
		return MaxValue
	}
	return v
}
