package catalog

import "time"

// Ticks is the server's fixed-point time unit: one tick is 100 nanoseconds.
// All position and duration arithmetic in the engine uses ticks; conversion
// to time.Duration happens only at the edges (render primitive, display).
type Ticks int64

const nanosecondsPerTick = 100

// TicksFromDuration converts a duration to ticks.
func TicksFromDuration(d time.Duration) Ticks {
	return Ticks(d.Nanoseconds() / nanosecondsPerTick)
}

// TicksFromSeconds converts whole seconds to ticks.
func TicksFromSeconds(s int64) Ticks {
	return Ticks(s * 10_000_000)
}

// Duration converts ticks to a time.Duration.
func (t Ticks) Duration() time.Duration {
	return time.Duration(int64(t) * nanosecondsPerTick)
}

// Seconds returns the tick count as fractional seconds.
func (t Ticks) Seconds() float64 {
	return float64(t) / 10_000_000
}
