package octagrow

import (
	"time"
)

// Clock tracks render-frame time on the main thread.
type Clock struct {
	Time  time.Time
	Dt    time.Duration
	Frame uint64
}

func NewClock() *Clock {
	return &Clock{Time: time.Now()}
}

// Tick advances to now and returns the frame delta.
func (c *Clock) Tick() time.Duration {
	now := time.Now()
	c.Dt = now.Sub(c.Time)
	c.Time = now
	c.Frame++
	return c.Dt
}

// Seconds is Dt in seconds.
func (c *Clock) Seconds() float64 { return c.Dt.Seconds() }

// FixedStep paces a loop at a steady rate, accumulating real time between calls.
type FixedStep struct {
	step        time.Duration
	accumulator time.Duration
	last        time.Time
}

// NewFixedStep targets tps ticks per second; non-positive values mean 60.
func NewFixedStep(tps int) *FixedStep {
	f := &FixedStep{}
	f.SetTPS(tps)
	f.accumulator = f.step
	return f
}

func (f *FixedStep) SetTPS(tps int) {
	if tps <= 0 {
		tps = 60
	}
	f.step = time.Second / time.Duration(tps)
}

// Step is the duration of one tick.
func (f *FixedStep) Step() time.Duration { return f.step }

// ShouldStep reports whether a tick is due and consumes it.
func (f *FixedStep) ShouldStep() bool {
	now := time.Now()
	if f.last.IsZero() {
		f.last = now
	}
	f.accumulator += now.Sub(f.last)
	f.last = now
	if f.accumulator >= f.step {
		f.accumulator -= f.step
		return true
	}
	return false
}
