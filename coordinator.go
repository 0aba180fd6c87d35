package octagrow

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gekko3d/octagrow/octa/growth"
)

var ErrJoinTimeout = errors.New("growth worker did not stop in time")

// DefaultJoinTimeout bounds how long Stop waits for the worker.
const DefaultJoinTimeout = 2 * time.Second

type CoordinatorOptions struct {
	// Dt is the simulated seconds per background tick.
	Dt float64
	// Interval paces the worker between ticks. Zero only yields.
	Interval    time.Duration
	JoinTimeout time.Duration
	// Debug turns a join timeout into a panic.
	Debug  bool
	Logger Logger
}

// Coordinator runs a growth engine on one background goroutine. The worker
// only appends placements to the pending batch; the main thread drains it
// and applies it to the authoritative state.
type Coordinator struct {
	engine *growth.Engine
	opts   CoordinatorOptions
	log    Logger

	mu      sync.Mutex
	pending []growth.Placement

	running atomic.Bool
	ticks   atomic.Uint64
	stop    chan struct{}
	done    chan struct{}
}

// NewCoordinator wraps engine. The engine must not be used elsewhere while
// the coordinator is running.
func NewCoordinator(engine *growth.Engine, opts CoordinatorOptions) *Coordinator {
	if opts.Dt <= 0 {
		opts.Dt = 1.0 / 60
	}
	if opts.JoinTimeout <= 0 {
		opts.JoinTimeout = DefaultJoinTimeout
	}
	return &Coordinator{engine: engine, opts: opts, log: orNop(opts.Logger)}
}

// Start launches the worker. It reports false when already running.
func (c *Coordinator) Start() bool {
	if c.done != nil {
		return false
	}
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	c.running.Store(true)
	go c.loop(c.stop, c.done)
	c.log.Debugf("growth worker started (dt=%.4fs, interval=%s)", c.opts.Dt, c.opts.Interval)
	return true
}

func (c *Coordinator) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	var tick <-chan time.Time
	if c.opts.Interval > 0 {
		ticker := time.NewTicker(c.opts.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-stop:
			return
		default:
		}

		placed := c.engine.Tick(c.opts.Dt)
		c.ticks.Add(1)
		if len(placed) > 0 {
			c.mu.Lock()
			c.pending = append(c.pending, placed...)
			c.mu.Unlock()
		}

		if tick == nil {
			runtime.Gosched()
			continue
		}
		select {
		case <-stop:
			return
		case <-tick:
		}
	}
}

// Stop signals the worker and waits for it to exit, discarding anything not
// yet drained. Calling Stop on an idle coordinator is a no-op. If the worker
// does not exit within JoinTimeout, Stop returns ErrJoinTimeout, or panics
// in debug mode; a later Stop waits again.
func (c *Coordinator) Stop() error {
	if c.done == nil {
		return nil
	}
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}

	timer := time.NewTimer(c.opts.JoinTimeout)
	defer timer.Stop()
	select {
	case <-c.done:
	case <-timer.C:
		c.log.Errorf("growth worker did not exit within %s", c.opts.JoinTimeout)
		if c.opts.Debug {
			panic(ErrJoinTimeout)
		}
		return ErrJoinTimeout
	}

	c.done = nil
	c.running.Store(false)
	c.mu.Lock()
	dropped := len(c.pending)
	c.pending = c.pending[:0]
	c.mu.Unlock()
	c.log.Debugf("growth worker stopped after %d ticks, %d placements discarded", c.ticks.Load(), dropped)
	return nil
}

func (c *Coordinator) Running() bool { return c.running.Load() }

// Ticks is the number of engine ticks the worker has completed.
func (c *Coordinator) Ticks() uint64 { return c.ticks.Load() }

// Pending is the size of the undrained batch.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Drain hands the pending batch to the caller and gives the worker spare as
// its next buffer. Pass back the slice returned by the previous Drain once
// it has been applied.
func (c *Coordinator) Drain(spare []growth.Placement) []growth.Placement {
	c.mu.Lock()
	out := c.pending
	c.pending = spare[:0]
	c.mu.Unlock()
	return out
}
