// Package clock implements a Fischer chess clock: each side owns a countdown
// and earns a bonus increment after every move it completes. The clock ticks
// itself on a background source and announces expiry on the event bus.
package clock

import (
	"sync"
	"time"

	"reversi_server/internal/bus"
)

// TickInterval is the period of the production tick source.
const TickInterval = 100 * time.Millisecond

// Ticker is the injectable tick source. The production implementation runs a
// time.Ticker goroutine; tests drive ticks by hand.
type Ticker interface {
	Start(onTick func(), interval time.Duration)
	Stop()
}

// TimeoutEvent is posted on the bus when a side's time reaches zero.
type TimeoutEvent struct {
	WhiteTimedOut bool
	Clock         *Clock
}

// Clock holds both countdowns. A tick debits only the active side; Swap
// credits the side that just moved, then flips the active side. Once a side
// expires the clock stops for good: it is single-shot per match.
type Clock struct {
	mu        sync.Mutex
	white     time.Duration
	black     time.Duration
	bonus     time.Duration
	whiteTurn bool
	running   bool
	stopped   bool
	expired   bool

	ticker Ticker
	events *bus.Bus
}

// New creates a stopped clock with the given time budget per side. whiteStarts
// selects the side the first tick debits; in Reversi, Black moves first.
func New(initial, bonus time.Duration, whiteStarts bool) *Clock {
	return &Clock{
		white:     initial,
		black:     initial,
		bonus:     bonus,
		whiteTurn: whiteStarts,
		ticker:    newTimeTicker(),
	}
}

// SetTicker replaces the tick source. Call before Start.
func (c *Clock) SetTicker(t Ticker) { c.ticker = t }

// SetEventBus sets the bus that receives TimeoutEvent.
func (c *Clock) SetEventBus(b *bus.Bus) { c.events = b }

// Start begins ticking. Idempotent while running, and a no-op once the clock
// has been stopped or has expired: a clock runs at most once.
func (c *Clock) Start() {
	c.mu.Lock()
	if c.running || c.stopped || c.expired {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.mu.Unlock()
	c.ticker.Start(func() { c.Tick(TickInterval) }, TickInterval)
}

// Stop halts the tick source for good. Idempotent and safe from any
// goroutine; no tick started after Stop returns will fire, and a stopped
// clock never restarts.
func (c *Clock) Stop() {
	c.mu.Lock()
	c.ticker.Stop()
	c.running = false
	c.stopped = true
	c.mu.Unlock()
}

// Tick debits the active side by delta. When the side's remaining time hits
// zero it is clamped, the clock stops permanently, and a TimeoutEvent is
// posted. Exported so a test ticker can drive time deterministically.
func (c *Clock) Tick(delta time.Duration) {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	timedOut := false
	whiteTimedOut := false
	if c.whiteTurn {
		c.white -= delta
		if c.white <= 0 {
			c.white = 0
			timedOut, whiteTimedOut = true, true
		}
	} else {
		c.black -= delta
		if c.black <= 0 {
			c.black = 0
			timedOut, whiteTimedOut = true, false
		}
	}
	if timedOut {
		c.ticker.Stop()
		c.running = false
		c.stopped = true
		c.expired = true
	}
	events := c.events
	c.mu.Unlock()

	// Posted outside the lock: listeners read the clock through the locked
	// accessors.
	if timedOut && events != nil {
		events.Post(TimeoutEvent{WhiteTimedOut: whiteTimedOut, Clock: c})
	}
}

// Swap credits the bonus to the side that just finished its move and flips
// the active side. Called exactly once per accepted move. A no-op once the
// clock has expired; it must not resurrect a dead clock.
func (c *Clock) Swap() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.expired {
		return
	}
	if c.whiteTurn {
		c.white += c.bonus
	} else {
		c.black += c.bonus
	}
	c.whiteTurn = !c.whiteTurn
}

// Flip changes the active side without crediting any bonus. Used when a turn
// passes back because the player to move made no move; only Swap pays the
// Fischer increment, and only to the side that actually moved.
func (c *Clock) Flip() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.expired {
		return
	}
	c.whiteTurn = !c.whiteTurn
}

// WhiteRemaining returns white's remaining time.
func (c *Clock) WhiteRemaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.white
}

// BlackRemaining returns black's remaining time.
func (c *Clock) BlackRemaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.black
}

// Expired reports whether a side has run out of time.
func (c *Clock) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}

// Running reports whether the clock is ticking.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
