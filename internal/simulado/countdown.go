package simulado

import (
	"sync"
	"time"
)

// TickSource delivers the periodic ticks that drive a Countdown.
type TickSource interface {
	C() <-chan time.Time
	Stop()
}

type tickerSource struct {
	t *time.Ticker
}

// NewTickerSource returns a TickSource backed by a time.Ticker.
func NewTickerSource(interval time.Duration) TickSource {
	return &tickerSource{t: time.NewTicker(interval)}
}

func (s *tickerSource) C() <-chan time.Time { return s.t.C }
func (s *tickerSource) Stop()               { s.t.Stop() }

// Countdown counts whole seconds down to zero and reports expiry once.
//
// Callbacks run on the goroutine that delivered the tick and never while the
// countdown's own lock is held, so they may call Stop.
type Countdown struct {
	mu        sync.Mutex
	remaining int
	expired   bool
	stopped   bool

	onTick   func(remaining int)
	onExpire func()

	src      TickSource
	done     chan struct{}
	stopOnce sync.Once
}

// NewCountdown creates a stopped countdown of the given length in seconds.
// Negative lengths are treated as zero. Either callback may be nil.
func NewCountdown(seconds int, onTick func(remaining int), onExpire func()) *Countdown {
	if seconds < 0 {
		seconds = 0
	}
	return &Countdown{
		remaining: seconds,
		onTick:    onTick,
		onExpire:  onExpire,
		done:      make(chan struct{}),
	}
}

// Start consumes ticks from src on a new goroutine until the countdown
// expires or Stop is called. It must be called at most once.
func (c *Countdown) Start(src TickSource) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		src.Stop()
		return
	}
	c.src = src
	c.mu.Unlock()

	go func() {
		for {
			select {
			case <-c.done:
				return
			case <-src.C():
				c.Tick()
			}
		}
	}()
}

// Tick decrements the countdown by one second. Reaching zero marks the
// countdown expired, stops the tick source and fires onExpire. Ticks after
// expiry or Stop are ignored.
func (c *Countdown) Tick() {
	c.mu.Lock()
	if c.stopped || c.expired {
		c.mu.Unlock()
		return
	}
	if c.remaining > 0 {
		c.remaining--
	}
	remaining := c.remaining
	fire := remaining == 0
	if fire {
		c.expired = true
	}
	c.mu.Unlock()

	if c.onTick != nil {
		c.onTick(remaining)
	}
	if fire {
		c.Stop()
		if c.onExpire != nil {
			c.onExpire()
		}
	}
}

// Stop cancels the tick source. It is idempotent and does not wait for the
// ticking goroutine to exit.
func (c *Countdown) Stop() {
	c.mu.Lock()
	c.stopped = true
	src := c.src
	c.mu.Unlock()

	c.stopOnce.Do(func() {
		close(c.done)
		if src != nil {
			src.Stop()
		}
	})
}

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Expired reports whether the countdown reached zero.
func (c *Countdown) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}
