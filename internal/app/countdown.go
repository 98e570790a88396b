package app

import (
	"sync"
	"time"
)

// Scheduler runs fn every period until the returned cancel func is called.
// cancel must not block on fn, since sessions cancel while holding their lock.
type Scheduler interface {
	Every(period time.Duration, fn func()) (cancel func())
}

// TickerScheduler is the production Scheduler backed by time.Ticker.
type TickerScheduler struct{}

func (TickerScheduler) Every(period time.Duration, fn func()) func() {
	ticker := time.NewTicker(period)
	done := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

// Countdown is the per-question timer. It is not safe for concurrent use;
// the owning session serializes access.
type Countdown struct {
	scheduler Scheduler
	period    time.Duration
	initial   int

	remaining  int
	generation uint64
	cancel     func()
}

func NewCountdown(scheduler Scheduler, period time.Duration, initialSeconds int) *Countdown {
	return &Countdown{
		scheduler: scheduler,
		period:    period,
		initial:   initialSeconds,
		remaining: initialSeconds,
	}
}

// Initial is the configured duration in seconds.
func (c *Countdown) Initial() int {
	return c.initial
}

// Remaining is the number of seconds left.
func (c *Countdown) Remaining() int {
	return c.remaining
}

// Running reports whether a scheduled task is armed.
func (c *Countdown) Running() bool {
	return c.cancel != nil
}

// Set overrides the remaining seconds without touching the schedule (used on restore).
func (c *Countdown) Set(seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	c.remaining = seconds
}

// Reset stops any running task and refills the countdown.
func (c *Countdown) Reset() {
	c.Stop()
	c.remaining = c.initial
}

// Start arms a fresh scheduled task, tearing down any previous one so that
// only one task exists. onTick receives the generation it was armed with.
func (c *Countdown) Start(onTick func(generation uint64)) {
	c.Stop()
	c.generation++
	gen := c.generation
	c.cancel = c.scheduler.Every(c.period, func() { onTick(gen) })
}

// Stop cancels the scheduled task; ticks already in flight become stale.
func (c *Countdown) Stop() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
}

// Tick decrements the countdown for the given generation. It returns
// expired=true exactly once, when the value reaches zero, and stops itself.
// Stale generations are ignored.
func (c *Countdown) Tick(generation uint64) (applied, expired bool) {
	if generation != c.generation || c.cancel == nil {
		return false, false
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining == 0 {
		c.Stop()
		return true, true
	}
	return true, false
}
