package main

import (
	"sync"
	"time"
)

// tickEvent is delivered into the owning hub's event loop once per interval.
// The sequence number identifies the countdown that produced it; the hub
// drops events whose sequence is no longer current, so a countdown that was
// reset or superseded can never eliminate anyone.
type tickEvent struct {
	seq uint64
}

// countdown is the repeating tick source for one turn. It only ever sends
// events; all state lives in the room and is mutated by the hub loop.
type countdown struct {
	stop     chan struct{}
	stopOnce sync.Once
}

func startCountdown(seq uint64, interval time.Duration, out chan<- tickEvent) *countdown {
	c := &countdown{
		stop: make(chan struct{}),
	}
	go c.run(seq, interval, out)
	return c
}

func (c *countdown) run(seq uint64, interval time.Duration, out chan<- tickEvent) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			select {
			case out <- tickEvent{seq: seq}:
			case <-c.stop:
				return
			}
		}
	}
}

// Stop cancels the countdown. Safe to call more than once.
func (c *countdown) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

// Countdown state on the room itself.

// ResetCountdown cancels any running tick source and restores the full turn
// duration. Canceling before starting a new countdown is what prevents a
// stale timer from eliminating a second player.
func (r *Room) ResetCountdown() {
	if r.cdRunner != nil {
		r.cdRunner.Stop()
		r.cdRunner = nil
	}
	r.cdStarted = false
	r.cdRemaining = r.turnSeconds
}

// StartCountdown begins ticking into out. Callers reset first.
func (r *Room) StartCountdown(seq uint64, interval time.Duration, out chan<- tickEvent) {
	if r.cdRunner != nil {
		r.cdRunner.Stop()
	}
	r.cdStarted = true
	r.cdRunner = startCountdown(seq, interval, out)
}

func (r *Room) CountdownStarted() bool {
	return r.cdStarted
}

func (r *Room) CountdownRemaining() int {
	return r.cdRemaining
}

// DecrementCountdown consumes one second and returns the time left.
func (r *Room) DecrementCountdown() int {
	if r.cdRemaining > 0 {
		r.cdRemaining--
	}
	return r.cdRemaining
}
