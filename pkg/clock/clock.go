// file: pkg/clock/clock.go

package clock

import (
	"sync"
	"time"

	"github.com/allowwidth/NTHU-OperatingSystem2020/pkg/sched"
)

// Simulated is a free-running tick counter standing in for the
// original's hardware timer interrupt: nothing in a single-process
// simulator generates real clock interrupts, so something has to
// advance time explicitly. It satisfies sched.Clock.
type Simulated struct {
	mu    sync.Mutex
	ticks int64
}

// NewSimulated returns a clock starting at tick 0.
func NewSimulated() *Simulated {
	return &Simulated{}
}

// Now reports the current tick count.
func (c *Simulated) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

// Tick advances the clock by one and returns the new value.
func (c *Simulated) Tick() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks++
	return c.ticks
}

// Alarm drives a Scheduler's periodic bookkeeping — aging and the
// independent SJF preemption poll — off a wall-clock time.Ticker, for
// callers that do not advance the simulated clock by hand. The CLI's
// "run" subcommand ticks the clock itself and does not start an
// Alarm. There is no original_source
// counterpart (no alarm.cc/timer.cc was retrieved alongside
// scheduler.cc); the aging/preempt calls it drives are exactly
// scheduler.cc's own.
type Alarm struct {
	clock    *Simulated
	sched    *sched.Scheduler
	interval time.Duration

	stop chan struct{}
	done chan struct{}
}

// NewAlarm builds an alarm that ticks clock and runs the scheduler's
// aging and preemption checks every interval.
func NewAlarm(clock *Simulated, s *sched.Scheduler, interval time.Duration) *Alarm {
	return &Alarm{clock: clock, sched: s, interval: interval}
}

// Start launches the ticking goroutine. Stop must be called to release
// it.
func (a *Alarm) Start() {
	a.stop = make(chan struct{})
	a.done = make(chan struct{})
	go a.run()
}

func (a *Alarm) run() {
	defer close(a.done)
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			a.clock.Tick()
			a.sched.Lock()
			a.sched.AgingCheck()
			a.sched.PreemptCheckL1()
			a.sched.Unlock()
		}
	}
}

// Stop halts the ticking goroutine and waits for it to exit.
func (a *Alarm) Stop() {
	if a.stop == nil {
		return
	}
	close(a.stop)
	<-a.done
}
