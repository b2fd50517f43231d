// file: pkg/sched/scheduler.go

package sched

import (
	"log"
	"os"
	"sync"
)

var schedLog = log.New(os.Stderr, "[sched] ", log.LstdFlags)

// SwitchFunc is the machine-dependent context-switch primitive named
// in spec.md §6: it saves machine state into old, restores it from
// new, and returns only when some later thread switches back to old.
// It is supplied by the out-of-scope simulated-CPU collaborator.
type SwitchFunc func(old, new *Thread)

// Scheduler implements the multilevel-feedback discipline of spec.md
// §4.1: L1 SJF-preemptive, L2 priority non-preemptive, L3 FIFO
// round-robin. Every exported method other than the constructor
// assumes the caller holds the scheduler's lock, standing in for
// "interrupts disabled" in the original uniprocessor design (spec.md
// §5 and §9: "a multi-threaded reimplementation MUST add a lock").
type Scheduler struct {
	mu sync.Mutex

	l1 []*Thread // sorted by ascending PredictTime, ties by insertion
	l2 []*Thread // sorted by descending Priority, ties by insertion
	l3 []*Thread // strict FIFO

	current   *Thread
	toDestroy *Thread

	clock   Clock
	preempt *PreemptFlag

	nextSeq int64
}

// NewScheduler wires a Scheduler to its tick source and shared
// preemption flag, per spec.md §9's dependency-injection guidance.
func NewScheduler(clock Clock, preempt *PreemptFlag) *Scheduler {
	return &Scheduler{clock: clock, preempt: preempt}
}

// Lock/Unlock expose the scheduler's mutual-exclusion to callers that
// must bracket a sequence of scheduler calls (ReadyToRun followed by
// FindNextToRun followed by Run) as a single atomic step, the way the
// original bracketed everything with interrupts disabled.
func (s *Scheduler) Lock()   { s.mu.Lock() }
func (s *Scheduler) Unlock() { s.mu.Unlock() }

// Current returns the thread presently occupying the CPU, or nil.
func (s *Scheduler) Current() *Thread {
	return s.current
}

// ReadyToRun classifies t by its current priority band and inserts it
// into the matching queue, stamping ReadyStartTime. Precondition: the
// caller holds the scheduler lock.
func (s *Scheduler) ReadyToRun(t *Thread) {
	t.Status = Ready
	t.ReadyStartTime = s.clock.Now()
	t.seq = s.nextSeq
	s.nextSeq++

	switch t.Band() {
	case BandL1:
		s.l1 = insertSorted(s.l1, t, lessL1)
		schedLog.Printf("tick %d: thread %d inserted into L1", s.clock.Now(), t.ID)
	case BandL2:
		s.l2 = insertSorted(s.l2, t, lessL2)
		schedLog.Printf("tick %d: thread %d inserted into L2", s.clock.Now(), t.ID)
	default:
		s.l3 = append(s.l3, t)
		schedLog.Printf("tick %d: thread %d inserted into L3", s.clock.Now(), t.ID)
	}
}

// lessL1 orders L1 by non-decreasing PredictTime, ties by insertion
// order (spec.md §4.1, "L1 ordering").
func lessL1(a, b *Thread) bool {
	if a.PredictTime != b.PredictTime {
		return a.PredictTime < b.PredictTime
	}
	return a.seq < b.seq
}

// lessL2 orders L2 by non-increasing Priority, ties by insertion order
// (spec.md §4.1, "L2 ordering").
func lessL2(a, b *Thread) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.seq < b.seq
}

// insertSorted inserts t into a slice kept sorted by less, preserving
// existing order among elements that compare equal.
func insertSorted(list []*Thread, t *Thread, less func(a, b *Thread) bool) []*Thread {
	i := 0
	for i < len(list) && less(list[i], t) {
		i++
	}
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = t
	return list
}

func removeAt(list []*Thread, i int) []*Thread {
	copy(list[i:], list[i+1:])
	return list[:len(list)-1]
}

func indexOf(list []*Thread, t *Thread) int {
	for i, x := range list {
		if x == t {
			return i
		}
	}
	return -1
}

// FindNextToRun removes and returns the highest-class ready thread:
// L1 before L2 before L3 (spec.md §4.1, §8 "top of the selection
// precedence"). Returns nil if every queue is empty.
func (s *Scheduler) FindNextToRun() *Thread {
	now := s.clock.Now()

	if len(s.l1) > 0 {
		t := s.l1[0]
		s.l1 = removeAt(s.l1, 0)
		t.TimeInReadyQueue += now - t.ReadyStartTime
		schedLog.Printf("tick %d: thread %d removed from L1", now, t.ID)
		return t
	}
	if len(s.l2) > 0 {
		t := s.l2[0]
		s.l2 = removeAt(s.l2, 0)
		t.TimeInReadyQueue += now - t.ReadyStartTime
		schedLog.Printf("tick %d: thread %d removed from L2", now, t.ID)
		return t
	}
	if len(s.l3) > 0 {
		t := s.l3[0]
		s.l3 = removeAt(s.l3, 0)
		t.TimeInReadyQueue += now - t.ReadyStartTime
		schedLog.Printf("tick %d: thread %d removed from L3", now, t.ID)
		return t
	}
	return nil
}

// Run dispatches the CPU to next, following spec.md §4.1 "Dispatch".
// switchFn is the machine-dependent context-switch primitive; it
// returns only once some later thread switches back to the thread
// that was current when Run was called.
func (s *Scheduler) Run(next *Thread, finishing bool, switchFn SwitchFunc) {
	old := s.current

	if finishing {
		if s.toDestroy != nil {
			panic(ErrPendingReap)
		}
		s.toDestroy = old
	}

	if old != nil && old.Space != nil {
		if old.userState != nil {
			old.userState.Save()
		}
		old.Space.SaveState()
	}
	if old != nil && old.Guard != nil {
		old.Guard.CheckOverflow()
	}

	s.current = next
	next.Status = Running
	next.StartTime = s.clock.Now()

	schedLog.Printf("tick %d: switching from %v to %v", s.clock.Now(), old, next)

	if switchFn != nil {
		switchFn(old, next)
	}

	// Control returns here once some later thread switches back to
	// `old`. We are now "running" as `old` again from the caller's
	// point of view; reap whatever was pending from that run.
	s.CheckToBeDestroyed()

	if old != nil && old.Space != nil {
		if old.userState != nil {
			old.userState.Restore()
		}
		old.Space.RestoreState()
	}
}

// CheckToBeDestroyed reaps the thread parked in toDestroy, per
// spec.md §4.1 "Lazy reaping": a thread cannot free its own stack
// while executing on it, so the *next* thread to run destroys it.
func (s *Scheduler) CheckToBeDestroyed() {
	if s.toDestroy != nil {
		s.toDestroy.Status = Finished
		s.toDestroy = nil
	}
}

// AgingCheck applies spec.md §4.1 "Aging" to L1, L2, L3 in that order.
func (s *Scheduler) AgingCheck() {
	s.age(&s.l1, BandL1)
	s.age(&s.l2, BandL2)
	s.age(&s.l3, BandL3)
}

// age walks one queue, promoting any thread that has waited at least
// AgingThreshold ticks, logs promotions that cross a band, and checks
// after every promotion whether to signal preemption, per spec.md
// §4.1 steps 1-5.
func (s *Scheduler) age(queue *[]*Thread, from Band) {
	now := s.clock.Now()

	// Snapshot indices to promote; mutating *queue while iterating it
	// would skip or double-visit entries.
	var promote []*Thread
	for _, t := range *queue {
		waited := now - t.ReadyStartTime + t.TimeInReadyQueue
		if t.Priority < MaxPriority+1 && waited >= AgingThreshold {
			promote = append(promote, t)
		}
	}

	for _, t := range promote {
		waited := now - t.ReadyStartTime + t.TimeInReadyQueue
		old := t.Priority

		t.TimeInReadyQueue = waited - AgingThreshold
		t.ReadyStartTime = now
		t.Priority = old + AgingBoost
		if t.Priority > MaxPriority {
			t.Priority = MaxPriority
		}

		i := indexOf(*queue, t)
		if i >= 0 {
			*queue = removeAt(*queue, i)
		}

		newBand := t.Band()
		switch newBand {
		case BandL1:
			s.l1 = insertSorted(s.l1, t, lessL1)
		case BandL2:
			s.l2 = insertSorted(s.l2, t, lessL2)
		default:
			s.l3 = append(s.l3, t)
		}

		if newBand != from {
			schedLog.Printf("tick %d: thread %d promoted %d->%d, moved %s->%s", now, t.ID, old, t.Priority, from, newBand)
		}

		s.signalPromotionPreempt(newBand, t)
	}
}

// signalPromotionPreempt implements spec.md §4.1 step 5: preemption
// signalling after a promotion lands a thread in L1 or L2.
func (s *Scheduler) signalPromotionPreempt(band Band, t *Thread) {
	cur := s.current
	if cur == nil {
		return
	}
	switch band {
	case BandL1:
		if cur.Priority < L1Lo || (cur.Priority >= L1Lo && cur.PredictTime > t.PredictTime) {
			s.preempt.Set()
		}
	case BandL2:
		if cur.Priority < L2Lo {
			s.preempt.Set()
		}
	}
}

// PreemptCheckL1 implements spec.md §4.1 "Explicit L1 preemption
// poll": independent of aging, scan L1 for a thread with a shorter
// predicted burst than the current thread and request a preemption.
func (s *Scheduler) PreemptCheckL1() {
	cur := s.current
	if cur == nil || cur.Priority < L1Lo {
		return
	}
	for _, t := range s.l1 {
		if cur.PredictTime > t.PredictTime {
			s.preempt.Set()
			return
		}
	}
}

// Finish marks the current thread as finishing and hands the CPU to
// next, reaping the current thread lazily once next is dispatched.
// It mirrors Thread::Finish + Scheduler::Run(next, true) in the
// original.
func (s *Scheduler) Finish(actualBurst int64, next *Thread, switchFn SwitchFunc) {
	if s.current == nil {
		panic(ErrNoCurrentThread)
	}
	s.current.UpdatePredict(actualBurst)
	s.Run(next, true, switchFn)
}

// Sleep moves the current thread to blocked (the caller is
// responsible for arranging its eventual wakeup via ReadyToRun) and
// dispatches next. Burst-time estimation updates here too, matching
// the original's Thread::Sleep call to the same predictor used by
// Thread::Finish (see original_source NachOS-4.0_MP3 thread lifecycle).
func (s *Scheduler) Sleep(actualBurst int64, next *Thread, switchFn SwitchFunc) {
	if s.current == nil {
		panic(ErrNoCurrentThread)
	}
	s.current.Status = Blocked
	s.current.UpdatePredict(actualBurst)
	s.Run(next, false, switchFn)
}

// Yield puts the current thread back on the ready list matching its
// (possibly unchanged) band and dispatches whatever FindNextToRun
// returns. It is the operation the timer ISR invokes when PreemptFlag
// is set (spec.md §5 "Preemption semantics").
func (s *Scheduler) Yield(switchFn SwitchFunc) {
	cur := s.current
	if cur == nil {
		return
	}
	s.ReadyToRun(cur)
	next := s.FindNextToRun()
	if next == nil {
		// Fallback only: cur was just queued, so FindNextToRun
		// returns cur itself when nothing else is ready.
		next = s.FindNextToRunOrSelf(cur)
	}
	s.Run(next, false, switchFn)
}

// FindNextToRunOrSelf removes self from whichever queue ReadyToRun
// just placed it in and returns it. Yield calls it only if
// FindNextToRun returns nil.
func (s *Scheduler) FindNextToRunOrSelf(self *Thread) *Thread {
	for _, q := range []*[]*Thread{&s.l1, &s.l2, &s.l3} {
		if i := indexOf(*q, self); i >= 0 {
			*q = removeAt(*q, i)
			return self
		}
	}
	return self
}
