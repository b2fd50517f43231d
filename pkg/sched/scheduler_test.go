// file: pkg/sched/scheduler_test.go

package sched

import "testing"

func newTestScheduler() (*Scheduler, *SimClock) {
	clock := NewSimClock()
	preempt := &PreemptFlag{}
	return NewScheduler(clock, preempt), clock
}

func TestFIFOL3(t *testing.T) {
	s, _ := newTestScheduler()

	a := NewThread(1, "A", 0, 0)
	b := NewThread(2, "B", 0, 0)
	c := NewThread(3, "C", 0, 0)

	s.ReadyToRun(a)
	s.ReadyToRun(b)
	s.ReadyToRun(c)

	got := []string{}
	for _, want := range []*Thread{a, b, c} {
		next := s.FindNextToRun()
		if next != want {
			t.Fatalf("expected %v, got %v", want, next)
		}
		got = append(got, next.Name)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 threads dispatched, got %d", len(got))
	}
}

func TestSJFL1(t *testing.T) {
	s, _ := newTestScheduler()

	t1 := NewThread(1, "T1", 120, 50)
	t2 := NewThread(2, "T2", 110, 20)

	s.ReadyToRun(t1)
	s.ReadyToRun(t2)

	if next := s.FindNextToRun(); next != t2 {
		t.Fatalf("expected T2 (shorter predict) first, got %v", next)
	}
	if next := s.FindNextToRun(); next != t1 {
		t.Fatalf("expected T1 second, got %v", next)
	}
}

func TestL2OrderedByPriority(t *testing.T) {
	s, _ := newTestScheduler()

	low := NewThread(1, "low", 60, 0)
	high := NewThread(2, "high", 90, 0)

	s.ReadyToRun(low)
	s.ReadyToRun(high)

	if next := s.FindNextToRun(); next != high {
		t.Fatalf("expected high priority thread first, got %v", next)
	}
}

func TestAgingPromotionL2toL1(t *testing.T) {
	s, clock := newTestScheduler()

	cur := NewThread(99, "current", 80, 1000)
	s.current = cur

	waiter := NewThread(1, "waiter", 95, 30)
	s.ReadyToRun(waiter)

	clock.Advance(AgingThreshold)
	s.AgingCheck()

	if waiter.Priority != 105 {
		t.Fatalf("expected priority 105 after promotion, got %d", waiter.Priority)
	}
	if waiter.Band() != BandL1 {
		t.Fatalf("expected waiter to have moved to L1, got %v", waiter.Band())
	}
	if len(s.l2) != 0 || len(s.l1) != 1 {
		t.Fatalf("expected waiter to be the sole L1 occupant, l1=%d l2=%d", len(s.l1), len(s.l2))
	}
	if !s.preempt.IsSet() {
		t.Fatalf("expected preempt flag set: current priority %d < 100", cur.Priority)
	}
}

func TestAgingCapsAtMaxPriority(t *testing.T) {
	s, clock := newTestScheduler()

	t1 := NewThread(1, "t1", 145, 0)
	s.ReadyToRun(t1)

	clock.Advance(AgingThreshold)
	s.AgingCheck()

	if t1.Priority != MaxPriority {
		t.Fatalf("expected priority capped at %d, got %d", MaxPriority, t1.Priority)
	}
}

func TestAgingDecrementsWaitByThreshold(t *testing.T) {
	s, clock := newTestScheduler()

	t1 := NewThread(1, "t1", 10, 0)
	s.ReadyToRun(t1)

	clock.Advance(AgingThreshold + 200)
	s.AgingCheck()

	if t1.TimeInReadyQueue != 200 {
		t.Fatalf("expected leftover wait of 200 ticks, got %d", t1.TimeInReadyQueue)
	}
}

func TestL1SJFPreemption(t *testing.T) {
	s, _ := newTestScheduler()

	cur := NewThread(1, "current", 130, 100)
	s.current = cur

	t1 := NewThread(2, "shorter", 140, 10)
	s.ReadyToRun(t1)

	s.PreemptCheckL1()

	if !s.preempt.IsSet() {
		t.Fatalf("expected preempt flag set: L1 thread with shorter predicted burst exists")
	}
}

func TestPreemptCheckL1NoopWhenCurrentNotL1(t *testing.T) {
	s, _ := newTestScheduler()

	cur := NewThread(1, "current", 90, 5)
	s.current = cur

	t1 := NewThread(2, "other", 140, 1)
	s.ReadyToRun(t1)

	s.PreemptCheckL1()

	if s.preempt.IsSet() {
		t.Fatalf("did not expect preempt flag set when current is not in L1")
	}
}

func TestRunReapsLazily(t *testing.T) {
	s, clock := newTestScheduler()

	a := NewThread(1, "A", 10, 0)
	b := NewThread(2, "B", 10, 0)

	s.current = a
	clock.Advance(5)

	switched := false
	s.Run(b, true, func(old, next *Thread) { switched = true })

	if !switched {
		t.Fatalf("expected switchFn to be invoked")
	}
	if s.toDestroy != nil {
		t.Fatalf("expected toDestroy to be reaped by the end of Run")
	}
	if a.Status != Finished {
		t.Fatalf("expected old thread reaped to Finished, got %v", a.Status)
	}
	if s.current != b {
		t.Fatalf("expected current to be %v, got %v", b, s.current)
	}
}

func TestBandOf(t *testing.T) {
	cases := []struct {
		priority int
		want     Band
	}{
		{149, BandL1},
		{100, BandL1},
		{99, BandL2},
		{50, BandL2},
		{49, BandL3},
		{0, BandL3},
	}
	for _, c := range cases {
		if got := BandOf(c.priority); got != c.want {
			t.Errorf("BandOf(%d) = %v, want %v", c.priority, got, c.want)
		}
	}
}

func TestUpdatePredictExponentialAverage(t *testing.T) {
	th := NewThread(1, "t", 50, 100)
	th.UpdatePredict(20)
	if th.PredictTime != 60 {
		t.Fatalf("expected predict 60 (0.5*20+0.5*100), got %d", th.PredictTime)
	}
}

type fakeAddressSpace struct {
	saved, restored bool
}

func (f *fakeAddressSpace) SaveState()    { f.saved = true }
func (f *fakeAddressSpace) RestoreState() { f.restored = true }

type fakeUserState struct {
	saved, restored bool
}

func (f *fakeUserState) Save()    { f.saved = true }
func (f *fakeUserState) Restore() { f.restored = true }

type fakeStackGuard struct {
	checked bool
}

func (f *fakeStackGuard) CheckOverflow() { f.checked = true }

func TestRunSavesAndRestoresUserStateWithAddressSpace(t *testing.T) {
	s, _ := newTestScheduler()

	space := &fakeAddressSpace{}
	user := &fakeUserState{}
	a := NewThread(1, "A", 10, 0)
	a.Space = space
	a.SetUserState(user)
	b := NewThread(2, "B", 10, 0)

	s.current = a
	s.Run(b, false, func(old, next *Thread) {})

	if !space.saved || !user.saved {
		t.Fatalf("expected address space and user state saved on switch away from A: space=%v user=%v", space.saved, user.saved)
	}
	if !space.restored || !user.restored {
		t.Fatalf("expected address space and user state restored once control returns to A: space=%v user=%v", space.restored, user.restored)
	}
}

func TestRunSkipsUserStateWithoutAddressSpace(t *testing.T) {
	s, _ := newTestScheduler()

	user := &fakeUserState{}
	a := NewThread(1, "A", 10, 0)
	a.SetUserState(user) // no Space: original gates Save/RestoreUserState on space != NULL
	b := NewThread(2, "B", 10, 0)

	s.current = a
	s.Run(b, false, func(old, next *Thread) {})

	if user.saved || user.restored {
		t.Fatalf("did not expect user state touched for a thread with no address space")
	}
}

func TestRunChecksOverflowOnOldThread(t *testing.T) {
	s, _ := newTestScheduler()

	guard := &fakeStackGuard{}
	a := NewThread(1, "A", 10, 0)
	a.Guard = guard
	b := NewThread(2, "B", 10, 0)

	s.current = a
	s.Run(b, false, func(old, next *Thread) {})

	if !guard.checked {
		t.Fatalf("expected CheckOverflow called on the thread being switched away from")
	}
}

func TestFinishUpdatesPredictReapsAndDispatchesNext(t *testing.T) {
	s, _ := newTestScheduler()

	a := NewThread(1, "A", 10, 100)
	s.Run(a, false, nil) // bootstrap: A becomes current with no prior thread

	b := NewThread(2, "B", 10, 0)
	s.ReadyToRun(b)
	b = s.FindNextToRun()

	switched := false
	s.Finish(20, b, func(old, next *Thread) { switched = true })

	if !switched {
		t.Fatalf("expected switchFn to be invoked")
	}
	if a.PredictTime != 60 {
		t.Fatalf("expected A's predict updated to 60 (0.5*20+0.5*100), got %d", a.PredictTime)
	}
	if a.Status != Finished {
		t.Fatalf("expected A reaped to Finished after Finish, got %v", a.Status)
	}
	if s.current != b {
		t.Fatalf("expected B dispatched after A finished, got %v", s.current)
	}
	if b.Status != Running {
		t.Fatalf("expected B running, got %v", b.Status)
	}
}

func TestFinishPanicsWithNoCurrentThread(t *testing.T) {
	s, _ := newTestScheduler()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected Finish to panic with no current thread")
		}
	}()
	s.Finish(10, NewThread(1, "x", 0, 0), nil)
}

func TestSleepBlocksUpdatesPredictAndDispatchesNext(t *testing.T) {
	s, _ := newTestScheduler()

	a := NewThread(1, "A", 10, 100)
	s.Run(a, false, nil) // bootstrap: A becomes current with no prior thread

	b := NewThread(2, "B", 10, 0)
	s.ReadyToRun(b)
	b = s.FindNextToRun()

	s.Sleep(40, b, func(old, next *Thread) {})

	if a.Status != Blocked {
		t.Fatalf("expected A blocked after Sleep, got %v", a.Status)
	}
	if a.PredictTime != 70 {
		t.Fatalf("expected A's predict updated to 70 (0.5*40+0.5*100), got %d", a.PredictTime)
	}
	if s.toDestroy != nil {
		t.Fatalf("Sleep must not reap A: a voluntarily blocked thread is still alive")
	}
	if s.current != b {
		t.Fatalf("expected B dispatched after A slept, got %v", s.current)
	}
}

func TestSleepPanicsWithNoCurrentThread(t *testing.T) {
	s, _ := newTestScheduler()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected Sleep to panic with no current thread")
		}
	}()
	s.Sleep(10, NewThread(1, "x", 0, 0), nil)
}
