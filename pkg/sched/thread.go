// file: pkg/sched/thread.go

package sched

import "fmt"

// Status is a point in a Thread's lifecycle.
type Status int

const (
	JustCreated Status = iota
	Ready
	Running
	Blocked
	Finished
)

func (s Status) String() string {
	switch s {
	case JustCreated:
		return "just-created"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Blocked:
		return "blocked"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

const (
	// MinPriority and MaxPriority bound the priority a Thread may carry.
	MinPriority = 0
	MaxPriority = 149

	// L1Lo/L2Lo are the lower bounds of the L1 and L2 priority bands.
	// Everything below L2Lo falls into L3.
	L1Lo = 100
	L2Lo = 50

	// AgingThreshold is the number of ticks a ready thread must
	// accumulate before it is promoted by 10 priority points.
	AgingThreshold = 1500
	AgingBoost     = 10
)

// Band classifies a priority into one of the three ready queues.
type Band int

const (
	BandL1 Band = iota
	BandL2
	BandL3
)

func (b Band) String() string {
	switch b {
	case BandL1:
		return "L1"
	case BandL2:
		return "L2"
	default:
		return "L3"
	}
}

// BandOf returns the queue a thread of the given priority belongs in.
func BandOf(priority int) Band {
	switch {
	case priority >= L1Lo:
		return BandL1
	case priority >= L2Lo:
		return BandL2
	default:
		return BandL3
	}
}

// UserState is the machine-dependent saved register set for a thread
// with an address space. The scheduler treats it opaquely, calling
// Save/Restore around a switch exactly when it touches the thread's
// AddressSpace (original's SaveUserState/RestoreUserState, gated on
// space != NULL the same way).
type UserState interface {
	Save()
	Restore()
}

// AddressSpace is the out-of-scope collaborator representing a user
// program's virtual memory; Run saves/restores it around a switch
// when present.
type AddressSpace interface {
	SaveState()
	RestoreState()
}

// StackGuard is the out-of-scope collaborator that detects stack
// overflow on a thread's own execution stack (spec.md §4.1 Dispatch,
// "detect stack overflow on current"). Run calls it on the thread
// being switched away from, right before the switch, mirroring
// Thread::CheckOverflow in the original.
type StackGuard interface {
	CheckOverflow()
}

// Thread is the schedulable unit. Fields mirror NachOS's Thread class
// (threads/thread.h) as narrowed to the scheduler's concerns by
// the original filesys/threads split in original_source.
type Thread struct {
	ID   int
	Name string

	Status      Status
	Priority    int
	PredictTime int64

	ReadyStartTime   int64
	TimeInReadyQueue int64
	StartTime        int64

	Space AddressSpace
	Guard StackGuard

	userState UserState

	seq int64 // insertion sequence, breaks ties in L1/L2 comparators
}

// SetUserState attaches the saved-register collaborator populated by
// the simulated CPU. It is opaque to the scheduler beyond Save/Restore.
func (t *Thread) SetUserState(s UserState) {
	t.userState = s
}

// NewThread creates a thread in the just-created state. predictTime is
// the initial burst-time estimate fed to the L1 SJF comparator.
func NewThread(id int, name string, priority int, predictTime int64) *Thread {
	if priority < MinPriority || priority > MaxPriority {
		panic(fmt.Sprintf("sched: priority %d out of range [%d,%d]", priority, MinPriority, MaxPriority))
	}
	if predictTime < 0 {
		panic("sched: predictTime must be non-negative")
	}
	return &Thread{
		ID:          id,
		Name:        name,
		Status:      JustCreated,
		Priority:    priority,
		PredictTime: predictTime,
	}
}

// Band reports the ready queue this thread's current priority maps to.
func (t *Thread) Band() Band {
	return BandOf(t.Priority)
}

// UpdatePredict applies the canonical exponential-average next-burst
// estimator used by SJF: predict := 0.5*actual + 0.5*predict. Called
// when a thread voluntarily blocks (Sleep) or completes (Finish).
func (t *Thread) UpdatePredict(actual int64) {
	t.PredictTime = int64(0.5*float64(actual) + 0.5*float64(t.PredictTime))
}

func (t *Thread) String() string {
	return fmt.Sprintf("Thread(%d:%s prio=%d predict=%d status=%s)", t.ID, t.Name, t.Priority, t.PredictTime, t.Status)
}
