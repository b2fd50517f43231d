// file: kernel/kernel.go

package kernel

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/allowwidth/NTHU-OperatingSystem2020/pkg/clock"
	"github.com/allowwidth/NTHU-OperatingSystem2020/pkg/fsdisk"
	"github.com/allowwidth/NTHU-OperatingSystem2020/pkg/sched"
)

var kernelLog = log.New(os.Stderr, "[kernel] ", log.LstdFlags)

// ErrHalted is returned by every syscall once Halt has been called.
var ErrHalted = fmt.Errorf("kernel: machine halted")

// Kernel wires the scheduler, the file system, the simulated disk and
// the simulated clock together and exposes the syscall surface named
// in spec.md §6: Create, Open, Read, Write, Close, Halt. It plays the
// role the original's Kernel class plays for NachOS's threads and
// userprog/filesys code: a single place that owns every subsystem and
// hands out references instead of global pointers (spec.md §9,
// "replace kernel-> globals with explicit dependency injection").
type Kernel struct {
	disk fsdisk.Disk
	fs   *fsdisk.FileSystem

	sched   *sched.Scheduler
	clock   *clock.Simulated
	preempt *sched.PreemptFlag
	alarm   *clock.Alarm

	halted bool
}

// New mounts fs over disk (formatting it if format is true) and wires
// a fresh scheduler and clock around it.
func New(disk fsdisk.Disk, format bool) (*Kernel, error) {
	fs, err := fsdisk.NewFileSystem(disk, format)
	if err != nil {
		return nil, fmt.Errorf("kernel: mount file system: %w", err)
	}

	c := clock.NewSimulated()
	preempt := &sched.PreemptFlag{}
	s := sched.NewScheduler(c, preempt)

	return &Kernel{disk: disk, fs: fs, sched: s, clock: c, preempt: preempt}, nil
}

// FileSystem exposes the mounted file system directly, for callers
// (cmd/nachos's ls/mkdir/rm/fsck subcommands) that need directory and
// removal operations outside the narrow syscall surface.
func (k *Kernel) FileSystem() *fsdisk.FileSystem { return k.fs }

// Scheduler exposes the scheduler directly, for callers (cmd/nachos's
// run subcommand) driving thread lifecycle operations.
func (k *Kernel) Scheduler() *sched.Scheduler { return k.sched }

// Clock exposes the simulated clock, for tests and the CLI's scripted
// run mode that advances time by hand.
func (k *Kernel) Clock() *clock.Simulated { return k.clock }

// StartAlarm begins driving the scheduler's aging and L1 preemption
// checks off wall-clock time.
func (k *Kernel) StartAlarm(interval time.Duration) {
	k.alarm = clock.NewAlarm(k.clock, k.sched, interval)
	k.alarm.Start()
}

// StopAlarm halts a previously started alarm. It is a no-op if no
// alarm is running.
func (k *Kernel) StopAlarm() {
	if k.alarm != nil {
		k.alarm.Stop()
		k.alarm = nil
	}
}

// Create implements the Create syscall: make a new fixed-size file.
func (k *Kernel) Create(path string, initialSize int) error {
	if k.halted {
		return ErrHalted
	}
	return k.fs.Create(path, initialSize)
}

// Open implements the Open syscall, returning a descriptor usable with
// Read/Write/Close.
func (k *Kernel) Open(path string) (fsdisk.OpenFileId, error) {
	if k.halted {
		return 0, ErrHalted
	}
	return k.fs.OpenID(path)
}

// Read implements the Read syscall.
func (k *Kernel) Read(id fsdisk.OpenFileId, buf []byte) (int, error) {
	if k.halted {
		return 0, ErrHalted
	}
	return k.fs.ReadID(id, buf)
}

// Write implements the Write syscall.
func (k *Kernel) Write(id fsdisk.OpenFileId, buf []byte) (int, error) {
	if k.halted {
		return 0, ErrHalted
	}
	return k.fs.WriteID(id, buf)
}

// Close implements the Close syscall.
func (k *Kernel) Close(id fsdisk.OpenFileId) error {
	if k.halted {
		return ErrHalted
	}
	return k.fs.CloseID(id)
}

// Remove deletes the leaf at path. It is not one of the original's
// user-level syscalls on its own (Remove there is reached through the
// shell, not a trap) but is exposed here for the CLI.
func (k *Kernel) Remove(path string) error {
	if k.halted {
		return ErrHalted
	}
	return k.fs.Remove(path)
}

// Halt stops accepting further syscalls and releases the alarm, the
// way the original's Halt syscall stops the machine.
func (k *Kernel) Halt() {
	if k.halted {
		return
	}
	kernelLog.Printf("halt requested")
	k.StopAlarm()
	k.halted = true
}

// Halted reports whether Halt has been called.
func (k *Kernel) Halted() bool { return k.halted }
