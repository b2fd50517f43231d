// file: cmd/nachos/run.go

package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/allowwidth/NTHU-OperatingSystem2020/pkg/sched"
)

var (
	runThreads int
	runTicks   int
	runSeed    int64
)

// sleepingThread tracks a thread parked by Sleep until its wake tick,
// since nothing else in this demo drives an I/O completion or timer
// that would otherwise call ReadyToRun on its behalf.
type sleepingThread struct {
	thread *sched.Thread
	wake   int64
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive the scheduler with synthetic threads and print its trace",
	Long: "run spawns a handful of synthetic threads with random priorities " +
		"and predicted burst times, then steps the scheduler one simulated " +
		"tick at a time, printing every dispatch, finish, sleep, and " +
		"wake-up. Aging promotions that change a thread's queue appear " +
		"in the scheduler's log on stderr; preemption requests are not printed.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		k, fd, err := openKernel(false)
		if err != nil {
			return err
		}
		defer fd.Close()
		defer k.Halt()

		s := k.Scheduler()
		c := k.Clock()
		out := cmd.OutOrStdout()

		seed := runSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng := rand.New(rand.NewSource(seed))

		threads := make([]*sched.Thread, runThreads)
		s.Lock()
		for i := range threads {
			priority := rng.Intn(sched.MaxPriority + 1)
			predict := int64(rng.Intn(50) + 1)
			t := sched.NewThread(i+1, fmt.Sprintf("thread-%d", i+1), priority, predict)
			threads[i] = t
			s.ReadyToRun(t)
		}
		s.Unlock()

		switchFn := func(old, next *sched.Thread) {
			fmt.Fprintf(out, "tick %d: dispatch -> %s\n", c.Now(), next)
		}

		var sleeping []sleepingThread

		for tick := 0; tick < runTicks; tick++ {
			c.Tick()

			s.Lock()

			awake := sleeping[:0]
			for _, st := range sleeping {
				if c.Now() >= st.wake {
					fmt.Fprintf(out, "tick %d: %s wakes\n", c.Now(), st.thread)
					s.ReadyToRun(st.thread)
					continue
				}
				awake = append(awake, st)
			}
			sleeping = awake

			s.AgingCheck()
			s.PreemptCheckL1()
			next := s.FindNextToRun()
			if next == nil {
				s.Unlock()
				continue
			}

			old := s.Current()
			actualBurst := int64(rng.Intn(50) + 1)
			roll := rng.Float64()

			switch {
			case old != nil && roll < 0.15:
				fmt.Fprintf(out, "tick %d: %s finishes (burst %d)\n", c.Now(), old, actualBurst)
				s.Finish(actualBurst, next, switchFn)
			case old != nil && roll < 0.35:
				wake := c.Now() + int64(rng.Intn(20)+5)
				fmt.Fprintf(out, "tick %d: %s sleeps until tick %d\n", c.Now(), old, wake)
				s.Sleep(actualBurst, next, switchFn)
				sleeping = append(sleeping, sleepingThread{thread: old, wake: wake})
			default:
				s.Run(next, false, switchFn)
				if old != nil {
					s.ReadyToRun(old)
				}
			}
			s.Unlock()
		}

		fmt.Fprintf(out, "finished after %d ticks\n", runTicks)
		return nil
	},
}

func init() {
	runCmd.Flags().IntVar(&runThreads, "threads", 4, "number of synthetic threads to schedule")
	runCmd.Flags().IntVar(&runTicks, "ticks", 20, "number of simulated ticks to run")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "random seed for thread generation (0 picks one from the clock)")
	rootCmd.AddCommand(runCmd)
}
