// file: pkg/sched/errors.go

package sched

import "errors"

var (
	ErrNoCurrentThread = errors.New("scheduler: no current thread")
	ErrAlreadyFinished = errors.New("scheduler: thread already marked finished")
	ErrPendingReap     = errors.New("scheduler: toBeDestroyed slot already occupied")
)
