package dispatch

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacityExceeded means Submit was called without a free slot. Callers
	// must AwaitCapacity first; hitting this is a programming error.
	ErrCapacityExceeded = errors.New("dispatcher capacity exceeded")
	// ErrLaunch is matched by every *LaunchError.
	ErrLaunch = errors.New("job launch failed")
)

// LaunchError is returned by Submit when the process could not be started at
// all (missing executable, permissions).
type LaunchError struct {
	Job Job
	Err error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Job.Program, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

func (e *LaunchError) Is(target error) bool { return target == ErrLaunch }

// JobError records a job that exited with a non-zero or abnormal status.
type JobError struct {
	Job      Job
	ExitCode int // -1 when killed by a signal
	Output   string
	Err      error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("%s: %v", e.Job.label(), e.Err)
}

func (e *JobError) Unwrap() error { return e.Err }
