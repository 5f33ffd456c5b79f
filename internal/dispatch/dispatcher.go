// Package dispatch runs external processes under a fixed concurrency limit.
//
// The caller drives everything from one goroutine: AwaitCapacity, then Submit,
// repeated, then Drain. Each started process is reaped by its own waiter which
// records the exit status and frees the slot, so the caller never blocks on an
// individual job. Failed jobs are recorded and never retried or killed.
package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"
)

// Observer receives job lifecycle events. Calls happen from the submitting
// goroutine (start) and from waiter goroutines (finish).
type Observer interface {
	JobStarted(job Job)
	JobFinished(job Job, elapsed time.Duration, err error)
}

// Stats is a snapshot of the dispatcher counters.
type Stats struct {
	Submitted int
	Succeeded int
	Failed    int
	Live      int
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for failure diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// WithObserver attaches an Observer.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) { d.obs = o }
}

// Dispatcher is a capacity-limited pool of external processes.
type Dispatcher struct {
	capacity int
	slots    *semaphore.Weighted
	log      zerolog.Logger
	obs      Observer

	mu       sync.Mutex
	live     map[uint64]*process
	nextID   uint64
	stats    Stats
	failures error
}

type process struct {
	id      uint64
	job     Job
	cmd     *exec.Cmd
	out     bytes.Buffer
	started time.Time
}

// New creates a dispatcher that runs at most capacity processes at once.
func New(capacity int, opts ...Option) (*Dispatcher, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("dispatcher capacity must be at least 1, got %d", capacity)
	}
	d := &Dispatcher{
		capacity: capacity,
		slots:    semaphore.NewWeighted(int64(capacity)),
		log:      zerolog.Nop(),
		live:     make(map[uint64]*process, capacity),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Capacity returns the configured concurrency limit.
func (d *Dispatcher) Capacity() int { return d.capacity }

// Submit starts the job and returns without waiting for it. It fails with
// ErrCapacityExceeded when every slot is taken and with a *LaunchError when
// the process cannot be started; neither affects jobs already running.
func (d *Dispatcher) Submit(job Job) error {
	if !d.slots.TryAcquire(1) {
		return fmt.Errorf("%w: %d of %d slots in use", ErrCapacityExceeded, d.Live(), d.capacity)
	}

	p := &process{job: job}
	p.cmd = exec.Command(job.Program, job.Args...)
	p.cmd.Stdout = &p.out
	p.cmd.Stderr = &p.out

	if err := p.cmd.Start(); err != nil {
		d.slots.Release(1)
		return &LaunchError{Job: job, Err: err}
	}
	p.started = time.Now()

	d.mu.Lock()
	p.id = d.nextID
	d.nextID++
	d.live[p.id] = p
	d.stats.Submitted++
	d.mu.Unlock()

	if d.obs != nil {
		d.obs.JobStarted(job)
	}
	go d.reap(p)
	return nil
}

// reap waits for one process, records its outcome and frees its slot. The
// slot is released last so that a returning AwaitCapacity sees the outcome.
func (d *Dispatcher) reap(p *process) {
	waitErr := p.cmd.Wait()
	elapsed := time.Since(p.started)

	var failure *JobError
	if waitErr != nil {
		failure = &JobError{
			Job:      p.job,
			ExitCode: exitCode(p.cmd, waitErr),
			Output:   p.out.String(),
			Err:      waitErr,
		}
	}

	d.mu.Lock()
	delete(d.live, p.id)
	if failure != nil {
		d.stats.Failed++
		d.failures = multierr.Append(d.failures, failure)
	} else {
		d.stats.Succeeded++
	}
	d.mu.Unlock()

	var err error
	if failure != nil {
		err = failure
		d.log.Error().
			Str("job", p.job.label()).
			Int("exit_code", failure.ExitCode).
			Str("output", failure.Output).
			Msgf("[!] %s завершился с ошибкой", p.job.Program)
	} else {
		d.log.Debug().Str("job", p.job.label()).Dur("elapsed", elapsed).Msg("[>] Готово")
	}
	if d.obs != nil {
		d.obs.JobFinished(p.job, elapsed, err)
	}
	if p.job.OnComplete != nil {
		p.job.OnComplete(err)
	}

	d.slots.Release(1)
}

func exitCode(cmd *exec.Cmd, err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	return -1
}

// AwaitCapacity blocks until at least minFree slots are free. The context only
// bounds the wait; running jobs are never cancelled.
func (d *Dispatcher) AwaitCapacity(ctx context.Context, minFree int) error {
	if minFree < 0 || minFree > d.capacity {
		return fmt.Errorf("cannot wait for %d free slots with capacity %d", minFree, d.capacity)
	}
	if minFree == 0 {
		return nil
	}
	if err := d.slots.Acquire(ctx, int64(minFree)); err != nil {
		return err
	}
	d.slots.Release(int64(minFree))
	return nil
}

// Drain blocks until every submitted job has been reaped.
func (d *Dispatcher) Drain(ctx context.Context) error {
	return d.AwaitCapacity(ctx, d.capacity)
}

// HadFailure reports whether any reaped job failed since creation.
func (d *Dispatcher) HadFailure() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats.Failed > 0
}

// Failures returns every recorded *JobError combined into one error, or nil.
// Use multierr.Errors to split it.
func (d *Dispatcher) Failures() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.failures
}

// Live returns the number of jobs not yet reaped.
func (d *Dispatcher) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

// Stats returns a snapshot of the counters.
func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.stats
	s.Live = len(d.live)
	return s
}
