// Package scheduler runs processes cooperatively on a single goroutine.
//
// A process is a Resumable driven one segment at a time. Segments of
// different processes interleave round-robin; a process that asks to sleep
// is parked until its wake time and the others keep running meanwhile.
package scheduler

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/coreos/pkg/capnslog"
	"github.com/ztrue/tracerr"
)

var plog = capnslog.NewPackageLogger("github.com/pontaoski/evampp", "scheduler")

// ErrDraining is returned by Drain when a drain is already in progress.
var ErrDraining = stderrors.New("scheduler: drain already in progress")

// Status is the outcome of one segment. A zero Status means the process
// yielded and wants to run again.
type Status struct {
	Done  bool
	Sleep time.Duration
}

// Resumable is a computation that runs up to its next suspension point on
// every Step.
type Resumable interface {
	Name() string
	Step(ctx context.Context) (Status, error)
}

type Process struct {
	ID     int
	Name   string
	Handle Resumable

	wake time.Time
}

func (p *Process) String() string {
	return fmt.Sprintf("#%d (%s)", p.ID, p.Name)
}

// ProcessError is a failure of one segment, labelled with its process.
type ProcessError struct {
	Process *Process
	Err     error
}

func (e ProcessError) Error() string {
	return fmt.Sprintf("process %s: %s", e.Process, e.Err)
}

func (e ProcessError) Unwrap() error {
	return e.Err
}

type Scheduler struct {
	mu       sync.Mutex
	clock    Clock
	lastID   int
	queue    []*Process
	draining bool
}

// New creates a scheduler; a nil clock means wall clock time.
func New(clock Clock) *Scheduler {
	if clock == nil {
		clock = RealClock{}
	}
	return &Scheduler{clock: clock}
}

func (s *Scheduler) Clock() Clock {
	return s.clock
}

// Spawn queues handle as a new process. It does not run it. handle must not
// be nil.
func (s *Scheduler) Spawn(handle Resumable) *Process {
	if handle == nil {
		panic("scheduler: Spawn with nil handle")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	p := &Process{ID: s.lastID, Name: handle.Name(), Handle: handle}
	if p.Name == "" {
		p.Name = strconv.Itoa(p.ID)
	}
	s.queue = append(s.queue, p)

	plog.Debugf("spawned %s", p)
	return p
}

// Queue returns the processes waiting for their first segment.
func (s *Scheduler) Queue() []*Process {
	s.mu.Lock()
	defer s.mu.Unlock()

	ret := make([]*Process, len(s.queue))
	copy(ret, s.queue)
	return ret
}

func (s *Scheduler) take() []*Process {
	s.mu.Lock()
	defer s.mu.Unlock()

	ret := s.queue
	s.queue = nil
	return ret
}

// Drain runs every queued process, and every process spawned while it
// runs, to completion. The first segment error aborts the drain; the
// remaining processes are dropped.
func (s *Scheduler) Drain(ctx context.Context) error {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return tracerr.Wrap(ErrDraining)
	}
	s.draining = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.draining = false
		s.queue = nil
		s.mu.Unlock()
	}()

	var ready, sleeping []*Process
	steps := 0

	for {
		if err := ctx.Err(); err != nil {
			return tracerr.Wrap(err)
		}

		ready = append(ready, s.take()...)

		now := s.clock.Now()
		for len(sleeping) > 0 && !sleeping[0].wake.After(now) {
			ready = append(ready, sleeping[0])
			sleeping = sleeping[1:]
		}

		if len(ready) == 0 {
			if len(sleeping) == 0 {
				plog.Debugf("drain finished after %d segments", steps)
				return nil
			}
			if err := s.clock.Sleep(ctx, sleeping[0].wake.Sub(now)); err != nil {
				return tracerr.Wrap(err)
			}
			continue
		}

		p := ready[0]
		ready = ready[1:]

		status, err := p.Handle.Step(ctx)
		steps++
		if err != nil {
			return tracerr.Wrap(ProcessError{Process: p, Err: err})
		}

		// processes spawned by this segment queue up ahead of p
		ready = append(ready, s.take()...)

		switch {
		case status.Done:
			plog.Debugf("%s finished", p)
		case status.Sleep > 0:
			p.wake = s.clock.Now().Add(status.Sleep)
			sleeping = park(sleeping, p)
			plog.Debugf("%s sleeps for %s", p, status.Sleep)
		default:
			ready = append(ready, p)
		}
	}
}

// park inserts p keeping sleepers ordered by wake time, then spawn order.
func park(sleeping []*Process, p *Process) []*Process {
	i := sort.Search(len(sleeping), func(i int) bool {
		other := sleeping[i]
		if other.wake.Equal(p.wake) {
			return other.ID > p.ID
		}
		return other.wake.After(p.wake)
	})

	sleeping = append(sleeping, nil)
	copy(sleeping[i+1:], sleeping[i:])
	sleeping[i] = p
	return sleeping
}
