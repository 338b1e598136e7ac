// Package jobmgr runs named background jobs with cancellation, lifecycle callbacks
// and in-memory tracking of what is running.
//
// Typical usage:
//
//	jm := jobmgr.NewManager(func(name string, ev jobmgr.Event, err error) {
//	    log.Info().Str("job", name).Str("event", ev.String()).Err(err).Msg("Job")
//	})
//
//	err := jm.StartAsync(ctx, "revert", func(ctx context.Context) error {
//	    // work until ctx is cancelled
//	    return nil
//	})
//
//	// later...
//	jm.StopAll()
//
// Jobs run in their own goroutines and are removed on completion. There is no retry
// and no persistence.
package jobmgr

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrJobRunning    = errors.New("job is already running")
	ErrJobNotRunning = errors.New("job not running")
)

// Event is a job lifecycle stage.
type Event int

const (
	Running Event = iota
	Done
	Failed
)

func (e Event) String() string {
	switch e {
	case Running:
		return "running"
	case Done:
		return "done"
	case Failed:
		return "error"
	}
	return "unknown"
}

// Job is a running unit of work.
type Job struct {
	Name   string
	Cancel context.CancelFunc
	done   chan struct{}
}

// StatusReporter receives lifecycle events. err is set only for Failed.
type StatusReporter func(name string, ev Event, err error)

// Manager starts, stops and tracks jobs. It is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	jobs     map[string]*Job
	wg       sync.WaitGroup
	Reporter StatusReporter
}

// NewManager creates a Manager. reporter may be nil.
func NewManager(reporter StatusReporter) *Manager {
	return &Manager{
		jobs:     make(map[string]*Job),
		Reporter: reporter,
	}
}

// StartAsync runs runner in a new goroutine under a context derived from parent.
// Only one job per name may run at a time.
func (m *Manager) StartAsync(parent context.Context, name string, runner func(ctx context.Context) error) error {
	m.mu.Lock()
	if _, exists := m.jobs[name]; exists {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrJobRunning, name)
	}
	ctx, cancel := context.WithCancel(parent)
	job := &Job{Name: name, Cancel: cancel, done: make(chan struct{})}
	m.jobs[name] = job
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer close(job.done)
		defer cancel()

		m.report(name, Running, nil)
		if err := runner(ctx); err != nil {
			m.report(name, Failed, err)
		} else {
			m.report(name, Done, nil)
		}

		m.mu.Lock()
		if m.jobs[name] == job {
			delete(m.jobs, name)
		}
		m.mu.Unlock()
	}()

	return nil
}

// Stop cancels a running job and waits for it to return.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	job, ok := m.jobs[name]
	if ok {
		delete(m.jobs, name)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotRunning, name)
	}
	job.Cancel()
	<-job.done
	return nil
}

// StopAll cancels every job and waits for all of them.
func (m *Manager) StopAll() {
	m.mu.Lock()
	for name, job := range m.jobs {
		job.Cancel()
		delete(m.jobs, name)
	}
	m.mu.Unlock()
	m.wg.Wait()
}

// Wait blocks until every started job has returned.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// List returns the active job names, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.jobs))
	for k := range m.jobs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Status returns a human-readable summary, e.g. "Running jobs: decay, revert".
func (m *Manager) Status() string {
	active := m.List()
	if len(active) == 0 {
		return "No jobs are running."
	}
	return fmt.Sprintf("Running jobs: %s", strings.Join(active, ", "))
}

func (m *Manager) report(name string, ev Event, err error) {
	if m.Reporter != nil {
		m.Reporter(name, ev, err)
	}
}
