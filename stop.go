package pinger

import (
	"os"
	"os/signal"
	"sync"

	"go.uber.org/atomic"
)

// StopSignal is a flag that is raised only once and never cleared.
//
// Probers poll it between iterations. It is safe for concurrent use.
type StopSignal struct {
	stopped *atomic.Bool
	once    sync.Once
	done    chan struct{}
}

// NewStopSignal makes a new cleared StopSignal.
func NewStopSignal() *StopSignal {
	return &StopSignal{
		stopped: atomic.NewBool(false),
		done:    make(chan struct{}),
	}
}

// Stop raises the flag. Calling it more than once has no effect.
func (s *StopSignal) Stop() {
	s.once.Do(func() {
		s.stopped.Store(true)
		close(s.done)
	})
}

// Stopped returns true if Stop was called.
func (s *StopSignal) Stopped() bool {
	return s.stopped.Load()
}

// Done returns a channel that is closed when Stop is called.
func (s *StopSignal) Done() <-chan struct{} {
	return s.done
}

// Notify raises the flag when the process receives one of sigs.
//
// The returned function stops watching signals. It is safe to call it after
// the flag was raised. Nothing is watched if sigs is empty.
func (s *StopSignal) Notify(sigs ...os.Signal) (release func()) {
	if len(sigs) == 0 {
		return func() {}
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)

	quit := make(chan struct{})
	go func() {
		select {
		case <-ch:
			s.Stop()
		case <-s.done:
		case <-quit:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(quit)
		})
	}
}
