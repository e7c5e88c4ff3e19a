// go-echo-pinger is a concurrent ICMP echo prober that pings many hosts until it is stopped.
package pinger

import (
	"context"
	"math/rand"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Coordinator runs one Prober per target host in parallel.
type Coordinator struct {
	conf Config
	stop *StopSignal
	base uint16
}

// NewCoordinator makes a Coordinator whose probers stop when stop is raised.
func NewCoordinator(conf Config, stop *StopSignal) (*Coordinator, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return &Coordinator{
		conf: conf,
		stop: stop,
		base: uint16(rand.Intn(0xffff + 1)),
	}, nil
}

// identifier returns the ICMP identifier of the i-th target.
// Identifiers are unique within a Coordinator for up to 65536 targets.
func (c *Coordinator) identifier(i int) uint16 {
	return c.base + uint16(i)
}

// Run starts a Prober for each host, and waits until all of them stopped.
//
// Cancelling ctx raises the StopSignal, and so does a crashed prober.
// Otherwise the StopSignal is left untouched after Run returns.
// The result of a host is nil if it could not be probed, for example because
// it was not resolved. Those errors are logged and not returned.
// Run returns ErrNoTargets if hosts is empty, and ErrLaunch if a prober crashed.
func (c *Coordinator) Run(ctx context.Context, hosts []string) ([]*Result, error) {
	if len(hosts) == 0 {
		return nil, ErrNoTargets
	}

	results := make([]*Result, len(hosts))

	g, gctx := errgroup.WithContext(ctx)

	watchDone := make(chan struct{})
	watchExited := make(chan struct{})
	defer func() {
		close(watchDone)
		<-watchExited
	}()
	go func() {
		defer close(watchExited)
		select {
		case <-ctx.Done():
			c.stop.Stop()
		case <-watchDone:
		}
	}()

	for i, host := range hosts {
		i, host := i, host

		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = errors.Wrapf(ErrLaunch, "%s: %v", host, r)
					c.conf.Logger.WithField("host", host).WithError(err).Error("prober crashed")
					c.stop.Stop()
				}
			}()

			p, err := NewProber(host, c.identifier(i), c.conf, c.stop)
			if err != nil {
				c.stop.Stop()
				return errors.Wrapf(ErrLaunch, "%s: %s", host, err)
			}

			result, err := p.Run(gctx)
			if err != nil {
				return nil
			}
			results[i] = &result

			return nil
		})
	}

	return results, g.Wait()
}
