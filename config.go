package pinger

import (
	"context"
	"net"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// DEFAULT_INTERVAL is the default pause between two probes.
	DEFAULT_INTERVAL = 1 * time.Second

	// DEFAULT_TIMEOUT is the default time to wait for a reply.
	DEFAULT_TIMEOUT = 1030 * time.Millisecond

	// DEFAULT_BUFFER_SIZE is the default size of the receive buffer.
	DEFAULT_BUFFER_SIZE = 1500
)

// LookupFunc resolves host into the text form of an IPv4 address.
type LookupFunc func(ctx context.Context, host string) (string, error)

// LookupIPv4 resolves host with net.DefaultResolver and returns the first IPv4 address.
func LookupIPv4(ctx context.Context, host string) (string, error) {
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		return "", err
	}
	for _, ip := range ips {
		if ip.To4() != nil {
			return ip.String(), nil
		}
	}
	return "", errors.Errorf("no IPv4 address for %s", host)
}

// Config is the settings shared by all probers of a Coordinator.
type Config struct {
	// Interval is the pause after each probe.
	Interval time.Duration

	// Timeout is the total time to wait for the reply of a probe.
	Timeout time.Duration

	// BufferSize is the size of the receive buffer of each prober.
	BufferSize int

	Listen   ListenFunc
	Lookup   LookupFunc
	Clock    clock.Clock
	Reporter Reporter
	Logger   logrus.FieldLogger
}

// DefaultConfig returns a Config that probes every second and reports to stdout.
func DefaultConfig() Config {
	return Config{
		Interval:   DEFAULT_INTERVAL,
		Timeout:    DEFAULT_TIMEOUT,
		BufferSize: DEFAULT_BUFFER_SIZE,
		Listen:     ListenICMP,
		Lookup:     LookupIPv4,
		Clock:      clock.New(),
		Reporter:   NewConsoleReporter(os.Stdout),
		Logger:     logrus.StandardLogger(),
	}
}

// Validate checks values, and fills unset collaborators with defaults.
func (c *Config) Validate() error {
	if c.Interval < 0 {
		return errors.Wrapf(errInvalidConfig, "negative interval: %s", c.Interval)
	}
	if c.Timeout <= 0 {
		return errors.Wrapf(errInvalidConfig, "timeout must be positive: %s", c.Timeout)
	}
	if c.BufferSize < IPv4HeaderLen+EchoHeaderLen {
		return errors.Wrapf(errInvalidConfig, "buffer too small: %d bytes", c.BufferSize)
	}

	def := DefaultConfig()
	if c.Listen == nil {
		c.Listen = def.Listen
	}
	if c.Lookup == nil {
		c.Lookup = def.Lookup
	}
	if c.Clock == nil {
		c.Clock = def.Clock
	}
	if c.Reporter == nil {
		c.Reporter = def.Reporter
	}
	if c.Logger == nil {
		c.Logger = def.Logger
	}
	return nil
}
