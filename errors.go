package pinger

import (
	"github.com/pkg/errors"
)

var (
	// ErrNoTargets is the usage error if no target host was given.
	ErrNoTargets = errors.New("at least one target host is required")

	// ErrResolution is the error if a host has no usable IPv4 address.
	ErrResolution = errors.New("failed to resolve IPv4 address")

	// ErrInvalidAddress is the error if a resolved address is not an IPv4 address.
	ErrInvalidAddress = errors.New("invalid IPv4 address")

	// ErrSocketCreation is the error if the ICMP socket could not be opened.
	ErrSocketCreation = errors.New("failed to open ICMP socket")

	// ErrSend is the error if an echo request could not be written.
	ErrSend = errors.New("failed to send echo request")

	// ErrTruncated is the error if a received packet is too short for an ICMP header.
	ErrTruncated = errors.New("truncated ICMP message")

	// ErrLaunch is the error if a probing unit could not be run at all.
	ErrLaunch = errors.New("failed to launch prober")

	// ErrUnsupported is the error if the requested socket kind is not available on this platform.
	ErrUnsupported = errors.New("not supported on this platform")

	errInvalidConfig = errors.New("invalid config")
)
