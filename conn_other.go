//go:build !linux

package pinger

import (
	"github.com/pkg/errors"
)

// ListenRaw is only available on Linux.
func ListenRaw() (Conn, error) {
	return nil, errors.Wrap(ErrUnsupported, "raw socket")
}

func socketError(err error) error {
	return errors.Wrap(ErrSocketCreation, err.Error())
}
