//go:build linux

package pinger

import (
	"net"
	"os"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// rawConn is a Conn on a SOCK_RAW socket.
// Unlike icmpConn, received packets keep their IPv4 header.
type rawConn struct {
	fd       int
	deadline time.Time
}

// ListenRaw opens a raw ICMP socket that delivers packets with their IPv4 header.
func ListenRaw() (Conn, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.IPPROTO_ICMP)
	if err != nil {
		return nil, socketError(os.NewSyscallError("socket", err))
	}
	return &rawConn{fd: fd}, nil
}

func (c *rawConn) WriteTo(b []byte, dst net.Addr) (int, error) {
	addr, ok := dst.(*net.IPAddr)
	if !ok || addr.IP.To4() == nil {
		return 0, errors.Wrapf(ErrInvalidAddress, "%v", dst)
	}

	sa := &unix.SockaddrInet4{}
	copy(sa.Addr[:], addr.IP.To4())

	if err := unix.Sendto(c.fd, b, 0, sa); err != nil {
		return 0, os.NewSyscallError("sendto", err)
	}
	return len(b), nil
}

func (c *rawConn) ReadFrom(b []byte) (int, net.Addr, error) {
	for {
		if !c.deadline.IsZero() {
			remain := time.Until(c.deadline)
			if remain <= 0 {
				return 0, nil, os.ErrDeadlineExceeded
			}
			tv := unix.NsecToTimeval(remain.Nanoseconds())
			if err := unix.SetsockoptTimeval(c.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
				return 0, nil, os.NewSyscallError("setsockopt", err)
			}
		}

		n, from, err := unix.Recvfrom(c.fd, b, 0)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
			return 0, nil, os.ErrDeadlineExceeded
		case err != nil:
			return 0, nil, os.NewSyscallError("recvfrom", err)
		}

		var addr net.Addr
		if sa, ok := from.(*unix.SockaddrInet4); ok {
			ip := make(net.IP, net.IPv4len)
			copy(ip, sa.Addr[:])
			addr = &net.IPAddr{IP: ip}
		}
		return n, addr, nil
	}
}

func (c *rawConn) SetReadDeadline(t time.Time) error {
	c.deadline = t
	return nil
}

func (c *rawConn) Close() error {
	return unix.Close(c.fd)
}

func (c *rawConn) IPHeaderLen(b []byte) int {
	return rawHeaderLen(b)
}

func socketError(err error) error {
	if errors.Is(err, unix.EPERM) || errors.Is(err, unix.EACCES) {
		return errors.Wrapf(ErrSocketCreation, "%s (raw sockets need root or CAP_NET_RAW)", err)
	}
	return errors.Wrap(ErrSocketCreation, err.Error())
}
