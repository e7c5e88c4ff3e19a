package pinger

import (
	"net"
	"os"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/icmp"
)

// Conn is a packet connection that sends and receives ICMP messages.
//
// A Conn is used by only one prober, so implementations don't have to be thread-safe.
type Conn interface {
	WriteTo(b []byte, dst net.Addr) (int, error)
	ReadFrom(b []byte) (int, net.Addr, error)
	SetReadDeadline(t time.Time) error
	Close() error

	// IPHeaderLen returns the length of the network layer header in front of
	// the ICMP message in b, which is a buffer returned by ReadFrom.
	IPHeaderLen(b []byte) int
}

// ListenFunc opens a new Conn.
type ListenFunc func() (Conn, error)

// icmpConn is a Conn on a "ip4:icmp" socket of golang.org/x/net/icmp.
// The Go runtime strips the IPv4 header before returning packets.
type icmpConn struct {
	*icmp.PacketConn
}

// ListenICMP opens a privileged ICMP socket using golang.org/x/net/icmp.
func ListenICMP() (Conn, error) {
	conn, err := icmp.ListenPacket("ip4:icmp", "0.0.0.0")
	if err != nil {
		return nil, socketError(err)
	}
	return icmpConn{conn}, nil
}

func (c icmpConn) IPHeaderLen([]byte) int {
	return 0
}

// rawHeaderLen reads IHL of an IPv4 header.
// IHL below the minimum of 5 words is malformed, and treated as 5.
func rawHeaderLen(b []byte) int {
	if len(b) == 0 || b[0]>>4 != 4 || b[0]&0x0f < 5 {
		return IPv4HeaderLen
	}
	return int(b[0]&0x0f) * 4
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
