package pinger

import (
	"context"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/ipv4"
)

// fakePacket is a packet that arrives delay after the previous read.
type fakePacket struct {
	delay time.Duration
	data  []byte
}

// fakeConn is an in-memory Conn that honours read deadlines on a mock clock.
// Received packets are prefixed with an IPv4 header like a raw socket does.
type fakeConn struct {
	mu sync.Mutex

	clock    *clock.Mock
	peer     net.IP
	deadline time.Time
	inbox    []fakePacket
	writes   int
	closed   bool

	// respond is called on each write with the count of writes so far.
	respond func(n int, req EchoReply) []fakePacket

	// sendErr is called on each write, and the write fails if it returns an error.
	sendErr func(n int) error
}

func newFakeConn(mock *clock.Mock, respond func(n int, req EchoReply) []fakePacket) *fakeConn {
	return &fakeConn{
		clock:   mock,
		peer:    net.IPv4(127, 0, 0, 1).To4(),
		respond: respond,
	}
}

func (c *fakeConn) WriteTo(b []byte, dst net.Addr) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writes++
	if c.sendErr != nil {
		if err := c.sendErr(c.writes); err != nil {
			return 0, err
		}
	}

	req, err := DecodeEchoReply(b, 0)
	if err != nil {
		return 0, err
	}
	if c.respond != nil {
		c.inbox = append(c.inbox, c.respond(c.writes, req)...)
	}
	return len(b), nil
}

func (c *fakeConn) ReadFrom(b []byte) (int, net.Addr, error) {
	c.mu.Lock()

	now := c.clock.Now()
	if !now.Before(c.deadline) {
		c.mu.Unlock()
		return 0, nil, os.ErrDeadlineExceeded
	}

	if len(c.inbox) == 0 || now.Add(c.inbox[0].delay).After(c.deadline) {
		wait := c.deadline.Sub(now)
		if len(c.inbox) > 0 {
			c.inbox[0].delay -= wait
		}
		c.mu.Unlock()

		c.clock.Add(wait)
		return 0, nil, os.ErrDeadlineExceeded
	}

	pkt := c.inbox[0]
	c.inbox = c.inbox[1:]
	c.mu.Unlock()

	c.clock.Add(pkt.delay)
	n := copy(b, withIPv4Header(c.peer, pkt.data))
	return n, &net.IPAddr{IP: c.peer}, nil
}

func (c *fakeConn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.deadline = t
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.New("already closed")
	}
	c.closed = true
	return nil
}

func (c *fakeConn) IPHeaderLen(b []byte) int {
	return rawHeaderLen(b)
}

func (c *fakeConn) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

func (c *fakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func withIPv4Header(src net.IP, msg []byte) []byte {
	h := &ipv4.Header{
		Version:  ipv4.Version,
		Len:      ipv4.HeaderLen,
		TotalLen: ipv4.HeaderLen + len(msg),
		TTL:      64,
		Protocol: 1,
		Src:      src,
		Dst:      net.IPv4(127, 0, 0, 1),
	}
	b, err := h.Marshal()
	if err != nil {
		panic(err)
	}
	return append(b, msg...)
}

// echoReply makes the reply of req arriving after delay.
func echoReply(req EchoReply, delay time.Duration) fakePacket {
	return fakePacket{delay: delay, data: encodeEcho(ipv4.ICMPTypeEchoReply, req.ID, req.Seq)}
}

// recorder is a Reporter that keeps all events.
type recorder struct {
	mu       sync.Mutex
	replies  []Reply
	timeouts []Timeout
	finished []Result
}

func (r *recorder) OnReply(e Reply) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, e)
}

func (r *recorder) OnTimeout(e Timeout) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeouts = append(r.timeouts, e)
}

func (r *recorder) OnFinish(e Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, e)
}

func staticLookup(table map[string]string) LookupFunc {
	return func(ctx context.Context, host string) (string, error) {
		if addr, ok := table[host]; ok {
			return addr, nil
		}
		return "", errors.Errorf("no such host: %s", host)
	}
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestConfig(mock *clock.Mock, listen ListenFunc, rep Reporter) Config {
	return Config{
		Interval:   0,
		Timeout:    DEFAULT_TIMEOUT,
		BufferSize: 128,
		Listen:     listen,
		Lookup:     staticLookup(map[string]string{"localhost": "127.0.0.1"}),
		Clock:      mock,
		Reporter:   rep,
		Logger:     discardLogger(),
	}
}

func listenFake(conn *fakeConn) ListenFunc {
	return func() (Conn, error) {
		return conn, nil
	}
}
