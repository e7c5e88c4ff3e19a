package pinger

import (
	"context"
	"net"
	"net/netip"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// State is the phase of a Prober.
type State int

const (
	StateResolving State = iota
	StateSending
	StateAwaitingReply
	StateReporting
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateResolving:
		return "resolving"
	case StateSending:
		return "sending"
	case StateAwaitingReply:
		return "awaiting-reply"
	case StateReporting:
		return "reporting"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Prober sends echo requests to one host until the StopSignal is raised.
type Prober struct {
	host  string
	id    uint16
	conf  Config
	stop  *StopSignal
	log   logrus.FieldLogger
	state State
}

// NewProber makes a Prober for host that tags its requests with id.
//
// It returns an error if conf is invalid.
func NewProber(host string, id uint16, conf Config, stop *StopSignal) (*Prober, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return &Prober{
		host: host,
		id:   id,
		conf: conf,
		stop: stop,
		log: conf.Logger.WithFields(logrus.Fields{
			"host": host,
			"id":   id,
		}),
	}, nil
}

// Host returns the target host name.
func (p *Prober) Host() string {
	return p.host
}

// ID returns the ICMP identifier of this Prober.
func (p *Prober) ID() uint16 {
	return p.id
}

func (p *Prober) transition(s State) {
	if p.state != s {
		p.log.Debugf("state %s -> %s", p.state, s)
		p.state = s
	}
}

func (p *Prober) resolve(ctx context.Context) (netip.Addr, error) {
	text, err := p.conf.Lookup(ctx, p.host)
	if err != nil {
		return netip.Addr{}, errors.Wrapf(ErrResolution, "%s: %s", p.host, err)
	}

	addr, err := netip.ParseAddr(text)
	if err != nil {
		return netip.Addr{}, errors.Wrapf(ErrInvalidAddress, "%s: %q", p.host, text)
	}
	addr = addr.Unmap()
	if !addr.Is4() {
		return netip.Addr{}, errors.Wrapf(ErrInvalidAddress, "%s: %s is not IPv4", p.host, addr)
	}

	return addr, nil
}

// Run resolves the host, then probes it until the StopSignal is raised.
//
// Errors before the first probe are returned without emitting a summary.
// Otherwise, the summary is reported and the statistics are returned.
func (p *Prober) Run(ctx context.Context) (Result, error) {
	result := Result{Host: p.host, ID: p.id}

	p.transition(StateResolving)
	addr, err := p.resolve(ctx)
	if err != nil {
		p.log.WithError(err).Error("skip target")
		return result, err
	}
	result.Addr = addr

	conn, err := p.conf.Listen()
	if err != nil {
		p.log.WithError(err).Error("skip target")
		return result, err
	}

	s := &session{
		Prober: p,
		conn:   conn,
		dst:    &net.IPAddr{IP: net.IP(addr.AsSlice())},
		buf:    make([]byte, p.conf.BufferSize),
		result: result,
	}
	defer s.close()

	p.log.WithField("addr", addr).Info("start probing")

	for seq := 1; !p.stop.Stopped(); seq++ {
		s.probe(seq)
		p.pause()
	}

	p.transition(StateStopped)
	s.close()
	p.conf.Reporter.OnFinish(s.result)

	return s.result, nil
}

// pause waits for Interval, or until the StopSignal is raised.
func (p *Prober) pause() {
	if p.conf.Interval <= 0 {
		return
	}

	t := p.conf.Clock.Timer(p.conf.Interval)
	defer t.Stop()

	select {
	case <-t.C:
	case <-p.stop.Done():
	}
}

// session is the state of a Prober while it is probing.
type session struct {
	*Prober

	conn   Conn
	closed bool
	dst    net.Addr
	buf    []byte
	result Result
}

func (s *session) close() {
	if s.closed {
		return
	}
	s.closed = true

	if err := s.conn.Close(); err != nil {
		s.log.WithError(err).Warn("failed to close socket")
	}
}

// reply is a matched echo reply.
type reply struct {
	size int
	from net.Addr
	rtt  time.Duration
}

func (s *session) probe(seq int) {
	log := s.log.WithField("seq", seq)

	s.transition(StateSending)
	req := EncodeEchoRequest(s.id, uint16(seq))
	sentAt := s.conf.Clock.Now()

	s.result.onSend()
	if _, err := s.conn.WriteTo(req, s.dst); err != nil {
		log.WithError(errors.Wrap(ErrSend, err.Error())).Warn("send failed")
		return
	}

	s.transition(StateAwaitingReply)
	r, err := s.await(sentAt, uint16(seq))

	s.transition(StateReporting)
	switch {
	case err == nil:
		s.result.onRecv()
		s.conf.Reporter.OnReply(Reply{
			Host: s.host,
			From: s.source(r.from),
			Seq:  seq,
			Size: r.size,
			RTT:  r.rtt,
		})
	case isTimeout(err):
		s.conf.Reporter.OnTimeout(Timeout{
			Host: s.host,
			Addr: s.result.Addr,
			Seq:  seq,
		})
	default:
		log.WithError(err).Error("receive failed")
	}
}

// await reads packets until the reply for seq arrives, or the deadline of
// sentAt+Timeout passes. Packets of other probers, truncated packets, non
// echo-reply messages and stale replies are skipped.
func (s *session) await(sentAt time.Time, seq uint16) (reply, error) {
	deadline := sentAt.Add(s.conf.Timeout)

	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return reply{}, err
	}

	for {
		n, from, err := s.conn.ReadFrom(s.buf)
		if err != nil {
			return reply{}, err
		}
		receivedAt := s.conf.Clock.Now()

		msg, err := DecodeEchoReply(s.buf[:n], s.conn.IPHeaderLen(s.buf[:n]))
		if err == nil && msg.ID == s.id && msg.IsEchoReply() && msg.Seq == seq {
			return reply{size: n, from: from, rtt: receivedAt.Sub(sentAt)}, nil
		}

		if !receivedAt.Before(deadline) {
			return reply{}, os.ErrDeadlineExceeded
		}
	}
}

func (s *session) source(from net.Addr) netip.Addr {
	if a, ok := from.(*net.IPAddr); ok {
		if addr, ok := netip.AddrFromSlice(a.IP); ok {
			return addr.Unmap()
		}
	}
	return s.result.Addr
}
