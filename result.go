package pinger

import (
	"net/netip"
	"time"
)

// Result is the statistics of a prober, returned when it stopped.
type Result struct {
	Host string
	Addr netip.Addr
	ID   uint16
	Sent int
	Recv int
}

// Loss returns the number of lost packets.
func (r Result) Loss() int {
	return r.Sent - r.Recv
}

// LossPercent returns the packet loss in percent.
// It returns 0 if no packet was sent.
func (r Result) LossPercent() float64 {
	if r.Sent == 0 {
		return 0
	}
	return 100 * (1 - float64(r.Recv)/float64(r.Sent))
}

func (r *Result) onSend() {
	r.Sent++
}

func (r *Result) onRecv() {
	r.Recv++
}

// Reply is an event reported for each echo reply that matched a request.
type Reply struct {
	Host string
	From netip.Addr
	Seq  int
	Size int
	RTT  time.Duration
}

// RTTMillis returns the round-trip time in milliseconds.
func (r Reply) RTTMillis() float64 {
	return float64(r.RTT) / float64(time.Millisecond)
}

// Timeout is an event reported when no reply arrived in time.
type Timeout struct {
	Host string
	Addr netip.Addr
	Seq  int
}
