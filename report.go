package pinger

import (
	"fmt"
	"io"
	"sync"
)

// Reporter receives the events of probers.
//
// Methods are called from many probers at once.
type Reporter interface {
	OnReply(Reply)
	OnTimeout(Timeout)
	OnFinish(Result)
}

// ConsoleReporter writes events in the style of the ping command.
type ConsoleReporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleReporter makes a ConsoleReporter that writes to w.
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{w: w}
}

func (c *ConsoleReporter) printf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.w, format, args...)
}

func (c *ConsoleReporter) OnReply(r Reply) {
	c.printf("%d bytes from %s (%s): icmp_seq=%d time=%.2f ms\n", r.Size, r.From, r.Host, r.Seq, r.RTTMillis())
}

func (c *ConsoleReporter) OnTimeout(t Timeout) {
	c.printf("request timeout for %s (%s): icmp_seq=%d\n", t.Host, t.Addr, t.Seq)
}

func (c *ConsoleReporter) OnFinish(r Result) {
	c.printf("\n--- %s ping statistics ---\n%d packets transmitted, %d received, %.1f %% packet loss\n", r.Host, r.Sent, r.Recv, r.LossPercent())
}
