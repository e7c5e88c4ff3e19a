package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/macrat/go-echo-pinger"
)

type nopReporter struct{}

func (nopReporter) OnReply(pinger.Reply)     {}
func (nopReporter) OnTimeout(pinger.Timeout) {}
func (nopReporter) OnFinish(pinger.Result)   {}

func main() {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	conf := pinger.DefaultConfig()
	conf.Interval = 5 * time.Millisecond
	conf.Timeout = 100 * time.Millisecond
	conf.Reporter = nopReporter{}
	conf.Logger = logger

	nextReport := time.Now()
	var mem runtime.MemStats

	for i := 0; ; i++ {
		stop := pinger.NewStopSignal()
		c, err := pinger.NewCoordinator(conf, stop)
		if err != nil {
			logrus.Fatalf("invalid config: %s", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		if _, err := c.Run(ctx, []string{"127.0.0.1", "127.0.0.2"}); err != nil {
			logrus.Errorf("failed to run probers: %s", err)
		}
		cancel()

		if time.Now().After(nextReport) {
			nextReport = time.Now().Add(5 * time.Second)
			runtime.ReadMemStats(&mem)
			fmt.Printf("%s\t%d\t%d\t%.3f\n", time.Now().Format(time.RFC3339), i+1, runtime.NumGoroutine(), float64(mem.Alloc)/1024/1024)
		}
	}
}
