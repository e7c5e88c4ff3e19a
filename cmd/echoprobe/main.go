// echoprobe pings hosts in parallel until interrupted, and prints loss statistics of each host.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	pinger "github.com/macrat/go-echo-pinger"
)

type options struct {
	socket   string
	logLevel string
}

func newCommand() *cobra.Command {
	conf := pinger.DefaultConfig()
	opts := options{}

	cmd := &cobra.Command{
		Use:           "echoprobe HOST [HOST...]",
		Short:         "Send ICMP echo requests to hosts until interrupted",
		Args:          cobra.MinimumNArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			if err := applyOptions(&conf, opts); err != nil {
				return err
			}

			stop := pinger.NewStopSignal()
			release := stop.Notify(os.Interrupt)
			defer release()

			c, err := pinger.NewCoordinator(conf, stop)
			if err != nil {
				return err
			}

			_, err = c.Run(context.Background(), args)
			return err
		},
	}

	flags := cmd.Flags()
	flags.DurationVar(&conf.Interval, "interval", conf.Interval, "pause between probes")
	flags.DurationVar(&conf.Timeout, "timeout", conf.Timeout, "time to wait for each reply")
	flags.StringVar(&opts.socket, "socket", "icmp", `socket kind, "icmp" or "raw"`)
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level")

	return cmd
}

func applyOptions(conf *pinger.Config, opts options) error {
	level, err := logrus.ParseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)
	conf.Logger = logger

	switch opts.socket {
	case "icmp":
		conf.Listen = pinger.ListenICMP
	case "raw":
		conf.Listen = pinger.ListenRaw
	default:
		return errors.Errorf("unknown socket kind: %q", opts.socket)
	}

	return nil
}

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "echoprobe:", err)
		os.Exit(1)
	}
}
