// Command sleepctl sends one command byte to a sleepd server.
//
//	sleepctl --addr 192.168.1.20:8253          # suspend the host
//	sleepctl --addr 192.168.1.20:8253 -c 0x05  # send any other byte
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cyberinferno/sleepd/client"
	"github.com/cyberinferno/sleepd/command"
	"github.com/cyberinferno/sleepd/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := pflag.NewFlagSet("sleepctl", pflag.ContinueOnError)
	addr := fs.StringP("addr", "a", "127.0.0.1:8253", "sleepd address (host:port)")
	value := fs.StringP("command", "c", command.Hex(command.DefaultMagic), "command byte to send")
	timeout := fs.Duration("timeout", 10*time.Second, "connection and write timeout")
	verbose := fs.BoolP("verbose", "v", false, "log the command that was sent")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.InfoLevel
	}
	log := logger.NewConsoleLogger(os.Stderr, "sleepctl", level)

	b, err := command.ParseByte(*value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sleepctl: %v\n", err)
		return 2
	}

	c := client.New(client.Config{Address: *addr, ConnectionTimeout: *timeout, WriteTimeout: *timeout})
	if err := c.Send(b); err != nil {
		log.Error("send failed", logger.Field{Key: "error", Value: err.Error()})
		return 1
	}

	log.Info("command sent", logger.Field{Key: "addr", Value: *addr}, logger.Field{Key: "command", Value: command.Hex(b)})
	return 0
}
