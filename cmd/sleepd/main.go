// Command sleepd listens for single-byte commands over TCP and suspends the
// host when it receives the magic byte.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cyberinferno/sleepd/command"
	"github.com/cyberinferno/sleepd/config"
	"github.com/cyberinferno/sleepd/logger"
	"github.com/cyberinferno/sleepd/power"
	"github.com/cyberinferno/sleepd/processor"
	"github.com/cyberinferno/sleepd/tcpserver"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const serviceName = "sleepd"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load(serviceName, args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}

		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		return 2
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		return 2
	}

	log, err := logger.New(logger.Options{
		Service: serviceName,
		Level:   level,
		Format:  cfg.LogFormat,
		Dir:     cfg.LogDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		return 1
	}
	defer log.Close()

	suspender := power.NewCommandSuspender(cfg.SuspendCommand)
	proc := processor.NewProcessor(log, cfg.Magic, suspender)

	srv := tcpserver.NewTCPServer(serviceName, cfg.Addr, log, proc.NewSession)
	if cfg.MaxConnRate > 0 {
		srv.Limiter = rate.NewLimiter(rate.Limit(cfg.MaxConnRate), cfg.MaxConnBurst)
	}

	if err := srv.Start(); err != nil {
		return 1
	}

	log.Info("waiting for commands",
		logger.Field{Key: "magic", Value: command.Hex(cfg.Magic)},
		logger.Field{Key: "suspend_command", Value: strings.Join(cfg.SuspendCommand, " ")},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Serve)
	g.Go(func() error {
		<-gctx.Done()
		srv.Stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server terminated", logger.Field{Key: "error", Value: err.Error()})
		return 1
	}

	return 0
}
