package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/whoknowsbruh3425/BDA/pkg/config"
	"github.com/whoknowsbruh3425/BDA/pkg/logger"
)

const usageText = `usage: analytics [-config file] <command> [flags] [args]

commands:
  scenarios              list the available reports
  overview               print the dataset overview
  run <name...|all>      print one or more scenario reports
  export [-dir path]     run every scenario and the overview and write them to files
  serve [-addr a]        serve reports over HTTP
  import <file>          insert a JSON or JSON-lines player file into MongoDB
`

func usage() {
	fmt.Fprint(os.Stderr, usageText)
	flag.PrintDefaults()
}

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to a YAML or JSON config file")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		return 2
	}

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	// 2. Initialize logger
	l, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		return 1
	}
	defer l.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Wire source, cache and sinks
	a := newApp(cfg, l)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.Close(closeCtx)
	}()

	// 4. Dispatch
	command, args := flag.Arg(0), flag.Args()[1:]
	err = a.dispatch(ctx, command, args)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintln(os.Stderr, err)
		usage()
		return 2
	case errors.Is(err, context.Canceled):
		l.Info("interrupted", zap.String("command", command))
		return 130
	default:
		l.Error("command failed", err, zap.String("command", command))
		return 1
	}
}
