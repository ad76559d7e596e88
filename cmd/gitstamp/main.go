package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/bashhack/gitstamp/internal/config"
)

// Version information - injected at build time
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cfg := config.New()
	cfg.VersionInfo = config.VersionInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}
	kong.Parse(cfg, kongOptions(cfg.VersionInfo)...)

	app := NewApp(AppOptions{Config: cfg})

	if err := app.Initialize(); err != nil {
		_, _ = fmt.Fprintf(app.Stderr, "❌ Error: %v\n", err)
		app.exit(1)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		sig := <-c
		_, _ = fmt.Fprintf(app.Stdout, "\nReceived signal %v, stopping gitstamp...\n", sig)

		cancel()

		// force the exit if the run has not unwound in time
		time.Sleep(5 * time.Second)
		app.CleanupOnSignal()
		app.exit(0)
	}()

	err := app.Run(ctx)
	code := exitCode(err)
	if code != 0 {
		_, _ = fmt.Fprintf(app.Stderr, "❌ Error: %v\n", err)
	}

	if app.Started() {
		app.Stamper.PrintSummary()
	}
	app.exit(code)
}
