// Package main provides the justwhisper CLI and daemon process entrypoint.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.design/x/hotkey/mainthread"

	"github.com/justwhisper/justwhisper/internal/app"
)

// main hands control to mainthread.Init: golang.design/x/hotkey requires its
// event tap to be registered and pumped from the OS main thread, so the
// entire CLI/daemon body runs inside the callback it drives.
func main() {
	mainthread.Init(run)
}

// run wires process signal handling to the application runner.
func run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exitCode := app.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(exitCode)
}
