// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ik5/audload/internal/cli"
)

// Injected at build time via ldflags.
var version = "dev"

func main() {
	// a missing .env is fine
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Execute(ctx, cli.DefaultEnv(), version, os.Args[1:])
	cancel()
	os.Exit(code)
}
