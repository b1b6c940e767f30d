package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/outrigdev/outrig/autoinit"
	"github.com/zhirschtritt/orderly/internal/server"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Execute(ctx); err != nil {
		return 1
	}
	return 0
}
