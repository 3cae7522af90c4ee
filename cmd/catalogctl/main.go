package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"catalog/internal/catalogctl"
)

func main() {
	cfg, err := catalogctl.ParseConfig(flag.CommandLine, os.Args[1:], os.LookupEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := catalogctl.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		stop()
		os.Exit(1)
	}
}
