package main

import (
	"context"
	"fmt"
	"os"

	"github.com/timmy/hrnotify/internal/cli"
	"github.com/timmy/hrnotify/internal/logger"
)

func main() {
	log := logger.NewFromEnv(nil)
	logger.SetDefault(log)

	ctx := log.WithContext(context.Background())
	err := cli.NewRootCommand().ExecuteContext(ctx)

	if cerr := log.Close(); cerr != nil {
		fmt.Fprintf(os.Stderr, "close log file: %v\n", cerr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
