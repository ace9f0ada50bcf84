package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"reelbot/internal/queue"
	"reelbot/internal/services"
)

// Exit codes scripts can branch on.
const (
	exitOK          = 0
	exitFailure     = 1
	exitLocked      = 3
	exitUnavailable = 4
	exitInterrupted = 130
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(stderr, "reelbot:", err)
	}
	return exitCode(err)
}

// exitCode maps a command error to the process status. A held queue lock
// and an unreachable daemon or catalog get their own codes so cron jobs can
// retry instead of alerting.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	case errors.Is(err, queue.ErrLocked):
		return exitLocked
	case errors.Is(err, services.ErrExternalService), errors.Is(err, services.ErrTimeout):
		return exitUnavailable
	default:
		return exitFailure
	}
}
