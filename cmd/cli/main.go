// Command flowcore loads a flow project, applies variable settings and
// triggers, and optionally saves the resulting snapshot.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/specialistvlad/flowcore/internal/app"
	"github.com/specialistvlad/flowcore/internal/cli"
	"github.com/specialistvlad/flowcore/internal/hcl"
)

func main() {
	// Flag parsing logs through the default logger before --log-level is read.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdout, os.Stderr, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}

// run parses args and runs the project. Node output goes to outW and logs
// to logW.
func run(ctx context.Context, outW, logW io.Writer, args []string) error {
	cfg, shouldExit, err := cli.Parse(args, outW)
	if err != nil || shouldExit {
		return err
	}
	return app.NewApp(outW, logW, cfg, hcl.NewLoader()).Run(ctx)
}

// exitCode is 0 on success, the code carried by a cli.ExitError, 130 when
// interrupted and 1 otherwise.
func exitCode(err error) int {
	var exitErr *cli.ExitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &exitErr):
		return exitErr.Code
	case errors.Is(err, context.Canceled):
		return 130
	}
	return 1
}
