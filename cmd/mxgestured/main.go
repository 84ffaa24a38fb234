package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/heckler1/mxmaster-gesture-control/daemon"
	"github.com/heckler1/mxmaster-gesture-control/logging"
	"github.com/heckler1/mxmaster-gesture-control/tap"
)

var slog = logging.NewLogger("mxgestured/main")

func main() {
	args := daemon.ParseArgs()

	if args.ListDevices {
		if err := daemon.ListDevices(); err != nil {
			fatal("failed to list devices", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting", "GOGC", os.Getenv("GOGC"), "GODEBUG", os.Getenv("GODEBUG"))

	err := daemon.Run(ctx, args)
	switch {
	case err == nil:
		slog.Info("stopped")
		logging.Flush()
	case errors.Is(err, tap.ErrPermission):
		fatal("cannot install interception, missing access to input devices", err)
	default:
		fatal("daemon error", err)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	logging.Flush()
	os.Exit(1)
}
