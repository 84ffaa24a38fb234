// Package daemon ties the interception tap, the gesture pipeline, and the
// optional trace and monitor outputs into a supervised session. It watches the
// config file and reinstalls the session whenever the config changes.
package daemon

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/heckler1/mxmaster-gesture-control/config"
	"github.com/heckler1/mxmaster-gesture-control/inputevent"
	"github.com/heckler1/mxmaster-gesture-control/logging"
	"github.com/heckler1/mxmaster-gesture-control/monitor"
	"github.com/heckler1/mxmaster-gesture-control/pipeline"
	"github.com/heckler1/mxmaster-gesture-control/tap"
	"github.com/heckler1/mxmaster-gesture-control/trace"
)

var slog = logging.NewLogger("daemon")

// reinstallDelay is how long to wait before reopening the device after a
// session ends on its own, e.g. when the mouse is unplugged.
const reinstallDelay = 2 * time.Second

type Args struct {
	ConfigFile  string
	ListDevices bool
}

func ParseArgs() Args {
	var configFile = flag.String("config-file", config.DefaultPath, "set file path for config file")
	var listDevices = flag.Bool("list-devices", false, "list visible pointer devices and exit")
	flag.Parse()
	a := Args{ConfigFile: *configFile, ListDevices: *listDevices}
	return a
}

// ListDevices prints every input device the tap backend can see, one per
// line, so the user can find the right path for the device config.
func ListDevices() error {
	devices, err := tap.ListDevices()
	if err != nil {
		return err
	}
	for _, d := range devices {
		note := ""
		if d.Virtual {
			note = "\t(virtual)"
		}
		fmt.Printf("%s\t%s%s\n", d.Path, d.Name, note)
	}
	return nil
}

// Run starts the daemon and blocks until ctx is done or the session fails
// with an unrecoverable error such as tap.ErrPermission.
func Run(ctx context.Context, args Args) error {
	cfg, err := config.ReadConfig(args.ConfigFile)
	if err != nil {
		return err
	}

	watcher := config.Watch(ctx, args.ConfigFile)

restart:
	logging.SetLogLevel(cfg.LogLevel)

	slog.Info("starting session", "config", cfg)
	runCtx, cancelRun := context.WithCancel(ctx)
	errs := make(chan error, 1)
	go func() {
		errs <- runSession(runCtx, cfg)
	}()
	defer cancelRun()

	for {
		select {
		case <-ctx.Done():
			return nil

		case c, ok := <-watcher.Configs():
			if !ok {
				cancelRun()
				return fmt.Errorf("config watcher error: %v", watcher.Err())
			}
			slog.Info("configurations changed", "config", c)
			cfg = c
			cancelRun()
			goto restart

		case err := <-errs:
			if err != nil {
				cancelRun()
				return err
			}
			if ctx.Err() != nil {
				return nil
			}
			// The device went away underneath us. Wait for it to come
			// back instead of giving up.
			slog.Warn("session ended, reinstalling", "delay", reinstallDelay)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(reinstallDelay):
			}
			cancelRun()
			goto restart
		}
	}
}

func runSession(ctx context.Context, cfg *config.Config) error {
	sess, err := tap.Open(tap.Options{
		DevicePath:    cfg.Device.Path,
		GestureButton: cfg.Device.Gesture(),
		BackButton:    cfg.Device.Back(),
		ForwardButton: cfg.Device.Forward(),
	})
	if err != nil {
		return fmt.Errorf("failed to install interception: %w", err)
	}
	defer sess.Close()

	var tw *trace.Writer
	if cfg.Trace.Path != "" {
		tw, err = trace.Create(cfg.Trace.Path)
		if err != nil {
			slog.Warn("failed to open trace file", "error", err)
		} else {
			defer tw.Close()
			slog.Info("recording trace", "path", cfg.Trace.Path)
		}
	}

	var mon *monitor.Server
	if cfg.Monitor.Addr != "" {
		mon = monitor.NewServer(cfg.Monitor.Addr)
		if err := mon.Start(); err != nil {
			slog.Warn("failed to start monitor server", "error", err)
			mon = nil
		} else {
			defer mon.Close()
		}
	}

	p := pipeline.New(
		pipeline.Config{
			Thresholds:    cfg.Gestures.Thresholds(),
			GestureButton: cfg.Device.Gesture(),
			BackButton:    cfg.Device.Back(),
			ForwardButton: cfg.Device.Forward(),
			ModifierDelay: cfg.Synthesis.ModifierDelay(),
			ReleaseDelay:  cfg.Synthesis.ReleaseDelay(),
			Observer:      observer(tw, mon),
		},
		sess.Keyboard(),
	)

	return sess.Run(ctx, p.HandleEvent)
}

// observer fans pipeline observations out to the trace writer and the monitor
// server. Returns nil when neither is configured so the pipeline can skip the
// bookkeeping entirely.
func observer(tw *trace.Writer, mon *monitor.Server) func(inputevent.Event, pipeline.Observation) {
	if tw == nil && mon == nil {
		return nil
	}
	return func(ev inputevent.Event, obs pipeline.Observation) {
		if tw != nil {
			if rec := traceRecord(ev); rec != nil {
				if err := tw.Append(rec); err != nil {
					slog.Warn("failed to append trace record", "error", err)
				}
			}
		}
		if mon != nil {
			mon.Broadcast(obs)
		}
	}
}

// traceRecord converts an intercepted event into its trace record. Traces
// hold raw events only, verdicts are recomputed on replay so thresholds can
// be tuned against an old recording.
func traceRecord(ev inputevent.Event) any {
	switch ev.Category {
	case inputevent.ButtonDown:
		return trace.ButtonDown{Button: uint16(ev.Button)}
	case inputevent.ButtonUp:
		return trace.ButtonUp{Button: uint16(ev.Button)}
	case inputevent.ButtonDragged:
		return trace.Motion{DX: ev.Motion.DX, DY: ev.Motion.DY}
	}
	return nil
}
