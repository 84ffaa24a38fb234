// Command mxgesture-trace replays a recorded trace through the gesture
// pipeline and prints the decision for each event as a JSON line. Pass the
// daemon's config file to replay under the same thresholds, or tweak the
// config and replay again to tune them against an old recording.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/bytedance/sonic"

	"github.com/heckler1/mxmaster-gesture-control/config"
	"github.com/heckler1/mxmaster-gesture-control/inputevent"
	"github.com/heckler1/mxmaster-gesture-control/pipeline"
	"github.com/heckler1/mxmaster-gesture-control/trace"
)

func main() {
	var configFile = flag.String("config-file", "", "replay under the thresholds from this config file")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [-config-file path] <trace-file>\n", os.Args[0])
		os.Exit(2)
	}

	cfg := &config.Config{}
	if *configFile != "" {
		c, err := config.ReadConfig(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read config file: %v\n", err)
			os.Exit(1)
		}
		cfg = c
	}

	if err := replay(flag.Arg(0), cfg, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "failed to replay trace: %v\n", err)
		os.Exit(1)
	}
}

func replay(path string, cfg *config.Config, out io.Writer) error {
	r, err := trace.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	p := pipeline.New(
		pipeline.Config{
			Thresholds:    cfg.Gestures.Thresholds(),
			GestureButton: cfg.Device.Gesture(),
			BackButton:    cfg.Device.Back(),
			ForwardButton: cfg.Device.Forward(),
			Observer: func(_ inputevent.Event, obs pipeline.Observation) {
				b, err := sonic.Marshal(obs)
				if err != nil {
					return
				}
				fmt.Fprintln(out, string(b))
			},
		},
		discardInjector{},
	)

	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		p.HandleEvent(eventFor(rec, cfg))
	}
}

// eventFor rebuilds the intercepted event a trace record stands for. Motion
// records carry no button, they can only have come from a hold of the
// gesture button.
func eventFor(rec any, cfg *config.Config) inputevent.Event {
	switch v := rec.(type) {
	case trace.ButtonDown:
		return inputevent.Event{Category: inputevent.ButtonDown, Button: inputevent.Button(v.Button)}
	case trace.ButtonUp:
		return inputevent.Event{Category: inputevent.ButtonUp, Button: inputevent.Button(v.Button)}
	case trace.Motion:
		return inputevent.Event{
			Category: inputevent.ButtonDragged,
			Button:   cfg.Device.Gesture(),
			Motion:   inputevent.MotionSample{DX: v.DX, DY: v.DY},
		}
	}
	return inputevent.Event{}
}

// discardInjector drops the keys the replayed pipeline synthesizes. The
// decisions still show up through the observer.
type discardInjector struct{}

func (discardInjector) KeyDown(inputevent.KeyCode, inputevent.Modifiers) error { return nil }

func (discardInjector) KeyUp(inputevent.KeyCode, inputevent.Modifiers) error { return nil }
