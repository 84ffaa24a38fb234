package pipeline

import (
	"time"

	"github.com/heckler1/mxmaster-gesture-control/inputevent"
)

// Injector writes synthesized key events into the session. Implementations
// are detached from the grabbed hardware so nothing they emit feeds back
// into the tap.
type Injector interface {
	KeyDown(key inputevent.KeyCode, mods inputevent.Modifiers) error
	KeyUp(key inputevent.KeyCode, mods inputevent.Modifiers) error
}

const (
	// DefaultModifierDelay is the hold between modifier down and key
	// down. Workspace switches are not reliably recognized without the
	// settle time.
	DefaultModifierDelay = 50 * time.Microsecond
	// DefaultReleaseDelay keeps the modifier held briefly after the key
	// is released.
	DefaultReleaseDelay = 20 * time.Microsecond
)

// Synthesizer turns Actions into ordered key event sequences.
type Synthesizer struct {
	injector      Injector
	modifierDelay time.Duration
	releaseDelay  time.Duration
	sleep         func(time.Duration)
}

func NewSynthesizer(injector Injector, modifierDelay, releaseDelay time.Duration) *Synthesizer {
	if modifierDelay <= 0 {
		modifierDelay = DefaultModifierDelay
	}
	if releaseDelay <= 0 {
		releaseDelay = DefaultReleaseDelay
	}
	return &Synthesizer{
		injector:      injector,
		modifierDelay: modifierDelay,
		releaseDelay:  releaseDelay,
		sleep:         time.Sleep,
	}
}

// Synthesize emits the key sequence for an action. A failure to write a
// single event is logged and skipped, the rest of the sequence still runs.
func (s *Synthesizer) Synthesize(action Action) {
	switch a := action.(type) {
	case ModifiedKey:
		if !a.WithControl {
			s.press(a.Code, 0)
			return
		}
		s.down(inputevent.KeyLeftControl, 0)
		s.sleep(s.modifierDelay)
		s.press(a.Code, 0)
		s.sleep(s.releaseDelay)
		s.up(inputevent.KeyLeftControl, 0)
	case SimpleKey:
		var mods inputevent.Modifiers
		if a.WithCommand {
			mods = inputevent.ModCommand
		}
		s.press(a.Code, mods)
	case MissionControl:
		s.press(inputevent.KeyMissionControl, 0)
	}
}

func (s *Synthesizer) press(key inputevent.KeyCode, mods inputevent.Modifiers) {
	s.down(key, mods)
	s.up(key, mods)
}

func (s *Synthesizer) down(key inputevent.KeyCode, mods inputevent.Modifiers) {
	if err := s.injector.KeyDown(key, mods); err != nil {
		slog.Error("failed to synthesize key down", "key", key, "error", err)
	}
}

func (s *Synthesizer) up(key inputevent.KeyCode, mods inputevent.Modifiers) {
	if err := s.injector.KeyUp(key, mods); err != nil {
		slog.Error("failed to synthesize key up", "key", key, "error", err)
	}
}
