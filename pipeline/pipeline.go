package pipeline

import (
	"time"

	"github.com/heckler1/mxmaster-gesture-control/gesture"
	"github.com/heckler1/mxmaster-gesture-control/inputevent"
	"github.com/heckler1/mxmaster-gesture-control/logging"
)

var slog = logging.NewLogger("pipeline")

// Observation is one handled event together with the decision made about
// it, as seen by the trace writer and the monitor stream.
type Observation struct {
	Category   string `json:"category"`
	Button     uint16 `json:"button"`
	DX         int64  `json:"dx"`
	DY         int64  `json:"dy"`
	Verdict    string `json:"verdict,omitempty"`
	Action     string `json:"action,omitempty"`
	Suppressed bool   `json:"suppressed"`
}

type Config struct {
	Thresholds    gesture.Thresholds
	GestureButton inputevent.Button
	BackButton    inputevent.Button
	ForwardButton inputevent.Button
	ModifierDelay time.Duration
	ReleaseDelay  time.Duration
	// Observer, when set, sees every handled event after its decision.
	// It runs on the dispatch goroutine and must not block.
	Observer func(inputevent.Event, Observation)
}

// Pipeline owns the gesture state of one interception session: the drag
// tracker, the classifier thresholds and the synthesizer.
type Pipeline struct {
	cfg     Config
	tracker gesture.Tracker
	synth   *Synthesizer
}

func New(cfg Config, injector Injector) *Pipeline {
	return &Pipeline{
		cfg:   cfg,
		synth: NewSynthesizer(injector, cfg.ModifierDelay, cfg.ReleaseDelay),
	}
}

// HandleEvent decides one intercepted event. It runs on the single dispatch
// goroutine of the tap.
func (p *Pipeline) HandleEvent(ev inputevent.Event) inputevent.Decision {
	switch ev.Category {
	case inputevent.ButtonDragged:
		return p.handleDrag(ev)
	case inputevent.ButtonDown:
		return p.handleDown(ev)
	case inputevent.ButtonUp:
		return p.handleUp(ev)
	}
	slog.Debug("ignoring event of unknown category", "category", ev.Category)
	return inputevent.PassThrough
}

func (p *Pipeline) handleDrag(ev inputevent.Event) inputevent.Decision {
	if ev.Button != p.cfg.GestureButton {
		return inputevent.PassThrough
	}

	dx, dy := ev.Motion.DX, ev.Motion.DY
	if !p.cfg.Thresholds.AboveNoiseFloor(dx, dy) {
		p.observe(ev, gesture.None, nil, inputevent.Suppress)
		return inputevent.Suppress
	}

	// Motion past the noise floor makes this hold a swipe and not a tap,
	// even when classification stays undecided.
	p.tracker.Begin()

	verdict := p.cfg.Thresholds.Classify(dx, dy)
	action := ActionForVerdict(verdict)
	if action != nil {
		p.synth.Synthesize(action)
	}
	p.observe(ev, verdict, action, inputevent.Suppress)
	return inputevent.Suppress
}

func (p *Pipeline) handleDown(ev inputevent.Event) inputevent.Decision {
	switch ev.Button {
	case p.cfg.GestureButton:
		p.observe(ev, gesture.None, nil, inputevent.Suppress)
		return inputevent.Suppress
	case p.cfg.ForwardButton:
		return p.fire(ev, SimpleKey{Code: inputevent.KeyRightArrow, WithCommand: true})
	case p.cfg.BackButton:
		return p.fire(ev, SimpleKey{Code: inputevent.KeyLeftArrow, WithCommand: true})
	}
	return inputevent.PassThrough
}

func (p *Pipeline) handleUp(ev inputevent.Event) inputevent.Decision {
	switch ev.Button {
	case p.cfg.GestureButton:
		if p.tracker.Dragging() {
			p.tracker.End()
			p.observe(ev, gesture.None, nil, inputevent.Suppress)
			return inputevent.Suppress
		}
		// Press and release without a swipe in between is a tap.
		return p.fire(ev, MissionControl{})
	case p.cfg.ForwardButton, p.cfg.BackButton:
		p.observe(ev, gesture.None, nil, inputevent.Suppress)
		return inputevent.Suppress
	}
	return inputevent.PassThrough
}

func (p *Pipeline) fire(ev inputevent.Event, action Action) inputevent.Decision {
	p.synth.Synthesize(action)
	p.observe(ev, gesture.None, action, inputevent.Suppress)
	return inputevent.Suppress
}

func (p *Pipeline) observe(ev inputevent.Event, verdict gesture.Verdict, action Action, d inputevent.Decision) {
	if p.cfg.Observer == nil {
		return
	}
	o := Observation{
		Category:   ev.Category.String(),
		Button:     uint16(ev.Button),
		DX:         ev.Motion.DX,
		DY:         ev.Motion.DY,
		Suppressed: d == inputevent.Suppress,
	}
	if verdict != gesture.None {
		o.Verdict = verdict.String()
	}
	if action != nil {
		o.Action = action.String()
	}
	p.cfg.Observer(ev, o)
}
