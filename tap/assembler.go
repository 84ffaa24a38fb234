package tap

import (
	"github.com/heckler1/mxmaster-gesture-control/inputevent"
)

// Raw event types and codes, matching the wire values input devices report.
// Kept as plain constants so frame assembly stays testable without a device.
const (
	evSyn uint16 = 0x00
	evKey uint16 = 0x01
	evRel uint16 = 0x02
	evMsc uint16 = 0x04

	relX uint16 = 0x00
	relY uint16 = 0x01

	synReportCode uint16 = 0x00
)

type rawEvent struct {
	Type  uint16
	Code  uint16
	Value int32
}

// maxFrameLen caps how many events a frame may buffer before being flushed
// unmodified. A stream that never delivers a sync report is malformed.
const maxFrameLen = 256

// assembler groups raw device events into frames, routes the watched ones
// through the handler and yields whatever is left to forward.
type assembler struct {
	handler Handler
	gesture uint16
	watched map[uint16]inputevent.Button

	frame       []rawEvent
	gestureDown bool
}

func newAssembler(opts Options, handler Handler) *assembler {
	watched := make(map[uint16]inputevent.Button)
	for _, b := range []inputevent.Button{opts.GestureButton, opts.BackButton, opts.ForwardButton} {
		if b != 0 {
			watched[uint16(b)] = b
		}
	}
	return &assembler{
		handler: handler,
		gesture: uint16(opts.GestureButton),
		watched: watched,
	}
}

// push adds one raw event. On a sync report it decides the buffered frame
// and returns the events to forward, terminated by the sync report itself.
// A nil return means nothing to forward.
func (a *assembler) push(ev rawEvent) []rawEvent {
	if ev.Type != evSyn || ev.Code != synReportCode {
		a.frame = append(a.frame, ev)
		if len(a.frame) >= maxFrameLen {
			out := a.frame
			a.frame = nil
			slog.Warn("flushing oversized device frame unmodified", "len", len(out))
			return append(out, rawEvent{Type: evSyn, Code: synReportCode})
		}
		return nil
	}

	out := a.decide(a.frame, ev)
	a.frame = nil
	return out
}

func (a *assembler) decide(frame []rawEvent, syn rawEvent) []rawEvent {
	if len(frame) == 0 {
		return nil
	}

	drop := make([]bool, len(frame))
	keyDropped := false

	for i, ev := range frame {
		if ev.Type != evKey {
			continue
		}
		button, ok := a.watched[ev.Code]
		if !ok {
			continue
		}
		var category inputevent.Category
		switch ev.Value {
		case 0:
			category = inputevent.ButtonUp
		case 1:
			category = inputevent.ButtonDown
		default:
			slog.Debug("unexpected value for watched button", "code", ev.Code, "value", ev.Value)
			continue
		}
		if ev.Code == a.gesture {
			a.gestureDown = category == inputevent.ButtonDown
		}
		if a.decideEvent(inputevent.Event{Category: category, Button: button}) == inputevent.Suppress {
			drop[i] = true
			keyDropped = true
		}
	}

	// While the gesture button is held, pointer motion belongs to the
	// gesture and is offered to the handler as one coalesced sample.
	if a.gestureDown {
		var dx, dy int64
		for _, ev := range frame {
			if ev.Type != evRel {
				continue
			}
			switch ev.Code {
			case relX:
				dx += int64(ev.Value)
			case relY:
				dy += int64(ev.Value)
			}
		}
		if dx != 0 || dy != 0 {
			drag := inputevent.Event{
				Category: inputevent.ButtonDragged,
				Button:   inputevent.Button(a.gesture),
				Motion:   inputevent.MotionSample{DX: dx, DY: dy},
			}
			if a.decideEvent(drag) == inputevent.Suppress {
				for i, ev := range frame {
					if ev.Type == evRel && (ev.Code == relX || ev.Code == relY) {
						drop[i] = true
					}
				}
			}
		}
	}

	out := make([]rawEvent, 0, len(frame)+1)
	for i, ev := range frame {
		if drop[i] {
			continue
		}
		if keyDropped && ev.Type == evMsc {
			// Scan codes ride along with the suppressed press.
			continue
		}
		out = append(out, ev)
	}
	if len(out) == 0 {
		return nil
	}
	return append(out, syn)
}

func (a *assembler) decideEvent(ev inputevent.Event) inputevent.Decision {
	if a.handler == nil {
		return inputevent.PassThrough
	}
	return a.handler(ev)
}
