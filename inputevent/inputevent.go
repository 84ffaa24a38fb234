package inputevent

// Category tells which kind of pointer event crossed the tap.
type Category uint8

const (
	ButtonDown Category = iota + 1
	ButtonUp
	ButtonDragged
)

func (c Category) String() string {
	switch c {
	case ButtonDown:
		return "button-down"
	case ButtonUp:
		return "button-up"
	case ButtonDragged:
		return "button-dragged"
	}
	return "invalid"
}

// Button is the hardware button code as the device reports it, e.g. 0x117
// for the code BTN_TASK based remap of the MX Master gesture button.
type Button uint16

// MotionSample is one relative pointer displacement.
type MotionSample struct {
	DX int64 `json:"dx"`
	DY int64 `json:"dy"`
}

type Event struct {
	Category Category     `json:"category"`
	Button   Button       `json:"button"`
	Motion   MotionSample `json:"motion"`
}

// Decision is the handler's verdict on an intercepted event. The zero value
// passes the event through, so a missing handler degrades to a no-op tap.
type Decision uint8

const (
	PassThrough Decision = iota
	Suppress
)

func (d Decision) String() string {
	if d == Suppress {
		return "suppress"
	}
	return "pass-through"
}

// keys

type KeyCode uint8

const (
	KeyLeftArrow KeyCode = iota + 1
	KeyRightArrow
	KeyUpArrow
	KeyDownArrow
	KeyMissionControl
	KeyLeftControl
	KeyLeftCommand
)

func (k KeyCode) String() string {
	switch k {
	case KeyLeftArrow:
		return "left-arrow"
	case KeyRightArrow:
		return "right-arrow"
	case KeyUpArrow:
		return "up-arrow"
	case KeyDownArrow:
		return "down-arrow"
	case KeyMissionControl:
		return "mission-control"
	case KeyLeftControl:
		return "control"
	case KeyLeftCommand:
		return "command"
	}
	return "invalid"
}

// Modifiers is a set of modifier flags attached to a synthesized key event.
type Modifiers uint8

const (
	ModControl Modifiers = 1 << iota
	ModCommand
)

func (m Modifiers) Has(flag Modifiers) bool {
	return m&flag != 0
}

func (m Modifiers) String() string {
	switch {
	case m.Has(ModControl) && m.Has(ModCommand):
		return "control+command"
	case m.Has(ModControl):
		return "control"
	case m.Has(ModCommand):
		return "command"
	}
	return "none"
}
