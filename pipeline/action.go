package pipeline

import (
	"github.com/heckler1/mxmaster-gesture-control/gesture"
	"github.com/heckler1/mxmaster-gesture-control/inputevent"
)

// Action is the closed set of outcomes the dispatcher can ask the
// synthesizer to perform.
type Action interface {
	isAction()
	String() string
}

// SimpleKey is a key press with modifier flags attached to the key events
// themselves, no settling delays.
type SimpleKey struct {
	Code        inputevent.KeyCode
	WithCommand bool
}

func (SimpleKey) isAction() {}

func (a SimpleKey) String() string {
	if a.WithCommand {
		return "command+" + a.Code.String()
	}
	return a.Code.String()
}

// ModifiedKey is a key press bracketed by an explicit modifier hold.
type ModifiedKey struct {
	Code        inputevent.KeyCode
	WithControl bool
}

func (ModifiedKey) isAction() {}

func (a ModifiedKey) String() string {
	if a.WithControl {
		return "control+" + a.Code.String()
	}
	return a.Code.String()
}

// MissionControl is the bare overview key.
type MissionControl struct{}

func (MissionControl) isAction() {}

func (MissionControl) String() string { return "mission-control" }

// ActionForVerdict maps a classified swipe to its outcome. None has no
// action.
func ActionForVerdict(v gesture.Verdict) Action {
	switch v {
	case gesture.Left:
		return ModifiedKey{Code: inputevent.KeyLeftArrow, WithControl: true}
	case gesture.Right:
		return ModifiedKey{Code: inputevent.KeyRightArrow, WithControl: true}
	case gesture.Up:
		return MissionControl{}
	case gesture.Down:
		return ModifiedKey{Code: inputevent.KeyDownArrow, WithControl: true}
	}
	return nil
}
