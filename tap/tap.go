package tap

import (
	"context"
	"errors"
	"sync"

	"github.com/heckler1/mxmaster-gesture-control/inputevent"
	"github.com/heckler1/mxmaster-gesture-control/logging"
)

var slog = logging.NewLogger("tap")

var (
	// ErrPermission means the process may not read input devices or
	// create virtual ones. There is no recovering without privilege.
	ErrPermission = errors.New("insufficient permission for input devices")
	// ErrNoDevice means no input device exposes the gesture button.
	ErrNoDevice = errors.New("no matching input device")
	// ErrUnsupported means this platform has no tap backend.
	ErrUnsupported = errors.New("unsupported platform")
)

// Handler decides what happens to one intercepted event. It runs on the
// dispatch goroutine. Returning PassThrough forwards the original event
// unmodified.
type Handler func(inputevent.Event) inputevent.Decision

// Keyboard is the synthesis side of a session, a virtual device with an
// identity of its own so synthesized output is distinguishable from
// hardware input and never loops back into the tap.
type Keyboard interface {
	KeyDown(key inputevent.KeyCode, mods inputevent.Modifiers) error
	KeyUp(key inputevent.KeyCode, mods inputevent.Modifiers) error
}

type Options struct {
	// DevicePath pins the device to intercept. Empty means scan for the
	// first hardware device exposing GestureButton.
	DevicePath    string
	GestureButton inputevent.Button
	BackButton    inputevent.Button
	ForwardButton inputevent.Button
}

type DeviceInfo struct {
	Path    string
	Name    string
	Virtual bool
}

// ListDevices enumerates the input devices the backend can see.
func ListDevices() ([]DeviceInfo, error) {
	return platformListDevices()
}

type backend interface {
	run(ctx context.Context, a *assembler) error
	keyboard() Keyboard
	close() error
}

// Session is one installed interception: the exclusively held device, its
// passthrough clone and the virtual keyboard.
type Session struct {
	opts      Options
	b         backend
	closeOnce sync.Once
	closeErr  error
}

var (
	sessionMu sync.Mutex
	session   *Session
)

// Open installs a new session. An already installed session is torn down
// first, so reinstalling is always safe.
func Open(opts Options) (*Session, error) {
	sessionMu.Lock()
	prev := session
	session = nil
	sessionMu.Unlock()
	if prev != nil {
		slog.Debug("tearing down previous session")
		prev.Close()
	}

	b, err := platformOpen(opts)
	if err != nil {
		return nil, err
	}
	s := &Session{opts: opts, b: b}

	sessionMu.Lock()
	session = s
	sessionMu.Unlock()
	return s, nil
}

// Run enters the dispatch loop, reading device events and routing the
// watched ones through handler. It returns when ctx is done or the session
// is closed.
func (s *Session) Run(ctx context.Context, handler Handler) error {
	a := newAssembler(s.opts, handler)
	return s.b.run(ctx, a)
}

func (s *Session) Keyboard() Keyboard {
	return s.b.keyboard()
}

// Close tears the session down and restores direct device flow. It is safe
// to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		sessionMu.Lock()
		if session == s {
			session = nil
		}
		sessionMu.Unlock()
		s.closeErr = s.b.close()
	})
	return s.closeErr
}
