//go:build linux

package tap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"

	"github.com/holoplot/go-evdev"
	"golang.org/x/sys/unix"

	"github.com/heckler1/mxmaster-gesture-control/inputevent"
)

const (
	uinputPath   = "/dev/uinput"
	pointerName  = "mxgestured pointer"
	keyboardName = "mxgestured keyboard"
)

// keyCodes maps the synthesized keys onto evdev codes. Command becomes the
// super key and mission control the overview key.
var keyCodes = map[inputevent.KeyCode]evdev.EvCode{
	inputevent.KeyLeftArrow:      evdev.KEY_LEFT,
	inputevent.KeyRightArrow:     evdev.KEY_RIGHT,
	inputevent.KeyUpArrow:        evdev.KEY_UP,
	inputevent.KeyDownArrow:      evdev.KEY_DOWN,
	inputevent.KeyMissionControl: evdev.KEY_SCALE,
	inputevent.KeyLeftControl:    evdev.KEY_LEFTCTRL,
	inputevent.KeyLeftCommand:    evdev.KEY_LEFTMETA,
}

type linuxBackend struct {
	source  *evdev.InputDevice
	pointer *evdev.InputDevice
	keys    *virtualKeyboard

	closeOnce sync.Once
	closeErr  error
}

func platformOpen(opts Options) (backend, error) {
	if err := unix.Access(uinputPath, unix.W_OK); err != nil {
		return nil, fmt.Errorf("%w: %s is not writable: %v", ErrPermission, uinputPath, err)
	}

	path := opts.DevicePath
	if path == "" {
		p, err := findDeviceByButton(opts.GestureButton)
		if err != nil {
			return nil, err
		}
		path = p
	}

	source, err := evdev.OpenWithFlags(path, os.O_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, wrapPermission(err))
	}
	b := &linuxBackend{source: source}

	if b.pointer, err = clonePointer(source); err != nil {
		b.close()
		return nil, fmt.Errorf("failed to create passthrough pointer: %w", wrapPermission(err))
	}
	if b.keys, err = openVirtualKeyboard(); err != nil {
		b.close()
		return nil, fmt.Errorf("failed to create virtual keyboard: %w", wrapPermission(err))
	}

	// Exclusive hold. From here on the physical device is only visible
	// through the passthrough pointer.
	if err := source.Grab(); err != nil {
		b.close()
		return nil, fmt.Errorf("failed to grab %s: %w", path, wrapPermission(err))
	}

	if name, err := source.Name(); err == nil {
		slog.Info("interception installed", "device", name, "path", path)
	}
	return b, nil
}

func (b *linuxBackend) run(ctx context.Context, a *assembler) error {
	stop := context.AfterFunc(ctx, func() { b.close() })
	defer stop()

	for {
		ev, err := b.source.ReadOne()
		if err != nil {
			if ctx.Err() != nil || isClosedDeviceError(err) {
				return nil
			}
			return fmt.Errorf("failed to read from device: %w", err)
		}
		if ev == nil {
			slog.Debug("discarding empty read")
			continue
		}

		forward := a.push(rawEvent{Type: uint16(ev.Type), Code: uint16(ev.Code), Value: ev.Value})
		for _, fwd := range forward {
			out := evdev.InputEvent{
				Type:  evdev.EvType(fwd.Type),
				Code:  evdev.EvCode(fwd.Code),
				Value: fwd.Value,
			}
			if err := b.pointer.WriteOne(&out); err != nil {
				slog.Warn("failed to forward event", "error", err)
			}
		}
	}
}

func (b *linuxBackend) keyboard() Keyboard {
	return b.keys
}

func (b *linuxBackend) close() error {
	b.closeOnce.Do(func() {
		if b.source != nil {
			b.source.Ungrab()
			b.closeErr = b.source.Close()
		}
		if b.pointer != nil {
			b.pointer.Close()
		}
		if b.keys != nil {
			b.keys.dev.Close()
		}
	})
	return b.closeErr
}

// findDeviceByButton scans for the first hardware device that exposes the
// gesture button.
func findDeviceByButton(button inputevent.Button) (string, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return "", fmt.Errorf("failed to list input devices: %v", err)
	}

	denied := false
	for _, p := range paths {
		dev, err := evdev.Open(p.Path)
		if err != nil {
			if errors.Is(err, os.ErrPermission) {
				denied = true
			}
			slog.Debug("skipping unreadable device", "path", p.Path, "error", err)
			continue
		}
		ok := deviceHasButton(dev, button) && !isVirtualDevice(dev)
		dev.Close()
		if ok {
			return p.Path, nil
		}
	}
	if denied {
		return "", fmt.Errorf("%w: input devices are not readable", ErrPermission)
	}
	return "", fmt.Errorf("%w: no device exposes button %#x", ErrNoDevice, uint16(button))
}

func deviceHasButton(dev *evdev.InputDevice, button inputevent.Button) bool {
	for _, code := range dev.CapableEvents(evdev.EV_KEY) {
		if uint16(code) == uint16(button) {
			return true
		}
	}
	return false
}

func isVirtualDevice(dev *evdev.InputDevice) bool {
	id, err := dev.InputID()
	return err == nil && id.BusType == uint16(evdev.BUS_VIRTUAL)
}

// clonePointer creates the virtual device that stands in for the grabbed
// hardware. It mirrors the source's key, relative and misc capabilities.
func clonePointer(source *evdev.InputDevice) (*evdev.InputDevice, error) {
	capabilities := make(map[evdev.EvType][]evdev.EvCode)
	for _, t := range []evdev.EvType{evdev.EV_KEY, evdev.EV_REL, evdev.EV_MSC} {
		if codes := source.CapableEvents(t); len(codes) > 0 {
			capabilities[t] = codes
		}
	}

	return evdev.CreateDevice(pointerName, evdev.InputID{
		BusType: uint16(evdev.BUS_VIRTUAL),
		Vendor:  0x1,
		Product: 0x1,
		Version: 1,
	}, capabilities)
}

type virtualKeyboard struct {
	dev *evdev.InputDevice
}

func openVirtualKeyboard() (*virtualKeyboard, error) {
	codes := make([]evdev.EvCode, 0, len(keyCodes))
	for _, code := range keyCodes {
		codes = append(codes, code)
	}

	dev, err := evdev.CreateDevice(keyboardName, evdev.InputID{
		BusType: uint16(evdev.BUS_VIRTUAL),
		Vendor:  0x1,
		Product: 0x2,
		Version: 1,
	}, map[evdev.EvType][]evdev.EvCode{
		evdev.EV_KEY: codes,
	})
	if err != nil {
		return nil, err
	}
	return &virtualKeyboard{dev: dev}, nil
}

func (k *virtualKeyboard) KeyDown(key inputevent.KeyCode, mods inputevent.Modifiers) error {
	code, ok := keyCodes[key]
	if !ok {
		return fmt.Errorf("no key code for %s", key)
	}
	for _, mod := range modifierCodes(mods) {
		if err := k.write(evdev.EV_KEY, mod, 1); err != nil {
			return err
		}
	}
	if err := k.write(evdev.EV_KEY, code, 1); err != nil {
		return err
	}
	return k.sync()
}

func (k *virtualKeyboard) KeyUp(key inputevent.KeyCode, mods inputevent.Modifiers) error {
	code, ok := keyCodes[key]
	if !ok {
		return fmt.Errorf("no key code for %s", key)
	}
	if err := k.write(evdev.EV_KEY, code, 0); err != nil {
		return err
	}
	release := modifierCodes(mods)
	for i := len(release) - 1; i >= 0; i-- {
		if err := k.write(evdev.EV_KEY, release[i], 0); err != nil {
			return err
		}
	}
	return k.sync()
}

func (k *virtualKeyboard) write(t evdev.EvType, c evdev.EvCode, v int32) error {
	if err := k.dev.WriteOne(&evdev.InputEvent{Type: t, Code: c, Value: v}); err != nil {
		return fmt.Errorf("failed to write key event: %w", err)
	}
	return nil
}

func (k *virtualKeyboard) sync() error {
	return k.write(evdev.EV_SYN, evdev.SYN_REPORT, 0)
}

func modifierCodes(mods inputevent.Modifiers) []evdev.EvCode {
	var codes []evdev.EvCode
	if mods.Has(inputevent.ModControl) {
		codes = append(codes, evdev.KEY_LEFTCTRL)
	}
	if mods.Has(inputevent.ModCommand) {
		codes = append(codes, evdev.KEY_LEFTMETA)
	}
	return codes
}

func wrapPermission(err error) error {
	if errors.Is(err, os.ErrPermission) {
		return fmt.Errorf("%w: %v", ErrPermission, err)
	}
	return err
}

func isClosedDeviceError(err error) bool {
	return errors.Is(err, os.ErrClosed) ||
		errors.Is(err, syscall.EBADF) ||
		errors.Is(err, syscall.ENODEV)
}

func platformListDevices() ([]DeviceInfo, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to list input devices: %v", err)
	}

	var out []DeviceInfo
	for _, p := range paths {
		info := DeviceInfo{Path: p.Path, Name: p.Name}
		if dev, err := evdev.Open(p.Path); err == nil {
			info.Virtual = isVirtualDevice(dev)
			dev.Close()
		}
		out = append(out, info)
	}
	return out, nil
}
