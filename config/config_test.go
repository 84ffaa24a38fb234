package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heckler1/mxmaster-gesture-control/gesture"
	"github.com/heckler1/mxmaster-gesture-control/inputevent"
)

func TestReadEmptyConfig(t *testing.T) {
	c, err := readConfigString("")
	assert.NoError(t, err)
	require.Equal(t, Config{}, *c)
}

func TestReadLogLevel(t *testing.T) {
	c, err := readConfigString(`log_level = "debug"
`)
	assert.NoError(t, err)
	require.Equal(t, "debug", c.LogLevel)
}

func TestReadFullConfig(t *testing.T) {
	c, err := readConfigString(`log_level = "info"

[device]
path = "/dev/input/event5"
gesture_button = 0x118
back_button = 0x115
forward_button = 0x116

[gestures]
movement_threshold = 2
direction_threshold = 4
large_movement_threshold = 20
diagonal_threshold = 9

[synthesis]
modifier_delay_us = 100
release_delay_us = 40

[trace]
path = "/var/tmp/mxgesture.trace"

[monitor]
addr = "127.0.0.1:8731"
`)
	assert.NoError(t, err)
	require.Equal(t, Config{
		LogLevel: "info",
		Device: Device{
			Path:          "/dev/input/event5",
			GestureButton: 0x118,
			BackButton:    0x115,
			ForwardButton: 0x116,
		},
		Gestures: Gestures{
			MovementThreshold:      2,
			DirectionThreshold:     4,
			LargeMovementThreshold: 20,
			DiagonalThreshold:      9,
		},
		Synthesis: Synthesis{
			ModifierDelayUs: 100,
			ReleaseDelayUs:  40,
		},
		Trace:   Trace{Path: "/var/tmp/mxgesture.trace"},
		Monitor: Monitor{Addr: "127.0.0.1:8731"},
	}, *c)
}

func TestReadMalformedConfig(t *testing.T) {
	_, err := readConfigString(`log_level = [`)
	assert.Error(t, err)
}

func TestNegativeThresholdRejected(t *testing.T) {
	_, err := readConfigString(`[gestures]
movement_threshold = -1
`)
	assert.Error(t, err)
}

func TestNegativeDelayRejected(t *testing.T) {
	_, err := readConfigString(`[synthesis]
modifier_delay_us = -10
`)
	assert.Error(t, err)
}

func TestDuplicateButtonsRejected(t *testing.T) {
	_, err := readConfigString(`[device]
gesture_button = 0x113
`)
	assert.Error(t, err)
}

func TestThresholdDefaults(t *testing.T) {
	assert.Equal(t, gesture.DefaultThresholds(), Gestures{}.Thresholds())

	th := Gestures{MovementThreshold: 2}.Thresholds()
	assert.Equal(t, int64(2), th.Movement)
	assert.Equal(t, gesture.DefaultThresholds().Direction, th.Direction)
	assert.Equal(t, gesture.DefaultThresholds().LargeMovement, th.LargeMovement)
	assert.Equal(t, gesture.DefaultThresholds().Diagonal, th.Diagonal)
}

func TestButtonDefaults(t *testing.T) {
	var d Device
	assert.Equal(t, inputevent.Button(DefaultGestureButton), d.Gesture())
	assert.Equal(t, inputevent.Button(DefaultBackButton), d.Back())
	assert.Equal(t, inputevent.Button(DefaultForwardButton), d.Forward())

	d = Device{GestureButton: 0x118}
	assert.Equal(t, inputevent.Button(0x118), d.Gesture())
}

func TestSynthesisDelays(t *testing.T) {
	var s Synthesis
	assert.Equal(t, time.Duration(0), s.ModifierDelay())
	assert.Equal(t, time.Duration(0), s.ReleaseDelay())

	s = Synthesis{ModifierDelayUs: 100, ReleaseDelayUs: 40}
	assert.Equal(t, 100*time.Microsecond, s.ModifierDelay())
	assert.Equal(t, 40*time.Microsecond, s.ReleaseDelay())
}
