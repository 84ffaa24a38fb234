package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/heckler1/mxmaster-gesture-control/gesture"
	"github.com/heckler1/mxmaster-gesture-control/inputevent"
	"github.com/heckler1/mxmaster-gesture-control/logging"
)

var slog = logging.NewLogger("config")

// DefaultPath is where the daemon looks for its config when no flag is
// given.
const DefaultPath = "./mxgesture.toml"

// Default button codes, matching how upstream button remapping usually
// presents an MX Master: the gesture button as BTN_TASK and the thumb pair
// as BTN_SIDE and BTN_EXTRA.
const (
	DefaultGestureButton uint16 = 0x117
	DefaultBackButton    uint16 = 0x113
	DefaultForwardButton uint16 = 0x114
)

type Config struct {
	LogLevel  string    `toml:"log_level"`
	Device    Device    `toml:"device"`
	Gestures  Gestures  `toml:"gestures"`
	Synthesis Synthesis `toml:"synthesis"`
	Trace     Trace     `toml:"trace"`
	Monitor   Monitor   `toml:"monitor"`
}

type Device struct {
	Path          string `toml:"path"`
	GestureButton uint16 `toml:"gesture_button"`
	BackButton    uint16 `toml:"back_button"`
	ForwardButton uint16 `toml:"forward_button"`
}

type Gestures struct {
	MovementThreshold      int64 `toml:"movement_threshold"`
	DirectionThreshold     int64 `toml:"direction_threshold"`
	LargeMovementThreshold int64 `toml:"large_movement_threshold"`
	DiagonalThreshold      int64 `toml:"diagonal_threshold"`
}

type Synthesis struct {
	ModifierDelayUs int64 `toml:"modifier_delay_us"`
	ReleaseDelayUs  int64 `toml:"release_delay_us"`
}

type Trace struct {
	Path string `toml:"path"`
}

type Monitor struct {
	Addr string `toml:"addr"`
}

func ReadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}
	return readConfigString(string(b))
}

func readConfigString(s string) (*Config, error) {
	c := &Config{}
	if err := toml.Unmarshal([]byte(s), c); err != nil {
		return nil, fmt.Errorf("failed to parse config: %v", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	for _, v := range []int64{
		c.Gestures.MovementThreshold,
		c.Gestures.DirectionThreshold,
		c.Gestures.LargeMovementThreshold,
		c.Gestures.DiagonalThreshold,
	} {
		if v < 0 {
			return fmt.Errorf("gesture thresholds must not be negative")
		}
	}
	if c.Synthesis.ModifierDelayUs < 0 || c.Synthesis.ReleaseDelayUs < 0 {
		return fmt.Errorf("synthesis delays must not be negative")
	}

	g, b, f := c.Device.Gesture(), c.Device.Back(), c.Device.Forward()
	if g == b || g == f || b == f {
		return fmt.Errorf("device buttons must be distinct")
	}
	return nil
}

// Thresholds returns the classifier thresholds with unset values filled
// from the defaults.
func (g Gestures) Thresholds() gesture.Thresholds {
	t := gesture.DefaultThresholds()
	if g.MovementThreshold > 0 {
		t.Movement = g.MovementThreshold
	}
	if g.DirectionThreshold > 0 {
		t.Direction = g.DirectionThreshold
	}
	if g.LargeMovementThreshold > 0 {
		t.LargeMovement = g.LargeMovementThreshold
	}
	if g.DiagonalThreshold > 0 {
		t.Diagonal = g.DiagonalThreshold
	}
	return t
}

func (d Device) Gesture() inputevent.Button {
	if d.GestureButton != 0 {
		return inputevent.Button(d.GestureButton)
	}
	return inputevent.Button(DefaultGestureButton)
}

func (d Device) Back() inputevent.Button {
	if d.BackButton != 0 {
		return inputevent.Button(d.BackButton)
	}
	return inputevent.Button(DefaultBackButton)
}

func (d Device) Forward() inputevent.Button {
	if d.ForwardButton != 0 {
		return inputevent.Button(d.ForwardButton)
	}
	return inputevent.Button(DefaultForwardButton)
}

// ModifierDelay is zero when unset, the synthesizer then applies its own
// default.
func (s Synthesis) ModifierDelay() time.Duration {
	return time.Duration(s.ModifierDelayUs) * time.Microsecond
}

func (s Synthesis) ReleaseDelay() time.Duration {
	return time.Duration(s.ReleaseDelayUs) * time.Microsecond
}
