package prefabs

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// TuningFile is the default gameplay tuning spec.
const TuningFile = "goldrush.yaml"

var ErrInvalidTuning = errors.New("prefabs: invalid tuning")

// ErrPlayfieldResized is returned by CheckReload when a reloaded tuning
// changes the window size, which is fixed once the game window is open.
var ErrPlayfieldResized = errors.New("prefabs: playfield size cannot change at runtime")

// Tuning holds every gameplay constant of the gold rush round.
type Tuning struct {
	Name        string          `yaml:"name"`
	Source      Source          `yaml:"-"`
	Playfield   PlayfieldSpec   `yaml:"playfield"`
	Round       RoundSpec       `yaml:"round"`
	Grabber     GrabberSpec     `yaml:"grabber"`
	Collectible CollectibleSpec `yaml:"collectible"`
	HUD         HUDSpec         `yaml:"hud"`
}

type PlayfieldSpec struct {
	Width      float64   `yaml:"width"`
	Height     float64   `yaml:"height"`
	Background YAMLColor `yaml:"background"`
}

type RoundSpec struct {
	DurationSeconds int `yaml:"duration_seconds"`
	EndDelayMS      int `yaml:"end_delay_ms"`
}

type GrabberSpec struct {
	Width      float64   `yaml:"width"`
	Height     float64   `yaml:"height"`
	RestOffset float64   `yaml:"rest_offset"`
	MoveStep   float64   `yaml:"move_step"`
	DropSpeed  float64   `yaml:"drop_speed"`
	ArmLength  float64   `yaml:"arm_length"`
	ArmSpread  float64   `yaml:"arm_spread"`
	ArmWidth   float64   `yaml:"arm_width"`
	CableWidth float64   `yaml:"cable_width"`
	ArmColor   YAMLColor `yaml:"arm_color"`
	CableColor YAMLColor `yaml:"cable_color"`
}

type CollectibleSpec struct {
	Radius          float64   `yaml:"radius"`
	Speed           float64   `yaml:"speed"`
	SpawnIntervalMS int       `yaml:"spawn_interval_ms"`
	BandMin         float64   `yaml:"band_min"`
	Fill            YAMLColor `yaml:"fill"`
	Stroke          YAMLColor `yaml:"stroke"`
}

type HUDSpec struct {
	Color     YAMLColor `yaml:"color"`
	ScoreX    float64   `yaml:"score_x"`
	TimeInset float64   `yaml:"time_inset"`
	Baseline  float64   `yaml:"baseline"`
}

// DefaultTuning mirrors goldrush.yaml so a missing or partial file still
// yields a playable round.
func DefaultTuning() Tuning {
	return Tuning{
		Name: "goldrush",
		Playfield: PlayfieldSpec{
			Width:      500,
			Height:     400,
			Background: YAMLColor{color.NRGBA{R: 0xf8, G: 0xf8, B: 0xe8, A: 0xff}},
		},
		Round: RoundSpec{DurationSeconds: 30, EndDelayMS: 500},
		Grabber: GrabberSpec{
			Width:      60,
			Height:     20,
			RestOffset: 40,
			MoveStep:   8,
			DropSpeed:  8,
			ArmLength:  30,
			ArmSpread:  18,
			ArmWidth:   6,
			CableWidth: 2,
			ArmColor:   YAMLColor{color.NRGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff}},
			CableColor: YAMLColor{color.NRGBA{R: 0x44, G: 0x44, B: 0x44, A: 0xff}},
		},
		Collectible: CollectibleSpec{
			Radius:          18,
			Speed:           2,
			SpawnIntervalMS: 400,
			BandMin:         100,
			Fill:            YAMLColor{color.NRGBA{R: 0xff, G: 0xd7, B: 0x00, A: 0xff}},
			Stroke:          YAMLColor{color.NRGBA{R: 0xb8, G: 0x86, B: 0x0b, A: 0xff}},
		},
		HUD: HUDSpec{
			Color:     YAMLColor{color.NRGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}},
			ScoreX:    10,
			TimeInset: 110,
			Baseline:  30,
		},
	}
}

// LoadTuning reads name (disk override first, then the embedded copy) on top
// of DefaultTuning and validates the result.
func LoadTuning(name string) (Tuning, error) {
	if name == "" {
		name = TuningFile
	}
	data, src, err := Load(name)
	if err != nil {
		return Tuning{}, fmt.Errorf("prefabs: load %s: %w", name, err)
	}
	t, err := ParseTuning(data)
	if err != nil {
		return Tuning{}, fmt.Errorf("prefabs: %s (%s): %w", name, src, err)
	}
	t.Source = src
	return t, nil
}

// ParseTuning decodes a tuning document on top of DefaultTuning.
func ParseTuning(data []byte) (Tuning, error) {
	t := DefaultTuning()
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tuning{}, fmt.Errorf("prefabs: unmarshal tuning: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, err
	}
	return t, nil
}

func (t Tuning) Validate() error {
	var problems []string
	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	check(t.Playfield.Width > 0 && t.Playfield.Height > 0, "playfield must have a positive size")
	check(t.Round.DurationSeconds > 0, "round.duration_seconds must be positive")
	check(t.Round.EndDelayMS >= 0, "round.end_delay_ms must not be negative")
	check(t.Grabber.Width > 0 && t.Grabber.Width <= t.Playfield.Width, "grabber.width must fit the playfield")
	check(t.Grabber.Height >= 0 && t.Grabber.Height < t.Playfield.Height, "grabber.height must fit the playfield")
	check(t.Grabber.RestOffset >= 0 && t.Grabber.RestOffset <= t.Playfield.Height-t.Grabber.Height, "grabber.rest_offset must lie above the floor")
	check(t.Grabber.MoveStep > 0, "grabber.move_step must be positive")
	check(t.Grabber.DropSpeed > 0, "grabber.drop_speed must be positive")
	check(t.Collectible.Radius > 0, "collectible.radius must be positive")
	check(t.Collectible.Speed > 0, "collectible.speed must be positive")
	check(t.Collectible.SpawnIntervalMS > 0, "collectible.spawn_interval_ms must be positive")
	check(t.Collectible.BandMin >= 0 && t.Collectible.BandMin < t.Playfield.Height, "collectible.band_min must lie inside the playfield")

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTuning, strings.Join(problems, "; "))
	}
	return nil
}

// CheckReload reports whether next can replace t in a running game.
func (t Tuning) CheckReload(next Tuning) error {
	if next.Playfield.Width != t.Playfield.Width || next.Playfield.Height != t.Playfield.Height {
		return fmt.Errorf("%w: %gx%g -> %gx%g", ErrPlayfieldResized,
			t.Playfield.Width, t.Playfield.Height, next.Playfield.Width, next.Playfield.Height)
	}
	return nil
}

func (r RoundSpec) EndDelay() time.Duration {
	return time.Duration(r.EndDelayMS) * time.Millisecond
}

func (c CollectibleSpec) SpawnInterval() time.Duration {
	return time.Duration(c.SpawnIntervalMS) * time.Millisecond
}

type YAMLColor struct {
	color.Color
}

// OrDefault returns the wrapped colour, or fallback when none was decoded.
func (c YAMLColor) OrDefault(fallback color.Color) color.Color {
	if c.Color == nil {
		return fallback
	}
	return c.Color
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}

	s := strings.TrimPrefix(value.Value, "#")

	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid color format: %s", value.Value)
	}

	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return uint8(v), err
	}

	r, err := parse(0)
	if err != nil {
		return err
	}
	g, err := parse(2)
	if err != nil {
		return err
	}
	b, err := parse(4)
	if err != nil {
		return err
	}

	a := uint8(255)
	if len(s) == 8 {
		a, err = parse(6)
		if err != nil {
			return err
		}
	}

	c.Color = color.NRGBA{R: r, G: g, B: b, A: a}
	return nil
}
