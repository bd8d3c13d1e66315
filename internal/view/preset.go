package view

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Preset is a named viewpoint onto the garment.
type Preset uint8

const (
	Front Preset = iota
	Side
	Back
)

// Presets lists every viewpoint in display order.
func Presets() []Preset {
	return []Preset{Front, Side, Back}
}

func (p Preset) String() string {
	switch p {
	case Front:
		return "front"
	case Side:
		return "side"
	case Back:
		return "back"
	default:
		return fmt.Sprintf("preset(%d)", uint8(p))
	}
}

// ParsePreset accepts the preset names case-insensitively.
func ParsePreset(s string) (Preset, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "front":
		return Front, nil
	case "side":
		return Side, nil
	case "back":
		return Back, nil
	}
	return Front, fmt.Errorf("view: unknown preset %q (want front, side or back)", s)
}

// Target is where a preset puts the camera and the garment.
type Target struct {
	Camera mgl32.Vec3
	Yaw    float32
}

// Target returns the fixed camera position and garment yaw for p.
func (p Preset) Target() Target {
	switch p {
	case Side:
		return Target{Camera: mgl32.Vec3{5, 0, 0}, Yaw: math.Pi / 2}
	case Back:
		return Target{Camera: mgl32.Vec3{0, 0, -5}, Yaw: math.Pi}
	default:
		return Target{Camera: mgl32.Vec3{0, 0, 5}, Yaw: 0}
	}
}
