package scene

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a perspective camera. Fovy is in degrees.
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
	Fovy     float32
	Aspect   float32
	Near     float32
	Far      float32
}

// NewCamera returns the preview camera: 75° vertical fov, placed at (0,0,5) looking at the origin.
func NewCamera(aspect float32) Camera {
	if aspect <= 0 {
		aspect = 1
	}
	return Camera{
		Position: mgl32.Vec3{0, 0, 5},
		Up:       mgl32.Vec3{0, 1, 0},
		Fovy:     75,
		Aspect:   aspect,
		Near:     0.1,
		Far:      1000,
	}
}

// LookAt aims the camera at target without moving it.
func (c *Camera) LookAt(target mgl32.Vec3) {
	c.Target = target
}

// View returns the world-to-camera matrix.
func (c Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

// Projection returns the perspective projection matrix.
func (c Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.Fovy), c.Aspect, c.Near, c.Far)
}

// LightKind selects how a light contributes.
type LightKind uint8

const (
	LightAmbient LightKind = iota
	LightDirectional
	LightPoint
)

// Light is one scene light. Position is ignored for ambient lights; directional lights
// shine from Position towards the origin.
type Light struct {
	Kind      LightKind
	Color     color.NRGBA
	Intensity float32
	Position  mgl32.Vec3
}

// DefaultLights returns the soft ambient, key directional and fill point lights.
func DefaultLights() []Light {
	return []Light{
		{Kind: LightAmbient, Color: color.NRGBA{0x40, 0x40, 0x40, 0xff}, Intensity: 0.8},
		{Kind: LightDirectional, Color: color.NRGBA{0xff, 0xff, 0xff, 0xff}, Intensity: 1.0, Position: mgl32.Vec3{10, 10, 5}},
		{Kind: LightPoint, Color: color.NRGBA{0xff, 0xff, 0xff, 0xff}, Intensity: 0.5, Position: mgl32.Vec3{-10, 10, 10}},
	}
}
