package scene

import (
	"fmt"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"uniform-preview/internal/measure"
)

// Node names used by the builder. Backends and tests look parts up by these.
const (
	NameGarment = "garment"
	NameTorso   = "shirt"
	NameLegs    = "pants"
	NameOuter   = "blazer"
	NameCollar  = "collar"
	NameGround  = "ground"
)

// ButtonCount is the number of button markers down the front of the garment.
const ButtonCount = 4

const (
	buttonTop      = 1.0
	buttonStep     = 0.3
	buttonDepth    = 0.17
	buttonRadius   = 0.03
	buttonSegments = 8
	groundSize     = 10
	groundY        = -2.5
	groundOpacity  = 0.3
	partShininess  = 30
)

// Colours of the default uniform.
var (
	BackgroundColor = color.NRGBA{0xf5, 0xf5, 0xf5, 0xff}
	torsoColor      = color.NRGBA{0x4a, 0x90, 0xe2, 0xff}
	legsColor       = color.NRGBA{0x2c, 0x3e, 0x50, 0xff}
	outerColor      = color.NRGBA{0x1a, 0x1a, 0x1a, 0xff}
	collarColor     = color.NRGBA{0xff, 0xff, 0xff, 0xff}
	buttonColor     = color.NRGBA{0x33, 0x33, 0x33, 0xff}
	groundColor     = color.NRGBA{0xcc, 0xcc, 0xcc, 0xff}
)

func solid(c color.NRGBA) Material {
	return Material{Color: c, Opacity: 1, Shininess: partShininess}
}

func box(name string, w, h, d float32, mtl Material, pos mgl32.Vec3) Node {
	t := IdentityTransform()
	t.Position = pos
	return Node{
		Name:          name,
		Shape:         ShapeBox,
		Size:          mgl32.Vec3{w, h, d},
		Material:      mtl,
		Local:         t,
		CastShadow:    true,
		ReceiveShadow: true,
	}
}

// ButtonName returns the node name of the i-th button from the top.
func ButtonName(i int) string {
	return fmt.Sprintf("button-%d", i)
}

// Build replaces the scene contents with the uniform model: a garment root owning
// torso, legs, outer layer, collar and four buttons, plus a ground plane owned by the
// scene itself. Calling Build again discards the previous nodes, so parts are never
// duplicated. The garment is scaled from latest on completion (identity when nil).
func (s *Scene) Build(latest *measure.Record) {
	s.reset()

	s.ground = s.add(NoNode, Node{
		Name:  NameGround,
		Shape: ShapePlane,
		Size:  mgl32.Vec3{groundSize, groundSize, 0},
		Material: Material{
			Color:     groundColor,
			Opacity:   groundOpacity,
			Shininess: partShininess,
		},
		Local: Transform{
			Position: mgl32.Vec3{0, groundY, 0},
			Rotation: mgl32.Vec3{-math.Pi / 2, 0, 0},
			Scale:    mgl32.Vec3{1, 1, 1},
		},
		ReceiveShadow: true,
	})

	s.garment = s.add(NoNode, Node{
		Name:  NameGarment,
		Shape: ShapeGroup,
		Local: IdentityTransform(),
	})

	s.add(s.garment, box(NameTorso, 1.2, 1.5, 0.3, solid(torsoColor), mgl32.Vec3{0, 0.5, 0}))
	s.add(s.garment, box(NameLegs, 1.1, 1.8, 0.25, solid(legsColor), mgl32.Vec3{0, -1.2, 0}))
	// The outer layer sits 0.01 in front of the torso so depth ordering is resolved by
	// geometry, not draw order.
	s.add(s.garment, box(NameOuter, 1.3, 1.6, 0.32, solid(outerColor), mgl32.Vec3{0, 0.5, 0.01}))
	s.add(s.garment, box(NameCollar, 0.8, 0.2, 0.05, solid(collarColor), mgl32.Vec3{0, 1.1, 0.2}))

	for i := 0; i < ButtonCount; i++ {
		t := IdentityTransform()
		t.Position = mgl32.Vec3{0, buttonTop - float32(i)*buttonStep, buttonDepth}
		s.add(s.garment, Node{
			Name:       ButtonName(i),
			Shape:      ShapeSphere,
			Size:       mgl32.Vec3{buttonRadius, buttonRadius, buttonRadius},
			Segments:   buttonSegments,
			Material:   solid(buttonColor),
			Local:      t,
			CastShadow: true,
		})
	}

	s.ApplyMeasurements(latest)
}
