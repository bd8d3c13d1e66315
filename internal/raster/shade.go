package raster

import (
	"image/color"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"uniform-preview/internal/scene"
)

const specularStrength = 0.35

type light struct {
	kind  scene.LightKind
	color [3]float32 // pre-multiplied by intensity
	pos   mgl32.Vec3
	dir   mgl32.Vec3 // towards the light, directional only
}

// lighting shades faces with the scene lights: ambient, Lambert diffuse and Blinn-Phong
// highlights. Faces are treated as double sided.
type lighting struct {
	ambient [3]float32
	lights  []light
	eye     mgl32.Vec3
}

func newLighting(lights []scene.Light, eye mgl32.Vec3) lighting {
	l := lighting{eye: eye}
	for _, sl := range lights {
		c := rgb(sl.Color)
		for i := range c {
			c[i] *= sl.Intensity
		}
		switch sl.Kind {
		case scene.LightAmbient:
			for i := range c {
				l.ambient[i] += c[i]
			}
		case scene.LightDirectional:
			dir := sl.Position
			if dir.Len() == 0 {
				dir = mgl32.Vec3{0, 1, 0}
			}
			l.lights = append(l.lights, light{kind: sl.Kind, color: c, dir: dir.Normalize()})
		case scene.LightPoint:
			l.lights = append(l.lights, light{kind: sl.Kind, color: c, pos: sl.Position})
		}
	}
	return l
}

// shade returns the lit colour in [0,1] for a face with normal n at point p.
func (l *lighting) shade(base color.NRGBA, shininess float32, p, n mgl32.Vec3) [3]float32 {
	albedo := rgb(base)
	view := l.eye.Sub(p)
	if view.Len() > 0 {
		view = view.Normalize()
	}
	if n.Dot(view) < 0 {
		n = n.Mul(-1)
	}
	out := [3]float32{
		albedo[0] * l.ambient[0],
		albedo[1] * l.ambient[1],
		albedo[2] * l.ambient[2],
	}
	for _, li := range l.lights {
		dir := li.dir
		if li.kind == scene.LightPoint {
			dir = li.pos.Sub(p)
			if dir.Len() == 0 {
				continue
			}
			dir = dir.Normalize()
		}
		ndl := n.Dot(dir)
		if ndl <= 0 {
			continue
		}
		var spec float32
		if shininess > 0 {
			half := dir.Add(view)
			if half.Len() > 0 {
				spec = math32.Pow(math32.Max(n.Dot(half.Normalize()), 0), shininess) * specularStrength
			}
		}
		for i := range out {
			out[i] += li.color[i] * (albedo[i]*ndl + spec)
		}
	}
	for i := range out {
		out[i] = math32.Min(out[i], 1)
	}
	return out
}

func rgb(c color.NRGBA) [3]float32 {
	return [3]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255}
}
