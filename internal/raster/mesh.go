package raster

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"uniform-preview/internal/render"
	"uniform-preview/internal/scene"
)

const (
	minSphereSegments = 3
	// The ground plane is split into a grid so near-plane clipping stays local to
	// the cells that cross it.
	planeCells = 8
)

// mesh is an indexed triangle list in model space.
type mesh struct {
	verts []mgl32.Vec3
	tris  [][3]int
}

type meshKey struct {
	shape    scene.Shape
	size     mgl32.Vec3
	segments int
}

// meshCache builds each distinct primitive once per surface, on first draw.
type meshCache map[meshKey]*mesh

func (c meshCache) get(it render.Item) *mesh {
	key := meshKey{shape: it.Shape, size: it.Size, segments: it.Segments}
	if m, ok := c[key]; ok {
		return m
	}
	var m *mesh
	switch it.Shape {
	case scene.ShapeBox:
		m = boxMesh(it.Size)
	case scene.ShapeSphere:
		m = sphereMesh(it.Size[0], it.Segments)
	case scene.ShapePlane:
		m = planeMesh(it.Size[0], it.Size[1], planeCells)
	default:
		m = &mesh{}
	}
	c[key] = m
	return m
}

// boxMesh is an axis-aligned box centred on the origin.
func boxMesh(size mgl32.Vec3) *mesh {
	x, y, z := size[0]/2, size[1]/2, size[2]/2
	return &mesh{
		verts: []mgl32.Vec3{
			{-x, -y, z}, {x, -y, z}, {x, y, z}, {-x, y, z},
			{-x, -y, -z}, {x, -y, -z}, {x, y, -z}, {-x, y, -z},
		},
		tris: [][3]int{
			{0, 1, 2}, {0, 2, 3}, // front
			{5, 4, 7}, {5, 7, 6}, // back
			{4, 0, 3}, {4, 3, 7}, // left
			{1, 5, 6}, {1, 6, 2}, // right
			{3, 2, 6}, {3, 6, 7}, // top
			{4, 5, 1}, {4, 1, 0}, // bottom
		},
	}
}

// sphereMesh is a UV sphere with segments rings and segments slices.
func sphereMesh(radius float32, segments int) *mesh {
	if segments < minSphereSegments {
		segments = minSphereSegments
	}
	m := &mesh{}
	for i := 0; i <= segments; i++ {
		theta := math.Pi * float32(i) / float32(segments)
		st, ct := math32.Sin(theta), math32.Cos(theta)
		for j := 0; j <= segments; j++ {
			phi := 2 * math.Pi * float32(j) / float32(segments)
			sp, cp := math32.Sin(phi), math32.Cos(phi)
			m.verts = append(m.verts, mgl32.Vec3{radius * st * cp, radius * ct, radius * st * sp})
		}
	}
	row := segments + 1
	for i := 0; i < segments; i++ {
		for j := 0; j < segments; j++ {
			a := i*row + j
			b := a + row
			if i != 0 {
				m.tris = append(m.tris, [3]int{a, b, a + 1})
			}
			if i != segments-1 {
				m.tris = append(m.tris, [3]int{b, b + 1, a + 1})
			}
		}
	}
	return m
}

// planeMesh lies in the XY plane, centred on the origin, split into cells x cells quads.
func planeMesh(w, h float32, cells int) *mesh {
	m := &mesh{}
	for i := 0; i <= cells; i++ {
		y := h * (float32(i)/float32(cells) - 0.5)
		for j := 0; j <= cells; j++ {
			x := w * (float32(j)/float32(cells) - 0.5)
			m.verts = append(m.verts, mgl32.Vec3{x, y, 0})
		}
	}
	row := cells + 1
	for i := 0; i < cells; i++ {
		for j := 0; j < cells; j++ {
			a := i*row + j
			b := a + row
			m.tris = append(m.tris, [3]int{a, a + 1, b + 1}, [3]int{a, b + 1, b})
		}
	}
	return m
}
