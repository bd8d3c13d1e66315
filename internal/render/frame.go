package render

import (
	"image/color"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"uniform-preview/internal/scene"
)

// Item is one drawable node with its world transform resolved.
type Item struct {
	Name     string
	Shape    scene.Shape
	Size     mgl32.Vec3
	Segments int
	Material scene.Material
	Model    mgl32.Mat4
}

// Center is the world-space origin of the item.
func (it Item) Center() mgl32.Vec3 {
	return it.Model.Col(3).Vec3()
}

// Frame is an immutable draw list. It is built under the viewer lock and handed to a
// Surface outside it, so backends never touch live scene state.
type Frame struct {
	Index      uint64
	Camera     scene.Camera
	Background color.NRGBA
	Lights     []scene.Light
	Items      []Item
	Summary    scene.Summary
}

// Snapshot copies everything drawable out of sc in parent-first order.
func Snapshot(sc *scene.Scene, cam scene.Camera, lights []scene.Light, index uint64) *Frame {
	f := &Frame{
		Index:      index,
		Camera:     cam,
		Background: sc.Background,
		Lights:     append([]scene.Light(nil), lights...),
		Items:      make([]Item, 0, sc.Len()),
	}
	sc.Walk(func(_ scene.NodeID, n scene.Node, world mgl32.Mat4) {
		if n.Shape == scene.ShapeGroup {
			return
		}
		f.Items = append(f.Items, Item{
			Name:     n.Name,
			Shape:    n.Shape,
			Size:     n.Size,
			Segments: n.Segments,
			Material: n.Material,
			Model:    world,
		})
	})
	return f
}

// Passes splits the draw list into opaque items in scene order and transparent items
// sorted far to near from the camera.
func (f *Frame) Passes() (opaque, transparent []Item) {
	for _, it := range f.Items {
		if it.Material.Transparent() {
			transparent = append(transparent, it)
			continue
		}
		opaque = append(opaque, it)
	}
	eye := f.Camera.Position
	sort.SliceStable(transparent, func(i, j int) bool {
		return transparent[i].Center().Sub(eye).Len() > transparent[j].Center().Sub(eye).Len()
	})
	return opaque, transparent
}
