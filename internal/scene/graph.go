package scene

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
)

// NodeID is an opaque handle into a Scene's node arena. Handles stay valid until the next Build.
type NodeID int32

// NoNode is returned by lookups that find nothing.
const NoNode NodeID = -1

// Shape selects the geometry a node draws. Groups draw nothing and only carry a transform.
type Shape uint8

const (
	ShapeGroup Shape = iota
	ShapeBox
	ShapeSphere
	ShapePlane
)

func (s Shape) String() string {
	switch s {
	case ShapeBox:
		return "box"
	case ShapeSphere:
		return "sphere"
	case ShapePlane:
		return "plane"
	default:
		return "group"
	}
}

// Material is the surface description handed to backends. Opacity < 1 means alpha blended.
type Material struct {
	Color     color.NRGBA
	Opacity   float32
	Shininess float32
}

// Transparent reports whether the material needs blending.
func (m Material) Transparent() bool {
	return m.Opacity < 1
}

// Transform is a local position, Euler rotation (XYZ order, radians) and non-uniform scale.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Scale    mgl32.Vec3
}

// IdentityTransform has unit scale and no translation or rotation.
func IdentityTransform() Transform {
	return Transform{Scale: mgl32.Vec3{1, 1, 1}}
}

// Matrix composes translate * rotateX * rotateY * rotateZ * scale.
func (t Transform) Matrix() mgl32.Mat4 {
	m := mgl32.Translate3D(t.Position[0], t.Position[1], t.Position[2])
	if t.Rotation[0] != 0 {
		m = m.Mul4(mgl32.HomogRotate3DX(t.Rotation[0]))
	}
	if t.Rotation[1] != 0 {
		m = m.Mul4(mgl32.HomogRotate3DY(t.Rotation[1]))
	}
	if t.Rotation[2] != 0 {
		m = m.Mul4(mgl32.HomogRotate3DZ(t.Rotation[2]))
	}
	return m.Mul4(mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

// Node is a read-only copy of one scene node. Mutations go through Scene methods only.
//
// Size holds the box extents (width, height, depth), the sphere radius in X, or the
// plane width and height in X and Y. Segments is the sphere tessellation.
type Node struct {
	Name          string
	Shape         Shape
	Size          mgl32.Vec3
	Segments      int
	Material      Material
	Local         Transform
	Parent        NodeID
	CastShadow    bool
	ReceiveShadow bool
}

type entry struct {
	node     Node
	children []NodeID
}

// Scene owns every node in a flat arena. Callers refer to nodes by NodeID and never hold
// pointers into the arena, so the only writers are the methods below.
type Scene struct {
	Background color.NRGBA

	nodes   []entry
	roots   []NodeID
	garment NodeID
	ground  NodeID
}

// New returns an empty scene. Call Build to populate it.
func New() *Scene {
	return &Scene{
		Background: BackgroundColor,
		garment:    NoNode,
		ground:     NoNode,
	}
}

func (s *Scene) reset() {
	s.nodes = s.nodes[:0]
	s.roots = s.roots[:0]
	s.garment = NoNode
	s.ground = NoNode
}

// add appends n under parent (NoNode = scene root) and returns its handle.
func (s *Scene) add(parent NodeID, n Node) NodeID {
	id := NodeID(len(s.nodes))
	n.Parent = parent
	s.nodes = append(s.nodes, entry{node: n})
	if parent == NoNode {
		s.roots = append(s.roots, id)
	} else {
		s.nodes[parent].children = append(s.nodes[parent].children, id)
	}
	return id
}

func (s *Scene) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(s.nodes)
}

// Len returns the number of nodes in the arena.
func (s *Scene) Len() int {
	return len(s.nodes)
}

// Roots returns the nodes owned directly by the scene, in insertion order.
func (s *Scene) Roots() []NodeID {
	out := make([]NodeID, len(s.roots))
	copy(out, s.roots)
	return out
}

// Children returns a copy of id's ordered child list.
func (s *Scene) Children(id NodeID) []NodeID {
	if !s.valid(id) {
		return nil
	}
	kids := s.nodes[id].children
	out := make([]NodeID, len(kids))
	copy(out, kids)
	return out
}

// Node returns a copy of the node behind id.
func (s *Scene) Node(id NodeID) (Node, bool) {
	if !s.valid(id) {
		return Node{}, false
	}
	return s.nodes[id].node, true
}

// Find returns the first node with the given name, or NoNode.
func (s *Scene) Find(name string) NodeID {
	for i := range s.nodes {
		if s.nodes[i].node.Name == name {
			return NodeID(i)
		}
	}
	return NoNode
}

// Garment returns the garment root handle (NoNode before Build).
func (s *Scene) Garment() NodeID {
	return s.garment
}

// Ground returns the ground plane handle (NoNode before Build).
func (s *Scene) Ground() NodeID {
	return s.ground
}

// Yaw returns the garment root's rotation about Y.
func (s *Scene) Yaw() float32 {
	if !s.valid(s.garment) {
		return 0
	}
	return s.nodes[s.garment].node.Local.Rotation[1]
}

// SetYaw overwrites the garment root's rotation about Y.
func (s *Scene) SetYaw(yaw float32) {
	if !s.valid(s.garment) {
		return
	}
	s.nodes[s.garment].node.Local.Rotation[1] = yaw
}

// Spin adds delta to the garment root's rotation about Y.
func (s *Scene) Spin(delta float32) {
	if !s.valid(s.garment) {
		return
	}
	s.nodes[s.garment].node.Local.Rotation[1] += delta
}

// GarmentScale returns the scale currently applied to the garment root.
func (s *Scene) GarmentScale() mgl32.Vec3 {
	if !s.valid(s.garment) {
		return mgl32.Vec3{1, 1, 1}
	}
	return s.nodes[s.garment].node.Local.Scale
}

// setGarmentScale is only called by ApplyMeasurements.
func (s *Scene) setGarmentScale(v mgl32.Vec3) {
	if !s.valid(s.garment) {
		return
	}
	s.nodes[s.garment].node.Local.Scale = v
}

// World returns the model matrix of id, composed from its root down.
func (s *Scene) World(id NodeID) mgl32.Mat4 {
	if !s.valid(id) {
		return mgl32.Ident4()
	}
	m := s.nodes[id].node.Local.Matrix()
	for p := s.nodes[id].node.Parent; p != NoNode; p = s.nodes[p].node.Parent {
		m = s.nodes[p].node.Local.Matrix().Mul4(m)
	}
	return m
}

// Walk visits every node depth-first from the roots, parents before children,
// passing each node's world matrix.
func (s *Scene) Walk(fn func(id NodeID, n Node, world mgl32.Mat4)) {
	var visit func(id NodeID, parent mgl32.Mat4)
	visit = func(id NodeID, parent mgl32.Mat4) {
		e := &s.nodes[id]
		world := parent.Mul4(e.node.Local.Matrix())
		fn(id, e.node, world)
		for _, c := range e.children {
			visit(c, world)
		}
	}
	for _, r := range s.roots {
		visit(r, mgl32.Ident4())
	}
}
