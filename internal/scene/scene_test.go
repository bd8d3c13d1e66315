package scene

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"uniform-preview/internal/measure"
)

func built(rec *measure.Record) *Scene {
	s := New()
	s.Build(rec)
	return s
}

func TestBuild_Structure(t *testing.T) {
	s := built(nil)

	roots := s.Roots()
	require.Len(t, roots, 2)
	assert.Contains(t, roots, s.Ground())
	assert.Contains(t, roots, s.Garment())

	kids := s.Children(s.Garment())
	require.Len(t, kids, 8)
	names := make([]string, len(kids))
	for i, id := range kids {
		n, ok := s.Node(id)
		require.True(t, ok)
		assert.Equal(t, s.Garment(), n.Parent)
		names[i] = n.Name
	}
	assert.Equal(t, []string{NameTorso, NameLegs, NameOuter, NameCollar,
		ButtonName(0), ButtonName(1), ButtonName(2), ButtonName(3)}, names)

	ground, ok := s.Node(s.Ground())
	require.True(t, ok)
	assert.Equal(t, NoNode, ground.Parent)
	assert.Equal(t, ShapePlane, ground.Shape)
	assert.True(t, ground.Material.Transparent())
	assert.Equal(t, float32(-2.5), ground.Local.Position[1])
	assert.InDelta(t, -math.Pi/2, ground.Local.Rotation[0], 1e-6)
	assert.Empty(t, s.Children(s.Ground()))
}

func TestBuild_Placements(t *testing.T) {
	s := built(nil)
	pos := func(name string) mgl32.Vec3 {
		n, ok := s.Node(s.Find(name))
		require.True(t, ok, name)
		return n.Local.Position
	}
	assert.Equal(t, mgl32.Vec3{0, 0.5, 0}, pos(NameTorso))
	assert.Equal(t, mgl32.Vec3{0, -1.2, 0}, pos(NameLegs))
	assert.Equal(t, mgl32.Vec3{0, 0.5, 0.01}, pos(NameOuter))
	assert.Equal(t, mgl32.Vec3{0, 1.1, 0.2}, pos(NameCollar))
	for i := 0; i < ButtonCount; i++ {
		p := pos(ButtonName(i))
		assert.InDelta(t, 1.0-0.3*float64(i), p[1], 1e-6)
		assert.Equal(t, float32(0.17), p[2])
	}
}

func TestBuild_Rebuild(t *testing.T) {
	s := built(measure.Mock())
	n := s.Len()
	s.Spin(1)
	s.Build(measure.Mock())

	assert.Equal(t, n, s.Len())
	assert.Len(t, s.Roots(), 2)
	assert.Len(t, s.Children(s.Garment()), 8)
	assert.Zero(t, s.Yaw())
}

func TestBuild_AppliesLatest(t *testing.T) {
	s := built(&measure.Record{Height: 340, ShoulderWidth: 45})
	assert.Equal(t, mgl32.Vec3{1, 2, 1}, s.GarmentScale())
}

func TestScaleFor(t *testing.T) {
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, ScaleFor(&measure.Record{Height: 170, ShoulderWidth: 45}))
	assert.Equal(t, mgl32.Vec3{1, 2, 1}, ScaleFor(&measure.Record{Height: 340, ShoulderWidth: 45}))
	assert.Equal(t, float32(0), ScaleFor(&measure.Record{Height: 170, ShoulderWidth: 0})[0])
	assert.Equal(t, float32(-1), ScaleFor(&measure.Record{Height: -170, ShoulderWidth: 45})[1])
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, ScaleFor(nil))
}

func TestApplyMeasurements_Properties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		rec := &measure.Record{
			Height:        rapid.Float32Range(-300, 300).Draw(rt, "height"),
			ShoulderWidth: rapid.Float32Range(-100, 100).Draw(rt, "shoulder"),
			ChestWidth:    rapid.Float32Range(0, 100).Draw(rt, "chest"),
		}
		s := built(measure.Mock())
		groundBefore := s.World(s.Ground())
		s.Spin(rapid.Float32Range(-10, 10).Draw(rt, "yaw"))
		yaw := s.Yaw()

		first := s.ApplyMeasurements(rec)
		second := s.ApplyMeasurements(rec)

		if first != second || s.GarmentScale() != first {
			rt.Fatalf("apply not idempotent: %v then %v", first, second)
		}
		if first[2] != 1 {
			rt.Fatalf("depth scaled: %v", first)
		}
		if s.World(s.Ground()) != groundBefore {
			rt.Fatalf("ground transform changed")
		}
		if s.Yaw() != yaw {
			rt.Fatalf("yaw changed by scaling")
		}
	})
}

func TestWorld_ComposesGarmentScale(t *testing.T) {
	s := built(&measure.Record{Height: 340, ShoulderWidth: 90})
	torso := s.World(s.Find(NameTorso))
	p := torso.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 0, p[0], 1e-6)
	assert.InDelta(t, 1.0, p[1], 1e-6)

	s.SetYaw(math.Pi / 2)
	outer := s.World(s.Find(NameOuter)).Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	// Rotating +90° about Y carries +Z to +X.
	assert.InDelta(t, 0.01, outer[0], 1e-6)
	assert.InDelta(t, 0, outer[2], 1e-6)
}

func TestWalk_VisitsParentsFirst(t *testing.T) {
	s := built(nil)
	seen := map[NodeID]bool{}
	count := 0
	s.Walk(func(id NodeID, n Node, _ mgl32.Mat4) {
		if n.Parent != NoNode {
			assert.True(t, seen[n.Parent], "parent of %s not visited first", n.Name)
		}
		seen[id] = true
		count++
	})
	assert.Equal(t, s.Len(), count)
}

func TestSpinAndYaw(t *testing.T) {
	s := New()
	s.Spin(1)
	s.SetYaw(1)
	assert.Zero(t, s.Yaw(), "yaw writes before Build are ignored")

	s.Build(nil)
	s.Spin(0.005)
	s.Spin(0.005)
	assert.InDelta(t, 0.01, s.Yaw(), 1e-7)
	s.SetYaw(math.Pi)
	assert.Equal(t, float32(math.Pi), s.Yaw())
}

func TestSummarize(t *testing.T) {
	sum := Summarize(&measure.Record{Height: 175, ShoulderWidth: 45})
	assert.Equal(t, 103, sum.HeightPercent)
	assert.Equal(t, 100, sum.WidthPercent)
}

func TestCamera(t *testing.T) {
	c := NewCamera(0)
	assert.Equal(t, float32(1), c.Aspect)
	assert.Equal(t, mgl32.Vec3{0, 0, 5}, c.Position)

	origin := c.View().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, -5, origin[2], 1e-5, "origin is straight ahead")

	c.Position = mgl32.Vec3{5, 0, 0}
	c.LookAt(mgl32.Vec3{})
	origin = c.View().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 0, origin[0], 1e-5)
	assert.InDelta(t, -5, origin[2], 1e-5)
}
