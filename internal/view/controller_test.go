package view

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"
)

type fakeRig struct {
	pos    mgl32.Vec3
	yaw    float32
	lookAt mgl32.Vec3
	looks  int
}

func newRig() *fakeRig {
	return &fakeRig{pos: Front.Target().Camera, lookAt: mgl32.Vec3{9, 9, 9}}
}

func (r *fakeRig) CameraPosition() mgl32.Vec3     { return r.pos }
func (r *fakeRig) SetCameraPosition(p mgl32.Vec3) { r.pos = p }
func (r *fakeRig) LookAt(t mgl32.Vec3)            { r.lookAt = t; r.looks++ }
func (r *fakeRig) Yaw() float32                   { return r.yaw }
func (r *fakeRig) SetYaw(y float32)               { r.yaw = y }

var t0 = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func TestParsePreset(t *testing.T) {
	for _, p := range Presets() {
		got, err := ParsePreset(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	got, err := ParsePreset(" SIDE ")
	require.NoError(t, err)
	assert.Equal(t, Side, got)

	_, err = ParsePreset("top")
	assert.Error(t, err)
}

func TestEase(t *testing.T) {
	assert.Equal(t, float32(0), Ease(0))
	assert.Equal(t, float32(1), Ease(1))
	assert.Equal(t, float32(0.875), Ease(0.5))
}

func TestEase_MonotonicAndAheadOfLinear(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.Float32Range(0, 1).Draw(rt, "a")
		b := rapid.Float32Range(0, 1).Draw(rt, "b")
		if a > b {
			a, b = b, a
		}
		if Ease(a) > Ease(b) {
			rt.Fatalf("ease not monotonic: Ease(%v)=%v > Ease(%v)=%v", a, Ease(a), b, Ease(b))
		}
		if Ease(a) < a-1e-6 {
			rt.Fatalf("ease-out fell behind linear at %v", a)
		}
	})
}

func TestController_Initial(t *testing.T) {
	c := NewController(nil)
	assert.Equal(t, Front, c.Current())
	assert.Equal(t, Front, c.Target())
	assert.Equal(t, Idle, c.State())
	assert.False(t, c.Update(newRig(), t0))
}

func TestController_FrontToSide(t *testing.T) {
	c := NewController(zaptest.NewLogger(t))
	rig := newRig()
	before := rig.pos

	c.Request(rig, Side, t0)
	assert.Equal(t, Transitioning, c.State())
	assert.Equal(t, Side, c.Target())
	assert.Equal(t, Front, c.Current())

	assert.True(t, c.Update(rig, at(0)))
	assert.Equal(t, before, rig.pos)
	assert.Equal(t, mgl32.Vec3{}, rig.lookAt)

	assert.True(t, c.Update(rig, at(500)))
	assert.InDelta(t, 5*0.875, rig.pos[0], 1e-5)
	assert.InDelta(t, 5-5*0.875, rig.pos[2], 1e-5)
	assert.InDelta(t, math.Pi/2*0.875, rig.yaw, 1e-5)

	assert.False(t, c.Update(rig, at(1000)))
	assert.Equal(t, mgl32.Vec3{5, 0, 0}, rig.pos)
	assert.Equal(t, float32(math.Pi/2), rig.yaw)
	assert.Equal(t, Side, c.Current())
	assert.Equal(t, Idle, c.State())
	_, ok := c.Active()
	assert.False(t, ok)
}

func TestController_RedirectStartsFromInterpolated(t *testing.T) {
	c := NewController(nil)
	rig := newRig()

	c.Request(rig, Side, t0)
	c.Update(rig, at(250))
	c.Request(rig, Back, at(500))

	tr, ok := c.Active()
	require.True(t, ok)
	assert.Equal(t, Back, tr.Preset)
	assert.Equal(t, at(500), tr.Start)
	assert.InDelta(t, 4.375, tr.From[0], 1e-5)
	assert.InDelta(t, 0.625, tr.From[2], 1e-5)
	assert.InDelta(t, math.Pi/2*0.875, tr.FromYaw, 1e-5)
	assert.NotEqual(t, Front.Target().Camera, tr.From)
	assert.Equal(t, Front, c.Current(), "the interrupted move never reached side")

	assert.True(t, c.Update(rig, at(500)))
	assert.Equal(t, tr.From, rig.pos)

	assert.False(t, c.Update(rig, at(1500)))
	assert.Equal(t, mgl32.Vec3{0, 0, -5}, rig.pos)
	assert.Equal(t, float32(math.Pi), rig.yaw)
	assert.Equal(t, Back, c.Current())
}

func TestController_RequestAfterCompletionWithoutTick(t *testing.T) {
	c := NewController(nil)
	rig := newRig()
	c.Request(rig, Side, t0)
	c.Request(rig, Back, at(3000))

	assert.Equal(t, Side, c.Current())
	tr, _ := c.Active()
	assert.Equal(t, mgl32.Vec3{5, 0, 0}, tr.From)
}

func TestController_TickRateIndependent(t *testing.T) {
	fast, slow := NewController(nil), NewController(nil)
	fastRig, slowRig := newRig(), newRig()
	fast.Request(fastRig, Back, t0)
	slow.Request(slowRig, Back, t0)

	for ms := 0; ms <= 600; ms += 16 {
		fast.Update(fastRig, at(ms))
	}
	fast.Update(fastRig, at(600))
	slow.Update(slowRig, at(600))
	assert.InDelta(t, slowRig.pos[2], fastRig.pos[2], 1e-6)
	assert.InDelta(t, slowRig.yaw, fastRig.yaw, 1e-6)

	assert.True(t, slow.Update(slowRig, at(999)))
	assert.False(t, slow.Update(slowRig, at(1000)))
}

func TestController_ProgressClamped(t *testing.T) {
	tr := &Transition{Start: t0, Duration: Duration}
	assert.Equal(t, float32(0), tr.Progress(at(-10)))
	assert.Equal(t, float32(0.25), tr.Progress(at(250)))
	assert.Equal(t, float32(1), tr.Progress(at(5000)))
	assert.Equal(t, float32(1), (&Transition{}).Progress(t0))
}

func TestController_LooksAtOriginEveryUpdate(t *testing.T) {
	c := NewController(nil)
	rig := newRig()
	c.Request(rig, Side, t0)
	for ms := 0; ms <= 1000; ms += 100 {
		c.Update(rig, at(ms))
	}
	assert.Equal(t, 11, rig.looks)
}
