package view

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Duration is how long every view change takes in wall-clock time.
const Duration = 1000 * time.Millisecond

// Ease is the cubic ease-out curve 1-(1-p)^3: fast start, slow settle.
func Ease(p float32) float32 {
	inv := 1 - p
	return 1 - inv*inv*inv
}

// Rig is what a transition moves: the camera position and the garment yaw.
// The camera is re-aimed at the origin after every write.
type Rig interface {
	CameraPosition() mgl32.Vec3
	SetCameraPosition(mgl32.Vec3)
	LookAt(mgl32.Vec3)
	Yaw() float32
	SetYaw(float32)
}

// State is the controller's phase.
type State uint8

const (
	Idle State = iota
	Transitioning
)

func (s State) String() string {
	if s == Transitioning {
		return "transitioning"
	}
	return "idle"
}

// Transition is one in-flight move between presets. It only exists while in flight.
type Transition struct {
	Preset   Preset
	From     mgl32.Vec3
	To       mgl32.Vec3
	FromYaw  float32
	ToYaw    float32
	Start    time.Time
	Duration time.Duration
}

// Progress is the clamped fraction of Duration elapsed at now.
func (t *Transition) Progress(now time.Time) float32 {
	if t.Duration <= 0 {
		return 1
	}
	p := float32(now.Sub(t.Start)) / float32(t.Duration)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// Controller drives camera and garment yaw between presets.
// Starts idle at Front. It is not safe for concurrent use; the owner serializes calls.
type Controller struct {
	log     *zap.Logger
	current Preset
	active  *Transition
}

// NewController returns an idle controller at Front.
func NewController(log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{log: log, current: Front}
}

// Current is the last preset reached.
func (c *Controller) Current() Preset {
	return c.current
}

// Target is the preset being moved to, or Current when idle.
func (c *Controller) Target() Preset {
	if c.active != nil {
		return c.active.Preset
	}
	return c.current
}

// State reports idle or transitioning.
func (c *Controller) State() State {
	if c.active != nil {
		return Transitioning
	}
	return Idle
}

// Active returns a copy of the in-flight transition.
func (c *Controller) Active() (Transition, bool) {
	if c.active == nil {
		return Transition{}, false
	}
	return *c.active, true
}

// Request starts a move to p at now. A move already in flight is first advanced to now,
// so the new one starts from where the rig is at that instant and the redirect is smooth.
// The previous transition is dropped.
func (c *Controller) Request(rig Rig, p Preset, now time.Time) {
	if c.active != nil {
		c.Update(rig, now)
	}
	tgt := p.Target()
	c.active = &Transition{
		Preset:   p,
		From:     rig.CameraPosition(),
		To:       tgt.Camera,
		FromYaw:  rig.Yaw(),
		ToYaw:    tgt.Yaw,
		Start:    now,
		Duration: Duration,
	}
	c.log.Debug("view transition requested",
		zap.Stringer("from", c.current),
		zap.Stringer("to", p),
		zap.Float32s("start", c.active.From[:]),
		zap.Float32("startYaw", c.active.FromYaw))
}

// Update writes the interpolated camera position and yaw for now and returns whether the
// transition is still in flight. Elapsed time is recomputed from the wall clock on every call,
// so the move lasts Duration whatever the tick rate. On completion the exact target values are
// written and the controller returns to idle at the new preset.
func (c *Controller) Update(rig Rig, now time.Time) bool {
	t := c.active
	if t == nil {
		return false
	}
	p := t.Progress(now)
	if p >= 1 {
		rig.SetCameraPosition(t.To)
		rig.SetYaw(t.ToYaw)
		rig.LookAt(mgl32.Vec3{})
		c.current = t.Preset
		c.active = nil
		c.log.Debug("view transition finished", zap.Stringer("preset", c.current))
		return false
	}
	e := Ease(p)
	rig.SetCameraPosition(t.From.Add(t.To.Sub(t.From).Mul(e)))
	rig.SetYaw(t.FromYaw + (t.ToYaw-t.FromYaw)*e)
	rig.LookAt(mgl32.Vec3{})
	return true
}

// Transitioning reports whether a move is in flight.
func (c *Controller) Transitioning() bool {
	return c.active != nil
}

// Progress is the raw progress of the in-flight move at now, or 1 when idle.
func (c *Controller) Progress(now time.Time) float32 {
	if c.active == nil {
		return 1
	}
	return c.active.Progress(now)
}
