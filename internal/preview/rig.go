package preview

import (
	"github.com/go-gl/mathgl/mgl32"

	"uniform-preview/internal/scene"
)

// rig exposes the viewer's camera and garment yaw to the view controller.
type rig struct {
	cam *scene.Camera
	sc  *scene.Scene
}

func (r rig) CameraPosition() mgl32.Vec3     { return r.cam.Position }
func (r rig) SetCameraPosition(p mgl32.Vec3) { r.cam.Position = p }
func (r rig) LookAt(t mgl32.Vec3)            { r.cam.LookAt(t) }
func (r rig) Yaw() float32                   { return r.sc.Yaw() }
func (r rig) SetYaw(y float32)               { r.sc.SetYaw(y) }
