package preview

import "uniform-preview/internal/scene"

// SpinRate is the garment yaw added on every tick, in radians.
const SpinRate float32 = 0.005

// Spinner is the continuous rotation driver. It runs on every tick, before the view
// controller, so an in-flight transition overwrites its increment.
type Spinner struct {
	Rate float32
}

// Step turns the garment root by one increment.
func (s Spinner) Step(sc *scene.Scene) {
	sc.Spin(s.Rate)
}
