package scene

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"uniform-preview/internal/measure"
)

// Reference body dimensions at which the garment is drawn at unit scale.
const (
	ReferenceHeight        = 170 // cm
	ReferenceShoulderWidth = 45  // cm
)

// ScaleFor maps a record to the garment root scale (width, height, depth).
// Depth is never scaled. Zero or negative dimensions are passed straight through and
// produce a zero or mirrored scale. A nil record maps to unit scale.
func ScaleFor(rec *measure.Record) mgl32.Vec3 {
	if rec == nil {
		return mgl32.Vec3{1, 1, 1}
	}
	return mgl32.Vec3{
		rec.ShoulderWidth / ReferenceShoulderWidth,
		rec.Height / ReferenceHeight,
		1,
	}
}

// ApplyMeasurements overwrites the garment root scale with ScaleFor(rec) and returns it.
// It is the only writer of that scale, and applying the same record twice is a no-op.
// The ground plane and the camera are untouched.
func (s *Scene) ApplyMeasurements(rec *measure.Record) mgl32.Vec3 {
	v := ScaleFor(rec)
	s.setGarmentScale(v)
	return v
}

// Summary is the scale shown to the user, in whole percent.
type Summary struct {
	HeightPercent int
	WidthPercent  int
}

// Summarize rounds the scale for rec to percentages.
func Summarize(rec *measure.Record) Summary {
	v := ScaleFor(rec)
	return Summary{
		HeightPercent: int(math32.Round(v[1] * 100)),
		WidthPercent:  int(math32.Round(v[0] * 100)),
	}
}
