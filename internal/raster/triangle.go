package raster

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// screenVertex is a vertex after the perspective divide and viewport mapping.
type screenVertex struct {
	x, y, z float32
}

// clipNear clips a clip-space triangle against w >= near and returns the resulting
// convex polygon (0, 3 or 4 vertices) in out.
func clipNear(in [3]mgl32.Vec4, near float32, out *[4]mgl32.Vec4) int {
	n := 0
	for i := 0; i < 3; i++ {
		a, b := in[i], in[(i+1)%3]
		aIn, bIn := a[3] >= near, b[3] >= near
		if aIn {
			out[n] = a
			n++
		}
		if aIn != bIn {
			t := (near - a[3]) / (b[3] - a[3])
			out[n] = a.Add(b.Sub(a).Mul(t))
			n++
		}
	}
	return n
}

// toScreen does the perspective divide and maps NDC to pixel coordinates, y down.
func toScreen(c mgl32.Vec4, w, h int) screenVertex {
	inv := 1 / c[3]
	return screenVertex{
		x: (c[0]*inv + 1) * 0.5 * float32(w),
		y: (1 - c[1]*inv) * 0.5 * float32(h),
		z: c[2] * inv,
	}
}

// fill rasterizes one flat-coloured triangle with a depth test. Opaque triangles
// (alpha >= 1) write depth; blended ones only read it.
func (fb *frameBuffer) fill(v [3]screenVertex, rgb [3]float32, alpha float32) {
	w, h := fb.width(), fb.height()
	x0, y0, z0 := v[0].x, v[0].y, v[0].z
	x1, y1, z1 := v[1].x, v[1].y, v[1].z
	x2, y2, z2 := v[2].x, v[2].y, v[2].z

	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if math32.Abs(det) < 1e-8 {
		return
	}
	invDet := 1 / det

	minX := clampInt(int(math32.Floor(math32.Min(x0, math32.Min(x1, x2)))), 0, w-1)
	maxX := clampInt(int(math32.Ceil(math32.Max(x0, math32.Max(x1, x2)))), 0, w-1)
	minY := clampInt(int(math32.Floor(math32.Min(y0, math32.Min(y1, y2)))), 0, h-1)
	maxY := clampInt(int(math32.Ceil(math32.Max(y0, math32.Max(y1, y2)))), 0, h-1)

	dy12, dx21 := y1-y2, x2-x1
	dy20, dx02 := y2-y0, x0-x2

	opaque := alpha >= 1
	sr, sg, sb := rgb[0]*255, rgb[1]*255, rgb[2]*255
	pix := fb.color.Pix
	stride := fb.color.Stride

	for sy := minY; sy <= maxY; sy++ {
		dsy := float32(sy) + 0.5 - y2
		for sx := minX; sx <= maxX; sx++ {
			dsx := float32(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*z0 + w1*z1 + w2*z2
			if z < -1 || z > 1 {
				continue
			}
			di := sy*w + sx
			if z >= fb.depth[di] {
				continue
			}
			pi := sy*stride + sx*4
			if opaque {
				fb.depth[di] = z
				pix[pi] = clamp8(sr)
				pix[pi+1] = clamp8(sg)
				pix[pi+2] = clamp8(sb)
				continue
			}
			inv := 1 - alpha
			pix[pi] = clamp8(sr*alpha + float32(pix[pi])*inv)
			pix[pi+1] = clamp8(sg*alpha + float32(pix[pi+1])*inv)
			pix[pi+2] = clamp8(sb*alpha + float32(pix[pi+2])*inv)
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
