package raster

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
)

// frameBuffer is the supersampled render target. Depth holds NDC z per pixel; smaller is nearer.
type frameBuffer struct {
	color *image.RGBA
	depth []float32
}

func newFrameBuffer(w, h int) *frameBuffer {
	return &frameBuffer{
		color: image.NewRGBA(image.Rect(0, 0, w, h)),
		depth: make([]float32, w*h),
	}
}

func (fb *frameBuffer) width() int  { return fb.color.Rect.Dx() }
func (fb *frameBuffer) height() int { return fb.color.Rect.Dy() }

// clear fills the colour buffer with bg and resets depth to +Inf.
func (fb *frameBuffer) clear(bg color.NRGBA) {
	pix := fb.color.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i] = bg.R
		pix[i+1] = bg.G
		pix[i+2] = bg.B
		pix[i+3] = 0xff
	}
	inf := math32.Inf(1)
	for i := range fb.depth {
		fb.depth[i] = inf
	}
}
