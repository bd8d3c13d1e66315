package graphics

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"uniform-preview/internal/scene"
)

const (
	fontSize   = 20
	padding    = 12
	lineHeight = fontSize + 4
	// FPS text is rebuilt every refreshFrames frames to limit allocations.
	refreshFrames = 30
)

var overlayColor = rl.NewColor(0x33, 0x33, 0x33, 0xff)

// overlay draws the scale summary top-left and, optionally, the FPS counter top-right.
type overlay struct {
	showFPS bool
	frames  uint32
	fpsText string
	sum     scene.Summary
	sumText string
}

func newOverlay(showFPS bool) *overlay {
	return &overlay{showFPS: showFPS}
}

func (o *overlay) draw(sum scene.Summary) {
	o.frames++
	if o.sumText == "" || sum != o.sum {
		o.sum = sum
		o.sumText = summaryText(sum)
	}
	rl.DrawText(o.sumText, padding, padding, fontSize, overlayColor)
	rl.DrawText("1 front  2 side  3 back", padding, padding+lineHeight, fontSize, overlayColor)

	if !o.showFPS {
		return
	}
	if o.fpsText == "" || o.frames%refreshFrames == 0 {
		o.fpsText = fmt.Sprintf("FPS: %d", rl.GetFPS())
	}
	w := rl.MeasureText(o.fpsText, fontSize)
	rl.DrawText(o.fpsText, int32(rl.GetScreenWidth())-w-padding, padding, fontSize, rl.Green)
}
