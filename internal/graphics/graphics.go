// Package graphics is the windowed GPU backend on raylib. Every call into it must come
// from the thread that acquired the surface; the binary locks main to its OS thread.
package graphics

import (
	"context"
	"fmt"
	"sync"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"uniform-preview/internal/render"
	"uniform-preview/internal/scene"
	"uniform-preview/internal/view"
)

// Options configure the window.
type Options struct {
	Title string
	// FPS caps the window's own frame rate. 0 leaves pacing to the caller.
	FPS     int
	ShowFPS bool
	// OnView is called when a preset key (1 front, 2 side, 3 back) is pressed.
	OnView func(view.Preset)
	Log    *zap.Logger
}

// Factory opens the raylib window. raylib supports one window per process.
type Factory struct {
	opts Options

	mu   sync.Mutex
	open bool
}

func NewFactory(opts Options) *Factory {
	if opts.Title == "" {
		opts.Title = "Uniform preview"
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Factory{opts: opts}
}

func (f *Factory) Name() string { return "raylib" }

// Acquire opens a resizable window of the given size and checks that a GL context came up.
func (f *Factory) Acquire(ctx context.Context, width, height int) (render.Surface, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.open {
		return nil, fmt.Errorf("graphics: window already open: %w", render.ErrUnsupported)
	}

	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(width), int32(height), f.opts.Title)
	if !rl.IsWindowReady() {
		return nil, fmt.Errorf("graphics: no OpenGL context: %w", render.ErrUnsupported)
	}
	rl.SetExitKey(rl.KeyNull)
	if f.opts.FPS > 0 {
		rl.SetTargetFPS(int32(f.opts.FPS))
	}

	s := &Surface{
		id:      uuid.NewString(),
		factory: f,
		opts:    f.opts,
		reg:     newRegistry(),
		overlay: newOverlay(f.opts.ShowFPS),
	}
	s.log = f.opts.Log.With(zap.String("surface", s.id))
	f.open = true
	s.log.Info("window opened", zap.Int("width", width), zap.Int("height", height), zap.Bool("lit", s.reg.lit))
	return s, nil
}

// Surface draws frames into the raylib window.
type Surface struct {
	id      string
	factory *Factory
	opts    Options
	log     *zap.Logger
	reg     *registry
	overlay *overlay
	closed  bool
}

func (s *Surface) ID() string { return s.id }

// Size is the current window size, which follows user resizes.
func (s *Surface) Size() (int, int) {
	if s.closed {
		return 0, 0
	}
	return rl.GetScreenWidth(), rl.GetScreenHeight()
}

// Render polls input, then draws f. It returns render.ErrSurfaceClosed once the user closed the window.
func (s *Surface) Render(f *render.Frame) error {
	if s.closed || rl.WindowShouldClose() {
		return render.ErrSurfaceClosed
	}
	s.pollKeys()

	cam := f.Camera
	opaque, transparent := f.Passes()

	rl.BeginDrawing()
	rl.ClearBackground(rl.NewColor(f.Background.R, f.Background.G, f.Background.B, f.Background.A))
	rl.BeginMode3D(rl.Camera3D{
		Position:   rl.NewVector3(cam.Position[0], cam.Position[1], cam.Position[2]),
		Target:     rl.NewVector3(cam.Target[0], cam.Target[1], cam.Target[2]),
		Up:         rl.NewVector3(cam.Up[0], cam.Up[1], cam.Up[2]),
		Fovy:       cam.Fovy,
		Projection: rl.CameraPerspective,
	})
	s.reg.setLights(f.Lights, cam.Position)
	for _, it := range opaque {
		s.reg.draw(it)
	}
	for _, it := range transparent {
		s.reg.draw(it)
	}
	rl.EndMode3D()
	s.overlay.draw(f.Summary)
	rl.EndDrawing()
	return nil
}

func (s *Surface) pollKeys() {
	if s.opts.OnView == nil {
		return
	}
	keys := [...]struct {
		key    int32
		preset view.Preset
	}{
		{rl.KeyOne, view.Front},
		{rl.KeyTwo, view.Side},
		{rl.KeyThree, view.Back},
	}
	for _, k := range keys {
		if rl.IsKeyPressed(k.key) {
			s.opts.OnView(k.preset)
		}
	}
}

// Close unloads GPU resources and closes the window. Closing twice is a no-op.
func (s *Surface) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.reg.unload()
	rl.CloseWindow()
	s.factory.mu.Lock()
	s.factory.open = false
	s.factory.mu.Unlock()
	s.log.Info("window closed")
	return nil
}

var _ render.Surface = (*Surface)(nil)

// summaryText formats the scale summary shown in the corner.
func summaryText(sum scene.Summary) string {
	return fmt.Sprintf("Height scale %d%%   Width scale %d%%", sum.HeightPercent, sum.WidthPercent)
}
