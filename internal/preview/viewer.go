// Package preview ties the scene, the view controller and a drawing surface into the
// interactive garment preview: it owns the surface for the mount period and drives one
// spin, transition and render step per tick.
package preview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"uniform-preview/internal/measure"
	"uniform-preview/internal/metrics"
	"uniform-preview/internal/render"
	"uniform-preview/internal/scene"
	"uniform-preview/internal/view"
)

// Fallback surface size used while the host reports a zero size.
const (
	DefaultWidth  = 400
	DefaultHeight = 400
	DefaultFPS    = 60
)

// Options configure a Viewer. Factory is required.
type Options struct {
	Factory render.Factory
	// HostSize reports the container size. Zero in either dimension selects the fallback.
	HostSize       func() (width, height int)
	FallbackWidth  int
	FallbackHeight int
	// FPS paces Run. Zero means DefaultFPS, negative means unpaced.
	FPS int
	// Now is the wall clock used for transitions.
	Now     func() time.Time
	Metrics *metrics.Metrics
	Log     *zap.Logger
	// Initial is applied to the garment on the first build.
	Initial *measure.Record
}

// Viewer is the lifecycle manager and render loop. External events (measurements, view
// requests) and the loop share the scene under one mutex; rasterization happens outside it.
type Viewer struct {
	opts Options
	log  *zap.Logger
	spin Spinner

	// lc serializes Mount, Unmount and Tick so a surface is never closed mid-render.
	lc sync.Mutex

	mu      sync.Mutex
	scene   *scene.Scene
	camera  scene.Camera
	lights  []scene.Light
	ctrl    *view.Controller
	latest  *measure.Record
	surface render.Surface
	status  Status
	frame   uint64
	subs    map[int]func(Status)
	nextSub int
	// pending holds status notifications queued under mu and delivered by unlock.
	pending     []func()
	dispatching bool
}

// New returns an unmounted viewer in the Loading phase.
func New(opts Options) (*Viewer, error) {
	if opts.Factory == nil {
		return nil, errors.New("preview: factory is required")
	}
	if opts.FallbackWidth <= 0 {
		opts.FallbackWidth = DefaultWidth
	}
	if opts.FallbackHeight <= 0 {
		opts.FallbackHeight = DefaultHeight
	}
	if opts.FPS == 0 {
		opts.FPS = DefaultFPS
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	v := &Viewer{
		opts:   opts,
		log:    opts.Log.With(zap.String("backend", opts.Factory.Name())),
		spin:   Spinner{Rate: SpinRate},
		scene:  scene.New(),
		camera: scene.NewCamera(1),
		ctrl:   view.NewController(opts.Log),
		latest: opts.Initial,
		status: Status{Phase: Loading, Backend: opts.Factory.Name()},
		subs:   make(map[int]func(Status)),
	}
	opts.Metrics.SetPhase(Loading.String(), phaseNames())
	return v, nil
}

// Mount acquires a surface sized to the host, builds the scene and enters Ready.
// On failure the viewer enters Failed, holds no surface and can be retried.
// Mounting a mounted viewer is a no-op.
func (v *Viewer) Mount(ctx context.Context) error {
	v.lc.Lock()
	defer v.unlock()

	v.mu.Lock()
	if v.surface != nil {
		v.mu.Unlock()
		return nil
	}
	w, h := v.hostSize()
	v.setStatusLocked(Status{Phase: Loading, Backend: v.opts.Factory.Name(), Width: w, Height: h})
	v.mu.Unlock()

	surf, err := v.acquire(ctx, w, h)
	v.opts.Metrics.SurfaceAcquired(v.opts.Factory.Name(), err)
	if err != nil {
		v.log.Error("surface acquisition failed", zap.Int("width", w), zap.Int("height", h), zap.Error(err))
		v.mu.Lock()
		v.setStatusLocked(Status{Phase: Failed, Err: err, Backend: v.opts.Factory.Name(), Width: w, Height: h})
		v.mu.Unlock()
		return fmt.Errorf("preview: mount: %w", err)
	}

	v.mu.Lock()
	v.surface = surf
	v.frame = 0
	v.camera = scene.NewCamera(float32(w) / float32(h))
	v.camera.LookAt(mgl32.Vec3{})
	v.lights = scene.DefaultLights()
	v.ctrl = view.NewController(v.opts.Log)
	v.scene.Build(v.latest)
	v.setStatusLocked(Status{Phase: Ready, Backend: v.opts.Factory.Name(), Surface: surf.ID(), Width: w, Height: h})
	v.mu.Unlock()

	v.log.Info("preview mounted", zap.String("surface", surf.ID()), zap.Int("width", w), zap.Int("height", h))
	return nil
}

func (v *Viewer) hostSize() (int, int) {
	var w, h int
	if v.opts.HostSize != nil {
		w, h = v.opts.HostSize()
	}
	if w <= 0 || h <= 0 {
		return v.opts.FallbackWidth, v.opts.FallbackHeight
	}
	return w, h
}

// acquire asks the factory for a surface, turning a backend panic into an error and
// releasing anything handed back alongside an error.
func (v *Viewer) acquire(ctx context.Context, w, h int) (surf render.Surface, err error) {
	defer func() {
		if r := recover(); r != nil {
			surf = nil
			err = fmt.Errorf("%s backend panicked: %v: %w", v.opts.Factory.Name(), r, render.ErrUnsupported)
		}
	}()
	surf, err = v.opts.Factory.Acquire(ctx, w, h)
	if err != nil && surf != nil {
		surf.Close()
		surf = nil
	}
	if err == nil && surf == nil {
		err = fmt.Errorf("%s backend returned no surface: %w", v.opts.Factory.Name(), render.ErrUnsupported)
	}
	return surf, err
}

// Tick runs one frame: spin, then the view transition, then rasterization.
// It returns ErrNotMounted or ErrDisposed when there is no surface.
func (v *Viewer) Tick() error {
	v.lc.Lock()
	defer v.unlock()

	v.mu.Lock()
	surf := v.surface
	if surf == nil {
		err := ErrNotMounted
		if v.status.Phase == Disposed {
			err = ErrDisposed
		}
		v.mu.Unlock()
		return err
	}
	v.spin.Step(v.scene)
	v.ctrl.Update(rig{cam: &v.camera, sc: v.scene}, v.opts.Now())
	f := render.Snapshot(v.scene, v.camera, v.lights, v.frame)
	f.Summary = scene.Summarize(v.latest)
	v.frame++
	v.mu.Unlock()

	start := time.Now()
	if err := surf.Render(f); err != nil {
		v.opts.Metrics.FrameFailed()
		return fmt.Errorf("preview: render frame %d: %w", f.Index, err)
	}
	v.opts.Metrics.FrameRendered(time.Since(start))
	return nil
}

// Run ticks at the configured rate until ctx is done or the viewer is unmounted. When the
// surface reports it was closed (the user closed the window) the viewer is unmounted and
// Run returns nil. Any other render failure releases the surface, enters Failed and is returned.
func (v *Viewer) Run(ctx context.Context) error {
	limit := rate.Inf
	if v.opts.FPS > 0 {
		limit = rate.Limit(v.opts.FPS)
	}
	lim := rate.NewLimiter(limit, 1)
	for {
		// Wait only fails when ctx ends, or would end, before the next frame is due.
		if err := lim.Wait(ctx); err != nil {
			return nil
		}
		err := v.Tick()
		switch {
		case err == nil:
		case errors.Is(err, ErrDisposed):
			return nil
		case errors.Is(err, ErrNotMounted):
			return err
		case errors.Is(err, render.ErrSurfaceClosed):
			v.log.Info("surface closed by host")
			return v.Unmount()
		default:
			v.fail(err)
			return err
		}
	}
}

// fail drops the surface after a render error and reports Failed.
func (v *Viewer) fail(cause error) {
	v.lc.Lock()
	defer v.unlock()
	v.mu.Lock()
	surf := v.surface
	v.surface = nil
	prev := v.status
	v.setStatusLocked(Status{Phase: Failed, Err: cause, Backend: prev.Backend, Width: prev.Width, Height: prev.Height})
	v.mu.Unlock()
	if surf != nil {
		if err := surf.Close(); err != nil {
			v.log.Warn("surface close failed", zap.Error(err))
		}
	}
	v.log.Error("render failed", zap.Error(cause))
}

// Unmount stops frame submission and releases the surface. It is safe to call repeatedly
// and after a failed mount.
func (v *Viewer) Unmount() error {
	v.lc.Lock()
	defer v.unlock()

	v.mu.Lock()
	surf := v.surface
	v.surface = nil
	if v.status.Phase != Disposed {
		v.setStatusLocked(Status{Phase: Disposed, Backend: v.opts.Factory.Name()})
	}
	frames := v.frame
	v.mu.Unlock()

	var err error
	if surf != nil {
		if err = surf.Close(); err != nil {
			err = fmt.Errorf("preview: release surface %s: %w", surf.ID(), err)
		}
		v.log.Info("preview unmounted", zap.String("surface", surf.ID()), zap.Uint64("frames", frames))
	}
	return err
}

// Retry reruns the whole acquire sequence after releasing whatever is left.
func (v *Viewer) Retry(ctx context.Context) error {
	if err := v.Unmount(); err != nil {
		v.log.Warn("release before retry failed", zap.Error(err))
	}
	return v.Mount(ctx)
}

// OnMeasurementsChanged makes rec the latest record and rescales the garment. Passing the
// record already in force is a no-op. The next tick sees the new scale.
func (v *Viewer) OnMeasurementsChanged(rec *measure.Record) {
	v.mu.Lock()
	if rec == v.latest {
		v.mu.Unlock()
		return
	}
	v.latest = rec
	scale := v.scene.ApplyMeasurements(rec)
	v.mu.Unlock()

	v.opts.Metrics.MeasurementsChanged()
	if rec != nil && rec.Degenerate() {
		v.log.Warn("degenerate measurements", zap.Stringer("record", rec), zap.Float32s("scale", scale[:]))
		return
	}
	v.log.Info("measurements applied", zap.Float32s("scale", scale[:]))
}

// RequestView starts a transition to p from wherever the camera is now.
func (v *Viewer) RequestView(p view.Preset) error {
	v.mu.Lock()
	if v.surface == nil {
		v.mu.Unlock()
		return ErrNotMounted
	}
	v.ctrl.Request(rig{cam: &v.camera, sc: v.scene}, p, v.opts.Now())
	v.mu.Unlock()
	v.opts.Metrics.TransitionRequested(p.String())
	return nil
}

// Status returns the current lifecycle status.
func (v *Viewer) Status() Status {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// Subscribe calls fn with the current status and then on every change. Callbacks run
// after the viewer's locks are released, in the order the changes happened, so fn may
// call Retry, Mount, Unmount or Tick. The returned func removes the subscription.
func (v *Viewer) Subscribe(fn func(Status)) (cancel func()) {
	v.mu.Lock()
	id := v.nextSub
	v.nextSub++
	v.subs[id] = fn
	st := v.status
	v.mu.Unlock()
	fn(st)
	return func() {
		v.mu.Lock()
		delete(v.subs, id)
		v.mu.Unlock()
	}
}

// setStatusLocked stores st and queues a notification for the current subscribers.
// The caller must hold mu; the queue is drained by unlock.
func (v *Viewer) setStatusLocked(st Status) {
	v.status = st
	v.opts.Metrics.SetPhase(st.Phase.String(), phaseNames())
	subs := make([]func(Status), 0, len(v.subs))
	for _, fn := range v.subs {
		subs = append(subs, fn)
	}
	v.pending = append(v.pending, func() {
		for _, fn := range subs {
			fn(st)
		}
	})
}

// unlock releases lc and delivers queued notifications. A call made while another
// goroutine or an outer frame is already delivering leaves the queue to that caller.
func (v *Viewer) unlock() {
	v.lc.Unlock()

	v.mu.Lock()
	if v.dispatching {
		v.mu.Unlock()
		return
	}
	v.dispatching = true
	for len(v.pending) > 0 {
		next := v.pending[0]
		v.pending = v.pending[1:]
		v.mu.Unlock()
		next()
		v.mu.Lock()
	}
	v.dispatching = false
	v.mu.Unlock()
}

// Summary is the scale summary for the latest record.
func (v *Viewer) Summary() scene.Summary {
	v.mu.Lock()
	defer v.mu.Unlock()
	return scene.Summarize(v.latest)
}

// Latest returns the record in force, nil when none arrived yet.
func (v *Viewer) Latest() *measure.Record {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.latest
}

// ViewState is a read-only copy of the camera rig.
type ViewState struct {
	Current       view.Preset
	Target        view.Preset
	Transitioning bool
	Camera        mgl32.Vec3
	Yaw           float32
	Scale         mgl32.Vec3
	Frames        uint64
}

// View reports the camera rig and garment state as of the last tick or event.
func (v *Viewer) View() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return ViewState{
		Current:       v.ctrl.Current(),
		Target:        v.ctrl.Target(),
		Transitioning: v.ctrl.Transitioning(),
		Camera:        v.camera.Position,
		Yaw:           v.scene.Yaw(),
		Scale:         v.scene.GarmentScale(),
		Frames:        v.frame,
	}
}

// saver is implemented by surfaces that can write their last frame to a file.
type saver interface {
	Save(path string) error
}

// SaveSnapshot writes the last rendered frame to path when the backend supports it.
func (v *Viewer) SaveSnapshot(path string) error {
	v.lc.Lock()
	defer v.unlock()
	v.mu.Lock()
	surf := v.surface
	v.mu.Unlock()
	if surf == nil {
		return ErrNotMounted
	}
	s, ok := surf.(saver)
	if !ok {
		return fmt.Errorf("preview: %s surfaces cannot save snapshots: %w", v.opts.Factory.Name(), render.ErrUnsupported)
	}
	return s.Save(path)
}
