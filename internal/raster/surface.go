// Package raster is a headless software backend: it rasterizes frames into memory with a
// depth buffer, flat shading and alpha blending, then downsamples the supersampled buffer.
package raster

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"uniform-preview/internal/render"
)

// DefaultMaxPixels caps the supersampled buffer at 64 megapixels.
const DefaultMaxPixels = 8192 * 8192

// Options configure surfaces made by a Factory.
type Options struct {
	// Supersample renders at this multiple of the requested size and downsamples. Values < 1 mean 1.
	Supersample int
	// MaxPixels is the largest supersampled buffer Acquire will allocate. 0 means DefaultMaxPixels.
	MaxPixels int
	// SnapshotDir receives an encoded frame every SnapshotEvery frames when both are set.
	SnapshotDir   string
	SnapshotEvery int
	Format        Format
	Log           *zap.Logger
}

// Factory acquires raster surfaces.
type Factory struct {
	opts Options
}

// NewFactory fills option defaults and returns a factory.
func NewFactory(opts Options) *Factory {
	if opts.Supersample < 1 {
		opts.Supersample = 1
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = DefaultMaxPixels
	}
	if opts.Format == "" {
		opts.Format = FormatWebP
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Factory{opts: opts}
}

func (f *Factory) Name() string { return "raster" }

// Acquire allocates a width x height surface.
func (f *Factory) Acquire(ctx context.Context, width, height int) (render.Surface, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("raster: invalid size %dx%d: %w", width, height, render.ErrUnsupported)
	}
	ss := f.opts.Supersample
	if (width*ss)*(height*ss) > f.opts.MaxPixels {
		return nil, fmt.Errorf("raster: %dx%d at %dx supersample: %w", width, height, ss, render.ErrTooLarge)
	}
	if f.opts.SnapshotDir != "" && f.opts.SnapshotEvery > 0 {
		if err := os.MkdirAll(f.opts.SnapshotDir, 0o755); err != nil {
			return nil, fmt.Errorf("raster: snapshot dir: %w", err)
		}
	}
	s := &Surface{
		id:     uuid.NewString(),
		width:  width,
		height: height,
		opts:   f.opts,
		fb:     newFrameBuffer(width*ss, height*ss),
		out:    image.NewRGBA(image.Rect(0, 0, width, height)),
		meshes: make(meshCache),
	}
	s.log = f.opts.Log.With(zap.String("surface", s.id))
	s.log.Info("raster surface acquired", zap.Int("width", width), zap.Int("height", height), zap.Int("supersample", ss))
	return s, nil
}

// Surface is an in-memory render target. It is safe for concurrent use.
type Surface struct {
	id            string
	width, height int
	opts          Options
	log           *zap.Logger

	mu     sync.Mutex
	fb     *frameBuffer
	out    *image.RGBA
	meshes meshCache
	frames uint64
	closed bool
}

func (s *Surface) ID() string { return s.id }

func (s *Surface) Size() (int, int) { return s.width, s.height }

// Frames is the number of frames rendered so far.
func (s *Surface) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Render draws f: opaque items first with depth writes, then transparent items far to near.
func (s *Surface) Render(f *render.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return render.ErrSurfaceClosed
	}

	s.fb.clear(f.Background)
	cam := f.Camera
	vp := cam.Projection().Mul4(cam.View())
	lit := newLighting(f.Lights, cam.Position)

	opaque, transparent := f.Passes()
	for _, it := range opaque {
		s.drawItem(it, vp, cam.Near, &lit)
	}
	for _, it := range transparent {
		s.drawItem(it, vp, cam.Near, &lit)
	}

	if s.opts.Supersample > 1 {
		draw.CatmullRom.Scale(s.out, s.out.Bounds(), s.fb.color, s.fb.color.Bounds(), draw.Src, nil)
	} else {
		copy(s.out.Pix, s.fb.color.Pix)
	}
	s.frames++

	if s.opts.SnapshotDir != "" && s.opts.SnapshotEvery > 0 && f.Index%uint64(s.opts.SnapshotEvery) == 0 {
		name := filepath.Join(s.opts.SnapshotDir, fmt.Sprintf("frame-%06d.%s", f.Index, s.opts.Format.Ext()))
		if err := s.writeFile(name, s.opts.Format); err != nil {
			s.log.Warn("snapshot failed", zap.String("path", name), zap.Error(err))
		}
	}
	return nil
}

func (s *Surface) drawItem(it render.Item, vp mgl32.Mat4, near float32, lit *lighting) {
	m := s.meshes.get(it)
	if len(m.tris) == 0 {
		return
	}
	mvp := vp.Mul4(it.Model)
	alpha := it.Material.Opacity
	w, h := s.fb.width(), s.fb.height()

	var poly [4]mgl32.Vec4
	for _, tri := range m.tris {
		var world [3]mgl32.Vec3
		var clip [3]mgl32.Vec4
		for k, vi := range tri {
			local := m.verts[vi].Vec4(1)
			world[k] = it.Model.Mul4x1(local).Vec3()
			clip[k] = mvp.Mul4x1(local)
		}
		normal := world[1].Sub(world[0]).Cross(world[2].Sub(world[0]))
		if normal.Len() < 1e-12 {
			continue
		}
		center := world[0].Add(world[1]).Add(world[2]).Mul(1.0 / 3)
		col := lit.shade(it.Material.Color, it.Material.Shininess, center, normal.Normalize())

		n := clipNear(clip, near, &poly)
		if n < 3 {
			continue
		}
		first := toScreen(poly[0], w, h)
		for k := 1; k+1 < n; k++ {
			s.fb.fill([3]screenVertex{first, toScreen(poly[k], w, h), toScreen(poly[k+1], w, h)}, col, alpha)
		}
	}
}

// Image returns a copy of the last rendered frame.
func (s *Surface) Image() (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, render.ErrSurfaceClosed
	}
	img := image.NewRGBA(s.out.Rect)
	copy(img.Pix, s.out.Pix)
	return img, nil
}

// Encode writes the last rendered frame to w.
func (s *Surface) Encode(w io.Writer, f Format) error {
	img, err := s.Image()
	if err != nil {
		return err
	}
	return Encode(w, img, f)
}

// Save writes the last rendered frame to path, choosing the format from its extension.
func (s *Surface) Save(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return render.ErrSurfaceClosed
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("raster: snapshot dir: %w", err)
	}
	return s.writeFile(path, FormatFromPath(path, s.opts.Format))
}

func (s *Surface) writeFile(path string, f Format) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("raster: create %s: %w", path, err)
	}
	if err := Encode(file, s.out, f); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Close drops the buffers. Closing twice is a no-op.
func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.fb = nil
	s.out = nil
	s.meshes = nil
	s.log.Info("raster surface released", zap.Uint64("frames", s.frames))
	return nil
}
