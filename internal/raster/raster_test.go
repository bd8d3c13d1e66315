package raster

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"uniform-preview/internal/measure"
	"uniform-preview/internal/render"
	"uniform-preview/internal/scene"
)

var (
	white = color.NRGBA{0xff, 0xff, 0xff, 0xff}
	red   = color.NRGBA{0xff, 0, 0, 0xff}
	blue  = color.NRGBA{0, 0, 0xff, 0xff}
	black = color.NRGBA{0, 0, 0, 0xff}
)

func acquire(t *testing.T, opts Options, w, h int) *Surface {
	t.Helper()
	opts.Log = zaptest.NewLogger(t)
	s, err := NewFactory(opts).Acquire(context.Background(), w, h)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s.(*Surface)
}

func quad(name string, c color.NRGBA, opacity, z float32) render.Item {
	return render.Item{
		Name:     name,
		Shape:    scene.ShapePlane,
		Size:     mgl32.Vec3{2, 2, 0},
		Material: scene.Material{Color: c, Opacity: opacity},
		Model:    mgl32.Translate3D(0, 0, z),
	}
}

func flatFrame(items ...render.Item) *render.Frame {
	return &render.Frame{
		Camera:     scene.NewCamera(1),
		Background: white,
		Lights:     []scene.Light{{Kind: scene.LightAmbient, Color: white, Intensity: 1}},
		Items:      items,
	}
}

func TestAcquire_Errors(t *testing.T) {
	f := NewFactory(Options{Supersample: 2, MaxPixels: 100 * 100})

	_, err := f.Acquire(context.Background(), 0, 10)
	assert.ErrorIs(t, err, render.ErrUnsupported)

	_, err = f.Acquire(context.Background(), 60, 60)
	assert.ErrorIs(t, err, render.ErrTooLarge)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Acquire(ctx, 10, 10)
	assert.ErrorIs(t, err, context.Canceled)

	s, err := f.Acquire(context.Background(), 50, 50)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID())
	w, h := s.Size()
	assert.Equal(t, 50, w)
	assert.Equal(t, 50, h)
	require.NoError(t, s.Close())
}

func TestRender_DepthOrderIndependentOfDrawOrder(t *testing.T) {
	s := acquire(t, Options{}, 64, 64)
	require.NoError(t, s.Render(flatFrame(
		quad("near", red, 1, 1),
		quad("far", blue, 1, -1),
	)))
	img, err := s.Image()
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0xff, 0, 0, 0xff}, img.RGBAAt(32, 32))
	assert.Equal(t, color.RGBA{0xff, 0xff, 0xff, 0xff}, img.RGBAAt(0, 0))
}

func TestRender_TransparentBlendsOverBackground(t *testing.T) {
	s := acquire(t, Options{}, 32, 32)
	f := flatFrame(quad("glass", black, 0.5, 0))
	f.Lights = nil
	require.NoError(t, s.Render(f))
	img, err := s.Image()
	require.NoError(t, err)
	c := img.RGBAAt(16, 16)
	assert.Equal(t, uint8(128), c.R)
	assert.Equal(t, uint8(128), c.G)
	assert.Equal(t, uint8(128), c.B)
}

func TestRender_TransparentDoesNotHideOpaqueBehind(t *testing.T) {
	s := acquire(t, Options{}, 32, 32)
	f := flatFrame(quad("glass", black, 0.5, 1), quad("wall", red, 1, -1))
	f.Lights = []scene.Light{{Kind: scene.LightAmbient, Color: white, Intensity: 1}}
	require.NoError(t, s.Render(f))
	img, _ := s.Image()
	c := img.RGBAAt(16, 16)
	assert.Equal(t, uint8(128), c.R)
	assert.Equal(t, uint8(0), c.G)
}

func TestRender_GarmentScene(t *testing.T) {
	sc := scene.New()
	sc.Build(measure.Mock())
	s := acquire(t, Options{Supersample: 2}, 80, 80)

	require.NoError(t, s.Render(render.Snapshot(sc, scene.NewCamera(1), scene.DefaultLights(), 0)))
	img, err := s.Image()
	require.NoError(t, err)

	corner := img.RGBAAt(0, 0)
	assert.InDelta(t, 0xf5, corner.R, 1)
	assert.InDelta(t, 0xf5, corner.G, 1)
	assert.InDelta(t, 0xf5, corner.B, 1)
	center := img.RGBAAt(40, 40)
	assert.Less(t, int(center.R)+int(center.G)+int(center.B), 3*0xc0, "dark outer layer in the middle")
	assert.Equal(t, uint64(1), s.Frames())
}

func TestRender_CameraInsideGroundPlane(t *testing.T) {
	s := acquire(t, Options{}, 32, 32)
	f := flatFrame(render.Item{
		Shape:    scene.ShapePlane,
		Size:     mgl32.Vec3{10, 10, 0},
		Material: scene.Material{Color: red, Opacity: 1},
		Model:    mgl32.Translate3D(0, -1, 0).Mul4(mgl32.HomogRotate3DX(-mgl32.DegToRad(90))),
	})
	require.NoError(t, s.Render(f))
	img, _ := s.Image()
	assert.Equal(t, color.RGBA{0xff, 0, 0, 0xff}, img.RGBAAt(16, 31), "floor visible below the horizon")
	assert.Equal(t, color.RGBA{0xff, 0xff, 0xff, 0xff}, img.RGBAAt(16, 0))
}

func TestClose_Idempotent(t *testing.T) {
	s := acquire(t, Options{}, 8, 8)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Render(flatFrame()), render.ErrSurfaceClosed)
	_, err := s.Image()
	assert.ErrorIs(t, err, render.ErrSurfaceClosed)
}

func TestEncode(t *testing.T) {
	s := acquire(t, Options{}, 16, 12)
	require.NoError(t, s.Render(flatFrame(quad("q", red, 1, 0))))

	var buf bytes.Buffer
	require.NoError(t, s.Encode(&buf, FormatPNG))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, 12, img.Bounds().Dy())

	buf.Reset()
	require.NoError(t, s.Encode(&buf, FormatWebP))
	require.Greater(t, buf.Len(), 12)
	assert.Equal(t, "RIFF", string(buf.Bytes()[:4]))
	assert.Equal(t, "WEBP", string(buf.Bytes()[8:12]))

	buf.Reset()
	require.NoError(t, s.Encode(&buf, FormatJPEG))
	assert.Equal(t, []byte{0xff, 0xd8}, buf.Bytes()[:2])

	assert.Error(t, s.Encode(&buf, Format("gif")))
}

func TestSnapshotEvery(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	s := acquire(t, Options{SnapshotDir: dir, SnapshotEvery: 2, Format: FormatPNG}, 8, 8)
	for i := uint64(0); i < 3; i++ {
		f := flatFrame()
		f.Index = i
		require.NoError(t, s.Render(f))
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"frame-000000.png", "frame-000002.png"}, names)
}

func TestSave_PicksFormatFromExtension(t *testing.T) {
	s := acquire(t, Options{}, 8, 8)
	require.NoError(t, s.Render(flatFrame()))
	path := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, s.Save(path))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = png.Decode(f)
	assert.NoError(t, err)
}

func TestSave_CreatesParentDir(t *testing.T) {
	s := acquire(t, Options{}, 8, 8)
	require.NoError(t, s.Render(flatFrame()))
	path := filepath.Join(t.TempDir(), "snapshots", "nested", "shot.webp")
	require.NoError(t, s.Save(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"webp": FormatWebP, ".PNG": FormatPNG, "jpg": FormatJPEG, "jpeg": FormatJPEG} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("bmp")
	assert.Error(t, err)
	assert.Equal(t, FormatJPEG, FormatFromPath("a/b.jpg", FormatWebP))
	assert.Equal(t, FormatWebP, FormatFromPath("a/b", FormatWebP))
}

func TestMeshes(t *testing.T) {
	assert.Len(t, boxMesh(mgl32.Vec3{1, 1, 1}).tris, 12)
	assert.Len(t, planeMesh(1, 1, 8).tris, 128)
	sphere := sphereMesh(1, 8)
	assert.Len(t, sphere.tris, 8*8*2-16)
	for _, v := range sphere.verts {
		assert.InDelta(t, 1, v.Len(), 1e-5)
	}
}

func TestClipNear(t *testing.T) {
	var out [4]mgl32.Vec4
	behind := [3]mgl32.Vec4{{0, 0, 0, -1}, {1, 0, 0, -1}, {0, 1, 0, -1}}
	assert.Equal(t, 0, clipNear(behind, 0.1, &out))

	front := [3]mgl32.Vec4{{0, 0, 0, 1}, {1, 0, 0, 1}, {0, 1, 0, 1}}
	assert.Equal(t, 3, clipNear(front, 0.1, &out))

	oneBehind := [3]mgl32.Vec4{{0, 0, 0, 1}, {1, 0, 0, 1}, {0, 1, 0, -1}}
	require.Equal(t, 4, clipNear(oneBehind, 0.1, &out))
	for _, v := range out {
		assert.GreaterOrEqual(t, v[3], float32(0.1)-1e-6)
	}
}
