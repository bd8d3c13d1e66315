package render

import (
	"context"
	"errors"
)

var (
	// ErrUnsupported means the environment cannot provide a drawing context at all.
	ErrUnsupported = errors.New("render: drawing context unsupported")
	// ErrSurfaceClosed is returned by a surface that has been released or whose window was closed.
	ErrSurfaceClosed = errors.New("render: surface closed")
	// ErrTooLarge means the requested surface would exhaust the backend's resources.
	ErrTooLarge = errors.New("render: surface too large")
)

// Surface owns GPU or memory backed drawing resources for one mount period.
type Surface interface {
	// ID identifies the surface in logs and metrics.
	ID() string
	Size() (width, height int)
	// Render rasterizes one frame. It returns ErrSurfaceClosed once the surface is gone.
	Render(f *Frame) error
	// Close releases every resource. Closing twice is a no-op.
	Close() error
}

// Factory creates surfaces. Acquire must either return a usable surface or release
// everything it allocated before returning the error.
type Factory interface {
	Name() string
	Acquire(ctx context.Context, width, height int) (Surface, error)
}
