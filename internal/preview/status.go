package preview

import "errors"

var (
	// ErrNotMounted is returned by operations that need a surface before Mount succeeded.
	ErrNotMounted = errors.New("preview: not mounted")
	// ErrDisposed is returned by the loop once Unmount released the surface.
	ErrDisposed = errors.New("preview: disposed")
)

// Phase is the lifecycle signal reported to the host.
type Phase uint8

const (
	Loading Phase = iota
	Ready
	Failed
	Disposed
)

// Phases lists every phase in declaration order.
func Phases() []Phase {
	return []Phase{Loading, Ready, Failed, Disposed}
}

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "error"
	case Disposed:
		return "disposed"
	}
	return "unknown"
}

// Status is a lifecycle snapshot. Err is set only in the Failed phase; a Failed viewer
// holds no surface and recovers through Retry.
type Status struct {
	Phase   Phase
	Err     error
	Backend string
	Surface string
	Width   int
	Height  int
}

// Message is the text shown to the user for the Failed phase, empty otherwise.
func (s Status) Message() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

func (s Status) String() string {
	if s.Phase == Failed {
		return "error: " + s.Message()
	}
	return s.Phase.String()
}

func phaseNames() []string {
	all := Phases()
	names := make([]string, len(all))
	for i, p := range all {
		names[i] = p.String()
	}
	return names
}
