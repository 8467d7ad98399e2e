package core

import "go.uber.org/zap"

// Engine is the interface a rendering engine implementation must satisfy.
// An Engine is not reentrant: every method except construction must be
// invoked from the single goroutine that created it. The bridge enforces
// this by funneling all engine calls through its owner goroutine.
type Engine interface {
	// CreateView creates a render surface of the given size.
	CreateView(width, height int) (View, error)

	// Update performs one engine processing step (script jobs, pending
	// loads). Cheap; called repeatedly during warm-up and once per tick.
	Update()

	// RefreshDisplay advances the engine's display timing.
	RefreshDisplay()

	// Render rasterizes every view whose content changed since the last
	// render pass.
	Render()

	// Close destroys all views and releases engine resources.
	Close() error
}

// View is one live render surface inside an Engine.
type View interface {
	LoadHTML(html string)
	LoadURL(url string)
	Focus()

	// EvaluateScript runs a script in the view's script context and
	// returns its result as a string.
	EvaluateScript(script string) (string, error)

	// InstallBindings installs the native send function in the view's
	// script context, making window.go.send available to page scripts.
	// Fails until the view has a script context (i.e. before any content
	// load); a content load discards previously installed bindings.
	InstallBindings(send func(msg string)) error

	// SetConsoleSink registers the callback invoked for every console
	// message emitted by page scripts.
	SetConsoleSink(sink func(msg string))

	FireMouse(e MouseEvent)
	FireScroll(e ScrollEvent)
	FireKey(e KeyEvent)

	Surface() Surface
	Close()
}

// Surface is the pixel backing store of a View. Pixels are BGRA,
// RowBytes() bytes per row. LockPixels/UnlockPixels bracket all reads.
type Surface interface {
	Width() int
	Height() int
	RowBytes() int

	// LockPixels locks the surface and returns its backing buffer. The
	// slice is valid only until UnlockPixels.
	LockPixels() []byte
	UnlockPixels()

	// Dirty reports whether the surface has been repainted since the
	// last ClearDirty.
	Dirty() bool
	ClearDirty()
}

// FileSystem resolves resource requests made by the engine while loading
// content. Open returns the file's bytes, a release callback the engine
// must invoke once it is done with the buffer, and whether the path
// resolved at all.
type FileSystem interface {
	Exists(path string) bool
	MIMEType(path string) string
	Open(path string) (data []byte, release func(), ok bool)
}

// Clipboard is the engine's text clipboard integration point.
type Clipboard interface {
	ReadText() string
	WriteText(s string)
}

// EngineConfig carries the dependencies an Engine implementation needs.
type EngineConfig struct {
	BaseDir   string
	Debug     bool
	FS        FileSystem
	Clipboard Clipboard
	Logger    *zap.Logger
}
