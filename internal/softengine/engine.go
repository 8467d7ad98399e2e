// Package softengine is a pure-Go rendering engine behind the core.Engine
// interface: QuickJS for page scripts, a minimal HTML content model, and a
// software raster surface. It exists so the command dispatcher has a real
// engine to drive without any cgo or OS display dependency.
package softengine

import (
	"fmt"

	"github.com/evanw/esbuild/pkg/api"
	"go.uber.org/zap"

	"github.com/viewbridge/viewbridge/internal/core"
)

const maxViewDim = 16384

// Engine implements core.Engine. It is single-goroutine by contract: the
// dispatcher confines it to the owner goroutine, so no method takes a
// lock around view state.
type Engine struct {
	log       *zap.Logger
	fs        core.FileSystem
	clipboard core.Clipboard
	storage   *pageStorage

	views map[*View]struct{}
	frame uint64
}

// New builds an engine from cfg. The returned engine must only be used
// from the goroutine that calls Update/Render on it.
func New(cfg core.EngineConfig) (core.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	storage, err := openPageStorage(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("initializing page storage: %w", err)
	}
	clipboard := cfg.Clipboard
	if clipboard == nil {
		clipboard = &memClipboard{}
	}
	return &Engine{
		log:       log,
		fs:        cfg.FS,
		clipboard: clipboard,
		storage:   storage,
		views:     make(map[*View]struct{}),
	}, nil
}

func (e *Engine) CreateView(width, height int) (core.View, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid view size %dx%d", width, height)
	}
	if width > maxViewDim || height > maxViewDim {
		return nil, fmt.Errorf("view size %dx%d exceeds %d", width, height, maxViewDim)
	}
	v := &View{
		eng:     e,
		width:   width,
		height:  height,
		surface: newSurface(width, height),
		log:     e.log,
		doc:     newBlankDocument(),
	}
	v.resetScriptContext()
	if v.ctx == nil {
		return nil, fmt.Errorf("creating script context for view")
	}
	v.needsPaint = true
	e.views[v] = struct{}{}
	return v, nil
}

// Update drains pending script microtasks (promise continuations, queued
// jobs) for every live view.
func (e *Engine) Update() {
	for v := range e.views {
		if v.ctx != nil {
			v.ctx.runMicrotasks()
		}
	}
}

// RefreshDisplay advances the frame clock. The software engine has no
// vsync to chase; the counter feeds debug logging only.
func (e *Engine) RefreshDisplay() {
	e.frame++
}

// Render repaints every view whose content changed since the last pass.
func (e *Engine) Render() {
	for v := range e.views {
		if !v.needsPaint {
			continue
		}
		v.surface.writeBGRA(rasterize(v.doc, v.width, v.height))
		v.needsPaint = false
	}
}

// Close tears down all remaining views and releases shared resources.
func (e *Engine) Close() error {
	for v := range e.views {
		v.Close()
	}
	if err := e.storage.close(); err != nil {
		return fmt.Errorf("closing page storage: %w", err)
	}
	return nil
}

// transformModuleScript lowers a <script type="module"> body to a plain
// script the QuickJS context can evaluate directly. Import specifiers are
// not resolved; modules are expected to be self-contained after bundling.
func transformModuleScript(src string) (string, error) {
	result := api.Transform(src, api.TransformOptions{
		Loader: api.LoaderJS,
		Format: api.FormatIIFE,
		Target: api.ES2020,
	})
	if len(result.Errors) > 0 {
		return "", fmt.Errorf("%s", result.Errors[0].Text)
	}
	return string(result.Code), nil
}
