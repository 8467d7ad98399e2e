package softengine

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/viewbridge/viewbridge/internal/core"
)

// View is one software-rendered page: a parsed content model, a raster
// surface, and a QuickJS script context. All methods must be called from
// the engine's owning goroutine.
type View struct {
	eng     *Engine
	width   int
	height  int
	surface *Surface
	log     *zap.Logger

	doc    *document
	origin string
	ctx    *scriptContext

	consoleSink func(string)

	focused    bool
	needsPaint bool
	closed     bool

	mouseX, mouseY int
	buttonDown     bool
}

// LoadHTML replaces the view's content with the given markup.
func (v *View) LoadHTML(html string) {
	if v.closed {
		return
	}
	v.loadContent([]byte(html), "about:blank")
}

// LoadURL loads content addressed by url. file:/// URLs and bare virtual
// paths resolve through the engine's file system; remote schemes and
// misses render a load-failure page instead of erroring.
func (v *View) LoadURL(url string) {
	if v.closed {
		return
	}
	lower := strings.ToLower(url)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		v.log.Warn("remote URL loads are not supported", zap.String("url", url))
		v.loadFailure(url)
		return
	}
	if v.eng.fs == nil {
		v.loadFailure(url)
		return
	}
	data, release, ok := v.eng.fs.Open(url)
	if !ok {
		v.log.Warn("resource not found", zap.String("url", url))
		v.loadFailure(url)
		return
	}
	v.loadContent(data, url)
	release()
}

func (v *View) loadFailure(url string) {
	doc := newBlankDocument()
	doc.Title = "Failed to load"
	doc.Text = []string{url}
	v.origin = url
	v.doc = doc
	v.resetScriptContext()
	v.needsPaint = true
}

func (v *View) loadContent(data []byte, origin string) {
	doc, err := parseDocument(data)
	if err != nil {
		v.log.Warn("content parse failed", zap.String("origin", origin), zap.Error(err))
		doc = newBlankDocument()
	}
	v.origin = origin
	v.doc = doc
	v.resetScriptContext()
	v.runDocumentScripts()
	v.needsPaint = true
}

// resetScriptContext tears down the current script context and builds a
// fresh one with the page environment installed. This is what makes a
// content load reset page script state (and discard installed bindings).
func (v *View) resetScriptContext() {
	if v.ctx != nil {
		v.ctx.close()
		v.ctx = nil
	}
	ctx, err := newScriptContext()
	if err != nil {
		v.log.Error("creating script context", zap.Error(err))
		return
	}

	natives := []struct {
		name string
		fn   any
	}{
		{"__console", func(level, msg string) { v.emitConsole(msg) }},
		{"__getTitle", func() string { return v.doc.Title }},
		{"__setTitle", func(t string) {
			v.doc.Title = t
			v.needsPaint = true
		}},
		// Returns 0/1 rather than bool: quickjs v0.12.x cannot convert a
		// Go bool to a JS value, and the prelude only tests truthiness.
		{"__lsHas", func(k string) int {
			_, ok, err := v.eng.storage.get(v.origin, k)
			if err != nil {
				v.log.Warn("localStorage read", zap.Error(err))
			}
			if ok {
				return 1
			}
			return 0
		}},
		{"__lsGet", func(k string) string {
			val, _, err := v.eng.storage.get(v.origin, k)
			if err != nil {
				v.log.Warn("localStorage read", zap.Error(err))
			}
			return val
		}},
		{"__lsSet", func(k, val string) {
			if err := v.eng.storage.set(v.origin, k, val); err != nil {
				v.log.Warn("localStorage write", zap.Error(err))
			}
		}},
		{"__lsRemove", func(k string) {
			if err := v.eng.storage.remove(v.origin, k); err != nil {
				v.log.Warn("localStorage remove", zap.Error(err))
			}
		}},
		{"__lsClear", func() {
			if err := v.eng.storage.clear(v.origin); err != nil {
				v.log.Warn("localStorage clear", zap.Error(err))
			}
		}},
		{"__clipboardRead", func() string { return v.eng.clipboard.ReadText() }},
		{"__clipboardWrite", func(t string) { v.eng.clipboard.WriteText(t) }},
	}
	for _, n := range natives {
		if err := ctx.registerFunc(n.name, n.fn); err != nil {
			v.log.Error("registering native", zap.String("name", n.name), zap.Error(err))
			ctx.close()
			return
		}
	}

	if err := ctx.eval(preludeJS); err != nil {
		v.log.Error("installing prelude", zap.Error(err))
		ctx.close()
		return
	}
	v.ctx = ctx
}

// runDocumentScripts executes the document's <script> elements in order.
// External sources resolve through the engine's file system; module
// scripts are transformed to plain scripts first. Script errors surface
// as console messages, never as load failures.
func (v *View) runDocumentScripts() {
	if v.ctx == nil {
		return
	}
	for _, tag := range v.doc.Scripts {
		code := tag.Code
		if tag.Src != "" {
			resolved := resolveSrc(v.origin, tag.Src)
			if v.eng.fs == nil {
				v.emitConsole("Failed to load script: " + resolved)
				continue
			}
			data, release, ok := v.eng.fs.Open(resolved)
			if !ok {
				v.emitConsole("Failed to load script: " + resolved)
				continue
			}
			code = string(data)
			release()
		}
		if tag.Module {
			out, err := transformModuleScript(code)
			if err != nil {
				v.emitConsole("Uncaught SyntaxError: " + err.Error())
				continue
			}
			code = out
		}
		if err := v.ctx.eval(code); err != nil {
			v.emitConsole("Uncaught " + err.Error())
		}
	}
	v.ctx.runMicrotasks()
}

func (v *View) emitConsole(msg string) {
	if v.consoleSink != nil {
		v.consoleSink(msg)
	}
}

// Focus gives this view keyboard focus within the engine.
func (v *View) Focus() {
	for other := range v.eng.views {
		other.focused = false
	}
	v.focused = true
}

// EvaluateScript runs a script in the page's context and returns the
// result as a string.
func (v *View) EvaluateScript(script string) (string, error) {
	if v.closed {
		return "", fmt.Errorf("view is closed")
	}
	if v.ctx == nil {
		return "", fmt.Errorf("view has no script context")
	}
	result, err := v.ctx.evalString(script)
	if err != nil {
		return "", err
	}
	// Scripts may mutate visible state; repaint on the next render pass.
	v.needsPaint = true
	return result, nil
}

// InstallBindings registers the native send function and publishes it as
// window.go.send. Must be reinstalled after every content load.
func (v *View) InstallBindings(send func(msg string)) error {
	if v.closed {
		return fmt.Errorf("view is closed")
	}
	if v.ctx == nil {
		return fmt.Errorf("view has no script context")
	}
	if err := v.ctx.registerFunc("__viewSend", func(msg string) { send(msg) }); err != nil {
		return fmt.Errorf("registering send function: %w", err)
	}
	if err := v.ctx.eval(goNamespaceJS); err != nil {
		return fmt.Errorf("installing go namespace: %w", err)
	}
	return nil
}

// SetConsoleSink registers the console message callback.
func (v *View) SetConsoleSink(sink func(msg string)) {
	v.consoleSink = sink
}

func (v *View) FireMouse(e core.MouseEvent) {
	if v.closed {
		return
	}
	v.mouseX, v.mouseY = e.X, e.Y
	switch e.Kind {
	case core.MouseDown:
		v.buttonDown = true
		v.Focus()
		v.needsPaint = true
	case core.MouseUp:
		v.buttonDown = false
		v.needsPaint = true
	}
}

func (v *View) FireScroll(e core.ScrollEvent) {
	if v.closed {
		return
	}
	if e.DX != 0 || e.DY != 0 {
		v.needsPaint = true
	}
}

func (v *View) FireKey(e core.KeyEvent) {
	if v.closed {
		return
	}
	if e.Kind == core.KeyChar && e.Text != "" {
		v.needsPaint = true
	}
}

func (v *View) Surface() core.Surface {
	return v.surface
}

// Close releases the view's script context and detaches it from the
// engine. Idempotent.
func (v *View) Close() {
	if v.closed {
		return
	}
	v.closed = true
	if v.ctx != nil {
		v.ctx.close()
		v.ctx = nil
	}
	delete(v.eng.views, v)
}
