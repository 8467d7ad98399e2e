package viewbridge

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/viewbridge/viewbridge/internal/core"
)

// fakeEngine records every call the bridge makes, standing in for the
// real engine in dispatcher tests.
type fakeEngine struct {
	mu         sync.Mutex
	views      []*fakeView
	updates    int
	refreshes  int
	renders    int
	failCreate bool
	closed     bool
}

func (e *fakeEngine) CreateView(width, height int) (core.View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failCreate {
		return nil, errors.New("surface rejected")
	}
	v := &fakeView{surface: newFakeSurface(width, height)}
	e.views = append(e.views, v)
	return v, nil
}

func (e *fakeEngine) Update()         { e.mu.Lock(); e.updates++; e.mu.Unlock() }
func (e *fakeEngine) RefreshDisplay() { e.mu.Lock(); e.refreshes++; e.mu.Unlock() }
func (e *fakeEngine) Render()         { e.mu.Lock(); e.renders++; e.mu.Unlock() }
func (e *fakeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

type fakeView struct {
	mu       sync.Mutex
	surface  *fakeSurface
	loads    []string
	scripts  []string
	mouse    []core.MouseEvent
	scroll   []core.ScrollEvent
	keys     []core.KeyEvent
	focused  bool
	closed   bool
	bindErr  error
	bindings int
	send     func(string)
	console  func(string)
}

func (v *fakeView) LoadHTML(html string) { v.mu.Lock(); v.loads = append(v.loads, "html:"+html); v.mu.Unlock() }
func (v *fakeView) LoadURL(url string)   { v.mu.Lock(); v.loads = append(v.loads, "url:"+url); v.mu.Unlock() }
func (v *fakeView) Focus()               { v.mu.Lock(); v.focused = true; v.mu.Unlock() }

func (v *fakeView) EvaluateScript(script string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scripts = append(v.scripts, script)
	return "", nil
}

func (v *fakeView) InstallBindings(send func(string)) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.bindErr != nil {
		return v.bindErr
	}
	v.send = send
	v.bindings++
	return nil
}

func (v *fakeView) SetConsoleSink(sink func(string)) {
	v.mu.Lock()
	v.console = sink
	v.mu.Unlock()
}

func (v *fakeView) FireMouse(e core.MouseEvent)   { v.mu.Lock(); v.mouse = append(v.mouse, e); v.mu.Unlock() }
func (v *fakeView) FireScroll(e core.ScrollEvent) { v.mu.Lock(); v.scroll = append(v.scroll, e); v.mu.Unlock() }
func (v *fakeView) FireKey(e core.KeyEvent)       { v.mu.Lock(); v.keys = append(v.keys, e); v.mu.Unlock() }

func (v *fakeView) Surface() core.Surface { return v.surface }
func (v *fakeView) Close()                { v.mu.Lock(); v.closed = true; v.mu.Unlock() }

func (v *fakeView) sentScripts() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.scripts...)
}

type fakeSurface struct {
	mu       sync.Mutex // pixel lock, held between LockPixels and UnlockPixels
	dirtyMu  sync.Mutex
	w, h     int
	pix      []byte
	dirty    bool
	onUnlock func()
}

func newFakeSurface(w, h int) *fakeSurface {
	return &fakeSurface{w: w, h: h, pix: make([]byte, w*h*4)}
}

func (s *fakeSurface) Width() int    { return s.w }
func (s *fakeSurface) Height() int   { return s.h }
func (s *fakeSurface) RowBytes() int { return s.w * 4 }
func (s *fakeSurface) LockPixels() []byte {
	s.mu.Lock()
	return s.pix
}
func (s *fakeSurface) UnlockPixels() {
	s.mu.Unlock()
	if s.onUnlock != nil {
		s.onUnlock()
	}
}
func (s *fakeSurface) Dirty() bool {
	s.dirtyMu.Lock()
	defer s.dirtyMu.Unlock()
	return s.dirty
}
func (s *fakeSurface) ClearDirty() {
	s.dirtyMu.Lock()
	s.dirty = false
	s.dirtyMu.Unlock()
}
func (s *fakeSurface) markDirty() {
	s.dirtyMu.Lock()
	s.dirty = true
	s.dirtyMu.Unlock()
}

func newTestBridge(t *testing.T) (*Bridge, *fakeEngine) {
	t.Helper()
	eng := &fakeEngine{}
	b, err := New(Options{
		NewEngine: func(core.EngineConfig) (core.Engine, error) { return eng, nil },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(b.Shutdown)
	return b, eng
}

func (e *fakeEngine) view(t *testing.T, i int) *fakeView {
	t.Helper()
	e.mu.Lock()
	defer e.mu.Unlock()
	if i >= len(e.views) {
		t.Fatalf("engine has %d views, want at least %d", len(e.views), i+1)
	}
	return e.views[i]
}

func TestNewFailsWhenEngineInitFails(t *testing.T) {
	_, err := New(Options{
		NewEngine: func(core.EngineConfig) (core.Engine, error) {
			return nil, errors.New("boom")
		},
	})
	if !errors.Is(err, ErrEngineInit) {
		t.Fatalf("err = %v, want ErrEngineInit", err)
	}
}

func TestCreateViewAssignsLowestFreeIndex(t *testing.T) {
	b, _ := newTestBridge(t)

	for want := 0; want < 3; want++ {
		id, err := b.CreateView(320, 240)
		if err != nil {
			t.Fatalf("CreateView: %v", err)
		}
		if id != want {
			t.Fatalf("id = %d, want %d", id, want)
		}
	}

	if err := b.DestroyView(1); err != nil {
		t.Fatalf("DestroyView: %v", err)
	}
	id, err := b.CreateView(320, 240)
	if err != nil {
		t.Fatalf("CreateView: %v", err)
	}
	if id != 1 {
		t.Errorf("id after reuse = %d, want 1", id)
	}
}

func TestSeventeenthCreateFails(t *testing.T) {
	b, _ := newTestBridge(t)

	for i := 0; i < maxViews; i++ {
		if _, err := b.CreateView(100, 100); err != nil {
			t.Fatalf("CreateView %d: %v", i, err)
		}
	}
	if _, err := b.CreateView(100, 100); !errors.Is(err, ErrNoFreeSlot) {
		t.Fatalf("17th create: err = %v, want ErrNoFreeSlot", err)
	}
	if n := b.ViewCount(); n != maxViews {
		t.Errorf("ViewCount = %d, want %d", n, maxViews)
	}
}

func TestCreateViewConcurrent(t *testing.T) {
	b, _ := newTestBridge(t)

	ids := make(chan int, maxViews)
	var wg sync.WaitGroup
	for i := 0; i < maxViews; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := b.CreateView(64, 64)
			if err != nil {
				t.Errorf("CreateView: %v", err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int]bool)
	for id := range ids {
		if id < 0 || id >= maxViews {
			t.Errorf("id %d out of range", id)
		}
		if seen[id] {
			t.Errorf("id %d assigned twice", id)
		}
		seen[id] = true
	}
	if len(seen) != maxViews {
		t.Errorf("assigned %d distinct ids, want %d", len(seen), maxViews)
	}
}

func TestCreateViewFailureLeaksNoSlot(t *testing.T) {
	b, eng := newTestBridge(t)

	eng.mu.Lock()
	eng.failCreate = true
	eng.mu.Unlock()
	if _, err := b.CreateView(100, 100); !errors.Is(err, ErrViewCreate) {
		t.Fatalf("err = %v, want ErrViewCreate", err)
	}
	if n := b.ViewCount(); n != 0 {
		t.Fatalf("ViewCount = %d after failed create", n)
	}

	eng.mu.Lock()
	eng.failCreate = false
	eng.mu.Unlock()
	id, err := b.CreateView(100, 100)
	if err != nil {
		t.Fatalf("CreateView: %v", err)
	}
	if id != 0 {
		t.Errorf("id = %d, want 0", id)
	}
}

func TestDestroyViewIdempotent(t *testing.T) {
	b, eng := newTestBridge(t)

	id, err := b.CreateView(100, 100)
	if err != nil {
		t.Fatalf("CreateView: %v", err)
	}
	if err := b.DestroyView(id); err != nil {
		t.Fatalf("DestroyView: %v", err)
	}
	if !eng.view(t, 0).closed {
		t.Errorf("engine view not closed")
	}
	if err := b.DestroyView(id); err != nil {
		t.Errorf("second DestroyView: %v", err)
	}
	if err := b.DestroyView(99); err != nil {
		t.Errorf("DestroyView(99): %v", err)
	}
	if n := b.ViewCount(); n != 0 {
		t.Errorf("ViewCount = %d, want 0", n)
	}
}

func TestAsyncReadinessProgression(t *testing.T) {
	b, eng := newTestBridge(t)

	id, err := b.CreateViewAsync(320, 240, "file:///app/index.html")
	if err != nil {
		t.Fatalf("CreateViewAsync: %v", err)
	}
	if b.IsReady(id) {
		t.Fatalf("ready immediately after async create")
	}

	// Priming lasts 2 ticks; the deferred load is issued on the tick that
	// completes priming. Binding lasts 3 more ticks.
	totalTicks := primingTicks + bindingTicks
	for i := 1; i <= totalTicks; i++ {
		if err := b.Tick(); err != nil {
			t.Fatalf("Tick %d: %v", i, err)
		}
		ready := b.IsReady(id)
		if i < totalTicks && ready {
			t.Fatalf("ready after %d ticks, want not-ready until %d", i, totalTicks)
		}
		if i == totalTicks && !ready {
			t.Fatalf("not ready after %d ticks", i)
		}
	}

	v := eng.view(t, 0)
	v.mu.Lock()
	loads := append([]string(nil), v.loads...)
	bindings := v.bindings
	v.mu.Unlock()
	if len(loads) != 1 || loads[0] != "url:file:///app/index.html" {
		t.Errorf("loads = %q, want the deferred url load", loads)
	}
	if bindings == 0 {
		t.Errorf("bindings never installed")
	}
}

func TestTickDrainsQueuesAndClamps(t *testing.T) {
	b, eng := newTestBridge(t)

	id, err := b.CreateView(320, 240)
	if err != nil {
		t.Fatalf("CreateView: %v", err)
	}

	b.FireMouse(id, core.MouseMoved, -5, 10000, core.ButtonNone)
	b.FireMouse(id, core.MouseDown, 10, 20, core.ButtonLeft)
	b.FireScroll(id, core.ScrollByPixel, 0, -120)
	b.FireKey(id, core.KeyChar, 0, 0, strings.Repeat("x", 100))
	b.EvalScript(id, "document.title = 'ticked'")

	if err := b.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	v := eng.view(t, 0)
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.mouse) != 2 {
		t.Fatalf("mouse events = %d, want 2", len(v.mouse))
	}
	if v.mouse[0].X != 0 || v.mouse[0].Y != 239 {
		t.Errorf("clamped mouse = (%d, %d), want (0, 239)", v.mouse[0].X, v.mouse[0].Y)
	}
	if v.mouse[1].Button != core.ButtonLeft {
		t.Errorf("mouse button = %v", v.mouse[1].Button)
	}
	if len(v.scroll) != 1 || v.scroll[0].DY != -120 {
		t.Errorf("scroll events = %+v", v.scroll)
	}
	if len(v.keys) != 1 || len(v.keys[0].Text) != maxKeyTextLen {
		t.Errorf("key text length = %d, want %d", len(v.keys[0].Text), maxKeyTextLen)
	}
	if len(v.scripts) != 1 || v.scripts[0] != "document.title = 'ticked'" {
		t.Errorf("scripts = %q", v.scripts)
	}
}

func TestScriptQueueRejectsBeyondCapacity(t *testing.T) {
	b, eng := newTestBridge(t)

	id, err := b.CreateView(100, 100)
	if err != nil {
		t.Fatalf("CreateView: %v", err)
	}
	for i := 0; i < scriptQueueCap+10; i++ {
		b.EvalScript(id, fmt.Sprintf("s(%d)", i))
	}
	if err := b.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	got := eng.view(t, 0).sentScripts()
	if len(got) != scriptQueueCap {
		t.Fatalf("drained %d scripts, want %d", len(got), scriptQueueCap)
	}
	if got[0] != "s(0)" || got[len(got)-1] != fmt.Sprintf("s(%d)", scriptQueueCap-1) {
		t.Errorf("drained window = [%s .. %s], want first %d enqueued", got[0], got[len(got)-1], scriptQueueCap)
	}

	// The queue reset on drain: it accepts entries again.
	b.EvalScript(id, "after")
	if err := b.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	got = eng.view(t, 0).sentScripts()
	if got[len(got)-1] != "after" {
		t.Errorf("queue did not reset after drain")
	}
}

func TestEvalScriptDropsOversized(t *testing.T) {
	b, eng := newTestBridge(t)

	id, err := b.CreateView(100, 100)
	if err != nil {
		t.Fatalf("CreateView: %v", err)
	}
	b.EvalScript(id, "")
	b.EvalScript(id, strings.Repeat("x", maxScriptLen+1))
	b.EvalScript(id, "ok()")
	if err := b.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	got := eng.view(t, 0).sentScripts()
	if len(got) != 1 || got[0] != "ok()" {
		t.Errorf("scripts = %q, want only the valid one", got)
	}
}

func TestConsoleMessagesEvictOldest(t *testing.T) {
	b, eng := newTestBridge(t)

	id, err := b.CreateView(100, 100)
	if err != nil {
		t.Fatalf("CreateView: %v", err)
	}

	v := eng.view(t, 0)
	v.mu.Lock()
	sink := v.console
	v.mu.Unlock()
	if sink == nil {
		t.Fatalf("console sink never installed")
	}

	const extra = 5
	for i := 0; i < consoleQueueCap+extra; i++ {
		sink(fmt.Sprintf("msg %d", i))
	}
	for i := 0; i < consoleQueueCap; i++ {
		got, ok := b.GetConsoleMessage(id)
		if !ok {
			t.Fatalf("queue empty after %d pops", i)
		}
		want := fmt.Sprintf("msg %d", i+extra)
		if got != want {
			t.Fatalf("pop %d = %q, want %q", i, got, want)
		}
	}
	if _, ok := b.GetConsoleMessage(id); ok {
		t.Errorf("queue not empty after draining")
	}
}

func TestSendDeliversToReceive(t *testing.T) {
	b, eng := newTestBridge(t)

	id, err := b.CreateView(100, 100)
	if err != nil {
		t.Fatalf("CreateView: %v", err)
	}

	if err := b.Send(id, map[string]any{"kind": "ping"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := b.Send(id, "hello"); err != nil {
		t.Fatalf("Send string: %v", err)
	}
	if err := b.Send(99, "x"); !errors.Is(err, ErrUnknownView) {
		t.Errorf("Send to dead id: err = %v, want ErrUnknownView", err)
	}
	if err := b.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	got := eng.view(t, 0).sentScripts()
	if len(got) != 2 {
		t.Fatalf("delivered %d scripts, want 2", len(got))
	}
	if !strings.Contains(got[0], "window.go.receive(JSON.parse(") || !strings.Contains(got[0], `\"kind\":\"ping\"`) {
		t.Errorf("object delivery = %q", got[0])
	}
	if !strings.Contains(got[1], `window.go.receive("hello")`) {
		t.Errorf("string delivery = %q", got[1])
	}
}

func TestMessageRoundTrip(t *testing.T) {
	b, eng := newTestBridge(t)

	id, err := b.CreateView(100, 100)
	if err != nil {
		t.Fatalf("CreateView: %v", err)
	}

	v := eng.view(t, 0)
	v.mu.Lock()
	send := v.send
	v.mu.Unlock()
	if send == nil {
		t.Fatalf("bindings never installed on synchronous create")
	}

	send(`{"type":"click","id":7}`)
	msg, ok := b.GetMessage(id)
	if !ok {
		t.Fatalf("no message queued")
	}
	parsed, err := ParseMessage(msg)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if parsed["type"] != "click" || parsed["id"] != float64(7) {
		t.Errorf("parsed = %v", parsed)
	}
	if _, ok := b.GetMessage(id); ok {
		t.Errorf("message queue not empty")
	}
}

func TestBindingRetryOnTick(t *testing.T) {
	b, eng := newTestBridge(t)

	failing := errors.New("no script context")
	id, err := b.CreateView(100, 100)
	if err != nil {
		t.Fatalf("CreateView: %v", err)
	}
	v := eng.view(t, 0)
	v.mu.Lock()
	v.bindErr = failing
	v.send = nil
	v.mu.Unlock()

	// Force a rebind cycle through a content load that fails to bind.
	if err := b.LoadHTML(id, "<html></html>"); err != nil {
		t.Fatalf("LoadHTML: %v", err)
	}
	v.mu.Lock()
	unbound := v.send == nil
	v.mu.Unlock()
	if !unbound {
		t.Fatalf("binding unexpectedly installed while failing")
	}

	v.mu.Lock()
	v.bindErr = nil
	v.mu.Unlock()
	if err := b.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	v.mu.Lock()
	rebound := v.send != nil
	v.mu.Unlock()
	if !rebound {
		t.Errorf("binding not retried on tick for an unbound ready view")
	}
}

func TestLoadReinstallsBindings(t *testing.T) {
	b, eng := newTestBridge(t)

	id, err := b.CreateView(100, 100)
	if err != nil {
		t.Fatalf("CreateView: %v", err)
	}
	v := eng.view(t, 0)
	v.mu.Lock()
	before := v.bindings
	v.mu.Unlock()

	if err := b.LoadHTML(id, "<html><body>new</body></html>"); err != nil {
		t.Fatalf("LoadHTML: %v", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.loads) != 1 || !strings.HasPrefix(v.loads[0], "html:") {
		t.Errorf("loads = %q", v.loads)
	}
	if v.bindings != before+1 {
		t.Errorf("bindings = %d, want %d (reinstalled after load)", v.bindings, before+1)
	}
}

func TestLoadSupersedesDeferredLoad(t *testing.T) {
	b, eng := newTestBridge(t)

	id, err := b.CreateViewAsync(320, 240, "file:///deferred.html")
	if err != nil {
		t.Fatalf("CreateViewAsync: %v", err)
	}
	if err := b.LoadHTML(id, "<html><body>now</body></html>"); err != nil {
		t.Fatalf("LoadHTML: %v", err)
	}
	if !b.IsReady(id) {
		t.Fatalf("not ready after explicit load")
	}
	if slot := b.reg.get(id); slot.takePending() != nil {
		t.Errorf("deferred payload retained after explicit load")
	}

	for i := 0; i < primingTicks+bindingTicks; i++ {
		if err := b.Tick(); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}

	v := eng.view(t, 0)
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.loads) != 1 || !strings.HasPrefix(v.loads[0], "html:") {
		t.Errorf("loads = %q, want only the explicit load", v.loads)
	}
}

func TestCopyPixelsRGBA(t *testing.T) {
	b, eng := newTestBridge(t)

	id, err := b.CreateView(2, 1)
	if err != nil {
		t.Fatalf("CreateView: %v", err)
	}
	surf := eng.view(t, 0).surface
	copy(surf.pix, []byte{
		0x01, 0x02, 0x03, 0xff, // BGRA
		0x0a, 0x0b, 0x0c, 0xff,
	})

	dst := make([]byte, len(surf.pix))
	if b.CopyPixelsRGBA(id, dst) {
		t.Fatalf("copy reported new data on a clean surface")
	}

	surf.markDirty()
	if !b.CopyPixelsRGBA(id, dst) {
		t.Fatalf("copy reported no new data on a dirty surface")
	}
	want := []byte{0x03, 0x02, 0x01, 0xff, 0x0c, 0x0b, 0x0a, 0xff}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst = %x, want %x", dst, want)
		}
	}
	if b.CopyPixelsRGBA(id, dst) {
		t.Errorf("dirty flag not cleared by copy")
	}

	if b.CopyPixelsRGBA(id, make([]byte, 4)) {
		t.Errorf("short destination reported success")
	}
}

func TestCopyPixelsKeepsRepaintDuringCopy(t *testing.T) {
	b, eng := newTestBridge(t)

	id, err := b.CreateView(2, 1)
	if err != nil {
		t.Fatalf("CreateView: %v", err)
	}
	surf := eng.view(t, 0).surface
	surf.markDirty()

	// A render pass that was blocked on the pixel lock lands the moment
	// the reader releases it; its dirty flag must survive the read.
	repainted := false
	surf.onUnlock = func() {
		if !repainted {
			repainted = true
			surf.pix[0] = 0x77
			surf.markDirty()
		}
	}

	dst := make([]byte, len(surf.pix))
	if !b.CopyPixelsRGBA(id, dst) {
		t.Fatalf("first copy reported no new data")
	}
	if !b.CopyPixelsRGBA(id, dst) {
		t.Fatalf("repaint landing during the first copy was lost")
	}
	if dst[2] != 0x77 { // blue source byte lands in the R position
		t.Errorf("second copy did not deliver the repainted frame")
	}
	if b.CopyPixelsRGBA(id, dst) {
		t.Errorf("third copy reported new data without a repaint")
	}
}

func TestPixelLockUnlock(t *testing.T) {
	b, eng := newTestBridge(t)

	id, err := b.CreateView(4, 2)
	if err != nil {
		t.Fatalf("CreateView: %v", err)
	}
	if w, h, rb := b.ViewWidth(id), b.ViewHeight(id), b.RowBytes(id); w != 4 || h != 2 || rb != 16 {
		t.Errorf("dims = %dx%d stride %d", w, h, rb)
	}

	pix := b.GetPixels(id)
	if len(pix) != len(eng.view(t, 0).surface.pix) {
		t.Errorf("pixel buffer length = %d", len(pix))
	}
	b.UnlockPixels(id)

	if b.GetPixels(99) != nil {
		t.Errorf("GetPixels on dead id returned a buffer")
	}
}

func TestShutdown(t *testing.T) {
	eng := &fakeEngine{}
	b, err := New(Options{
		NewEngine: func(core.EngineConfig) (core.Engine, error) { return eng, nil },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := b.CreateView(100, 100); err != nil {
		t.Fatalf("CreateView: %v", err)
	}

	b.Shutdown()
	b.Shutdown()

	eng.mu.Lock()
	closed, viewClosed := eng.closed, eng.views[0].closed
	eng.mu.Unlock()
	if !closed {
		t.Errorf("engine not closed")
	}
	if !viewClosed {
		t.Errorf("live view not closed on shutdown")
	}

	if _, err := b.CreateView(100, 100); !errors.Is(err, ErrNotRunning) {
		t.Errorf("CreateView after shutdown: err = %v, want ErrNotRunning", err)
	}
	if err := b.Tick(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Tick after shutdown: err = %v, want ErrNotRunning", err)
	}
}
