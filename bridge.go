package viewbridge

import (
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/viewbridge/viewbridge/internal/core"
	"github.com/viewbridge/viewbridge/internal/softengine"
	"github.com/viewbridge/viewbridge/internal/vfs"
)

// Engine warm-up pumping: processing passes after synchronous surface
// creation and after each content load, before the script context is
// safe to touch.
const (
	createWarmupPasses = 8
	loadWarmupPasses   = 20
)

// Bridge serializes all access to a non-reentrant rendering engine. One
// owner goroutine, locked to its OS thread, is the only execution context
// that ever touches the engine; every other goroutine interacts through
// blocking command submission or the non-blocking per-view queues.
type Bridge struct {
	opts Options
	log  *zap.Logger
	fs   *vfs.Overlay

	commands chan *command
	done     chan struct{}

	reg slotRegistry

	// engine is owned by the run goroutine; nothing else reads or
	// writes it.
	engine core.Engine

	shutdownOnce sync.Once
}

// New starts the owner goroutine and initializes the engine. The returned
// Bridge must be released with Shutdown.
func New(opts Options) (*Bridge, error) {
	log, err := newLogger(opts.BaseDir, opts.Debug)
	if err != nil {
		return nil, err
	}
	b := &Bridge{
		opts:     opts,
		log:      log,
		fs:       vfs.New(opts.BaseDir, log),
		commands: make(chan *command, 1),
		done:     make(chan struct{}),
	}
	go b.run()
	if code := b.submit(cmdInit, "", 0, 0, false); code != codeOK {
		b.Shutdown()
		return nil, codeToError(code)
	}
	return b, nil
}

// Shutdown destroys all live views, releases the engine and joins the
// owner goroutine. Idempotent, and safe after a failed New.
func (b *Bridge) Shutdown() {
	b.shutdownOnce.Do(func() {
		b.submit(cmdQuit, "", 0, 0, false)
		<-b.done
		_ = b.log.Sync()
	})
}

// submit sends one command to the owner goroutine and blocks until it has
// been fully executed and its result code published. Commands from
// concurrent callers are totally ordered by channel send order.
func (b *Bridge) submit(kind cmdKind, str string, i1, i2 int, flag bool) int {
	cmd := &command{kind: kind, str: str, i1: i1, i2: i2, flag: flag, reply: make(chan int, 1)}
	select {
	case b.commands <- cmd:
	case <-b.done:
		return codeNotRunning
	}
	select {
	case code := <-cmd.reply:
		return code
	case <-b.done:
		// The owner exits right after replying to quit; prefer a reply
		// that raced with the shutdown signal.
		select {
		case code := <-cmd.reply:
			return code
		default:
			return codeNotRunning
		}
	}
}

// run is the owner goroutine. The OS thread is locked for the engine's
// lifetime; engines bind thread-local state during init.
func (b *Bridge) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	for cmd := range b.commands {
		code := b.dispatch(cmd)
		cmd.reply <- code
		if cmd.kind == cmdQuit {
			close(b.done)
			return
		}
	}
}

func (b *Bridge) dispatch(cmd *command) int {
	switch cmd.kind {
	case cmdInit:
		return b.handleInit()
	case cmdCreateView:
		return b.handleCreateView(cmd.i1, cmd.i2)
	case cmdCreateViewAsync:
		return b.handleCreateViewAsync(cmd.i1, cmd.i2, cmd.str)
	case cmdCreateViewWithContent:
		return b.handleCreateViewWithContent(cmd.i1, cmd.i2, cmd.str, cmd.flag)
	case cmdDestroyView:
		return b.handleDestroyView(cmd.i1)
	case cmdLoad:
		return b.handleLoad(cmd.i1, cmd.str, cmd.flag)
	case cmdTick:
		return b.handleTick()
	case cmdQuit:
		return b.handleQuit()
	}
	b.log.Error("unknown command kind", zap.Int("kind", int(cmd.kind)))
	return codeNotRunning
}

func (b *Bridge) handleInit() int {
	newEngine := b.opts.NewEngine
	if newEngine == nil {
		newEngine = softengine.New
	}
	eng, err := newEngine(core.EngineConfig{
		BaseDir:   b.opts.BaseDir,
		Debug:     b.opts.Debug,
		FS:        b.fs,
		Clipboard: b.opts.Clipboard,
		Logger:    b.log,
	})
	if err != nil {
		b.log.Error("engine init failed", zap.Error(err))
		return codeEngineInit
	}
	b.engine = eng
	b.reg.reset()
	b.log.Debug("engine initialized", zap.String("baseDir", b.opts.BaseDir))
	return codeOK
}

// createSlot allocates a slot and an engine surface for it, wiring the
// console sink and focusing the new view. Common to all creation kinds.
func (b *Bridge) createSlot(width, height int) (*viewSlot, int) {
	if b.engine == nil {
		return nil, codeNotRunning
	}
	slot := b.reg.allocate(width, height)
	if slot == nil {
		return nil, codeNoFreeSlot
	}
	view, err := b.engine.CreateView(width, height)
	if err != nil {
		b.reg.release(slot.id)
		b.log.Error("view creation failed", zap.Int("width", width), zap.Int("height", height), zap.Error(err))
		return nil, codeViewCreate
	}
	view.SetConsoleSink(func(msg string) {
		slot.console.Push(truncate(msg, maxMessageLen))
	})
	view.Focus()
	slot.view = view
	return slot, slot.id
}

func (b *Bridge) handleCreateView(width, height int) int {
	slot, code := b.createSlot(width, height)
	if slot == nil {
		return code
	}
	for i := 0; i < createWarmupPasses; i++ {
		b.engine.Update()
	}
	b.engine.Render()
	b.installBindings(slot)
	return slot.id
}

func (b *Bridge) handleCreateViewAsync(width, height int, url string) int {
	slot, code := b.createSlot(width, height)
	if slot == nil {
		return code
	}
	slot.mu.Lock()
	slot.pending = &pendingLoad{payload: url, isURL: true}
	slot.state = statePriming
	slot.ticks = 0
	slot.mu.Unlock()
	return slot.id
}

func (b *Bridge) handleCreateViewWithContent(width, height int, payload string, isURL bool) int {
	slot, code := b.createSlot(width, height)
	if slot == nil {
		return code
	}
	b.issueLoad(slot, payload, isURL)
	b.engine.Update()
	b.installBindings(slot)
	return slot.id
}

func (b *Bridge) handleDestroyView(id int) int {
	slot := b.reg.get(id)
	if slot == nil {
		return codeOK
	}
	if slot.view != nil {
		slot.view.Close()
	}
	b.reg.release(id)
	b.log.Debug("view destroyed", zap.Int("view", id))
	return codeOK
}

func (b *Bridge) handleLoad(id int, payload string, isURL bool) int {
	if b.engine == nil {
		return codeNotRunning
	}
	slot := b.reg.get(id)
	if slot == nil || slot.view == nil {
		return codeOK
	}
	b.issueLoad(slot, payload, isURL)
	for i := 0; i < loadWarmupPasses; i++ {
		b.engine.Update()
	}
	b.engine.Render()
	b.installBindings(slot)
	// An explicit load supersedes any deferred one still waiting out its
	// priming phase.
	slot.takePending()
	slot.setLoadPhase(stateReady, 0)
	return codeOK
}

func (b *Bridge) issueLoad(slot *viewSlot, payload string, isURL bool) {
	if isURL {
		slot.view.LoadURL(payload)
	} else {
		slot.view.LoadHTML(payload)
	}
}

// installBindings attempts to install the native send function in the
// slot's script context. Failure is recorded, not surfaced: binding is
// retried opportunistically on later ticks.
func (b *Bridge) installBindings(slot *viewSlot) {
	err := slot.view.InstallBindings(func(msg string) {
		slot.messages.Push(truncate(msg, maxMessageLen))
	})
	slot.setBound(err == nil)
	if err != nil {
		b.log.Debug("binding install failed", zap.Int("view", slot.id), zap.Error(err))
	}
}

// handleTick is the single periodic maintenance operation: per live slot,
// drain input and script queues into engine calls and advance the load
// state machine; then one update/refresh/render pass for the whole
// registry.
func (b *Bridge) handleTick() int {
	if b.engine == nil {
		return codeNotRunning
	}
	for _, slot := range b.reg.liveSlots() {
		if slot.view == nil {
			continue
		}
		b.drainInput(slot)
		b.drainScripts(slot)
		b.advanceLoad(slot)
	}
	b.engine.Update()
	b.engine.RefreshDisplay()
	b.engine.Render()
	return codeOK
}

func (b *Bridge) drainInput(slot *viewSlot) {
	for _, e := range slot.mouse.Drain() {
		e.X = clamp(e.X, 0, slot.width-1)
		e.Y = clamp(e.Y, 0, slot.height-1)
		slot.view.FireMouse(e)
	}
	for _, e := range slot.scroll.Drain() {
		slot.view.FireScroll(e)
	}
	for _, e := range slot.keys.Drain() {
		slot.view.FireKey(e)
	}
}

func (b *Bridge) drainScripts(slot *viewSlot) {
	for _, script := range slot.scripts.Drain() {
		if _, err := slot.view.EvaluateScript(script); err != nil {
			b.log.Debug("queued script failed", zap.Int("view", slot.id), zap.Error(err))
		}
	}
}

func (b *Bridge) advanceLoad(slot *viewSlot) {
	state, ticks := slot.loadPhase()
	next, nextTicks, action := advanceLoadState(state, ticks)
	switch action {
	case actionIssueLoad:
		if p := slot.takePending(); p != nil {
			b.issueLoad(slot, p.payload, p.isURL)
		}
	case actionInstallBinding:
		b.engine.Render()
		b.installBindings(slot)
	case actionNone:
		if state == stateReady && !slot.isBound() {
			b.installBindings(slot)
		}
	}
	slot.setLoadPhase(next, nextTicks)
}

func (b *Bridge) handleQuit() int {
	for _, slot := range b.reg.liveSlots() {
		if slot.view != nil {
			slot.view.Close()
		}
		b.reg.release(slot.id)
	}
	if b.engine != nil {
		if err := b.engine.Close(); err != nil {
			b.log.Error("engine close failed", zap.Error(err))
		}
		b.engine = nil
	}
	return codeOK
}

// CreateView creates a view synchronously: the engine surface exists and
// bindings have been attempted when it returns. Returns the new view id.
func (b *Bridge) CreateView(width, height int) (int, error) {
	code := b.submit(cmdCreateView, "", width, height, false)
	if code < 0 {
		return -1, codeToError(code)
	}
	return code, nil
}

// CreateViewAsync creates a view whose content load is deferred to later
// ticks. The returned id is immediately valid for enqueue operations;
// poll IsReady for load completion.
func (b *Bridge) CreateViewAsync(width, height int, url string) (int, error) {
	code := b.submit(cmdCreateViewAsync, url, width, height, true)
	if code < 0 {
		return -1, codeToError(code)
	}
	return code, nil
}

// CreateViewWithHTML creates a view and issues the content load before
// returning, deferring full rendering to the next tick.
func (b *Bridge) CreateViewWithHTML(width, height int, html string) (int, error) {
	code := b.submit(cmdCreateViewWithContent, html, width, height, false)
	if code < 0 {
		return -1, codeToError(code)
	}
	return code, nil
}

// CreateViewWithURL is CreateViewWithHTML for URL-addressed content.
func (b *Bridge) CreateViewWithURL(width, height int, url string) (int, error) {
	code := b.submit(cmdCreateViewWithContent, url, width, height, true)
	if code < 0 {
		return -1, codeToError(code)
	}
	return code, nil
}

// DestroyView releases the view's engine surface and frees its slot for
// reuse. Destroying a dead id is a no-op.
func (b *Bridge) DestroyView(id int) error {
	return codeToError(b.submit(cmdDestroyView, "", id, 0, false))
}

// LoadHTML replaces the view's content. Content loads reset page script
// state; bindings are reinstalled before this returns.
func (b *Bridge) LoadHTML(id int, html string) error {
	return codeToError(b.submit(cmdLoad, html, id, 0, false))
}

// LoadURL is LoadHTML for URL-addressed content.
func (b *Bridge) LoadURL(id int, url string) error {
	return codeToError(b.submit(cmdLoad, url, id, 0, true))
}

// Tick runs one maintenance cycle: drains per-view queues into the
// engine, advances deferred loads and performs one render pass. Callers
// drive this periodically.
func (b *Bridge) Tick() error {
	return codeToError(b.submit(cmdTick, "", 0, 0, false))
}

// IsReady reports whether the view exists and has no content load in
// flight. Asynchronously created views become ready only after their
// priming and binding phases complete across ticks.
func (b *Bridge) IsReady(id int) bool {
	slot := b.reg.get(id)
	if slot == nil {
		return false
	}
	state, _ := slot.loadPhase()
	return state == stateReady
}

// ViewCount returns the number of live views.
func (b *Bridge) ViewCount() int {
	return b.reg.liveCount()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
