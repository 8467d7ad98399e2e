package viewbridge

import (
	"sync"

	"github.com/viewbridge/viewbridge/internal/core"
)

// maxViews is the fixed size of the view slot table. Slot ids are stable
// small integers in [0, maxViews); the lowest free index is always
// assigned first, and an index is reused only after explicit destruction.
const maxViews = 16

// Per-slot queue capacities.
const (
	mouseQueueCap   = 64
	scrollQueueCap  = 16
	keyQueueCap     = 32
	scriptQueueCap  = 32
	consoleQueueCap = 64
	messageQueueCap = 64
)

// Payload caps. Oversized scripts are dropped at enqueue; message and
// console text is truncated, key text clipped.
const (
	maxScriptLen  = 1024
	maxMessageLen = 2048
	maxKeyTextLen = 32
)

// pendingLoad is content stored by an async creation until the priming
// phase completes.
type pendingLoad struct {
	payload string
	isURL   bool
}

// viewSlot is the per-surface state behind one view id. The id, size and
// view reference are written once by the owner before the slot is used;
// the load-state fields are guarded by mu because callers poll readiness
// while the owner advances the state machine.
type viewSlot struct {
	id     int
	width  int
	height int
	view   core.View

	mu      sync.Mutex
	state   loadState
	ticks   int
	bound   bool
	pending *pendingLoad

	mouse   *boundedQueue[core.MouseEvent]
	scroll  *boundedQueue[core.ScrollEvent]
	keys    *boundedQueue[core.KeyEvent]
	scripts *boundedQueue[string]

	console  *ringQueue[string]
	messages *ringQueue[string]
}

func newViewSlot(id, width, height int) *viewSlot {
	return &viewSlot{
		id:       id,
		width:    width,
		height:   height,
		state:    stateReady,
		mouse:    newBoundedQueue[core.MouseEvent](mouseQueueCap),
		scroll:   newBoundedQueue[core.ScrollEvent](scrollQueueCap),
		keys:     newBoundedQueue[core.KeyEvent](keyQueueCap),
		scripts:  newBoundedQueue[string](scriptQueueCap),
		console:  newRingQueue[string](consoleQueueCap),
		messages: newRingQueue[string](messageQueueCap),
	}
}

// loadPhase returns the slot's current state under the slot lock.
func (s *viewSlot) loadPhase() (loadState, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.ticks
}

func (s *viewSlot) setLoadPhase(state loadState, ticks int) {
	s.mu.Lock()
	s.state = state
	s.ticks = ticks
	s.mu.Unlock()
}

func (s *viewSlot) setBound(bound bool) {
	s.mu.Lock()
	s.bound = bound
	s.mu.Unlock()
}

func (s *viewSlot) isBound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bound
}

// takePending removes and returns the deferred load payload.
func (s *viewSlot) takePending() *pendingLoad {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pending
	s.pending = nil
	return p
}

// slotRegistry is the fixed table of view slots. The registry lock guards
// the table itself (allocation, release, lookup); per-slot state has its
// own synchronization.
type slotRegistry struct {
	mu    sync.RWMutex
	slots [maxViews]*viewSlot
	live  int
}

// allocate claims the lowest free slot, or returns nil when all slots are
// live. The slot is visible to lookups immediately; its view reference is
// filled in by the owner before the first tick can touch it.
func (r *slotRegistry) allocate(width, height int) *viewSlot {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.slots {
		if r.slots[i] == nil {
			s := newViewSlot(i, width, height)
			r.slots[i] = s
			r.live++
			return s
		}
	}
	return nil
}

// release clears the slot for id, making the index reusable. No-op for
// ids that are out of range or already free.
func (r *slotRegistry) release(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id < 0 || id >= maxViews || r.slots[id] == nil {
		return
	}
	r.slots[id] = nil
	r.live--
}

// get returns the live slot for id, or nil.
func (r *slotRegistry) get(id int) *viewSlot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id < 0 || id >= maxViews {
		return nil
	}
	return r.slots[id]
}

// liveSlots returns the live slots in id order.
func (r *slotRegistry) liveSlots() []*viewSlot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*viewSlot, 0, r.live)
	for _, s := range r.slots {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (r *slotRegistry) liveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.live
}

func (r *slotRegistry) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.slots {
		r.slots[i] = nil
	}
	r.live = 0
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
