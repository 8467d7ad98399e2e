package viewbridge

import "github.com/viewbridge/viewbridge/internal/core"

// Input enqueue surface. These calls never block and never touch the
// engine: they append to the view's bounded input queues, which the owner
// drains on the next tick. Events against a full queue or a dead view id
// are dropped silently.

// FireMouse enqueues a pointer event. Coordinates are clamped to the
// view's bounds when drained.
func (b *Bridge) FireMouse(id int, kind core.MouseEventKind, x, y int, button core.MouseButton) {
	slot := b.reg.get(id)
	if slot == nil {
		return
	}
	slot.mouse.Push(core.MouseEvent{Kind: kind, X: x, Y: y, Button: button})
}

// FireScroll enqueues a wheel event.
func (b *Bridge) FireScroll(id int, kind core.ScrollEventKind, dx, dy int) {
	slot := b.reg.get(id)
	if slot == nil {
		return
	}
	slot.scroll.Push(core.ScrollEvent{Kind: kind, DX: dx, DY: dy})
}

// FireKey enqueues a keyboard event. Text beyond 32 bytes is clipped.
func (b *Bridge) FireKey(id int, kind core.KeyEventKind, virtualKey int, modifiers core.KeyModifiers, text string) {
	slot := b.reg.get(id)
	if slot == nil {
		return
	}
	slot.keys.Push(core.KeyEvent{
		Kind:       kind,
		VirtualKey: virtualKey,
		Modifiers:  modifiers,
		Text:       truncate(text, maxKeyTextLen),
	})
}
