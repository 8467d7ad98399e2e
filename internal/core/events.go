package core

// MouseEventKind distinguishes pointer event types.
type MouseEventKind int

const (
	MouseMoved MouseEventKind = 0
	MouseDown  MouseEventKind = 1
	MouseUp    MouseEventKind = 2
)

// MouseButton identifies the button involved in a pointer event.
type MouseButton int

const (
	ButtonNone   MouseButton = 0
	ButtonLeft   MouseButton = 1
	ButtonMiddle MouseButton = 2
	ButtonRight  MouseButton = 3
)

// ScrollEventKind distinguishes scroll event types.
type ScrollEventKind int

const (
	ScrollByPixel ScrollEventKind = 0
	ScrollByPage  ScrollEventKind = 1
)

// KeyEventKind distinguishes keyboard event types. RawKeyDown is fired
// before KeyDown and triggers accelerators; Char carries text input.
type KeyEventKind int

const (
	KeyRawDown KeyEventKind = 0
	KeyDown    KeyEventKind = 1
	KeyUp      KeyEventKind = 2
	KeyChar    KeyEventKind = 3
)

// KeyModifiers is a bitmask of held modifier keys.
type KeyModifiers uint32

const (
	ModAlt   KeyModifiers = 1 << 0
	ModCtrl  KeyModifiers = 1 << 1
	ModMeta  KeyModifiers = 1 << 2
	ModShift KeyModifiers = 1 << 3
)

// MouseEvent is one queued pointer event.
type MouseEvent struct {
	Kind   MouseEventKind
	X, Y   int
	Button MouseButton
}

// ScrollEvent is one queued wheel event.
type ScrollEvent struct {
	Kind   ScrollEventKind
	DX, DY int
}

// KeyEvent is one queued keyboard event. Text is capped at 32 bytes by
// the enqueue path.
type KeyEvent struct {
	Kind       KeyEventKind
	VirtualKey int
	Modifiers  KeyModifiers
	Text       string
}
