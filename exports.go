package viewbridge

import "github.com/viewbridge/viewbridge/internal/core"

// Type aliases re-exporting internal/core types so embedders can use
// viewbridge.MouseEvent, viewbridge.Engine, etc. without importing the
// internal package directly.

type Engine = core.Engine
type View = core.View
type Surface = core.Surface
type FileSystem = core.FileSystem
type Clipboard = core.Clipboard
type EngineConfig = core.EngineConfig

type MouseEvent = core.MouseEvent
type ScrollEvent = core.ScrollEvent
type KeyEvent = core.KeyEvent
type MouseEventKind = core.MouseEventKind
type MouseButton = core.MouseButton
type ScrollEventKind = core.ScrollEventKind
type KeyEventKind = core.KeyEventKind
type KeyModifiers = core.KeyModifiers

// Event constants re-exported from core.
const (
	MouseMoved = core.MouseMoved
	MouseDown  = core.MouseDown
	MouseUp    = core.MouseUp

	ButtonNone   = core.ButtonNone
	ButtonLeft   = core.ButtonLeft
	ButtonMiddle = core.ButtonMiddle
	ButtonRight  = core.ButtonRight

	ScrollByPixel = core.ScrollByPixel
	ScrollByPage  = core.ScrollByPage

	KeyRawDown = core.KeyRawDown
	KeyDown    = core.KeyDown
	KeyUp      = core.KeyUp
	KeyChar    = core.KeyChar

	ModAlt   = core.ModAlt
	ModCtrl  = core.ModCtrl
	ModMeta  = core.ModMeta
	ModShift = core.ModShift
)
