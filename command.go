package viewbridge

import "errors"

// cmdKind tags a command submitted to the owner goroutine.
type cmdKind int

const (
	cmdInit cmdKind = iota
	cmdCreateView
	cmdCreateViewAsync
	cmdCreateViewWithContent
	cmdDestroyView
	cmdLoad
	cmdTick
	cmdQuit
)

// Result codes published by command handlers. Non-negative codes are
// success (slot ids for creation commands, codeOK otherwise).
const (
	codeOK         = 0
	codeNoFreeSlot = -1
	codeNotRunning = -2
	codeEngineInit = -10
	codeViewCreate = -11
)

var (
	// ErrNoFreeSlot is returned when all view slots are live.
	ErrNoFreeSlot = errors.New("viewbridge: no free view slot")
	// ErrNotRunning is returned when the bridge has shut down or was
	// never initialized.
	ErrNotRunning = errors.New("viewbridge: bridge is not running")
	// ErrEngineInit is returned when the engine cannot be constructed.
	ErrEngineInit = errors.New("viewbridge: engine initialization failed")
	// ErrViewCreate is returned when the engine rejects a surface.
	ErrViewCreate = errors.New("viewbridge: view creation failed")
	// ErrUnknownView is returned for operations on a dead or never
	// allocated view id.
	ErrUnknownView = errors.New("viewbridge: unknown view id")
)

func codeToError(code int) error {
	switch code {
	case codeNoFreeSlot:
		return ErrNoFreeSlot
	case codeNotRunning:
		return ErrNotRunning
	case codeEngineInit:
		return ErrEngineInit
	case codeViewCreate:
		return ErrViewCreate
	}
	if code < 0 {
		return ErrNotRunning
	}
	return nil
}

// command is one request to the owner goroutine. Commands flow through a
// channel of depth one and each carries its own reply channel, so at most
// one request is outstanding and submissions are totally ordered.
type command struct {
	kind   cmdKind
	str    string
	i1, i2 int
	flag   bool // isURL for content commands
	reply  chan int
}
