package viewbridge

import "github.com/viewbridge/viewbridge/internal/core"

// Options configures a Bridge. The zero value is usable: everything stays
// in memory and the built-in software engine is used.
type Options struct {
	// BaseDir is the disk-fallback root for the virtual file overlay. It
	// also hosts the debug log and page storage. Empty keeps all state in
	// memory.
	BaseDir string

	// Debug enables verbose logging to BaseDir/bridge.log.
	Debug bool

	// Clipboard overrides the engine's clipboard integration point. Nil
	// selects an in-process clipboard.
	Clipboard core.Clipboard

	// NewEngine overrides engine construction, mainly for tests. Nil
	// selects the built-in software engine.
	NewEngine func(core.EngineConfig) (core.Engine, error)
}
