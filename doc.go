// Package viewbridge drives a single-threaded, non-reentrant HTML view
// engine from any number of goroutines. One owner goroutine, locked to
// its OS thread, executes every engine operation; callers interact
// through a blocking command handshake (view lifecycle, content loads,
// ticks) and non-blocking bounded queues (input events, scripts,
// outbound messages).
//
// Views live in a fixed table of 16 slots addressed by small stable ids;
// the lowest free index is always assigned first. Content for views can
// be injected in memory through the virtual file overlay, which the
// engine consults ahead of the disk fallback whenever it resolves a
// resource.
//
// A built-in pure-Go engine (QuickJS scripting, software rasterization)
// backs the bridge by default; alternative engines plug in through
// Options.NewEngine.
package viewbridge
