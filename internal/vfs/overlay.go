// Package vfs implements the in-memory virtual file overlay consulted by
// the engine ahead of disk whenever it requests a resource.
package vfs

import (
	"bytes"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/andybalholm/brotli"
	"go.uber.org/zap"
)

// brotliExt marks a pre-compressed sidecar entry. A request for "p" that
// misses falls back to "p.br" (registered or on disk) and is decompressed
// transparently.
const brotliExt = ".br"

// Overlay maps normalized virtual paths to in-memory byte buffers, with a
// disk fallback rooted at a base directory. Registered entries take
// precedence over disk files of the same relative path.
//
// Registered hits return a borrowed reference (zero-copy); disk reads
// return an owned copy whose release callback the engine must invoke.
type Overlay struct {
	mu      sync.RWMutex
	files   map[string][]byte
	baseDir string
	log     *zap.Logger

	// outstanding counts disk-fallback buffers handed to the engine and
	// not yet released. Purely diagnostic.
	outstanding atomic.Int64
}

// New creates an empty overlay with the given disk-fallback root.
func New(baseDir string, log *zap.Logger) *Overlay {
	if log == nil {
		log = zap.NewNop()
	}
	return &Overlay{
		files:   make(map[string][]byte),
		baseDir: baseDir,
		log:     log,
	}
}

// Normalize canonicalizes a virtual path so that registered and
// engine-formatted paths compare equal: backslashes become forward
// slashes, a file:/// scheme prefix is stripped, the path is lowercased
// and cleaned rooted (so ".." segments resolve in place and can never
// climb out of the disk-fallback root), and leading slashes are stripped.
func Normalize(p string) string {
	p = strings.ToLower(strings.ReplaceAll(p, "\\", "/"))
	p = strings.TrimPrefix(p, "file://")
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

// Register inserts or replaces the entry for path. The buffer is stored
// as-is; callers must not mutate it afterwards.
func (o *Overlay) Register(path string, data []byte) {
	norm := Normalize(path)
	o.mu.Lock()
	o.files[norm] = data
	o.mu.Unlock()
	o.log.Debug("vfs register", zap.String("path", norm), zap.Int("bytes", len(data)))
}

// Clear releases every registered entry.
func (o *Overlay) Clear() {
	o.mu.Lock()
	o.files = make(map[string][]byte)
	o.mu.Unlock()
	if n := o.outstanding.Load(); n > 0 {
		o.log.Warn("vfs cleared with unreleased disk buffers", zap.Int64("outstanding", n))
	}
}

// Count returns the number of registered entries.
func (o *Overlay) Count() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.files)
}

// Exists reports whether path resolves through the overlay or the disk
// fallback.
func (o *Overlay) Exists(path string) bool {
	norm := Normalize(path)
	o.mu.RLock()
	_, reg := o.files[norm]
	_, regBr := o.files[norm+brotliExt]
	o.mu.RUnlock()
	if reg || regBr {
		return true
	}
	if o.baseDir == "" {
		return false
	}
	if _, err := os.Stat(o.diskPath(norm)); err == nil {
		return true
	}
	_, err := os.Stat(o.diskPath(norm) + brotliExt)
	return err == nil
}

// MIMEType derives the MIME type of path from its extension.
func (o *Overlay) MIMEType(path string) string {
	return mimeByExtension(strings.TrimSuffix(Normalize(path), brotliExt))
}

// Open resolves path. Precedence: registered entry (borrowed, zero-copy),
// registered brotli sidecar, disk file under the base directory, disk
// brotli sidecar. Disk and decompressed buffers are owned by the overlay
// until the release callback runs.
func (o *Overlay) Open(path string) (data []byte, release func(), ok bool) {
	norm := Normalize(path)

	o.mu.RLock()
	reg, regOK := o.files[norm]
	regBr, regBrOK := o.files[norm+brotliExt]
	o.mu.RUnlock()

	if regOK {
		return reg, func() {}, true
	}
	if regBrOK {
		dec, err := decodeBrotli(regBr)
		if err != nil {
			o.log.Warn("vfs brotli entry corrupt", zap.String("path", norm), zap.Error(err))
			return nil, nil, false
		}
		return dec, o.trackRelease(), true
	}

	if o.baseDir == "" {
		return nil, nil, false
	}

	if raw, err := os.ReadFile(o.diskPath(norm)); err == nil {
		return raw, o.trackRelease(), true
	}
	if raw, err := os.ReadFile(o.diskPath(norm) + brotliExt); err == nil {
		dec, derr := decodeBrotli(raw)
		if derr != nil {
			o.log.Warn("vfs brotli sidecar corrupt", zap.String("path", norm), zap.Error(derr))
			return nil, nil, false
		}
		return dec, o.trackRelease(), true
	}

	return nil, nil, false
}

func (o *Overlay) diskPath(norm string) string {
	return filepath.Join(o.baseDir, filepath.FromSlash(norm))
}

func (o *Overlay) trackRelease() func() {
	o.outstanding.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { o.outstanding.Add(-1) })
	}
}

// OutstandingReads returns the number of unreleased disk-fallback buffers.
func (o *Overlay) OutstandingReads() int {
	return int(o.outstanding.Load())
}

func decodeBrotli(data []byte) ([]byte, error) {
	return io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
}
