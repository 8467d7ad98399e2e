package softengine

import (
	"sync"
	"sync/atomic"
)

// Surface is a software raster target. Pixels are BGRA with no row
// padding (RowBytes == 4*Width). The lock/unlock pair serializes caller
// readback against owner-side repaints.
type Surface struct {
	mu       sync.Mutex
	width    int
	height   int
	rowBytes int
	pix      []byte
	dirty    atomic.Bool
}

func newSurface(width, height int) *Surface {
	return &Surface{
		width:    width,
		height:   height,
		rowBytes: width * 4,
		pix:      make([]byte, width*height*4),
	}
}

func (s *Surface) Width() int    { return s.width }
func (s *Surface) Height() int   { return s.height }
func (s *Surface) RowBytes() int { return s.rowBytes }

// LockPixels locks the surface and returns the backing buffer. The slice
// must not be retained past UnlockPixels.
func (s *Surface) LockPixels() []byte {
	s.mu.Lock()
	return s.pix
}

func (s *Surface) UnlockPixels() {
	s.mu.Unlock()
}

func (s *Surface) Dirty() bool { return s.dirty.Load() }

func (s *Surface) ClearDirty() { s.dirty.Store(false) }

// writeBGRA replaces the surface contents and marks it dirty. The source
// must be exactly RowBytes*Height bytes.
func (s *Surface) writeBGRA(src []byte) {
	s.mu.Lock()
	copy(s.pix, src)
	s.dirty.Store(true)
	s.mu.Unlock()
}
