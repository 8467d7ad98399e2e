package viewbridge

// Pixel readback. The surface stores BGRA bytes with RowBytes() bytes per
// row; GetPixels/UnlockPixels bracket raw access, CopyPixelsRGBA is the
// one-call variant that also converts to RGBA and skips unchanged frames.

// GetPixels locks the view's surface and returns its BGRA backing buffer.
// The slice is valid only until UnlockPixels; returns nil for a dead id.
func (b *Bridge) GetPixels(id int) []byte {
	slot := b.reg.get(id)
	if slot == nil || slot.view == nil {
		return nil
	}
	return slot.view.Surface().LockPixels()
}

// UnlockPixels releases the lock taken by GetPixels.
func (b *Bridge) UnlockPixels(id int) {
	slot := b.reg.get(id)
	if slot == nil || slot.view == nil {
		return
	}
	slot.view.Surface().UnlockPixels()
}

// CopyPixelsRGBA copies the surface into dst as RGBA, returning true only
// when the surface had unrendered changes. dst must hold at least
// RowBytes*Height bytes; short destinations copy nothing.
func (b *Bridge) CopyPixelsRGBA(id int, dst []byte) bool {
	slot := b.reg.get(id)
	if slot == nil || slot.view == nil {
		return false
	}
	surf := slot.view.Surface()
	need := surf.RowBytes() * surf.Height()
	if len(dst) < need {
		return false
	}
	// Check, copy and clear all under the surface lock: a repaint that
	// lands after the copy must keep its dirty flag for the next read.
	src := surf.LockPixels()
	if !surf.Dirty() {
		surf.UnlockPixels()
		return false
	}
	for i := 0; i+3 < need; i += 4 {
		dst[i+0] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i+0]
		dst[i+3] = src[i+3]
	}
	surf.ClearDirty()
	surf.UnlockPixels()
	return true
}

// ViewWidth returns the view's width in pixels, or 0 for a dead id.
func (b *Bridge) ViewWidth(id int) int {
	if slot := b.reg.get(id); slot != nil {
		return slot.width
	}
	return 0
}

// ViewHeight returns the view's height in pixels, or 0 for a dead id.
func (b *Bridge) ViewHeight(id int) int {
	if slot := b.reg.get(id); slot != nil {
		return slot.height
	}
	return 0
}

// RowBytes returns the surface stride in bytes, or 0 for a dead id.
func (b *Bridge) RowBytes(id int) int {
	slot := b.reg.get(id)
	if slot == nil || slot.view == nil {
		return 0
	}
	return slot.view.Surface().RowBytes()
}
