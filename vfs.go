package viewbridge

import (
	"fmt"
	"io/fs"
)

// Virtual file facade. Registered entries take precedence over files
// under BaseDir when the engine resolves a resource; paths are normalized
// (separators, case, file:/// prefix) so the same content is found no
// matter how the engine formats the request.

// RegisterFile registers path as in-memory content. Re-registering a path
// replaces its content. Empty data is ignored. The byte slice is retained
// as-is and must not be mutated afterwards.
func (b *Bridge) RegisterFile(path string, data []byte) {
	if len(data) == 0 {
		return
	}
	b.fs.Register(path, data)
}

// RegisterFS registers every regular file in fsys, keyed by its path
// within fsys. Useful with embed.FS for shipping page assets in the
// binary.
func (b *Bridge) RegisterFS(fsys fs.FS) error {
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("reading %q: %w", path, err)
		}
		b.RegisterFile(path, data)
		return nil
	})
	if err != nil {
		return fmt.Errorf("registering file system: %w", err)
	}
	return nil
}

// ClearFiles removes every registered entry. Disk fallback under BaseDir
// is unaffected.
func (b *Bridge) ClearFiles() {
	b.fs.Clear()
}

// FileCount returns the number of registered entries.
func (b *Bridge) FileCount() int {
	return b.fs.Count()
}
