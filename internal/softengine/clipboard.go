package softengine

import "sync"

// memClipboard is the default in-process clipboard. OS clipboard
// integration is an external collaborator; embedders that want it supply
// their own core.Clipboard.
type memClipboard struct {
	mu   sync.Mutex
	text string
}

func (c *memClipboard) ReadText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

func (c *memClipboard) WriteText(s string) {
	c.mu.Lock()
	c.text = s
	c.mu.Unlock()
}
