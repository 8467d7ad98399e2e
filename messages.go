package viewbridge

// GetMessage pops the oldest application message sent by the view's page
// scripts through window.go.send. The second result is false when the
// queue is empty or the view id is dead.
func (b *Bridge) GetMessage(id int) (string, bool) {
	slot := b.reg.get(id)
	if slot == nil {
		return "", false
	}
	return slot.messages.Pop()
}

// GetConsoleMessage pops the oldest console message emitted by the view's
// page scripts.
func (b *Bridge) GetConsoleMessage(id int) (string, bool) {
	slot := b.reg.get(id)
	if slot == nil {
		return "", false
	}
	return slot.console.Pop()
}
