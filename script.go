package viewbridge

import (
	"encoding/json"
	"fmt"
)

// EvalScript enqueues a script for evaluation in the view's page context
// on the next tick. Non-blocking; empty scripts, scripts over 1024 bytes,
// dead view ids and a full script queue all drop the request silently.
func (b *Bridge) EvalScript(id int, script string) {
	if script == "" || len(script) > maxScriptLen {
		return
	}
	slot := b.reg.get(id)
	if slot == nil {
		return
	}
	slot.scripts.Push(script)
}

// Send delivers a message to page scripts via window.go.receive. Strings
// are delivered as-is; any other value is delivered as its decoded JSON.
// The delivery script runs on the next tick; pages without a receive
// handler drop the message.
func (b *Bridge) Send(id int, v any) error {
	slot := b.reg.get(id)
	if slot == nil {
		return ErrUnknownView
	}

	var payload []byte
	var err error
	if s, ok := v.(string); ok {
		payload, err = json.Marshal(s)
	} else {
		var encoded []byte
		encoded, err = json.Marshal(v)
		if err == nil {
			// Double-encode so the page receives the decoded value, not
			// a JSON string.
			payload, err = json.Marshal(string(encoded))
		}
	}
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	js := "if (window.go && typeof window.go.receive === 'function') { window.go.receive("
	if _, ok := v.(string); ok {
		js += string(payload)
	} else {
		js += "JSON.parse(" + string(payload) + ")"
	}
	js += "); }"

	if !slot.scripts.Push(js) {
		return fmt.Errorf("view %d: script queue full", id)
	}
	return nil
}

// ParseMessage decodes a JSON application message (as produced by
// window.go.send with an object argument) into a map.
func ParseMessage(msg string) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(msg), &out); err != nil {
		return nil, fmt.Errorf("decoding message: %w", err)
	}
	return out, nil
}
