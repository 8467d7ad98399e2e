package softengine

import (
	"fmt"

	"modernc.org/quickjs"
)

// scriptContext wraps one QuickJS VM. Each view owns at most one context;
// a content load closes the old context and creates a fresh one, which is
// what resets page script state.
type scriptContext struct {
	vm *quickjs.VM
}

func newScriptContext() (*scriptContext, error) {
	vm, err := quickjs.NewVM()
	if err != nil {
		return nil, fmt.Errorf("creating QuickJS VM: %w", err)
	}
	return &scriptContext{vm: vm}, nil
}

// eval evaluates JavaScript and discards the result.
func (c *scriptContext) eval(js string) error {
	v, err := c.vm.EvalValue(js, quickjs.EvalGlobal)
	if err != nil {
		return err
	}
	v.Free()
	return nil
}

// evalString evaluates JavaScript and returns the result as a Go string.
// A null or undefined result yields the empty string.
func (c *scriptContext) evalString(js string) (string, error) {
	result, err := c.vm.Eval(js, quickjs.EvalGlobal)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", nil
	}
	return fmt.Sprint(result), nil
}

// registerFunc exposes a Go function to page scripts as a global. The VM
// maps a (T, error) Go return onto a two-element JS array, so the native
// is registered under an internal name and republished through a small JS
// shim that turns the error half into a thrown TypeError.
func (c *scriptContext) registerFunc(name string, fn any) error {
	inner := "__native_" + name
	if err := c.vm.RegisterFunc(inner, fn, false); err != nil {
		return err
	}
	shim := fmt.Sprintf(`(function(native) {
		delete globalThis[%q];
		globalThis[%q] = function() {
			var out = native.apply(this, arguments);
			if (!Array.isArray(out)) return out;
			if (out[1] !== null && out[1] !== undefined) {
				throw new TypeError(%q + ": " + out[1]);
			}
			return out[0];
		};
	})(globalThis[%q])`, inner, name, name, inner)
	return c.eval(shim)
}

// runMicrotasks pumps the context's pending job queue (Promise callbacks).
func (c *scriptContext) runMicrotasks() {
	executePendingJobs(c.vm)
}

func (c *scriptContext) close() {
	if c.vm != nil {
		c.vm.Close()
		c.vm = nil
	}
}
