package softengine

import (
	"reflect"
	"unsafe"

	"modernc.org/libc"
	lib "modernc.org/libquickjs"
	"modernc.org/quickjs"
)

// executePendingJobs drains the VM's job queue so Promise continuations
// actually run: the high-level quickjs API queues jobs but exposes no way
// to pump them, so the C-level XJS_ExecutePendingJob is reached through
// the VM's unexported runtime handle. Returns the number of jobs run.
func executePendingJobs(vm *quickjs.VM) int {
	rt, tls, ok := vmRuntime(vm)
	if !ok {
		return 0
	}
	// libquickjs v0.9.x writes the finished job's context through pctx
	// unconditionally (no NULL check), so a scratch slot is required.
	pctx := tls.Alloc(8)
	defer tls.Free(8)
	n := 0
	for lib.XJS_ExecutePendingJob(tls, rt, pctx) > 0 {
		n++
	}
	return n
}

// vmRuntime reads the C runtime pointer and TLS handle out of a VM by
// field name (modernc.org/quickjs v0.17.x: VM.runtime holds cRuntime and
// tls). A layout change makes this report false, which degrades to
// microtasks never being pumped rather than a crash.
func vmRuntime(vm *quickjs.VM) (rt uintptr, tls *libc.TLS, ok bool) {
	v := reflect.ValueOf(vm).Elem().FieldByName("runtime")
	if !v.IsValid() || v.IsNil() {
		return 0, nil, false
	}
	inner := reflect.NewAt(v.Type().Elem(), unsafe.Pointer(v.Pointer())).Elem()

	rtField := inner.FieldByName("cRuntime")
	tlsField := inner.FieldByName("tls")
	if !rtField.IsValid() || !tlsField.IsValid() || tlsField.IsNil() {
		return 0, nil, false
	}
	return uintptr(rtField.Uint()), (*libc.TLS)(unsafe.Pointer(tlsField.Pointer())), true
}
