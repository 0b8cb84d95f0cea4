package aravis

import (
	"sync/atomic"
)

// handle owns exactly one native object. It is released at most once and
// reports ErrClosed once released.
//
// A handle is not meant to be shared between goroutines while other
// goroutines may close it; the native objects behind it are not either.
type handle struct {
	ptr     uintptr
	closed  atomic.Bool
	kind    string
	release func(uintptr)
}

func newHandle(kind string, ptr uintptr, release func(uintptr)) *handle {
	return &handle{ptr: ptr, kind: kind, release: release}
}

// get returns the native pointer, or an error wrapping ErrClosed.
func (h *handle) get() (uintptr, error) {
	if h == nil || h.closed.Load() {
		return 0, closedError(h.name())
	}
	return h.ptr, nil
}

func (h *handle) name() string {
	if h == nil {
		return "handle"
	}
	return h.kind
}

// close releases the native object on the first call and does nothing after.
// A panic raised while releasing is logged and dropped; the handle counts as
// closed either way.
func (h *handle) close() {
	if h == nil || h.closed.Swap(true) {
		return
	}
	ptr := h.ptr
	h.ptr = 0
	if ptr == 0 || h.release == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			logger().Warn("releasing native object failed", "kind", h.kind, "panic", r)
		}
	}()
	h.release(ptr)
}

// disown marks the handle closed without releasing the native object. It is
// used when the native side has already disposed of it.
func (h *handle) disown() {
	if h == nil || h.closed.Swap(true) {
		return
	}
	h.ptr = 0
}

func (h *handle) isClosed() bool {
	return h == nil || h.closed.Load()
}

// unrefObject drops a GObject reference.
func unrefObject(ptr uintptr) {
	g_object_unref(ptr)
}
