package aravis

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"unsafe"
)

// Buffer is an ArvBuffer. A Buffer is either held by the caller, who must
// Close it, or queued in a Stream between PushBuffer and a pop, during which
// the stream owns it and every accessor fails with ErrBufferQueued.
type Buffer struct {
	h      *handle
	queued atomic.Bool
}

// NewBuffer allocates a buffer able to hold size bytes of payload.
func NewBuffer(size int) (*Buffer, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, fmt.Errorf("buffer: invalid size %d", size)
	}
	ptr := arv_buffer_new_allocate(uintptr(size))
	if ptr == 0 {
		return nil, &Error{Op: "NewBuffer", Message: "failed to allocate buffer"}
	}
	return wrapBuffer(ptr), nil
}

func wrapBuffer(ptr uintptr) *Buffer {
	b := &Buffer{h: newHandle("buffer", ptr, unrefObject)}
	runtime.SetFinalizer(b, (*Buffer).Close)
	return b
}

// Close releases the buffer. Closing a queued buffer only detaches the
// wrapper; the stream still frees the native buffer.
func (b *Buffer) Close() error {
	if b == nil {
		return nil
	}
	if b.queued.Load() {
		b.h.disown()
		b.queued.Store(false)
	} else {
		b.h.close()
	}
	runtime.SetFinalizer(b, nil)
	return nil
}

func (b *Buffer) get() (uintptr, error) {
	if b == nil || b.h.isClosed() {
		return 0, closedError("buffer")
	}
	if b.queued.Load() {
		return 0, fmt.Errorf("buffer: %w", ErrBufferQueued)
	}
	return b.h.get()
}

func bufferCall[T any](b *Buffer, fn func(buf uintptr) T) (T, error) {
	var zero T
	ptr, err := b.get()
	if err != nil {
		return zero, err
	}
	v := fn(ptr)
	runtime.KeepAlive(b)
	return v, nil
}

// Status returns how the last acquisition into the buffer ended.
func (b *Buffer) Status() (BufferStatus, error) {
	v, err := bufferCall(b, arv_buffer_get_status)
	return BufferStatus(v), err
}

// Width returns the image width in pixels.
func (b *Buffer) Width() (int, error) {
	v, err := bufferCall(b, arv_buffer_get_image_width)
	return int(v), err
}

// Height returns the image height in pixels.
func (b *Buffer) Height() (int, error) {
	v, err := bufferCall(b, arv_buffer_get_image_height)
	return int(v), err
}

// PixelFormat returns the pixel format of the image.
func (b *Buffer) PixelFormat() (PixelFormat, error) {
	v, err := bufferCall(b, arv_buffer_get_image_pixel_format)
	return PixelFormat(v), err
}

// Timestamp returns the camera timestamp in nanoseconds.
func (b *Buffer) Timestamp() (uint64, error) {
	return bufferCall(b, arv_buffer_get_timestamp)
}

// SystemTimestamp returns the host time the buffer was received, in
// nanoseconds.
func (b *Buffer) SystemTimestamp() (uint64, error) {
	return bufferCall(b, arv_buffer_get_system_timestamp)
}

// FrameID returns the frame id assigned by the camera.
func (b *Buffer) FrameID() (uint64, error) {
	return bufferCall(b, arv_buffer_get_frame_id)
}

// Region returns the image region held by the buffer.
func (b *Buffer) Region() (Region, error) {
	return bufferCall(b, func(buf uintptr) Region {
		var x, y, w, h int32
		arv_buffer_get_image_region(buf, &x, &y, &w, &h)
		return Region{X: int(x), Y: int(y), Width: int(w), Height: int(h)}
	})
}

// view returns the payload without copying. The slice is only valid until
// the buffer is pushed or closed, and b must be kept alive while it is used.
func (b *Buffer) view() ([]byte, error) {
	return bufferCall(b, func(buf uintptr) []byte {
		var size uintptr
		p := arv_buffer_get_data(buf, &size)
		if p == nil || size == 0 {
			return nil
		}
		return unsafe.Slice((*byte)(p), size)
	})
}

// Data returns a copy of the payload.
func (b *Buffer) Data() ([]byte, error) {
	src, err := b.view()
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(src))
	copy(out, src)
	runtime.KeepAlive(b)
	return out, nil
}

// CopyTo copies the payload into dst and returns the number of bytes
// copied. dst must be large enough to hold the whole payload.
func (b *Buffer) CopyTo(dst []byte) (int, error) {
	src, err := b.view()
	if err != nil {
		return 0, err
	}
	if len(dst) < len(src) {
		return 0, fmt.Errorf("buffer: destination too small: need %d bytes, have %d", len(src), len(dst))
	}
	n := copy(dst, src)
	runtime.KeepAlive(b)
	return n, nil
}
