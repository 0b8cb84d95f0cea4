package aravis

import (
	"sync"
	"testing"
	"unsafe"
)

// swap replaces a package variable for the duration of a test.
func swap[T any](t *testing.T, p *T, v T) {
	t.Helper()
	old := *p
	*p = v
	t.Cleanup(func() { *p = old })
}

// markInitialized makes Init succeed without loading anything.
func markInitialized(t *testing.T) {
	t.Helper()
	global = registration{}
	if err := global.register(nil, func(*Resolver) error { return nil }); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { global = registration{} })
}

func cbytes(s string) *byte {
	b := append([]byte(s), 0)
	return &b[0]
}

func newGError(code int32, msg string) *gError {
	return &gError{domain: 7, code: code, message: cbytes(msg)}
}

type fakeBuffer struct {
	data   []byte
	status BufferStatus
	width  int32
	height int32
	format uint32
	frame  uint64
}

// fakeNative stands in for libaravis: one camera, one stream, any number of
// buffers. Buffers pushed to the stream are filled and moved to the output
// queue when fill is called.
type fakeNative struct {
	mu      sync.Mutex
	next    uintptr
	unrefs  map[uintptr]int
	freed   int
	buffers map[uintptr]*fakeBuffer
	input   []uintptr
	output  []uintptr

	camera uintptr
	stream uintptr
	device uintptr

	exposure    float64
	started     bool
	stopped     int
	lastTimeout uint64
	autoFill    BufferStatus
	frames      uint64

	failNext *gError
}

func (f *fakeNative) alloc() uintptr {
	f.next += 0x10
	return f.next
}

func (f *fakeNative) takeFail(gerr **gError) bool {
	if f.failNext == nil {
		return false
	}
	*gerr = f.failNext
	f.failNext = nil
	return true
}

// fill completes every queued input buffer with status.
func (f *fakeNative) fill(status BufferStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.input {
		b := f.buffers[p]
		b.status = status
		f.frames++
		b.frame = f.frames
		f.output = append(f.output, p)
	}
	f.input = nil
}

func (f *fakeNative) unrefCount(p uintptr) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unrefs[p]
}

func installFakes(t *testing.T) *fakeNative {
	t.Helper()
	markInitialized(t)

	f := &fakeNative{
		next:     0x1000,
		unrefs:   map[uintptr]int{},
		buffers:  map[uintptr]*fakeBuffer{},
		exposure: 1000,
		autoFill: BufferStatusUnknown,
	}

	swap(t, &g_object_unref, func(p uintptr) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.unrefs[p]++
	})
	swap(t, &g_error_free, func(*gError) { f.freed++ })
	swap(t, &g_quark_to_string, func(uint32) string { return "arv-test-error" })
	swap(t, &g_free, func(unsafe.Pointer) {})
	swap(t, &g_type_name_from_instance, func(uintptr) string { return "ArvGcFloatNode" })

	swap(t, &arv_camera_new, func(name *byte, gerr **gError) uintptr {
		if goString(name) == "missing" {
			*gerr = newGError(1, "camera not found")
			return 0
		}
		f.camera = f.alloc()
		return f.camera
	})
	swap(t, &arv_camera_get_vendor_name, func(cam uintptr, gerr **gError) string { return "Fake" })
	swap(t, &arv_camera_get_model_name, func(cam uintptr, gerr **gError) string { return "FakeCam" })
	swap(t, &arv_camera_get_device_serial_number, func(cam uintptr, gerr **gError) string { return "SN-1" })
	swap(t, &arv_camera_get_device_id, func(cam uintptr, gerr **gError) string { return "Fake-SN-1" })
	swap(t, &arv_camera_get_region, func(cam uintptr, x, y, w, h *int32, gerr **gError) {
		*x, *y, *w, *h = 0, 0, 4, 2
	})
	swap(t, &arv_camera_set_region, func(cam uintptr, x, y, w, h int32, gerr **gError) {})
	swap(t, &arv_camera_get_width_bounds, func(cam uintptr, min, max *int32, gerr **gError) { *min, *max = 1, 640 })
	swap(t, &arv_camera_get_payload, func(cam uintptr, gerr **gError) uint32 { return 8 })
	swap(t, &arv_camera_get_exposure_time, func(cam uintptr, gerr **gError) float64 {
		if f.takeFail(gerr) {
			return 0
		}
		return f.exposure
	})
	swap(t, &arv_camera_set_exposure_time, func(cam uintptr, us float64, gerr **gError) {
		if f.takeFail(gerr) {
			return
		}
		f.exposure = us
	})
	swap(t, &arv_camera_get_pixel_format, func(cam uintptr, gerr **gError) uint32 { return uint32(PixelFormatMono8) })
	swap(t, &arv_camera_start_acquisition, func(cam uintptr, gerr **gError) { f.started = true })
	swap(t, &arv_camera_stop_acquisition, func(cam uintptr, gerr **gError) {
		f.started = false
		f.stopped++
	})
	swap(t, &arv_camera_is_gv_device, func(cam uintptr) bool { return true })
	swap(t, &arv_camera_create_stream, func(cam uintptr, cb, data uintptr, gerr **gError) uintptr {
		f.stream = f.alloc()
		return f.stream
	})
	swap(t, &arv_camera_get_device, func(cam uintptr) uintptr {
		if f.device == 0 {
			f.device = f.alloc()
		}
		return f.device
	})

	swap(t, &arv_stream_set_emit_signals, func(stream uintptr, emit bool) {})
	swap(t, &arv_stream_push_buffer, func(stream, buf uintptr) {
		f.mu.Lock()
		f.input = append(f.input, buf)
		f.mu.Unlock()
		if f.autoFill != BufferStatusUnknown {
			f.fill(f.autoFill)
		}
	})
	pop := func() uintptr {
		f.mu.Lock()
		defer f.mu.Unlock()
		if len(f.output) == 0 {
			return 0
		}
		p := f.output[0]
		f.output = f.output[1:]
		return p
	}
	swap(t, &arv_stream_pop_buffer, func(stream uintptr) uintptr { return pop() })
	swap(t, &arv_stream_timeout_pop_buffer, func(stream uintptr, us uint64) uintptr {
		f.lastTimeout = us
		return pop()
	})
	swap(t, &arv_stream_get_statistics, func(stream uintptr, c, fl, u *uint64) {
		*c, *fl, *u = f.frames, 0, 0
	})
	swap(t, &arv_stream_get_n_buffers, func(stream uintptr, in, out *int32) {
		f.mu.Lock()
		defer f.mu.Unlock()
		*in, *out = int32(len(f.input)), int32(len(f.output))
	})

	swap(t, &arv_buffer_new_allocate, func(size uintptr) uintptr {
		p := f.alloc()
		data := make([]byte, size)
		for i := range data {
			data[i] = byte(i)
		}
		f.buffers[p] = &fakeBuffer{data: data, status: BufferStatusCleared, width: 4, height: 2, format: uint32(PixelFormatMono8)}
		return p
	})
	buf := func(p uintptr) *fakeBuffer {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.buffers[p]
	}
	swap(t, &arv_buffer_get_status, func(p uintptr) int32 { return int32(buf(p).status) })
	swap(t, &arv_buffer_get_data, func(p uintptr, size *uintptr) unsafe.Pointer {
		b := buf(p)
		*size = uintptr(len(b.data))
		return unsafe.Pointer(&b.data[0])
	})
	swap(t, &arv_buffer_get_image_width, func(p uintptr) int32 { return buf(p).width })
	swap(t, &arv_buffer_get_image_height, func(p uintptr) int32 { return buf(p).height })
	swap(t, &arv_buffer_get_image_pixel_format, func(p uintptr) uint32 { return buf(p).format })
	swap(t, &arv_buffer_get_frame_id, func(p uintptr) uint64 { return buf(p).frame })
	swap(t, &arv_buffer_get_image_region, func(p uintptr, x, y, w, h *int32) {
		b := buf(p)
		*x, *y, *w, *h = 0, 0, b.width, b.height
	})

	return f
}
