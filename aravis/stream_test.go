package aravis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStream(t *testing.T) (*fakeNative, *Camera, *Stream) {
	t.Helper()
	f := installFakes(t)
	cam, err := NewCamera("")
	require.NoError(t, err)
	t.Cleanup(func() { cam.Close() })
	s, err := cam.CreateStream()
	require.NoError(t, err)
	return f, cam, s
}

func TestPushPopReturnsSameBuffer(t *testing.T) {
	f, _, s := openStream(t)
	defer s.Close()

	b, err := NewBuffer(8)
	require.NoError(t, err)
	require.NoError(t, s.PushBuffer(b))

	_, err = b.Status()
	assert.True(t, errors.Is(err, ErrBufferQueued))

	_, err = s.PopBuffer()
	assert.True(t, errors.Is(err, ErrNoBuffer))

	f.fill(BufferStatusSuccess)
	got, err := s.TimeoutPopBuffer(250 * time.Millisecond)
	require.NoError(t, err)
	assert.Same(t, b, got)
	assert.Equal(t, uint64(250000), f.lastTimeout)

	status, err := got.Status()
	require.NoError(t, err)
	assert.Equal(t, BufferStatusSuccess, status)

	data, err := got.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3, 4, 5, 6, 7}, data)

	got.Close()
}

func TestPushQueuedBufferFails(t *testing.T) {
	_, _, s := openStream(t)
	defer s.Close()

	b, err := NewBuffer(8)
	require.NoError(t, err)
	require.NoError(t, s.PushBuffer(b))
	assert.True(t, errors.Is(s.PushBuffer(b), ErrBufferQueued))
	assert.Error(t, s.PushBuffer(nil))
}

func TestStreamCloseDisownsQueuedBuffers(t *testing.T) {
	f, _, s := openStream(t)

	queued, err := NewBuffer(8)
	require.NoError(t, err)
	held, err := NewBuffer(8)
	require.NoError(t, err)
	require.NoError(t, s.PushBuffer(queued))

	streamPtr := f.stream
	queuedPtr := f.input[0]
	var heldPtr uintptr
	for p := range f.buffers {
		if p != queuedPtr {
			heldPtr = p
		}
	}

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, f.unrefCount(streamPtr))

	// The stream frees what it holds; the wrapper only becomes unusable.
	_, err = queued.Status()
	assert.True(t, errors.Is(err, ErrClosed))
	queued.Close()
	assert.Equal(t, 0, f.unrefCount(queuedPtr))

	_, err = held.Status()
	require.NoError(t, err)
	held.Close()
	held.Close()
	assert.Equal(t, 1, f.unrefCount(heldPtr))
}

func TestStreamOperationsFailAfterClose(t *testing.T) {
	_, _, s := openStream(t)
	require.NoError(t, s.Close())

	b, err := NewBuffer(8)
	require.NoError(t, err)
	defer b.Close()

	ops := map[string]func() error{
		"PushBuffer":       func() error { return s.PushBuffer(b) },
		"PopBuffer":        func() error { _, err := s.PopBuffer(); return err },
		"TimeoutPopBuffer": func() error { _, err := s.TimeoutPopBuffer(time.Millisecond); return err },
		"Next":             func() error { _, err := s.Next(context.Background(), time.Millisecond); return err },
		"Statistics":       func() error { _, err := s.Statistics(); return err },
		"NumBuffers":       func() error { _, _, err := s.NumBuffers(); return err },
	}
	for name, op := range ops {
		assert.True(t, errors.Is(op(), ErrClosed), name)
	}
}

func TestBufferOperationsFailAfterClose(t *testing.T) {
	installFakes(t)

	b, err := NewBuffer(8)
	require.NoError(t, err)
	require.NoError(t, b.Close())

	ops := map[string]func() error{
		"Status":          func() error { _, err := b.Status(); return err },
		"Width":           func() error { _, err := b.Width(); return err },
		"Height":          func() error { _, err := b.Height(); return err },
		"PixelFormat":     func() error { _, err := b.PixelFormat(); return err },
		"Timestamp":       func() error { _, err := b.Timestamp(); return err },
		"SystemTimestamp": func() error { _, err := b.SystemTimestamp(); return err },
		"FrameID":         func() error { _, err := b.FrameID(); return err },
		"Region":          func() error { _, err := b.Region(); return err },
		"Data":            func() error { _, err := b.Data(); return err },
		"CopyTo":          func() error { _, err := b.CopyTo(make([]byte, 8)); return err },
		"Frame":           func() error { _, err := b.Frame(); return err },
	}
	for name, op := range ops {
		assert.True(t, errors.Is(op(), ErrClosed), name)
	}
}

func TestBufferCopyTo(t *testing.T) {
	installFakes(t)

	b, err := NewBuffer(4)
	require.NoError(t, err)
	defer b.Close()

	_, err = b.CopyTo(make([]byte, 2))
	assert.Error(t, err)

	dst := make([]byte, 6)
	n, err := b.CopyTo(dst)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte{0, 1, 2, 3, 0, 0}, dst)
}

func TestNewBufferInvalidSize(t *testing.T) {
	installFakes(t)
	_, err := NewBuffer(0)
	assert.Error(t, err)
}

func TestStreamNext(t *testing.T) {
	f, _, s := openStream(t)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Next(ctx, time.Millisecond)
	assert.True(t, errors.Is(err, context.Canceled))

	b, err := NewBuffer(8)
	require.NoError(t, err)
	require.NoError(t, s.PushBuffer(b))
	f.fill(BufferStatusTimeout)

	got, err := s.Next(context.Background(), 0)
	require.NoError(t, err)
	assert.Same(t, b, got)
	assert.Equal(t, uint64(DefaultPollInterval/time.Microsecond), f.lastTimeout)
}

func TestStreamStatistics(t *testing.T) {
	f, _, s := openStream(t)
	defer s.Close()

	for i := 0; i < 2; i++ {
		b, err := NewBuffer(8)
		require.NoError(t, err)
		require.NoError(t, s.PushBuffer(b))
	}
	in, out, err := s.NumBuffers()
	require.NoError(t, err)
	assert.Equal(t, [2]int{2, 0}, [2]int{in, out})

	f.fill(BufferStatusSuccess)
	st, err := s.Statistics()
	require.NoError(t, err)
	assert.Equal(t, StreamStatistics{Completed: 2}, st)
}

func TestClosedQueuedBufferReportsClosed(t *testing.T) {
	f, _, s := openStream(t)
	defer s.Close()

	b, err := NewBuffer(8)
	require.NoError(t, err)
	require.NoError(t, s.PushBuffer(b))
	ptr := f.input[0]
	require.NoError(t, b.Close())

	_, err = b.Status()
	assert.True(t, errors.Is(err, ErrClosed))
	assert.False(t, errors.Is(err, ErrBufferQueued))
	assert.True(t, errors.Is(s.PushBuffer(b), ErrClosed))

	f.fill(BufferStatusSuccess)
	got, err := s.PopBuffer()
	require.NoError(t, err)
	assert.NotSame(t, b, got)
	status, err := got.Status()
	require.NoError(t, err)
	assert.Equal(t, BufferStatusSuccess, status)

	_, err = b.Status()
	assert.True(t, errors.Is(err, ErrClosed))
	assert.True(t, errors.Is(s.PushBuffer(b), ErrClosed))

	require.NoError(t, got.Close())
	assert.Equal(t, 1, f.unrefCount(ptr))
}

func TestNilStream(t *testing.T) {
	installFakes(t)
	var s *Stream
	assert.NoError(t, s.Close())

	b, err := NewBuffer(8)
	require.NoError(t, err)
	defer b.Close()

	ops := map[string]func() error{
		"PushBuffer":       func() error { return s.PushBuffer(b) },
		"PopBuffer":        func() error { _, err := s.PopBuffer(); return err },
		"TimeoutPopBuffer": func() error { _, err := s.TimeoutPopBuffer(time.Millisecond); return err },
		"Statistics":       func() error { _, err := s.Statistics(); return err },
		"NumBuffers":       func() error { _, _, err := s.NumBuffers(); return err },
	}
	for name, op := range ops {
		assert.True(t, errors.Is(op(), ErrClosed), name)
	}
}
