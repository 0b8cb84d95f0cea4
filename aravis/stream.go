package aravis

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"
)

// DefaultPollInterval is the pop timeout Next uses when none is given.
const DefaultPollInterval = 100 * time.Millisecond

// StreamStatistics are the counters kept by a stream.
type StreamStatistics struct {
	Completed uint64
	Failures  uint64
	Underruns uint64
}

// Stream receives frames from a camera. Buffers are handed to the stream
// with PushBuffer and come back filled through the pop operations.
type Stream struct {
	h *handle

	mu     sync.Mutex
	queued map[uintptr]*Buffer
}

func wrapStream(ptr uintptr, release func(uintptr)) *Stream {
	s := &Stream{
		h:      newHandle("stream", ptr, release),
		queued: make(map[uintptr]*Buffer),
	}
	runtime.SetFinalizer(s, (*Stream).Close)
	return s
}

// Close releases the stream. Buffers still queued are freed by the native
// stream and their wrappers become closed.
func (s *Stream) Close() error {
	if s == nil {
		return nil
	}
	s.h.close()
	runtime.SetFinalizer(s, nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	for ptr, b := range s.queued {
		b.h.disown()
		b.queued.Store(false)
		delete(s.queued, ptr)
	}
	return nil
}

func (s *Stream) get() (uintptr, error) {
	if s == nil {
		return 0, closedError("stream")
	}
	return s.h.get()
}

// PushBuffer queues b for filling. The stream owns b until it is popped.
func (s *Stream) PushBuffer(b *Buffer) error {
	sp, err := s.get()
	if err != nil {
		return err
	}
	if b == nil {
		return errors.New("stream: nil buffer")
	}
	bp, err := b.get()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	arv_stream_push_buffer(sp, bp)
	runtime.KeepAlive(s)
	b.queued.Store(true)
	s.queued[bp] = b
	return nil
}

// PopBuffer returns a filled buffer without waiting, or ErrNoBuffer.
func (s *Stream) PopBuffer() (*Buffer, error) {
	sp, err := s.get()
	if err != nil {
		return nil, err
	}
	ptr := arv_stream_pop_buffer(sp)
	runtime.KeepAlive(s)
	return s.claim(ptr)
}

// TimeoutPopBuffer waits up to timeout for a filled buffer. It returns
// ErrNoBuffer when none arrived. The native wait cannot be interrupted.
func (s *Stream) TimeoutPopBuffer(timeout time.Duration) (*Buffer, error) {
	sp, err := s.get()
	if err != nil {
		return nil, err
	}
	us := timeout.Microseconds()
	if us < 0 {
		us = 0
	}
	ptr := arv_stream_timeout_pop_buffer(sp, uint64(us))
	runtime.KeepAlive(s)
	return s.claim(ptr)
}

// claim hands a popped buffer back to the caller, reusing the wrapper it was
// pushed with when there is one.
func (s *Stream) claim(ptr uintptr) (*Buffer, error) {
	if ptr == 0 {
		return nil, ErrNoBuffer
	}

	s.mu.Lock()
	b, ok := s.queued[ptr]
	delete(s.queued, ptr)
	s.mu.Unlock()

	if ok && !b.h.isClosed() {
		b.queued.Store(false)
		return b, nil
	}
	return wrapBuffer(ptr), nil
}

// Next waits for a filled buffer, polling the stream every poll until one
// arrives or ctx is done. A zero poll uses DefaultPollInterval.
func (s *Stream) Next(ctx context.Context, poll time.Duration) (*Buffer, error) {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		b, err := s.TimeoutPopBuffer(poll)
		if errors.Is(err, ErrNoBuffer) {
			continue
		}
		return b, err
	}
}

// Statistics returns the stream counters.
func (s *Stream) Statistics() (StreamStatistics, error) {
	sp, err := s.get()
	if err != nil {
		return StreamStatistics{}, err
	}
	var st StreamStatistics
	arv_stream_get_statistics(sp, &st.Completed, &st.Failures, &st.Underruns)
	runtime.KeepAlive(s)
	return st, nil
}

// NumBuffers returns the lengths of the input and output queues.
func (s *Stream) NumBuffers() (input, output int, err error) {
	sp, err := s.get()
	if err != nil {
		return 0, 0, err
	}
	var in, out int32
	arv_stream_get_n_buffers(sp, &in, &out)
	runtime.KeepAlive(s)
	return int(in), int(out), nil
}

func (st StreamStatistics) String() string {
	return fmt.Sprintf("completed=%d failures=%d underruns=%d", st.Completed, st.Failures, st.Underruns)
}
