package aravis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireMaxFrames(t *testing.T) {
	f := installFakes(t)
	f.autoFill = BufferStatusSuccess

	cam, err := NewCamera("")
	require.NoError(t, err)
	defer cam.Close()

	var ids []uint64
	stats, err := Acquire(context.Background(), cam, AcquireConfig{
		Buffers:   2,
		MaxFrames: 3,
		Timeout:   50 * time.Millisecond,
		Handler: func(b *Buffer) error {
			id, err := b.FrameID()
			ids = append(ids, id)
			return err
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, ids)
	assert.Equal(t, int64(3), stats.Successes())
	assert.Equal(t, int64(24), stats.Bytes())
	assert.Equal(t, uint64(50000), f.lastTimeout)

	assert.False(t, f.started)
	assert.Equal(t, 1, f.stopped)
	assert.Equal(t, 1, f.unrefCount(f.stream))
}

func TestAcquireHandlerStops(t *testing.T) {
	f := installFakes(t)
	f.autoFill = BufferStatusSuccess

	cam, err := NewCamera("")
	require.NoError(t, err)
	defer cam.Close()

	calls := 0
	_, err = Acquire(context.Background(), cam, AcquireConfig{
		Handler: func(*Buffer) error {
			calls++
			if calls == 2 {
				return ErrStopAcquisition
			}
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, f.stopped)

	boom := errors.New("disk full")
	_, err = Acquire(context.Background(), cam, AcquireConfig{
		Handler: func(*Buffer) error { return boom },
	})
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 2, f.stopped)
}

func TestAcquireCountsFailuresAndTimeouts(t *testing.T) {
	f := installFakes(t)

	cam, err := NewCamera("")
	require.NoError(t, err)
	defer cam.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pops := 0
	pop := arv_stream_timeout_pop_buffer
	swap(t, &arv_stream_timeout_pop_buffer, func(stream uintptr, us uint64) uintptr {
		pops++
		switch pops {
		case 1:
			// Nothing queued on the output side yet.
		case 2:
			f.fill(BufferStatusMissingPackets)
		case 3:
			cancel()
		}
		return pop(stream, us)
	})

	handled := 0
	stats, err := Acquire(ctx, cam, AcquireConfig{
		Buffers: 1,
		Handler: func(*Buffer) error { handled++; return nil },
	})
	require.NoError(t, err)
	assert.Zero(t, handled)
	assert.Equal(t, int64(2), stats.Timeouts())
	assert.Equal(t, int64(1), stats.Failures())
	assert.Equal(t, int64(0), stats.Successes())
	assert.Equal(t, 3, pops)
}

func TestAcquireClosedCamera(t *testing.T) {
	installFakes(t)

	cam, err := NewCamera("")
	require.NoError(t, err)
	cam.Close()

	_, err = Acquire(context.Background(), cam, AcquireConfig{})
	assert.True(t, errors.Is(err, ErrClosed))
}
