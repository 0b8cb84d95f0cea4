package aravis

import (
	"context"
	"errors"
	"time"
)

// ErrStopAcquisition can be returned by a FrameHandler to end Acquire
// without an error.
var ErrStopAcquisition = errors.New("aravis: stop acquisition")

// FrameHandler is called with every complete buffer. The buffer is only
// valid during the call; it is pushed back to the stream afterwards.
type FrameHandler func(b *Buffer) error

// AcquireConfig tunes Acquire. Zero values pick the defaults.
type AcquireConfig struct {
	// Buffers is the number of buffers kept in flight. Default 5.
	Buffers int
	// Timeout bounds each wait for a frame. Default 1s.
	Timeout time.Duration
	// MaxFrames ends the acquisition after that many complete frames.
	// Zero means no limit.
	MaxFrames int64
	// Handler receives complete frames. It may be nil.
	Handler FrameHandler
	// Stats receives the counters. A new one is used if nil.
	Stats *AcquisitionStats
}

func (c *AcquireConfig) defaults() {
	if c.Buffers <= 0 {
		c.Buffers = 5
	}
	if c.Timeout <= 0 {
		c.Timeout = time.Second
	}
	if c.Stats == nil {
		c.Stats = NewAcquisitionStats()
	}
}

// Acquire streams frames from cam until ctx is done, MaxFrames complete
// frames were received or the handler returns an error. The stream, its
// buffers and the acquisition are always torn down before it returns.
func Acquire(ctx context.Context, cam *Camera, cfg AcquireConfig) (*AcquisitionStats, error) {
	cfg.defaults()
	stats := cfg.Stats

	payload, err := cam.PayloadSize()
	if err != nil {
		return stats, err
	}

	stream, err := cam.CreateStream()
	if err != nil {
		return stats, err
	}

	buffers := make([]*Buffer, 0, cfg.Buffers)
	defer func() {
		stream.Close()
		for _, b := range buffers {
			b.Close()
		}
	}()

	for i := 0; i < cfg.Buffers; i++ {
		b, err := NewBuffer(payload)
		if err != nil {
			return stats, err
		}
		buffers = append(buffers, b)
		if err := stream.PushBuffer(b); err != nil {
			return stats, err
		}
	}

	if err := cam.StartAcquisition(); err != nil {
		return stats, err
	}
	defer func() {
		if err := cam.StopAcquisition(); err != nil {
			logger().Warn("stopping acquisition failed", "error", err)
		}
		stats.Stop()
	}()

	logger().Debug("acquisition started", "payload", payload, "buffers", cfg.Buffers)
	stats.Start()

	for {
		if ctx.Err() != nil {
			return stats, nil
		}

		b, err := stream.TimeoutPopBuffer(cfg.Timeout)
		if errors.Is(err, ErrNoBuffer) {
			stats.RecordTimeout()
			continue
		}
		if err != nil {
			return stats, err
		}

		status, err := b.Status()
		if err != nil {
			return stats, err
		}
		if status == BufferStatusSuccess {
			stats.RecordSuccess(payload)
			if cfg.Handler != nil {
				if err := cfg.Handler(b); err != nil {
					if errors.Is(err, ErrStopAcquisition) {
						return stats, nil
					}
					return stats, err
				}
			}
		} else {
			logger().Trace("incomplete frame", "status", status)
			stats.RecordFailure()
		}

		if err := stream.PushBuffer(b); err != nil {
			return stats, err
		}
		if cfg.MaxFrames > 0 && stats.Successes() >= cfg.MaxFrames {
			return stats, nil
		}
	}
}
