package aravis

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// AcquisitionStats tracks frame counts, throughput and frame intervals of an
// acquisition. It is safe for concurrent use.
type AcquisitionStats struct {
	now func() time.Time

	mu        sync.Mutex
	started   time.Time
	stopped   time.Time
	running   bool
	lastFrame time.Time

	frames    int64
	successes int64
	failures  int64
	timeouts  int64
	bytes     int64

	minInterval time.Duration
	maxInterval time.Duration
}

// NewAcquisitionStats returns stopped, zeroed statistics.
func NewAcquisitionStats() *AcquisitionStats {
	return &AcquisitionStats{now: time.Now}
}

// Start resets the counters and starts the clock.
func (s *AcquisitionStats) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	s.started = s.now()
	s.lastFrame = s.started
	s.running = true
}

// Stop freezes the clock. Counters keep their values.
func (s *AcquisitionStats) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.stopped = s.now()
		s.running = false
	}
}

// Reset zeroes every counter and the clock.
func (s *AcquisitionStats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *AcquisitionStats) reset() {
	s.started, s.stopped, s.lastFrame = time.Time{}, time.Time{}, time.Time{}
	s.running = false
	s.frames, s.successes, s.failures, s.timeouts, s.bytes = 0, 0, 0, 0, 0
	s.minInterval, s.maxInterval = 0, 0
}

// RecordSuccess counts a complete frame of size bytes. The interval to the
// previous frame is tracked from the second frame on.
func (s *AcquisitionStats) RecordSuccess(size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames++
	s.successes++
	s.bytes += int64(size)

	now := s.now()
	if s.successes > 1 {
		d := now.Sub(s.lastFrame)
		if s.successes == 2 || d < s.minInterval {
			s.minInterval = d
		}
		if d > s.maxInterval {
			s.maxInterval = d
		}
	}
	s.lastFrame = now
}

// RecordFailure counts a frame that arrived incomplete.
func (s *AcquisitionStats) RecordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames++
	s.failures++
}

// RecordTimeout counts a pop that returned no frame.
func (s *AcquisitionStats) RecordTimeout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames++
	s.timeouts++
}

// Frames returns the number of attempts recorded.
func (s *AcquisitionStats) Frames() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Successes returns the number of complete frames.
func (s *AcquisitionStats) Successes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.successes
}

// Failures returns the number of incomplete frames.
func (s *AcquisitionStats) Failures() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}

// Timeouts returns the number of pops that timed out.
func (s *AcquisitionStats) Timeouts() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeouts
}

// Bytes returns the payload bytes of all complete frames.
func (s *AcquisitionStats) Bytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytes
}

// Elapsed returns the time since Start, up to Stop if it was called.
func (s *AcquisitionStats) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed()
}

func (s *AcquisitionStats) elapsed() time.Duration {
	switch {
	case s.started.IsZero():
		return 0
	case s.running:
		return s.now().Sub(s.started)
	default:
		return s.stopped.Sub(s.started)
	}
}

// FPS returns complete frames per second.
func (s *AcquisitionStats) FPS() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return rate(float64(s.successes), s.elapsed())
}

// MBps returns the throughput in MiB per second.
func (s *AcquisitionStats) MBps() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return rate(float64(s.bytes)/(1024*1024), s.elapsed())
}

func rate(n float64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return n / d.Seconds()
}

// FrameIntervals returns the shortest and longest time between two complete
// frames. Both are zero until two frames were recorded.
func (s *AcquisitionStats) FrameIntervals() (min, max time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.minInterval, s.maxInterval
}

// SuccessRate returns complete frames as a percentage of all attempts.
func (s *AcquisitionStats) SuccessRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frames == 0 {
		return 0
	}
	return float64(s.successes) * 100 / float64(s.frames)
}

// Status is a one line summary suited to progress output.
func (s *AcquisitionStats) Status() string {
	return fmt.Sprintf("frames: %d | fps: %.1f | %.1f MB/s | failures: %d",
		s.Successes(), s.FPS(), s.MBps(), s.Failures())
}

func (s *AcquisitionStats) String() string {
	min, max := s.FrameIntervals()
	return fmt.Sprintf(`Acquisition Statistics:
  Duration: %.2f seconds
  Frames: %d/%d (%.1f%% success)
  Failures: %d, Timeouts: %d
  Average FPS: %.2f
  Frame Interval: %.2f - %.2f ms
  Throughput: %.2f MB/s
  Total Data: %.2f MB`,
		s.Elapsed().Seconds(),
		s.Successes(), s.Frames(), s.SuccessRate(),
		s.Failures(), s.Timeouts(),
		s.FPS(),
		ms(min), ms(max),
		s.MBps(),
		float64(s.Bytes())/(1024*1024))
}

func ms(d time.Duration) float64 {
	return math.Round(float64(d)/float64(time.Microsecond)) / 1000
}
