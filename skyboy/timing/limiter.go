package timing

import "time"

// Limiter paces the host loop, one call per emulated batch.
type Limiter interface {
	// WaitForNextFrame blocks until the next host frame is due.
	// Returns immediately when running behind.
	WaitForNextFrame()

	// Reset restarts the pacing, used after a pause.
	Reset()

	// Stop releases the limiter's resources.
	Stop()
}

// NewNoOpLimiter returns a limiter that never blocks, for headless runs.
func NewNoOpLimiter() Limiter {
	return noOpLimiter{}
}

type noOpLimiter struct{}

func (noOpLimiter) WaitForNextFrame() {}
func (noOpLimiter) Reset()            {}
func (noOpLimiter) Stop()             {}

// DefaultFPS is the host refresh rate used when none is configured.
const DefaultFPS = 60

// FrameDuration returns the duration of one host frame at fps frames per second.
// A non-positive fps falls back to DefaultFPS.
func FrameDuration(fps int) time.Duration {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return time.Second / time.Duration(fps)
}
