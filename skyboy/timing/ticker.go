package timing

import "time"

// TickerLimiter paces frames with a time.Ticker. Missed ticks are dropped by
// the ticker, so a slow frame does not cause a burst afterwards.
type TickerLimiter struct {
	ticker   *time.Ticker
	interval time.Duration
}

func NewTickerLimiter(fps int) *TickerLimiter {
	interval := FrameDuration(fps)
	return &TickerLimiter{
		ticker:   time.NewTicker(interval),
		interval: interval,
	}
}

func (t *TickerLimiter) WaitForNextFrame() {
	<-t.ticker.C
}

func (t *TickerLimiter) Reset() {
	t.ticker.Reset(t.interval)
}

func (t *TickerLimiter) Stop() {
	t.ticker.Stop()
}

// Interval returns the time between two frames.
func (t *TickerLimiter) Interval() time.Duration {
	return t.interval
}
