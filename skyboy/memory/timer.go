package memory

import (
	"github.com/valerio/go-skyboy/skyboy/addr"
	"github.com/valerio/go-skyboy/skyboy/bit"
)

const (
	// ClockSpeed is the CPU clock in cycles per second.
	ClockSpeed = 4194304
	// DivPeriod is the number of cycles between two DIV increments (16384 Hz).
	DivPeriod = ClockSpeed / 16384
)

// timaPeriods maps TAC bits 0-1 to the number of cycles between TIMA increments.
var timaPeriods = [4]int{1024, 16, 64, 256}

// Timer holds the countdown budgets for DIV and TIMA. The counters themselves live
// in the I/O registers on the bus.
type Timer struct {
	DivCountdown  int
	TimaCountdown int
}

// Reset zeroes both countdowns.
func (t *Timer) Reset() {
	t.DivCountdown = 0
	t.TimaCountdown = 0
}

// Tick advances DIV and TIMA by the elapsed cycles. Each countdown is re-armed
// by adding its period, so overrun carries into the next period.
func (t *Timer) Tick(bus *Bus, cycles int) {
	t.DivCountdown -= cycles
	for t.DivCountdown < 0 {
		t.DivCountdown += DivPeriod
		bus.WriteDirect(addr.DIV, bus.ReadDirect(addr.DIV)+1)
	}

	tac := bus.ReadDirect(addr.TAC)
	if !bit.IsSet(2, tac) {
		return
	}

	period := timaPeriods[tac&0x03]
	t.TimaCountdown -= cycles
	for t.TimaCountdown < 0 {
		t.TimaCountdown += period
		tima := bus.ReadDirect(addr.TIMA)
		if tima == 0xFF {
			bus.RequestInterrupt(addr.TimerInterrupt)
			bus.WriteDirect(addr.TIMA, bus.ReadDirect(addr.TMA))
			continue
		}
		bus.WriteDirect(addr.TIMA, tima+1)
	}
}
