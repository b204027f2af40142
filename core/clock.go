package core

// TickMicros is the period of the timer interrupt in microseconds.
const TickMicros = 17

// Clock counts microseconds since boot. It is advanced only by the timer
// interrupt handler; mainline code reads it through BootTime.
type Clock struct {
	irq      IRQ
	bootTime uint32
	sampler  *Sampler
}

// NewClock creates a clock that drives the sampling window of s on every
// tick. s may be nil.
func NewClock(s *Sampler) *Clock {
	return &Clock{sampler: s}
}

// TimerTick is the timer interrupt handler.
func (c *Clock) TimerTick() {
	c.irq.Enter()
	c.bootTime += TickMicros
	c.irq.Exit()

	if c.sampler != nil {
		c.sampler.timerTick()
	}
}

// BootTime returns microseconds since boot. The timer interrupt is masked
// around the copy so the value is never torn.
func (c *Clock) BootTime() uint32 {
	state := c.irq.Disable()
	t := c.bootTime
	c.irq.Restore(state)
	return t
}

// Elapsed returns the microseconds passed since start, correct across wrap.
func (c *Clock) Elapsed(start uint32) uint32 {
	return c.BootTime() - start
}
