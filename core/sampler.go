package core

import "sync/atomic"

// Sampling parameters.
const (
	WindowTicks  = 11764                    // Ticks per speed window
	WindowMicros = WindowTicks * TickMicros // 199988 us
	DutySamples  = 100                      // Capture samples per duty reading
)

// Pending reports which conversions ProcessPending ran.
type Pending uint8

const (
	PendingSpeed Pending = 1 << iota
	PendingPWM
)

// Sampler measures the input fan speed and PWM duty cycle.
//
// Interrupt handlers only count and raise flags. The division that turns a
// pulse count into a frequency runs in mainline from ProcessPending.
type Sampler struct {
	// Timer handler only
	windowTicks uint32

	// Edge handler increments, timer handler swaps to zero
	pulses uint32

	pulseCount   uint32 // atomic, last completed window
	speedUpdated uint32 // atomic bool

	// Capture handler only
	samples uint8
	highs   uint8

	duty       uint32 // atomic, percent of last DutySamples samples
	pwmUpdated uint32 // atomic bool

	speedHz uint32 // atomic, mainline writes
}

// NewSampler creates an idle sampler.
func NewSampler() *Sampler {
	return &Sampler{}
}

// timerTick advances the sampling window. Called from Clock.TimerTick.
func (s *Sampler) timerTick() {
	s.windowTicks++
	if s.windowTicks < WindowTicks {
		return
	}
	s.windowTicks = 0
	atomic.StoreUint32(&s.pulseCount, atomic.SwapUint32(&s.pulses, 0))
	atomic.StoreUint32(&s.speedUpdated, 1)
}

// SpeedEdge is the speed input edge interrupt handler.
func (s *Sampler) SpeedEdge() {
	atomic.AddUint32(&s.pulses, 1)
}

// CaptureSample is the duty-cycle capture handler. high is the level of
// the PWM input at the sampling instant.
func (s *Sampler) CaptureSample(high bool) {
	s.samples++
	if high {
		s.highs++
	}
	if s.samples < DutySamples {
		return
	}
	atomic.StoreUint32(&s.duty, uint32(s.highs))
	s.samples = 0
	s.highs = 0
	atomic.StoreUint32(&s.pwmUpdated, 1)
}

// ProcessPending runs the deferred conversions for every window completed
// since the last call. It must be called from mainline only.
func (s *Sampler) ProcessPending() Pending {
	var done Pending
	if atomic.SwapUint32(&s.speedUpdated, 0) != 0 {
		count := uint64(atomic.LoadUint32(&s.pulseCount))
		atomic.StoreUint32(&s.speedHz, uint32(count*1000000/WindowMicros))
		done |= PendingSpeed
	}
	if atomic.SwapUint32(&s.pwmUpdated, 0) != 0 {
		done |= PendingPWM
	}
	return done
}

// PulseCount returns the pulse count of the last completed window.
func (s *Sampler) PulseCount() uint32 {
	return atomic.LoadUint32(&s.pulseCount)
}

// SpeedHz returns the input speed computed by the last ProcessPending.
func (s *Sampler) SpeedHz() uint32 {
	return atomic.LoadUint32(&s.speedHz)
}

// DutyCycle returns the input duty cycle in percent, 0-100.
func (s *Sampler) DutyCycle() uint8 {
	return uint8(atomic.LoadUint32(&s.duty) * 100 / DutySamples)
}
