//go:build rp2040

package main

import (
	"errors"
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"

	"fanctl/core"
)

// Sampling program. Every pass takes four cycles on either branch and
// shifts the pin level into the ISR; autopush hands 32 samples at a time
// to the RX FIFO.
func buildCaptureProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Set(rp2pio.SetDestX, 0).Encode(),    // 0: set x, 0
		asm.Jmp(3, rp2pio.JmpPinInput).Encode(), // 1: jmp pin, 3
		asm.Jmp(4, rp2pio.JmpAlways).Encode(),   // 2: jmp 4
		asm.Set(rp2pio.SetDestX, 1).Encode(),    // 3: set x, 1
		asm.In(rp2pio.InSrcX, 1).Encode(),       // 4: in x, 1
		// .wrap
	}
}

const (
	captureOrigin = 0
	captureSM     = 0
)

var errStateMachineBusy = errors.New("pio state machine already claimed")

// captureClkDiv gives 125MHz / 125 / 4 cycles = 250k samples per second.
const captureClkDiv = 125

// DutyCapture samples the PWM input with a PIO state machine and feeds
// each level to the sampler.
type DutyCapture struct {
	sm      rp2pio.StateMachine
	sampler *core.Sampler
}

// NewDutyCapture starts sampling pin on PIO0.
func NewDutyCapture(pin machine.Pin, sampler *core.Sampler) (*DutyCapture, error) {
	sm := rp2pio.PIO0.StateMachine(captureSM)
	if !sm.TryClaim() {
		return nil, errStateMachineBusy
	}

	program := buildCaptureProgram()
	offset, err := rp2pio.PIO0.AddProgram(program, captureOrigin)
	if err != nil {
		return nil, err
	}

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetJmpPin(pin)
	cfg.SetInShift(true, true, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(captureClkDiv, 0)

	sm.Init(offset, cfg)
	sm.SetEnabled(true)
	return &DutyCapture{sm: sm, sampler: sampler}, nil
}

// Drain moves every buffered sample word into the sampler.
func (c *DutyCapture) Drain() {
	for !c.sm.IsRxFIFOEmpty() {
		word := c.sm.RxGet()
		for i := 0; i < 32; i++ {
			c.sampler.CaptureSample(word&(1<<i) != 0)
		}
	}
}
