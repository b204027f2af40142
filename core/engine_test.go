package core

import (
	"bytes"
	"fanctl/protocol"
	"testing"
)

type engineFixture struct {
	engine *Engine
	mode   *ModeState
	clock  *Clock
	gpio   *MockGPIODriver
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	gpio := NewMockGPIODriver()
	ports, err := NewGPIOPorts(gpio, testPins)
	if err != nil {
		t.Fatalf("NewGPIOPorts failed: %v", err)
	}
	mode := &ModeState{}
	clock := NewClock(nil)
	registry := NewCommandRegistry()
	RegisterCoreCommands(registry, mode, clock, ports)
	return &engineFixture{
		engine: NewEngine(registry, mode, clock),
		mode:   mode,
		clock:  clock,
		gpio:   gpio,
	}
}

// run feeds input through HandleFrame until it is consumed and returns
// everything written back.
func (f *engineFixture) run(t *testing.T, input ...byte) []byte {
	t.Helper()
	link := &scriptLink{rx: input}
	for {
		if err := f.engine.HandleFrame(link); err != nil {
			t.Fatalf("HandleFrame failed: %v", err)
		}
		if len(link.rx) == 0 {
			return link.tx
		}
	}
}

func TestProtocolScenarios(t *testing.T) {
	t.Run("get mode", func(t *testing.T) {
		f := newEngineFixture(t)
		if got := f.run(t, 0xFF, 0x00); !bytes.Equal(got, []byte{0x01, 0x00}) {
			t.Errorf("Expected [01 00], got % x", got)
		}
	})

	t.Run("set mode test", func(t *testing.T) {
		f := newEngineFixture(t)
		if got := f.run(t, 0xFF, 0x01, 0x02); !bytes.Equal(got, []byte{0x01}) {
			t.Errorf("Expected [01], got % x", got)
		}
		if got := f.run(t, 0xFF, 0x00); !bytes.Equal(got, []byte{0x01, 0x02}) {
			t.Errorf("Expected [01 02], got % x", got)
		}
	})

	t.Run("read port outside test mode", func(t *testing.T) {
		f := newEngineFixture(t)
		if got := f.run(t, 0xFF, 0x10, 0x00); !bytes.Equal(got, []byte{0x00}) {
			t.Errorf("Expected [00], got % x", got)
		}
		if f.gpio.reads != 0 {
			t.Errorf("Port read performed outside test mode")
		}
	})

	t.Run("unknown command", func(t *testing.T) {
		f := newEngineFixture(t)
		if got := f.run(t, 0xFF, 0x99); !bytes.Equal(got, []byte{0x00}) {
			t.Errorf("Expected [00], got % x", got)
		}
	})

	t.Run("stray begin marker", func(t *testing.T) {
		f := newEngineFixture(t)
		if got := f.run(t, 0xFF, 0xFF, 0x00); !bytes.Equal(got, []byte{0x00, 0x01, 0x00}) {
			t.Errorf("Expected [00 01 00], got % x", got)
		}
	})

	t.Run("timeout after begin marker", func(t *testing.T) {
		f := newEngineFixture(t)
		link := &scriptLink{rx: []byte{0xFF}}
		if err := f.engine.HandleFrame(link); err != nil {
			t.Fatalf("HandleFrame failed: %v", err)
		}
		if !bytes.Equal(link.tx, []byte{0x00}) {
			t.Errorf("Expected [00], got % x", link.tx)
		}
		if link.timeouts != 1 {
			t.Errorf("Expected one timeout, got %d", link.timeouts)
		}
	})
}

func TestTestModeCommands(t *testing.T) {
	f := newEngineFixture(t)
	f.mode.Set(protocol.ModeTest)

	f.gpio.pins[testPins.SpeedInput] = false
	if got := f.run(t, protocol.ReadPortFrame(protocol.PortSpeedInput)...); !bytes.Equal(got, []byte{0x01, 0x00}) {
		t.Errorf("Expected [01 00], got % x", got)
	}
	f.gpio.pins[testPins.PWMInput] = true
	if got := f.run(t, protocol.ReadPortFrame(protocol.PortPWMInput)...); !bytes.Equal(got, []byte{0x01, 0x01}) {
		t.Errorf("Expected [01 01], got % x", got)
	}

	if got := f.run(t, protocol.WritePortFrame(protocol.PortPWMOutput, true)...); !bytes.Equal(got, []byte{0x01}) {
		t.Errorf("Expected [01], got % x", got)
	}
	if !f.gpio.pins[testPins.PWMOutput] {
		t.Error("PWM output not driven high")
	}
	if f.gpio.pins[testPins.SpeedOutput] {
		t.Error("Speed output changed unexpectedly")
	}

	// Value must be 0 or 1.
	if got := f.run(t, 0xFF, 0x11, 0x00, 0x02); !bytes.Equal(got, []byte{0x00}) {
		t.Errorf("Expected [00] for bad level, got % x", got)
	}

	f.gpio.fail = true
	if got := f.run(t, protocol.WritePortFrame(protocol.PortSpeedOutput, true)...); !bytes.Equal(got, []byte{0x00}) {
		t.Errorf("Expected [00] on pin fault, got % x", got)
	}
}

func TestFramingErrors(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  []byte
	}{
		{"missing begin marker", []byte{0x00}, []byte{0x00}},
		{"invalid mode", []byte{0xFF, 0x01, 0x07}, []byte{0x00}},
		{"invalid readable port", []byte{0xFF, 0x10, 0x05}, []byte{0x00}},
		{"invalid writable port", []byte{0xFF, 0x11, 0x02}, []byte{0x00}},
		{"begin marker as argument", []byte{0xFF, 0x01, 0xFF, 0x00}, []byte{0x00, 0x01, 0x00}},
		{"read clock", []byte{0xFF, 0x50}, []byte{0x01, 0x00, 0x00, 0x00, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture(t)
			if got := f.run(t, tt.input...); !bytes.Equal(got, tt.want) {
				t.Errorf("Expected % x, got % x", tt.want, got)
			}
		})
	}
}

func TestResyncInsideWritePort(t *testing.T) {
	f := newEngineFixture(t)
	for i := 0; i < 3; i++ {
		f.clock.TimerTick()
	}
	got := f.run(t, 0xFF, 0x11, 0x00, 0xFF, 0x50)
	want := []byte{0x00, 0x01, 51, 0x00, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("Expected % x, got % x", want, got)
	}
}

func TestReservedCommandsFailImmediately(t *testing.T) {
	for _, cmd := range []protocol.CommandType{
		protocol.CmdGetInputSpeed,
		protocol.CmdGetInputPWM,
		protocol.CmdSetOutputSpeed,
		protocol.CmdSetOutputPWM,
		protocol.CmdReadConfig,
		protocol.CmdWriteConfig,
	} {
		f := newEngineFixture(t)
		link := &scriptLink{rx: []byte{0xFF, byte(cmd), 0x00}}
		if err := f.engine.HandleFrame(link); err != nil {
			t.Fatalf("HandleFrame failed: %v", err)
		}
		if !bytes.Equal(link.tx, []byte{0x00}) {
			t.Errorf("%s: expected [00], got % x", cmd, link.tx)
		}
		// The frame ends right after the type byte.
		if len(link.rx) != 1 {
			t.Errorf("%s: expected trailing byte left unread, %d left", cmd, len(link.rx))
		}
	}
}

func TestStepTransitions(t *testing.T) {
	f := newEngineFixture(t)
	e := f.engine

	s, reply := e.Step(ParseState{}, 0xFF)
	if s.Stage != AwaitCommandType || reply != nil {
		t.Fatalf("Unexpected state after begin marker: %+v, % x", s, reply)
	}

	s, reply = e.Step(s, byte(protocol.CmdWritePort))
	if s.Stage != AwaitArg || s.N != 0 || reply != nil {
		t.Fatalf("Unexpected state after command type: %+v, % x", s, reply)
	}

	s, reply = e.Step(s, byte(protocol.PortSpeedOutput))
	if s.Stage != AwaitArg || s.N != 1 || reply != nil {
		t.Fatalf("Unexpected state after first argument: %+v, % x", s, reply)
	}

	// Not in test mode: frame completes with Failed.
	s, reply = e.Step(s, 1)
	if !s.Done() || !bytes.Equal(reply, protocol.Failed) {
		t.Errorf("Expected Failed and idle state, got %+v, % x", s, reply)
	}

	// Timeout from any stage resets the parser.
	s, reply = e.Timeout(ParseState{Stage: AwaitArg, Cmd: s.Cmd, N: 1})
	if !s.Done() || !bytes.Equal(reply, protocol.Failed) {
		t.Errorf("Expected Failed and idle state on timeout, got %+v, % x", s, reply)
	}
}

func TestHandleFrameNotReentrant(t *testing.T) {
	f := newEngineFixture(t)
	f.engine.busy = 1
	if err := f.engine.HandleFrame(&scriptLink{rx: []byte{0xFF, 0x00}}); err != ErrReentered {
		t.Errorf("Expected ErrReentered, got %v", err)
	}
}

func TestFailedFrameLogged(t *testing.T) {
	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	SetDebugEnabled(true)
	t.Cleanup(func() {
		SetDebugEnabled(false)
		SetDebugWriter(func(string) {})
	})

	f := newEngineFixture(t)
	f.mode.Set(protocol.ModeTest)

	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"junk before begin", []byte{0x42}, "[PROTO] failed 42"},
		{"unknown type", []byte{0xFF, 0x7A}, "[PROTO] failed ff 7a"},
		{"bad second argument", []byte{0xFF, 0x11, 0x01, 0x05}, "[PROTO] failed ff 11 01 05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines = nil
			if got := f.run(t, tt.input...); !bytes.Equal(got, protocol.Failed) {
				t.Errorf("Expected Failed reply, got % x", got)
			}
			if len(lines) != 1 || lines[0] != tt.want {
				t.Errorf("Debug output %q, want %q", lines, tt.want)
			}
		})
	}

	lines = nil
	f.mode.Set(protocol.ModeNormal)
	f.run(t, 0xFF, 0x10, 0x01)
	if len(lines) != 1 || lines[0] != "[PROTO] failed ff 10 01" {
		t.Errorf("Debug output %q for test-only command", lines)
	}
}
