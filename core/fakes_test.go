package core

import (
	"errors"
	"fanctl/protocol"
)

// scriptLink replays rx and times out once it runs dry.
type scriptLink struct {
	rx       []byte
	tx       []byte
	timeouts int
}

func (l *scriptLink) ReadByte(timeoutMicros uint32) (byte, error) {
	if len(l.rx) == 0 {
		l.timeouts++
		return 0, ErrTimeout
	}
	b := l.rx[0]
	l.rx = l.rx[1:]
	return b, nil
}

func (l *scriptLink) WriteByte(b byte) error {
	l.tx = append(l.tx, b)
	return nil
}

func (l *scriptLink) Buffered() int {
	return len(l.rx)
}

// fakeUART is a drivers.UART backed by a FIFO.
type fakeUART struct {
	rx *protocol.FifoBuffer
	tx []byte
}

func newFakeUART() *fakeUART {
	return &fakeUART{rx: protocol.NewFifoBuffer(64)}
}

func (u *fakeUART) Read(p []byte) (int, error) {
	return u.rx.Read(p), nil
}

func (u *fakeUART) Write(p []byte) (int, error) {
	u.tx = append(u.tx, p...)
	return len(p), nil
}

func (u *fakeUART) Buffered() int {
	return u.rx.Available()
}

var errPinFault = errors.New("pin fault")

// MockGPIODriver is a test implementation of GPIODriver
type MockGPIODriver struct {
	pins    map[GPIOPin]bool
	outputs map[GPIOPin]bool
	pullups map[GPIOPin]bool
	reads   int
	fail    bool
}

func NewMockGPIODriver() *MockGPIODriver {
	return &MockGPIODriver{
		pins:    make(map[GPIOPin]bool),
		outputs: make(map[GPIOPin]bool),
		pullups: make(map[GPIOPin]bool),
	}
}

func (m *MockGPIODriver) ConfigureOutput(pin GPIOPin) error {
	m.outputs[pin] = true
	return nil
}

func (m *MockGPIODriver) ConfigureInputPullUp(pin GPIOPin) error {
	m.pullups[pin] = true
	m.pins[pin] = true
	return nil
}

func (m *MockGPIODriver) SetPin(pin GPIOPin, value bool) error {
	if m.fail {
		return errPinFault
	}
	m.pins[pin] = value
	return nil
}

func (m *MockGPIODriver) GetPin(pin GPIOPin) (bool, error) {
	if m.fail {
		return false, errPinFault
	}
	m.reads++
	return m.pins[pin], nil
}

var testPins = PinMap{PWMInput: 2, SpeedInput: 3, SpeedOutput: 4, PWMOutput: 5}
