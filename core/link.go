package core

import (
	"errors"

	"tinygo.org/x/drivers"
)

var (
	// ErrTimeout is returned when no byte arrives within the receive timeout.
	ErrTimeout = errors.New("serial receive timeout")
	// ErrLinkClosed is returned when the UART accepts no more data.
	ErrLinkClosed = errors.New("serial link closed")
)

// Link is the byte channel the protocol engine talks over.
type Link interface {
	// ReadByte waits up to timeoutMicros for the next byte.
	ReadByte(timeoutMicros uint32) (byte, error)
	// WriteByte sends one byte, waiting until it is handed to the transmitter.
	WriteByte(b byte) error
	// Buffered returns the number of received bytes waiting to be read.
	Buffered() int
}

// UARTLink implements Link over a UART, timing receive waits with the
// boot clock. machine.UART satisfies drivers.UART.
type UARTLink struct {
	uart  drivers.UART
	clock *Clock

	// Idle, if set, runs on every poll while waiting for a byte.
	Idle func()
}

// NewUARTLink creates a link over uart.
func NewUARTLink(uart drivers.UART, clock *Clock) *UARTLink {
	return &UARTLink{uart: uart, clock: clock}
}

// ReadByte implements Link.
func (l *UARTLink) ReadByte(timeoutMicros uint32) (byte, error) {
	var buf [1]byte
	start := l.clock.BootTime()
	for {
		if l.uart.Buffered() > 0 {
			n, err := l.uart.Read(buf[:])
			if err != nil {
				return 0, err
			}
			if n == 1 {
				return buf[0], nil
			}
		}
		if l.clock.Elapsed(start) > timeoutMicros {
			return 0, ErrTimeout
		}
		if l.Idle != nil {
			l.Idle()
		}
	}
}

// WriteByte implements Link.
func (l *UARTLink) WriteByte(b byte) error {
	n, err := l.uart.Write([]byte{b})
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrLinkClosed
	}
	return nil
}

// Buffered implements Link.
func (l *UARTLink) Buffered() int {
	return l.uart.Buffered()
}
