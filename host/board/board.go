// Package board is the host-side client of the fan controller's serial
// command protocol.
package board

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"fanctl/host/serial"
	"fanctl/protocol"
)

var (
	// ErrFailed is returned when the controller replies Failed.
	ErrFailed = errors.New("controller replied failed")
	// ErrTimeout is returned when a reply does not arrive before the deadline.
	ErrTimeout = errors.New("timed out waiting for reply")
	// ErrNotConnected is returned when the board has no open port.
	ErrNotConnected = errors.New("not connected")
)

// DefaultTimeout bounds the wait for a complete reply. At 9600 baud a
// five byte reply takes about 5ms on the wire.
const DefaultTimeout = 500 * time.Millisecond

// Board represents a connection to a fan controller
type Board struct {
	mu      sync.Mutex
	port    serial.Port
	timeout time.Duration
	rx      *protocol.FifoBuffer
	chunk   []byte
}

// rxBufferSize covers the longest reply several times over.
const rxBufferSize = 64

// New wraps an already open port.
func New(port serial.Port) *Board {
	return &Board{
		port:    port,
		timeout: DefaultTimeout,
		rx:      protocol.NewFifoBuffer(rxBufferSize),
		chunk:   make([]byte, rxBufferSize/2),
	}
}

// Connect opens device with the default link configuration
func Connect(device string) (*Board, error) {
	return ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig opens a board with a custom serial config
func ConnectWithConfig(cfg *serial.Config) (*Board, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	glog.V(1).Infof("opened %s at %d baud", cfg.Device, cfg.Baud)
	return New(port), nil
}

// SetTimeout changes the reply deadline.
func (b *Board) SetTimeout(d time.Duration) {
	b.mu.Lock()
	b.timeout = d
	b.mu.Unlock()
}

// Close closes the connection to the board
func (b *Board) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.port == nil {
		return nil
	}
	err := b.port.Close()
	b.port = nil
	return err
}

// Exec sends a raw frame and reads the reply. payload is the number of
// bytes that follow a Success reply type. A Failed reply returns ErrFailed.
func (b *Board) Exec(frame []byte, payload int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.port == nil {
		return nil, ErrNotConnected
	}

	// Drop anything left over from an earlier, timed out exchange.
	if err := b.port.Flush(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}
	b.rx.Reset()

	if glog.V(2) {
		glog.Infof("TX % x", frame)
	}
	if _, err := b.port.Write(frame); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	deadline := time.Now().Add(b.timeout)
	head := make([]byte, 1)
	if err := b.readFull(head, deadline); err != nil {
		return nil, err
	}

	switch protocol.ReplyType(head[0]) {
	case protocol.ReplyFailed:
		glog.V(2).Infof("RX % x (failed)", head)
		return nil, ErrFailed
	case protocol.ReplySuccess:
	default:
		return nil, fmt.Errorf("reply type 0x%02x: %w", head[0], protocol.ErrUnknownReply)
	}

	body := make([]byte, payload)
	if err := b.readFull(body, deadline); err != nil {
		return nil, err
	}
	glog.V(2).Infof("RX %02x % x", head[0], body)
	return body, nil
}

// readFull fills buf, treating empty reads as "no data yet" until deadline.
// Port reads land in the receive FIFO first; bytes past what buf needs stay
// there until the next exchange flushes them.
func (b *Board) readFull(buf []byte, deadline time.Time) error {
	for b.rx.Available() < len(buf) {
		want := b.rx.Free()
		if want > len(b.chunk) {
			want = len(b.chunk)
		}
		n, err := b.port.Read(b.chunk[:want])
		b.rx.Write(b.chunk[:n])
		if err != nil && err != io.EOF {
			return fmt.Errorf("read: %w", err)
		}
		if b.rx.Available() < len(buf) && time.Now().After(deadline) {
			return ErrTimeout
		}
	}
	b.rx.Read(buf)
	return nil
}

func (b *Board) exec(cmd protocol.CommandType, args ...byte) ([]byte, error) {
	payload, err := b.Exec(protocol.EncodeCommand(cmd, args...), protocol.ReplyPayloadSize(cmd))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cmd, err)
	}
	return payload, nil
}

// GetMode reads the firmware mode.
func (b *Board) GetMode() (protocol.FirmwareMode, error) {
	payload, err := b.exec(protocol.CmdGetMode)
	if err != nil {
		return 0, err
	}
	return protocol.FirmwareMode(payload[0]), nil
}

// SetMode changes the firmware mode.
func (b *Board) SetMode(mode protocol.FirmwareMode) error {
	if !mode.Valid() {
		return fmt.Errorf("invalid mode 0x%02x", byte(mode))
	}
	_, err := b.exec(protocol.CmdSetMode, byte(mode))
	return err
}

// ReadPort samples an input line. The board must be in test mode.
func (b *Board) ReadPort(port protocol.ReadablePort) (bool, error) {
	payload, err := b.exec(protocol.CmdReadPort, byte(port))
	if err != nil {
		return false, err
	}
	return payload[0] != 0, nil
}

// WritePort drives an output line. The board must be in test mode.
func (b *Board) WritePort(port protocol.WritablePort, level bool) error {
	_, err := b.exec(protocol.CmdWritePort, byte(port), protocol.BoolByte(level))
	return err
}

// ReadClock returns the controller's boot time in microseconds.
func (b *Board) ReadClock() (uint32, error) {
	payload, err := b.exec(protocol.CmdReadClock)
	if err != nil {
		return 0, err
	}
	return protocol.DecodeBootTime(payload)
}

// Uptime returns the controller's boot time as a duration.
func (b *Board) Uptime() (time.Duration, error) {
	us, err := b.ReadClock()
	if err != nil {
		return 0, err
	}
	return time.Duration(us) * time.Microsecond, nil
}
