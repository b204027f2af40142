// Package storage keeps the controller's configuration record in on-chip
// flash, spreading writes over every slot of the storage region before an
// erase is needed.
package storage

import "errors"

var (
	// ErrBusy is returned when the flash programming controller reports
	// a busy or error status after a command was triggered.
	ErrBusy = errors.New("flash controller busy or failed")
	// ErrOutOfRange is returned for addresses outside the storage region.
	ErrOutOfRange = errors.New("flash address out of range")
)

// ByteStore is the raw flash capability. Every operation either completes
// or fails immediately; nothing is retried at this layer.
type ByteStore interface {
	// ReadByte reads the byte at addr.
	ReadByte(addr uint16) (byte, error)

	// WriteByte programs the byte at addr. Flash programming can only
	// clear bits, so the target cell must have been erased first.
	WriteByte(addr uint16, b byte) error

	// ErasePage resets the page containing addr to 0xFF.
	ErasePage(addr uint16) error
}

// ReadBytes fills buf from consecutive addresses starting at addr.
// It stops at the first failure and returns how many bytes were read.
func ReadBytes(bs ByteStore, addr uint16, buf []byte) (int, error) {
	for i := range buf {
		b, err := bs.ReadByte(addr + uint16(i))
		if err != nil {
			return i, err
		}
		buf[i] = b
	}
	return len(buf), nil
}

// WriteBytes programs data at consecutive addresses starting at addr.
// It stops at the first failure and returns how many bytes were written.
// A partial write is left in place.
func WriteBytes(bs ByteStore, addr uint16, data []byte) (int, error) {
	for i, b := range data {
		if err := bs.WriteByte(addr+uint16(i), b); err != nil {
			return i, err
		}
	}
	return len(data), nil
}
