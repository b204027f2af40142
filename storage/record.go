package storage

import (
	"encoding/binary"
	"errors"
)

var (
	// ErrChecksum is returned with the decoded record when its trailer does not match.
	ErrChecksum = errors.New("config record checksum mismatch")
	// ErrShortBuffer is returned when fewer than RecordWireSize bytes are given.
	ErrShortBuffer = errors.New("config record buffer too short")
	// ErrVerify is returned when a freshly written record does not read back intact.
	ErrVerify = errors.New("config record read-back mismatch")
)

// PWMStages is the number of entries in the duty-cycle map.
const PWMStages = 20

// Record layout: PWM map, source full speed, target full speed, CRC16.
const (
	recordPWMOffset    = 0
	recordSourceOffset = recordPWMOffset + PWMStages
	recordTargetOffset = recordSourceOffset + 4
	recordCRCOffset    = recordTargetOffset + 4

	// RecordWireSize is the number of bytes a record occupies in its slot.
	RecordWireSize = recordCRCOffset + 2
)

// A record must fit in one slot.
var _ [RecordSize - RecordWireSize]struct{}

// Default record values.
const (
	DefaultPWM       = 100
	DefaultFullSpeed = 1000
)

// ConfigRecord is the persisted configuration: a duty-cycle to speed map
// (each stage a percentage of full scale) and the full-speed pair the map
// scales between.
type ConfigRecord struct {
	PWMMap          [PWMStages]uint8 // Output duty per input stage, 0-100
	SourceFullSpeed uint32           // Input full speed (Hz)
	TargetFullSpeed uint32           // Output full speed (Hz)
}

// DefaultRecord returns the record written on format: every stage at full
// scale and a 1:1 speed mapping.
func DefaultRecord() ConfigRecord {
	var r ConfigRecord
	for i := range r.PWMMap {
		r.PWMMap[i] = DefaultPWM
	}
	r.SourceFullSpeed = DefaultFullSpeed
	r.TargetFullSpeed = DefaultFullSpeed
	return r
}

// Encode serializes the record with its checksum trailer.
func (r ConfigRecord) Encode() []byte {
	buf := make([]byte, RecordWireSize)
	copy(buf[recordPWMOffset:], r.PWMMap[:])
	binary.LittleEndian.PutUint32(buf[recordSourceOffset:], r.SourceFullSpeed)
	binary.LittleEndian.PutUint32(buf[recordTargetOffset:], r.TargetFullSpeed)
	binary.LittleEndian.PutUint16(buf[recordCRCOffset:], CRC16(buf[:recordCRCOffset]))
	return buf
}

// DecodeRecord parses a record. On a checksum mismatch the decoded fields
// are still returned together with ErrChecksum.
func DecodeRecord(buf []byte) (ConfigRecord, error) {
	var r ConfigRecord
	if len(buf) < RecordWireSize {
		return r, ErrShortBuffer
	}
	copy(r.PWMMap[:], buf[recordPWMOffset:recordSourceOffset])
	r.SourceFullSpeed = binary.LittleEndian.Uint32(buf[recordSourceOffset:])
	r.TargetFullSpeed = binary.LittleEndian.Uint32(buf[recordTargetOffset:])
	if binary.LittleEndian.Uint16(buf[recordCRCOffset:]) != CRC16(buf[:recordCRCOffset]) {
		return r, ErrChecksum
	}
	return r, nil
}
