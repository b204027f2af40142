package protocol

import (
	"encoding/binary"
	"errors"
)

var (
	ErrShortReply   = errors.New("reply too short")
	ErrUnknownReply = errors.New("unknown reply type")
)

// Reply sizes on success, including the reply type byte.
const (
	ReplyFailedSize    = 1
	ReplyGetModeSize   = 2
	ReplySetModeSize   = 1
	ReplyReadPortSize  = 2
	ReplyWritePortSize = 1
	ReplyReadClockSize = 5
)

// Failed is the single-byte reply sent for every rejected or aborted frame.
var Failed = []byte{byte(ReplyFailed)}

// Success is the reply for commands that carry no payload.
var Success = []byte{byte(ReplySuccess)}

// EncodeCommand builds a command frame for the given type and arguments.
func EncodeCommand(cmd CommandType, args ...byte) []byte {
	frame := make([]byte, 0, 2+len(args))
	frame = append(frame, CmdBegin, byte(cmd))
	return append(frame, args...)
}

// GetModeFrame builds a GetMode command.
func GetModeFrame() []byte {
	return EncodeCommand(CmdGetMode)
}

// SetModeFrame builds a SetMode command.
func SetModeFrame(mode FirmwareMode) []byte {
	return EncodeCommand(CmdSetMode, byte(mode))
}

// ReadPortFrame builds a ReadPort command.
func ReadPortFrame(port ReadablePort) []byte {
	return EncodeCommand(CmdReadPort, byte(port))
}

// WritePortFrame builds a WritePort command.
func WritePortFrame(port WritablePort, level bool) []byte {
	return EncodeCommand(CmdWritePort, byte(port), BoolByte(level))
}

// ReadClockFrame builds a ReadClock command.
func ReadClockFrame() []byte {
	return EncodeCommand(CmdReadClock)
}

// BoolByte encodes a boolean as 0 or 1.
func BoolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

// GetModeReply encodes a successful GetMode reply.
func GetModeReply(mode FirmwareMode) []byte {
	return []byte{byte(ReplySuccess), byte(mode)}
}

// ReadPortReply encodes a successful ReadPort reply.
func ReadPortReply(level bool) []byte {
	return []byte{byte(ReplySuccess), BoolByte(level)}
}

// ReadClockReply encodes a successful ReadClock reply.
func ReadClockReply(bootTime uint32) []byte {
	reply := make([]byte, ReplyReadClockSize)
	reply[0] = byte(ReplySuccess)
	binary.LittleEndian.PutUint32(reply[1:], bootTime)
	return reply
}

// DecodeBootTime extracts the boot time from a ReadClock payload.
func DecodeBootTime(payload []byte) (uint32, error) {
	if len(payload) < 4 {
		return 0, ErrShortReply
	}
	return binary.LittleEndian.Uint32(payload), nil
}

// ReplyPayloadSize returns the number of payload bytes that follow a
// Success reply type byte for the given command.
func ReplyPayloadSize(cmd CommandType) int {
	switch cmd {
	case CmdGetMode, CmdReadPort:
		return 1
	case CmdReadClock:
		return 4
	}
	return 0
}
