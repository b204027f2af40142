// Package protocol defines the serial command protocol spoken between the
// fan controller firmware and its companion tool.
//
// A command frame is a begin marker followed by a command type byte and the
// command-specific arguments. A reply is a single reply type byte, followed
// by a payload only when the command succeeded. All values are fixed-width
// and multi-byte payloads are little-endian.
package protocol

// Version represents the fanctl firmware version
const Version = "0.3.0"

// Link parameters. The link layer is configured by the target bring-up code
// but must match on both ends.
const (
	BaudRate = 9600
	DataBits = 8
	StopBits = 1
)

// CmdBegin starts every command frame.
const CmdBegin byte = 0xFF

// ReadTimeoutMicros is the per-byte receive timeout while a frame is being parsed.
const ReadTimeoutMicros = 100000

// CommandType discriminates command frames.
type CommandType byte

const (
	CmdGetMode        CommandType = 0x00
	CmdSetMode        CommandType = 0x01
	CmdReadPort       CommandType = 0x10 // Test mode only
	CmdWritePort      CommandType = 0x11 // Test mode only
	CmdGetInputSpeed  CommandType = 0x20
	CmdGetInputPWM    CommandType = 0x21
	CmdSetOutputSpeed CommandType = 0x30
	CmdSetOutputPWM   CommandType = 0x31
	CmdReadConfig     CommandType = 0x40
	CmdWriteConfig    CommandType = 0x41
	CmdReadClock      CommandType = 0x50
)

// String returns the command name used in logs and the host CLI.
func (c CommandType) String() string {
	switch c {
	case CmdGetMode:
		return "get_mode"
	case CmdSetMode:
		return "set_mode"
	case CmdReadPort:
		return "read_port"
	case CmdWritePort:
		return "write_port"
	case CmdGetInputSpeed:
		return "get_input_speed"
	case CmdGetInputPWM:
		return "get_input_pwm"
	case CmdSetOutputSpeed:
		return "set_output_speed"
	case CmdSetOutputPWM:
		return "set_output_pwm"
	case CmdReadConfig:
		return "read_config"
	case CmdWriteConfig:
		return "write_config"
	case CmdReadClock:
		return "read_clock"
	}
	return "unknown"
}

// FirmwareMode is the operating mode of the controller.
type FirmwareMode byte

const (
	ModeNormal FirmwareMode = 0x00
	ModeManual FirmwareMode = 0x01
	ModeTest   FirmwareMode = 0x02
)

// Valid reports whether m is one of the defined modes.
func (m FirmwareMode) Valid() bool {
	return m == ModeNormal || m == ModeManual || m == ModeTest
}

func (m FirmwareMode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeManual:
		return "manual"
	case ModeTest:
		return "test"
	}
	return "invalid"
}

// ParseMode converts a mode name to its wire value.
func ParseMode(s string) (FirmwareMode, bool) {
	switch s {
	case "normal":
		return ModeNormal, true
	case "manual":
		return ModeManual, true
	case "test":
		return ModeTest, true
	}
	return 0, false
}

// ReadablePort names an input line that can be sampled in test mode.
type ReadablePort byte

const (
	PortPWMInput   ReadablePort = 0x00
	PortSpeedInput ReadablePort = 0x01
)

// Valid reports whether p is a readable port.
func (p ReadablePort) Valid() bool {
	return p == PortPWMInput || p == PortSpeedInput
}

func (p ReadablePort) String() string {
	switch p {
	case PortPWMInput:
		return "pwm_input"
	case PortSpeedInput:
		return "speed_input"
	}
	return "invalid"
}

// WritablePort names an output line that can be driven in test mode.
type WritablePort byte

const (
	PortSpeedOutput WritablePort = 0x00
	PortPWMOutput   WritablePort = 0x01
)

// Valid reports whether p is a writable port.
func (p WritablePort) Valid() bool {
	return p == PortSpeedOutput || p == PortPWMOutput
}

func (p WritablePort) String() string {
	switch p {
	case PortSpeedOutput:
		return "speed_output"
	case PortPWMOutput:
		return "pwm_output"
	}
	return "invalid"
}

// ReplyType is the first byte of every reply.
type ReplyType byte

const (
	ReplyFailed  ReplyType = 0x00
	ReplySuccess ReplyType = 0x01
)
